package wallet

import (
	"context"
	"fmt"
	"strconv"

	"github.com/stathera/txadmission/internal/mempool"
	"github.com/stathera/txadmission/internal/storage"
	"github.com/stathera/txadmission/internal/transaction"
	apperrors "github.com/stathera/txadmission/pkg/errors"
)

// Manager adapts the Redis-backed ledger to mempool.WalletManager.
// FindByPublicKey resolves an address for a public key so the worker
// can carry a wallet snapshot across the gap to the worker; it derives
// the address the same way NewWallet does, rather than doing a reverse
// lookup, since the ledger is keyed by address.
type Manager struct {
	ledger *storage.RedisLedger
}

// NewManager wires a Manager against an already-connected ledger.
func NewManager(ledger *storage.RedisLedger) *Manager {
	return &Manager{ledger: ledger}
}

// FindByPublicKey returns the balance snapshot for the wallet owning
// pubKey, addressed the same way wallet.NewWallet derives addresses.
func (m *Manager) FindByPublicKey(ctx context.Context, pubKey []byte) (any, error) {
	address := AddressFromPublicKey(pubKey)
	balance, err := m.ledger.GetBalance(address)
	if err != nil {
		return nil, apperrors.MempoolWrap(err, apperrors.OpWalletLookup, apperrors.MempoolErrWalletLookup, fmt.Sprintf("lookup wallet for %s", address))
	}
	return balance, nil
}

// ThrowIfCannotBeApplied checks tx's nonce ordering and its sender's
// ability to afford it against the live ledger state. Only
// AdmissionTx-shaped transactions carry enough information to check;
// anything else is rejected rather than silently admitted. The sender's
// nonce only advances once every other check has passed, so a
// transaction rejected for insufficient funds does not consume it.
func (m *Manager) ThrowIfCannotBeApplied(ctx context.Context, tx mempool.Transaction) error {
	at, ok := tx.(*transaction.AdmissionTx)
	if !ok {
		return fmt.Errorf("wallet check: unsupported transaction implementation")
	}
	ledgerTx := at.Tx

	if ledgerTx.Type == transaction.SupplyIncrease {
		return nil
	}

	address := AddressFromPublicKey(at.PubKey)

	nonce, err := strconv.ParseInt(ledgerTx.Nonce, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid nonce %q: %w", ledgerTx.Nonce, err)
	}
	lastNonce, err := m.ledger.GetNonce(address)
	if err != nil {
		return fmt.Errorf("lookup nonce for %s: %w", address, err)
	}
	if nonce <= lastNonce {
		return fmt.Errorf("nonce out of order: have %d, want greater than %d", nonce, lastNonce)
	}

	balance, err := m.ledger.GetBalance(address)
	if err != nil {
		return fmt.Errorf("lookup balance for %s: %w", address, err)
	}
	if balance < ledgerTx.Amount+ledgerTx.Fee {
		return fmt.Errorf("insufficient funds: have %.8f, need %.8f", balance, ledgerTx.Amount+ledgerTx.Fee)
	}

	return m.ledger.SetNonce(address, nonce)
}

// SignatureVerifier adapts VerifySignature to mempool.Verifier.
type SignatureVerifier struct{}

// Verify checks tx's signature against the public key it carries.
func (SignatureVerifier) Verify(tx mempool.Transaction) (bool, error) {
	message, signature := tx.SignatureData()
	return VerifySignature(tx.SenderKey(), message, signature)
}
