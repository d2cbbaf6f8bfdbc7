package mempool

import "context"

// Pool is the mempool store contract consumed by the pre-worker filter
// (duplicate lookup) and the post-worker pipeline (insertion).
type Pool interface {
	// Has reports whether the pool already holds a transaction with id.
	Has(ctx context.Context, id string) (bool, error)

	// AddTransactions submits accepted transactions to the pool. The
	// returned slice lists every transaction the pool declined, with its
	// own classification.
	AddTransactions(ctx context.Context, txs []Transaction) ([]PoolRejection, error)
}

// PoolRejection is one entry the mempool store returns for a
// transaction it declined to add.
type PoolRejection struct {
	TxID    string
	Kind    ErrorKind // ErrPoolFull, ErrPoolOther, or another ERR_POOL_* kind
	Message string
}

// WalletManager is the wallet-state collaborator. FindByPublicKey
// snapshots a sender's wallet for the worker to carry across the
// asynchronous gap; ThrowIfCannotBeApplied tests nonce ordering,
// balance sufficiency, and sender-specific invariants against the live
// wallet state from the completion path.
type WalletManager interface {
	FindByPublicKey(ctx context.Context, pubKey []byte) (any, error)
	ThrowIfCannotBeApplied(ctx context.Context, tx Transaction) error
}

// ChainDatabase answers whether transactions have already been
// included in a settled block.
type ChainDatabase interface {
	// GetForgedTransactionIDs returns the subset of ids that have
	// already been forged.
	GetForgedTransactionIDs(ctx context.Context, ids []string) ([]string, error)
}

// Handler is the per-(type, type_group) admission predicate. A handler
// that returns false classifies nothing itself; the pre-worker filter
// records no error for its own rejection (§4.3).
type Handler interface {
	CanEnterPool(ctx context.Context, tx Transaction, pool Pool) (bool, error)
}

// HandlerRegistry resolves the Handler for a (type, type_group) pair.
type HandlerRegistry interface {
	Get(txType, typeGroup int) (Handler, error)
}

// FeeDecision is the dynamic-fee policy's verdict for one transaction.
type FeeDecision struct {
	EnterPool bool
	Broadcast bool
}

// FeeMatcher classifies a transaction's fee against the current
// dynamic-fee policy.
type FeeMatcher interface {
	Match(tx Transaction) FeeDecision
}

// PeerMonitor gossips accepted/broadcast-eligible transactions to
// peers. Fire-and-forget: the pipeline never inspects its outcome.
type PeerMonitor interface {
	BroadcastTransactions(txs []Transaction)
}
