package transaction

import (
	"encoding/json"
	"fmt"

	"github.com/stathera/txadmission/internal/mempool"
	apperrors "github.com/stathera/txadmission/pkg/errors"
)

// typeCode and defaultTypeGroup map a Transaction's TransactionType to the
// small integer space the admission processor's handler registry is
// keyed on. Every known type shares type group 0: the source has no
// further grouping dimension.
var typeCode = map[TransactionType]int{
	Payment:        0,
	Deposit:        1,
	Withdrawal:     2,
	Fee:            3,
	SupplyIncrease: 4,
}

const defaultTypeGroup = 0

// TypeCode exposes the TransactionType-to-int mapping used by
// AdmissionTx.Type, for collaborators (e.g. the handler registry) that
// need to register against the same codes without duplicating them.
func TypeCode(t TransactionType) (int, bool) {
	code, ok := typeCode[t]
	return code, ok
}

// envelope is the wire format a raw submission decodes from: the
// ledger transaction plus the sender's public key, which Transaction
// itself does not carry (only the derived address).
type envelope struct {
	Tx     *Transaction `json:"tx"`
	PubKey []byte       `json:"pub_key"`
}

// AdmissionTx adapts a Transaction to the mempool package's narrow
// Transaction contract, carrying the sender's public key alongside the
// ledger record so the worker can verify its signature without a
// wallet lookup.
type AdmissionTx struct {
	Tx     *Transaction
	PubKey []byte
}

// NewAdmissionTx wraps tx with the public key that should have
// produced its signature.
func NewAdmissionTx(tx *Transaction, pubKey []byte) *AdmissionTx {
	return &AdmissionTx{Tx: tx, PubKey: pubKey}
}

func (a *AdmissionTx) ID() string        { return a.Tx.ID }
func (a *AdmissionTx) SenderKey() []byte { return a.PubKey }

func (a *AdmissionTx) Type() int {
	return typeCode[a.Tx.Type]
}

func (a *AdmissionTx) TypeGroup() int {
	return defaultTypeGroup
}

// Serialized encodes the envelope a Decoder can later reconstruct this
// AdmissionTx from. A marshal failure here would mean the Transaction
// itself cannot round-trip through JSON, which NewTransaction's own
// hash computation already depends on, so it is treated as
// unreachable rather than surfaced through this error-free signature.
func (a *AdmissionTx) Serialized() []byte {
	raw, err := json.Marshal(envelope{Tx: a.Tx, PubKey: a.PubKey})
	if err != nil {
		panic(fmt.Sprintf("transaction %s: envelope marshal: %v", a.Tx.ID, err))
	}
	return raw
}

// Fee exposes the ledger transaction's fee to collaborators that need
// it, such as the fee policy, without widening mempool.Transaction.
func (a *AdmissionTx) Fee() float64 { return a.Tx.Fee }

func (a *AdmissionTx) SignatureData() (message []byte, signature []byte) {
	msg, err := a.Tx.SignableData()
	if err != nil {
		return nil, a.Tx.Signature
	}
	return msg, a.Tx.Signature
}

// EnvelopeDecoder implements the mempool package's Decoder, turning
// the raw bytes the worker handed back into an AdmissionTx.
type EnvelopeDecoder struct{}

func (EnvelopeDecoder) Decode(raw []byte) (mempool.Transaction, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, apperrors.MempoolWrap(err, apperrors.OpDecodeTransaction, apperrors.MempoolErrDecode, "decode transaction envelope")
	}
	if env.Tx == nil {
		return nil, apperrors.NewMempoolError(apperrors.MempoolErrDecode, "decode transaction envelope: missing tx", nil)
	}
	return &AdmissionTx{Tx: env.Tx, PubKey: env.PubKey}, nil
}
