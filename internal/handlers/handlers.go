// Package handlers implements mempool.HandlerRegistry, keyed by
// (type, typeGroup), with one handler per TransactionType mirroring
// the teacher's enum. SupplyIncrease mirrors processMessage's
// special-casing: it is a system-only transaction that never sits in
// the mempool.
package handlers

import (
	"context"
	"fmt"

	"github.com/stathera/txadmission/internal/mempool"
	"github.com/stathera/txadmission/internal/transaction"
)

// AllowHandler admits any transaction whose pre-worker checks already
// passed; it exists so ordinary payment/deposit/withdrawal/fee types
// have an explicit, named admission rule rather than an implicit
// default.
type AllowHandler struct{}

func (AllowHandler) CanEnterPool(ctx context.Context, tx mempool.Transaction, pool mempool.Pool) (bool, error) {
	return true, nil
}

// SystemOnlyHandler rejects pool entry unconditionally. SupplyIncrease
// transactions are minted and applied directly by the ledger; they are
// never gossiped or held in the mempool.
type SystemOnlyHandler struct{}

func (SystemOnlyHandler) CanEnterPool(ctx context.Context, tx mempool.Transaction, pool mempool.Pool) (bool, error) {
	return false, nil
}

// Registry resolves a Handler by (type, typeGroup), keyed the way
// transaction.AdmissionTx.Type/TypeGroup report them.
type Registry struct {
	handlers map[[2]int]mempool.Handler
}

// NewRegistry builds the registry for the teacher's five transaction
// types, all sharing type group 0.
func NewRegistry() *Registry {
	r := &Registry{handlers: make(map[[2]int]mempool.Handler)}
	allow := AllowHandler{}
	r.register(transaction.Payment, allow)
	r.register(transaction.Deposit, allow)
	r.register(transaction.Withdrawal, allow)
	r.register(transaction.Fee, allow)
	r.register(transaction.SupplyIncrease, SystemOnlyHandler{})
	return r
}

func (r *Registry) register(t transaction.TransactionType, h mempool.Handler) {
	code, ok := transaction.TypeCode(t)
	if !ok {
		return
	}
	r.handlers[[2]int{code, 0}] = h
}

// Get implements mempool.HandlerRegistry.
func (r *Registry) Get(txType, typeGroup int) (mempool.Handler, error) {
	h, ok := r.handlers[[2]int{txType, typeGroup}]
	if !ok {
		return nil, fmt.Errorf("no handler registered for type %d group %d", txType, typeGroup)
	}
	return h, nil
}
