package mempool

import (
	"context"
	"fmt"
)

// PreCheck runs the pre-worker filter's ordered, short-circuiting
// checks on tx and reports whether it should be handed to the worker.
//
//  1. Mempool duplicate: a DUPLICATE error is pushed and the tx is
//     dropped if the pool already holds its id.
//  2. Handler admissibility: the resolved handler's CanEnterPool
//     predicate decides; a false verdict drops the tx silently, the
//     handler's own classification is not recorded here.
//
// Any collaborator failure along the way is caught and translated to
// UNKNOWN.
func PreCheck(ctx context.Context, tx Transaction, job *PendingJobResult, pool Pool, handlers HandlerRegistry) bool {
	id := tx.ID()

	has, err := pool.Has(ctx, id)
	if err != nil {
		job.PushError(id, ErrUnknown, err.Error())
		return false
	}
	if has {
		job.PushError(id, ErrDuplicate, fmt.Sprintf("Duplicate transaction %s", id))
		return false
	}

	handler, err := handlers.Get(tx.Type(), tx.TypeGroup())
	if err != nil {
		job.PushError(id, ErrUnknown, err.Error())
		return false
	}

	ok, err := handler.CanEnterPool(ctx, tx, pool)
	if err != nil {
		job.PushError(id, ErrUnknown, err.Error())
		return false
	}
	if !ok {
		return false
	}

	return true
}
