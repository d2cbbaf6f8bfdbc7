package mempool

import (
	"context"
	"fmt"

	"github.com/stathera/txadmission/pkg/logging"
	"github.com/stathera/txadmission/pkg/metrics"
)

// Deps bundles the collaborators the post-worker pipeline needs. It is
// built once by the Processor and closed over by the CompletionQueue's
// PipelineFunc.
type Deps struct {
	Decoder Decoder
	Wallets WalletManager
	Chain   ChainDatabase
	Pool    Pool
	Fees    FeeMatcher
	Peers   PeerMonitor
	Tickets *TicketStore
	Logger  *logging.Logger
	Metrics *metrics.Metrics
}

// RunPipeline executes the post-worker pipeline's steps (a)-(f) for a
// single ticket's ready PendingJobResult, then finalizes the ticket and
// emits statistics. Steps run strictly in order and never interleave
// with another ticket's pipeline — that guarantee is the
// CompletionQueue's, not this function's.
func RunPipeline(ctx context.Context, job *PendingJobResult, d Deps) {
	// (a) Reset: only this pipeline decides the final accept/broadcast
	// sets, discarding anything speculative the worker may have set.
	job.Accept = make(map[string]Transaction)
	job.Broadcast = make(map[string]Transaction)

	// (b) Wallet checks, in arrival order.
	accepted := make([]Transaction, 0, len(job.ValidTransactions))
	for _, rt := range job.ValidTransactions {
		tx, err := d.Decoder.Decode(rt.Raw)
		if err != nil {
			job.PushError(rt.ID, ErrUnknown, err.Error())
			continue
		}

		if err := d.Wallets.ThrowIfCannotBeApplied(ctx, tx); err != nil {
			job.PushError(rt.ID, ErrApply, err.Error())
			continue
		}

		decision := d.Fees.Match(tx)
		if !decision.EnterPool && !decision.Broadcast {
			job.PushError(rt.ID, ErrLowFee, "The fee is too low to broadcast and accept the transaction")
			continue
		}
		if decision.EnterPool {
			job.Accept[rt.ID] = tx
		}
		if decision.Broadcast {
			job.Broadcast[rt.ID] = tx
		}

		accepted = append(accepted, tx)
	}

	// (c) Forged removal.
	candidateIDs := unionKeys(job.Accept, job.Broadcast)
	if len(candidateIDs) > 0 {
		forged, err := d.Chain.GetForgedTransactionIDs(ctx, candidateIDs)
		if err != nil {
			d.Logger.WithTicket(job.TicketID).Error("forged-id lookup failed", "error", err)
		}
		for _, id := range forged {
			job.PushError(id, ErrForged, "Already forged.")
			delete(job.Accept, id)
			delete(job.Broadcast, id)
			idx := indexOfValid(job.ValidTransactions, id)
			if idx < 0 {
				panic(fmt.Sprintf("forged id %s not found among valid transactions", id))
			}
			job.ValidTransactions = append(job.ValidTransactions[:idx], job.ValidTransactions[idx+1:]...)
		}
	}

	// (d) Mempool insertion.
	toInsert := make([]Transaction, 0, len(job.Accept))
	for _, tx := range accepted {
		if _, ok := job.Accept[tx.ID()]; ok {
			toInsert = append(toInsert, tx)
		}
	}
	if len(toInsert) > 0 {
		rejections, err := d.Pool.AddTransactions(ctx, toInsert)
		if err != nil {
			d.Logger.WithTicket(job.TicketID).Error("mempool insertion failed", "error", err)
		}
		for _, rej := range rejections {
			delete(job.Accept, rej.TxID)
			if rej.Kind != ErrPoolFull {
				delete(job.Broadcast, rej.TxID)
			}
			job.PushError(rej.TxID, rej.Kind, rej.Message)
		}
	}

	// (e) Broadcast: fire-and-forget, never recorded against the ticket.
	if len(job.Broadcast) > 0 {
		txs := make([]Transaction, 0, len(job.Broadcast))
		for _, tx := range job.Broadcast {
			txs = append(txs, tx)
		}
		d.Peers.BroadcastTransactions(txs)
	}

	// (f) Finalise.
	finished := d.Tickets.Finalize(job)
	if d.Metrics != nil {
		d.Metrics.RecordPendingTickets(len(d.Tickets.PendingTickets()))
	}
	EmitStats(d.Logger, d.Metrics, job, finished)
}

func unionKeys(a, b map[string]Transaction) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for k := range a {
		if _, ok := seen[k]; !ok {
			seen[k] = struct{}{}
			out = append(out, k)
		}
	}
	for k := range b {
		if _, ok := seen[k]; !ok {
			seen[k] = struct{}{}
			out = append(out, k)
		}
	}
	return out
}

func indexOfValid(valid []RawTransaction, id string) int {
	for i, rt := range valid {
		if rt.ID == id {
			return i
		}
	}
	return -1
}
