package mempool

import (
	"context"

	"github.com/google/uuid"

	"github.com/stathera/txadmission/pkg/logging"
	"github.com/stathera/txadmission/pkg/metrics"
)

// Processor is the transaction admission processor. It coordinates the
// dedup cache, pre-worker filter, worker broker, completion queue,
// post-worker pipeline and ticket store behind the five public
// operations of the wire API.
type Processor struct {
	tickets  *TicketStore
	pool     Pool
	handlers HandlerRegistry
	broker   WorkerBroker
	queue    *CompletionQueue
	logger   *logging.Logger
	metrics  *metrics.Metrics

	wallets WalletManager
}

// New wires a Processor from its collaborators. The broker is
// constructed by the caller with a deliver capability that forwards
// into queue.Submit — see NewCryptoWorkerPool — breaking the cycle that
// would otherwise exist between the broker and the Processor.
func New(tickets *TicketStore, pool Pool, handlers HandlerRegistry, wallets WalletManager, broker WorkerBroker, queue *CompletionQueue, logger *logging.Logger, m *metrics.Metrics) *Processor {
	return &Processor{
		tickets:  tickets,
		pool:     pool,
		handlers: handlers,
		wallets:  wallets,
		broker:   broker,
		queue:    queue,
		logger:   logger,
		metrics:  m,
	}
}

// Run starts the completion queue's consumer loop. Call it once, in its
// own goroutine, before the first submission.
func (p *Processor) Run(ctx context.Context) {
	p.queue.Run(ctx)
}

// CreateJob is the public submission entrypoint. It never fails: every
// call returns a ticket id, even if every submitted transaction is
// rejected before reaching the worker.
func (p *Processor) CreateJob(ctx context.Context, txs []Transaction) string {
	ticketID := uuid.New().String()
	job := NewPendingJobResult(ticketID)

	eligible := make([]Transaction, 0, len(txs))
	senderWallets := make(map[string]any)

	for _, tx := range txs {
		id := tx.ID()
		if p.tickets.Dedup().Has(id) {
			continue
		}
		p.tickets.Dedup().Insert(id)

		if !PreCheck(ctx, tx, job, p.pool, p.handlers) {
			continue
		}

		eligible = append(eligible, tx)

		sender := string(tx.SenderKey())
		if _, ok := senderWallets[sender]; !ok {
			wallet, err := p.wallets.FindByPublicKey(ctx, tx.SenderKey())
			if err != nil {
				p.logger.Debug("wallet lookup failed", "sender", sender, "error", err)
			}
			senderWallets[sender] = wallet
		}
	}

	if len(eligible) == 0 {
		p.finalizeSynchronously(job)
		return ticketID
	}

	p.tickets.MarkPending(ticketID)
	if job.HasPreWorkerOutcome() {
		p.tickets.StorePartial(ticketID, job)
	}

	if p.metrics != nil {
		p.metrics.RecordPendingTickets(len(p.tickets.PendingTickets()))
		p.metrics.RecordBatchSize("pending", len(eligible))
	}

	p.broker.Submit(ctx, WorkerJob{
		TicketID:      ticketID,
		Transactions:  eligible,
		SenderWallets: senderWallets,
	})

	return ticketID
}

// finalizeSynchronously handles the zero-eligible path (§4.7 step 3):
// no worker roundtrip, but dedup entries for ids that reached one of
// the five buckets are still dropped by Finalize.
func (p *Processor) finalizeSynchronously(job *PendingJobResult) {
	finished := p.tickets.Finalize(job)
	EmitStats(p.logger, p.metrics, job, finished)
}

// HasPending reports whether a ticket is still awaiting the worker.
func (p *Processor) HasPending(ticketID string) bool {
	return p.tickets.HasPending(ticketID)
}

// PendingTickets snapshots pending ticket ids.
func (p *Processor) PendingTickets() []string {
	return p.tickets.PendingTickets()
}

// ProcessedTicket looks up a terminal result.
func (p *Processor) ProcessedTicket(ticketID string) (*FinishedJobResult, bool) {
	return p.tickets.ProcessedTicket(ticketID)
}

// ProcessedTickets snapshots every terminal result.
func (p *Processor) ProcessedTickets() []*FinishedJobResult {
	return p.tickets.ProcessedTickets()
}
