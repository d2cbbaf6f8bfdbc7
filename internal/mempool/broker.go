package mempool

import (
	"context"
	"fmt"
)

// WorkerJob is the batch handed to the out-of-band verifier.
type WorkerJob struct {
	TicketID      string
	Transactions  []Transaction
	SenderWallets map[string]any
}

// WorkerBroker submits cryptographically expensive verification jobs
// and, exactly once per ticket, delivers a populated PendingJobResult
// to whatever capability it was constructed with.
type WorkerBroker interface {
	Submit(ctx context.Context, job WorkerJob)
}

// Verifier checks a single transaction's signature. Its implementation
// is the out-of-scope cryptographic prefix; only this narrow contract
// is visible to the broker.
type Verifier interface {
	Verify(tx Transaction) (bool, error)
}

// deliverFunc is the capability a broker uses to hand a completed
// PendingJobResult to the completion queue, without holding a
// back-reference to the Processor that owns the queue.
type deliverFunc func(*PendingJobResult)

// CryptoWorkerPool is a fixed pool of goroutines standing in for the
// out-of-process cryptographic verifier. It enforces per-sender excess
// limits the way the real worker's batch limiter would, verifies
// signatures, and delivers results through deliver exactly once per
// ticket.
type CryptoWorkerPool struct {
	verifier      Verifier
	maxPerSender  int
	jobs          chan WorkerJob
	deliver       deliverFunc
	done          chan struct{}
}

// NewCryptoWorkerPool starts numWorkers goroutines pulling from an
// internal job queue. deliver is called from a worker goroutine, never
// from Submit's caller, matching the asynchronous broker contract.
func NewCryptoWorkerPool(numWorkers int, maxPerSender int, verifier Verifier, deliver deliverFunc) *CryptoWorkerPool {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	p := &CryptoWorkerPool{
		verifier:     verifier,
		maxPerSender: maxPerSender,
		jobs:         make(chan WorkerJob, 256),
		deliver:      deliver,
		done:         make(chan struct{}),
	}
	for i := 0; i < numWorkers; i++ {
		go p.loop()
	}
	return p
}

// Submit enqueues job for verification. Never blocks the caller beyond
// the channel send.
func (p *CryptoWorkerPool) Submit(ctx context.Context, job WorkerJob) {
	select {
	case p.jobs <- job:
	case <-p.done:
	}
}

// Close stops accepting new work. In-flight jobs still drain.
func (p *CryptoWorkerPool) Close() {
	close(p.done)
}

func (p *CryptoWorkerPool) loop() {
	for {
		select {
		case job := <-p.jobs:
			p.deliver(p.verify(job))
		case <-p.done:
			return
		}
	}
}

// verify runs the cryptographic prefix over one batch: dedup within
// the batch, per-sender excess limiting, then signature verification.
func (p *CryptoWorkerPool) verify(job WorkerJob) *PendingJobResult {
	result := NewPendingJobResult(job.TicketID)

	seen := make(map[string]struct{}, len(job.Transactions))
	perSender := make(map[string]int)

	for _, tx := range job.Transactions {
		id := tx.ID()
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		sender := string(tx.SenderKey())
		if p.maxPerSender > 0 && perSender[sender] >= p.maxPerSender {
			result.Excess[id] = ErrorRecord{Kind: ErrPoolOther, Message: fmt.Sprintf("Sender %x exceeded per-batch transaction limit", tx.SenderKey())}
			continue
		}

		valid, err := p.verifier.Verify(tx)
		if err != nil {
			result.Errors[id] = ErrorRecord{Kind: ErrUnknown, Message: err.Error()}
			continue
		}
		if !valid {
			result.Invalid[id] = ErrorRecord{Kind: ErrUnknown, Message: "Invalid transaction signature"}
			continue
		}

		perSender[sender]++
		result.ValidTransactions = append(result.ValidTransactions, RawTransaction{Raw: tx.Serialized(), ID: id})
	}

	return result
}
