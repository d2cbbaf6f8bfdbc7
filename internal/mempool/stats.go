package mempool

import (
	"fmt"

	"github.com/stathera/txadmission/pkg/logging"
	"github.com/stathera/txadmission/pkg/metrics"
)

// EmitStats writes the one-line-per-finished-ticket summary and records
// the matching Prometheus series. N counts every transaction the
// worker delivered as valid plus every id in the finished excess and
// invalid lists (filled by the worker and any pre-worker partial, not by
// the pipeline); job.ValidTransactions has already had any
// forged ids spliced out by the time this runs.
func EmitStats(logger *logging.Logger, m *metrics.Metrics, job *PendingJobResult, finished *FinishedJobResult) {
	n := len(job.ValidTransactions) + len(finished.Excess) + len(finished.Invalid)
	a := len(finished.Accept)
	b := len(finished.Broadcast)
	e := len(finished.Excess)
	i := len(finished.Invalid)

	unit := "transaction"
	if n != 1 {
		unit = "transactions"
	}

	logger.WithTicket(finished.TicketID).Info(
		fmt.Sprintf("Received %d %s (accept: %d broadcast: %d excess: %d invalid: %d).", n, unit, a, b, e, i),
		"accept", a, "broadcast", b, "excess", e, "invalid", i,
	)

	if m == nil {
		return
	}
	m.TransactionCount.WithLabelValues("mempool", "accept").Add(float64(a))
	m.TransactionCount.WithLabelValues("mempool", "broadcast").Add(float64(b))
	m.TransactionCount.WithLabelValues("mempool", "excess").Add(float64(e))
	m.TransactionCount.WithLabelValues("mempool", "invalid").Add(float64(i))
	for _, rec := range finished.Errors {
		m.RecordTransactionError("mempool", string(rec.Kind))
	}
}
