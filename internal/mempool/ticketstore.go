package mempool

import "sync"

// TicketStore owns the lifecycle of pending/partial/processed tickets,
// the only surface callers poll. A ticket id is absent, pending,
// partial (an orthogonal flag on a pending ticket), or processed.
//
// The submit path and the completion path both mutate these maps, so
// every method takes the store's mutex — the §5 "mutex guarding the
// four maps" option, chosen over a single-threaded cooperative driver
// because it composes more simply with Go's goroutine-per-request HTTP
// server and is easier to exercise deterministically in tests.
type TicketStore struct {
	mu        sync.Mutex
	pending   map[string]struct{}
	partial   map[string]*PendingJobResult
	processed map[string]*FinishedJobResult
	dedup     *DedupCache
}

// NewTicketStore returns an empty store.
func NewTicketStore() *TicketStore {
	return &TicketStore{
		pending:   make(map[string]struct{}),
		partial:   make(map[string]*PendingJobResult),
		processed: make(map[string]*FinishedJobResult),
		dedup:     NewDedupCache(),
	}
}

// Dedup returns the store's shared dedup cache.
func (s *TicketStore) Dedup() *DedupCache { return s.dedup }

// MarkPending records that ticketID is submitted and the worker is
// still owed. A ticket id returned by CreateJob is visible here before
// CreateJob returns, per §5's observable-visibility guarantee.
func (s *TicketStore) MarkPending(ticketID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[ticketID] = struct{}{}
}

// StorePartial files a PendingJobResult that carries pre-worker
// rejections which must survive the asynchronous gap to the worker.
func (s *TicketStore) StorePartial(ticketID string, job *PendingJobResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.partial[ticketID] = job
}

// HasPending reports whether ticketID is still awaiting the worker.
func (s *TicketStore) HasPending(ticketID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[ticketID]
	return ok
}

// PendingTickets snapshots the currently pending ticket ids.
func (s *TicketStore) PendingTickets() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.pending))
	for id := range s.pending {
		out = append(out, id)
	}
	return out
}

// ProcessedTicket looks up a terminal result.
func (s *TicketStore) ProcessedTicket(ticketID string) (*FinishedJobResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.processed[ticketID]
	return r, ok
}

// ProcessedTickets snapshots every terminal result. processed never
// shrinks; callers needing retention limits must add one themselves
// (§9: a deliberate non-goal here, matching the source).
func (s *TicketStore) ProcessedTickets() []*FinishedJobResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*FinishedJobResult, 0, len(s.processed))
	for _, r := range s.processed {
		out = append(out, r)
	}
	return out
}

// Finalize builds the FinishedJobResult for job, merges any pre-worker
// partial accumulator, drops dedup-cache entries for every id that
// reached one of the four id-list buckets, and transitions the ticket
// to processed. It is the only way a ticket leaves pending/partial.
//
// Partial merge preserves two source quirks flagged in DESIGN.md:
// pre-worker invalid ids are unioned in, but pre-worker excess ids
// *replace* the finished excess list rather than unioning, and
// pre-worker errors are never merged into the finished errors map.
func (s *TicketStore) Finalize(job *PendingJobResult) *FinishedJobResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	invalid := errKeys(job.Invalid)
	excess := errKeys(job.Excess)

	if partial, ok := s.partial[job.TicketID]; ok {
		invalid = append(invalid, errKeys(partial.Invalid)...)
		excess = errKeys(partial.Excess)
	}

	var errs map[string]ErrorRecord
	if len(job.Errors) > 0 {
		errs = job.Errors
	}

	finished := &FinishedJobResult{
		TicketID:  job.TicketID,
		Accept:    keys(job.Accept),
		Broadcast: keys(job.Broadcast),
		Invalid:   invalid,
		Excess:    excess,
		Errors:    errs,
	}

	for _, id := range finished.Accept {
		s.dedup.Remove(id)
	}
	for _, id := range finished.Broadcast {
		s.dedup.Remove(id)
	}
	for _, id := range finished.Invalid {
		s.dedup.Remove(id)
	}
	for _, id := range finished.Excess {
		s.dedup.Remove(id)
	}

	delete(s.partial, job.TicketID)
	delete(s.pending, job.TicketID)
	s.processed[job.TicketID] = finished

	return finished
}
