package mempool

import "testing"

func TestTicketStore_Finalize_RemovesDedupEntries(t *testing.T) {
	s := NewTicketStore()
	s.Dedup().Insert("t1")
	s.Dedup().Insert("t2")

	job := NewPendingJobResult("ticket")
	job.Accept["t1"] = newFakeTx("t1", "alice")
	job.Invalid["t2"] = ErrorRecord{Kind: ErrLowFee, Message: "too low"}

	finished := s.Finalize(job)

	if s.Dedup().Has("t1") || s.Dedup().Has("t2") {
		t.Fatalf("dedup entries for bucketed ids must be dropped")
	}
	if len(finished.Accept) != 1 || finished.Accept[0] != "t1" {
		t.Fatalf("want accept [t1], got %v", finished.Accept)
	}
	if _, pending := s.ProcessedTicket("ticket"); !pending {
		t.Fatalf("ticket should be processed")
	}
}

// TestTicketStore_Finalize_PartialMergeQuirks pins the two preserved
// merge quirks: invalid ids union across the pre-worker/post-worker
// split, but excess ids from the pre-worker partial replace rather
// than union with the post-worker excess, and partial errors never
// reach the finished result.
func TestTicketStore_Finalize_PartialMergeQuirks(t *testing.T) {
	s := NewTicketStore()

	partial := NewPendingJobResult("ticket")
	partial.Invalid["dup-1"] = ErrorRecord{Kind: ErrDuplicate, Message: "dup"}
	partial.Excess["excess-pre"] = ErrorRecord{Kind: ErrPoolOther, Message: "pre"}
	partial.PushError("err-pre", ErrDuplicate, "Duplicate transaction err-pre")
	s.StorePartial("ticket", partial)

	job := NewPendingJobResult("ticket")
	job.Invalid["invalid-1"] = ErrorRecord{Kind: ErrApply, Message: "bad nonce"}
	job.Excess["excess-post"] = ErrorRecord{Kind: ErrPoolOther, Message: "post"}

	finished := s.Finalize(job)

	if !containsAll(finished.Invalid, "dup-1", "invalid-1") {
		t.Fatalf("want union of invalid ids, got %v", finished.Invalid)
	}
	if len(finished.Excess) != 1 || finished.Excess[0] != "excess-pre" {
		t.Fatalf("want excess replaced by the pre-worker partial's set, got %v", finished.Excess)
	}
	if len(finished.Errors) != 0 {
		t.Fatalf("partial errors must not be merged, got %v", finished.Errors)
	}

	if _, stillPartial := s.partial["ticket"]; stillPartial {
		t.Fatalf("partial entry should be cleared after finalize")
	}
}

func containsAll(have []string, want ...string) bool {
	set := make(map[string]struct{}, len(have))
	for _, id := range have {
		set[id] = struct{}{}
	}
	for _, id := range want {
		if _, ok := set[id]; !ok {
			return false
		}
	}
	return len(have) == len(want)
}
