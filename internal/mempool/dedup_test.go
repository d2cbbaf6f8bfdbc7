package mempool

import "testing"

func TestDedupCache_InsertHasRemove(t *testing.T) {
	c := NewDedupCache()

	if c.Has("a") {
		t.Fatalf("fresh cache should not have a")
	}
	c.Insert("a")
	if !c.Has("a") {
		t.Fatalf("a should be present after insert")
	}
	if c.Len() != 1 {
		t.Fatalf("want len 1, got %d", c.Len())
	}

	c.Remove("a")
	if c.Has("a") {
		t.Fatalf("a should be gone after remove")
	}

	// Remove is idempotent.
	c.Remove("a")
	c.Remove("missing")
}
