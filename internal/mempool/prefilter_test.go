package mempool

import (
	"context"
	"errors"
	"testing"
)

func TestPreCheck_DuplicateInPool(t *testing.T) {
	pool := newFakePool()
	pool.has["t1"] = true
	registry := &fakeRegistry{handler: &fakeHandler{allow: true}}

	job := NewPendingJobResult("ticket")
	ok := PreCheck(context.Background(), newFakeTx("t1", "alice"), job, pool, registry)

	if ok {
		t.Fatalf("duplicate transaction should not pass the filter")
	}
	rec, present := job.Errors["t1"]
	if !present || rec.Kind != ErrDuplicate {
		t.Fatalf("want ErrDuplicate recorded, got %+v present=%v", rec, present)
	}
}

func TestPreCheck_PoolHasError(t *testing.T) {
	pool := &erroringPool{err: errors.New("redis down")}
	registry := &fakeRegistry{handler: &fakeHandler{allow: true}}

	job := NewPendingJobResult("ticket")
	ok := PreCheck(context.Background(), newFakeTx("t1", "alice"), job, pool, registry)

	if ok {
		t.Fatalf("pool.Has error should not pass the filter")
	}
	if job.Errors["t1"].Kind != ErrUnknown {
		t.Fatalf("want ErrUnknown, got %+v", job.Errors["t1"])
	}
}

func TestPreCheck_HandlerRejectsSilently(t *testing.T) {
	pool := newFakePool()
	registry := &fakeRegistry{handler: &fakeHandler{allow: false}}

	job := NewPendingJobResult("ticket")
	ok := PreCheck(context.Background(), newFakeTx("t1", "alice"), job, pool, registry)

	if ok {
		t.Fatalf("handler rejection should not pass the filter")
	}
	if len(job.Errors) != 0 {
		t.Fatalf("handler rejection must not push an error, got %+v", job.Errors)
	}
}

func TestPreCheck_Accepted(t *testing.T) {
	pool := newFakePool()
	registry := &fakeRegistry{handler: &fakeHandler{allow: true}}

	job := NewPendingJobResult("ticket")
	ok := PreCheck(context.Background(), newFakeTx("t1", "alice"), job, pool, registry)

	if !ok {
		t.Fatalf("want accepted")
	}
	if len(job.Errors) != 0 {
		t.Fatalf("no errors expected, got %+v", job.Errors)
	}
}

type erroringPool struct{ err error }

func (p *erroringPool) Has(ctx context.Context, id string) (bool, error) { return false, p.err }
func (p *erroringPool) AddTransactions(ctx context.Context, txs []Transaction) ([]PoolRejection, error) {
	return nil, nil
}
