package mempool

import (
	"context"
	"io"
	"testing"

	"github.com/stathera/txadmission/pkg/logging"
)

func newTestLogger() *logging.Logger {
	cfg := logging.DefaultConfig()
	cfg.Output = io.Discard
	return logging.New(cfg)
}

func newTestDeps(tickets *TicketStore, decoder *fakeDecoder, wallets *fakeWallets, chain *fakeChain, pool *fakePool, fees *fakeFees, peers *fakePeers) Deps {
	return Deps{
		Decoder: decoder,
		Wallets: wallets,
		Chain:   chain,
		Pool:    pool,
		Fees:    fees,
		Peers:   peers,
		Tickets: tickets,
		Logger:  newTestLogger(),
		Metrics: nil,
	}
}

func TestRunPipeline_LowFeeRejected(t *testing.T) {
	tickets := NewTicketStore()
	decoder := newFakeDecoder()
	tx := newFakeTx("t1", "alice")
	decoder.track(tx)

	job := NewPendingJobResult("ticket")
	job.ValidTransactions = []RawTransaction{{Raw: tx.Serialized(), ID: "t1"}}

	deps := newTestDeps(tickets, decoder, newFakeWallets(), newFakeChain(), newFakePool(), newFakeFees(FeeDecision{}), &fakePeers{})

	RunPipeline(context.Background(), job, deps)

	finished, ok := tickets.ProcessedTicket("ticket")
	if !ok {
		t.Fatalf("ticket should be processed")
	}
	if len(finished.Invalid) != 0 {
		t.Fatalf("low fee rejection is an error, not invalid; got %v", finished.Invalid)
	}
	if finished.Errors["t1"].Kind != ErrLowFee {
		t.Fatalf("want ERR_LOW_FEE, got %+v", finished.Errors["t1"])
	}
}

func TestRunPipeline_ForgedAfterAccept(t *testing.T) {
	tickets := NewTicketStore()
	decoder := newFakeDecoder()
	tx := newFakeTx("t1", "alice")
	decoder.track(tx)

	chain := newFakeChain()
	chain.forged["t1"] = true

	job := NewPendingJobResult("ticket")
	job.ValidTransactions = []RawTransaction{{Raw: tx.Serialized(), ID: "t1"}}

	deps := newTestDeps(tickets, decoder, newFakeWallets(), chain, newFakePool(), newFakeFees(FeeDecision{EnterPool: true, Broadcast: true}), &fakePeers{})

	RunPipeline(context.Background(), job, deps)

	finished, _ := tickets.ProcessedTicket("ticket")
	if len(finished.Accept) != 0 || len(finished.Broadcast) != 0 {
		t.Fatalf("forged tx must not reach accept/broadcast, got %+v", finished)
	}
	if finished.Errors["t1"].Kind != ErrForged {
		t.Fatalf("want ERR_FORGED, got %+v", finished.Errors["t1"])
	}
	if len(job.ValidTransactions) != 0 {
		t.Fatalf("forged id must be spliced out of ValidTransactions")
	}
}

func TestRunPipeline_PoolFullStillBroadcasts(t *testing.T) {
	tickets := NewTicketStore()
	decoder := newFakeDecoder()
	tx := newFakeTx("t1", "alice")
	decoder.track(tx)

	pool := newFakePool()
	pool.rejected["t1"] = PoolRejection{TxID: "t1", Kind: ErrPoolFull, Message: "pool full"}

	peers := &fakePeers{}

	job := NewPendingJobResult("ticket")
	job.ValidTransactions = []RawTransaction{{Raw: tx.Serialized(), ID: "t1"}}

	deps := newTestDeps(tickets, decoder, newFakeWallets(), newFakeChain(), pool, newFakeFees(FeeDecision{EnterPool: true, Broadcast: true}), peers)

	RunPipeline(context.Background(), job, deps)

	finished, _ := tickets.ProcessedTicket("ticket")
	if len(finished.Accept) != 0 {
		t.Fatalf("pool-full tx must not be in accept, got %v", finished.Accept)
	}
	if len(finished.Broadcast) != 1 || finished.Broadcast[0] != "t1" {
		t.Fatalf("pool-full tx must still broadcast, got %v", finished.Broadcast)
	}
	if len(peers.broadcasted) != 1 {
		t.Fatalf("want 1 broadcast peer call, got %d", len(peers.broadcasted))
	}
}

func TestRunPipeline_WalletApplyRejected(t *testing.T) {
	tickets := NewTicketStore()
	decoder := newFakeDecoder()
	tx := newFakeTx("t1", "alice")
	decoder.track(tx)

	wallets := newFakeWallets()
	wallets.rejectApply["t1"] = errBadNonce

	job := NewPendingJobResult("ticket")
	job.ValidTransactions = []RawTransaction{{Raw: tx.Serialized(), ID: "t1"}}

	deps := newTestDeps(tickets, decoder, wallets, newFakeChain(), newFakePool(), newFakeFees(FeeDecision{EnterPool: true}), &fakePeers{})

	RunPipeline(context.Background(), job, deps)

	finished, _ := tickets.ProcessedTicket("ticket")
	if finished.Errors["t1"].Kind != ErrApply {
		t.Fatalf("want ERR_APPLY, got %+v", finished.Errors["t1"])
	}
}

var errBadNonce = fakeErr("nonce out of order")

type fakeErr string

func (e fakeErr) Error() string { return string(e) }
