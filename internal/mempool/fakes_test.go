package mempool

import (
	"context"
	"fmt"
)

type fakeTx struct {
	id        string
	sender    []byte
	txType    int
	typeGroup int
	raw       []byte
}

func newFakeTx(id, sender string) *fakeTx {
	return &fakeTx{id: id, sender: []byte(sender), raw: []byte(id)}
}

func (t *fakeTx) ID() string         { return t.id }
func (t *fakeTx) SenderKey() []byte  { return t.sender }
func (t *fakeTx) Type() int          { return t.txType }
func (t *fakeTx) TypeGroup() int     { return t.typeGroup }
func (t *fakeTx) Serialized() []byte { return t.raw }
func (t *fakeTx) SignatureData() ([]byte, []byte) {
	return t.raw, []byte("sig-" + t.id)
}

// fakeDecoder decodes a raw payload back into the fakeTx that produced
// it, keyed by id so round-tripping through RawTransaction is lossless
// for tests.
type fakeDecoder struct {
	byID map[string]*fakeTx
}

func newFakeDecoder() *fakeDecoder { return &fakeDecoder{byID: make(map[string]*fakeTx)} }

func (d *fakeDecoder) track(tx *fakeTx) { d.byID[tx.id] = tx }

func (d *fakeDecoder) Decode(raw []byte) (Transaction, error) {
	id := string(raw)
	tx, ok := d.byID[id]
	if !ok {
		return nil, fmt.Errorf("unknown payload %q", id)
	}
	return tx, nil
}

type fakePool struct {
	has      map[string]bool
	rejected map[string]PoolRejection
	added    []Transaction
}

func newFakePool() *fakePool {
	return &fakePool{has: make(map[string]bool), rejected: make(map[string]PoolRejection)}
}

func (p *fakePool) Has(ctx context.Context, id string) (bool, error) {
	return p.has[id], nil
}

func (p *fakePool) AddTransactions(ctx context.Context, txs []Transaction) ([]PoolRejection, error) {
	var rejections []PoolRejection
	for _, tx := range txs {
		if rej, ok := p.rejected[tx.ID()]; ok {
			rejections = append(rejections, rej)
			continue
		}
		p.added = append(p.added, tx)
	}
	return rejections, nil
}

type fakeHandler struct {
	allow bool
	err   error
}

func (h *fakeHandler) CanEnterPool(ctx context.Context, tx Transaction, pool Pool) (bool, error) {
	return h.allow, h.err
}

type fakeRegistry struct {
	handler Handler
	err     error
}

func (r *fakeRegistry) Get(txType, typeGroup int) (Handler, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.handler, nil
}

type fakeWallets struct {
	rejectApply map[string]error
}

func newFakeWallets() *fakeWallets { return &fakeWallets{rejectApply: make(map[string]error)} }

func (w *fakeWallets) FindByPublicKey(ctx context.Context, pubKey []byte) (any, error) {
	return string(pubKey), nil
}

func (w *fakeWallets) ThrowIfCannotBeApplied(ctx context.Context, tx Transaction) error {
	return w.rejectApply[tx.ID()]
}

type fakeChain struct {
	forged map[string]bool
}

func newFakeChain() *fakeChain { return &fakeChain{forged: make(map[string]bool)} }

func (c *fakeChain) GetForgedTransactionIDs(ctx context.Context, ids []string) ([]string, error) {
	var out []string
	for _, id := range ids {
		if c.forged[id] {
			out = append(out, id)
		}
	}
	return out, nil
}

type fakeFees struct {
	decision FeeDecision
	perTx    map[string]FeeDecision
}

func newFakeFees(d FeeDecision) *fakeFees {
	return &fakeFees{decision: d, perTx: make(map[string]FeeDecision)}
}

func (f *fakeFees) Match(tx Transaction) FeeDecision {
	if d, ok := f.perTx[tx.ID()]; ok {
		return d
	}
	return f.decision
}

type fakePeers struct {
	broadcasted []Transaction
}

func (p *fakePeers) BroadcastTransactions(txs []Transaction) {
	p.broadcasted = append(p.broadcasted, txs...)
}

type fakeVerifier struct {
	invalid map[string]bool
	errs    map[string]error
}

func newFakeVerifier() *fakeVerifier {
	return &fakeVerifier{invalid: make(map[string]bool), errs: make(map[string]error)}
}

func (v *fakeVerifier) Verify(tx Transaction) (bool, error) {
	if err, ok := v.errs[tx.ID()]; ok {
		return false, err
	}
	return !v.invalid[tx.ID()], nil
}
