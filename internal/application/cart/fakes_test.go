package cart

import (
	"context"
	"fmt"
	"sync"

	"github.com/storefront/cartsync/internal/domain/cart"
)

// fakeRemote is an in-memory cart service with per-operation failure switches
type fakeRemote struct {
	mu      sync.Mutex
	carts   map[cart.SessionID]cart.Snapshot
	catalog map[int64]cart.Product
	fail    map[string]bool
	calls   []string

	// addGate blocks Add for a product until the channel is closed
	addGate    map[int64]chan struct{}
	addEntered chan int64
}

func newFakeRemote(products ...cart.Product) *fakeRemote {
	r := &fakeRemote{
		carts:      make(map[cart.SessionID]cart.Snapshot),
		catalog:    make(map[int64]cart.Product),
		fail:       make(map[string]bool),
		addGate:    make(map[int64]chan struct{}),
		addEntered: make(chan int64, 16),
	}
	for _, p := range products {
		r.catalog[p.ProductID] = p
	}
	return r
}

func (r *fakeRemote) setFail(op string, fail bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fail[op] = fail
}

func (r *fakeRemote) failAll() {
	for _, op := range []string{OpFetch, OpAdd, OpRemove, OpClear} {
		r.setFail(op, true)
	}
}

func (r *fakeRemote) gate(productID int64) chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch := make(chan struct{})
	r.addGate[productID] = ch
	return ch
}

func (r *fakeRemote) seed(session cart.SessionID, snap cart.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.carts[session] = snap.Clone()
}

func (r *fakeRemote) cartOf(session cart.SessionID) cart.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.carts[session].Clone()
}

func (r *fakeRemote) callLog() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func (r *fakeRemote) record(op string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, op)
	if r.fail[op] {
		return fmt.Errorf("%w: injected %s failure", cart.ErrRemoteFailed, op)
	}
	return nil
}

func (r *fakeRemote) Fetch(_ context.Context, session cart.SessionID) (cart.Snapshot, error) {
	if err := r.record(OpFetch); err != nil {
		return nil, err
	}
	return r.cartOf(session), nil
}

func (r *fakeRemote) Add(_ context.Context, session cart.SessionID, productID, variantID int64, qty int) error {
	r.mu.Lock()
	gate := r.addGate[productID]
	r.mu.Unlock()
	if gate != nil {
		r.addEntered <- productID
		<-gate
	}

	if err := r.record(OpAdd); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.catalog[productID]
	if !ok {
		p = cart.Product{ProductID: productID, Name: "unknown"}
	}
	p.VariantID = variantID
	item, err := cart.NewItem(p, qty)
	if err != nil {
		return err
	}
	r.carts[session] = r.carts[session].Merge(item)
	return nil
}

func (r *fakeRemote) Remove(_ context.Context, session cart.SessionID, itemID string) error {
	if err := r.record(OpRemove); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.carts[session] = r.carts[session].Remove(itemID)
	return nil
}

func (r *fakeRemote) Clear(_ context.Context, session cart.SessionID) error {
	if err := r.record(OpClear); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.carts, session)
	return nil
}

var _ cart.RemoteGateway = (*fakeRemote)(nil)
