package services

import (
	"context"
	"errors"
	"sync"

	"cafeorders/internal/domain"
	applog "cafeorders/internal/log"
	"cafeorders/internal/repos"
	"cafeorders/internal/validate"
)

// ProductLookup resolves a product id against the live catalog.
type ProductLookup interface {
	GetProduct(id string) (domain.Product, bool)
}

// CartSessions carries each session's cart across requests by serializing it
// into a CartStore. Requests of one session run one at a time.
type CartSessions struct {
	Store   repos.CartStore
	Catalog ProductLookup

	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

func NewCartSessions(store repos.CartStore, catalog ProductLookup) *CartSessions {
	return &CartSessions{Store: store, Catalog: catalog, locks: map[string]*sessionLock{}}
}

func (s *CartSessions) lock(sid string) func() {
	s.mu.Lock()
	l := s.locks[sid]
	if l == nil {
		l = &sessionLock{}
		s.locks[sid] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		if l.refs--; l.refs == 0 {
			delete(s.locks, sid)
		}
		s.mu.Unlock()
	}
}

func (s *CartSessions) load(ctx context.Context, sid string) (*Cart, error) {
	c := &Cart{}
	payload, ok, err := s.Store.Load(ctx, sid)
	if err != nil {
		return nil, err
	}
	if ok {
		// a corrupt payload is logged by Deserialize and yields an empty cart
		c.Deserialize(payload)
	}
	return c, nil
}

func (s *CartSessions) save(ctx context.Context, sid string, c *Cart) error {
	if c.IsEmpty() {
		return s.Store.Delete(ctx, sid)
	}
	payload, err := c.Serialize()
	if err != nil {
		return err
	}
	return s.Store.Save(ctx, sid, payload)
}

// Get returns the current cart of sid without holding it.
func (s *CartSessions) Get(ctx context.Context, sid string) (*Cart, error) {
	unlock := s.lock(sid)
	defer unlock()
	return s.load(ctx, sid)
}

// With loads the cart of sid, runs fn on it and saves the result when fn
// returns nil. Other requests of the same session wait meanwhile.
func (s *CartSessions) With(ctx context.Context, sid string, fn func(*Cart) error) error {
	unlock := s.lock(sid)
	defer unlock()

	c, err := s.load(ctx, sid)
	if err != nil {
		return err
	}
	if err := fn(c); err != nil {
		return err
	}
	return s.save(ctx, sid, c)
}

// Handoff replaces the session cart with the one encoded in a navigation
// parameter. Absent or malformed parameters keep the stored cart. Only the
// product ids, quantities and special requests of the parameter are used:
// every line is resolved against the catalog and unknown products are dropped.
func (s *CartSessions) Handoff(ctx context.Context, sid string, param any) (bool, error) {
	if s.Catalog == nil {
		return false, errors.New("cart handoff: no catalog")
	}
	text, ok := ParamValue(param)
	if !ok {
		return false, nil
	}
	items, err := DecodeItems(text)
	if err != nil {
		applog.Warn("cart.deserialize.fail", err, map[string]any{"len": len(text)})
		return false, nil
	}
	fresh := s.resolve(items)
	err = s.With(ctx, sid, func(c *Cart) error {
		c.items = fresh.items
		return nil
	})
	return err == nil, err
}

func (s *CartSessions) resolve(items []domain.CartItem) *Cart {
	c := &Cart{}
	for _, it := range items {
		p, ok := s.Catalog.GetProduct(it.Product.ID)
		if !ok {
			applog.Warn("cart.handoff.skip", ErrUnknownProduct, map[string]any{"product_id": it.Product.ID})
			continue
		}
		req, ok := validate.Request(it.SpecialRequest)
		if !ok || !p.Customizable {
			req = ""
		}
		if err := c.AddItem(p, it.Quantity, req); err != nil {
			applog.Warn("cart.handoff.skip", err, map[string]any{"product_id": p.ID})
		}
	}
	return c
}
