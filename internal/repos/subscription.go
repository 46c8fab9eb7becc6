package repos

import (
	"context"
	"sync"

	applog "cafeorders/internal/log"
)

// Subscription is the handle of a live query. Cancel is idempotent and, once
// it returns, the callback is never invoked again. Cancel must not be called
// from inside the callback; cancel the Subscribe context there instead.
type Subscription interface {
	Cancel()
}

type loader func(ctx context.Context, q Query) (Snapshot, error)

type subscription struct {
	q      Query
	kick   chan struct{}
	cancel context.CancelFunc
	exited chan struct{}
}

func newSubscription(parent context.Context, q Query) (*subscription, context.Context) {
	ctx, cancel := context.WithCancel(parent)
	s := &subscription{
		q:      q,
		kick:   make(chan struct{}, 1),
		cancel: cancel,
		exited: make(chan struct{}),
	}
	s.kick <- struct{}{}
	return s, ctx
}

// start runs the delivery loop. Register s for change notifications before
// calling start so no change between the first load and registration is lost.
func (s *subscription) start(ctx context.Context, load loader, fn func(Snapshot), onExit func()) {
	go s.loop(ctx, load, fn, onExit)
}

// notify schedules a reload. Bursts coalesce into one pending reload.
func (s *subscription) notify() {
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

func (s *subscription) loop(ctx context.Context, load loader, fn func(Snapshot), onExit func()) {
	defer close(s.exited)
	if onExit != nil {
		defer onExit()
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.kick:
		}
		snap, err := load(ctx, s.q)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			applog.Error(nil, "store.subscribe.load.fail", err, map[string]any{"collection": s.q.Collection})
			continue
		}
		fn(snap)
	}
}

func (s *subscription) Cancel() {
	s.cancel()
	<-s.exited
}

// hub fans change notifications out to the subscriptions of a collection.
type hub struct {
	mu   sync.Mutex
	subs map[string]map[*subscription]struct{}
}

func newHub() *hub { return &hub{subs: map[string]map[*subscription]struct{}{}} }

func (h *hub) add(s *subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.subs[s.q.Collection]
	if set == nil {
		set = map[*subscription]struct{}{}
		h.subs[s.q.Collection] = set
	}
	set[s] = struct{}{}
}

func (h *hub) remove(s *subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set := h.subs[s.q.Collection]; set != nil {
		delete(set, s)
		if len(set) == 0 {
			delete(h.subs, s.q.Collection)
		}
	}
}

func (h *hub) publish(collection string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subs[collection] {
		s.notify()
	}
}
