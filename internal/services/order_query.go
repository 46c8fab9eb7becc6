package services

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"cafeorders/internal/domain"
	"cafeorders/internal/repos"
)

type LookupState int

const (
	LookupLoading LookupState = iota
	LookupFound
	LookupNotFound
)

func (s LookupState) String() string {
	switch s {
	case LookupFound:
		return "found"
	case LookupNotFound:
		return "not_found"
	default:
		return "loading"
	}
}

// OrderLookup is the result of a one-shot fetch. Order is set only when
// State is LookupFound.
type OrderLookup struct {
	State LookupState
	Order OrderView
}

// OrderQuery reads orders back from the store for display.
type OrderQuery struct {
	Orders      *repos.OrderRepo
	ReadTimeout time.Duration
}

func NewOrderQuery(orders *repos.OrderRepo, readTimeout time.Duration) *OrderQuery {
	return &OrderQuery{Orders: orders, ReadTimeout: readTimeout}
}

func project(snap repos.Snapshot) []OrderView {
	out := make([]OrderView, 0, len(snap.Docs))
	for _, d := range snap.Docs {
		out = append(out, ProjectOrder(d.Key, d.Body))
	}
	return out
}

// SubscribeAll delivers the full order list, oldest first, now and after
// every change. Cancel the returned subscription to stop.
func (q *OrderQuery) SubscribeAll(ctx context.Context, fn func([]OrderView)) (repos.Subscription, error) {
	return q.SubscribeByStatus(ctx, "", fn)
}

// SubscribeByStatus is SubscribeAll restricted to one status; an empty
// status means every order.
func (q *OrderQuery) SubscribeByStatus(ctx context.Context, status domain.OrderStatus, fn func([]OrderView)) (repos.Subscription, error) {
	return q.Orders.Subscribe(ctx, status, func(snap repos.Snapshot) {
		fn(project(snap))
	})
}

func (q *OrderQuery) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if q.ReadTimeout > 0 {
		return context.WithTimeout(ctx, q.ReadTimeout)
	}
	return context.WithCancel(ctx)
}

// FetchByID reads one order once. When the store does not answer within the
// read timeout the lookup is reported as still loading.
func (q *OrderQuery) FetchByID(ctx context.Context, id string) (OrderLookup, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "order.fetch",
		trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	readCtx, cancel := q.withDeadline(ctx)
	defer cancel()
	raw, err := q.Orders.Get(readCtx, id)
	switch {
	case errors.Is(err, repos.ErrNotFound):
		return OrderLookup{State: LookupNotFound, Order: OrderView{ID: id, Items: []ItemView{}}}, nil
	case err != nil && ctx.Err() == nil && errors.Is(readCtx.Err(), context.DeadlineExceeded):
		return OrderLookup{State: LookupLoading}, nil
	case err != nil:
		span.RecordError(err)
		return OrderLookup{}, err
	}
	return OrderLookup{State: LookupFound, Order: ProjectOrder(id, raw)}, nil
}

// Snapshot subscribes, takes the first emission and cancels.
func (q *OrderQuery) Snapshot(ctx context.Context, status domain.OrderStatus) ([]OrderView, error) {
	readCtx, cancel := q.withDeadline(ctx)
	defer cancel()

	first := make(chan []OrderView, 1)
	sub, err := q.SubscribeByStatus(readCtx, status, func(v []OrderView) {
		select {
		case first <- v:
		default:
		}
	})
	if err != nil {
		return nil, err
	}
	defer sub.Cancel()

	select {
	case v := <-first:
		return v, nil
	case <-readCtx.Done():
		return nil, readCtx.Err()
	}
}
