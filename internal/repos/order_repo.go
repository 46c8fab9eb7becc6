package repos

import (
	"context"
	"errors"

	"cafeorders/internal/domain"
)

const CollectionOrders = "orders"

var ErrMissingOrderID = errors.New("order id is required")

type OrderRepo struct{ docs DocStore }

func NewOrderRepo(docs DocStore) *OrderRepo { return &OrderRepo{docs: docs} }

// Create stores the order under its own id. The id is the document key and
// is not repeated in the body.
func (r *OrderRepo) Create(ctx context.Context, o domain.Order) error {
	if o.ID == "" {
		return ErrMissingOrderID
	}
	return r.docs.Put(ctx, CollectionOrders, o.ID, o)
}

// Get returns the raw order document, or ErrNotFound.
func (r *OrderRepo) Get(ctx context.Context, id string) ([]byte, error) {
	return r.docs.Get(ctx, CollectionOrders, id)
}

func query(status domain.OrderStatus) Query {
	q := Query{Collection: CollectionOrders}
	if status != "" {
		q.Child, q.Equals = "status", string(status)
	}
	return q
}

// List returns the orders in submission order; an empty status means all.
func (r *OrderRepo) List(ctx context.Context, status domain.OrderStatus) (Snapshot, error) {
	return r.docs.List(ctx, query(status))
}

func (r *OrderRepo) Subscribe(ctx context.Context, status domain.OrderStatus, fn func(Snapshot)) (Subscription, error) {
	return r.docs.Subscribe(ctx, query(status), fn)
}

func (r *OrderRepo) Count(ctx context.Context) (int, error) {
	return r.docs.Count(ctx, CollectionOrders)
}
