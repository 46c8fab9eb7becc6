package services

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"cafeorders/internal/domain"
	"cafeorders/internal/events"
	applog "cafeorders/internal/log"
	"cafeorders/internal/repos"
)

const tracerName = "cafe.orders"

type OrderService struct {
	Orders       *repos.OrderRepo
	Events       events.Publisher
	WriteTimeout time.Duration
	Now          func() time.Time
}

func NewOrderService(orders *repos.OrderRepo, pub events.Publisher, writeTimeout time.Duration) *OrderService {
	if pub == nil {
		pub = events.Nop{}
	}
	return &OrderService{Orders: orders, Events: pub, WriteTimeout: writeTimeout, Now: time.Now}
}

// Receipt is what the confirmation page shows after a successful submit.
type Receipt struct {
	OrderID       string
	Items         []domain.CartItem
	Total         string
	TotalQuantity int
	Notice        string
}

// NewOrder freezes the cart into a pending order with a fresh time-ordered id.
func (s *OrderService) NewOrder(cart *Cart) (domain.Order, error) {
	id, err := repos.NewKey()
	if err != nil {
		return domain.Order{}, err
	}
	return domain.Order{
		ID:            id,
		Status:        domain.StatusPending,
		Items:         cart.Items(),
		Total:         cart.Total(),
		TotalQuantity: cart.TotalQuantity(),
		Timestamp:     s.Now().UTC().Format(time.RFC3339Nano),
	}, nil
}

// Submit stores the cart as a new pending order. An empty cart is rejected
// before touching the store. On success the cart is emptied; on failure it is
// left as it was and the error wraps ErrPersist. Submit never retries.
func (s *OrderService) Submit(ctx context.Context, cart *Cart) (Receipt, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "order.submit", trace.WithSpanKind(trace.SpanKindProducer))
	defer span.End()

	if cart == nil || cart.IsEmpty() {
		span.SetStatus(codes.Error, ErrEmptyCart.Error())
		return Receipt{Notice: Notice(ErrEmptyCart)}, ErrEmptyCart
	}

	order, err := s.NewOrder(cart)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrPersist, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "order id")
		return Receipt{Notice: Notice(err)}, err
	}
	span.SetAttributes(
		attribute.String("order.id", order.ID),
		attribute.Int("order.items", len(order.Items)),
		attribute.String("order.total", order.Total),
	)

	writeCtx := ctx
	if s.WriteTimeout > 0 {
		var cancel context.CancelFunc
		writeCtx, cancel = context.WithTimeout(ctx, s.WriteTimeout)
		defer cancel()
	}
	if err := s.Orders.Create(writeCtx, order); err != nil {
		err = fmt.Errorf("%w: %v", ErrPersist, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist")
		return Receipt{Notice: Notice(err)}, err
	}

	cart.Reset()
	s.publish(ctx, order)
	return Receipt{
		OrderID:       order.ID,
		Items:         order.Items,
		Total:         order.Total,
		TotalQuantity: order.TotalQuantity,
		Notice:        Notice(nil),
	}, nil
}

// publish announces the order; the order is already stored, so failures are only logged.
func (s *OrderService) publish(ctx context.Context, order domain.Order) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.Events.PublishOrderPlaced(ctx, order); err != nil {
		applog.Error(nil, "order.event.fail", err, map[string]any{"order_id": order.ID})
	}
}
