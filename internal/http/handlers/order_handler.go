package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"cafeorders/internal/domain"
	applog "cafeorders/internal/log"
	"cafeorders/internal/services"
	"cafeorders/internal/validate"
)

type OrderHandler struct {
	Carts  *services.CartSessions
	Orders *services.OrderService
	Query  *services.OrderQuery
}

// Checkout submits the session cart as a new order.
func (h *OrderHandler) Checkout(c *fiber.Ctx) error {
	sid := ensureSID(c)
	ctx := c.UserContext()

	var receipt services.Receipt
	var submitErr error
	var kept *services.Cart
	err := h.Carts.With(ctx, sid, func(cart *services.Cart) error {
		receipt, submitErr = h.Orders.Submit(ctx, cart)
		kept = cart
		return nil
	})
	if err != nil && receipt.OrderID == "" {
		applog.Error(c, "cart.load.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not load your cart"})
	}
	if err != nil {
		// the order is stored; only clearing the cart failed
		applog.Error(c, "cart.clear.fail", err, map[string]any{"order_id": receipt.OrderID})
	}

	switch {
	case errors.Is(submitErr, services.ErrEmptyCart):
		applog.Info(c, "order.submit.empty", nil)
		c.Status(fiber.StatusBadRequest)
		return renderCart(c, kept, services.Notice(submitErr))
	case submitErr != nil:
		applog.Error(c, "order.submit.fail", submitErr, map[string]any{"items": kept.Len()})
		c.Status(fiber.StatusServiceUnavailable)
		return renderCart(c, kept, services.Notice(submitErr))
	}

	applog.Audit(c, "order.place", map[string]any{
		"order_id":       receipt.OrderID,
		"total":          receipt.Total,
		"total_quantity": receipt.TotalQuantity,
	})
	return render(c, "confirmation", fiber.Map{"Receipt": receipt, "Notice": receipt.Notice})
}

// List shows the orders of one status (Pending unless ?status= says otherwise).
func (h *OrderHandler) List(c *fiber.Ctx) error {
	status, ok := validate.Status(c.Query("status"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "status"})
		return c.Status(fiber.StatusBadRequest).Render("notfound", fiber.Map{"Message": "Unknown order status"})
	}
	data := fiber.Map{
		"Status":   status,
		"Statuses": []domain.OrderStatus{domain.StatusPending, domain.StatusCompleted, domain.StatusCancelled},
	}
	orders, err := h.Query.Snapshot(c.UserContext(), status)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		data["Loading"] = true
		return render(c, "orders", data)
	case err != nil:
		applog.Error(c, "orders.list.fail", err, map[string]any{"status": status})
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not load orders"})
	}
	data["Orders"] = orders
	if len(orders) == 0 {
		data["Notice"] = services.NoticeNoOrders
	}
	return render(c, "orders", data)
}

// View shows one order by id.
func (h *OrderHandler) View(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "order"})
		c.Status(fiber.StatusNotFound)
		return render(c, "order", fiber.Map{"Notice": services.NoticeOrderMissing})
	}
	lookup, err := h.Query.FetchByID(c.UserContext(), id)
	if err != nil {
		applog.Error(c, "order.fetch.fail", err, map[string]any{"order_id": id})
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not load the order"})
	}
	switch lookup.State {
	case services.LookupLoading:
		return render(c, "order", fiber.Map{"ID": id, "Loading": true})
	case services.LookupNotFound:
		c.Status(fiber.StatusNotFound)
		return render(c, "order", fiber.Map{"ID": id, "Notice": services.NoticeOrderMissing})
	}
	return render(c, "order", fiber.Map{"ID": id, "Order": lookup.Order})
}
