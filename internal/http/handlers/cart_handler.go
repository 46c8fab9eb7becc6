package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "cafeorders/internal/log"
	"cafeorders/internal/services"
	"cafeorders/internal/validate"
)

type CartHandler struct {
	Carts   *services.CartSessions
	Catalog *services.CatalogService
}

func (h *CartHandler) Add(c *fiber.Ctx) error {
	sid := ensureSID(c)
	productID, ok := validate.ID(c.FormValue("productId"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "productId"})
		return c.Status(fiber.StatusBadRequest).SendString("missing productId")
	}
	qty := validate.Qty(c.FormValue("qty"))
	req, ok := validate.Request(c.FormValue("specialRequest"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "specialRequest"})
		return c.Status(fiber.StatusBadRequest).Render("notfound", fiber.Map{"Message": "Special requests are limited to 140 characters."})
	}

	p, ok := h.Catalog.GetProduct(productID)
	if !ok {
		applog.Info(c, "cart.add.unknown", map[string]any{"product_id": productID})
		return notFound(c, "This item is no longer available")
	}
	if !p.Customizable {
		req = ""
	}
	err := h.Carts.With(c.UserContext(), sid, func(cart *services.Cart) error {
		return cart.AddItem(p, qty, req)
	})
	if err != nil {
		applog.Error(c, "cart.add.fail", err, map[string]any{"product_id": productID})
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not update your cart"})
	}
	applog.Info(c, "cart.add", map[string]any{"product_id": productID, "qty": qty})
	return c.Redirect("/cart")
}

// View shows the session cart. A ?cart= parameter carrying a serialized cart
// replaces it first; only the first value counts when it is repeated.
// Handoffs arriving from another site are ignored.
func (h *CartHandler) View(c *fiber.Ctx) error {
	sid := ensureSID(c)
	ctx := c.UserContext()
	vals := c.Context().QueryArgs().PeekMulti("cart")
	if len(vals) > 0 && crossSite(c) {
		applog.Security(c, "cart.handoff.cross_site", map[string]any{"site": c.Get("Sec-Fetch-Site")})
		vals = nil
	}
	if len(vals) > 0 {
		replaced, err := h.Carts.Handoff(ctx, sid, vals)
		if err != nil {
			applog.Error(c, "cart.handoff.fail", err, nil)
		} else if !replaced {
			applog.Info(c, "cart.handoff.ignored", nil)
		}
	}
	cart, err := h.Carts.Get(ctx, sid)
	if err != nil {
		applog.Error(c, "cart.load.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not load your cart"})
	}
	return renderCart(c, cart, "")
}

func crossSite(c *fiber.Ctx) bool {
	switch c.Get("Sec-Fetch-Site") {
	case "cross-site", "same-site":
		return true
	}
	return false
}

func renderCart(c *fiber.Ctx, cart *services.Cart, notice string) error {
	return render(c, "cart", fiber.Map{
		"Items":         cart.Items(),
		"Total":         cart.Total(),
		"TotalQuantity": cart.TotalQuantity(),
		"Empty":         cart.IsEmpty(),
		"Notice":        notice,
	})
}

func (h *CartHandler) edit(c *fiber.Ctx, action string, fn func(cart *services.Cart, productID string)) error {
	sid := ensureSID(c)
	productID, ok := validate.ID(c.FormValue("productId"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "productId"})
		return c.Status(fiber.StatusBadRequest).SendString("missing productId")
	}
	err := h.Carts.With(c.UserContext(), sid, func(cart *services.Cart) error {
		fn(cart, productID)
		return nil
	})
	if err != nil {
		applog.Error(c, "cart."+action+".fail", err, map[string]any{"product_id": productID})
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not update your cart"})
	}
	return c.Redirect("/cart")
}

func (h *CartHandler) Increment(c *fiber.Ctx) error {
	return h.edit(c, "increment", (*services.Cart).Increment)
}

func (h *CartHandler) Decrement(c *fiber.Ctx) error {
	return h.edit(c, "decrement", (*services.Cart).Decrement)
}

func (h *CartHandler) Remove(c *fiber.Ctx) error {
	return h.edit(c, "remove", (*services.Cart).Remove)
}
