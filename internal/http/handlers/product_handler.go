package handlers

import (
	"github.com/gofiber/fiber/v2"

	"cafeorders/internal/log"
	"cafeorders/internal/services"
	"cafeorders/internal/validate"
)

type ProductHandler struct {
	Catalog *services.CatalogService
}

func (h *ProductHandler) Detail(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "product"})
		return notFound(c, "This item is no longer available")
	}
	p, ok := h.Catalog.GetProduct(id)
	if !ok {
		return notFound(c, "This item is no longer available")
	}
	return render(c, "product", fiber.Map{"P": p, "MaxRequest": validate.MaxRequest})
}
