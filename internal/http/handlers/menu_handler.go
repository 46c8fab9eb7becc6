package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"cafeorders/internal/domain"
	"cafeorders/internal/log"
	"cafeorders/internal/services"
	"cafeorders/internal/validate"
)

type MenuHandler struct {
	Catalog *services.CatalogService
}

// Home renders the menu, filtered by ?category= or searched by ?q=.
func (h *MenuHandler) Home(c *fiber.Ctx) error {
	ensureSID(c)
	data := fiber.Map{"Categories": domain.Categories, "Loading": !h.Catalog.Ready()}

	q := ""
	if rawQ := c.Query("q"); strings.TrimSpace(rawQ) != "" {
		var ok bool
		if q, ok = validate.Q(rawQ); !ok {
			log.Security(c, "validation.fail", map[string]any{"field": "q", "value": rawQ})
			data["Active"] = domain.DefaultCategory
			data["Products"] = []domain.Product{}
			data["Err"] = "Enter a valid keyword (letters/numbers only)"
			c.Status(fiber.StatusBadRequest)
			return render(c, "menu", data)
		}
	}
	category, ok := validate.Category(c.Query("category"))
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "category"})
	}

	products, active := services.FilterProducts(h.Catalog.Products(), category, q)
	data["Q"] = q
	data["Active"] = active
	data["Products"] = products
	data["Count"] = len(products)
	return render(c, "menu", data)
}

type productJSON struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Price        string `json:"price"`
	ImageFile    string `json:"imageFile,omitempty"`
	Customizable bool   `json:"customizable"`
	Category     string `json:"category"`
}

// Products serves the live catalog as JSON.
func (h *MenuHandler) Products(c *fiber.Ctx) error {
	category, _ := validate.Category(c.Query("category"))
	q, _ := validate.Q(c.Query("q"))
	products, active := services.FilterProducts(h.Catalog.Products(), category, q)

	out := make([]productJSON, 0, len(products))
	for _, p := range products {
		out = append(out, productJSON{
			ID:           p.ID,
			Name:         p.Name,
			Price:        p.Price.StringFixed(2),
			ImageFile:    p.ImageFile,
			Customizable: p.Customizable,
			Category:     p.Category,
		})
	}
	return c.JSON(fiber.Map{"category": active, "products": out, "ready": h.Catalog.Ready()})
}
