package handlers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"

	applog "cafeorders/internal/log"
)

type AppOptions struct {
	TemplatesDir string
	StaticDir    string
	Reload       bool
	// RateLimit is the number of requests allowed per IP and minute (60 when zero).
	RateLimit int
	// AccessLog enables the request logger middleware.
	AccessLog bool
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "Something went wrong. Please try again."
	var fe *fiber.Error
	if errors.As(err, &fe) && fe.Code < 500 {
		code = fe.Code
		msg = "Page not found"
		if code != fiber.StatusNotFound {
			msg = "Your request could not be processed."
		}
	} else {
		applog.Error(c, "server.error", err, nil)
	}
	// Avoid leaking internals; best-effort render
	if rerr := c.Status(code).Render("notfound", fiber.Map{"Message": msg}); rerr != nil {
		return c.Status(code).SendString(msg)
	}
	return nil
}

// NewApp builds the fiber app with middlewares and every route.
func NewApp(d *Deps, opt AppOptions) *fiber.App {
	engine := html.New(opt.TemplatesDir, ".html")
	engine.Reload(opt.Reload)

	app := fiber.New(fiber.Config{
		Views:        engine,
		ErrorHandler: errorHandler,
		// Global body size guard
		BodyLimit: 1 << 20, // 1 MiB
	})

	// ---------- Middlewares ----------
	app.Use(recover.New())
	app.Use(requestid.New())
	if opt.AccessLog {
		app.Use(logger.New())
	}
	app.Use(helmet.New())
	rate := opt.RateLimit
	if rate <= 0 {
		rate = 60
	}
	app.Use(limiter.New(limiter.Config{
		Max:        rate,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			p := string(c.Request().URI().Path())
			// long-lived streams and probes are not throttled
			return strings.HasPrefix(p, "/static/") || p == "/healthz" || p == "/api/v1/orders/stream"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.limit.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).SendString("Too many requests, retry soon")
		},
	}))
	app.Use(csrf.New(csrf.Config{
		KeyLookup:      "form:csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   false, // set true behind HTTPS
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Security(c, "csrf.fail", map[string]any{"reason": err.Error()})
			return c.Status(fiber.StatusForbidden).Render("notfound", fiber.Map{"Message": "Security check failed. Please refresh and try again."})
		},
	}))
	app.Use(func(c *fiber.Ctx) error {
		if tok, ok := c.Locals("csrf").(string); ok {
			c.Locals("CSRFToken", tok)
		}
		return c.Next()
	})

	if opt.StaticDir != "" {
		app.Static("/static", opt.StaticDir)
	}

	// Menu & products
	app.Get("/", d.MenuHandler.Home)
	app.Get("/product", func(c *fiber.Ctx) error { return notFound(c, "This item is no longer available") })
	app.Get("/product/:id", d.ProductHandler.Detail)

	// Cart
	app.Get("/cart", d.CartHandler.View)
	app.Post("/cart", d.CartHandler.Add)
	app.Post("/cart/increment", d.CartHandler.Increment)
	app.Post("/cart/decrement", d.CartHandler.Decrement)
	app.Post("/cart/remove", d.CartHandler.Remove)

	// Orders
	app.Post("/checkout", d.OrderHandler.Checkout)
	app.Get("/orders", d.OrderHandler.List)
	app.Get("/order/:id", d.OrderHandler.View)

	// API
	api := app.Group("/api/v1")
	api.Get("/products", d.MenuHandler.Products)
	api.Get("/orders/stream", d.StreamHandler.Orders)

	// Health & 404
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"ok": true, "catalog_ready": d.Catalog.Ready()})
	})
	app.Use(func(c *fiber.Ctx) error {
		return notFound(c, "Page not found")
	})
	return app
}
