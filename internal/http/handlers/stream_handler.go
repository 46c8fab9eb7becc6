package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"cafeorders/internal/domain"
	applog "cafeorders/internal/log"
	"cafeorders/internal/services"
)

// StreamHandler pushes the live order list as server-sent events.
type StreamHandler struct {
	Query *services.OrderQuery
	Base  context.Context
	// Ping is the keep-alive interval (15s when zero).
	Ping time.Duration
	// MaxEvents closes the stream after that many lists; zero streams until
	// the client leaves.
	MaxEvents int
}

func (h *StreamHandler) Orders(c *fiber.Ctx) error {
	var status domain.OrderStatus
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		st, ok := domain.ParseStatus(raw)
		if !ok {
			applog.Security(c, "validation.fail", map[string]any{"field": "status"})
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unknown status"})
		}
		status = st
	}

	base := h.Base
	if base == nil {
		base = context.Background()
	}
	ctx, cancel := context.WithCancel(base)

	// holds only the newest list; a slow client skips intermediate ones
	updates := make(chan []services.OrderView, 1)
	sub, err := h.Query.SubscribeByStatus(ctx, status, func(v []services.OrderView) {
		for {
			select {
			case updates <- v:
				return
			default:
			}
			select {
			case <-updates:
			default:
			}
		}
	})
	if err != nil {
		cancel()
		applog.Error(c, "orders.stream.fail", err, nil)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "orders unavailable"})
	}
	applog.Info(c, "orders.stream.open", map[string]any{"status": status})

	ping := h.Ping
	if ping <= 0 {
		ping = 15 * time.Second
	}
	maxEvents := h.MaxEvents

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer cancel()
		defer sub.Cancel()
		ticker := time.NewTicker(ping)
		defer ticker.Stop()

		sent := 0
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fmt.Fprint(w, ": ping\n\n")
			case v := <-updates:
				body, err := json.Marshal(fiber.Map{"orders": v})
				if err != nil {
					applog.Warn("orders.stream.encode", err, nil)
					continue
				}
				fmt.Fprintf(w, "event: orders\ndata: %s\n\n", body)
				sent++
			}
			// a failed flush means the client went away
			if err := w.Flush(); err != nil {
				return
			}
			if maxEvents > 0 && sent >= maxEvents {
				return
			}
		}
	})
	return nil
}
