package handlers_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"cafeorders/internal/domain"
	"cafeorders/internal/http/handlers"
	"cafeorders/internal/repos"
)

const tamperedCart = `[
	{"product":{"id":"latte","name":"Caffe Latte","price":"0.01"},"quantity":10,"specialRequest":"oat milk"},
	{"product":{"id":"ghost","name":"Free Lunch","price":"0"},"quantity":3}
]`

// Client supplied prices and products are ignored; the order is priced from the catalog.
func TestOrderTotalsRecomputed(t *testing.T) {
	env := newTestEnv(t, nil, handlers.AppOptions{})
	b := newBrowser(t, env.app)

	_, body := b.get("/cart?" + url.Values{"cart": {tamperedCart}}.Encode())
	mustContain(t, body, "Caffe Latte", "oat milk", "Items: 10", "Total: $45.00")
	if strings.Contains(body, "Free Lunch") {
		t.Fatalf("unknown product kept in cart:\n%s", body)
	}

	_, body = b.post("/checkout", nil)
	m := reOrderLink.FindStringSubmatch(body)
	if m == nil {
		t.Fatalf("no order id on confirmation:\n%s", body)
	}
	raw, err := env.store.Get(context.Background(), repos.CollectionOrders, m[1])
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	var o domain.Order
	if err := json.Unmarshal(raw, &o); err != nil {
		t.Fatalf("decode order: %v", err)
	}
	if o.Total != "45.00" || o.TotalQuantity != 10 {
		t.Fatalf("expected recomputed total 45.00 x10, got %s x%d", o.Total, o.TotalQuantity)
	}
	if len(o.Items) != 1 || o.Items[0].Product.Price.StringFixed(2) != "4.50" {
		t.Fatalf("expected catalog priced latte only, got %+v", o.Items)
	}
}

func TestHandoffQuantityBounds(t *testing.T) {
	env := newTestEnv(t, nil, handlers.AppOptions{})
	b := newBrowser(t, env.app)
	b.post("/cart", url.Values{"productId": {"wrap"}, "qty": {"1"}})

	overflow := `[{"product":{"id":"latte"},"quantity":9223372036854775807},{"product":{"id":"latte"},"quantity":2}]`
	_, body := b.get("/cart?" + url.Values{"cart": {overflow}}.Encode())
	mustContain(t, body, "Chicken Wrap", "Items: 1")
}

func TestCrossSiteHandoffIgnored(t *testing.T) {
	env := newTestEnv(t, nil, handlers.AppOptions{})
	b := newBrowser(t, env.app)
	b.post("/cart", url.Values{"productId": {"wrap"}, "qty": {"2"}})

	entries := captureLogs(t, func() {
		req := httptest.NewRequest("GET", "/cart?"+url.Values{"cart": {`[{"product":{"id":"latte"},"quantity":1}]`}}.Encode(), nil)
		req.Header.Set("Sec-Fetch-Site", "cross-site")
		_, body := b.do(req)
		mustContain(t, body, "Chicken Wrap", "Items: 2")
	})
	if e := find(entries, "cart.handoff.cross_site"); e == nil || e.Level != "warn" {
		t.Fatalf("expected cart.handoff.cross_site warn entry, got %+v", entries)
	}
}

func TestOrderWithoutItems(t *testing.T) {
	env := newTestEnv(t, nil, handlers.AppOptions{})
	err := env.store.Put(context.Background(), repos.CollectionOrders, "empty-1", map[string]any{
		"status": "Pending",
		"items":  []any{},
	})
	if err != nil {
		t.Fatal(err)
	}
	_, body := newBrowser(t, env.app).get("/order/empty-1")
	mustContain(t, body, "Order empty-1", "No items found for this order.")
	if strings.Contains(body, `<table class="items">`) {
		t.Fatalf("empty order renders an item table:\n%s", body)
	}
}
