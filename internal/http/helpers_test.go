package handlers_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"cafeorders/internal/config"
	"cafeorders/internal/events"
	"cafeorders/internal/http/handlers"
	"cafeorders/internal/repos"
)

const templatesDir = "../../web/templates"

// failingOrders refuses every order write.
type failingOrders struct{ repos.DocStore }

func (s failingOrders) Put(ctx context.Context, collection, key string, v any) error {
	if collection == repos.CollectionOrders {
		return errors.New("store offline")
	}
	return s.DocStore.Put(ctx, collection, key, v)
}

func failingStore(s repos.DocStore) repos.DocStore { return failingOrders{s} }

type testEnv struct {
	app   *fiber.App
	deps  *handlers.Deps
	store repos.DocStore
}

func newTestEnv(t *testing.T, wrap func(repos.DocStore) repos.DocStore, opt handlers.AppOptions) *testEnv {
	t.Helper()
	sql, err := repos.OpenSQLStore(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = sql.Close() })
	var store repos.DocStore = sql

	ctx := context.Background()
	prods := repos.NewProductRepo(store)
	for _, p := range []map[string]any{
		{"id": "latte", "name": "Caffe Latte", "price": "4.50", "category": "Beverages", "customizable": true},
		{"id": "wrap", "name": "Chicken Wrap", "price": "7.50", "category": "Meals"},
		{"id": "broken", "name": "Broken", "price": "n/a"},
	} {
		if _, err := prods.Add(ctx, p); err != nil {
			t.Fatalf("seed product: %v", err)
		}
	}
	if wrap != nil {
		store = wrap(store)
	}

	cfg := config.Config{OrderWriteTimeout: time.Second, OrderReadTimeout: time.Second}
	deps := handlers.NewDeps(ctx, store, repos.NewMemoryCarts(), events.Nop{}, cfg)
	if err := deps.Catalog.Start(ctx); err != nil {
		t.Fatalf("start catalog: %v", err)
	}
	t.Cleanup(deps.Catalog.Stop)
	waitCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := deps.Catalog.WaitReady(waitCtx); err != nil {
		t.Fatalf("catalog not ready: %v", err)
	}

	opt.TemplatesDir = templatesDir
	if opt.RateLimit == 0 {
		opt.RateLimit = 1000
	}
	return &testEnv{app: handlers.NewApp(deps, opt), deps: deps, store: store}
}

// browser keeps cookies between requests like a real client.
type browser struct {
	t       *testing.T
	app     *fiber.App
	cookies map[string]string
}

func newBrowser(t *testing.T, app *fiber.App) *browser {
	return &browser{t: t, app: app, cookies: map[string]string{}}
}

func (b *browser) do(req *http.Request) (*http.Response, string) {
	b.t.Helper()
	for k, v := range b.cookies {
		req.AddCookie(&http.Cookie{Name: k, Value: v})
	}
	resp, err := b.app.Test(req, 5000)
	if err != nil {
		b.t.Fatalf("%s %s: %v", req.Method, req.URL, err)
	}
	for _, c := range resp.Cookies() {
		b.cookies[c.Name] = c.Value
	}
	body, _ := io.ReadAll(resp.Body)
	return resp, string(body)
}

func (b *browser) get(path string) (*http.Response, string) {
	return b.do(httptest.NewRequest("GET", path, nil))
}

// post submits a form with the CSRF token, fetching one first if needed.
func (b *browser) post(path string, form url.Values) (*http.Response, string) {
	b.t.Helper()
	if b.cookies["csrf_"] == "" {
		b.get("/")
	}
	if form == nil {
		form = url.Values{}
	}
	form.Set("csrf", b.cookies["csrf_"])
	req := httptest.NewRequest("POST", path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(req)
}

func mustContain(t *testing.T, body string, want ...string) {
	t.Helper()
	for _, w := range want {
		if !strings.Contains(body, w) {
			t.Fatalf("body missing %q:\n%s", w, body)
		}
	}
}
