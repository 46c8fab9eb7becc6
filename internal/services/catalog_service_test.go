package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cafeorders/internal/domain"
	"cafeorders/internal/repos"
	"cafeorders/internal/services"
)

func snapshot(docs ...string) repos.Snapshot {
	var s repos.Snapshot
	for i, d := range docs {
		s.Docs = append(s.Docs, repos.Doc{Key: string(rune('a' + i)), Body: []byte(d)})
	}
	return s
}

func TestIngestProducts(t *testing.T) {
	got := services.IngestProducts(snapshot(
		`{"id":"latte","name":"Latte","price":"4.50","category":"Beverages","customizable":true}`,
		`{"id":"tea","name":"Tea","price":3}`,
		`{"id":"nan","name":"Broken","price":"abc"}`,
		`{"id":"neg","name":"Refund","price":"-1"}`,
		`{"id":"free","name":"Missing price"}`,
		`{"name":"No id","price":"$2.00","category":"Snacks"}`,
		`not json`,
		`{"id":"latte","name":"Duplicate","price":"1.00"}`,
	))

	require.Len(t, got, 3)
	assert.Equal(t, "latte", got[0].ID)
	assert.True(t, got[0].Customizable)
	assert.True(t, got[0].Price.Equal(decimal.RequireFromString("4.5")))

	assert.Equal(t, "tea", got[1].ID)
	assert.Equal(t, domain.DefaultCategory, got[1].Category)
	assert.Equal(t, "$3.00", got[1].DisplayPrice())

	assert.Equal(t, "f", got[2].ID, "id falls back to the document key")
	assert.Equal(t, "$2.00", got[2].DisplayPrice())
}

func menu() []domain.Product {
	return []domain.Product{
		{ID: "latte", Name: "Caffe Latte", Category: "Beverages"},
		{ID: "tea", Name: "Iced Tea", Category: "Beverages"},
		{ID: "wrap", Name: "Chicken Wrap", Category: "Meals"},
		{ID: "cake", Name: "Cheesecake", Category: "Desserts"},
	}
}

func ids(ps []domain.Product) []string {
	out := []string{}
	for _, p := range ps {
		out = append(out, p.ID)
	}
	return out
}

func TestFilterProductsByCategory(t *testing.T) {
	got, active := services.FilterProducts(menu(), "", "")
	assert.Equal(t, []string{"latte", "tea", "wrap", "cake"}, ids(got))
	assert.Equal(t, domain.DefaultCategory, active)

	got, active = services.FilterProducts(menu(), "Beverages", "")
	assert.Equal(t, []string{"latte", "tea"}, ids(got))
	assert.Equal(t, "Beverages", active)

	got, _ = services.FilterProducts(menu(), "Snacks", "")
	assert.Empty(t, got)
}

func TestFilterProductsSearchIgnoresCategory(t *testing.T) {
	got, active := services.FilterProducts(menu(), "Desserts", "CHICKEN")
	assert.Equal(t, []string{"wrap"}, ids(got))
	assert.Equal(t, "Meals", active, "active category follows the first hit")

	got, active = services.FilterProducts(menu(), "Meals", "pizza")
	assert.Empty(t, got)
	assert.Equal(t, domain.DefaultCategory, active)
}

func TestCatalogServiceFollowsStore(t *testing.T) {
	ctx := context.Background()
	store := newCountingStore(t)
	prods := repos.NewProductRepo(store)
	_, err := prods.Add(ctx, map[string]any{"id": "latte", "name": "Latte", "price": "4.50"})
	require.NoError(t, err)

	cat := services.NewCatalogService(prods)
	assert.False(t, cat.Ready())
	require.NoError(t, cat.Start(ctx))
	defer cat.Stop()

	waitCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	require.NoError(t, cat.WaitReady(waitCtx))
	p, ok := cat.GetProduct("latte")
	require.True(t, ok)
	assert.Equal(t, "Latte", p.Name)

	_, err = prods.Add(ctx, map[string]any{"id": "tea", "name": "Tea", "price": 3})
	require.NoError(t, err)
	assert.Eventually(t, func() bool {
		_, ok := cat.GetProduct("tea")
		return ok
	}, 3*time.Second, 10*time.Millisecond)
	assert.Len(t, cat.Products(), 2)
}
