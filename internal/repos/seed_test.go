package repos_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cafeorders/internal/domain"
	"cafeorders/internal/repos"
)

const menuYAML = `
products:
  - id: latte
    name: Caffe Latte
    price: "4.5"
    customizable: true
    category: Beverages
  - name: Brownie
    price: "3.25"
  - id: broken
    name: Broken
    price: "abc"
`

func TestSeedMenuOnlyWhenEmpty(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "menu.yaml")
	require.NoError(t, os.WriteFile(path, []byte(menuYAML), 0o644))

	s := newSQLStore(t)
	n, err := repos.SeedMenu(ctx, s, path)
	require.NoError(t, err)
	assert.Equal(t, 2, n, "entry with a bad price is skipped")

	snap, err := s.List(ctx, repos.Query{Collection: repos.CollectionProducts})
	require.NoError(t, err)
	require.Len(t, snap.Docs, 2)
	assert.JSONEq(t, `{"id":"latte","name":"Caffe Latte","price":"4.50","customizable":true,"category":"Beverages"}`, string(snap.Docs[0].Body))
	// an entry without id gets its document key
	assert.Contains(t, string(snap.Docs[1].Body), `"id":"`+snap.Docs[1].Key+`"`)

	n, err = repos.SeedMenu(ctx, s, path)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSeedMenuMissingFile(t *testing.T) {
	n, err := repos.SeedMenu(context.Background(), newSQLStore(t), filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestOrderRepoRequiresID(t *testing.T) {
	r := repos.NewOrderRepo(newSQLStore(t))
	err := r.Create(context.Background(), domain.Order{Status: domain.StatusPending})
	assert.ErrorIs(t, err, repos.ErrMissingOrderID)
}
