package repos

import "context"

const CollectionProducts = "product"

// ProductRepo gives access to the raw catalog documents. Decoding and
// validation happen at ingest in the catalog service.
type ProductRepo struct{ docs DocStore }

func NewProductRepo(docs DocStore) *ProductRepo { return &ProductRepo{docs: docs} }

func (r *ProductRepo) Add(ctx context.Context, v any) (string, error) {
	return r.docs.Push(ctx, CollectionProducts, v)
}

func (r *ProductRepo) List(ctx context.Context) (Snapshot, error) {
	return r.docs.List(ctx, Query{Collection: CollectionProducts})
}

// Subscribe feeds fn the whole catalog now and after every change.
func (r *ProductRepo) Subscribe(ctx context.Context, fn func(Snapshot)) (Subscription, error) {
	return r.docs.Subscribe(ctx, Query{Collection: CollectionProducts}, fn)
}

func (r *ProductRepo) Count(ctx context.Context) (int, error) {
	return r.docs.Count(ctx, CollectionProducts)
}
