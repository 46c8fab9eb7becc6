package services

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"cafeorders/internal/domain"
	applog "cafeorders/internal/log"
	"cafeorders/internal/repos"
)

// CatalogService keeps a live, validated copy of the product collection.
type CatalogService struct {
	Prods *repos.ProductRepo

	mu       sync.RWMutex
	products []domain.Product
	byID     map[string]domain.Product
	ready    chan struct{}
	once     sync.Once
	sub      repos.Subscription
}

func NewCatalogService(prods *repos.ProductRepo) *CatalogService {
	return &CatalogService{Prods: prods, byID: map[string]domain.Product{}, ready: make(chan struct{})}
}

// Start subscribes to the product collection. The catalog stays live until
// Stop is called or ctx ends.
func (s *CatalogService) Start(ctx context.Context) error {
	sub, err := s.Prods.Subscribe(ctx, s.replace)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.sub = sub
	s.mu.Unlock()
	return nil
}

func (s *CatalogService) Stop() {
	s.mu.RLock()
	sub := s.sub
	s.mu.RUnlock()
	if sub != nil {
		sub.Cancel()
	}
}

func (s *CatalogService) replace(snap repos.Snapshot) {
	products := IngestProducts(snap)
	byID := make(map[string]domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	s.mu.Lock()
	s.products, s.byID = products, byID
	s.mu.Unlock()
	s.once.Do(func() { close(s.ready) })
}

// WaitReady blocks until the first catalog snapshot arrived.
func (s *CatalogService) WaitReady(ctx context.Context) error {
	select {
	case <-s.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *CatalogService) Ready() bool {
	select {
	case <-s.ready:
		return true
	default:
		return false
	}
}

func (s *CatalogService) Products() []domain.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Product, len(s.products))
	copy(out, s.products)
	return out
}

func (s *CatalogService) GetProduct(id string) (domain.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.byID[id]
	return p, ok
}

type productDoc struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Price        json.RawMessage `json:"price"`
	ImageFile    string          `json:"imageFile"`
	Customizable bool            `json:"customizable"`
	Category     string          `json:"category"`
}

// IngestProducts decodes a catalog snapshot. Records that cannot be decoded
// or carry no valid price are logged and skipped. A missing category becomes
// the default one; a missing id falls back to the document key.
func IngestProducts(snap repos.Snapshot) []domain.Product {
	out := make([]domain.Product, 0, len(snap.Docs))
	seen := map[string]bool{}
	for _, d := range snap.Docs {
		var doc productDoc
		if err := json.Unmarshal(d.Body, &doc); err != nil {
			applog.Warn("catalog.ingest.skip", err, map[string]any{"key": d.Key})
			continue
		}
		price, err := domain.ParsePrice(doc.Price)
		if err != nil {
			applog.Warn("catalog.ingest.skip", err, map[string]any{"key": d.Key, "name": doc.Name})
			continue
		}
		p := domain.Product{
			ID:           strings.TrimSpace(doc.ID),
			Name:         strings.TrimSpace(doc.Name),
			Price:        price,
			ImageFile:    doc.ImageFile,
			Customizable: doc.Customizable,
			Category:     strings.TrimSpace(doc.Category),
		}
		if p.ID == "" {
			p.ID = d.Key
		}
		if p.Category == "" {
			p.Category = domain.DefaultCategory
		}
		if seen[p.ID] {
			applog.Warn("catalog.ingest.duplicate", nil, map[string]any{"key": d.Key, "id": p.ID})
			continue
		}
		seen[p.ID] = true
		out = append(out, p)
	}
	return out
}

// FilterProducts applies the menu filters. A search query matches names
// case-insensitively across every category and moves the active category to
// that of the first hit (the default category when nothing matches). Without
// a query the category filter applies.
func FilterProducts(products []domain.Product, category, q string) ([]domain.Product, string) {
	q = strings.ToLower(strings.TrimSpace(q))
	if category == "" {
		category = domain.DefaultCategory
	}
	out := []domain.Product{}
	if q != "" {
		for _, p := range products {
			if strings.Contains(strings.ToLower(p.Name), q) {
				out = append(out, p)
			}
		}
		if len(out) > 0 {
			return out, out[0].Category
		}
		return out, domain.DefaultCategory
	}
	if category == domain.DefaultCategory {
		return append(out, products...), category
	}
	for _, p := range products {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out, category
}
