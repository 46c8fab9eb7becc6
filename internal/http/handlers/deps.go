package handlers

import (
	"context"

	"cafeorders/internal/config"
	"cafeorders/internal/events"
	"cafeorders/internal/repos"
	"cafeorders/internal/services"
)

type Deps struct {
	Catalog *services.CatalogService

	MenuHandler    *MenuHandler
	ProductHandler *ProductHandler
	CartHandler    *CartHandler
	OrderHandler   *OrderHandler
	StreamHandler  *StreamHandler
}

// NewDeps wires the services over one document store and one cart store.
// ctx bounds long-lived streams; cancel it on shutdown.
func NewDeps(ctx context.Context, store repos.DocStore, carts repos.CartStore, pub events.Publisher, cfg config.Config) *Deps {
	prodRepo := repos.NewProductRepo(store)
	orderRepo := repos.NewOrderRepo(store)

	catalogSvc := services.NewCatalogService(prodRepo)
	sessions := services.NewCartSessions(carts, catalogSvc)
	orderSvc := services.NewOrderService(orderRepo, pub, cfg.OrderWriteTimeout)
	querySvc := services.NewOrderQuery(orderRepo, cfg.OrderReadTimeout)

	return &Deps{
		Catalog:        catalogSvc,
		MenuHandler:    &MenuHandler{Catalog: catalogSvc},
		ProductHandler: &ProductHandler{Catalog: catalogSvc},
		CartHandler:    &CartHandler{Carts: sessions, Catalog: catalogSvc},
		OrderHandler:   &OrderHandler{Carts: sessions, Orders: orderSvc, Query: querySvc},
		StreamHandler:  &StreamHandler{Query: querySvc, Base: ctx},
	}
}
