package shop

import (
	"context"

	"github.com/marshallshelly/pebble-shop/internal/models"
	"github.com/marshallshelly/pebble-shop/pkg/session"
)

// PurchasesOf returns the purchases made by c, read from the store on every
// call.
func PurchasesOf(ctx context.Context, s *session.Session, c *models.Customer) ([]models.Purchase, error) {
	return session.Related[models.Purchase](ctx, s, c, "Purchases")
}

// PurchasesFor returns the purchases of item, read from the store on every
// call.
func PurchasesFor(ctx context.Context, s *session.Session, item *models.CatalogItem) ([]models.Purchase, error) {
	return session.Related[models.Purchase](ctx, s, item, "Purchases")
}
