package shop

import (
	"context"

	"github.com/Proton-105/shop-bot/internal/catalog"
)

// Catalog is the part of the catalog/cart service the dialog depends on.
// Every failure is expected to carry a *catalog.GatewayError.
type Catalog interface {
	ListProducts(ctx context.Context) ([]catalog.Product, error)
	GetProduct(ctx context.Context, id string) (catalog.Product, error)
	GetImageURL(ctx context.Context, imageID string) (string, error)
	AddToCart(ctx context.Context, userID int64, productID string, quantity int) error
	GetCartItems(ctx context.Context, userID int64) ([]catalog.LineItem, error)
	GetCart(ctx context.Context, userID int64) (catalog.Cart, error)
	RemoveFromCart(ctx context.Context, userID int64, lineItemID string) error
}

var _ Catalog = (*catalog.Client)(nil)
