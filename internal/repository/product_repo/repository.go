package product_repo

import (
	"context"

	"kiosk/internal/domain"
)

// ProductRepository is the catalog accessor. Prices are read fresh on every
// price-sensitive order mutation; nothing is cached here.
type ProductRepository interface {
	GetProductByID(ctx context.Context, id string) (*domain.Product, error)
	GetProductsByCategory(ctx context.Context, category domain.Category) ([]*domain.Product, error)
	GetAllProducts(ctx context.Context) ([]*domain.Product, error)
	CreateProduct(ctx context.Context, product *domain.Product) error
	UpdateProduct(ctx context.Context, product *domain.Product) error
	RemoveProduct(ctx context.Context, id string) error
}
