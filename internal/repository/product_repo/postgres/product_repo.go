package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"kiosk/internal/domain"
	"kiosk/internal/repository/product_repo"
)

type pgProductRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewProductRepository(db *sql.DB, l *zap.Logger) product_repo.ProductRepository {
	return &pgProductRepository{db: db, logger: l}
}

const productColumns = `id, name, description, category, price, image_url`

func (r *pgProductRepository) GetProductByID(ctx context.Context, id string) (*domain.Product, error) {
	product := &domain.Product{}
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&product.ID, &product.Name, &product.Description, &product.Category, &product.Price, &product.ImageURL)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		r.logger.Error("Failed to get product by ID", zap.String("product_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get product by ID %s: %w", id, err)
	}
	return product, nil
}

func (r *pgProductRepository) GetProductsByCategory(ctx context.Context, category domain.Category) ([]*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE category = $1 ORDER BY name ASC`
	return r.queryProducts(ctx, query, category)
}

func (r *pgProductRepository) GetAllProducts(ctx context.Context) ([]*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products ORDER BY name ASC`
	return r.queryProducts(ctx, query)
}

func (r *pgProductRepository) queryProducts(ctx context.Context, query string, args ...any) ([]*domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to query products", zap.Error(err))
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []*domain.Product
	for rows.Next() {
		product := &domain.Product{}
		if err := rows.Scan(&product.ID, &product.Name, &product.Description, &product.Category, &product.Price, &product.ImageURL); err != nil {
			r.logger.Error("Failed to scan product row", zap.Error(err))
			return nil, fmt.Errorf("failed to scan product row: %w", err)
		}
		products = append(products, product)
	}
	if err = rows.Err(); err != nil {
		r.logger.Error("Rows error while querying products", zap.Error(err))
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return products, nil
}

func (r *pgProductRepository) CreateProduct(ctx context.Context, product *domain.Product) error {
	query := `INSERT INTO products (` + productColumns + `) VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.ExecContext(ctx, query,
		product.ID, product.Name, product.Description, product.Category, product.Price, product.ImageURL)
	if err != nil {
		r.logger.Error("Failed to create product", zap.String("product_id", product.ID), zap.Error(err))
		return fmt.Errorf("failed to create product: %w", err)
	}
	r.logger.Debug("Product created", zap.String("product_id", product.ID))
	return nil
}

func (r *pgProductRepository) UpdateProduct(ctx context.Context, product *domain.Product) error {
	query := `UPDATE products SET name = $2, description = $3, category = $4, price = $5, image_url = $6 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query,
		product.ID, product.Name, product.Description, product.Category, product.Price, product.ImageURL)
	if err != nil {
		r.logger.Error("Failed to update product", zap.String("product_id", product.ID), zap.Error(err))
		return fmt.Errorf("failed to update product %s: %w", product.ID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		r.logger.Error("Failed to get rows affected for product update", zap.String("product_id", product.ID), zap.Error(err))
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *pgProductRepository) RemoveProduct(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to remove product", zap.String("product_id", id), zap.Error(err))
		return fmt.Errorf("failed to remove product %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
