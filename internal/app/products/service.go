package products

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"kiosk/internal/domain"
	"kiosk/internal/repository/product_repo"
)

var ErrProductNotFound = errors.New("product not found")

type ProductService interface {
	GetProduct(ctx context.Context, productID string) (*ProductResponse, error)
	GetAllProducts(ctx context.Context) ([]*ProductResponse, error)
	GetProductsByCategory(ctx context.Context, category string) ([]*ProductResponse, error)
	CreateProduct(ctx context.Context, req *CreateProductRequest) (*ProductResponse, error)
	UpdateProduct(ctx context.Context, productID string, req *UpdateProductRequest) (*ProductResponse, error)
	RemoveProduct(ctx context.Context, productID string) error
}

type productService struct {
	productRepo product_repo.ProductRepository
	logger      *zap.Logger
}

func NewProductService(productRepo product_repo.ProductRepository, logger *zap.Logger) ProductService {
	return &productService{productRepo: productRepo, logger: logger}
}

func (s *productService) GetProduct(ctx context.Context, productID string) (*ProductResponse, error) {
	product, err := s.loadProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	return mapProductToResponse(product), nil
}

func (s *productService) GetAllProducts(ctx context.Context) ([]*ProductResponse, error) {
	products, err := s.productRepo.GetAllProducts(ctx)
	if err != nil {
		s.logger.Error("Failed to get all products from repository", zap.Error(err))
		return nil, errors.New("internal server error")
	}
	return mapProductsToResponse(products), nil
}

func (s *productService) GetProductsByCategory(ctx context.Context, category string) ([]*ProductResponse, error) {
	if !domain.ValidCategory(domain.Category(category)) {
		return nil, domain.ErrInvalidProduct
	}
	products, err := s.productRepo.GetProductsByCategory(ctx, domain.Category(category))
	if err != nil {
		s.logger.Error("Failed to get products by category", zap.String("category", category), zap.Error(err))
		return nil, errors.New("internal server error")
	}
	return mapProductsToResponse(products), nil
}

func (s *productService) CreateProduct(ctx context.Context, req *CreateProductRequest) (*ProductResponse, error) {
	product, err := domain.NewProduct(req.Name, req.Description, domain.Category(req.Category), req.Price, req.ImageURL)
	if err != nil {
		return nil, err
	}

	if err := s.productRepo.CreateProduct(ctx, product); err != nil {
		s.logger.Error("Failed to persist new product", zap.String("product_id", product.ID), zap.Error(err))
		return nil, errors.New("failed to create product")
	}

	s.logger.Info("Product created",
		zap.String("product_id", product.ID),
		zap.String("name", product.Name))
	return mapProductToResponse(product), nil
}

func (s *productService) UpdateProduct(ctx context.Context, productID string, req *UpdateProductRequest) (*ProductResponse, error) {
	product, err := s.loadProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		product.ChangeName(*req.Name)
	}
	if req.Description != nil {
		product.ChangeDescription(*req.Description)
	}
	if req.Category != nil {
		if err := product.ChangeCategory(domain.Category(*req.Category)); err != nil {
			return nil, err
		}
	}
	if req.Price != nil {
		product.ChangePrice(*req.Price)
	}
	if req.ImageURL != nil {
		product.ChangeImageURL(*req.ImageURL)
	}

	if err := s.productRepo.UpdateProduct(ctx, product); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		s.logger.Error("Failed to persist product update", zap.String("product_id", productID), zap.Error(err))
		return nil, errors.New("failed to update product")
	}

	s.logger.Info("Product updated", zap.String("product_id", productID))
	return mapProductToResponse(product), nil
}

func (s *productService) RemoveProduct(ctx context.Context, productID string) error {
	if err := s.productRepo.RemoveProduct(ctx, productID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrProductNotFound
		}
		s.logger.Error("Failed to remove product", zap.String("product_id", productID), zap.Error(err))
		return errors.New("failed to remove product")
	}
	s.logger.Info("Product removed", zap.String("product_id", productID))
	return nil
}

func (s *productService) loadProduct(ctx context.Context, productID string) (*domain.Product, error) {
	product, err := s.productRepo.GetProductByID(ctx, productID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		s.logger.Error("Failed to get product from repository", zap.String("product_id", productID), zap.Error(err))
		return nil, errors.New("internal server error")
	}
	return product, nil
}

func mapProductToResponse(product *domain.Product) *ProductResponse {
	return &ProductResponse{
		ProductID:   product.ID,
		Name:        product.Name,
		Description: product.Description,
		Category:    string(product.Category),
		Price:       product.Price,
		ImageURL:    product.ImageURL,
	}
}

func mapProductsToResponse(products []*domain.Product) []*ProductResponse {
	responses := make([]*ProductResponse, len(products))
	for i, product := range products {
		responses[i] = mapProductToResponse(product)
	}
	return responses
}
