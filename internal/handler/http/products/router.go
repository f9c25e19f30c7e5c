package products

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"kiosk/internal/app/products"
)

func RegisterRoutes(r chi.Router, s products.ProductService, l *zap.Logger) {
	handler := NewProductHandler(s, l.With(zap.String("component", "ProductHTTPHandler")))

	r.Route("/products", func(r chi.Router) {
		r.Post("/", handler.CreateProduct)
		r.Get("/", handler.GetAllProducts)
		r.Get("/category/{category}", handler.GetProductsByCategory)
		r.Get("/{productID}", handler.GetProduct)
		r.Put("/{productID}", handler.UpdateProduct)
		r.Delete("/{productID}", handler.RemoveProduct)
	})
}
