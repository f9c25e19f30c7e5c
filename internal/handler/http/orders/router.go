package orders

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"kiosk/internal/app/orders"
)

func RegisterRoutes(r chi.Router, s orders.OrderService, l *zap.Logger) {
	handler := NewOrderHandler(s, l.With(zap.String("component", "OrderHTTPHandler")))

	r.Route("/orders", func(r chi.Router) {
		r.Post("/", handler.CreateOrder)
		r.Get("/", handler.GetAllOrders)
		r.Get("/ongoing", handler.GetOngoingOrders)
		r.Get("/{orderID}", handler.GetOrder)
		r.Delete("/{orderID}", handler.RemoveOrder)
		r.Post("/{orderID}/items", handler.AddOrderItem)
		r.Put("/{orderID}/items", handler.ChangeItemQuantity)
		r.Delete("/{orderID}/items", handler.RemoveOrderItem)
		r.Put("/{orderID}/checkout", handler.Checkout)
		r.Put("/{orderID}/in-progress", handler.BeginPreparation)
		r.Put("/{orderID}/ready", handler.MarkReady)
		r.Put("/{orderID}/finalized", handler.Finalize)
	})
}
