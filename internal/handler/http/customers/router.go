package customers

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"kiosk/internal/app/customers"
)

func RegisterRoutes(r chi.Router, s customers.CustomerService, l *zap.Logger) {
	handler := NewCustomerHandler(s, l.With(zap.String("component", "CustomerHTTPHandler")))

	r.Route("/customers", func(r chi.Router) {
		r.Post("/", handler.CreateCustomer)
		r.Get("/", handler.GetAllCustomers)
		r.Get("/cpf/{cpf}", handler.GetCustomerByCPF)
		r.Get("/{customerID}", handler.GetCustomer)
		r.Put("/{customerID}", handler.UpdateCustomer)
		r.Delete("/{customerID}", handler.RemoveCustomer)
	})
}
