package customer_repo

import (
	"context"

	"kiosk/internal/domain"
)

type CustomerRepository interface {
	GetCustomerByID(ctx context.Context, id string) (*domain.Customer, error)
	GetCustomerByCPF(ctx context.Context, cpf string) (*domain.Customer, error)
	GetAllCustomers(ctx context.Context) ([]*domain.Customer, error)
	CreateCustomer(ctx context.Context, customer *domain.Customer) error
	UpdateCustomer(ctx context.Context, customer *domain.Customer) error
	RemoveCustomer(ctx context.Context, id string) error
}
