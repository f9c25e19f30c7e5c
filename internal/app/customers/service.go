package customers

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"kiosk/internal/domain"
	"kiosk/internal/repository/customer_repo"
)

var ErrCustomerNotFound = errors.New("customer not found")

type CustomerService interface {
	GetCustomer(ctx context.Context, customerID string) (*CustomerResponse, error)
	GetCustomerByCPF(ctx context.Context, cpf string) (*CustomerResponse, error)
	GetAllCustomers(ctx context.Context) ([]*CustomerResponse, error)
	CreateCustomer(ctx context.Context, req *CreateCustomerRequest) (*CustomerResponse, error)
	UpdateCustomer(ctx context.Context, customerID string, req *UpdateCustomerRequest) (*CustomerResponse, error)
	RemoveCustomer(ctx context.Context, customerID string) error
}

type customerService struct {
	customerRepo customer_repo.CustomerRepository
	logger       *zap.Logger
}

func NewCustomerService(customerRepo customer_repo.CustomerRepository, logger *zap.Logger) CustomerService {
	return &customerService{customerRepo: customerRepo, logger: logger}
}

func (s *customerService) GetCustomer(ctx context.Context, customerID string) (*CustomerResponse, error) {
	customer, err := s.customerRepo.GetCustomerByID(ctx, customerID)
	if err != nil {
		return nil, s.mapLookupError(err, "customer_id", customerID)
	}
	return mapCustomerToResponse(customer), nil
}

func (s *customerService) GetCustomerByCPF(ctx context.Context, cpf string) (*CustomerResponse, error) {
	customer, err := s.customerRepo.GetCustomerByCPF(ctx, cpf)
	if err != nil {
		return nil, s.mapLookupError(err, "cpf", cpf)
	}
	return mapCustomerToResponse(customer), nil
}

func (s *customerService) GetAllCustomers(ctx context.Context) ([]*CustomerResponse, error) {
	customers, err := s.customerRepo.GetAllCustomers(ctx)
	if err != nil {
		s.logger.Error("Failed to get all customers from repository", zap.Error(err))
		return nil, errors.New("internal server error")
	}
	responses := make([]*CustomerResponse, len(customers))
	for i, customer := range customers {
		responses[i] = mapCustomerToResponse(customer)
	}
	return responses, nil
}

func (s *customerService) CreateCustomer(ctx context.Context, req *CreateCustomerRequest) (*CustomerResponse, error) {
	customer := domain.NewCustomer(req.CPF, req.FirstName, req.LastName, req.Email, req.Phone)

	if err := s.customerRepo.CreateCustomer(ctx, customer); err != nil {
		s.logger.Error("Failed to persist new customer", zap.String("customer_id", customer.ID), zap.Error(err))
		return nil, errors.New("failed to create customer")
	}

	s.logger.Info("Customer created", zap.String("customer_id", customer.ID))
	return mapCustomerToResponse(customer), nil
}

func (s *customerService) UpdateCustomer(ctx context.Context, customerID string, req *UpdateCustomerRequest) (*CustomerResponse, error) {
	customer, err := s.customerRepo.GetCustomerByID(ctx, customerID)
	if err != nil {
		return nil, s.mapLookupError(err, "customer_id", customerID)
	}

	if req.FirstName != nil {
		customer.ChangeFirstName(*req.FirstName)
	}
	if req.LastName != nil {
		customer.ChangeLastName(*req.LastName)
	}
	if req.Email != nil {
		customer.ChangeEmail(*req.Email)
	}
	if req.Phone != nil {
		customer.ChangePhone(*req.Phone)
	}

	if err := s.customerRepo.UpdateCustomer(ctx, customer); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCustomerNotFound
		}
		s.logger.Error("Failed to persist customer update", zap.String("customer_id", customerID), zap.Error(err))
		return nil, errors.New("failed to update customer")
	}

	s.logger.Info("Customer updated", zap.String("customer_id", customerID))
	return mapCustomerToResponse(customer), nil
}

func (s *customerService) RemoveCustomer(ctx context.Context, customerID string) error {
	if err := s.customerRepo.RemoveCustomer(ctx, customerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrCustomerNotFound
		}
		s.logger.Error("Failed to remove customer", zap.String("customer_id", customerID), zap.Error(err))
		return errors.New("failed to remove customer")
	}
	s.logger.Info("Customer removed", zap.String("customer_id", customerID))
	return nil
}

func (s *customerService) mapLookupError(err error, key, value string) error {
	if errors.Is(err, sql.ErrNoRows) {
		s.logger.Debug("Customer not found", zap.String(key, value))
		return ErrCustomerNotFound
	}
	s.logger.Error("Failed to get customer from repository", zap.String(key, value), zap.Error(err))
	return errors.New("internal server error")
}

func mapCustomerToResponse(customer *domain.Customer) *CustomerResponse {
	return &CustomerResponse{
		CustomerID: customer.ID,
		CPF:        customer.CPF,
		FirstName:  customer.FirstName,
		LastName:   customer.LastName,
		Email:      customer.Email,
		Phone:      customer.Phone,
	}
}
