package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"kiosk/internal/domain"
	"kiosk/internal/repository/customer_repo"
)

type pgCustomerRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewCustomerRepository(db *sql.DB, l *zap.Logger) customer_repo.CustomerRepository {
	return &pgCustomerRepository{db: db, logger: l}
}

const customerColumns = `id, cpf, first_name, last_name, email, phone`

func (r *pgCustomerRepository) GetCustomerByID(ctx context.Context, id string) (*domain.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`
	return r.queryCustomer(ctx, query, id)
}

func (r *pgCustomerRepository) GetCustomerByCPF(ctx context.Context, cpf string) (*domain.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE cpf = $1`
	return r.queryCustomer(ctx, query, cpf)
}

func (r *pgCustomerRepository) queryCustomer(ctx context.Context, query string, arg any) (*domain.Customer, error) {
	customer := &domain.Customer{}
	err := r.db.QueryRowContext(ctx, query, arg).
		Scan(&customer.ID, &customer.CPF, &customer.FirstName, &customer.LastName, &customer.Email, &customer.Phone)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		r.logger.Error("Failed to get customer", zap.Error(err))
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	return customer, nil
}

func (r *pgCustomerRepository) GetAllCustomers(ctx context.Context) ([]*domain.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers ORDER BY first_name ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to query customers", zap.Error(err))
		return nil, fmt.Errorf("failed to query customers: %w", err)
	}
	defer rows.Close()

	var customers []*domain.Customer
	for rows.Next() {
		customer := &domain.Customer{}
		if err := rows.Scan(&customer.ID, &customer.CPF, &customer.FirstName, &customer.LastName, &customer.Email, &customer.Phone); err != nil {
			r.logger.Error("Failed to scan customer row", zap.Error(err))
			return nil, fmt.Errorf("failed to scan customer row: %w", err)
		}
		customers = append(customers, customer)
	}
	if err = rows.Err(); err != nil {
		r.logger.Error("Rows error while querying customers", zap.Error(err))
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return customers, nil
}

func (r *pgCustomerRepository) CreateCustomer(ctx context.Context, customer *domain.Customer) error {
	query := `INSERT INTO customers (` + customerColumns + `) VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.ExecContext(ctx, query,
		customer.ID, customer.CPF, customer.FirstName, customer.LastName, customer.Email, customer.Phone)
	if err != nil {
		r.logger.Error("Failed to create customer", zap.String("customer_id", customer.ID), zap.Error(err))
		return fmt.Errorf("failed to create customer: %w", err)
	}
	r.logger.Debug("Customer created", zap.String("customer_id", customer.ID))
	return nil
}

func (r *pgCustomerRepository) UpdateCustomer(ctx context.Context, customer *domain.Customer) error {
	query := `UPDATE customers SET cpf = $2, first_name = $3, last_name = $4, email = $5, phone = $6 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query,
		customer.ID, customer.CPF, customer.FirstName, customer.LastName, customer.Email, customer.Phone)
	if err != nil {
		r.logger.Error("Failed to update customer", zap.String("customer_id", customer.ID), zap.Error(err))
		return fmt.Errorf("failed to update customer %s: %w", customer.ID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *pgCustomerRepository) RemoveCustomer(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to remove customer", zap.String("customer_id", id), zap.Error(err))
		return fmt.Errorf("failed to remove customer %s: %w", id, err)
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
