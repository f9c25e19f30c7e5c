package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"kiosk/internal/domain"
	"kiosk/internal/repository/order_repo"
	"kiosk/internal/repository/outbox_repo"
)

type pgOrderRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewOrderRepository(db *sql.DB, l *zap.Logger) order_repo.OrderRepository {
	return &pgOrderRepository{db: db, logger: l}
}

const orderColumns = `id, customer_id, creation_date, order_total, status, payment_status`

func (r *pgOrderRepository) GetOrderByID(ctx context.Context, id string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)
	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		r.logger.Error("Failed to get order by ID", zap.String("order_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get order by ID %s: %w", id, err)
	}

	items, err := r.loadItems(ctx, id)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return order, nil
}

func (r *pgOrderRepository) GetOrderItem(ctx context.Context, orderID, productID string) (*domain.OrderItem, error) {
	item := &domain.OrderItem{}
	query := `SELECT order_id, product_id, quantity FROM order_items WHERE order_id = $1 AND product_id = $2`
	err := r.db.QueryRowContext(ctx, query, orderID, productID).Scan(&item.OrderID, &item.ProductID, &item.Quantity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		r.logger.Error("Failed to get order item",
			zap.String("order_id", orderID),
			zap.String("product_id", productID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get order item: %w", err)
	}
	return item, nil
}

func (r *pgOrderRepository) GetAllOrders(ctx context.Context) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders ORDER BY creation_date ASC`
	return r.queryOrders(ctx, query)
}

func (r *pgOrderRepository) GetOngoingOrders(ctx context.Context) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE status <> $1 ORDER BY creation_date ASC`
	return r.queryOrders(ctx, query, domain.OrderStatusFinalized)
}

func (r *pgOrderRepository) queryOrders(ctx context.Context, query string, args ...any) ([]*domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to query orders", zap.Error(err))
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			r.logger.Error("Failed to scan order row", zap.Error(err))
			return nil, fmt.Errorf("failed to scan order row: %w", err)
		}
		orders = append(orders, order)
	}
	if err = rows.Err(); err != nil {
		r.logger.Error("Rows error while querying orders", zap.Error(err))
		return nil, fmt.Errorf("rows error: %w", err)
	}

	for _, order := range orders {
		items, err := r.loadItems(ctx, order.ID)
		if err != nil {
			return nil, err
		}
		order.Items = items
	}
	return orders, nil
}

func (r *pgOrderRepository) loadItems(ctx context.Context, orderID string) ([]*domain.OrderItem, error) {
	query := `SELECT order_id, product_id, quantity FROM order_items WHERE order_id = $1`
	rows, err := r.db.QueryContext(ctx, query, orderID)
	if err != nil {
		r.logger.Error("Failed to query order items", zap.String("order_id", orderID), zap.Error(err))
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	items := []*domain.OrderItem{}
	for rows.Next() {
		item := &domain.OrderItem{}
		if err := rows.Scan(&item.OrderID, &item.ProductID, &item.Quantity); err != nil {
			r.logger.Error("Failed to scan order item row", zap.String("order_id", orderID), zap.Error(err))
			return nil, fmt.Errorf("failed to scan order item row: %w", err)
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		r.logger.Error("Rows error while querying order items", zap.String("order_id", orderID), zap.Error(err))
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return items, nil
}

func (r *pgOrderRepository) CreateOrder(ctx context.Context, order *domain.Order) error {
	query := `INSERT INTO orders (` + orderColumns + `) VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.ExecContext(ctx, query,
		order.ID, order.CustomerID, order.CreationDate, order.OrderTotal, order.Status, order.PaymentStatus)
	if err != nil {
		r.logger.Error("Failed to create order", zap.String("order_id", order.ID), zap.Error(err))
		return fmt.Errorf("failed to create order: %w", err)
	}
	r.logger.Debug("Order created", zap.String("order_id", order.ID))
	return nil
}

func (r *pgOrderRepository) CreateItemAndUpdateOrder(ctx context.Context, item *domain.OrderItem, order *domain.Order) error {
	return r.inTx(ctx, order.ID, func(tx *sql.Tx) error {
		itemQuery := `INSERT INTO order_items (order_id, product_id, quantity) VALUES ($1, $2, $3)`
		if _, err := tx.ExecContext(ctx, itemQuery, item.OrderID, item.ProductID, item.Quantity); err != nil {
			return fmt.Errorf("tx failed to create order item: %w", err)
		}
		return updateOrderTx(ctx, tx, order)
	})
}

func (r *pgOrderRepository) UpdateItemAndOrder(ctx context.Context, item *domain.OrderItem, order *domain.Order) error {
	return r.inTx(ctx, order.ID, func(tx *sql.Tx) error {
		itemQuery := `UPDATE order_items SET quantity = $3 WHERE order_id = $1 AND product_id = $2`
		res, err := tx.ExecContext(ctx, itemQuery, item.OrderID, item.ProductID, item.Quantity)
		if err != nil {
			return fmt.Errorf("tx failed to update order item: %w", err)
		}
		if affected, err := res.RowsAffected(); err == nil && affected == 0 {
			return sql.ErrNoRows
		}
		return updateOrderTx(ctx, tx, order)
	})
}

func (r *pgOrderRepository) RemoveItemAndUpdateOrder(ctx context.Context, productID string, order *domain.Order) error {
	return r.inTx(ctx, order.ID, func(tx *sql.Tx) error {
		itemQuery := `DELETE FROM order_items WHERE order_id = $1 AND product_id = $2`
		if _, err := tx.ExecContext(ctx, itemQuery, order.ID, productID); err != nil {
			return fmt.Errorf("tx failed to remove order item: %w", err)
		}
		return updateOrderTx(ctx, tx, order)
	})
}

func (r *pgOrderRepository) UpdateOrderAndCreateOutboxMessage(ctx context.Context, order *domain.Order, msg *outbox_repo.OutboxMessage) error {
	return r.inTx(ctx, order.ID, func(tx *sql.Tx) error {
		if err := updateOrderTx(ctx, tx, order); err != nil {
			return err
		}
		outboxQuery := `INSERT INTO outbox_messages (id, topic, payload, status, created_at) VALUES ($1, $2, $3, $4, $5)`
		if _, err := tx.ExecContext(ctx, outboxQuery, msg.ID, msg.Topic, msg.Payload, msg.Status, msg.CreatedAt); err != nil {
			return fmt.Errorf("tx failed to create outbox message: %w", err)
		}
		return nil
	})
}

func (r *pgOrderRepository) RemoveOrder(ctx context.Context, orderID string) error {
	return r.inTx(ctx, orderID, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM order_items WHERE order_id = $1`, orderID); err != nil {
			return fmt.Errorf("tx failed to remove order items: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, orderID)
		if err != nil {
			return fmt.Errorf("tx failed to remove order: %w", err)
		}
		if affected, err := res.RowsAffected(); err == nil && affected == 0 {
			return sql.ErrNoRows
		}
		return nil
	})
}

// inTx runs fn inside a transaction with rollback on error or panic.
func (r *pgOrderRepository) inTx(ctx context.Context, orderID string, fn func(tx *sql.Tx) error) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		r.logger.Error("Failed to begin transaction", zap.String("order_id", orderID), zap.Error(err))
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("Panic during order transaction, rolling back", zap.String("order_id", orderID))
			_ = tx.Rollback()
			panic(p)
		} else if err != nil {
			r.logger.Warn("Rolling back order transaction", zap.String("order_id", orderID), zap.Error(err))
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
			if err != nil {
				r.logger.Error("Failed to commit order transaction", zap.String("order_id", orderID), zap.Error(err))
			}
		}
	}()

	err = fn(tx)
	return err
}

func updateOrderTx(ctx context.Context, tx *sql.Tx, order *domain.Order) error {
	query := `UPDATE orders SET customer_id = $2, order_total = $3, status = $4, payment_status = $5 WHERE id = $1`
	res, err := tx.ExecContext(ctx, query,
		order.ID, order.CustomerID, order.OrderTotal, order.Status, order.PaymentStatus)
	if err != nil {
		return fmt.Errorf("tx failed to update order %s: %w", order.ID, err)
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	order := &domain.Order{OrderTotal: decimal.Zero}
	err := row.Scan(&order.ID, &order.CustomerID, &order.CreationDate, &order.OrderTotal, &order.Status, &order.PaymentStatus)
	if err != nil {
		return nil, err
	}
	return order, nil
}
