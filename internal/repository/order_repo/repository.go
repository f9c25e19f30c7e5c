package order_repo

import (
	"context"

	"kiosk/internal/domain"
	"kiosk/internal/repository/outbox_repo"
)

// OrderRepository persists orders and their line items. Absence is
// reported as sql.ErrNoRows, never as a typed domain failure; the service
// layer owns that translation. Item and order writes that belong to one
// logical mutation run inside a single transaction.
type OrderRepository interface {
	GetOrderByID(ctx context.Context, id string) (*domain.Order, error)
	GetOrderItem(ctx context.Context, orderID, productID string) (*domain.OrderItem, error)
	GetAllOrders(ctx context.Context) ([]*domain.Order, error)
	GetOngoingOrders(ctx context.Context) ([]*domain.Order, error)
	CreateOrder(ctx context.Context, order *domain.Order) error
	CreateItemAndUpdateOrder(ctx context.Context, item *domain.OrderItem, order *domain.Order) error
	UpdateItemAndOrder(ctx context.Context, item *domain.OrderItem, order *domain.Order) error
	RemoveItemAndUpdateOrder(ctx context.Context, productID string, order *domain.Order) error
	UpdateOrderAndCreateOutboxMessage(ctx context.Context, order *domain.Order, msg *outbox_repo.OutboxMessage) error
	RemoveOrder(ctx context.Context, orderID string) error
}
