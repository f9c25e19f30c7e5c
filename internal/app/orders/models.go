package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

type CreateOrderRequest struct {
	CustomerID string `json:"customerId"`
}

type CreateOrderItemRequest struct {
	ProductID       string `json:"productId"`
	ProductQuantity int    `json:"productQuantity"`
}

type UpdateOrderItemRequest struct {
	ProductID       string `json:"productId"`
	ProductQuantity int    `json:"productQuantity"`
}

type RemoveOrderItemRequest struct {
	ProductID string `json:"productId"`
}

type OrderItemResponse struct {
	OrderID         string `json:"orderId"`
	ProductID       string `json:"productId"`
	ProductQuantity int    `json:"productQuantity"`
}

type OrderResponse struct {
	OrderID       string              `json:"orderId"`
	CustomerID    string              `json:"customerId"`
	OrderItems    []OrderItemResponse `json:"orderItems"`
	CreationDate  time.Time           `json:"creationDate"`
	OrderTotal    decimal.Decimal     `json:"orderTotal"`
	OrderStatus   string              `json:"orderStatus"`
	PaymentStatus string              `json:"paymentStatus"`
}

type CheckoutResponse struct {
	OrderResponse
	QRData string `json:"qrData"`
}

// OrderStatusEvent is the outbox payload published to Kafka whenever an
// order changes state.
type OrderStatusEvent struct {
	OrderID       string    `json:"orderId"`
	OrderStatus   string    `json:"orderStatus"`
	PaymentStatus string    `json:"paymentStatus"`
	OccurredAt    time.Time `json:"occurredAt"`
}
