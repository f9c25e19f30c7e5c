package orders

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"kiosk/internal/domain"
	"kiosk/internal/infrastructure/kafka"
	"kiosk/internal/payment"
	"kiosk/internal/repository/order_repo"
	"kiosk/internal/repository/outbox_repo"
	"kiosk/internal/repository/product_repo"
	"kiosk/internal/util"
)

var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidOrder    = errors.New("invalid order data")
)

// providerStatusApproved is the provider's vocabulary for a successful
// payment; every other outcome is treated as a refusal.
const providerStatusApproved = "approved"

type OrderService interface {
	GetOrder(ctx context.Context, orderID string) (*OrderResponse, error)
	GetAllOrders(ctx context.Context) ([]*OrderResponse, error)
	GetOngoingOrders(ctx context.Context) ([]*OrderResponse, error)
	CreateOrder(ctx context.Context, req *CreateOrderRequest) (*OrderResponse, error)
	AddOrderItem(ctx context.Context, orderID string, req *CreateOrderItemRequest) (*OrderResponse, error)
	ChangeItemQuantity(ctx context.Context, orderID string, req *UpdateOrderItemRequest) (*OrderResponse, error)
	RemoveOrderItem(ctx context.Context, orderID, productID string) (*OrderResponse, error)
	Checkout(ctx context.Context, orderID string) (*CheckoutResponse, error)
	ConfirmPayment(ctx context.Context, orderID, providerStatus string) (*OrderResponse, error)
	BeginPreparation(ctx context.Context, orderID string) (*OrderResponse, error)
	MarkReady(ctx context.Context, orderID string) (*OrderResponse, error)
	Finalize(ctx context.Context, orderID string) (*OrderResponse, error)
	RemoveOrder(ctx context.Context, orderID string) error
	ProcessOutbox(ctx context.Context) error
}

type orderService struct {
	orderRepo     order_repo.OrderRepository
	productRepo   product_repo.ProductRepository
	outboxRepo    outbox_repo.OutboxRepository
	provider      payment.Provider
	kafkaProducer kafka.Producer
	statusTopic   string
	locks         *orderLocks
	logger        *zap.Logger
}

func NewOrderService(
	orderRepo order_repo.OrderRepository,
	productRepo product_repo.ProductRepository,
	outboxRepo outbox_repo.OutboxRepository,
	provider payment.Provider,
	kafkaProducer kafka.Producer,
	statusTopic string,
	logger *zap.Logger,
) OrderService {
	return &orderService{
		orderRepo:     orderRepo,
		productRepo:   productRepo,
		outboxRepo:    outboxRepo,
		provider:      provider,
		kafkaProducer: kafkaProducer,
		statusTopic:   statusTopic,
		locks:         newOrderLocks(),
		logger:        logger,
	}
}

func (s *orderService) GetOrder(ctx context.Context, orderID string) (*OrderResponse, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return mapOrderToResponse(order), nil
}

func (s *orderService) GetAllOrders(ctx context.Context) ([]*OrderResponse, error) {
	orders, err := s.orderRepo.GetAllOrders(ctx)
	if err != nil {
		s.logger.Error("Failed to get all orders from repository", zap.Error(err))
		return nil, errors.New("internal server error")
	}
	return mapOrdersToResponse(orders), nil
}

func (s *orderService) GetOngoingOrders(ctx context.Context) ([]*OrderResponse, error) {
	orders, err := s.orderRepo.GetOngoingOrders(ctx)
	if err != nil {
		s.logger.Error("Failed to get ongoing orders from repository", zap.Error(err))
		return nil, errors.New("internal server error")
	}
	return mapOrdersToResponse(orders), nil
}

func (s *orderService) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*OrderResponse, error) {
	if req.CustomerID == "" {
		return nil, ErrInvalidOrder
	}

	order := domain.NewOrder(req.CustomerID)
	if err := s.orderRepo.CreateOrder(ctx, order); err != nil {
		s.logger.Error("Failed to persist new order", zap.String("order_id", order.ID), zap.Error(err))
		return nil, errors.New("failed to create order")
	}

	s.logger.Info("Order created",
		zap.String("order_id", order.ID),
		zap.String("customer_id", order.CustomerID))
	return mapOrderToResponse(order), nil
}

// AddOrderItem decides merge-vs-insert: a second add for a product already
// on the order merges the quantities instead of creating a duplicate line.
func (s *orderService) AddOrderItem(ctx context.Context, orderID string, req *CreateOrderItemRequest) (*OrderResponse, error) {
	unlock := s.locks.lock(orderID)
	defer unlock()

	existing, err := s.orderRepo.GetOrderItem(ctx, orderID, req.ProductID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		s.logger.Error("Failed to look up order item",
			zap.String("order_id", orderID),
			zap.String("product_id", req.ProductID),
			zap.Error(err))
		return nil, errors.New("internal server error")
	}

	if existing != nil {
		return s.changeItemQuantityLocked(ctx, orderID, req.ProductID, existing.Quantity+req.ProductQuantity)
	}

	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	product, err := s.loadProduct(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}

	item, err := domain.NewOrderItem(orderID, req.ProductID, req.ProductQuantity)
	if err != nil {
		return nil, err
	}
	if err := order.AddItem(item, product.Price); err != nil {
		return nil, err
	}

	if err := s.orderRepo.CreateItemAndUpdateOrder(ctx, item, order); err != nil {
		s.logger.Error("Failed to persist order item",
			zap.String("order_id", orderID),
			zap.String("product_id", req.ProductID),
			zap.Error(err))
		return nil, errors.New("failed to save order item")
	}

	s.logger.Info("Order item added",
		zap.String("order_id", orderID),
		zap.String("product_id", req.ProductID),
		zap.Int("quantity", item.Quantity))
	return mapOrderToResponse(order), nil
}

func (s *orderService) ChangeItemQuantity(ctx context.Context, orderID string, req *UpdateOrderItemRequest) (*OrderResponse, error) {
	unlock := s.locks.lock(orderID)
	defer unlock()
	return s.changeItemQuantityLocked(ctx, orderID, req.ProductID, req.ProductQuantity)
}

func (s *orderService) changeItemQuantityLocked(ctx context.Context, orderID, productID string, quantity int) (*OrderResponse, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	product, err := s.loadProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	item, err := domain.NewOrderItem(orderID, productID, quantity)
	if err != nil {
		return nil, err
	}
	if err := order.UpdateItemQuantity(item, product.Price); err != nil {
		return nil, err
	}

	if err := s.orderRepo.UpdateItemAndOrder(ctx, item, order); err != nil {
		s.logger.Error("Failed to persist order item update",
			zap.String("order_id", orderID),
			zap.String("product_id", productID),
			zap.Error(err))
		return nil, errors.New("failed to save order item")
	}

	s.logger.Info("Order item quantity changed",
		zap.String("order_id", orderID),
		zap.String("product_id", productID),
		zap.Int("quantity", quantity))
	return mapOrderToResponse(order), nil
}

func (s *orderService) RemoveOrderItem(ctx context.Context, orderID, productID string) (*OrderResponse, error) {
	unlock := s.locks.lock(orderID)
	defer unlock()

	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	product, err := s.loadProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	item := order.Item(productID)
	if item == nil {
		return nil, domain.ErrItemNotFound
	}
	if err := order.RemoveItem(item, product.Price); err != nil {
		return nil, err
	}

	if err := s.orderRepo.RemoveItemAndUpdateOrder(ctx, productID, order); err != nil {
		s.logger.Error("Failed to persist order item removal",
			zap.String("order_id", orderID),
			zap.String("product_id", productID),
			zap.Error(err))
		return nil, errors.New("failed to remove order item")
	}

	s.logger.Info("Order item removed",
		zap.String("order_id", orderID),
		zap.String("product_id", productID))
	return mapOrderToResponse(order), nil
}

// Checkout confirms the order and registers the payment with the provider.
// The provider call happens before anything is persisted: if it fails or
// times out, the stored order is still PENDING and checkout can be retried.
// Once the provider accepted the request, the confirmed order and its
// status event are persisted in one transaction.
func (s *orderService) Checkout(ctx context.Context, orderID string) (*CheckoutResponse, error) {
	unlock := s.locks.lock(orderID)
	defer unlock()

	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := order.Confirm(); err != nil {
		return nil, err
	}

	qrReq, err := s.buildQRRequest(ctx, order)
	if err != nil {
		return nil, err
	}

	ref, err := s.provider.CreateQROrder(ctx, qrReq)
	if err != nil {
		s.logger.Error("Payment provider rejected checkout, order stays pending",
			zap.String("order_id", orderID),
			zap.Error(err))
		return nil, errors.New("failed to create payment request")
	}

	if err := s.persistStatusChange(ctx, order); err != nil {
		return nil, err
	}

	s.logger.Info("Order confirmed, payment request created", zap.String("order_id", orderID))
	return &CheckoutResponse{
		OrderResponse: *mapOrderToResponse(order),
		QRData:        ref.QRData,
	}, nil
}

func (s *orderService) buildQRRequest(ctx context.Context, order *domain.Order) (*payment.QRRequest, error) {
	items := make([]payment.QRItem, 0, len(order.Items))
	for _, item := range order.Items {
		product, err := s.loadProduct(ctx, item.ProductID)
		if err != nil {
			return nil, err
		}
		items = append(items, payment.QRItem{
			SKU:         product.ID,
			Category:    string(product.Category),
			Title:       product.Name,
			Description: product.Description,
			UnitPrice:   product.Price,
			Quantity:    item.Quantity,
		})
	}
	return &payment.QRRequest{
		ExternalReference: order.ID,
		Title:             order.ID,
		Description:       fmt.Sprintf("Order %s", order.ID),
		TotalAmount:       order.OrderTotal,
		Items:             items,
	}, nil
}

// ConfirmPayment translates the provider's payment vocabulary into the
// domain's payment track and records the outcome.
func (s *orderService) ConfirmPayment(ctx context.Context, orderID, providerStatus string) (*OrderResponse, error) {
	unlock := s.locks.lock(orderID)
	defer unlock()

	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if providerStatus == providerStatusApproved {
		err = order.ConfirmPayment()
	} else {
		err = order.RefusePayment()
	}
	if err != nil {
		return nil, err
	}

	if err := s.persistStatusChange(ctx, order); err != nil {
		return nil, err
	}

	s.logger.Info("Payment status recorded",
		zap.String("order_id", orderID),
		zap.String("provider_status", providerStatus),
		zap.String("payment_status", string(order.PaymentStatus)))
	return mapOrderToResponse(order), nil
}

func (s *orderService) BeginPreparation(ctx context.Context, orderID string) (*OrderResponse, error) {
	return s.advance(ctx, orderID, (*domain.Order).BeginPreparation)
}

func (s *orderService) MarkReady(ctx context.Context, orderID string) (*OrderResponse, error) {
	return s.advance(ctx, orderID, (*domain.Order).MarkReady)
}

func (s *orderService) Finalize(ctx context.Context, orderID string) (*OrderResponse, error) {
	return s.advance(ctx, orderID, (*domain.Order).Finalize)
}

func (s *orderService) advance(ctx context.Context, orderID string, transition func(*domain.Order) error) (*OrderResponse, error) {
	unlock := s.locks.lock(orderID)
	defer unlock()

	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := transition(order); err != nil {
		return nil, err
	}
	if err := s.persistStatusChange(ctx, order); err != nil {
		return nil, err
	}

	s.logger.Info("Order status advanced",
		zap.String("order_id", orderID),
		zap.String("status", string(order.Status)))
	return mapOrderToResponse(order), nil
}

func (s *orderService) RemoveOrder(ctx context.Context, orderID string) error {
	unlock := s.locks.lock(orderID)
	defer unlock()

	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if err := order.EnsurePending(); err != nil {
		return err
	}

	if err := s.orderRepo.RemoveOrder(ctx, orderID); err != nil {
		s.logger.Error("Failed to remove order", zap.String("order_id", orderID), zap.Error(err))
		return errors.New("failed to remove order")
	}

	s.logger.Info("Order removed", zap.String("order_id", orderID))
	return nil
}

// ProcessOutbox drains pending status events to Kafka. Failed publishes
// keep their PENDING status and are retried on the next tick.
func (s *orderService) ProcessOutbox(ctx context.Context) error {
	messages, err := s.outboxRepo.GetUnsentMessages(ctx)
	if err != nil {
		s.logger.Error("Failed to get unsent outbox messages", zap.Error(err))
		return fmt.Errorf("failed to get unsent outbox messages: %w", err)
	}
	if len(messages) == 0 {
		return nil
	}

	s.logger.Debug("Processing unsent outbox messages", zap.Int("count", len(messages)))
	for _, msg := range messages {
		if err := s.kafkaProducer.Produce(ctx, msg.Topic, msg.Payload); err != nil {
			s.logger.Error("Failed to produce outbox message to Kafka",
				zap.String("message_id", msg.ID),
				zap.String("topic", msg.Topic),
				zap.Error(err))
			continue
		}
		if err := s.outboxRepo.MarkMessageSent(ctx, msg.ID); err != nil {
			s.logger.Error("Failed to mark outbox message as sent",
				zap.String("message_id", msg.ID),
				zap.Error(err))
		}
	}
	return nil
}

func (s *orderService) persistStatusChange(ctx context.Context, order *domain.Order) error {
	payload, err := json.Marshal(&OrderStatusEvent{
		OrderID:       order.ID,
		OrderStatus:   string(order.Status),
		PaymentStatus: string(order.PaymentStatus),
		OccurredAt:    time.Now().UTC(),
	})
	if err != nil {
		s.logger.Error("Failed to marshal order status event", zap.String("order_id", order.ID), zap.Error(err))
		return errors.New("internal server error")
	}

	msg := &outbox_repo.OutboxMessage{
		ID:        util.GenerateUUID(),
		Topic:     s.statusTopic,
		Payload:   payload,
		Status:    outbox_repo.StatusPending,
		CreatedAt: time.Now(),
	}
	if err := s.orderRepo.UpdateOrderAndCreateOutboxMessage(ctx, order, msg); err != nil {
		s.logger.Error("Failed to persist order status change",
			zap.String("order_id", order.ID),
			zap.String("status", string(order.Status)),
			zap.Error(err))
		return errors.New("failed to save order")
	}
	return nil
}

func (s *orderService) loadOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	order, err := s.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Debug("Order not found", zap.String("order_id", orderID))
			return nil, ErrOrderNotFound
		}
		s.logger.Error("Failed to get order from repository", zap.String("order_id", orderID), zap.Error(err))
		return nil, errors.New("internal server error")
	}
	return order, nil
}

func (s *orderService) loadProduct(ctx context.Context, productID string) (*domain.Product, error) {
	product, err := s.productRepo.GetProductByID(ctx, productID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Debug("Product not found", zap.String("product_id", productID))
			return nil, ErrProductNotFound
		}
		s.logger.Error("Failed to get product from repository", zap.String("product_id", productID), zap.Error(err))
		return nil, errors.New("internal server error")
	}
	return product, nil
}

func mapOrderToResponse(order *domain.Order) *OrderResponse {
	items := make([]OrderItemResponse, len(order.Items))
	for i, item := range order.Items {
		items[i] = OrderItemResponse{
			OrderID:         item.OrderID,
			ProductID:       item.ProductID,
			ProductQuantity: item.Quantity,
		}
	}
	return &OrderResponse{
		OrderID:       order.ID,
		CustomerID:    order.CustomerID,
		OrderItems:    items,
		CreationDate:  order.CreationDate,
		OrderTotal:    order.OrderTotal,
		OrderStatus:   string(order.Status),
		PaymentStatus: string(order.PaymentStatus),
	}
}

func mapOrdersToResponse(orders []*domain.Order) []*OrderResponse {
	responses := make([]*OrderResponse, len(orders))
	for i, order := range orders {
		responses[i] = mapOrderToResponse(order)
	}
	return responses
}
