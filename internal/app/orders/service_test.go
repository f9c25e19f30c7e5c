package orders

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"kiosk/internal/domain"
	"kiosk/internal/payment"
	"kiosk/internal/repository/outbox_repo"
)

// fakeOrderRepo keeps deep copies so that in-memory aggregate mutations
// only become visible once the service persists them, like a real database.
type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[string]*domain.Order
	outbox []*outbox_repo.OutboxMessage
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[string]*domain.Order)}
}

func copyOrder(o *domain.Order) *domain.Order {
	items := make([]*domain.OrderItem, len(o.Items))
	for i, item := range o.Items {
		copied := *item
		items[i] = &copied
	}
	return domain.RestoreOrder(o.ID, o.CustomerID, items, o.CreationDate, o.OrderTotal, o.Status, o.PaymentStatus)
}

func (r *fakeOrderRepo) GetOrderByID(_ context.Context, id string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return copyOrder(order), nil
}

func (r *fakeOrderRepo) GetOrderItem(_ context.Context, orderID, productID string) (*domain.OrderItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[orderID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	for _, item := range order.Items {
		if item.ProductID == productID {
			copied := *item
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *fakeOrderRepo) GetAllOrders(_ context.Context) ([]*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var orders []*domain.Order
	for _, order := range r.orders {
		orders = append(orders, copyOrder(order))
	}
	return orders, nil
}

func (r *fakeOrderRepo) GetOngoingOrders(_ context.Context) ([]*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var orders []*domain.Order
	for _, order := range r.orders {
		if order.Status != domain.OrderStatusFinalized {
			orders = append(orders, copyOrder(order))
		}
	}
	return orders, nil
}

func (r *fakeOrderRepo) CreateOrder(_ context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[order.ID] = copyOrder(order)
	return nil
}

func (r *fakeOrderRepo) CreateItemAndUpdateOrder(_ context.Context, _ *domain.OrderItem, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[order.ID] = copyOrder(order)
	return nil
}

func (r *fakeOrderRepo) UpdateItemAndOrder(_ context.Context, _ *domain.OrderItem, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[order.ID] = copyOrder(order)
	return nil
}

func (r *fakeOrderRepo) RemoveItemAndUpdateOrder(_ context.Context, _ string, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[order.ID] = copyOrder(order)
	return nil
}

func (r *fakeOrderRepo) UpdateOrderAndCreateOutboxMessage(_ context.Context, order *domain.Order, msg *outbox_repo.OutboxMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[order.ID]; !ok {
		return sql.ErrNoRows
	}
	r.orders[order.ID] = copyOrder(order)
	r.outbox = append(r.outbox, msg)
	return nil
}

func (r *fakeOrderRepo) RemoveOrder(_ context.Context, orderID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[orderID]; !ok {
		return sql.ErrNoRows
	}
	delete(r.orders, orderID)
	return nil
}

type fakeProductRepo struct {
	products map[string]*domain.Product
}

func (r *fakeProductRepo) GetProductByID(_ context.Context, id string) (*domain.Product, error) {
	product, ok := r.products[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *product
	return &copied, nil
}

func (r *fakeProductRepo) GetProductsByCategory(context.Context, domain.Category) ([]*domain.Product, error) {
	return nil, nil
}
func (r *fakeProductRepo) GetAllProducts(context.Context) ([]*domain.Product, error) {
	return nil, nil
}
func (r *fakeProductRepo) CreateProduct(context.Context, *domain.Product) error { return nil }
func (r *fakeProductRepo) UpdateProduct(context.Context, *domain.Product) error { return nil }
func (r *fakeProductRepo) RemoveProduct(context.Context, string) error          { return nil }

type fakeOutboxRepo struct {
	mu       sync.Mutex
	messages []*outbox_repo.OutboxMessage
	sent     map[string]bool
}

func (r *fakeOutboxRepo) GetUnsentMessages(context.Context) ([]*outbox_repo.OutboxMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var unsent []*outbox_repo.OutboxMessage
	for _, msg := range r.messages {
		if !r.sent[msg.ID] {
			unsent = append(unsent, msg)
		}
	}
	return unsent, nil
}

func (r *fakeOutboxRepo) MarkMessageSent(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sent == nil {
		r.sent = make(map[string]bool)
	}
	r.sent[id] = true
	return nil
}

type fakeProvider struct {
	mu       sync.Mutex
	requests []*payment.QRRequest
	err      error
}

func (p *fakeProvider) CreateQROrder(_ context.Context, req *payment.QRRequest) (*payment.QRReference, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	p.requests = append(p.requests, req)
	return &payment.QRReference{QRData: "qr-payload"}, nil
}

func (p *fakeProvider) FetchMerchantOrder(context.Context, string) (*payment.MerchantOrder, error) {
	return nil, errors.New("not implemented")
}

type fakeKafkaProducer struct {
	mu       sync.Mutex
	messages [][]byte
}

func (p *fakeKafkaProducer) Produce(_ context.Context, _ string, message []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, message)
	return nil
}

func (p *fakeKafkaProducer) Close() error { return nil }

type fixture struct {
	service   OrderService
	orderRepo *fakeOrderRepo
	outbox    *fakeOutboxRepo
	provider  *fakeProvider
	producer  *fakeKafkaProducer
}

func newFixture(products map[string]*domain.Product) *fixture {
	orderRepo := newFakeOrderRepo()
	outbox := &fakeOutboxRepo{}
	provider := &fakeProvider{}
	producer := &fakeKafkaProducer{}
	service := NewOrderService(
		orderRepo,
		&fakeProductRepo{products: products},
		outbox,
		provider,
		producer,
		"order_status_events",
		zap.NewNop(),
	)
	return &fixture{service: service, orderRepo: orderRepo, outbox: outbox, provider: provider, producer: producer}
}

func catalog() map[string]*domain.Product {
	return map[string]*domain.Product{
		"p1": {ID: "p1", Name: "Cheeseburger", Description: "Classic", Category: domain.CategorySandwich, Price: decimal.NewFromFloat(5.00)},
		"p2": {ID: "p2", Name: "Fries", Description: "Crispy", Category: domain.CategoryAccompaniment, Price: decimal.NewFromFloat(3.00)},
	}
}

func createOrder(t *testing.T, f *fixture) string {
	t.Helper()
	res, err := f.service.CreateOrder(context.Background(), &CreateOrderRequest{CustomerID: "c1"})
	require.NoError(t, err)
	return res.OrderID
}

func checkout(t *testing.T, f *fixture, orderID string) {
	t.Helper()
	_, err := f.service.Checkout(context.Background(), orderID)
	require.NoError(t, err)
}

func confirmPayment(t *testing.T, f *fixture, orderID string) {
	t.Helper()
	_, err := f.service.ConfirmPayment(context.Background(), orderID, "approved")
	require.NoError(t, err)
}

func TestCreateOrder(t *testing.T) {
	f := newFixture(catalog())

	res, err := f.service.CreateOrder(context.Background(), &CreateOrderRequest{CustomerID: "c1"})
	require.NoError(t, err)
	assert.Equal(t, "c1", res.CustomerID)
	assert.Equal(t, string(domain.OrderStatusPending), res.OrderStatus)
	assert.True(t, res.OrderTotal.IsZero())

	got, err := f.service.GetOrder(context.Background(), res.OrderID)
	require.NoError(t, err)
	assert.Equal(t, res.OrderID, got.OrderID)
}

func TestCreateOrderRequiresCustomer(t *testing.T) {
	f := newFixture(catalog())
	_, err := f.service.CreateOrder(context.Background(), &CreateOrderRequest{})
	assert.ErrorIs(t, err, ErrInvalidOrder)
}

func TestGetOrderNotFound(t *testing.T) {
	f := newFixture(catalog())
	_, err := f.service.GetOrder(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestAddOrderItemMergesDuplicateProduct(t *testing.T) {
	f := newFixture(catalog())
	orderID := createOrder(t, f)

	res, err := f.service.AddOrderItem(context.Background(), orderID, &CreateOrderItemRequest{ProductID: "p1", ProductQuantity: 2})
	require.NoError(t, err)
	assert.True(t, res.OrderTotal.Equal(decimal.NewFromFloat(10.00)), "total %s", res.OrderTotal)

	res, err = f.service.AddOrderItem(context.Background(), orderID, &CreateOrderItemRequest{ProductID: "p1", ProductQuantity: 3})
	require.NoError(t, err)
	require.Len(t, res.OrderItems, 1)
	assert.Equal(t, 5, res.OrderItems[0].ProductQuantity)
	assert.True(t, res.OrderTotal.Equal(decimal.NewFromFloat(25.00)), "total %s", res.OrderTotal)
}

func TestAddOrderItemUnknownProduct(t *testing.T) {
	f := newFixture(catalog())
	orderID := createOrder(t, f)

	_, err := f.service.AddOrderItem(context.Background(), orderID, &CreateOrderItemRequest{ProductID: "p9", ProductQuantity: 1})
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestMutationAfterCheckoutBlocked(t *testing.T) {
	f := newFixture(catalog())
	orderID := createOrder(t, f)

	_, err := f.service.AddOrderItem(context.Background(), orderID, &CreateOrderItemRequest{ProductID: "p1", ProductQuantity: 2})
	require.NoError(t, err)
	checkout(t, f, orderID)

	_, err = f.service.AddOrderItem(context.Background(), orderID, &CreateOrderItemRequest{ProductID: "p2", ProductQuantity: 1})
	assert.ErrorIs(t, err, domain.ErrOrderLocked)

	got, err := f.service.GetOrder(context.Background(), orderID)
	require.NoError(t, err)
	assert.True(t, got.OrderTotal.Equal(decimal.NewFromFloat(10.00)), "total %s", got.OrderTotal)
	assert.Len(t, got.OrderItems, 1)
}

func TestChangeItemQuantityMissingItem(t *testing.T) {
	f := newFixture(catalog())
	orderID := createOrder(t, f)

	_, err := f.service.ChangeItemQuantity(context.Background(), orderID, &UpdateOrderItemRequest{ProductID: "p1", ProductQuantity: 4})
	assert.ErrorIs(t, err, domain.ErrItemNotFound)
}

func TestRemoveOrderItem(t *testing.T) {
	f := newFixture(catalog())
	orderID := createOrder(t, f)

	_, err := f.service.AddOrderItem(context.Background(), orderID, &CreateOrderItemRequest{ProductID: "p1", ProductQuantity: 2})
	require.NoError(t, err)
	_, err = f.service.AddOrderItem(context.Background(), orderID, &CreateOrderItemRequest{ProductID: "p2", ProductQuantity: 1})
	require.NoError(t, err)

	res, err := f.service.RemoveOrderItem(context.Background(), orderID, "p1")
	require.NoError(t, err)
	require.Len(t, res.OrderItems, 1)
	assert.Equal(t, "p2", res.OrderItems[0].ProductID)
	assert.True(t, res.OrderTotal.Equal(decimal.NewFromFloat(3.00)), "total %s", res.OrderTotal)

	_, err = f.service.RemoveOrderItem(context.Background(), orderID, "p1")
	assert.ErrorIs(t, err, domain.ErrItemNotFound)
}

func TestCheckoutCreatesPaymentRequestAndOutboxEvent(t *testing.T) {
	f := newFixture(catalog())
	orderID := createOrder(t, f)

	_, err := f.service.AddOrderItem(context.Background(), orderID, &CreateOrderItemRequest{ProductID: "p1", ProductQuantity: 2})
	require.NoError(t, err)

	res, err := f.service.Checkout(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, "qr-payload", res.QRData)
	assert.Equal(t, string(domain.OrderStatusConfirmed), res.OrderStatus)

	require.Len(t, f.provider.requests, 1)
	req := f.provider.requests[0]
	assert.Equal(t, orderID, req.ExternalReference)
	assert.True(t, req.TotalAmount.Equal(decimal.NewFromFloat(10.00)))
	require.Len(t, req.Items, 1)
	assert.Equal(t, "Cheeseburger", req.Items[0].Title)

	require.Len(t, f.orderRepo.outbox, 1)
	assert.Equal(t, "order_status_events", f.orderRepo.outbox[0].Topic)
}

func TestCheckoutProviderFailureLeavesOrderPending(t *testing.T) {
	f := newFixture(catalog())
	orderID := createOrder(t, f)

	_, err := f.service.AddOrderItem(context.Background(), orderID, &CreateOrderItemRequest{ProductID: "p1", ProductQuantity: 1})
	require.NoError(t, err)

	f.provider.err = errors.New("provider timeout")
	_, err = f.service.Checkout(context.Background(), orderID)
	require.Error(t, err)

	got, err := f.service.GetOrder(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.OrderStatusPending), got.OrderStatus)
	assert.Empty(t, f.orderRepo.outbox)

	// Checkout is retryable once the provider recovers.
	f.provider.err = nil
	_, err = f.service.Checkout(context.Background(), orderID)
	require.NoError(t, err)
}

func TestConfirmPaymentTranslatesProviderStatus(t *testing.T) {
	t.Run("approved", func(t *testing.T) {
		f := newFixture(catalog())
		orderID := createOrder(t, f)
		checkout(t, f, orderID)

		res, err := f.service.ConfirmPayment(context.Background(), orderID, "approved")
		require.NoError(t, err)
		assert.Equal(t, string(domain.PaymentStatusConfirmed), res.PaymentStatus)
	})

	t.Run("rejected", func(t *testing.T) {
		f := newFixture(catalog())
		orderID := createOrder(t, f)
		checkout(t, f, orderID)

		res, err := f.service.ConfirmPayment(context.Background(), orderID, "rejected")
		require.NoError(t, err)
		assert.Equal(t, string(domain.PaymentStatusRefused), res.PaymentStatus)
	})

	t.Run("before checkout", func(t *testing.T) {
		f := newFixture(catalog())
		orderID := createOrder(t, f)

		_, err := f.service.ConfirmPayment(context.Background(), orderID, "approved")
		assert.ErrorIs(t, err, domain.ErrOrderNotConfirmed)
	})
}

func TestAdvanceLifecycle(t *testing.T) {
	f := newFixture(catalog())
	orderID := createOrder(t, f)
	checkout(t, f, orderID)

	// Payment still pending: the kitchen cannot start.
	_, err := f.service.BeginPreparation(context.Background(), orderID)
	assert.ErrorIs(t, err, domain.ErrPaymentPending)

	confirmPayment(t, f, orderID)

	res, err := f.service.BeginPreparation(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.OrderStatusInProgress), res.OrderStatus)

	_, err = f.service.BeginPreparation(context.Background(), orderID)
	assert.ErrorIs(t, err, domain.ErrAlreadyInProgress)

	res, err = f.service.MarkReady(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.OrderStatusReady), res.OrderStatus)

	res, err = f.service.Finalize(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.OrderStatusFinalized), res.OrderStatus)

	ongoing, err := f.service.GetOngoingOrders(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ongoing)
}

func TestStatusNeverMovesBackward(t *testing.T) {
	f := newFixture(catalog())
	orderID := createOrder(t, f)

	_, err := f.service.MarkReady(context.Background(), orderID)
	assert.ErrorIs(t, err, domain.ErrNotInProgress)

	got, err := f.service.GetOrder(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.OrderStatusPending), got.OrderStatus)
}

func TestRemoveOrder(t *testing.T) {
	f := newFixture(catalog())
	orderID := createOrder(t, f)

	require.NoError(t, f.service.RemoveOrder(context.Background(), orderID))

	_, err := f.service.GetOrder(context.Background(), orderID)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestRemoveConfirmedOrderBlocked(t *testing.T) {
	f := newFixture(catalog())
	orderID := createOrder(t, f)
	checkout(t, f, orderID)

	err := f.service.RemoveOrder(context.Background(), orderID)
	assert.ErrorIs(t, err, domain.ErrOrderLocked)
}

// Two concurrent adds of the same product must serialize: the merged
// quantity is 2, not a lost update of 1.
func TestConcurrentAddsSerialize(t *testing.T) {
	f := newFixture(catalog())
	orderID := createOrder(t, f)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.service.AddOrderItem(context.Background(), orderID, &CreateOrderItemRequest{ProductID: "p1", ProductQuantity: 1})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := f.service.GetOrder(context.Background(), orderID)
	require.NoError(t, err)
	require.Len(t, got.OrderItems, 1)
	assert.Equal(t, 2, got.OrderItems[0].ProductQuantity)
	assert.True(t, got.OrderTotal.Equal(decimal.NewFromFloat(10.00)), "total %s", got.OrderTotal)
}

func TestInterleavedAddsKeepTotalConsistent(t *testing.T) {
	products := catalog()
	f := newFixture(products)
	orderID := createOrder(t, f)

	quantities := map[string]int{}
	stream := []struct {
		productID string
		quantity  int
	}{
		{"p1", 2}, {"p2", 1}, {"p1", 3}, {"p2", 4}, {"p1", 1},
	}
	for _, call := range stream {
		_, err := f.service.AddOrderItem(context.Background(), orderID, &CreateOrderItemRequest{ProductID: call.productID, ProductQuantity: call.quantity})
		require.NoError(t, err)
		quantities[call.productID] += call.quantity
	}

	expected := decimal.Zero
	for productID, quantity := range quantities {
		expected = expected.Add(products[productID].Price.Mul(decimal.NewFromInt(int64(quantity))))
	}

	got, err := f.service.GetOrder(context.Background(), orderID)
	require.NoError(t, err)
	assert.Len(t, got.OrderItems, len(quantities))
	assert.True(t, got.OrderTotal.Equal(expected), "total %s want %s", got.OrderTotal, expected)
}

func TestProcessOutbox(t *testing.T) {
	f := newFixture(catalog())
	f.outbox.messages = []*outbox_repo.OutboxMessage{
		{ID: "m1", Topic: "order_status_events", Payload: []byte(`{"orderId":"o1"}`)},
		{ID: "m2", Topic: "order_status_events", Payload: []byte(`{"orderId":"o2"}`)},
	}

	require.NoError(t, f.service.ProcessOutbox(context.Background()))
	assert.Len(t, f.producer.messages, 2)
	assert.True(t, f.outbox.sent["m1"])
	assert.True(t, f.outbox.sent["m2"])

	// Already sent messages are not re-published.
	require.NoError(t, f.service.ProcessOutbox(context.Background()))
	assert.Len(t, f.producer.messages, 2)
}
