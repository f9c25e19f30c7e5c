package webhook

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"kiosk/internal/app/orders"
	"kiosk/internal/domain"
	"kiosk/internal/payment"
)

type stubOrderService struct {
	orders.OrderService

	confirmedOrderID string
	confirmedStatus  string
	confirmErr       error
}

func (s *stubOrderService) ConfirmPayment(_ context.Context, orderID, providerStatus string) (*orders.OrderResponse, error) {
	s.confirmedOrderID = orderID
	s.confirmedStatus = providerStatus
	if s.confirmErr != nil {
		return nil, s.confirmErr
	}
	return &orders.OrderResponse{OrderID: orderID}, nil
}

type stubProvider struct {
	merchantOrder *payment.MerchantOrder
	err           error
}

func (p *stubProvider) CreateQROrder(context.Context, *payment.QRRequest) (*payment.QRReference, error) {
	return nil, errors.New("not implemented")
}

func (p *stubProvider) FetchMerchantOrder(context.Context, string) (*payment.MerchantOrder, error) {
	return p.merchantOrder, p.err
}

func notify(handler *WebhookHandler, topic, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhook?topic="+topic, strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.HandleNotification(rec, req)
	return rec
}

func TestHandleNotificationAppliesClosedPayment(t *testing.T) {
	service := &stubOrderService{}
	handler := NewWebhookHandler(service, &stubProvider{
		merchantOrder: &payment.MerchantOrder{
			Status:            payment.StatusClosed,
			ExternalReference: "order-1",
			PaymentStatus:     "approved",
		},
	}, zap.NewNop())

	rec := notify(handler, "merchant_order", `{"resource":"https://api/merchant_orders/42"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "order-1", service.confirmedOrderID)
	assert.Equal(t, "approved", service.confirmedStatus)
}

func TestHandleNotificationIgnoresOtherTopics(t *testing.T) {
	service := &stubOrderService{}
	handler := NewWebhookHandler(service, &stubProvider{}, zap.NewNop())

	rec := notify(handler, "payment", `{"resource":"https://api/payments/1"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, service.confirmedOrderID)
}

func TestHandleNotificationRejectsEmptyBody(t *testing.T) {
	handler := NewWebhookHandler(&stubOrderService{}, &stubProvider{}, zap.NewNop())

	rec := notify(handler, "merchant_order", `{}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleNotificationProviderFailure(t *testing.T) {
	handler := NewWebhookHandler(&stubOrderService{}, &stubProvider{err: errors.New("gateway down")}, zap.NewNop())

	rec := notify(handler, "merchant_order", `{"resource":"https://api/merchant_orders/42"}`)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestHandleNotificationIgnoresOpenMerchantOrder(t *testing.T) {
	service := &stubOrderService{}
	handler := NewWebhookHandler(service, &stubProvider{
		merchantOrder: &payment.MerchantOrder{Status: "opened", ExternalReference: "order-1"},
	}, zap.NewNop())

	rec := notify(handler, "merchant_order", `{"resource":"https://api/merchant_orders/42"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, service.confirmedOrderID)
}

// Duplicate deliveries and notifications racing the order flow must not
// trigger provider retries.
func TestHandleNotificationStateViolationRepliesOK(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"order already in progress", domain.ErrAlreadyInProgress},
		{"order gone", orders.ErrOrderNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := &stubOrderService{confirmErr: tt.err}
			handler := NewWebhookHandler(service, &stubProvider{
				merchantOrder: &payment.MerchantOrder{
					Status:            payment.StatusClosed,
					ExternalReference: "order-1",
					PaymentStatus:     "approved",
				},
			}, zap.NewNop())

			rec := notify(handler, "merchant_order", `{"resource":"https://api/merchant_orders/42"}`)
			assert.Equal(t, http.StatusOK, rec.Code)
		})
	}
}

func TestHandleNotificationInternalFailure(t *testing.T) {
	service := &stubOrderService{confirmErr: errors.New("db down")}
	handler := NewWebhookHandler(service, &stubProvider{
		merchantOrder: &payment.MerchantOrder{
			Status:            payment.StatusClosed,
			ExternalReference: "order-1",
			PaymentStatus:     "approved",
		},
	}, zap.NewNop())

	rec := notify(handler, "merchant_order", `{"resource":"https://api/merchant_orders/42"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
