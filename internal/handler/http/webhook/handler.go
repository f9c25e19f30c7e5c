package webhook

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"kiosk/internal/app/orders"
	"kiosk/internal/domain"
	"kiosk/internal/payment"
)

const topicMerchantOrder = "merchant_order"

// WebhookHandler receives asynchronous payment notifications from the
// provider. A notification only carries a resource URL; the referenced
// merchant order is fetched through the payment adapter and, once the
// provider reports the flow closed, the outcome is forwarded to the order
// service.
type WebhookHandler struct {
	orderService orders.OrderService
	provider     payment.Provider
	logger       *zap.Logger
}

func NewWebhookHandler(s orders.OrderService, p payment.Provider, l *zap.Logger) *WebhookHandler {
	return &WebhookHandler{orderService: s, provider: p, logger: l}
}

type notification struct {
	Resource string `json:"resource"`
}

func (h *WebhookHandler) HandleNotification(w http.ResponseWriter, r *http.Request) {
	if topic := r.URL.Query().Get("topic"); topic != topicMerchantOrder {
		h.logger.Debug("Ignoring webhook notification", zap.String("topic", topic))
		w.WriteHeader(http.StatusOK)
		return
	}

	var n notification
	if err := json.NewDecoder(r.Body).Decode(&n); err != nil || n.Resource == "" {
		h.logger.Warn("Invalid webhook notification body", zap.Error(err))
		http.Error(w, "Invalid notification body", http.StatusBadRequest)
		return
	}

	merchantOrder, err := h.provider.FetchMerchantOrder(r.Context(), n.Resource)
	if err != nil {
		h.logger.Error("Failed to fetch merchant order for webhook notification",
			zap.String("resource", n.Resource),
			zap.Error(err))
		http.Error(w, "Failed to fetch payment resource", http.StatusBadGateway)
		return
	}

	if merchantOrder.Status != payment.StatusClosed {
		h.logger.Debug("Merchant order not closed yet, ignoring",
			zap.String("order_id", merchantOrder.ExternalReference),
			zap.String("status", merchantOrder.Status))
		w.WriteHeader(http.StatusOK)
		return
	}

	_, err = h.orderService.ConfirmPayment(r.Context(), merchantOrder.ExternalReference, merchantOrder.PaymentStatus)
	if err != nil {
		// A state violation means the notification raced the order flow or
		// was delivered twice; replying 200 stops provider retries.
		if errors.Is(err, domain.ErrModificationBlocked) || errors.Is(err, orders.ErrOrderNotFound) {
			h.logger.Warn("Payment notification not applicable to order state",
				zap.String("order_id", merchantOrder.ExternalReference),
				zap.Error(err))
			w.WriteHeader(http.StatusOK)
			return
		}
		h.logger.Error("Failed to apply payment notification",
			zap.String("order_id", merchantOrder.ExternalReference),
			zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.Info("Payment notification applied",
		zap.String("order_id", merchantOrder.ExternalReference),
		zap.String("provider_status", merchantOrder.PaymentStatus))
	w.WriteHeader(http.StatusOK)
}

func RegisterRoutes(r chi.Router, s orders.OrderService, p payment.Provider, l *zap.Logger) {
	handler := NewWebhookHandler(s, p, l.With(zap.String("component", "PaymentWebhookHandler")))
	r.Post("/webhook", handler.HandleNotification)
}
