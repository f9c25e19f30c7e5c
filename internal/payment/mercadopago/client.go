package mercadopago

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"kiosk/internal/payment"
)

const defaultBaseURL = "https://api.mercadopago.com"

type Config struct {
	BaseURL        string
	AccessToken    string
	UserID         string
	ExternalPosID  string
	WebhookBaseURL string
	Timeout        time.Duration
}

// Client talks to the Mercado Pago in-store QR API.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(cfg Config, l *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     l,
	}
}

type qrItemPayload struct {
	SKUNumber   string  `json:"sku_number"`
	Category    string  `json:"category"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	UnitPrice   float64 `json:"unit_price"`
	Quantity    int     `json:"quantity"`
	UnitMeasure string  `json:"unit_measure"`
	TotalAmount float64 `json:"total_amount"`
}

type qrOrderPayload struct {
	ExternalReference string          `json:"external_reference"`
	TotalAmount       float64         `json:"total_amount"`
	Items             []qrItemPayload `json:"items"`
	Title             string          `json:"title"`
	Description       string          `json:"description"`
	NotificationURL   string          `json:"notification_url"`
}

type qrOrderResponse struct {
	QRData string `json:"qr_data"`
}

func (c *Client) CreateQROrder(ctx context.Context, req *payment.QRRequest) (*payment.QRReference, error) {
	items := make([]qrItemPayload, 0, len(req.Items))
	for _, item := range req.Items {
		unitPrice, _ := item.UnitPrice.Float64()
		lineTotal, _ := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))).Float64()
		items = append(items, qrItemPayload{
			SKUNumber:   item.SKU,
			Category:    item.Category,
			Title:       item.Title,
			Description: item.Description,
			UnitPrice:   unitPrice,
			Quantity:    item.Quantity,
			UnitMeasure: "unit",
			TotalAmount: lineTotal,
		})
	}

	total, _ := req.TotalAmount.Float64()
	payload := qrOrderPayload{
		ExternalReference: req.ExternalReference,
		TotalAmount:       total,
		Items:             items,
		Title:             req.Title,
		Description:       req.Description,
		NotificationURL:   c.cfg.WebhookBaseURL + "/webhook",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal QR order payload: %w", err)
	}

	url := fmt.Sprintf("%s/instore/orders/qr/seller/collectors/%s/pos/%s/qrs",
		c.cfg.BaseURL, c.cfg.UserID, c.cfg.ExternalPosID)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build QR order request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Error("Mercado Pago QR order request failed",
			zap.String("external_reference", req.ExternalReference),
			zap.Error(err))
		return nil, fmt.Errorf("failed to create QR order: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read QR order response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("Mercado Pago QR order request rejected",
			zap.String("external_reference", req.ExternalReference),
			zap.Int("status_code", resp.StatusCode),
			zap.ByteString("body", respBody))
		return nil, fmt.Errorf("QR order request rejected with status %d", resp.StatusCode)
	}

	var qrResp qrOrderResponse
	if err := json.Unmarshal(respBody, &qrResp); err != nil {
		return nil, fmt.Errorf("failed to decode QR order response: %w", err)
	}
	if qrResp.QRData == "" {
		return nil, fmt.Errorf("QR order response is missing qr_data")
	}

	c.logger.Info("Mercado Pago QR order created",
		zap.String("external_reference", req.ExternalReference))
	return &payment.QRReference{QRData: qrResp.QRData}, nil
}

type merchantOrderResponse struct {
	Status            string `json:"status"`
	ExternalReference string `json:"external_reference"`
	Payments          []struct {
		Status string `json:"status"`
	} `json:"payments"`
}

func (c *Client) FetchMerchantOrder(ctx context.Context, resourceURL string) (*payment.MerchantOrder, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, resourceURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build merchant order request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Error("Failed to fetch merchant order", zap.String("resource_url", resourceURL), zap.Error(err))
		return nil, fmt.Errorf("failed to fetch merchant order: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("Merchant order fetch rejected",
			zap.String("resource_url", resourceURL),
			zap.Int("status_code", resp.StatusCode))
		return nil, fmt.Errorf("merchant order fetch rejected with status %d", resp.StatusCode)
	}

	var moResp merchantOrderResponse
	if err := json.NewDecoder(resp.Body).Decode(&moResp); err != nil {
		return nil, fmt.Errorf("failed to decode merchant order response: %w", err)
	}

	order := &payment.MerchantOrder{
		Status:            moResp.Status,
		ExternalReference: moResp.ExternalReference,
	}
	if len(moResp.Payments) > 0 {
		order.PaymentStatus = moResp.Payments[0].Status
	}
	return order, nil
}
