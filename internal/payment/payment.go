package payment

import (
	"context"

	"github.com/shopspring/decimal"
)

// Provider is the only gate to the external payment service. The service
// layer never issues provider HTTP calls directly.
type Provider interface {
	// CreateQROrder registers a checkout with the provider and returns the
	// QR payload the kiosk displays. The external reference carries the
	// order ID so webhook notifications can be routed back.
	CreateQROrder(ctx context.Context, req *QRRequest) (*QRReference, error)

	// FetchMerchantOrder resolves the resource URL delivered by a webhook
	// notification into the provider's view of the payment.
	FetchMerchantOrder(ctx context.Context, resourceURL string) (*MerchantOrder, error)
}

type QRRequest struct {
	ExternalReference string
	Title             string
	Description       string
	TotalAmount       decimal.Decimal
	Items             []QRItem
}

type QRItem struct {
	SKU         string
	Category    string
	Title       string
	Description string
	UnitPrice   decimal.Decimal
	Quantity    int
}

type QRReference struct {
	QRData string
}

// MerchantOrder is the provider-side payment record. Status "closed" means
// the payment flow completed; PaymentStatus then carries the outcome in the
// provider's vocabulary ("approved", "rejected", ...).
type MerchantOrder struct {
	Status            string
	ExternalReference string
	PaymentStatus     string
}

const StatusClosed = "closed"
