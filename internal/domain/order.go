package domain

import (
	"time"

	"github.com/shopspring/decimal"

	"kiosk/internal/util"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusConfirmed  OrderStatus = "CONFIRMED"
	OrderStatusInProgress OrderStatus = "IN_PROGRESS"
	OrderStatusReady      OrderStatus = "READY"
	OrderStatusFinalized  OrderStatus = "FINALIZED"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusConfirmed PaymentStatus = "CONFIRMED"
	PaymentStatusRefused   PaymentStatus = "REFUSED"
)

// Order is the consistency boundary for a kiosk order: the order row plus
// its line items. The running total is maintained incrementally on every
// item mutation and is never recomputed by re-summing stored items; unit
// prices live in the catalog and are supplied by the caller at mutation
// time.
type Order struct {
	ID            string
	CustomerID    string
	Items         []*OrderItem
	CreationDate  time.Time
	OrderTotal    decimal.Decimal
	Status        OrderStatus
	PaymentStatus PaymentStatus
}

func NewOrder(customerID string) *Order {
	return &Order{
		ID:            util.GenerateUUID(),
		CustomerID:    customerID,
		Items:         []*OrderItem{},
		CreationDate:  time.Now().UTC(),
		OrderTotal:    decimal.Zero,
		Status:        OrderStatusPending,
		PaymentStatus: PaymentStatusPending,
	}
}

// RestoreOrder rehydrates a persisted order without running any invariants.
// Repositories are the only intended caller.
func RestoreOrder(id, customerID string, items []*OrderItem, creationDate time.Time, total decimal.Decimal, status OrderStatus, paymentStatus PaymentStatus) *Order {
	return &Order{
		ID:            id,
		CustomerID:    customerID,
		Items:         items,
		CreationDate:  creationDate,
		OrderTotal:    total,
		Status:        status,
		PaymentStatus: paymentStatus,
	}
}

// EnsurePending reports ErrOrderLocked once the order has left PENDING.
// Every item mutation and order removal is gated on it.
func (o *Order) EnsurePending() error {
	if o.Status != OrderStatusPending {
		return ErrOrderLocked
	}
	return nil
}

// AddItem appends the item and grows the total by quantity times the
// current unit price. The caller must have already merged duplicate
// products into a single quantity; the aggregate does not deduplicate.
func (o *Order) AddItem(item *OrderItem, unitPrice decimal.Decimal) error {
	if err := o.EnsurePending(); err != nil {
		return err
	}
	o.Items = append(o.Items, item)
	o.OrderTotal = o.OrderTotal.Add(unitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	return nil
}

// UpdateItemQuantity replaces the line for the same product and adjusts the
// total. Both the reversal of the old line and the new contribution use the
// unit price passed in now: no historical price is stored per item, so a
// price change between the original add and this update shifts the total by
// the delta on the full new quantity.
func (o *Order) UpdateItemQuantity(item *OrderItem, unitPrice decimal.Decimal) error {
	if err := o.EnsurePending(); err != nil {
		return err
	}
	for i, existing := range o.Items {
		if existing.ProductID != item.ProductID {
			continue
		}
		o.OrderTotal = o.OrderTotal.Sub(unitPrice.Mul(decimal.NewFromInt(int64(existing.Quantity))))
		o.Items[i] = item
		o.OrderTotal = o.OrderTotal.Add(unitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
		return nil
	}
	return ErrItemNotFound
}

// RemoveItem drops the line for the item's product and shrinks the total by
// its contribution at the current unit price.
func (o *Order) RemoveItem(item *OrderItem, unitPrice decimal.Decimal) error {
	if err := o.EnsurePending(); err != nil {
		return err
	}
	for i, existing := range o.Items {
		if existing.ProductID != item.ProductID {
			continue
		}
		o.OrderTotal = o.OrderTotal.Sub(unitPrice.Mul(decimal.NewFromInt(int64(existing.Quantity))))
		o.Items = append(o.Items[:i], o.Items[i+1:]...)
		return nil
	}
	return ErrItemNotFound
}

// Confirm locks the order for checkout. Items become immutable from here on.
func (o *Order) Confirm() error {
	if err := o.EnsurePending(); err != nil {
		return err
	}
	o.Status = OrderStatusConfirmed
	return nil
}

// ConfirmPayment records a successful payment. Payment can only settle on
// an order that has been confirmed.
func (o *Order) ConfirmPayment() error {
	if o.Status != OrderStatusConfirmed {
		return ErrOrderNotConfirmed
	}
	o.PaymentStatus = PaymentStatusConfirmed
	return nil
}

// RefusePayment records a provider-side refusal. Same gate as ConfirmPayment.
func (o *Order) RefusePayment() error {
	if o.Status != OrderStatusConfirmed {
		return ErrOrderNotConfirmed
	}
	o.PaymentStatus = PaymentStatusRefused
	return nil
}

// BeginPreparation moves a confirmed, paid order into the kitchen.
func (o *Order) BeginPreparation() error {
	switch o.Status {
	case OrderStatusConfirmed:
		switch o.PaymentStatus {
		case PaymentStatusPending:
			return ErrPaymentPending
		case PaymentStatusRefused:
			return ErrPaymentRefused
		}
		o.Status = OrderStatusInProgress
		return nil
	case OrderStatusPending:
		return ErrOrderNotConfirmed
	default:
		return ErrAlreadyInProgress
	}
}

// MarkReady moves an in-progress order to ready for pickup.
func (o *Order) MarkReady() error {
	switch o.Status {
	case OrderStatusInProgress:
		o.Status = OrderStatusReady
		return nil
	case OrderStatusPending, OrderStatusConfirmed:
		return ErrNotInProgress
	default:
		return ErrAlreadyReady
	}
}

// Finalize closes out a ready order after pickup.
func (o *Order) Finalize() error {
	if o.Status != OrderStatusReady {
		return ErrNotReady
	}
	o.Status = OrderStatusFinalized
	return nil
}

// Item returns the line for the given product, or nil if the order has none.
func (o *Order) Item(productID string) *OrderItem {
	for _, item := range o.Items {
		if item.ProductID == productID {
			return item
		}
	}
	return nil
}
