package domain

import (
	"errors"
	"fmt"
)

// ErrModificationBlocked is the common root of every state-machine
// precondition failure. Boundaries match against it with errors.Is to tell
// "invalid for this order's current state" apart from infrastructure errors.
var ErrModificationBlocked = errors.New("operation not allowed for current order state")

var (
	ErrOrderLocked       = fmt.Errorf("%w: order already confirmed, modification not allowed", ErrModificationBlocked)
	ErrItemNotFound      = fmt.Errorf("%w: order item not found", ErrModificationBlocked)
	ErrOrderNotConfirmed = fmt.Errorf("%w: order not yet confirmed", ErrModificationBlocked)
	ErrPaymentPending    = fmt.Errorf("%w: order payment is pending", ErrModificationBlocked)
	ErrPaymentRefused    = fmt.Errorf("%w: order payment was refused, contact your payment provider", ErrModificationBlocked)
	ErrAlreadyInProgress = fmt.Errorf("%w: order already in progress", ErrModificationBlocked)
	ErrNotInProgress     = fmt.Errorf("%w: order not yet in progress", ErrModificationBlocked)
	ErrAlreadyReady      = fmt.Errorf("%w: order already ready", ErrModificationBlocked)
	ErrNotReady          = fmt.Errorf("%w: order not yet ready", ErrModificationBlocked)
)

var (
	ErrInvalidOrderItem = errors.New("invalid order item data")
	ErrInvalidProduct   = errors.New("invalid product data")
	ErrInvalidCustomer  = errors.New("invalid customer data")
)
