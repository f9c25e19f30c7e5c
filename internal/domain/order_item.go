package domain

// OrderItem is one product-quantity line inside an order. Its identity is
// the (order, product) pair; an order holds at most one line per product.
type OrderItem struct {
	OrderID   string
	ProductID string
	Quantity  int
}

func NewOrderItem(orderID, productID string, quantity int) (*OrderItem, error) {
	if orderID == "" || productID == "" || quantity <= 0 {
		return nil, ErrInvalidOrderItem
	}
	return &OrderItem{
		OrderID:   orderID,
		ProductID: productID,
		Quantity:  quantity,
	}, nil
}
