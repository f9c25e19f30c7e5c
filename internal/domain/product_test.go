package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProduct(t *testing.T) {
	product, err := NewProduct("Cheeseburger", "Classic burger", CategorySandwich, decimal.NewFromFloat(12.90), "http://img/cb.png")
	require.NoError(t, err)
	assert.NotEmpty(t, product.ID)
	assert.Equal(t, CategorySandwich, product.Category)
}

func TestNewProductValidation(t *testing.T) {
	tests := []struct {
		name        string
		productName string
		description string
		category    Category
		price       decimal.Decimal
	}{
		{"missing name", "", "desc", CategorySandwich, decimal.NewFromInt(1)},
		{"missing description", "Burger", "", CategorySandwich, decimal.NewFromInt(1)},
		{"missing category", "Burger", "desc", "", decimal.NewFromInt(1)},
		{"zero price", "Burger", "desc", CategorySandwich, decimal.Zero},
		{"unknown category", "Burger", "desc", "Pizza", decimal.NewFromInt(1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewProduct(tt.productName, tt.description, tt.category, tt.price, "")
			assert.ErrorIs(t, err, ErrInvalidProduct)
		})
	}
}

func TestChangeCategory(t *testing.T) {
	product, err := NewProduct("Fries", "Crispy", CategoryAccompaniment, decimal.NewFromInt(5), "")
	require.NoError(t, err)

	assert.ErrorIs(t, product.ChangeCategory("Soup"), ErrInvalidProduct)
	assert.Equal(t, CategoryAccompaniment, product.Category)

	require.NoError(t, product.ChangeCategory(CategoryDessert))
	assert.Equal(t, CategoryDessert, product.Category)
}

func TestNewCustomerGuest(t *testing.T) {
	customer := NewCustomer("", "", "", "", "")
	assert.NotEmpty(t, customer.ID)
	assert.Equal(t, "Guest-"+customer.ID[:8], customer.FirstName)
}

func TestNewCustomerKeepsProvidedName(t *testing.T) {
	customer := NewCustomer("12345678900", "Ana", "Souza", "ana@example.com", "")
	assert.Equal(t, "Ana", customer.FirstName)
	assert.Equal(t, "12345678900", customer.CPF)
}
