package domain

import (
	"github.com/shopspring/decimal"

	"kiosk/internal/util"
)

type Category string

const (
	CategorySandwich      Category = "Sandwich"
	CategoryAccompaniment Category = "Accompaniment"
	CategoryBeverage      Category = "Beverage"
	CategoryDessert       Category = "Dessert"
)

var categories = map[Category]struct{}{
	CategorySandwich:      {},
	CategoryAccompaniment: {},
	CategoryBeverage:      {},
	CategoryDessert:       {},
}

func ValidCategory(c Category) bool {
	_, ok := categories[c]
	return ok
}

// Product is a catalog entry. Orders never cache its price: every
// price-sensitive mutation re-reads the catalog so price changes take
// effect immediately.
type Product struct {
	ID          string
	Name        string
	Description string
	Category    Category
	Price       decimal.Decimal
	ImageURL    string
}

func NewProduct(name, description string, category Category, price decimal.Decimal, imageURL string) (*Product, error) {
	if name == "" || description == "" || category == "" || price.IsZero() {
		return nil, ErrInvalidProduct
	}
	if !ValidCategory(category) {
		return nil, ErrInvalidProduct
	}
	return &Product{
		ID:          util.GenerateUUID(),
		Name:        name,
		Description: description,
		Category:    category,
		Price:       price,
		ImageURL:    imageURL,
	}, nil
}

func (p *Product) ChangeName(name string)               { p.Name = name }
func (p *Product) ChangeDescription(description string) { p.Description = description }
func (p *Product) ChangePrice(price decimal.Decimal)    { p.Price = price }
func (p *Product) ChangeImageURL(imageURL string)       { p.ImageURL = imageURL }

func (p *Product) ChangeCategory(category Category) error {
	if !ValidCategory(category) {
		return ErrInvalidProduct
	}
	p.Category = category
	return nil
}
