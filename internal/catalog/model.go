package catalog

import (
	"errors"
	"time"

	"github.com/gofrs/uuid"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrVariantNotFound = errors.New("variant not found")
)

// Weight labels a variant can carry. Unique per product.
const (
	Weight500g = "500g"
	Weight1kg  = "1kg"
	Weight5kg  = "5kg"
)

type Variant struct {
	ID            uuid.UUID `json:"id" db:"id"`
	ProductID     uuid.UUID `json:"product_id" db:"product_id"`
	WeightVariant string    `json:"weight_variant" db:"weight_variant"`
	Price         float64   `json:"price" db:"price"`
	StockQuantity int       `json:"stock_quantity" db:"stock_quantity"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

type Product struct {
	ID        uuid.UUID `json:"id" db:"id"`
	NameEN    string    `json:"name_en" db:"name_en"`
	NameAR    string    `json:"name_ar" db:"name_ar"`
	Price     float64   `json:"price" db:"price"`
	Stock     int       `json:"stock" db:"stock"`
	ImageURL  string    `json:"image_url" db:"image_url"`
	Variants  []Variant `json:"variants" db:"-"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// DefaultVariants derives the standard weight options from a product's base
// price and stock: 500g at half price and half stock, 1kg at base, 5kg at
// 4.5x price (bulk discount) and double stock.
func DefaultVariants(basePrice float64, baseStock int) []Variant {
	return []Variant{
		{WeightVariant: Weight500g, Price: basePrice * 0.5, StockQuantity: baseStock / 2},
		{WeightVariant: Weight1kg, Price: basePrice, StockQuantity: baseStock},
		{WeightVariant: Weight5kg, Price: basePrice * 4.5, StockQuantity: baseStock * 2},
	}
}
