package cart

import (
	"errors"
	"time"

	"github.com/gofrs/uuid"
)

var (
	ErrItemNotFound      = errors.New("cart item not found")
	ErrVariantNotFound   = errors.New("product variant not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// CartItem is the stored row: one per (user, variant).
type CartItem struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	ProductID uuid.UUID `json:"product_id" db:"product_id"`
	VariantID uuid.UUID `json:"variant_id" db:"variant_id"`
	Quantity  int       `json:"quantity" db:"quantity"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Item is a cart row joined with its product and variant, as rendered to the
// shopper and handed to checkout. The denormalized fields are read once here
// so the order workflow never has to chase references.
type Item struct {
	ID            uuid.UUID `json:"id"`
	UserID        string    `json:"user_id"`
	ProductID     uuid.UUID `json:"product_id"`
	VariantID     uuid.UUID `json:"variant_id"`
	Quantity      int       `json:"quantity"`
	ProductNameEN string    `json:"product_name_en"`
	ProductNameAR string    `json:"product_name_ar"`
	ImageURL      string    `json:"image_url"`
	WeightVariant string    `json:"weight_variant"`
	UnitPrice     float64   `json:"unit_price"`
	StockQuantity int       `json:"stock_quantity"`
	CreatedAt     time.Time `json:"created_at"`
}

// Total returns the cart subtotal.
func Total(items []Item) float64 {
	var total float64
	for _, item := range items {
		total += item.UnitPrice * float64(item.Quantity)
	}
	return total
}

// Count returns the number of units across all lines.
func Count(items []Item) int {
	var count int
	for _, item := range items {
		count += item.Quantity
	}
	return count
}
