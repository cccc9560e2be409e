package order

import (
	"time"

	"github.com/gofrs/uuid"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

func (s Status) String() string {
	return string(s)
}

const (
	PaymentPending Status = "pending"
	PaymentPaid    Status = "paid"
)

var allowedTransitions = map[Status]map[Status]bool{
	StatusPending: {
		StatusProcessing: true,
		StatusCancelled:  true,
	},
	StatusProcessing: {
		StatusShipped:   true,
		StatusCancelled: true,
	},
	StatusShipped: {
		StatusDelivered: true,
		StatusCancelled: true,
	},
	StatusDelivered: {},
	StatusCancelled: {},
}

type ShippingAddress struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// OrderInput is the customer-facing metadata for one order placement.
// SessionID is passed explicitly by the caller; an empty value means a guest
// checkout with no cart to clear.
type OrderInput struct {
	SessionID       string
	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	ShippingAddress ShippingAddress
	Notes           string
}

// CartLine is one cart entry as read at checkout time. It carries everything
// needed to build an order item without further lookups; stock is re-checked
// against the variant row inside the placement transaction.
type CartLine struct {
	ProductID     uuid.UUID `json:"product_id"`
	VariantID     uuid.UUID `json:"variant_id"`
	ProductName   string    `json:"product_name"`
	WeightVariant string    `json:"weight_variant"`
	UnitPrice     float64   `json:"unit_price"`
	Quantity      int       `json:"quantity"`
}

type OrderItem struct {
	ID            uuid.UUID `json:"id" db:"id"`
	OrderID       uuid.UUID `json:"order_id" db:"order_id"`
	ProductID     uuid.UUID `json:"product_id" db:"product_id"`
	VariantID     uuid.UUID `json:"variant_id" db:"variant_id"`
	ProductName   string    `json:"product_name" db:"product_name"`
	WeightVariant string    `json:"weight_variant" db:"weight_variant"`
	UnitPrice     float64   `json:"unit_price" db:"unit_price"`
	Quantity      int       `json:"quantity" db:"quantity"`
	LineTotal     float64   `json:"line_total" db:"line_total"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

type Order struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	OrderNumber     string          `json:"order_number" db:"order_number"`
	UserID          string          `json:"user_id,omitempty" db:"user_id"`
	CustomerName    string          `json:"customer_name" db:"customer_name"`
	CustomerEmail   string          `json:"customer_email" db:"customer_email"`
	CustomerPhone   string          `json:"customer_phone" db:"customer_phone"`
	ShippingAddress ShippingAddress `json:"shipping_address" db:"-"`
	Subtotal        float64         `json:"subtotal" db:"subtotal"`
	ShippingCost    float64         `json:"shipping_cost" db:"shipping_cost"`
	TotalAmount     float64         `json:"total_amount" db:"total_amount"`
	OrderStatus     Status          `json:"order_status" db:"order_status"`
	PaymentStatus   Status          `json:"payment_status" db:"payment_status"`
	Notes           string          `json:"notes,omitempty" db:"notes"`
	Items           []OrderItem     `json:"items" db:"-"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}

// Receipt is what a successful placement returns to the caller.
type Receipt struct {
	ID          uuid.UUID `json:"id"`
	OrderNumber string    `json:"order_number"`
	TotalAmount float64   `json:"total_amount"`
	Status      Status    `json:"status"`
}
