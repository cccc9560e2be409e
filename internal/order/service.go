package order

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
)

const (
	// FreeShippingThreshold is the subtotal above which shipping is free.
	// A subtotal of exactly the threshold still pays the flat fee.
	FreeShippingThreshold = 500.0
	FlatShippingFee       = 50.0
)

// CartClearer empties a session's cart after a successful placement.
type CartClearer interface {
	Clear(ctx context.Context, sessionID string) error
}

// ErrorLogger records a failure in the diagnostic trail. Implementations must
// never return: recording is best effort.
type ErrorLogger interface {
	Log(ctx context.Context, code, message string, logCtx map[string]any, userID string)
}

// Publisher emits domain events after a successful placement.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, data any) error
}

type Service interface {
	ExecuteOrder(ctx context.Context, input OrderInput, lines []CartLine) (*Receipt, error)
	GetOrderByID(ctx context.Context, id uuid.UUID) (*Order, error)
	ListOrders(ctx context.Context) ([]Order, error)
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, newStatus Status) error
}

type service struct {
	repo      Repository
	carts     CartClearer
	errlog    ErrorLogger
	publisher Publisher
}

// NewService builds the order service. carts, errs and publisher may each be
// nil to disable cart clearing, error-log rows and event publishing.
func NewService(repo Repository, carts CartClearer, errs ErrorLogger, publisher Publisher) Service {
	return &service{
		repo:      repo,
		carts:     carts,
		errlog:    errs,
		publisher: publisher,
	}
}

func (s *service) ExecuteOrder(ctx context.Context, input OrderInput, lines []CartLine) (*Receipt, error) {
	start := time.Now()

	receipt, err := s.executeOrder(ctx, input, lines)
	if err != nil {
		if s.errlog != nil {
			s.errlog.Log(ctx, string(CodeOrderExecution), err.Error(), map[string]any{
				"cart_items_count":  len(lines),
				"customer_email":    input.CustomerEmail,
				"execution_time_ms": time.Since(start).Milliseconds(),
			}, input.SessionID)
		}
		log.Error().Err(err).Str("session_id", input.SessionID).Msg("service: order execution failed")
		return nil, err
	}

	log.Info().
		Str("order_number", receipt.OrderNumber).
		Float64("total_amount", receipt.TotalAmount).
		Dur("took", time.Since(start)).
		Msg("service: order completed successfully")

	return receipt, nil
}

func (s *service) executeOrder(ctx context.Context, input OrderInput, lines []CartLine) (*Receipt, error) {
	if err := validateInput(input, lines); err != nil {
		return nil, err
	}

	subtotal, shippingCost, totalAmount := CalculateTotals(lines)
	orderNumber := GenerateOrderNumber()

	o := &Order{
		OrderNumber:     orderNumber,
		UserID:          input.SessionID,
		CustomerName:    input.CustomerName,
		CustomerEmail:   input.CustomerEmail,
		CustomerPhone:   input.CustomerPhone,
		ShippingAddress: input.ShippingAddress,
		Subtotal:        subtotal,
		ShippingCost:    shippingCost,
		TotalAmount:     totalAmount,
		OrderStatus:     StatusPending,
		PaymentStatus:   PaymentPending,
		Notes:           input.Notes,
		Items:           make([]OrderItem, 0, len(lines)),
	}
	for _, line := range lines {
		o.Items = append(o.Items, OrderItem{
			ProductID:     line.ProductID,
			VariantID:     line.VariantID,
			ProductName:   line.ProductName,
			WeightVariant: line.WeightVariant,
			UnitPrice:     line.UnitPrice,
			Quantity:      line.Quantity,
			LineTotal:     line.UnitPrice * float64(line.Quantity),
		})
	}

	if err := s.repo.PlaceOrder(ctx, o); err != nil {
		var tagged *Error
		if errors.As(err, &tagged) {
			return nil, err
		}
		return nil, wrapError(CodeOrderExecution, err, "order placement failed")
	}

	// The order is committed; everything past this point must not fail it.
	if input.SessionID != "" && s.carts != nil {
		if err := s.carts.Clear(ctx, input.SessionID); err != nil {
			log.Warn().Err(err).Str("session_id", input.SessionID).Msg("service: failed to clear cart, but order was successful")
		}
	}

	if s.publisher != nil {
		go s.publishOrderCreated(context.WithoutCancel(ctx), o)
	}

	return &Receipt{
		ID:          o.ID,
		OrderNumber: o.OrderNumber,
		TotalAmount: o.TotalAmount,
		Status:      o.OrderStatus,
	}, nil
}

func validateInput(input OrderInput, lines []CartLine) error {
	if len(lines) == 0 {
		return newError(CodeInvalidInput, "order data and cart items are required")
	}

	required := []struct {
		field string
		value string
	}{
		{"customerName", input.CustomerName},
		{"customerEmail", input.CustomerEmail},
		{"customerPhone", input.CustomerPhone},
		{"shippingAddress", input.ShippingAddress.Street + input.ShippingAddress.City},
	}
	for _, f := range required {
		if f.value == "" {
			return newError(CodeMissingField, "%s is required", f.field)
		}
	}

	for _, line := range lines {
		if line.VariantID == uuid.Nil || line.ProductID == uuid.Nil {
			return newError(CodeInvalidInput, "cart line is missing a product or variant reference")
		}
		if line.Quantity <= 0 {
			return newError(CodeInvalidInput, "quantity for variant %s must be greater than zero", line.VariantID)
		}
	}

	return nil
}

// CalculateTotals returns subtotal, shipping cost and total for the given
// lines. Shipping is free above FreeShippingThreshold, flat otherwise.
func CalculateTotals(lines []CartLine) (subtotal, shippingCost, totalAmount float64) {
	for _, line := range lines {
		subtotal += line.UnitPrice * float64(line.Quantity)
	}

	shippingCost = FlatShippingFee
	if subtotal > FreeShippingThreshold {
		shippingCost = 0
	}

	return subtotal, shippingCost, subtotal + shippingCost
}

// GenerateOrderNumber returns a human-readable identifier of the form
// ORD-YYYYMMDD-RRRR. The 4-digit suffix is random, so numbers generated on
// the same day are distinct with high probability but not guaranteed unique.
func GenerateOrderNumber() string {
	return fmt.Sprintf("ORD-%s-%04d", time.Now().Format("20060102"), rand.Intn(10000))
}

func (s *service) publishOrderCreated(ctx context.Context, o *Order) {
	event := map[string]any{
		"order_id":     o.ID,
		"order_number": o.OrderNumber,
		"total_amount": o.TotalAmount,
		"created_at":   o.CreatedAt,
	}
	if err := s.publisher.Publish(ctx, "order.created", event); err != nil {
		log.Warn().Err(err).Str("order_number", o.OrderNumber).Msg("service: failed to publish order.created event")
	}
}

func (s *service) GetOrderByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			log.Warn().Err(err).Stringer("order_id", id).Msg("service: order not found by id")
			return nil, ErrOrderNotFound
		}
		log.Error().Err(err).Msg("service: failed to fetch order by id in repository")
		return nil, fmt.Errorf("service: failed to fetch order by id: %w", err)
	}
	return o, nil
}

func (s *service) ListOrders(ctx context.Context) ([]Order, error) {
	orders, err := s.repo.List(ctx)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list orders in repository")
		return nil, fmt.Errorf("service: failed to list orders: %w", err)
	}
	return orders, nil
}

func (s *service) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, newStatus Status) error {
	current, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			log.Warn().Err(err).Stringer("order_id", orderID).Stringer("new_status", newStatus).Msg("service: order not found, cannot update status")
			return ErrOrderNotFound
		}
		log.Error().Err(err).Stringer("order_id", orderID).Msg("service: failed to get order for status update")
		return fmt.Errorf("service: failed to get order for status update: %w", err)
	}

	if current.OrderStatus == newStatus {
		log.Info().Stringer("order_id", orderID).Stringer("status", newStatus).Msg("service: order status is already the same, no update needed")
		return nil
	}

	transitions, ok := allowedTransitions[current.OrderStatus]
	if !ok || !transitions[newStatus] {
		log.Warn().
			Stringer("order_id", orderID).
			Stringer("current_status", current.OrderStatus).
			Stringer("new_status", newStatus).
			Msg("service: invalid status transition attempt")
		return fmt.Errorf("%w: from %s to %s", ErrInvalidStatusTransition, current.OrderStatus, newStatus)
	}

	if err := s.repo.UpdateStatus(ctx, orderID, newStatus); err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return ErrOrderNotFound
		}
		log.Error().Err(err).Stringer("order_id", orderID).Stringer("new_status", newStatus).Msg("service: failed to update order status in repository")
		return fmt.Errorf("service: failed to update order status: %w", err)
	}

	log.Info().Stringer("order_id", orderID).Stringer("old_status", current.OrderStatus).Stringer("new_status", newStatus).Msg("service: order status updated")
	return nil
}
