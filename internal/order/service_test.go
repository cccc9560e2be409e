package order_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/seleena/storefront/internal/order"
)

type mockRepository struct {
	placeOrderFunc   func(ctx context.Context, o *order.Order) error
	getByIDFunc      func(ctx context.Context, id uuid.UUID) (*order.Order, error)
	listFunc         func(ctx context.Context) ([]order.Order, error)
	updateStatusFunc func(ctx context.Context, orderID uuid.UUID, newStatus order.Status) error
}

func (m *mockRepository) PlaceOrder(ctx context.Context, o *order.Order) error {
	return m.placeOrderFunc(ctx, o)
}

func (m *mockRepository) GetByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockRepository) List(ctx context.Context) ([]order.Order, error) {
	return m.listFunc(ctx)
}

func (m *mockRepository) UpdateStatus(ctx context.Context, orderID uuid.UUID, newStatus order.Status) error {
	return m.updateStatusFunc(ctx, orderID, newStatus)
}

type mockCartClearer struct {
	clearFunc  func(ctx context.Context, sessionID string) error
	clearCalls []string
}

func (m *mockCartClearer) Clear(ctx context.Context, sessionID string) error {
	m.clearCalls = append(m.clearCalls, sessionID)
	if m.clearFunc != nil {
		return m.clearFunc(ctx, sessionID)
	}
	return nil
}

type loggedError struct {
	code    string
	message string
	userID  string
}

type mockErrorLogger struct {
	entries []loggedError
}

func (m *mockErrorLogger) Log(ctx context.Context, code, message string, logCtx map[string]any, userID string) {
	m.entries = append(m.entries, loggedError{code: code, message: message, userID: userID})
}

func mustUUID(t *testing.T) uuid.UUID {
	t.Helper()
	id, err := uuid.NewV4()
	if err != nil {
		t.Fatalf("failed to generate uuid: %v", err)
	}
	return id
}

func validInput() order.OrderInput {
	return order.OrderInput{
		SessionID:     "guest_1700000000_abc123",
		CustomerName:  "Ahmed Ali",
		CustomerEmail: "ahmed@example.com",
		CustomerPhone: "+201001234567",
		ShippingAddress: order.ShippingAddress{
			Street:     "12 Nile St",
			City:       "Cairo",
			PostalCode: "11511",
			Country:    "EG",
		},
	}
}

func TestService_ExecuteOrder_Success(t *testing.T) {
	variantID := mustUUID(t)
	productID := mustUUID(t)

	lines := []order.CartLine{
		{
			ProductID:     productID,
			VariantID:     variantID,
			ProductName:   "Premium Majdool Box",
			WeightVariant: "1kg",
			UnitPrice:     100,
			Quantity:      2,
		},
	}

	var placed *order.Order
	repo := &mockRepository{
		placeOrderFunc: func(ctx context.Context, o *order.Order) error {
			o.ID = mustUUID(t)
			placed = o
			return nil
		},
	}
	carts := &mockCartClearer{}
	errs := &mockErrorLogger{}

	svc := order.NewService(repo, carts, errs, nil)
	receipt, err := svc.ExecuteOrder(context.Background(), validInput(), lines)

	assert.NoError(t, err)
	if assert.NotNil(t, receipt) {
		assert.Equal(t, 250.0, receipt.TotalAmount, "subtotal 200 plus flat shipping fee")
		assert.Equal(t, order.StatusPending, receipt.Status)
		assert.Regexp(t, regexp.MustCompile(`^ORD-\d{8}-\d{4}$`), receipt.OrderNumber)
	}

	if assert.NotNil(t, placed) {
		assert.Equal(t, 200.0, placed.Subtotal)
		assert.Equal(t, 50.0, placed.ShippingCost)
		assert.Equal(t, 250.0, placed.TotalAmount)
		assert.Equal(t, order.StatusPending, placed.OrderStatus)
		assert.Equal(t, order.PaymentPending, placed.PaymentStatus)
		if assert.Len(t, placed.Items, 1) {
			assert.Equal(t, 200.0, placed.Items[0].LineTotal)
			assert.Equal(t, "Premium Majdool Box", placed.Items[0].ProductName)
			assert.Equal(t, "1kg", placed.Items[0].WeightVariant)
		}
	}

	assert.Equal(t, []string{"guest_1700000000_abc123"}, carts.clearCalls, "cart should be cleared after success")
	assert.Empty(t, errs.entries, "nothing should be logged on success")
}

func TestService_ExecuteOrder_Validation(t *testing.T) {
	variantID := mustUUID(t)
	productID := mustUUID(t)

	goodLines := []order.CartLine{
		{ProductID: productID, VariantID: variantID, ProductName: "Ajwa Gift Set", WeightVariant: "500g", UnitPrice: 100, Quantity: 1},
	}

	tests := []struct {
		name     string
		mutate   func(input *order.OrderInput, lines *[]order.CartLine)
		wantCode order.Code
	}{
		{
			name:     "empty_cart",
			mutate:   func(input *order.OrderInput, lines *[]order.CartLine) { *lines = nil },
			wantCode: order.CodeInvalidInput,
		},
		{
			name:     "missing_name",
			mutate:   func(input *order.OrderInput, lines *[]order.CartLine) { input.CustomerName = "" },
			wantCode: order.CodeMissingField,
		},
		{
			name:     "missing_email",
			mutate:   func(input *order.OrderInput, lines *[]order.CartLine) { input.CustomerEmail = "" },
			wantCode: order.CodeMissingField,
		},
		{
			name:     "missing_phone",
			mutate:   func(input *order.OrderInput, lines *[]order.CartLine) { input.CustomerPhone = "" },
			wantCode: order.CodeMissingField,
		},
		{
			name: "missing_address",
			mutate: func(input *order.OrderInput, lines *[]order.CartLine) {
				input.ShippingAddress = order.ShippingAddress{}
			},
			wantCode: order.CodeMissingField,
		},
		{
			name: "zero_quantity",
			mutate: func(input *order.OrderInput, lines *[]order.CartLine) {
				(*lines)[0].Quantity = 0
			},
			wantCode: order.CodeInvalidInput,
		},
		{
			name: "nil_variant_reference",
			mutate: func(input *order.OrderInput, lines *[]order.CartLine) {
				(*lines)[0].VariantID = uuid.Nil
			},
			wantCode: order.CodeInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repoCalled := false
			repo := &mockRepository{
				placeOrderFunc: func(ctx context.Context, o *order.Order) error {
					repoCalled = true
					return nil
				},
			}
			errs := &mockErrorLogger{}
			svc := order.NewService(repo, &mockCartClearer{}, errs, nil)

			input := validInput()
			lines := make([]order.CartLine, len(goodLines))
			copy(lines, goodLines)
			tt.mutate(&input, &lines)

			receipt, err := svc.ExecuteOrder(context.Background(), input, lines)

			assert.Nil(t, receipt)
			assert.Error(t, err)
			assert.Equal(t, tt.wantCode, order.CodeOf(err))
			assert.False(t, repoCalled, "validation failures must short-circuit before any write")
			if assert.Len(t, errs.entries, 1) {
				assert.Equal(t, "ERR_ORDER_EXECUTION", errs.entries[0].code)
			}
		})
	}
}

func TestService_ExecuteOrder_RepositoryFailures(t *testing.T) {
	variantID := mustUUID(t)
	productID := mustUUID(t)
	lines := []order.CartLine{
		{ProductID: productID, VariantID: variantID, ProductName: "Sukkari VIP Packet", WeightVariant: "5kg", UnitPrice: 382.5, Quantity: 1},
	}

	tests := []struct {
		name     string
		repoErr  error
		wantCode order.Code
	}{
		{
			name:     "insufficient_stock",
			repoErr:  &order.Error{Code: order.CodeInsufficientStock, Detail: "5kg - only 0 available, requested 1"},
			wantCode: order.CodeInsufficientStock,
		},
		{
			name:     "variant_not_found",
			repoErr:  &order.Error{Code: order.CodeVariantNotFound, Detail: "variant not found"},
			wantCode: order.CodeVariantNotFound,
		},
		{
			name:     "untagged_error_becomes_execution_failure",
			repoErr:  errors.New("connection reset"),
			wantCode: order.CodeOrderExecution,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockRepository{
				placeOrderFunc: func(ctx context.Context, o *order.Order) error {
					return tt.repoErr
				},
			}
			carts := &mockCartClearer{}
			errs := &mockErrorLogger{}
			svc := order.NewService(repo, carts, errs, nil)

			receipt, err := svc.ExecuteOrder(context.Background(), validInput(), lines)

			assert.Nil(t, receipt)
			assert.Error(t, err)
			assert.Equal(t, tt.wantCode, order.CodeOf(err))
			assert.Empty(t, carts.clearCalls, "cart must survive a failed order")
			assert.Len(t, errs.entries, 1, "every failure writes one diagnostic row")
		})
	}
}

func TestService_ExecuteOrder_CartClearFailureIsSwallowed(t *testing.T) {
	variantID := mustUUID(t)
	productID := mustUUID(t)
	lines := []order.CartLine{
		{ProductID: productID, VariantID: variantID, ProductName: "Premium Majdool Box", WeightVariant: "1kg", UnitPrice: 120, Quantity: 1},
	}

	repo := &mockRepository{
		placeOrderFunc: func(ctx context.Context, o *order.Order) error {
			o.ID = mustUUID(t)
			return nil
		},
	}
	carts := &mockCartClearer{
		clearFunc: func(ctx context.Context, sessionID string) error {
			return errors.New("cart table unavailable")
		},
	}

	svc := order.NewService(repo, carts, &mockErrorLogger{}, nil)
	receipt, err := svc.ExecuteOrder(context.Background(), validInput(), lines)

	assert.NoError(t, err, "order integrity outranks cart hygiene")
	assert.NotNil(t, receipt)
	assert.Len(t, carts.clearCalls, 1)
}

func TestService_ExecuteOrder_GuestWithoutSessionSkipsCartClear(t *testing.T) {
	variantID := mustUUID(t)
	productID := mustUUID(t)
	lines := []order.CartLine{
		{ProductID: productID, VariantID: variantID, ProductName: "Premium Majdool Box", WeightVariant: "1kg", UnitPrice: 120, Quantity: 1},
	}

	repo := &mockRepository{
		placeOrderFunc: func(ctx context.Context, o *order.Order) error {
			o.ID = mustUUID(t)
			return nil
		},
	}
	carts := &mockCartClearer{}

	input := validInput()
	input.SessionID = ""

	svc := order.NewService(repo, carts, &mockErrorLogger{}, nil)
	receipt, err := svc.ExecuteOrder(context.Background(), input, lines)

	assert.NoError(t, err)
	assert.NotNil(t, receipt)
	assert.Empty(t, carts.clearCalls)
}

type mockPublisher struct {
	published chan string
}

func (m *mockPublisher) Publish(ctx context.Context, routingKey string, data any) error {
	m.published <- routingKey
	return nil
}

func TestService_ExecuteOrder_PublishesOrderCreated(t *testing.T) {
	variantID := mustUUID(t)
	productID := mustUUID(t)
	lines := []order.CartLine{
		{ProductID: productID, VariantID: variantID, ProductName: "Premium Majdool Box", WeightVariant: "1kg", UnitPrice: 120, Quantity: 1},
	}

	repo := &mockRepository{
		placeOrderFunc: func(ctx context.Context, o *order.Order) error {
			o.ID = mustUUID(t)
			return nil
		},
	}
	publisher := &mockPublisher{published: make(chan string, 1)}

	svc := order.NewService(repo, &mockCartClearer{}, &mockErrorLogger{}, publisher)
	_, err := svc.ExecuteOrder(context.Background(), validInput(), lines)
	assert.NoError(t, err)

	select {
	case routingKey := <-publisher.published:
		assert.Equal(t, "order.created", routingKey)
	case <-time.After(time.Second):
		t.Fatal("expected order.created event to be published")
	}
}

func TestCalculateTotals(t *testing.T) {
	tests := []struct {
		name         string
		lines        []order.CartLine
		wantSubtotal float64
		wantShipping float64
		wantTotal    float64
	}{
		{
			name:         "flat_fee_below_threshold",
			lines:        []order.CartLine{{UnitPrice: 100, Quantity: 2}},
			wantSubtotal: 200,
			wantShipping: 50,
			wantTotal:    250,
		},
		{
			name:         "flat_fee_at_threshold",
			lines:        []order.CartLine{{UnitPrice: 250, Quantity: 2}},
			wantSubtotal: 500,
			wantShipping: 50,
			wantTotal:    550,
		},
		{
			name:         "free_above_threshold",
			lines:        []order.CartLine{{UnitPrice: 250.5, Quantity: 2}},
			wantSubtotal: 501,
			wantShipping: 0,
			wantTotal:    501,
		},
		{
			name: "multiple_lines",
			lines: []order.CartLine{
				{UnitPrice: 60, Quantity: 1},
				{UnitPrice: 120, Quantity: 2},
			},
			wantSubtotal: 300,
			wantShipping: 50,
			wantTotal:    350,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subtotal, shipping, total := order.CalculateTotals(tt.lines)
			assert.Equal(t, tt.wantSubtotal, subtotal)
			assert.Equal(t, tt.wantShipping, shipping)
			assert.Equal(t, tt.wantTotal, total)
		})
	}
}

func TestGenerateOrderNumber(t *testing.T) {
	number := order.GenerateOrderNumber()

	assert.Regexp(t, regexp.MustCompile(`^ORD-\d{8}-\d{4}$`), number)
	assert.Equal(t, "ORD-"+time.Now().Format("20060102"), number[:12])
}

func TestService_UpdateOrderStatus(t *testing.T) {
	orderID := uuid.FromStringOrNil("550e8400-e29b-41d4-a716-446655440000")

	tests := []struct {
		name          string
		currentStatus order.Status
		newStatus     order.Status
		wantErr       error
		wantUpdated   bool
	}{
		{
			name:          "pending_to_processing",
			currentStatus: order.StatusPending,
			newStatus:     order.StatusProcessing,
			wantUpdated:   true,
		},
		{
			name:          "shipped_to_delivered",
			currentStatus: order.StatusShipped,
			newStatus:     order.StatusDelivered,
			wantUpdated:   true,
		},
		{
			name:          "same_status_is_noop",
			currentStatus: order.StatusPending,
			newStatus:     order.StatusPending,
			wantUpdated:   false,
		},
		{
			name:          "delivered_is_terminal",
			currentStatus: order.StatusDelivered,
			newStatus:     order.StatusPending,
			wantErr:       order.ErrInvalidStatusTransition,
			wantUpdated:   false,
		},
		{
			name:          "pending_cannot_skip_to_delivered",
			currentStatus: order.StatusPending,
			newStatus:     order.StatusDelivered,
			wantErr:       order.ErrInvalidStatusTransition,
			wantUpdated:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			updated := false
			repo := &mockRepository{
				getByIDFunc: func(ctx context.Context, id uuid.UUID) (*order.Order, error) {
					return &order.Order{ID: id, OrderStatus: tt.currentStatus}, nil
				},
				updateStatusFunc: func(ctx context.Context, orderID uuid.UUID, newStatus order.Status) error {
					updated = true
					return nil
				},
			}
			svc := order.NewService(repo, nil, nil, nil)

			err := svc.UpdateOrderStatus(context.Background(), orderID, tt.newStatus)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantUpdated, updated)
		})
	}
}

func TestService_UpdateOrderStatus_NotFound(t *testing.T) {
	repo := &mockRepository{
		getByIDFunc: func(ctx context.Context, id uuid.UUID) (*order.Order, error) {
			return nil, order.ErrOrderNotFound
		},
	}
	svc := order.NewService(repo, nil, nil, nil)

	err := svc.UpdateOrderStatus(context.Background(), uuid.FromStringOrNil("999e8400-e29b-41d4-a716-446655440000"), order.StatusProcessing)
	assert.ErrorIs(t, err, order.ErrOrderNotFound)
}
