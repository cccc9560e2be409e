package cart_test

import (
	"context"
	"errors"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/seleena/storefront/internal/cart"
	"github.com/seleena/storefront/internal/catalog"
)

type mockRepository struct {
	listByUserFunc           func(ctx context.Context, userID string) ([]cart.Item, error)
	findByUserAndVariantFunc func(ctx context.Context, userID string, variantID uuid.UUID) (*cart.CartItem, error)
	insertFunc               func(ctx context.Context, item *cart.CartItem) error
	updateQuantityFunc       func(ctx context.Context, id uuid.UUID, userID string, quantity int) error
	deleteFunc               func(ctx context.Context, id uuid.UUID, userID string) error
	deleteByUserFunc         func(ctx context.Context, userID string) error
}

func (m *mockRepository) ListByUser(ctx context.Context, userID string) ([]cart.Item, error) {
	return m.listByUserFunc(ctx, userID)
}

func (m *mockRepository) FindByUserAndVariant(ctx context.Context, userID string, variantID uuid.UUID) (*cart.CartItem, error) {
	if m.findByUserAndVariantFunc != nil {
		return m.findByUserAndVariantFunc(ctx, userID, variantID)
	}
	return nil, nil
}

func (m *mockRepository) Insert(ctx context.Context, item *cart.CartItem) error {
	return m.insertFunc(ctx, item)
}

func (m *mockRepository) UpdateQuantity(ctx context.Context, id uuid.UUID, userID string, quantity int) error {
	return m.updateQuantityFunc(ctx, id, userID, quantity)
}

func (m *mockRepository) Delete(ctx context.Context, id uuid.UUID, userID string) error {
	return m.deleteFunc(ctx, id, userID)
}

func (m *mockRepository) DeleteByUser(ctx context.Context, userID string) error {
	return m.deleteByUserFunc(ctx, userID)
}

type mockVariantGetter struct {
	variants map[uuid.UUID]*catalog.Variant
}

func (m *mockVariantGetter) GetVariant(ctx context.Context, id uuid.UUID) (*catalog.Variant, error) {
	v, ok := m.variants[id]
	if !ok {
		return nil, catalog.ErrVariantNotFound
	}
	return v, nil
}

type loggedError struct {
	code   string
	userID string
}

type mockErrorLogger struct {
	entries []loggedError
}

func (m *mockErrorLogger) Log(ctx context.Context, code, message string, logCtx map[string]any, userID string) {
	m.entries = append(m.entries, loggedError{code: code, userID: userID})
}

const testSession = "guest_1700000000_abc123"

func mustUUID(t *testing.T) uuid.UUID {
	t.Helper()
	id, err := uuid.NewV4()
	if err != nil {
		t.Fatalf("failed to generate uuid: %v", err)
	}
	return id
}

func TestService_AddItem_NewItem(t *testing.T) {
	productID := mustUUID(t)
	variantID := mustUUID(t)

	var inserted *cart.CartItem
	repo := &mockRepository{
		insertFunc: func(ctx context.Context, item *cart.CartItem) error {
			inserted = item
			return nil
		},
	}
	variants := &mockVariantGetter{variants: map[uuid.UUID]*catalog.Variant{
		variantID: {ID: variantID, ProductID: productID, WeightVariant: "1kg", Price: 120, StockQuantity: 10},
	}}
	errs := &mockErrorLogger{}

	svc := cart.NewService(repo, variants, errs)
	err := svc.AddItem(context.Background(), testSession, productID, variantID, 3)

	assert.NoError(t, err)
	want := &cart.CartItem{
		UserID:    testSession,
		ProductID: productID,
		VariantID: variantID,
		Quantity:  3,
	}
	if diff := cmp.Diff(want, inserted); diff != "" {
		t.Errorf("inserted cart item mismatch (-want +got):\n%s", diff)
	}
	assert.Empty(t, errs.entries)
}

func TestService_AddItem_MergesExistingLine(t *testing.T) {
	productID := mustUUID(t)
	variantID := mustUUID(t)
	existingID := mustUUID(t)

	var mergedQuantity int
	repo := &mockRepository{
		findByUserAndVariantFunc: func(ctx context.Context, userID string, vid uuid.UUID) (*cart.CartItem, error) {
			return &cart.CartItem{ID: existingID, UserID: userID, ProductID: productID, VariantID: vid, Quantity: 2}, nil
		},
		updateQuantityFunc: func(ctx context.Context, id uuid.UUID, userID string, quantity int) error {
			assert.Equal(t, existingID, id)
			mergedQuantity = quantity
			return nil
		},
	}
	variants := &mockVariantGetter{variants: map[uuid.UUID]*catalog.Variant{
		variantID: {ID: variantID, ProductID: productID, WeightVariant: "1kg", Price: 120, StockQuantity: 10},
	}}

	svc := cart.NewService(repo, variants, &mockErrorLogger{})
	err := svc.AddItem(context.Background(), testSession, productID, variantID, 3)

	assert.NoError(t, err)
	assert.Equal(t, 5, mergedQuantity)
}

func TestService_AddItem_Failures(t *testing.T) {
	productID := mustUUID(t)
	variantID := mustUUID(t)
	unknownVariantID := mustUUID(t)

	variants := &mockVariantGetter{variants: map[uuid.UUID]*catalog.Variant{
		variantID: {ID: variantID, ProductID: productID, WeightVariant: "500g", Price: 60, StockQuantity: 4},
	}}

	tests := []struct {
		name      string
		variantID uuid.UUID
		quantity  int
		existing  *cart.CartItem
		wantErr   error
		wantCode  string
	}{
		{
			name:      "variant_not_found",
			variantID: unknownVariantID,
			quantity:  1,
			wantErr:   cart.ErrVariantNotFound,
			wantCode:  "ERR_VARIANT_NOT_FOUND",
		},
		{
			name:      "insufficient_stock",
			variantID: variantID,
			quantity:  5,
			wantErr:   cart.ErrInsufficientStock,
			wantCode:  "ERR_INSUFFICIENT_STOCK",
		},
		{
			name:      "merge_would_exceed_stock",
			variantID: variantID,
			quantity:  2,
			existing:  &cart.CartItem{Quantity: 3},
			wantErr:   cart.ErrInsufficientStock,
			wantCode:  "ERR_INSUFFICIENT_STOCK",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockRepository{
				findByUserAndVariantFunc: func(ctx context.Context, userID string, vid uuid.UUID) (*cart.CartItem, error) {
					return tt.existing, nil
				},
				insertFunc: func(ctx context.Context, item *cart.CartItem) error {
					t.Fatal("insert must not be reached")
					return nil
				},
			}
			errs := &mockErrorLogger{}

			svc := cart.NewService(repo, variants, errs)
			err := svc.AddItem(context.Background(), testSession, productID, tt.variantID, tt.quantity)

			assert.ErrorIs(t, err, tt.wantErr)
			if assert.Len(t, errs.entries, 1) {
				assert.Equal(t, tt.wantCode, errs.entries[0].code)
				assert.Equal(t, testSession, errs.entries[0].userID)
			}
		})
	}
}

func TestService_AddItem_RejectsNonPositiveQuantity(t *testing.T) {
	svc := cart.NewService(&mockRepository{}, &mockVariantGetter{}, nil)

	err := svc.AddItem(context.Background(), testSession, mustUUID(t), mustUUID(t), 0)
	assert.Error(t, err)
}

func TestService_UpdateQuantity_BelowOneRemovesItem(t *testing.T) {
	itemID := mustUUID(t)

	removed := false
	repo := &mockRepository{
		deleteFunc: func(ctx context.Context, id uuid.UUID, userID string) error {
			assert.Equal(t, itemID, id)
			removed = true
			return nil
		},
		updateQuantityFunc: func(ctx context.Context, id uuid.UUID, userID string, quantity int) error {
			t.Fatal("update must not be reached for zero quantity")
			return nil
		},
	}

	svc := cart.NewService(repo, &mockVariantGetter{}, nil)
	err := svc.UpdateQuantity(context.Background(), testSession, itemID, 0)

	assert.NoError(t, err)
	assert.True(t, removed)
}

func TestService_UpdateQuantity_UnknownItem(t *testing.T) {
	repo := &mockRepository{
		updateQuantityFunc: func(ctx context.Context, id uuid.UUID, userID string, quantity int) error {
			return cart.ErrItemNotFound
		},
	}

	svc := cart.NewService(repo, &mockVariantGetter{}, nil)
	err := svc.UpdateQuantity(context.Background(), testSession, mustUUID(t), 2)

	assert.ErrorIs(t, err, cart.ErrItemNotFound)
}

func TestService_Clear(t *testing.T) {
	tests := []struct {
		name     string
		repoErr  error
		wantErr  bool
		wantLogs int
	}{
		{name: "success", wantLogs: 0},
		{name: "repo_failure_is_logged", repoErr: errors.New("connection refused"), wantErr: true, wantLogs: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockRepository{
				deleteByUserFunc: func(ctx context.Context, userID string) error {
					assert.Equal(t, testSession, userID)
					return tt.repoErr
				},
			}
			errs := &mockErrorLogger{}

			svc := cart.NewService(repo, &mockVariantGetter{}, errs)
			err := svc.Clear(context.Background(), testSession)

			if tt.wantErr {
				assert.Error(t, err)
				if assert.Len(t, errs.entries, tt.wantLogs) {
					assert.Equal(t, "ERR_CLEAR_CART", errs.entries[0].code)
				}
			} else {
				assert.NoError(t, err)
				assert.Empty(t, errs.entries)
			}
		})
	}
}
