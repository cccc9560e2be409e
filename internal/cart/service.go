package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/seleena/storefront/internal/catalog"
)

// VariantGetter is the slice of the catalog the cart needs: stock and price
// checks on a single variant.
type VariantGetter interface {
	GetVariant(ctx context.Context, id uuid.UUID) (*catalog.Variant, error)
}

// ErrorLogger records cart failures in the diagnostic trail, best effort.
type ErrorLogger interface {
	Log(ctx context.Context, code, message string, logCtx map[string]any, userID string)
}

type Service interface {
	Get(ctx context.Context, sessionID string) ([]Item, error)
	AddItem(ctx context.Context, sessionID string, productID, variantID uuid.UUID, quantity int) error
	UpdateQuantity(ctx context.Context, sessionID string, itemID uuid.UUID, quantity int) error
	RemoveItem(ctx context.Context, sessionID string, itemID uuid.UUID) error
	Clear(ctx context.Context, sessionID string) error
}

type service struct {
	repo     Repository
	variants VariantGetter
	errlog   ErrorLogger
}

func NewService(repo Repository, variants VariantGetter, errs ErrorLogger) Service {
	return &service{repo: repo, variants: variants, errlog: errs}
}

func (s *service) Get(ctx context.Context, sessionID string) ([]Item, error) {
	items, err := s.repo.ListByUser(ctx, sessionID)
	if err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("service: failed to load cart")
		return nil, fmt.Errorf("service: failed to load cart: %w", err)
	}
	return items, nil
}

func (s *service) AddItem(ctx context.Context, sessionID string, productID, variantID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return errors.New("service: quantity must be greater than zero")
	}

	variant, err := s.variants.GetVariant(ctx, variantID)
	if err != nil {
		if errors.Is(err, catalog.ErrVariantNotFound) {
			s.logError(ctx, sessionID, "ERR_VARIANT_NOT_FOUND", "product variant not found", productID, variantID, quantity)
			return ErrVariantNotFound
		}
		return fmt.Errorf("service: failed to validate variant: %w", err)
	}

	if variant.StockQuantity < quantity {
		s.logError(ctx, sessionID, "ERR_INSUFFICIENT_STOCK",
			fmt.Sprintf("only %d items available", variant.StockQuantity), productID, variantID, quantity)
		return fmt.Errorf("%w: only %d items available", ErrInsufficientStock, variant.StockQuantity)
	}

	existing, err := s.repo.FindByUserAndVariant(ctx, sessionID, variantID)
	if err != nil {
		return fmt.Errorf("service: failed to check existing cart item: %w", err)
	}

	if existing != nil {
		newQuantity := existing.Quantity + quantity
		if newQuantity > variant.StockQuantity {
			s.logError(ctx, sessionID, "ERR_INSUFFICIENT_STOCK",
				fmt.Sprintf("cannot add more than %d items", variant.StockQuantity), productID, variantID, quantity)
			return fmt.Errorf("%w: cannot add more than %d items", ErrInsufficientStock, variant.StockQuantity)
		}
		if err := s.repo.UpdateQuantity(ctx, existing.ID, sessionID, newQuantity); err != nil {
			s.logError(ctx, sessionID, "ERR_ADD_TO_CART", err.Error(), productID, variantID, quantity)
			return fmt.Errorf("service: failed to update cart item quantity: %w", err)
		}
		return nil
	}

	item := &CartItem{
		UserID:    sessionID,
		ProductID: productID,
		VariantID: variantID,
		Quantity:  quantity,
	}
	if err := s.repo.Insert(ctx, item); err != nil {
		s.logError(ctx, sessionID, "ERR_ADD_TO_CART", err.Error(), productID, variantID, quantity)
		return fmt.Errorf("service: failed to add item to cart: %w", err)
	}
	return nil
}

func (s *service) UpdateQuantity(ctx context.Context, sessionID string, itemID uuid.UUID, quantity int) error {
	if quantity < 1 {
		return s.RemoveItem(ctx, sessionID, itemID)
	}

	if err := s.repo.UpdateQuantity(ctx, itemID, sessionID, quantity); err != nil {
		if errors.Is(err, ErrItemNotFound) {
			return ErrItemNotFound
		}
		if s.errlog != nil {
			s.errlog.Log(ctx, "ERR_UPDATE_CART", err.Error(), map[string]any{
				"cart_item_id": itemID,
				"new_quantity": quantity,
			}, sessionID)
		}
		return fmt.Errorf("service: failed to update quantity: %w", err)
	}
	return nil
}

func (s *service) RemoveItem(ctx context.Context, sessionID string, itemID uuid.UUID) error {
	if err := s.repo.Delete(ctx, itemID, sessionID); err != nil {
		if errors.Is(err, ErrItemNotFound) {
			return ErrItemNotFound
		}
		if s.errlog != nil {
			s.errlog.Log(ctx, "ERR_REMOVE_FROM_CART", err.Error(), map[string]any{
				"cart_item_id": itemID,
			}, sessionID)
		}
		return fmt.Errorf("service: failed to remove cart item: %w", err)
	}
	return nil
}

func (s *service) Clear(ctx context.Context, sessionID string) error {
	if err := s.repo.DeleteByUser(ctx, sessionID); err != nil {
		if s.errlog != nil {
			s.errlog.Log(ctx, "ERR_CLEAR_CART", err.Error(), map[string]any{}, sessionID)
		}
		return fmt.Errorf("service: failed to clear cart: %w", err)
	}
	return nil
}

func (s *service) logError(ctx context.Context, sessionID, code, message string, productID, variantID uuid.UUID, quantity int) {
	if s.errlog == nil {
		return
	}
	s.errlog.Log(ctx, code, message, map[string]any{
		"product_id": productID,
		"variant_id": variantID,
		"quantity":   quantity,
	}, sessionID)
}
