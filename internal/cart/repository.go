package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	ListByUser(ctx context.Context, userID string) ([]Item, error)
	// FindByUserAndVariant returns nil without error when no row exists.
	FindByUserAndVariant(ctx context.Context, userID string, variantID uuid.UUID) (*CartItem, error)
	Insert(ctx context.Context, item *CartItem) error
	UpdateQuantity(ctx context.Context, id uuid.UUID, userID string, quantity int) error
	Delete(ctx context.Context, id uuid.UUID, userID string) error
	DeleteByUser(ctx context.Context, userID string) error
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) ListByUser(ctx context.Context, userID string) ([]Item, error) {
	query := `
		SELECT ci.id, ci.user_id, ci.product_id, ci.variant_id, ci.quantity,
			p.name_en, p.name_ar, p.image_url,
			pv.weight_variant, pv.price, pv.stock_quantity,
			ci.created_at
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		JOIN product_variants pv ON pv.id = ci.variant_id
		WHERE ci.user_id = $1
		ORDER BY ci.created_at
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query cart items for user %s: %w", userID, err)
	}
	defer rows.Close()

	items := make([]Item, 0)
	for rows.Next() {
		var item Item
		err := rows.Scan(
			&item.ID,
			&item.UserID,
			&item.ProductID,
			&item.VariantID,
			&item.Quantity,
			&item.ProductNameEN,
			&item.ProductNameAR,
			&item.ImageURL,
			&item.WeightVariant,
			&item.UnitPrice,
			&item.StockQuantity,
			&item.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan cart item for user %s: %w", userID, err)
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating cart items for user %s: %w", userID, err)
	}

	return items, nil
}

func (r *postgresRepository) FindByUserAndVariant(ctx context.Context, userID string, variantID uuid.UUID) (*CartItem, error) {
	query := `
		SELECT id, user_id, product_id, variant_id, quantity, created_at
		FROM cart_items
		WHERE user_id = $1 AND variant_id = $2
	`

	var item CartItem
	err := r.db.QueryRow(ctx, query, userID, variantID).Scan(
		&item.ID, &item.UserID, &item.ProductID, &item.VariantID, &item.Quantity, &item.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("repository: failed to find cart item for user %s: %w", userID, err)
	}
	return &item, nil
}

func (r *postgresRepository) Insert(ctx context.Context, item *CartItem) error {
	if item.ID == uuid.Nil {
		genID, err := uuid.NewV4()
		if err != nil {
			return fmt.Errorf("repository: failed to generate cart item ID: %w", err)
		}
		item.ID = genID
	}

	query := `
		INSERT INTO cart_items (id, user_id, product_id, variant_id, quantity)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`
	err := r.db.QueryRow(ctx, query, item.ID, item.UserID, item.ProductID, item.VariantID, item.Quantity).Scan(&item.CreatedAt)
	if err != nil {
		return fmt.Errorf("repository: failed to insert cart item: %w", err)
	}
	return nil
}

func (r *postgresRepository) UpdateQuantity(ctx context.Context, id uuid.UUID, userID string, quantity int) error {
	query := `
		UPDATE cart_items
		SET quantity = $1
		WHERE id = $2 AND user_id = $3
	`

	cmdTag, err := r.db.Exec(ctx, query, quantity, id, userID)
	if err != nil {
		return fmt.Errorf("repository: failed to update cart item %s: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, id uuid.UUID, userID string) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM cart_items WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("repository: failed to delete cart item %s: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (r *postgresRepository) DeleteByUser(ctx context.Context, userID string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("repository: failed to clear cart for user %s: %w", userID, err)
	}
	return nil
}
