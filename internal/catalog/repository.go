package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

type Repository interface {
	ListProducts(ctx context.Context) ([]Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*Product, error)
	CreateProduct(ctx context.Context, p *Product) error
	UpdateProduct(ctx context.Context, p *Product) error
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	GetVariant(ctx context.Context, id uuid.UUID) (*Variant, error)
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) ListProducts(ctx context.Context) ([]Product, error) {
	queryProducts := `
		SELECT id, name_en, name_ar, price, stock, image_url, created_at, updated_at
		FROM products
		ORDER BY created_at DESC
	`

	productRows, err := r.db.Query(ctx, queryProducts)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query products: %w", err)
	}
	defer productRows.Close()

	productsMap := make(map[uuid.UUID]*Product)
	var productIDs []uuid.UUID

	for productRows.Next() {
		var p Product
		err := productRows.Scan(&p.ID, &p.NameEN, &p.NameAR, &p.Price, &p.Stock, &p.ImageURL, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan product: %w", err)
		}
		p.Variants = make([]Variant, 0)
		productsMap[p.ID] = &p
		productIDs = append(productIDs, p.ID)
	}
	if err = productRows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating products: %w", err)
	}

	if len(productIDs) == 0 {
		return []Product{}, nil
	}

	queryVariants := `
		SELECT id, product_id, weight_variant, price, stock_quantity, created_at, updated_at
		FROM product_variants
		WHERE product_id = ANY($1)
		ORDER BY price
	`
	variantRows, err := r.db.Query(ctx, queryVariants, productIDs)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query product variants: %w", err)
	}
	defer variantRows.Close()

	for variantRows.Next() {
		var v Variant
		err := variantRows.Scan(&v.ID, &v.ProductID, &v.WeightVariant, &v.Price, &v.StockQuantity, &v.CreatedAt, &v.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan product variant: %w", err)
		}
		if p, ok := productsMap[v.ProductID]; ok {
			p.Variants = append(p.Variants, v)
		}
	}
	if err = variantRows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating product variants: %w", err)
	}

	result := make([]Product, 0, len(productIDs))
	for _, id := range productIDs {
		if p, ok := productsMap[id]; ok {
			result = append(result, *p)
		}
	}
	return result, nil
}

func (r *postgresRepository) GetProduct(ctx context.Context, id uuid.UUID) (*Product, error) {
	queryProduct := `
		SELECT id, name_en, name_ar, price, stock, image_url, created_at, updated_at
		FROM products
		WHERE id = $1
	`

	var p Product
	err := r.db.QueryRow(ctx, queryProduct, id).Scan(&p.ID, &p.NameEN, &p.NameAR, &p.Price, &p.Stock, &p.ImageURL, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("repository: failed to select product by id %s: %w", id, err)
	}

	queryVariants := `
		SELECT id, product_id, weight_variant, price, stock_quantity, created_at, updated_at
		FROM product_variants
		WHERE product_id = $1
		ORDER BY price
	`
	rows, err := r.db.Query(ctx, queryVariants, id)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query variants for product id %s: %w", id, err)
	}
	defer rows.Close()

	variants := make([]Variant, 0)
	for rows.Next() {
		var v Variant
		err := rows.Scan(&v.ID, &v.ProductID, &v.WeightVariant, &v.Price, &v.StockQuantity, &v.CreatedAt, &v.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan variant for product id %s: %w", id, err)
		}
		variants = append(variants, v)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating variants for product id %s: %w", id, err)
	}

	p.Variants = variants
	return &p, nil
}

func (r *postgresRepository) CreateProduct(ctx context.Context, p *Product) (err error) {
	if p.ID == uuid.Nil {
		genID, genErr := uuid.NewV4()
		if genErr != nil {
			return fmt.Errorf("repository: failed to generate product ID: %w", genErr)
		}
		p.ID = genID
	}

	tx, beginErr := r.db.Begin(ctx)
	if beginErr != nil {
		return fmt.Errorf("repository: failed to begin transaction: %w", beginErr)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				log.Error().Err(rbErr).Stringer("product_id", p.ID).Msg("repository: failed to rollback product transaction")
			}
		}
	}()

	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	queryProduct := `
		INSERT INTO products (id, name_en, name_ar, price, stock, image_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = tx.Exec(ctx, queryProduct, p.ID, p.NameEN, p.NameAR, p.Price, p.Stock, p.ImageURL, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("repository: failed to insert product: %w", err)
	}

	queryVariant := `
		INSERT INTO product_variants (id, product_id, weight_variant, price, stock_quantity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	for i := range p.Variants {
		v := &p.Variants[i]

		variantID, genErr := uuid.NewV4()
		if genErr != nil {
			return fmt.Errorf("repository: failed to generate variant ID: %w", genErr)
		}
		v.ID = variantID
		v.ProductID = p.ID
		v.CreatedAt = now
		v.UpdatedAt = now

		_, err = tx.Exec(ctx, queryVariant, v.ID, v.ProductID, v.WeightVariant, v.Price, v.StockQuantity, v.CreatedAt, v.UpdatedAt)
		if err != nil {
			return fmt.Errorf("repository: failed to insert variant for product %s: %w", p.ID, err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("repository: failed to commit transaction: %w", err)
	}
	return nil
}

func (r *postgresRepository) UpdateProduct(ctx context.Context, p *Product) error {
	query := `
		UPDATE products
		SET name_en = $1, name_ar = $2, price = $3, stock = $4, image_url = $5, updated_at = $6
		WHERE id = $7
	`

	cmdTag, err := r.db.Exec(ctx, query, p.NameEN, p.NameAR, p.Price, p.Stock, p.ImageURL, time.Now().UTC(), p.ID)
	if err != nil {
		return fmt.Errorf("repository: failed to update product %s: %w", p.ID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *postgresRepository) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("repository: failed to delete product %s: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *postgresRepository) GetVariant(ctx context.Context, id uuid.UUID) (*Variant, error) {
	query := `
		SELECT id, product_id, weight_variant, price, stock_quantity, created_at, updated_at
		FROM product_variants
		WHERE id = $1
	`

	var v Variant
	err := r.db.QueryRow(ctx, query, id).Scan(&v.ID, &v.ProductID, &v.WeightVariant, &v.Price, &v.StockQuantity, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVariantNotFound
		}
		return nil, fmt.Errorf("repository: failed to select variant by id %s: %w", id, err)
	}
	return &v, nil
}
