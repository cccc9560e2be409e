package order

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
	// PlaceOrder inserts the order header and all items and decrements variant
	// stock in a single transaction. Failures leave no trace of the order.
	PlaceOrder(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	List(ctx context.Context) ([]Order, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, newStatus Status) error
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) PlaceOrder(ctx context.Context, o *Order) (err error) {
	if o.ID == uuid.Nil {
		genID, genErr := uuid.NewV4()
		if genErr != nil {
			return wrapError(CodeOrderCreate, genErr, "failed to generate order ID")
		}
		o.ID = genID
	}

	tx, beginErr := r.db.Begin(ctx)
	if beginErr != nil {
		return wrapError(CodeOrderExecution, beginErr, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			log.Warn().Err(err).Str("order_number", o.OrderNumber).Msg("repository: order transaction failed, rolling back")
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				log.Error().Err(rbErr).Str("order_number", o.OrderNumber).Msg("repository: failed to rollback transaction")
			}
		}
	}()

	// Inventory check before any write. The conditional decrement below is
	// the actual guard; this pass exists to reject the whole order up front
	// and to report the shortfall per variant.
	for i := range o.Items {
		item := &o.Items[i]

		var available int
		var weightVariant string
		err = tx.QueryRow(ctx,
			`SELECT stock_quantity, weight_variant FROM product_variants WHERE id = $1`,
			item.VariantID,
		).Scan(&available, &weightVariant)
		if errors.Is(err, pgx.ErrNoRows) {
			return newError(CodeVariantNotFound, "variant %s not found", item.VariantID)
		}
		if err != nil {
			return wrapError(CodeStockFetch, err, "failed to fetch stock for variant %s", item.VariantID)
		}
		if available < item.Quantity {
			return newError(CodeInsufficientStock, "%s - only %d available, requested %d",
				weightVariant, available, item.Quantity)
		}
	}

	now := time.Now().UTC()
	o.CreatedAt = now
	o.UpdatedAt = now

	queryOrder := `
		INSERT INTO orders_v2 (id, order_number, user_id, customer_name, customer_email, customer_phone,
			shipping_street, shipping_city, shipping_postal, shipping_country,
			subtotal, shipping_cost, total_amount, order_status, payment_status, notes, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, NULLIF($16, ''), $17, $18)
	`
	_, err = tx.Exec(ctx, queryOrder,
		o.ID,
		o.OrderNumber,
		o.UserID,
		o.CustomerName,
		o.CustomerEmail,
		o.CustomerPhone,
		o.ShippingAddress.Street,
		o.ShippingAddress.City,
		o.ShippingAddress.PostalCode,
		o.ShippingAddress.Country,
		o.Subtotal,
		o.ShippingCost,
		o.TotalAmount,
		string(o.OrderStatus),
		string(o.PaymentStatus),
		o.Notes,
		o.CreatedAt,
		o.UpdatedAt,
	)
	if err != nil {
		return wrapError(CodeOrderCreate, err, "failed to insert order")
	}

	queryItem := `
		INSERT INTO order_items (id, order_id, product_id, variant_id, product_name, weight_variant,
			unit_price, quantity, line_total, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	for i := range o.Items {
		item := &o.Items[i]

		itemID, genErr := uuid.NewV4()
		if genErr != nil {
			return wrapError(CodeOrderItemCreate, genErr, "failed to generate order item ID")
		}
		item.ID = itemID
		item.OrderID = o.ID
		item.CreatedAt = now

		_, err = tx.Exec(ctx, queryItem,
			item.ID,
			item.OrderID,
			item.ProductID,
			item.VariantID,
			item.ProductName,
			item.WeightVariant,
			item.UnitPrice,
			item.Quantity,
			item.LineTotal,
			item.CreatedAt,
		)
		if err != nil {
			return wrapError(CodeOrderItemCreate, err, "failed to insert order item for order %s", o.ID)
		}

		// Atomic conditional decrement. Zero rows means the stock moved
		// under us since the check above and the order must not go through.
		cmdTag, execErr := tx.Exec(ctx,
			`UPDATE product_variants SET stock_quantity = stock_quantity - $1, updated_at = $2
			 WHERE id = $3 AND stock_quantity >= $1`,
			item.Quantity, now, item.VariantID,
		)
		if execErr != nil {
			err = wrapError(CodeStockUpdate, execErr, "failed to update stock for variant %s", item.VariantID)
			return err
		}
		if cmdTag.RowsAffected() == 0 {
			err = newError(CodeNegativeStock, "cannot deduct %d from variant %s", item.Quantity, item.VariantID)
			return err
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return wrapError(CodeOrderExecution, err, "failed to commit transaction")
	}
	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, orderID uuid.UUID) (*Order, error) {
	queryOrder := `
		SELECT id, order_number, COALESCE(user_id, ''), customer_name, customer_email, customer_phone,
			shipping_street, shipping_city, shipping_postal, shipping_country,
			subtotal, shipping_cost, total_amount, order_status, payment_status, COALESCE(notes, ''),
			created_at, updated_at
		FROM orders_v2
		WHERE id = $1
	`

	var o Order
	err := r.db.QueryRow(ctx, queryOrder, orderID).Scan(
		&o.ID,
		&o.OrderNumber,
		&o.UserID,
		&o.CustomerName,
		&o.CustomerEmail,
		&o.CustomerPhone,
		&o.ShippingAddress.Street,
		&o.ShippingAddress.City,
		&o.ShippingAddress.PostalCode,
		&o.ShippingAddress.Country,
		&o.Subtotal,
		&o.ShippingCost,
		&o.TotalAmount,
		&o.OrderStatus,
		&o.PaymentStatus,
		&o.Notes,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("repository: failed to select order by id %s: %w", orderID, err)
	}

	queryItems := `
		SELECT id, order_id, product_id, variant_id, product_name, weight_variant,
			unit_price, quantity, line_total, created_at
		FROM order_items
		WHERE order_id = $1
	`
	rows, err := r.db.Query(ctx, queryItems, orderID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query order items for order id %s: %w", orderID, err)
	}
	defer rows.Close()

	items := make([]OrderItem, 0)
	for rows.Next() {
		var item OrderItem
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.VariantID,
			&item.ProductName,
			&item.WeightVariant,
			&item.UnitPrice,
			&item.Quantity,
			&item.LineTotal,
			&item.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order item for order id %s: %w", orderID, err)
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating order items for order id %s: %w", orderID, err)
	}

	o.Items = items
	return &o, nil
}

func (r *postgresRepository) List(ctx context.Context) ([]Order, error) {
	queryOrders := `
		SELECT id, order_number, COALESCE(user_id, ''), customer_name, customer_email, customer_phone,
			shipping_street, shipping_city, shipping_postal, shipping_country,
			subtotal, shipping_cost, total_amount, order_status, payment_status, COALESCE(notes, ''),
			created_at, updated_at
		FROM orders_v2
		ORDER BY created_at DESC
	`

	orderRows, err := r.db.Query(ctx, queryOrders)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query orders: %w", err)
	}
	defer orderRows.Close()

	ordersMap := make(map[uuid.UUID]*Order)
	var orderIDs []uuid.UUID

	for orderRows.Next() {
		var o Order
		err := orderRows.Scan(
			&o.ID,
			&o.OrderNumber,
			&o.UserID,
			&o.CustomerName,
			&o.CustomerEmail,
			&o.CustomerPhone,
			&o.ShippingAddress.Street,
			&o.ShippingAddress.City,
			&o.ShippingAddress.PostalCode,
			&o.ShippingAddress.Country,
			&o.Subtotal,
			&o.ShippingCost,
			&o.TotalAmount,
			&o.OrderStatus,
			&o.PaymentStatus,
			&o.Notes,
			&o.CreatedAt,
			&o.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order: %w", err)
		}
		o.Items = make([]OrderItem, 0)
		ordersMap[o.ID] = &o
		orderIDs = append(orderIDs, o.ID)
	}
	if err = orderRows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating orders: %w", err)
	}

	if len(orderIDs) == 0 {
		return []Order{}, nil
	}

	queryItems := `
		SELECT id, order_id, product_id, variant_id, product_name, weight_variant,
			unit_price, quantity, line_total, created_at
		FROM order_items
		WHERE order_id = ANY($1)
	`
	itemRows, err := r.db.Query(ctx, queryItems, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query order items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var item OrderItem
		err := itemRows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.VariantID,
			&item.ProductName,
			&item.WeightVariant,
			&item.UnitPrice,
			&item.Quantity,
			&item.LineTotal,
			&item.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order item: %w", err)
		}
		if o, ok := ordersMap[item.OrderID]; ok {
			o.Items = append(o.Items, item)
		}
	}
	if err = itemRows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating order items: %w", err)
	}

	result := make([]Order, 0, len(orderIDs))
	for _, id := range orderIDs {
		if o, ok := ordersMap[id]; ok {
			result = append(result, *o)
		}
	}
	return result, nil
}

func (r *postgresRepository) UpdateStatus(ctx context.Context, orderID uuid.UUID, newStatus Status) error {
	query := `
		UPDATE orders_v2
		SET order_status = $1, updated_at = $2
		WHERE id = $3
	`

	cmdTag, err := r.db.Exec(ctx, query, string(newStatus), time.Now().UTC(), orderID)
	if err != nil {
		log.Error().Err(err).Stringer("order_id", orderID).Str("new_status", string(newStatus)).Msg("repository: failed to update order status")
		return fmt.Errorf("repository: failed to update order status %s: %w", orderID, err)
	}

	if cmdTag.RowsAffected() == 0 {
		log.Warn().Stringer("order_id", orderID).Str("new_status", string(newStatus)).Msg("repository: order not found for status update")
		return ErrOrderNotFound
	}

	return nil
}
