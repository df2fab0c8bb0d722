package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/pizza-bakker/internal/domain/catalog"
	"github.com/xenking/pizza-bakker/internal/domain/order"
)

const (
	insertOrderSQL = `INSERT INTO orders (coupon_id, customer_name, total_price, discount)
		VALUES ($1, $2, $3, $4) RETURNING id, created_at`

	insertOrderItemSQL = `INSERT INTO order_items (order_id, name, description, size, drink_id, price, quantity, discount)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`

	getOrderSQL = `SELECT o.id, o.customer_name, o.total_price, o.discount, o.coupon_id, COALESCE(c.code, ''), o.created_at
		FROM orders o LEFT JOIN coupons c ON c.id = o.coupon_id
		WHERE o.id = $1`

	getOrderItemsSQL = `SELECT id, name, description, size, drink_id, price, quantity, discount
		FROM order_items WHERE order_id = $1 ORDER BY id`

	getOrderItemToppingsSQL = `SELECT t.order_item_id, t.topping_id
		FROM order_item_toppings t JOIN order_items i ON i.id = t.order_item_id
		WHERE i.order_id = $1 ORDER BY t.order_item_id, t.position`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists the order, its items and their toppings in a single
// transaction. On success o and its items carry the generated IDs and the
// creation timestamp; on failure nothing is written.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	var couponID *int64
	if o.CouponID != 0 {
		couponID = &o.CouponID
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, insertOrderSQL, couponID, o.CustomerName, o.TotalPrice, o.Discount).
			Scan(&o.ID, &o.CreatedAt)
		if err != nil {
			return fmt.Errorf("creating order: %w", err)
		}

		var links [][]any
		for i := range o.Items {
			item := &o.Items[i]
			err := tx.QueryRow(ctx, insertOrderItemSQL,
				o.ID, item.Name, item.Description, string(item.Size), item.DrinkID,
				item.Price, item.Quantity, item.Discount,
			).Scan(&item.ID)
			if err != nil {
				return fmt.Errorf("creating order %d item %d: %w", o.ID, i, err)
			}
			for pos, toppingID := range item.Toppings {
				links = append(links, []any{item.ID, pos, toppingID})
			}
		}

		if len(links) == 0 {
			return nil
		}
		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"order_item_toppings"},
			[]string{"order_item_id", "position", "topping_id"},
			pgx.CopyFromRows(links),
		)
		if err != nil {
			return fmt.Errorf("linking toppings for order %d: %w", o.ID, err)
		}
		return nil
	})
}

// Get returns an order with its items and toppings.
// Returns order.ErrNotFound when no order has the given ID.
func (r *OrderRepository) Get(ctx context.Context, id int64) (*order.Order, error) {
	var (
		o        order.Order
		couponID *int64
	)
	err := r.pool.QueryRow(ctx, getOrderSQL, id).Scan(
		&o.ID, &o.CustomerName, &o.TotalPrice, &o.Discount, &couponID, &o.CouponCode, &o.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %d: %w", id, err)
	}
	if couponID != nil {
		o.CouponID = *couponID
	}

	rows, err := r.pool.Query(ctx, getOrderItemsSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %d items: %w", id, err)
	}
	o.Items, err = pgx.CollectRows(rows, scanOrderItem)
	if err != nil {
		return nil, fmt.Errorf("getting order %d items: %w", id, err)
	}

	rows, err = r.pool.Query(ctx, getOrderItemToppingsSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %d toppings: %w", id, err)
	}
	links, err := pgx.CollectRows(rows, scanItemTopping)
	if err != nil {
		return nil, fmt.Errorf("getting order %d toppings: %w", id, err)
	}

	byID := make(map[int64]*order.Item, len(o.Items))
	for i := range o.Items {
		byID[o.Items[i].ID] = &o.Items[i]
	}
	for _, l := range links {
		if item, ok := byID[l.itemID]; ok {
			item.Toppings = append(item.Toppings, l.toppingID)
		}
	}

	return &o, nil
}

func scanOrderItem(row pgx.CollectableRow) (order.Item, error) {
	var (
		item order.Item
		size string
	)
	err := row.Scan(
		&item.ID, &item.Name, &item.Description, &size, &item.DrinkID,
		&item.Price, &item.Quantity, &item.Discount,
	)
	item.Size = catalog.Size(size)
	return item, err
}

type itemTopping struct {
	itemID    int64
	toppingID int64
}

func scanItemTopping(row pgx.CollectableRow) (itemTopping, error) {
	var l itemTopping
	err := row.Scan(&l.itemID, &l.toppingID)
	return l, err
}
