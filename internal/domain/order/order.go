package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/pizza-bakker/internal/domain/catalog"
)

// ErrNotFound is returned when a requested order does not exist.
var ErrNotFound = errors.New("order not found")

// ItemRequest is a single pizza as submitted by the customer.
type ItemRequest struct {
	Name        string
	Description *string
	Size        catalog.Size
	// Toppings holds topping ids. Order is irrelevant and duplicates are
	// priced individually.
	Toppings []int64
	DrinkID  *int64
	Quantity int
}

// Item is a priced order line. Price and Discount are per unit.
type Item struct {
	ID int64
	ItemRequest
	Price    decimal.Decimal
	Discount decimal.Decimal
}

// Order represents a persisted customer order.
type Order struct {
	ID           int64
	CustomerName string
	Items        []Item
	TotalPrice   decimal.Decimal
	// Discount is the order-level coupon discount. Item-level discounts are
	// already reflected in each item's Price.
	Discount   decimal.Decimal
	CouponID   int64
	CouponCode string
	CreatedAt  time.Time
}

// Repository defines persistence operations for orders.
type Repository interface {
	// Create atomically persists the order with its items and topping links,
	// filling in generated identifiers and the creation timestamp.
	Create(ctx context.Context, o *Order) error
	Get(ctx context.Context, id int64) (*Order, error)
}
