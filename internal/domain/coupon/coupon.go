package coupon

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidCoupon is returned when a coupon code is unknown or has
	// already been used.
	ErrInvalidCoupon = errors.New("invalid coupon code")
	// ErrCodeRequired is returned when an empty code is validated.
	ErrCodeRequired = errors.New("coupon code is required")
)

// Coupon is a percentage discount applied to an order subtotal.
type Coupon struct {
	ID                 int64
	Code               string
	DiscountPercentage decimal.Decimal
	Used               bool
}

// Repository provides lookup of coupons by their code.
type Repository interface {
	FindByCode(ctx context.Context, code string) (*Coupon, error)
	ListCodes(ctx context.Context) ([]string, error)
}
