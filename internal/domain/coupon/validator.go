package coupon

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
)

// Validator resolves a coupon code into a usable Coupon.
type Validator interface {
	Validate(ctx context.Context, code string) (*Coupon, error)
}

// RepoValidator implements Validator by looking up coupons in a Repository.
type RepoValidator struct {
	repo Repository
}

// NewRepoValidator creates a RepoValidator backed by the given Repository.
func NewRepoValidator(repo Repository) *RepoValidator {
	return &RepoValidator{repo: repo}
}

// Validate looks up the coupon for the given code. It returns
// ErrCodeRequired for a blank code and ErrInvalidCoupon when the code is
// unknown or the coupon has already been used.
func (v *RepoValidator) Validate(ctx context.Context, code string) (*Coupon, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrCodeRequired
	}

	c, err := v.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrInvalidCoupon) {
			return nil, ErrInvalidCoupon
		}
		return nil, errors.Wrap(err, "lookup coupon")
	}
	if c.Used {
		return nil, ErrInvalidCoupon
	}

	return c, nil
}
