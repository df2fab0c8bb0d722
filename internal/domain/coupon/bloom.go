package coupon

import (
	"context"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
)

const bloomFPR = 0.001

var _ Repository = (*BloomRepository)(nil)

// BloomRepository wraps a Repository with a bloom filter of every known
// coupon code. Codes the filter has never seen are rejected without
// touching the underlying store. Coupons are read-only for the server, so
// a negative answer stays correct for the lifetime of the filter.
type BloomRepository struct {
	Repository
	filter *bloom.BloomFilter
}

// NewBloomRepository loads all coupon codes from repo into a bloom filter.
func NewBloomRepository(ctx context.Context, repo Repository) (*BloomRepository, error) {
	codes, err := repo.ListCodes(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list coupon codes")
	}

	n := uint(len(codes))
	if n == 0 {
		n = 1
	}
	filter := bloom.NewWithEstimates(n, bloomFPR)
	for _, code := range codes {
		filter.AddString(code)
	}

	return &BloomRepository{Repository: repo, filter: filter}, nil
}

// FindByCode returns ErrInvalidCoupon for codes absent from the filter and
// defers to the wrapped Repository otherwise.
func (r *BloomRepository) FindByCode(ctx context.Context, code string) (*Coupon, error) {
	if !r.filter.TestString(code) {
		return nil, ErrInvalidCoupon
	}
	return r.Repository.FindByCode(ctx, code)
}
