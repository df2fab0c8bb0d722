package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/pizza-bakker/internal/domain/coupon"
)

const (
	getCouponByCodeSQL = `SELECT id, code, discount_percentage, used FROM coupons WHERE code = $1`
	listCouponCodesSQL = `SELECT code FROM coupons WHERE used = FALSE`

	createCouponStagingSQL = `CREATE TEMP TABLE coupon_staging (
		code TEXT NOT NULL,
		discount_percentage NUMERIC(5, 2) NOT NULL
	) ON COMMIT DROP`

	mergeCouponStagingSQL = `INSERT INTO coupons (code, discount_percentage)
		SELECT DISTINCT ON (code) code, discount_percentage FROM coupon_staging
		ON CONFLICT (code) DO UPDATE SET discount_percentage = EXCLUDED.discount_percentage`
)

var _ coupon.Repository = (*CouponRepository)(nil)

// CouponRepository implements coupon.Repository backed by PostgreSQL.
type CouponRepository struct {
	pool *pgxpool.Pool
}

// NewCouponRepository returns a CouponRepository that uses the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// FindByCode looks up a coupon by its exact code. Used coupons are returned
// as-is; deciding validity is up to the caller.
// Returns coupon.ErrInvalidCoupon when no coupon has the code.
func (r *CouponRepository) FindByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, getCouponByCodeSQL, code)
	if err != nil {
		return nil, fmt.Errorf("finding coupon by code %q: %w", code, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByPos[coupon.Coupon])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrInvalidCoupon
		}
		return nil, fmt.Errorf("finding coupon by code %q: %w", code, err)
	}
	return &c, nil
}

// ListCodes returns the codes of all unused coupons.
func (r *CouponRepository) ListCodes(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, listCouponCodesSQL)
	if err != nil {
		return nil, fmt.Errorf("listing coupon codes: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// Upsert bulk loads coupons through a staging table, updating the discount
// of codes that already exist. If a code repeats within coupons, which of
// its discounts is kept is unspecified.
func (r *CouponRepository) Upsert(ctx context.Context, coupons []coupon.Coupon) (int64, error) {
	var affected int64
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, createCouponStagingSQL); err != nil {
			return fmt.Errorf("creating staging table: %w", err)
		}

		_, err := tx.CopyFrom(ctx,
			pgx.Identifier{"coupon_staging"},
			[]string{"code", "discount_percentage"},
			pgx.CopyFromSlice(len(coupons), func(i int) ([]any, error) {
				return []any{coupons[i].Code, coupons[i].DiscountPercentage}, nil
			}),
		)
		if err != nil {
			return fmt.Errorf("copying coupons: %w", err)
		}

		tag, err := tx.Exec(ctx, mergeCouponStagingSQL)
		if err != nil {
			return fmt.Errorf("merging coupons: %w", err)
		}
		affected = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}
