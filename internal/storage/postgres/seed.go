package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const (
	upsertPriceSQL = `INSERT INTO pizza_prices (size, price) VALUES ($1, $2)
		ON CONFLICT (size) DO UPDATE SET price = EXCLUDED.price`

	upsertToppingSQL = `INSERT INTO toppings (name, price) VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET price = EXCLUDED.price RETURNING id`

	upsertDrinkSQL = `INSERT INTO drinks (name, price) VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET price = EXCLUDED.price`

	upsertPresetSQL = `INSERT INTO pizza_presets (name) VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name RETURNING id`

	clearPresetToppingsSQL = `DELETE FROM pizza_preset_toppings WHERE preset_id = $1`

	insertPresetToppingSQL = `INSERT INTO pizza_preset_toppings (preset_id, topping_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING`

	upsertCouponSQL = `INSERT INTO coupons (code, discount_percentage) VALUES ($1, $2)
		ON CONFLICT (code) DO UPDATE SET discount_percentage = EXCLUDED.discount_percentage`
)

// SeedPrice is a base price entry of the seed catalog.
type SeedPrice struct {
	Size  string          `json:"size"`
	Price decimal.Decimal `json:"price"`
}

// SeedItem is a named, priced topping or drink.
type SeedItem struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// SeedPreset references its toppings by name.
type SeedPreset struct {
	Name     string   `json:"name"`
	Toppings []string `json:"toppings"`
}

type SeedCoupon struct {
	Code               string          `json:"code"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
}

// SeedData is the reference catalog loaded by seed-db.
type SeedData struct {
	Prices   []SeedPrice  `json:"prices"`
	Toppings []SeedItem   `json:"toppings"`
	Drinks   []SeedItem   `json:"drinks"`
	Presets  []SeedPreset `json:"presets"`
	Coupons  []SeedCoupon `json:"coupons"`
}

// Seed upserts the catalog in a single transaction. Entries are matched by
// their natural key, so seeding is repeatable; coupon usage is preserved.
func Seed(ctx context.Context, pool *pgxpool.Pool, data SeedData) error {
	return pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		for _, p := range data.Prices {
			if _, err := tx.Exec(ctx, upsertPriceSQL, p.Size, p.Price); err != nil {
				return fmt.Errorf("upserting price %q: %w", p.Size, err)
			}
		}

		toppingIDs := make(map[string]int64, len(data.Toppings))
		for _, t := range data.Toppings {
			var id int64
			if err := tx.QueryRow(ctx, upsertToppingSQL, t.Name, t.Price).Scan(&id); err != nil {
				return fmt.Errorf("upserting topping %q: %w", t.Name, err)
			}
			toppingIDs[t.Name] = id
		}

		for _, d := range data.Drinks {
			if _, err := tx.Exec(ctx, upsertDrinkSQL, d.Name, d.Price); err != nil {
				return fmt.Errorf("upserting drink %q: %w", d.Name, err)
			}
		}

		for _, p := range data.Presets {
			var id int64
			if err := tx.QueryRow(ctx, upsertPresetSQL, p.Name).Scan(&id); err != nil {
				return fmt.Errorf("upserting preset %q: %w", p.Name, err)
			}
			if _, err := tx.Exec(ctx, clearPresetToppingsSQL, id); err != nil {
				return fmt.Errorf("clearing preset %q toppings: %w", p.Name, err)
			}
			for _, name := range p.Toppings {
				toppingID, ok := toppingIDs[name]
				if !ok {
					return fmt.Errorf("preset %q references unknown topping %q", p.Name, name)
				}
				if _, err := tx.Exec(ctx, insertPresetToppingSQL, id, toppingID); err != nil {
					return fmt.Errorf("linking preset %q topping %q: %w", p.Name, name, err)
				}
			}
		}

		for _, c := range data.Coupons {
			if _, err := tx.Exec(ctx, upsertCouponSQL, c.Code, c.DiscountPercentage); err != nil {
				return fmt.Errorf("upserting coupon %q: %w", c.Code, err)
			}
		}
		return nil
	})
}
