package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/pizza-bakker/internal/domain/catalog"
)

const (
	listToppingsSQL       = `SELECT id, name, price FROM toppings ORDER BY name, id`
	getToppingsByIDsSQL   = `SELECT id, name, price FROM toppings WHERE id = ANY($1) ORDER BY id`
	listDrinksSQL         = `SELECT id, name, price FROM drinks ORDER BY name, id`
	getDrinksByIDsSQL     = `SELECT id, name, price FROM drinks WHERE id = ANY($1) ORDER BY id`
	listBasePricesSQL     = `SELECT id, size, price FROM pizza_prices ORDER BY price, id`
	listPresetsSQL        = `SELECT id, name FROM pizza_presets ORDER BY name, id`
	listPresetToppingsSQL = `SELECT preset_id, topping_id FROM pizza_preset_toppings ORDER BY preset_id, topping_id`
)

var _ catalog.Repository = (*CatalogRepository)(nil)

// CatalogRepository implements catalog.Repository backed by PostgreSQL.
type CatalogRepository struct {
	pool *pgxpool.Pool
}

// NewCatalogRepository returns a CatalogRepository that uses the given pool.
func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

// ListToppings returns all toppings ordered by name.
func (r *CatalogRepository) ListToppings(ctx context.Context) ([]catalog.Topping, error) {
	rows, err := r.pool.Query(ctx, listToppingsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing toppings: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[catalog.Topping])
}

// GetToppingsByIDs returns toppings matching any of the given IDs. Unknown
// IDs are silently absent from the result.
func (r *CatalogRepository) GetToppingsByIDs(ctx context.Context, ids []int64) ([]catalog.Topping, error) {
	rows, err := r.pool.Query(ctx, getToppingsByIDsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("getting toppings by ids: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[catalog.Topping])
}

func (r *CatalogRepository) ListDrinks(ctx context.Context) ([]catalog.Drink, error) {
	rows, err := r.pool.Query(ctx, listDrinksSQL)
	if err != nil {
		return nil, fmt.Errorf("listing drinks: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[catalog.Drink])
}

func (r *CatalogRepository) GetDrinksByIDs(ctx context.Context, ids []int64) ([]catalog.Drink, error) {
	rows, err := r.pool.Query(ctx, getDrinksByIDsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("getting drinks by ids: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[catalog.Drink])
}

// ListBasePrices returns the base price of every size, cheapest first.
func (r *CatalogRepository) ListBasePrices(ctx context.Context) ([]catalog.BasePrice, error) {
	rows, err := r.pool.Query(ctx, listBasePricesSQL)
	if err != nil {
		return nil, fmt.Errorf("listing base prices: %w", err)
	}
	return pgx.CollectRows(rows, scanBasePrice)
}

// ListPresets returns all presets ordered by name, with their topping IDs.
func (r *CatalogRepository) ListPresets(ctx context.Context) ([]catalog.Preset, error) {
	rows, err := r.pool.Query(ctx, listPresetsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing presets: %w", err)
	}
	presets, err := pgx.CollectRows(rows, scanPreset)
	if err != nil {
		return nil, fmt.Errorf("listing presets: %w", err)
	}

	rows, err = r.pool.Query(ctx, listPresetToppingsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing preset toppings: %w", err)
	}
	links, err := pgx.CollectRows(rows, scanPresetTopping)
	if err != nil {
		return nil, fmt.Errorf("listing preset toppings: %w", err)
	}

	byID := make(map[int64]*catalog.Preset, len(presets))
	for i := range presets {
		byID[presets[i].ID] = &presets[i]
	}
	for _, l := range links {
		if p, ok := byID[l.presetID]; ok {
			p.Toppings = append(p.Toppings, l.toppingID)
		}
	}
	return presets, nil
}

func scanBasePrice(row pgx.CollectableRow) (catalog.BasePrice, error) {
	var (
		p    catalog.BasePrice
		size string
	)
	err := row.Scan(&p.ID, &size, &p.Price)
	p.Size = catalog.Size(size)
	return p, err
}

func scanPreset(row pgx.CollectableRow) (catalog.Preset, error) {
	var p catalog.Preset
	err := row.Scan(&p.ID, &p.Name)
	return p, err
}

type presetTopping struct {
	presetID  int64
	toppingID int64
}

func scanPresetTopping(row pgx.CollectableRow) (presetTopping, error) {
	var l presetTopping
	err := row.Scan(&l.presetID, &l.toppingID)
	return l, err
}
