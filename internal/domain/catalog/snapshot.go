package catalog

import (
	"context"
	"slices"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Snapshot is an immutable view of the catalog entries referenced by a
// single order. Validation and pricing run against a snapshot so they stay
// free of I/O.
type Snapshot struct {
	Toppings map[int64]Topping
	Drinks   map[int64]Drink
	Prices   map[Size]decimal.Decimal
}

// NewSnapshot builds a Snapshot from already loaded catalog entries.
func NewSnapshot(toppings []Topping, drinks []Drink, prices []BasePrice) *Snapshot {
	s := &Snapshot{
		Toppings: make(map[int64]Topping, len(toppings)),
		Drinks:   make(map[int64]Drink, len(drinks)),
		Prices:   make(map[Size]decimal.Decimal, len(prices)),
	}
	for _, t := range toppings {
		s.Toppings[t.ID] = t
	}
	for _, d := range drinks {
		s.Drinks[d.ID] = d
	}
	for _, p := range prices {
		s.Prices[p.Size] = p.Price
	}
	return s
}

// Topping returns the topping with the given id, if present.
func (s *Snapshot) Topping(id int64) (Topping, bool) {
	t, ok := s.Toppings[id]
	return t, ok
}

// ToppingByName returns the first snapshot topping with the given name.
func (s *Snapshot) ToppingByName(name string) (Topping, bool) {
	for _, t := range s.Toppings {
		if t.Name == name {
			return t, true
		}
	}
	return Topping{}, false
}

// Drink returns the drink with the given id, if present.
func (s *Snapshot) Drink(id int64) (Drink, bool) {
	d, ok := s.Drinks[id]
	return d, ok
}

// BasePrice returns the base price for the given size, if present.
func (s *Snapshot) BasePrice(size Size) (decimal.Decimal, bool) {
	p, ok := s.Prices[size]
	return p, ok
}

// LoadSnapshot fetches the given toppings, drinks and all base prices
// concurrently and assembles them into a Snapshot. Duplicate ids are
// collapsed before querying.
func LoadSnapshot(ctx context.Context, repo Repository, toppingIDs, drinkIDs []int64) (*Snapshot, error) {
	var (
		toppings []Topping
		drinks   []Drink
		prices   []BasePrice
	)

	g, ctx := errgroup.WithContext(ctx)
	if ids := uniqueIDs(toppingIDs); len(ids) > 0 {
		g.Go(func() error {
			v, err := repo.GetToppingsByIDs(ctx, ids)
			if err != nil {
				return errors.Wrap(err, "get toppings")
			}
			toppings = v
			return nil
		})
	}
	if ids := uniqueIDs(drinkIDs); len(ids) > 0 {
		g.Go(func() error {
			v, err := repo.GetDrinksByIDs(ctx, ids)
			if err != nil {
				return errors.Wrap(err, "get drinks")
			}
			drinks = v
			return nil
		})
	}
	g.Go(func() error {
		v, err := repo.ListBasePrices(ctx)
		if err != nil {
			return errors.Wrap(err, "list base prices")
		}
		prices = v
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return NewSnapshot(toppings, drinks, prices), nil
}

func uniqueIDs(ids []int64) []int64 {
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}
