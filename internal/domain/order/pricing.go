package order

import (
	"fmt"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/xenking/pizza-bakker/internal/domain/catalog"
)

// FreeToppings is the number of cheapest toppings included in the base price.
const FreeToppings = 3

// MissingBasePriceError indicates the catalog has no base price for a valid
// size. This is corrupt reference data, not a customer mistake.
type MissingBasePriceError struct {
	Size catalog.Size
}

func (e *MissingBasePriceError) Error() string {
	return fmt.Sprintf("no price found for pizza size: %s", e.Size)
}

// Price computes the per-unit price of a single item: base price for the
// size, plus every topping beyond the FreeToppings cheapest, plus the drink.
// Quantity is not applied here.
func Price(snap *catalog.Snapshot, req ItemRequest) (Item, error) {
	base, ok := snap.BasePrice(req.Size)
	if !ok {
		return Item{}, &MissingBasePriceError{Size: req.Size}
	}

	toppingPrices := make([]decimal.Decimal, len(req.Toppings))
	for i, id := range req.Toppings {
		// Unknown toppings are rejected by Validate; price them as free.
		if t, ok := snap.Topping(id); ok {
			toppingPrices[i] = t.Price
		}
	}

	drinkPrice := decimal.Zero
	if req.DrinkID != nil {
		if d, ok := snap.Drink(*req.DrinkID); ok {
			drinkPrice = d.Price
		}
	}

	return Item{
		ItemRequest: req,
		Price:       base.Add(ChargeableToppings(toppingPrices)).Add(drinkPrice),
		Discount:    decimal.Zero,
	}, nil
}

// PriceItems prices every item, failing on the first configuration error.
func PriceItems(snap *catalog.Snapshot, reqs []ItemRequest) ([]Item, error) {
	items := make([]Item, len(reqs))
	for i, req := range reqs {
		item, err := Price(snap, req)
		if err != nil {
			return nil, err
		}
		items[i] = item
	}
	return items, nil
}

// ChargeableToppings returns the sum of all topping prices except the
// FreeToppings cheapest ones.
func ChargeableToppings(prices []decimal.Decimal) decimal.Decimal {
	sorted := slices.Clone(prices)
	slices.SortStableFunc(sorted, func(a, b decimal.Decimal) int {
		return a.Cmp(b)
	})

	sum := decimal.Zero
	for i := FreeToppings; i < len(sorted); i++ {
		sum = sum.Add(sorted[i])
	}
	return sum
}
