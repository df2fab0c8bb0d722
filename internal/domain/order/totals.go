package order

import (
	"github.com/shopspring/decimal"

	"github.com/xenking/pizza-bakker/internal/domain/catalog"
)

var hundred = decimal.NewFromInt(100)

// WeatherRule grants a percentage discount on every item containing
// Topping while the outside temperature is above ThresholdCelsius.
type WeatherRule struct {
	Topping          string
	ThresholdCelsius float64
	Percent          decimal.Decimal
}

// DefaultWeatherRule is 10% off pineapple pizzas above 30 degrees.
var DefaultWeatherRule = WeatherRule{
	Topping:          "Pineapple",
	ThresholdCelsius: 30,
	Percent:          decimal.NewFromInt(10),
}

// ItemDiscount is a percentage taken off the unit price of every item that
// contains ToppingID.
type ItemDiscount struct {
	ToppingID int64
	Percent   decimal.Decimal
}

// Activate returns the item discount to apply for the given topping and
// temperature, or nil when the rule does not hold. A nil topping means the
// rule's topping is not in the catalog.
func (r WeatherRule) Activate(topping *catalog.Topping, temperature float64) *ItemDiscount {
	if topping == nil || temperature <= r.ThresholdCelsius {
		return nil
	}
	return &ItemDiscount{ToppingID: topping.ID, Percent: r.Percent}
}

// Totals is the priced breakdown of an order.
type Totals struct {
	Items    []Item
	Subtotal decimal.Decimal
	// Discount is the coupon discount only.
	Discount decimal.Decimal
	Total    decimal.Decimal
}

// CalculateTotals applies the optional item discount, sums price * quantity,
// and takes the optional coupon percentage off the subtotal. The input
// slice is not modified.
//
// No floor is applied to the total: percentages above 100 would produce a
// negative total and must be rejected before they reach the calculator.
func CalculateTotals(items []Item, couponPercent decimal.NullDecimal, discount *ItemDiscount) Totals {
	out := make([]Item, len(items))
	subtotal := decimal.Zero
	for i, item := range items {
		if discount != nil && item.hasTopping(discount.ToppingID) {
			amount := item.Price.Mul(discount.Percent).Div(hundred)
			item.Discount = amount
			item.Price = item.Price.Sub(amount)
		}
		out[i] = item
		subtotal = subtotal.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	couponDiscount := decimal.Zero
	if couponPercent.Valid {
		couponDiscount = subtotal.Mul(couponPercent.Decimal).Div(hundred)
	}

	return Totals{
		Items:    out,
		Subtotal: subtotal,
		Discount: couponDiscount,
		Total:    subtotal.Sub(couponDiscount),
	}
}

func (i Item) hasTopping(id int64) bool {
	for _, t := range i.Toppings {
		if t == id {
			return true
		}
	}
	return false
}
