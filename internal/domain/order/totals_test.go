package order

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/xenking/pizza-bakker/internal/domain/catalog"
)

func TestCalculateTotals(t *testing.T) {
	pineapple := &ItemDiscount{ToppingID: 6, Percent: dec("10")}

	tests := []struct {
		name         string
		items        []Item
		coupon       decimal.NullDecimal
		discount     *ItemDiscount
		wantPrices   []string
		wantSubtotal string
		wantDiscount string
		wantTotal    string
	}{
		{
			name:         "no discounts",
			items:        []Item{testItem("17.5", 1, 1, 2)},
			wantPrices:   []string{"17.5"},
			wantSubtotal: "17.5",
			wantDiscount: "0",
			wantTotal:    "17.5",
		},
		{
			name:         "coupon ten percent",
			items:        []Item{testItem("17.5", 1, 1, 2)},
			coupon:       decimal.NewNullDecimal(dec("10")),
			wantPrices:   []string{"17.5"},
			wantSubtotal: "17.5",
			wantDiscount: "1.75",
			wantTotal:    "15.75",
		},
		{
			name:         "quantity multiplies unit price",
			items:        []Item{testItem("8", 3, 1), testItem("12", 2, 2)},
			wantPrices:   []string{"8", "12"},
			wantSubtotal: "48",
			wantDiscount: "0",
			wantTotal:    "48",
		},
		{
			name:         "weather discount only hits items with the topping",
			items:        []Item{testItem("8", 1, 6), testItem("12", 1, 1)},
			discount:     pineapple,
			wantPrices:   []string{"7.2", "12"},
			wantSubtotal: "19.2",
			wantDiscount: "0",
			wantTotal:    "19.2",
		},
		{
			name:         "weather then coupon",
			items:        []Item{testItem("10", 2, 6, 6)},
			coupon:       decimal.NewNullDecimal(dec("20")),
			discount:     pineapple,
			wantPrices:   []string{"9"},
			wantSubtotal: "18",
			wantDiscount: "3.6",
			wantTotal:    "14.4",
		},
		{
			name:         "percentage above hundred is not floored",
			items:        []Item{testItem("10", 1, 1)},
			coupon:       decimal.NewNullDecimal(dec("150")),
			wantPrices:   []string{"10"},
			wantSubtotal: "10",
			wantDiscount: "15",
			wantTotal:    "-5",
		},
		{
			name:         "no rounding",
			items:        []Item{testItem("3.33", 1, 1)},
			coupon:       decimal.NewNullDecimal(dec("15")),
			wantPrices:   []string{"3.33"},
			wantSubtotal: "3.33",
			wantDiscount: "0.4995",
			wantTotal:    "2.8305",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateTotals(tt.items, tt.coupon, tt.discount)

			assert.Len(t, got.Items, len(tt.wantPrices))
			for i, want := range tt.wantPrices {
				assert.True(t, dec(want).Equal(got.Items[i].Price), "item %d price %s", i, got.Items[i].Price)
			}
			assert.True(t, dec(tt.wantSubtotal).Equal(got.Subtotal), "subtotal %s", got.Subtotal)
			assert.True(t, dec(tt.wantDiscount).Equal(got.Discount), "discount %s", got.Discount)
			assert.True(t, dec(tt.wantTotal).Equal(got.Total), "total %s", got.Total)
		})
	}
}

func TestCalculateTotals_RecordsItemDiscount(t *testing.T) {
	items := []Item{testItem("8", 1, 6)}
	got := CalculateTotals(items, decimal.NullDecimal{}, &ItemDiscount{ToppingID: 6, Percent: dec("10")})

	assert.True(t, dec("0.8").Equal(got.Items[0].Discount))
	assert.True(t, dec("8").Equal(items[0].Price), "input must not be modified")
	assert.True(t, items[0].Discount.IsZero())
}

func TestWeatherRule_Activate(t *testing.T) {
	pineapple := &catalog.Topping{ID: 6, Name: "Pineapple", Price: dec("2")}

	tests := []struct {
		name    string
		topping *catalog.Topping
		temp    float64
		want    *ItemDiscount
	}{
		{name: "hot", topping: pineapple, temp: 30.5, want: &ItemDiscount{ToppingID: 6, Percent: dec("10")}},
		{name: "at threshold", topping: pineapple, temp: 30},
		{name: "cold", topping: pineapple, temp: 12},
		{name: "topping missing", topping: nil, temp: 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DefaultWeatherRule.Activate(tt.topping, tt.temp)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			if assert.NotNil(t, got) {
				assert.Equal(t, tt.want.ToppingID, got.ToppingID)
				assert.True(t, tt.want.Percent.Equal(got.Percent))
			}
		})
	}
}

func testItem(price string, qty int, toppings ...int64) Item {
	return Item{
		ItemRequest: ItemRequest{Size: catalog.SizeMedium, Toppings: toppings, Quantity: qty},
		Price:       dec(price),
		Discount:    decimal.Zero,
	}
}
