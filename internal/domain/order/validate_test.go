package order

import (
	"strings"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/pizza-bakker/internal/domain/catalog"
)

func TestValidate(t *testing.T) {
	snap := newTestSnapshot()

	tests := []struct {
		name  string
		items []ItemRequest
		want  []string
	}{
		{
			name:  "valid item",
			items: []ItemRequest{{Size: catalog.SizeMedium, Toppings: []int64{1, 2}, Quantity: 1}},
		},
		{
			name: "valid item with drink",
			items: []ItemRequest{
				{Size: catalog.SizeSmall, Toppings: []int64{1}, DrinkID: ptr(int64(1)), Quantity: 2},
			},
		},
		{
			name: "six toppings with duplicates",
			items: []ItemRequest{
				{Size: catalog.SizeLarge, Toppings: []int64{1, 1, 2, 2, 3, 3}, Quantity: 1},
			},
		},
		{
			name:  "no items",
			items: nil,
			want:  []string{MsgNoItems},
		},
		{
			name:  "invalid size",
			items: []ItemRequest{{Size: "huge", Toppings: []int64{1}, Quantity: 1}},
			want:  []string{MsgInvalidSize},
		},
		{
			name:  "no toppings",
			items: []ItemRequest{{Size: catalog.SizeSmall, Quantity: 1}},
			want:  []string{MsgToppingsRequired},
		},
		{
			name: "seven toppings",
			items: []ItemRequest{
				{Size: catalog.SizeSmall, Toppings: []int64{1, 2, 3, 4, 5, 6, 1}, Quantity: 1},
			},
			want: []string{MsgTooManyToppings},
		},
		{
			name:  "unknown topping",
			items: []ItemRequest{{Size: catalog.SizeSmall, Toppings: []int64{1, 99}, Quantity: 1}},
			want:  []string{MsgInvalidToppings},
		},
		{
			name: "unknown drink",
			items: []ItemRequest{
				{Size: catalog.SizeSmall, Toppings: []int64{1}, DrinkID: ptr(int64(42)), Quantity: 1},
			},
			want: []string{MsgInvalidDrink},
		},
		{
			name:  "zero quantity",
			items: []ItemRequest{{Size: catalog.SizeSmall, Toppings: []int64{1}, Quantity: 0}},
			want:  []string{MsgInvalidQuantity},
		},
		{
			name: "every rule broken in one item",
			items: []ItemRequest{
				{Size: "", Toppings: []int64{1, 2, 3, 4, 5, 6, 99}, DrinkID: ptr(int64(42)), Quantity: -1},
			},
			want: []string{MsgInvalidSize, MsgTooManyToppings, MsgInvalidToppings, MsgInvalidDrink, MsgInvalidQuantity},
		},
		{
			name: "errors across items keep item order",
			items: []ItemRequest{
				{Size: catalog.SizeSmall, Toppings: []int64{1}, Quantity: 0},
				{Size: "xl", Toppings: []int64{1}, Quantity: 1},
			},
			want: []string{MsgInvalidQuantity, MsgInvalidSize},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Validate(snap, tt.items)
			if len(tt.want) == 0 {
				assert.True(t, res.Valid)
				assert.Empty(t, res.Errors)
				assert.NoError(t, res.Err())
				return
			}

			assert.False(t, res.Valid)
			assert.Equal(t, tt.want, res.Errors)

			var vErr *ValidationError
			require.True(t, errors.As(res.Err(), &vErr))
			assert.Equal(t, strings.Join(tt.want, "\n"), vErr.Error())
		})
	}
}

func TestValidate_Messages(t *testing.T) {
	// Customer facing strings are part of the API contract.
	assert.Equal(t, "Invalid pizza size", MsgInvalidSize)
	assert.Equal(t, "At least one topping is required", MsgToppingsRequired)
	assert.Equal(t, "A maximum of 6 toppings is allowed", MsgTooManyToppings)
	assert.Equal(t, "Some toppings are invalid or not available", MsgInvalidToppings)
	assert.Equal(t, "Selected drink is not available", MsgInvalidDrink)
	assert.Equal(t, "Quantity must be at least 1", MsgInvalidQuantity)
}
