package catalog

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested catalog entry does not exist.
var ErrNotFound = errors.New("catalog entry not found")

// Size enumerates the pizza sizes offered by the storefront.
type Size string

const (
	SizeSmall  Size = "small"
	SizeMedium Size = "medium"
	SizeLarge  Size = "large"
)

// Sizes lists every valid pizza size in display order.
var Sizes = []Size{SizeSmall, SizeMedium, SizeLarge}

// Valid reports whether s is one of the known pizza sizes.
func (s Size) Valid() bool {
	switch s {
	case SizeSmall, SizeMedium, SizeLarge:
		return true
	default:
		return false
	}
}

// Topping is a pizza topping with its unit price.
type Topping struct {
	ID    int64
	Name  string
	Price decimal.Decimal
}

// Drink is a beverage that can be added to an order item.
type Drink struct {
	ID    int64
	Name  string
	Price decimal.Decimal
}

// BasePrice is the price of a plain pizza of the given size.
type BasePrice struct {
	ID    int64
	Size  Size
	Price decimal.Decimal
}

// Preset is a named pizza with a predefined set of toppings.
type Preset struct {
	ID       int64
	Name     string
	Toppings []int64
}

// Repository defines read operations for the storefront catalog.
type Repository interface {
	ListToppings(ctx context.Context) ([]Topping, error)
	GetToppingsByIDs(ctx context.Context, ids []int64) ([]Topping, error)
	ListDrinks(ctx context.Context) ([]Drink, error)
	GetDrinksByIDs(ctx context.Context, ids []int64) ([]Drink, error)
	ListBasePrices(ctx context.Context) ([]BasePrice, error)
	ListPresets(ctx context.Context) ([]Preset, error)
}
