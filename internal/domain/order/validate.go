package order

import (
	"strings"

	"github.com/xenking/pizza-bakker/internal/domain/catalog"
)

// MaxToppings is the largest number of toppings a single pizza may carry.
const MaxToppings = 6

// Validation messages reported to the customer.
const (
	MsgNoItems          = "At least one pizza is required"
	MsgInvalidSize      = "Invalid pizza size"
	MsgToppingsRequired = "At least one topping is required"
	MsgTooManyToppings  = "A maximum of 6 toppings is allowed"
	MsgInvalidToppings  = "Some toppings are invalid or not available"
	MsgInvalidDrink     = "Selected drink is not available"
	MsgInvalidQuantity  = "Quantity must be at least 1"
)

// ValidationError lists every rule an order request violated, in the order
// they were detected.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages, "\n")
}

// ValidationResult is the outcome of validating a set of order items.
type ValidationResult struct {
	Valid  bool
	Errors []string
}

// Err returns a *ValidationError for an invalid result and nil otherwise.
func (r ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	return &ValidationError{Messages: r.Errors}
}

// Validate checks items against the catalog snapshot. All rules are
// evaluated for every item so the customer sees every problem at once.
func Validate(snap *catalog.Snapshot, items []ItemRequest) ValidationResult {
	var errs []string
	if len(items) == 0 {
		errs = append(errs, MsgNoItems)
	}

	for _, item := range items {
		if !item.Size.Valid() {
			errs = append(errs, MsgInvalidSize)
		}

		switch {
		case len(item.Toppings) == 0:
			errs = append(errs, MsgToppingsRequired)
		case len(item.Toppings) > MaxToppings:
			errs = append(errs, MsgTooManyToppings)
		}
		if !allToppingsKnown(snap, item.Toppings) {
			errs = append(errs, MsgInvalidToppings)
		}

		if item.DrinkID != nil {
			if _, ok := snap.Drink(*item.DrinkID); !ok {
				errs = append(errs, MsgInvalidDrink)
			}
		}

		if item.Quantity < 1 {
			errs = append(errs, MsgInvalidQuantity)
		}
	}

	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

func allToppingsKnown(snap *catalog.Snapshot, ids []int64) bool {
	for _, id := range ids {
		if _, ok := snap.Topping(id); !ok {
			return false
		}
	}
	return true
}
