package catalog

import (
	"context"
	"sync"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepo struct {
	toppings []Topping
	drinks   []Drink
	prices   []BasePrice

	toppingsErr error
	drinksErr   error
	pricesErr   error

	mu         sync.Mutex
	toppingIDs []int64
	drinkIDs   []int64
	calls      []string
}

func (m *mockRepo) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

func (m *mockRepo) ListToppings(context.Context) ([]Topping, error) {
	return m.toppings, nil
}

func (m *mockRepo) GetToppingsByIDs(_ context.Context, ids []int64) ([]Topping, error) {
	m.record("toppings")
	m.mu.Lock()
	m.toppingIDs = ids
	m.mu.Unlock()
	if m.toppingsErr != nil {
		return nil, m.toppingsErr
	}
	var out []Topping
	for _, t := range m.toppings {
		for _, id := range ids {
			if t.ID == id {
				out = append(out, t)
			}
		}
	}
	return out, nil
}

func (m *mockRepo) ListDrinks(context.Context) ([]Drink, error) {
	return m.drinks, nil
}

func (m *mockRepo) GetDrinksByIDs(_ context.Context, ids []int64) ([]Drink, error) {
	m.record("drinks")
	m.mu.Lock()
	m.drinkIDs = ids
	m.mu.Unlock()
	if m.drinksErr != nil {
		return nil, m.drinksErr
	}
	var out []Drink
	for _, d := range m.drinks {
		for _, id := range ids {
			if d.ID == id {
				out = append(out, d)
			}
		}
	}
	return out, nil
}

func (m *mockRepo) ListBasePrices(context.Context) ([]BasePrice, error) {
	m.record("prices")
	if m.pricesErr != nil {
		return nil, m.pricesErr
	}
	return m.prices, nil
}

func (m *mockRepo) ListPresets(context.Context) ([]Preset, error) {
	return nil, nil
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		toppings: []Topping{
			{ID: 1, Name: "Pineapple", Price: decimal.RequireFromString("1.00")},
			{ID: 2, Name: "Ham", Price: decimal.RequireFromString("1.50")},
			{ID: 3, Name: "Bacon", Price: decimal.RequireFromString("2.00")},
		},
		drinks: []Drink{
			{ID: 1, Name: "Coca Cola", Price: decimal.RequireFromString("2.50")},
		},
		prices: []BasePrice{
			{ID: 1, Size: SizeSmall, Price: decimal.RequireFromString("8.00")},
			{ID: 2, Size: SizeMedium, Price: decimal.RequireFromString("10.00")},
		},
	}
}

func TestLoadSnapshot(t *testing.T) {
	repo := newMockRepo()

	snap, err := LoadSnapshot(context.Background(), repo, []int64{2, 1}, []int64{1})
	require.NoError(t, err)

	assert.Len(t, snap.Toppings, 2)
	ham, ok := snap.Topping(2)
	require.True(t, ok)
	assert.Equal(t, "Ham", ham.Name)
	_, ok = snap.Topping(3)
	assert.False(t, ok)

	cola, ok := snap.Drink(1)
	require.True(t, ok)
	assert.Equal(t, "Coca Cola", cola.Name)

	price, ok := snap.BasePrice(SizeMedium)
	require.True(t, ok)
	assert.Equal(t, "10", price.String())
	_, ok = snap.BasePrice(SizeLarge)
	assert.False(t, ok)

	pineapple, ok := snap.ToppingByName("Pineapple")
	require.True(t, ok)
	assert.Equal(t, int64(1), pineapple.ID)
}

func TestLoadSnapshot_DeduplicatesIDs(t *testing.T) {
	repo := newMockRepo()

	_, err := LoadSnapshot(context.Background(), repo, []int64{3, 1, 3, 1, 1}, []int64{1, 1})
	require.NoError(t, err)

	assert.Equal(t, []int64{1, 3}, repo.toppingIDs)
	assert.Equal(t, []int64{1}, repo.drinkIDs)
}

func TestLoadSnapshot_SkipsEmptyLookups(t *testing.T) {
	repo := newMockRepo()

	snap, err := LoadSnapshot(context.Background(), repo, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"prices"}, repo.calls)
	assert.Empty(t, snap.Toppings)
	assert.Empty(t, snap.Drinks)
	assert.Len(t, snap.Prices, 2)
}

func TestLoadSnapshot_RepositoryError(t *testing.T) {
	errDB := errors.New("connection refused")

	for _, tt := range []struct {
		name  string
		setup func(*mockRepo)
		msg   string
	}{
		{name: "Toppings", setup: func(m *mockRepo) { m.toppingsErr = errDB }, msg: "get toppings"},
		{name: "Drinks", setup: func(m *mockRepo) { m.drinksErr = errDB }, msg: "get drinks"},
		{name: "Prices", setup: func(m *mockRepo) { m.pricesErr = errDB }, msg: "list base prices"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockRepo()
			tt.setup(repo)

			snap, err := LoadSnapshot(context.Background(), repo, []int64{1}, []int64{1})
			require.Error(t, err)
			assert.Nil(t, snap)
			assert.ErrorIs(t, err, errDB)
			assert.ErrorContains(t, err, tt.msg)
		})
	}
}
