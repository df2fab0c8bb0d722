// Package handler exposes the storefront over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xenking/pizza-bakker/internal/domain/catalog"
	"github.com/xenking/pizza-bakker/internal/domain/coupon"
	"github.com/xenking/pizza-bakker/internal/domain/order"
	"github.com/xenking/pizza-bakker/internal/weather"
)

// OrderService places and loads orders.
type OrderService interface {
	PlaceOrder(ctx context.Context, req order.PlaceOrderRequest) (*order.Order, error)
	GetOrder(ctx context.Context, id int64) (*order.Order, error)
}

// WeatherReporter reports the storefront weather. It never fails.
type WeatherReporter interface {
	Report(ctx context.Context) weather.Report
}

var (
	_ OrderService    = (*order.Service)(nil)
	_ WeatherReporter = (*weather.Reporter)(nil)
)

// Handler serves the /api routes.
type Handler struct {
	catalog catalog.Repository
	coupons coupon.Validator
	orders  OrderService
	weather WeatherReporter
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	products catalog.Repository,
	coupons coupon.Validator,
	orders OrderService,
	reporter WeatherReporter,
) *Handler {
	return &Handler{
		catalog: products,
		coupons: coupons,
		orders:  orders,
		weather: reporter,
	}
}

// Routes mounts the API under /api on r.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/toppings", h.ListToppings)
		r.Get("/drinks", h.ListDrinks)
		r.Get("/pizzas", h.ListPresets)
		r.Get("/pizzas/prices", h.ListPrices)
		r.Get("/coupon/validate", h.ValidateCoupon)
		r.Get("/weather", h.Weather)
		r.Post("/orders", h.PlaceOrder)
		r.Get("/orders/{id}", h.GetOrder)
	})
}

type envelope struct {
	Status string `json:"status"`
	Data   any    `json:"data,omitempty"`
	Error  string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// The status line is already out; a failed write means the client left.
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Status: "success", Data: data})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{Status: "error", Error: msg})
}
