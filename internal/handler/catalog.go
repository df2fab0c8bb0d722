package handler

import (
	"net/http"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/pizza-bakker/internal/domain/catalog"
	"github.com/xenking/pizza-bakker/internal/domain/coupon"
)

type toppingResponse struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

type drinkResponse struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

type presetResponse struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Toppings []int64 `json:"toppings"`
}

type priceResponse struct {
	ID    int64        `json:"id"`
	Size  catalog.Size `json:"size"`
	Price float64      `json:"price"`
}

type weatherResponse struct {
	Temperature float64 `json:"temperature"`
	Location    string  `json:"location"`
}

// ListToppings handles GET /api/toppings.
func (h *Handler) ListToppings(w http.ResponseWriter, r *http.Request) {
	toppings, err := h.catalog.ListToppings(r.Context())
	if err != nil {
		h.fail(w, r, err, "Failed to fetch toppings")
		return
	}
	out := make([]toppingResponse, len(toppings))
	for i, t := range toppings {
		out[i] = toppingResponse{ID: t.ID, Name: t.Name, Price: t.Price.InexactFloat64()}
	}
	writeData(w, http.StatusOK, out)
}

// ListDrinks handles GET /api/drinks.
func (h *Handler) ListDrinks(w http.ResponseWriter, r *http.Request) {
	drinks, err := h.catalog.ListDrinks(r.Context())
	if err != nil {
		h.fail(w, r, err, "Failed to fetch drinks")
		return
	}
	out := make([]drinkResponse, len(drinks))
	for i, d := range drinks {
		out[i] = drinkResponse{ID: d.ID, Name: d.Name, Price: d.Price.InexactFloat64()}
	}
	writeData(w, http.StatusOK, out)
}

// ListPresets handles GET /api/pizzas.
func (h *Handler) ListPresets(w http.ResponseWriter, r *http.Request) {
	presets, err := h.catalog.ListPresets(r.Context())
	if err != nil {
		h.fail(w, r, err, "Failed to fetch pizza presets")
		return
	}
	out := make([]presetResponse, len(presets))
	for i, p := range presets {
		toppings := p.Toppings
		if toppings == nil {
			toppings = []int64{}
		}
		out[i] = presetResponse{ID: p.ID, Name: p.Name, Toppings: toppings}
	}
	writeData(w, http.StatusOK, out)
}

// ListPrices handles GET /api/pizzas/prices.
func (h *Handler) ListPrices(w http.ResponseWriter, r *http.Request) {
	prices, err := h.catalog.ListBasePrices(r.Context())
	if err != nil {
		h.fail(w, r, err, "Failed to fetch pizza prices")
		return
	}
	out := make([]priceResponse, len(prices))
	for i, p := range prices {
		out[i] = priceResponse{ID: p.ID, Size: p.Size, Price: p.Price.InexactFloat64()}
	}
	writeData(w, http.StatusOK, out)
}

// Weather handles GET /api/weather. Upstream failures are already folded
// into a fallback report, so this endpoint always succeeds.
func (h *Handler) Weather(w http.ResponseWriter, r *http.Request) {
	rep := h.weather.Report(r.Context())
	writeData(w, http.StatusOK, weatherResponse{
		Temperature: rep.Temperature,
		Location:    rep.Location,
	})
}

// couponEnvelope keeps the success flag shape used by the storefront coupon
// widget.
type couponEnvelope struct {
	Success bool            `json:"success"`
	Data    *couponResponse `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

type couponResponse struct {
	Code               string  `json:"code"`
	DiscountPercentage float64 `json:"discount_percentage"`
	Valid              bool    `json:"valid"`
}

// ValidateCoupon handles GET /api/coupon/validate?code=X.
func (h *Handler) ValidateCoupon(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimSpace(r.URL.Query().Get("code"))
	if code == "" {
		writeJSON(w, http.StatusBadRequest, couponEnvelope{Error: "Coupon code is required"})
		return
	}

	c, err := h.coupons.Validate(r.Context(), code)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, couponEnvelope{
			Success: true,
			Data: &couponResponse{
				Code:               c.Code,
				DiscountPercentage: c.DiscountPercentage.InexactFloat64(),
				Valid:              true,
			},
		})
	case errors.Is(err, coupon.ErrInvalidCoupon):
		writeJSON(w, http.StatusNotFound, couponEnvelope{Error: "Invalid or already used coupon code"})
	default:
		zctx.From(r.Context()).Error("Coupon validation failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, couponEnvelope{Error: "Failed to validate coupon"})
	}
}

// fail logs err and responds with a generic 500.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, msg string) {
	zctx.From(r.Context()).Error(msg, zap.Error(err))
	writeError(w, http.StatusInternalServerError, msg)
}
