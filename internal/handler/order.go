package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/pizza-bakker/internal/domain/catalog"
	"github.com/xenking/pizza-bakker/internal/domain/coupon"
	"github.com/xenking/pizza-bakker/internal/domain/order"
)

const maxOrderBody = 1 << 20

type orderItemRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Size        string  `json:"size"`
	Toppings    []int64 `json:"toppings"`
	DrinkID     *int64  `json:"drink_id"`
	Quantity    int     `json:"quantity"`
}

type orderRequest struct {
	CustomerName string             `json:"customer_name"`
	Items        []orderItemRequest `json:"items"`
	CouponCode   string             `json:"coupon_code"`
}

type orderItemResponse struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Size        string  `json:"size"`
	Toppings    []int64 `json:"toppings"`
	DrinkID     *int64  `json:"drink_id"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
	Discount    float64 `json:"discount"`
}

type orderResponse struct {
	ID           int64               `json:"id"`
	CustomerName string              `json:"customer_name"`
	Items        []orderItemResponse `json:"items"`
	TotalPrice   float64             `json:"total_price"`
	Discount     float64             `json:"discount"`
	CreatedAt    time.Time           `json:"created_at"`
	CouponCode   string              `json:"coupon_code,omitempty"`
}

func (req orderRequest) domain() order.PlaceOrderRequest {
	items := make([]order.ItemRequest, len(req.Items))
	for i, it := range req.Items {
		items[i] = order.ItemRequest{
			Name:        it.Name,
			Description: it.Description,
			Size:        catalog.Size(it.Size),
			Toppings:    it.Toppings,
			DrinkID:     it.DrinkID,
			Quantity:    it.Quantity,
		}
	}
	return order.PlaceOrderRequest{
		CustomerName: req.CustomerName,
		Items:        items,
		CouponCode:   req.CouponCode,
	}
}

func newOrderResponse(o *order.Order) orderResponse {
	items := make([]orderItemResponse, len(o.Items))
	for i, it := range o.Items {
		toppings := it.Toppings
		if toppings == nil {
			toppings = []int64{}
		}
		items[i] = orderItemResponse{
			ID:          it.ID,
			Name:        it.Name,
			Description: it.Description,
			Size:        string(it.Size),
			Toppings:    toppings,
			DrinkID:     it.DrinkID,
			Quantity:    it.Quantity,
			Price:       it.Price.InexactFloat64(),
			Discount:    it.Discount.InexactFloat64(),
		}
	}
	return orderResponse{
		ID:           o.ID,
		CustomerName: o.CustomerName,
		Items:        items,
		TotalPrice:   o.TotalPrice.InexactFloat64(),
		Discount:     o.Discount.InexactFloat64(),
		CreatedAt:    o.CreatedAt.UTC(),
		CouponCode:   o.CouponCode,
	}
}

// PlaceOrder handles POST /api/orders.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxOrderBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	o, err := h.orders.PlaceOrder(r.Context(), req.domain())
	if err != nil {
		status, msg := mapOrderError(err)
		if status == http.StatusInternalServerError {
			zctx.From(r.Context()).Error("Place order failed", zap.Error(err))
		}
		writeError(w, status, msg)
		return
	}

	zctx.From(r.Context()).Info("Order placed",
		zap.Int64("order_id", o.ID),
		zap.Int("items", len(o.Items)),
		zap.String("total", o.TotalPrice.StringFixed(2)),
	)
	writeData(w, http.StatusOK, newOrderResponse(o))
}

// GetOrder handles GET /api/orders/{id}.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusNotFound, "Order not found")
		return
	}

	o, err := h.orders.GetOrder(r.Context(), id)
	switch {
	case err == nil:
		writeData(w, http.StatusOK, newOrderResponse(o))
	case errors.Is(err, order.ErrNotFound):
		writeError(w, http.StatusNotFound, "Order not found")
	default:
		h.fail(w, r, err, "Failed to fetch order")
	}
}

// mapOrderError converts order placement errors to a status and a client
// safe message. Anything unrecognised is reported as a generic 500.
func mapOrderError(err error) (int, string) {
	var verr *order.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Error()
	case errors.Is(err, order.ErrCustomerNameRequired):
		return http.StatusBadRequest, "Customer name is required"
	case errors.Is(err, coupon.ErrInvalidCoupon):
		return http.StatusBadRequest, "Invalid coupon code"
	default:
		return http.StatusInternalServerError, "Failed to create order"
	}
}
