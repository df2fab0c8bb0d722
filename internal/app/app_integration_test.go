//go:build integration

package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap/zaptest"

	"github.com/xenking/pizza-bakker/db"
	"github.com/xenking/pizza-bakker/internal/storage/postgres"
	"github.com/xenking/pizza-bakker/pkg/health"
)

type noopTelemetry struct{}

func (noopTelemetry) TracerProvider() trace.TracerProvider { return tracenoop.NewTracerProvider() }
func (noopTelemetry) MeterProvider() metric.MeterProvider  { return metricnoop.NewMeterProvider() }

type storefront struct {
	srv          *httptest.Server
	weatherCalls *atomic.Int64
}

func startStorefront(t *testing.T, temperature float64) *storefront {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	ctr, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "pizza",
				"POSTGRES_PASSWORD": "pizza",
				"POSTGRES_DB":       "pizza",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = ctr.Terminate(context.Background()) })

	host, err := ctr.Host(ctx)
	require.NoError(t, err)
	port, err := ctr.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	pool, err := postgres.NewPool(ctx, fmt.Sprintf("postgres://pizza:pizza@%s:%s/pizza?sslmode=disable", host, port.Port()))
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, postgres.RunMigrations(ctx, pool))

	var data postgres.SeedData
	require.NoError(t, json.Unmarshal(db.Catalog, &data))
	require.NoError(t, postgres.Seed(ctx, pool, data))

	calls := new(atomic.Int64)
	meteo := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = fmt.Fprintf(w, `{"current_weather":{"temperature":%v,"windspeed":3.1}}`, temperature)
	}))
	t.Cleanup(meteo.Close)

	rdb := miniredis.RunT(t)

	cfg := &Config{
		RateLimit: RateLimitConfig{Max: 1000, Window: time.Minute},
		CORS:      CORSConfig{Origins: []string{"*"}},
		Weather: WeatherConfig{
			BaseURL:             meteo.URL,
			Latitude:            52.3676,
			Longitude:           4.9041,
			Location:            "Amsterdam",
			Timeout:             time.Second,
			CacheTTL:            time.Minute,
			FallbackTemperature: 20,
		},
		Redis:    RedisConfig{Addr: rdb.Addr()},
		Discount: DiscountConfig{Topping: "Pineapple", ThresholdCelsius: 30, Percent: 10},
	}

	lg := zaptest.NewLogger(t)
	srvCtx, stop := context.WithCancel(context.Background())
	t.Cleanup(stop)

	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", time.Second, health.PingCheck(pool))
	h, closeHandler, err := NewHandler(srvCtx, lg, noopTelemetry{}, cfg, pool, healthSvc)
	require.NoError(t, err)
	t.Cleanup(closeHandler)
	healthSvc.Start(srvCtx, time.Second)
	t.Cleanup(healthSvc.Stop)
	healthSvc.SetReady(true)

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	return &storefront{srv: srv, weatherCalls: calls}
}

func (s *storefront) get(t *testing.T, path string, out any) int {
	t.Helper()
	resp, err := s.srv.Client().Get(s.srv.URL + path)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (s *storefront) post(t *testing.T, path string, body, out any) int {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := s.srv.Client().Post(s.srv.URL+path, "application/json", bytes.NewReader(b))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	return resp.StatusCode
}

type named struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

func (s *storefront) ids(t *testing.T, path string) map[string]int64 {
	t.Helper()
	var resp struct {
		Status string  `json:"status"`
		Data   []named `json:"data"`
	}
	require.Equal(t, http.StatusOK, s.get(t, path, &resp))
	out := make(map[string]int64, len(resp.Data))
	for _, n := range resp.Data {
		out[n.Name] = n.ID
	}
	return out
}

type placedOrder struct {
	Status string `json:"status"`
	Error  string `json:"error"`
	Data   struct {
		ID         int64   `json:"id"`
		TotalPrice float64 `json:"total_price"`
		Discount   float64 `json:"discount"`
		CouponCode string  `json:"coupon_code"`
		Items      []struct {
			ID       int64   `json:"id"`
			Name     string  `json:"name"`
			Toppings []int64 `json:"toppings"`
			Price    float64 `json:"price"`
			Discount float64 `json:"discount"`
		} `json:"items"`
	} `json:"data"`
}

func TestStorefront(t *testing.T) {
	s := startStorefront(t, 31.5)
	toppings := s.ids(t, "/api/toppings")
	drinks := s.ids(t, "/api/drinks")
	require.Len(t, toppings, 12)
	require.Len(t, drinks, 5)

	t.Run("Probes", func(t *testing.T) {
		var body map[string]any
		assert.Equal(t, http.StatusOK, s.get(t, "/livez", &body))
		assert.Equal(t, http.StatusOK, s.get(t, "/readyz", &body))
	})

	t.Run("Presets", func(t *testing.T) {
		var resp struct {
			Data []struct {
				Name     string  `json:"name"`
				Toppings []int64 `json:"toppings"`
			} `json:"data"`
		}
		require.Equal(t, http.StatusOK, s.get(t, "/api/pizzas", &resp))
		require.Len(t, resp.Data, 5)
		assert.Equal(t, "Hawaiian", resp.Data[0].Name)
		assert.ElementsMatch(t, []int64{
			toppings["Ham"], toppings["Pineapple"], toppings["Mozzarella Cheese"],
		}, resp.Data[0].Toppings)
	})

	t.Run("Weather", func(t *testing.T) {
		var resp struct {
			Data weatherResponseBody `json:"data"`
		}
		require.Equal(t, http.StatusOK, s.get(t, "/api/weather", &resp))
		assert.Equal(t, 31.5, resp.Data.Temperature)
		assert.Equal(t, "Amsterdam", resp.Data.Location)
	})

	t.Run("Coupon", func(t *testing.T) {
		var resp map[string]any
		assert.Equal(t, http.StatusOK, s.get(t, "/api/coupon/validate?code=WELCOME10", &resp))
		assert.Equal(t, true, resp["success"])
		assert.Equal(t, http.StatusNotFound, s.get(t, "/api/coupon/validate?code=welcome10", &resp))
	})

	t.Run("PlaceOrderHotWeather", func(t *testing.T) {
		drink := drinks["Coca Cola"]
		var resp placedOrder
		status := s.post(t, "/api/orders", map[string]any{
			"customer_name": "Alice",
			"coupon_code":   "WELCOME10",
			"items": []map[string]any{{
				"name":     "Hawaiian Deluxe",
				"size":     "medium",
				"toppings": []int64{toppings["Pineapple"], toppings["Ham"], toppings["Mozzarella Cheese"], toppings["Bacon"]},
				"drink_id": drink,
				"quantity": 2,
			}},
		}, &resp)
		require.Equal(t, http.StatusOK, status, resp.Error)

		// 12.00 base + 3.50 bacon + 2.50 cola = 18.00, minus 10% pineapple
		// discount = 16.20 per unit; 32.40 subtotal, WELCOME10 takes 3.24.
		require.Len(t, resp.Data.Items, 1)
		item := resp.Data.Items[0]
		assert.NotZero(t, item.ID)
		assert.InDelta(t, 16.20, item.Price, 1e-9)
		assert.InDelta(t, 1.80, item.Discount, 1e-9)
		assert.InDelta(t, 3.24, resp.Data.Discount, 1e-9)
		assert.InDelta(t, 29.16, resp.Data.TotalPrice, 1e-9)
		assert.Equal(t, "WELCOME10", resp.Data.CouponCode)

		var stored placedOrder
		require.Equal(t, http.StatusOK, s.get(t, fmt.Sprintf("/api/orders/%d", resp.Data.ID), &stored))
		assert.Equal(t, resp.Data.TotalPrice, stored.Data.TotalPrice)
		assert.Equal(t, "Hawaiian Deluxe", stored.Data.Items[0].Name)
		assert.Len(t, stored.Data.Items[0].Toppings, 4)
	})

	t.Run("WeatherIsCached", func(t *testing.T) {
		before := s.weatherCalls.Load()
		var resp placedOrder
		status := s.post(t, "/api/orders", map[string]any{
			"customer_name": "Bob",
			"items": []map[string]any{{
				"size": "small", "toppings": []int64{toppings["Pineapple"]}, "quantity": 1,
			}},
		}, &resp)
		require.Equal(t, http.StatusOK, status, resp.Error)
		assert.Equal(t, before, s.weatherCalls.Load())
		assert.InDelta(t, 7.20, resp.Data.TotalPrice, 1e-9)
		assert.Equal(t, "custom", resp.Data.Items[0].Name)
	})

	t.Run("ValidationErrors", func(t *testing.T) {
		var resp placedOrder
		status := s.post(t, "/api/orders", map[string]any{
			"customer_name": "Carol",
			"items": []map[string]any{{
				"size": "huge", "toppings": []int64{999}, "drink_id": 999, "quantity": 1,
			}},
		}, &resp)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "error", resp.Status)
		assert.Equal(t, "Invalid pizza size\nSome toppings are invalid or not available\nSelected drink is not available", resp.Error)
	})

	t.Run("UnknownCoupon", func(t *testing.T) {
		var resp placedOrder
		status := s.post(t, "/api/orders", map[string]any{
			"customer_name": "Dave",
			"coupon_code":   "NOPE",
			"items": []map[string]any{{
				"size": "small", "toppings": []int64{toppings["Ham"]}, "quantity": 1,
			}},
		}, &resp)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "Invalid coupon code", resp.Error)
	})

	t.Run("MissingOrder", func(t *testing.T) {
		var resp map[string]any
		assert.Equal(t, http.StatusNotFound, s.get(t, "/api/orders/999999", &resp))
	})

	t.Run("RequestID", func(t *testing.T) {
		resp, err := s.srv.Client().Get(s.srv.URL + "/api/drinks")
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	})
}

type weatherResponseBody struct {
	Temperature float64 `json:"temperature"`
	Location    string  `json:"location"`
}
