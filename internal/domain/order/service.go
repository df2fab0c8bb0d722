package order

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/pizza-bakker/internal/domain/catalog"
	"github.com/xenking/pizza-bakker/internal/domain/coupon"
)

// ErrCustomerNameRequired is returned when the customer name is blank.
var ErrCustomerNameRequired = errors.New("customer name is required")

// DefaultItemName is used for items submitted without a name.
const DefaultItemName = "custom"

const instrumentationName = "github.com/xenking/pizza-bakker/internal/domain/order"

// TemperatureProvider reports the current outside temperature in Celsius.
type TemperatureProvider interface {
	CurrentTemperature(ctx context.Context) (float64, error)
}

// PlaceOrderRequest holds the input for placing an order.
type PlaceOrderRequest struct {
	CustomerName string
	Items        []ItemRequest
	CouponCode   string
}

// Service encapsulates order placement business logic.
type Service struct {
	catalog catalog.Repository
	coupons coupon.Validator
	orders  Repository
	weather TemperatureProvider
	rule    WeatherRule

	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider

	tracer      trace.Tracer
	placed      metric.Int64Counter
	orderTotals metric.Float64Histogram
}

// Option configures a Service.
type Option func(*Service)

// WithWeatherRule overrides DefaultWeatherRule.
func WithWeatherRule(r WeatherRule) Option {
	return func(s *Service) { s.rule = r }
}

// WithTracerProvider sets the tracer provider. Defaults to the global one.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Service) { s.tracerProvider = tp }
}

// WithMeterProvider sets the meter provider. Defaults to the global one.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(s *Service) { s.meterProvider = mp }
}

// NewService creates an order Service with the required domain dependencies.
func NewService(
	products catalog.Repository,
	coupons coupon.Validator,
	orders Repository,
	weather TemperatureProvider,
	opts ...Option,
) (*Service, error) {
	s := &Service{
		catalog:        products,
		coupons:        coupons,
		orders:         orders,
		weather:        weather,
		rule:           DefaultWeatherRule,
		tracerProvider: otel.GetTracerProvider(),
		meterProvider:  otel.GetMeterProvider(),
	}
	for _, o := range opts {
		o(s)
	}

	s.tracer = s.tracerProvider.Tracer(instrumentationName)
	meter := s.meterProvider.Meter(instrumentationName)

	var err error
	if s.placed, err = meter.Int64Counter("pizza.orders.placed",
		metric.WithDescription("Number of orders placed"),
	); err != nil {
		return nil, errors.Wrap(err, "orders counter")
	}
	if s.orderTotals, err = meter.Float64Histogram("pizza.orders.total",
		metric.WithDescription("Order total after discounts"),
		metric.WithUnit("EUR"),
	); err != nil {
		return nil, errors.Wrap(err, "order total histogram")
	}

	return s, nil
}

// PlaceOrder validates and prices the requested items, applies the weather
// and coupon discounts, and persists the order.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (_ *Order, rerr error) {
	ctx, span := s.tracer.Start(ctx, "order.PlaceOrder")
	defer func() {
		if rerr != nil {
			span.RecordError(rerr)
			span.SetStatus(codes.Error, rerr.Error())
		}
		span.End()
	}()

	name := strings.TrimSpace(req.CustomerName)
	if name == "" {
		return nil, ErrCustomerNameRequired
	}

	var toppingIDs, drinkIDs []int64
	for _, item := range req.Items {
		toppingIDs = append(toppingIDs, item.Toppings...)
		if item.DrinkID != nil {
			drinkIDs = append(drinkIDs, *item.DrinkID)
		}
	}

	snap, err := catalog.LoadSnapshot(ctx, s.catalog, toppingIDs, drinkIDs)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	if err := Validate(snap, req.Items).Err(); err != nil {
		return nil, err
	}

	priced, err := PriceItems(snap, req.Items)
	if err != nil {
		return nil, fmt.Errorf("price items: %w", err)
	}

	var (
		applied  *coupon.Coupon
		discount *ItemDiscount
	)
	g, gctx := errgroup.WithContext(ctx)
	if code := strings.TrimSpace(req.CouponCode); code != "" {
		g.Go(func() (err error) {
			applied, err = s.coupons.Validate(gctx, code)
			return err
		})
	}
	if t, ok := snap.ToppingByName(s.rule.Topping); ok {
		g.Go(func() error {
			discount = s.weatherDiscount(gctx, t)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("validate coupon: %w", err)
	}

	var couponPercent decimal.NullDecimal
	if applied != nil {
		couponPercent = decimal.NewNullDecimal(applied.DiscountPercentage)
	}
	totals := CalculateTotals(priced, couponPercent, discount)

	o := &Order{
		CustomerName: name,
		Items:        totals.Items,
		TotalPrice:   totals.Total,
		Discount:     totals.Discount,
	}
	for i := range o.Items {
		if o.Items[i].Name == "" {
			o.Items[i].Name = DefaultItemName
		}
	}
	if applied != nil {
		o.CouponID = applied.ID
		o.CouponCode = applied.Code
	}

	if err := s.orders.Create(ctx, o); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	attrs := metric.WithAttributes(
		attribute.Bool("coupon", applied != nil),
		attribute.Bool("weather_discount", discount != nil),
	)
	s.placed.Add(ctx, 1, attrs)
	s.orderTotals.Record(ctx, o.TotalPrice.InexactFloat64(), attrs)
	span.SetAttributes(attribute.Int64("order.id", o.ID))

	return o, nil
}

// GetOrder returns a persisted order by id.
func (s *Service) GetOrder(ctx context.Context, id int64) (*Order, error) {
	o, err := s.orders.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

// weatherDiscount resolves the weather rule. Lookup failures disable the
// discount rather than failing the order.
func (s *Service) weatherDiscount(ctx context.Context, t catalog.Topping) *ItemDiscount {
	if s.weather == nil {
		return nil
	}
	temp, err := s.weather.CurrentTemperature(ctx)
	if err != nil {
		if ctx.Err() == nil {
			zctx.From(ctx).Warn("Weather lookup failed", zap.Error(err))
		}
		return nil
	}
	return s.rule.Activate(&t, temp)
}
