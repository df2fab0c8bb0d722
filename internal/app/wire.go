package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/xenking/pizza-bakker/internal/domain/coupon"
	"github.com/xenking/pizza-bakker/internal/domain/order"
	"github.com/xenking/pizza-bakker/internal/handler"
	"github.com/xenking/pizza-bakker/internal/storage/postgres"
	"github.com/xenking/pizza-bakker/internal/weather"
	"github.com/xenking/pizza-bakker/pkg/health"
	"github.com/xenking/pizza-bakker/pkg/httpmiddleware"
)

// NewHandler builds the storefront HTTP handler on top of a migrated pool:
// repositories, weather provider, order service, routes and middleware.
// Checks for optional dependencies are registered on healthSvc, so it must
// be called before healthSvc.Start. The returned func releases connections
// opened here.
func NewHandler(
	ctx context.Context,
	lg *zap.Logger,
	t httpmiddleware.TelemetryProvider,
	cfg *Config,
	pool *pgxpool.Pool,
	healthSvc *health.Health,
) (http.Handler, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error) (http.Handler, func(), error) {
		cleanup()
		return nil, nil, err
	}

	// Weather cache: Redis when configured, process memory otherwise.
	var cache weather.Cache = weather.NewMemoryCache(cfg.Weather.CacheTTL)
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		closers = append(closers, func() { _ = rdb.Close() })

		cache = weather.NewRedisCache(rdb, "pizza:weather:")
		// Cache outages fall back to direct API calls.
		healthSvc.AddReadinessCheck("redis", 2*time.Second, func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}, health.WithThresholds(10, 1))
		lg.Info("Using Redis weather cache", zap.String("redis_addr", cfg.Redis.Addr))
	}

	// Repositories.
	catalogRepo := postgres.NewCatalogRepository(pool)
	couponRepo := postgres.NewCouponRepository(pool)
	orderRepo := postgres.NewOrderRepository(pool)

	bloomCoupons, err := coupon.NewBloomRepository(ctx, couponRepo)
	if err != nil {
		return fail(errors.Wrap(err, "load coupon filter"))
	}

	weatherClient, err := weather.NewClient(weather.ClientConfig{
		BaseURL:        cfg.Weather.BaseURL,
		Latitude:       cfg.Weather.Latitude,
		Longitude:      cfg.Weather.Longitude,
		Timeout:        cfg.Weather.Timeout,
		TracerProvider: t.TracerProvider(),
		MeterProvider:  t.MeterProvider(),
	})
	if err != nil {
		return fail(errors.Wrap(err, "create weather client"))
	}
	temperatures := weather.NewCachedProvider(weatherClient, cache,
		cfg.Weather.Latitude, cfg.Weather.Longitude, cfg.Weather.CacheTTL)
	reporter := weather.NewReporter(temperatures, cfg.Weather.Location, cfg.Weather.FallbackTemperature)

	// Domain services.
	couponValidator := coupon.NewRepoValidator(bloomCoupons)
	orderService, err := order.NewService(catalogRepo, couponValidator, orderRepo, temperatures,
		order.WithWeatherRule(cfg.Discount.Rule()),
		order.WithTracerProvider(t.TracerProvider()),
		order.WithMeterProvider(t.MeterProvider()),
	)
	if err != nil {
		return fail(errors.Wrap(err, "create order service"))
	}

	// Router: health endpoints + API routes.
	router := chi.NewRouter()
	router.Get("/livez", healthSvc.LiveEndpoint)
	router.Get("/readyz", healthSvc.ReadyEndpoint)
	handler.NewHandler(catalogRepo, couponValidator, orderService, reporter).Routes(router)

	routeFinder := httpmiddleware.MakeRouteFinder(router)
	return httpmiddleware.Wrap(router,
		httpmiddleware.Recovery(),
		httpmiddleware.CORS(httpmiddleware.CORSConfig{
			AllowOrigins:     cfg.CORS.Origins,
			AllowHeaders:     []string{"Content-Type", httpmiddleware.RequestIDHeader},
			AllowCredentials: cfg.CORS.AllowCredentials,
			MaxAge:           86400,
		}),
		httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
			Max:    cfg.RateLimit.Max,
			Window: cfg.RateLimit.Window,
			Skip:   isProbe,
		}),
		httpmiddleware.RequestID(),
		httpmiddleware.InjectLogger(lg),
		httpmiddleware.Instrument("pizza-api", routeFinder, t),
		httpmiddleware.LogRequests(routeFinder),
		httpmiddleware.Labeler(routeFinder),
	), cleanup, nil
}

// isProbe exempts health endpoints from rate limiting.
func isProbe(r *http.Request) bool {
	return r.URL.Path == "/livez" || r.URL.Path == "/readyz"
}
