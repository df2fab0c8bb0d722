package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/pizza-bakker/internal/domain/order"
)

// Config holds the complete application configuration, loadable from
// environment variables (PIZZA_ prefix), flags, or YAML config files.
type Config struct {
	Addr        string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL string `usage:"PostgreSQL connection URL (PIZZA_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	RateLimit   RateLimitConfig
	CORS        CORSConfig
	Graceful    GracefulConfig
	Weather     WeatherConfig
	Redis       RedisConfig
	Discount    DiscountConfig
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// WeatherConfig points the weather client at a forecast API location.
type WeatherConfig struct {
	BaseURL             string        `default:"https://api.open-meteo.com/v1" usage:"Open-Meteo compatible API base URL" flag:"weather-base-url"`
	Latitude            float64       `default:"52.3676" usage:"Storefront latitude"`
	Longitude           float64       `default:"4.9041"  usage:"Storefront longitude"`
	Location            string        `default:"Amsterdam" usage:"Location name shown with the weather"`
	Timeout             time.Duration `default:"2s"  usage:"Weather API request timeout"`
	CacheTTL            time.Duration `default:"10m" usage:"How long a temperature reading is reused" flag:"weather-cache-ttl"`
	FallbackTemperature float64       `default:"20"  usage:"Temperature reported when the API is unavailable" flag:"weather-fallback"`
}

// RedisConfig enables the shared weather cache. An empty Addr keeps the
// cache in process memory.
type RedisConfig struct {
	Addr     string `default:"" usage:"Redis address (host:port)"`
	Password string `default:"" usage:"Redis password"`
	DB       int    `default:"0" usage:"Redis database number"`
}

// DiscountConfig configures the hot weather topping discount.
type DiscountConfig struct {
	Topping          string  `default:"Pineapple" usage:"Topping discounted in hot weather" flag:"discount-topping"`
	ThresholdCelsius float64 `default:"30" usage:"Temperature above which the discount applies" flag:"discount-threshold"`
	Percent          float64 `default:"10" usage:"Discount percentage on matching items" flag:"discount-percent"`
}

// Rule converts the discount settings into an order.WeatherRule.
func (c DiscountConfig) Rule() order.WeatherRule {
	return order.WeatherRule{
		Topping:          c.Topping,
		ThresholdCelsius: c.ThresholdCelsius,
		Percent:          decimal.NewFromFloat(c.Percent),
	}
}

// LoadConfig loads configuration from environment variables, YAML config files,
// and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "PIZZA",
		Files:     []string{"config.yaml", "/etc/pizza/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return errors.New("database URL is required: set PIZZA_DATABASE_URL or DATABASE_URL")
	}
	if c.Discount.Percent < 0 || c.Discount.Percent > 100 {
		return errors.Errorf("discount percent %v out of range [0, 100]", c.Discount.Percent)
	}
	if c.Weather.Latitude < -90 || c.Weather.Latitude > 90 {
		return errors.Errorf("weather latitude %v out of range", c.Weather.Latitude)
	}
	if c.Weather.Longitude < -180 || c.Weather.Longitude > 180 {
		return errors.Errorf("weather longitude %v out of range", c.Weather.Longitude)
	}
	return nil
}

// applyPlatformDefaults maps platform-provided environment variables that
// use unprefixed names (DATABASE_URL, REDIS_ADDR, PORT) to the application's
// PIZZA_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if c.Redis.Addr == "" {
		if v := os.Getenv("REDIS_ADDR"); v != "" {
			c.Redis.Addr = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
