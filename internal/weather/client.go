// Package weather provides the current outside temperature used by the
// weather discount and the storefront banner.
package weather

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// DefaultBaseURL is the Open-Meteo API root.
const DefaultBaseURL = "https://api.open-meteo.com/v1"

// ErrNoTemperature is returned when the response lacks a current temperature.
var ErrNoTemperature = errors.New("response has no current temperature")

// Source reports the current temperature in Celsius.
type Source interface {
	CurrentTemperature(ctx context.Context) (float64, error)
}

// ClientConfig configures the Open-Meteo client.
type ClientConfig struct {
	BaseURL   string
	Latitude  float64
	Longitude float64
	Timeout   time.Duration

	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
}

// Client fetches the current temperature from the Open-Meteo forecast API.
type Client struct {
	http     *http.Client
	endpoint string
	timeout  time.Duration
}

var _ Source = (*Client)(nil)

// NewClient creates a Client with an instrumented HTTP transport.
func NewClient(cfg ClientConfig) (*Client, error) {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	u, err := url.Parse(strings.TrimSuffix(base, "/") + "/forecast")
	if err != nil {
		return nil, errors.Wrap(err, "parse base url")
	}
	q := u.Query()
	q.Set("latitude", strconv.FormatFloat(cfg.Latitude, 'f', 4, 64))
	q.Set("longitude", strconv.FormatFloat(cfg.Longitude, 'f', 4, 64))
	q.Set("current_weather", "true")
	u.RawQuery = q.Encode()

	var opts []otelhttp.Option
	if cfg.TracerProvider != nil {
		opts = append(opts, otelhttp.WithTracerProvider(cfg.TracerProvider))
	}
	if cfg.MeterProvider != nil {
		opts = append(opts, otelhttp.WithMeterProvider(cfg.MeterProvider))
	}
	transport := &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 5,
		IdleConnTimeout:     90 * time.Second,
	}

	return &Client{
		http:     &http.Client{Transport: otelhttp.NewTransport(transport, opts...)},
		endpoint: u.String(),
		timeout:  cfg.Timeout,
	}, nil
}

// CurrentTemperature performs a single API call, bounded by the configured
// timeout.
func (c *Client) CurrentTemperature(ctx context.Context) (float64, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, http.NoBody)
	if err != nil {
		return 0, errors.Wrap(err, "create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, errors.Wrap(err, "request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("weather api returned status %d", resp.StatusCode)
	}

	temp, err := decodeTemperature(jx.Decode(resp.Body, 512))
	if err != nil {
		return 0, errors.Wrap(err, "decode response")
	}
	return temp, nil
}

// decodeTemperature extracts current_weather.temperature, skipping every
// other field.
func decodeTemperature(d *jx.Decoder) (float64, error) {
	var (
		temp  float64
		found bool
	)
	err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		if string(key) != "current_weather" {
			return d.Skip()
		}
		if d.Next() == jx.Null {
			return d.Null()
		}
		return d.ObjBytes(func(d *jx.Decoder, key []byte) error {
			if string(key) != "temperature" {
				return d.Skip()
			}
			v, err := d.Float64()
			if err != nil {
				return errors.Wrap(err, "temperature")
			}
			temp, found = v, true
			return nil
		})
	})
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, ErrNoTemperature
	}
	return temp, nil
}
