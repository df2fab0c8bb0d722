package weather

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultCacheTTL is how long a fetched temperature stays fresh.
const DefaultCacheTTL = 10 * time.Minute

// CachedProvider is a read-through cache in front of a Source. Concurrent
// misses for the same location share a single upstream call.
type CachedProvider struct {
	source Source
	cache  Cache
	key    string
	ttl    time.Duration
	group  singleflight.Group
}

var _ Source = (*CachedProvider)(nil)

// NewCachedProvider caches source readings for the given coordinates.
func NewCachedProvider(source Source, cache Cache, lat, lon float64, ttl time.Duration) *CachedProvider {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedProvider{
		source: source,
		cache:  cache,
		key:    fmt.Sprintf("temperature:%.4f:%.4f", lat, lon),
		ttl:    ttl,
	}
}

// CurrentTemperature returns the cached reading or fetches a fresh one.
// Cache failures are logged and bypassed.
func (p *CachedProvider) CurrentTemperature(ctx context.Context) (float64, error) {
	lg := zctx.From(ctx)

	v, ok, err := p.cache.Get(ctx, p.key)
	switch {
	case err != nil:
		lg.Warn("Weather cache read failed", zap.Error(err))
	case ok:
		return v, nil
	}

	// The shared fetch outlives any single caller; each caller still stops
	// waiting when its own ctx is done.
	fetchCtx := context.WithoutCancel(ctx)
	ch := p.group.DoChan(p.key, func() (any, error) {
		// Another caller may have filled the cache since the miss above.
		if v, ok, err := p.cache.Get(fetchCtx, p.key); err == nil && ok {
			return v, nil
		}
		temp, err := p.source.CurrentTemperature(fetchCtx)
		if err != nil {
			return 0.0, err
		}
		if err := p.cache.Set(fetchCtx, p.key, temp, p.ttl); err != nil {
			lg.Warn("Weather cache write failed", zap.Error(err))
		}
		return temp, nil
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return 0, res.Err
		}
		return res.Val.(float64), nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// Report is the weather shown on the storefront.
type Report struct {
	Temperature float64
	Location    string
	// Fallback is set when the temperature is the configured default rather
	// than a live reading.
	Fallback bool
}

// Reporter builds storefront weather reports.
type Reporter struct {
	source   Source
	location string
	fallback float64
}

// NewReporter creates a Reporter that answers with fallback when source fails.
func NewReporter(source Source, location string, fallback float64) *Reporter {
	return &Reporter{source: source, location: location, fallback: fallback}
}

// Report never fails: upstream errors yield the fallback temperature.
func (r *Reporter) Report(ctx context.Context) Report {
	temp, err := r.source.CurrentTemperature(ctx)
	if err != nil {
		zctx.From(ctx).Warn("Failed to fetch weather data, using fallback",
			zap.Error(err),
			zap.Float64("fallback", r.fallback),
		)
		return Report{Temperature: r.fallback, Location: r.location, Fallback: true}
	}
	return Report{Temperature: temp, Location: r.location}
}
