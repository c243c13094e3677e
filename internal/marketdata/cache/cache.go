// Package cache is a Redis read-through layer over a BarSource.
//
// Daily bars are immutable once the session closes, so cached series are
// served until TTL expiry and the rate-limited upstream is only hit on a
// miss. Redis being down degrades to direct fetches; the circuit breaker
// covers the upstream itself so a failing provider is not hammered.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"twscreener/internal/metrics"
	"twscreener/internal/model"
)

// Config configures the caching layer.
type Config struct {
	TTL time.Duration // cached series lifetime (default 10m)

	BreakerMaxFailures  int           // upstream failures before tripping (default 5)
	BreakerResetTimeout time.Duration // open duration before a probe (default 30s)
}

// BarCache implements model.BarSource with a Redis read-through cache
// and a circuit breaker on the upstream source.
type BarCache struct {
	src     model.BarSource
	rdb     *goredis.Client
	ttl     time.Duration
	breaker *CircuitBreaker
	met     *metrics.Metrics
	log     *slog.Logger
}

// New wraps src with caching. rdb may be nil; the cache then passes
// every fetch through the breaker directly. met may be nil.
func New(src model.BarSource, rdb *goredis.Client, cfg Config, met *metrics.Metrics, log *slog.Logger) *BarCache {
	if log == nil {
		log = slog.Default()
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 10 * time.Minute
	}
	if cfg.BreakerMaxFailures <= 0 {
		cfg.BreakerMaxFailures = 5
	}
	if cfg.BreakerResetTimeout <= 0 {
		cfg.BreakerResetTimeout = 30 * time.Second
	}

	breaker := NewCircuitBreaker(cfg.BreakerMaxFailures, cfg.BreakerResetTimeout)
	breaker.OnStateChange = func(from, to State) {
		log.Warn("bar source breaker transition",
			slog.String("from", from.String()),
			slog.String("to", to.String()),
		)
		if met != nil {
			met.BreakerState.Set(float64(to))
			if to == StateOpen {
				met.BreakerTrips.Inc()
			}
		}
	}
	return &BarCache{src: src, rdb: rdb, ttl: cfg.TTL, breaker: breaker, met: met, log: log}
}

// BreakerState exposes the breaker state for health reporting.
func (c *BarCache) BreakerState() State { return c.breaker.CurrentState() }

func cacheKey(symbol string, lookbackDays int) string {
	return fmt.Sprintf("bars:%s:%d", symbol, lookbackDays)
}

// FetchBars serves from Redis when possible, otherwise fetches upstream
// through the breaker and back-fills the cache.
func (c *BarCache) FetchBars(ctx context.Context, symbol string, lookbackDays int) (*model.BarSeries, error) {
	key := cacheKey(symbol, lookbackDays)
	start := time.Now()
	if c.met != nil {
		defer func() { c.met.FetchDur.Observe(time.Since(start).Seconds()) }()
	}

	if c.rdb != nil {
		raw, err := c.rdb.Get(ctx, key).Bytes()
		if err == nil {
			var series model.BarSeries
			if jerr := json.Unmarshal(raw, &series); jerr == nil {
				if c.met != nil {
					c.met.CacheHits.Inc()
				}
				return &series, nil
			}
			// Corrupt entry: drop it and fall through to the source
			c.rdb.Del(ctx, key)
		} else if !errors.Is(err, goredis.Nil) {
			c.log.Warn("bar cache read failed", slog.String("key", key), slog.Any("error", err))
		}
	}
	if c.met != nil {
		c.met.CacheMisses.Inc()
	}

	var series *model.BarSeries
	err := c.breaker.Execute(func() error {
		var ferr error
		series, ferr = c.src.FetchBars(ctx, symbol, lookbackDays)
		return ferr
	})
	if err != nil {
		if errors.Is(err, ErrCircuitOpen) {
			return nil, fmt.Errorf("%w: bar source circuit open for %s", model.ErrDataUnavailable, symbol)
		}
		if c.met != nil {
			c.met.BarSourceErrors.Inc()
		}
		return nil, err
	}

	if c.rdb != nil {
		if raw, jerr := json.Marshal(series); jerr == nil {
			if serr := c.rdb.Set(ctx, key, raw, c.ttl).Err(); serr != nil {
				c.log.Warn("bar cache write failed", slog.String("key", key), slog.Any("error", serr))
			}
		}
	}
	return series, nil
}

// Close releases the upstream source. The Redis client is shared and
// owned by the caller.
func (c *BarCache) Close() error {
	return c.src.Close()
}
