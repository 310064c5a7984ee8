// Package cache keeps serialized reports in Redis under keys that carry the
// company's journal version. A write bumps the version, so stale entries are
// never read again and simply expire.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const keyPrefix = "bookkeeping:report"

var lookups = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "bookkeeping",
		Name:      "report_cache_lookups_total",
		Help:      "Report cache lookups by result",
	},
	[]string{"result"},
)

// Loader builds a report value and returns the journal version it was built from.
type Loader func(ctx context.Context) (value any, version int64, err error)

// Reports caches report payloads. A nil *Reports, or one without a client,
// always calls the loader.
type Reports struct {
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
}

// New instantiates the cache helper.
func New(client *redis.Client, ttl time.Duration) *Reports {
	return &Reports{client: client, ttl: ttl}
}

// Key composes the cache key for one report of one company at one version.
func Key(companyID uuid.UUID, version int64, kind string, extra ...string) string {
	parts := append([]string{keyPrefix, companyID.String(), kind}, extra...)
	parts = append(parts, "v"+strconv.FormatInt(version, 10))
	return strings.Join(parts, ":")
}

// FetchJSON decodes the cached payload for key into dest, or runs load and
// caches its result. The result is stored only when load reports the same
// version the key was built for; otherwise a write raced the build and the
// value is returned without caching. Concurrent misses for one key share a
// single load.
func (c *Reports) FetchJSON(ctx context.Context, key string, version int64, dest any, load Loader) error {
	if load == nil {
		return errors.New("cache: loader required")
	}
	if c == nil || c.client == nil {
		value, _, err := load(ctx)
		if err != nil {
			return err
		}
		return roundTrip(value, dest)
	}
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		lookups.WithLabelValues("hit").Inc()
		return json.Unmarshal(payload, dest)
	}
	if !errors.Is(err, redis.Nil) {
		lookups.WithLabelValues("error").Inc()
		return err
	}
	lookups.WithLabelValues("miss").Inc()

	raw, err := c.build(ctx, key, version, load)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

func (c *Reports) build(ctx context.Context, key string, version int64, load Loader) ([]byte, error) {
	ch := c.group.DoChan(key, func() (any, error) {
		value, built, err := load(ctx)
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		if built == version {
			if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
				return nil, err
			}
		}
		return raw, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}

// Ready pings Redis when configured.
func (c *Reports) Ready(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Ping(ctx).Err()
}

func roundTrip(value, dest any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}
