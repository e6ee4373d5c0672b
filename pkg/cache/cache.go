// Package cache provides an optional Redis-backed cache for Discogs GET
// responses. Release detail and price suggestion payloads are stable over
// the length of a run, so a hit skips the rate-limited request queue
// entirely. Entries carry a fixed TTL; the scheduler works identically
// when no cache is configured.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/wantlist/discogs-collector/pkg/logging"
	"github.com/wantlist/discogs-collector/pkg/scheduler"
)

// Prometheus metrics for cache operations.
var (
	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "discogs_cache_hits_total",
		Help: "Total response cache hits",
	})

	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "discogs_cache_misses_total",
		Help: "Total response cache misses",
	})

	cacheErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "discogs_cache_errors_total",
		Help: "Total cache operation errors by operation",
	}, []string{"operation"})
)

// entry is the stored form of a cached response.
type entry struct {
	StatusCode int       `json:"status_code"`
	Body       []byte    `json:"body"`
	CachedAt   time.Time `json:"cached_at"`
}

// Key builds the deterministic Redis key for an endpoint and its query
// parameters. Parameters are sorted so equivalent requests share a key.
func Key(endpoint string, params url.Values) string {
	parts := []string{"discogs", strings.Trim(endpoint, "/")}

	if len(params) > 0 {
		names := make([]string, 0, len(params))
		for name := range params {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			parts = append(parts, fmt.Sprintf("%s=%s", name, params.Get(name)))
		}
	}

	return strings.Join(parts, ":")
}

// Manager is a read-through response cache on Redis. It implements
// scheduler.ResponseCache. Cache failures degrade to misses; they never
// fail the request.
type Manager struct {
	redis  *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewManager creates a cache manager storing responses for ttl.
func NewManager(redisClient *redis.Client, ttl time.Duration) *Manager {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &Manager{
		redis:  redisClient,
		ttl:    ttl,
		logger: logging.NewLogger("cache"),
	}
}

// Get retrieves a cached response. The second return is false on miss or
// on any cache error.
func (m *Manager) Get(ctx context.Context, endpoint string, params url.Values) (*scheduler.Response, bool) {
	key := Key(endpoint, params)

	data, err := m.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			cacheErrors.WithLabelValues("get").Inc()
			m.logger.Warn().Err(err).Str("key", key).Msg("Cache get failed, treating as miss")
		}
		cacheMisses.Inc()
		return nil, false
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		cacheErrors.WithLabelValues("get").Inc()
		m.logger.Warn().Err(err).Str("key", key).Msg("Corrupt cache entry, deleting")
		_ = m.redis.Del(ctx, key).Err()
		cacheMisses.Inc()
		return nil, false
	}

	cacheHits.Inc()
	m.logger.Debug().Str("key", key).Time("cached_at", e.CachedAt).Msg("Cache hit")

	return &scheduler.Response{
		StatusCode: e.StatusCode,
		Body:       e.Body,
	}, true
}

// Set stores a successful response. Errors are logged and dropped.
func (m *Manager) Set(ctx context.Context, endpoint string, params url.Values, resp *scheduler.Response) {
	if resp == nil || m.ttl <= 0 {
		return
	}

	key := Key(endpoint, params)

	data, err := json.Marshal(entry{
		StatusCode: resp.StatusCode,
		Body:       resp.Body,
		CachedAt:   time.Now().UTC(),
	})
	if err != nil {
		cacheErrors.WithLabelValues("set").Inc()
		m.logger.Warn().Err(err).Str("key", key).Msg("Marshal cache entry failed")
		return
	}

	if err := m.redis.Set(ctx, key, data, m.ttl).Err(); err != nil {
		cacheErrors.WithLabelValues("set").Inc()
		m.logger.Warn().Err(err).Str("key", key).Msg("Cache set failed")
		return
	}

	m.logger.Debug().Str("key", key).Dur("ttl", m.ttl).Msg("Cached response")
}

// Flush removes every cached response. Used by tests and the debug UI.
func (m *Manager) Flush(ctx context.Context) error {
	iter := m.redis.Scan(ctx, 0, "discogs:*", 0).Iterator()
	for iter.Next(ctx) {
		if err := m.redis.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("delete cache key %s: %w", iter.Val(), err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan cache keys: %w", err)
	}
	return nil
}
