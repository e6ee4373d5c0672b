// Package scheduler provides the single globally rate-limited request queue
// every Discogs call goes through. One worker drains a FIFO queue with at
// most one request in flight, enforcing minimum spacing and a rolling
// per-minute cap, and classifying failures into cooldown, retry, or
// terminal rejection.
package scheduler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/wantlist/discogs-collector/pkg/logging"
	"github.com/wantlist/discogs-collector/pkg/ratelimit"
)

// Prometheus metrics for scheduler operations.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "discogs_requests_total",
		Help: "Total Discogs requests by endpoint and status",
	}, []string{"endpoint", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "discogs_request_duration_seconds",
		Help:    "Discogs request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "discogs_errors_total",
		Help: "Total Discogs request errors by class",
	}, []string{"class"})

	retriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "discogs_retries_total",
		Help: "Total retry attempts by error class",
	}, []string{"error_class"})

	retryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "discogs_retry_exhausted_total",
		Help: "Total requests that exhausted their retry budget by error class",
	}, []string{"error_class"})

	cooldownsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "discogs_rate_limit_cooldowns_total",
		Help: "Total 429-triggered worker cooldowns",
	})

	windowWaitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "discogs_rate_window_waits_total",
		Help: "Total waits for the rolling per-minute window to roll over",
	})

	queueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "discogs_request_queue_depth",
		Help: "Number of requests waiting in the scheduler queue",
	})
)

// Retry policy for retryable failures.
const (
	// MaxRetries is the retry budget per request (attempts beyond the
	// first).
	MaxRetries = 3

	// RetryBackoffStep scales the per-attempt backoff: attempt N waits
	// N times this long before redispatch.
	RetryBackoffStep = 2 * time.Second

	// RateLimitCooldown is how long the whole worker loop pauses after a
	// 429 response.
	RateLimitCooldown = 10 * time.Second
)

// Response is a completed Discogs API response.
type Response struct {
	StatusCode int
	Body       []byte
	Header     http.Header
}

// ResponseCache is an optional read-through cache consulted before a
// request enters the queue. A hit bypasses the rate-limited dispatch
// entirely.
type ResponseCache interface {
	Get(ctx context.Context, endpoint string, params url.Values) (*Response, bool)
	Set(ctx context.Context, endpoint string, params url.Values, resp *Response)
}

// Config holds the scheduler configuration.
type Config struct {
	// BaseURL is the API root all endpoints are resolved against.
	BaseURL string

	// UserAgent sent with every request (required by Discogs).
	UserAgent string

	// Token supplies the Discogs token per request; "" sends no
	// Authorization header.
	Token func() string

	// HTTPClient performs the transport. Its timeout is what turns hung
	// connections into retryable network errors.
	HTTPClient *http.Client

	// QueueSize bounds the pending request queue.
	QueueSize int

	// MinInterval is the minimum spacing between dispatches.
	MinInterval time.Duration

	// WindowLimit caps dispatches per rolling window.
	WindowLimit int

	// WindowLength is the rolling window duration.
	WindowLength time.Duration

	// MaxRetries is the retry budget for retryable failures.
	MaxRetries int

	// RetryBackoffStep scales the per-attempt backoff delay.
	RetryBackoffStep time.Duration

	// RateLimitCooldown is the worker pause after a 429.
	RateLimitCooldown time.Duration

	// Cache is the optional response cache (nil disables caching).
	Cache ResponseCache
}

// DefaultConfig returns a configuration with the Discogs pacing limits.
func DefaultConfig(baseURL, userAgent string, token func() string) Config {
	return Config{
		BaseURL:           baseURL,
		UserAgent:         userAgent,
		Token:             token,
		HTTPClient:        &http.Client{Timeout: 30 * time.Second},
		QueueSize:         512,
		MinInterval:       ratelimit.MinRequestInterval,
		WindowLimit:       ratelimit.SafeRequestsPerMinute,
		WindowLength:      ratelimit.WindowLength,
		MaxRetries:        MaxRetries,
		RetryBackoffStep:  RetryBackoffStep,
		RateLimitCooldown: RateLimitCooldown,
	}
}

// request is one queue entry. Owned by the scheduler from submission until
// its future resolves; callers only ever hold the Future.
type request struct {
	endpoint string
	params   url.Values
	recordID string
	attempts int
	result   chan outcome
}

type outcome struct {
	resp *Response
	err  error
}

// Future is the caller's handle on a submitted request. It resolves
// exactly once: with a successful response or a terminal error.
type Future struct {
	result chan outcome
}

// Wait blocks until the request resolves or ctx is done.
func (f *Future) Wait(ctx context.Context) (*Response, error) {
	select {
	case out := <-f.result:
		return out.resp, out.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Scheduler serializes all Discogs API dispatch through one worker loop.
type Scheduler struct {
	config Config
	logger zerolog.Logger

	queue  chan *request
	window *ratelimit.Window

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	closeOnce sync.Once
}

// New creates a scheduler and starts its worker loop.
func New(cfg Config) (*Scheduler, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user agent is required")
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if cfg.Token == nil {
		cfg.Token = func() string { return "" }
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 512
	}
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = ratelimit.MinRequestInterval
	}
	if cfg.WindowLimit <= 0 {
		cfg.WindowLimit = ratelimit.SafeRequestsPerMinute
	}
	if cfg.WindowLength <= 0 {
		cfg.WindowLength = ratelimit.WindowLength
	}
	if cfg.MaxRetries < 0 {
		return nil, fmt.Errorf("max retries cannot be negative")
	}
	if cfg.RetryBackoffStep <= 0 {
		cfg.RetryBackoffStep = RetryBackoffStep
	}
	if cfg.RateLimitCooldown <= 0 {
		cfg.RateLimitCooldown = RateLimitCooldown
	}

	ctx, cancel := context.WithCancel(context.Background())

	window := ratelimit.NewWindow(time.Now())
	window.Limit = cfg.WindowLimit
	window.Length = cfg.WindowLength
	window.MinInterval = cfg.MinInterval

	s := &Scheduler{
		config: cfg,
		logger: logging.NewLogger("scheduler"),
		queue:  make(chan *request, cfg.QueueSize),
		window: window,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go s.run()

	return s, nil
}

// Submit enqueues a GET request. The returned future resolves exactly once.
// recordID is optional per-item context carried into terminal diagnostics.
// Safe to call from any number of goroutines.
func (s *Scheduler) Submit(ctx context.Context, endpoint string, params url.Values, recordID string) *Future {
	fut := &Future{result: make(chan outcome, 1)}

	if s.config.Cache != nil {
		if resp, ok := s.config.Cache.Get(ctx, endpoint, params); ok {
			s.logger.Debug().Str("endpoint", endpoint).Msg("Response cache hit, bypassing queue")
			fut.result <- outcome{resp: resp}
			return fut
		}
	}

	if s.ctx.Err() != nil {
		fut.result <- outcome{err: ErrClosed}
		return fut
	}

	req := &request{
		endpoint: endpoint,
		params:   params,
		recordID: recordID,
		result:   fut.result,
	}

	select {
	case s.queue <- req:
		queueDepth.Inc()
	case <-s.ctx.Done():
		fut.result <- outcome{err: ErrClosed}
	case <-ctx.Done():
		fut.result <- outcome{err: ctx.Err()}
	}

	return fut
}

// Do submits a GET request and waits for it to resolve.
func (s *Scheduler) Do(ctx context.Context, endpoint string, params url.Values, recordID string) (*Response, error) {
	return s.Submit(ctx, endpoint, params, recordID).Wait(ctx)
}

// Close stops the worker loop. Requests still queued are rejected with
// ErrClosed; no future is left unresolved.
func (s *Scheduler) Close() {
	s.closeOnce.Do(func() {
		s.cancel()
		<-s.done
	})
}

// run is the worker loop. It is the only goroutine that touches the rate
// window or dispatches HTTP requests.
func (s *Scheduler) run() {
	defer close(s.done)

	for {
		select {
		case req := <-s.queue:
			queueDepth.Dec()
			s.process(req)
		case <-s.ctx.Done():
			s.drain()
			return
		}
	}
}

// drain rejects everything still queued after shutdown.
func (s *Scheduler) drain() {
	for {
		select {
		case req := <-s.queue:
			queueDepth.Dec()
			req.result <- outcome{err: ErrClosed}
		default:
			return
		}
	}
}

// process drives one request to resolution. Retries and cooldowns happen
// here, before the next queue entry is taken, which is what gives requeued
// attempts front-of-queue dispatch priority.
func (s *Scheduler) process(req *request) {
	endpointLabel := metricEndpoint(req.endpoint)

	for {
		if !s.pace() {
			req.result <- outcome{err: ErrClosed}
			return
		}

		start := time.Now()
		resp, err := s.dispatch(req)
		requestDuration.WithLabelValues(endpointLabel).Observe(time.Since(start).Seconds())

		if err == nil && resp.StatusCode < 400 {
			requestsTotal.WithLabelValues(endpointLabel, fmt.Sprintf("%d", resp.StatusCode)).Inc()
			if s.config.Cache != nil && resp.StatusCode == http.StatusOK {
				s.config.Cache.Set(s.ctx, req.endpoint, req.params, resp)
			}
			req.result <- outcome{resp: resp}
			return
		}

		status := 0
		if err == nil {
			status = resp.StatusCode
			requestsTotal.WithLabelValues(endpointLabel, fmt.Sprintf("%d", status)).Inc()
		} else {
			requestsTotal.WithLabelValues(endpointLabel, "network_error").Inc()
		}

		class := Classify(status, err)
		errorsTotal.WithLabelValues(string(class)).Inc()

		// 429: cool the whole loop down and retry this request first.
		// Does not spend the retry budget.
		if class == ErrorClassRateLimit {
			cooldownsTotal.Inc()
			s.logger.Warn().
				Str("endpoint", req.endpoint).
				Dur("cooldown", s.config.RateLimitCooldown).
				Msg("Rate limited (429), pausing worker loop")
			if !s.sleep(s.config.RateLimitCooldown) {
				req.result <- outcome{err: ErrClosed}
				return
			}
			continue
		}

		if shouldRetry(class) && req.attempts < s.config.MaxRetries {
			req.attempts++
			retriesTotal.WithLabelValues(string(class)).Inc()
			backoff := time.Duration(req.attempts) * s.config.RetryBackoffStep
			s.logger.Warn().
				Str("endpoint", req.endpoint).
				Str("error_class", string(class)).
				Int("attempt", req.attempts).
				Int("max_retries", s.config.MaxRetries).
				Dur("backoff", backoff).
				Msg("Retryable failure, backing off")
			if !s.sleep(backoff) {
				req.result <- outcome{err: ErrClosed}
				return
			}
			continue
		}

		// Terminal rejection.
		apiErr := &APIError{
			StatusCode: status,
			Class:      class,
			Endpoint:   req.endpoint,
			RecordID:   req.recordID,
			Err:        err,
		}
		if err == nil {
			apiErr.Message = http.StatusText(status)
		}
		if shouldRetry(class) {
			retryExhaustedTotal.WithLabelValues(string(class)).Inc()
			apiErr.Err = fmt.Errorf("%w after %d attempts: %v", ErrRetryExhausted, req.attempts+1, err)
			if err == nil {
				apiErr.Err = fmt.Errorf("%w after %d attempts", ErrRetryExhausted, req.attempts+1)
			}
		}

		logEvent := s.logger.Error().
			Str("endpoint", req.endpoint).
			Str("error_class", string(class)).
			Int("status", status)
		if req.recordID != "" {
			logEvent = logEvent.Str("record_id", req.recordID)
		}
		logEvent.Msg("Request terminally rejected")

		req.result <- outcome{err: apiErr}
		return
	}
}

// pace blocks until the next dispatch is allowed: resets rolled-over
// windows, waits out the per-minute cap, and enforces minimum spacing.
// Returns false if the scheduler shut down while waiting.
func (s *Scheduler) pace() bool {
	now := time.Now()

	if s.window.RolledOver(now) {
		s.window.Reset(now)
	}

	if s.window.AtCap() {
		wait := s.window.UntilRollover(now)
		windowWaitsTotal.Inc()
		s.logger.Info().
			Int("dispatched", s.window.Dispatched).
			Int("limit", s.window.Limit).
			Dur("wait", wait).
			Msg("Rolling window cap reached, waiting for rollover")
		if !s.sleep(wait) {
			return false
		}
		s.window.Reset(time.Now())
	}

	if delay := s.window.SpacingDelay(time.Now()); delay > 0 {
		if !s.sleep(delay) {
			return false
		}
	}

	s.window.MarkDispatch(time.Now())
	return true
}

// dispatch performs the actual HTTP GET. The only network touchpoint in
// the whole program.
func (s *Scheduler) dispatch(req *request) (*Response, error) {
	target := strings.TrimRight(s.config.BaseURL, "/") + req.endpoint
	httpReq, err := http.NewRequestWithContext(s.ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if len(req.params) > 0 {
		httpReq.URL.RawQuery = req.params.Encode()
	}

	httpReq.Header.Set("User-Agent", s.config.UserAgent)
	httpReq.Header.Set("Accept", "application/json")
	if token := s.config.Token(); token != "" {
		httpReq.Header.Set("Authorization", "Discogs token="+token)
	}

	s.logger.Debug().
		Str("endpoint", req.endpoint).
		Int("attempt", req.attempts+1).
		Msg("Dispatching request")

	httpResp, err := s.config.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Body:       body,
		Header:     httpResp.Header,
	}, nil
}

// sleep waits for d, returning false if the scheduler shut down first.
func (s *Scheduler) sleep(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-s.ctx.Done():
		return false
	}
}

// metricEndpoint collapses numeric path segments so per-release endpoints
// share one metric label.
func metricEndpoint(endpoint string) string {
	parts := strings.Split(endpoint, "/")
	for i, part := range parts {
		if part == "" {
			continue
		}
		numeric := true
		for _, r := range part {
			if r < '0' || r > '9' {
				numeric = false
				break
			}
		}
		if numeric {
			parts[i] = ":id"
		}
	}
	return strings.Join(parts, "/")
}
