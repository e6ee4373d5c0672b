// Command collector-server exposes the Discogs collection fetcher over
// HTTP: a search endpoint that runs the fetch+enrich pipeline, a
// Server-Sent Events stream for live progress, runtime token and debug-log
// controls, and Prometheus metrics.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/wantlist/discogs-collector/pkg/cache"
	"github.com/wantlist/discogs-collector/pkg/collection"
	"github.com/wantlist/discogs-collector/pkg/config"
	"github.com/wantlist/discogs-collector/pkg/logging"
	"github.com/wantlist/discogs-collector/pkg/progress"
	"github.com/wantlist/discogs-collector/pkg/scheduler"
)

func main() {
	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(getEnv("LOG_LEVEL", "info")),
		Pretty: os.Getenv("LOG_PRETTY") == "true",
	})

	cfg := config.DefaultConfig()
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("Invalid configuration")
	}

	schedCfg := scheduler.DefaultConfig(cfg.BaseURL, cfg.UserAgent, cfg.Token)

	// The response cache is optional: without REDIS_URL every request goes
	// straight to the API at the scheduler's pace.
	if cfg.RedisURL != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisURL})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Fatal().Err(err).Str("redis_url", cfg.RedisURL).Msg("Failed to connect to Redis")
		}
		logger.Info().Str("redis_url", cfg.RedisURL).Msg("Response cache enabled")
		schedCfg.Cache = cache.NewManager(redisClient, cfg.CacheTTL)
	}

	sched, err := scheduler.New(schedCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create request scheduler")
	}
	defer sched.Close()

	bus := progress.NewBus()
	svc := collection.NewService(sched, cfg, bus)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", healthHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/search", searchHandler(svc))
	mux.HandleFunc("/events", eventsHandler(bus))
	mux.HandleFunc("/token", tokenHandler(cfg))
	mux.HandleFunc("/debug", debugHandler(cfg, bus))

	addr := ":" + cfg.Port
	logger.Info().
		Str("addr", addr).
		Str("user_agent", cfg.UserAgent).
		Bool("token_configured", cfg.HasToken()).
		Msg("Starting collector server")

	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Fatal().Err(err).Msg("Server failed")
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

type searchRequest struct {
	Username string `json:"username"`
}

// searchHandler runs the full fetch+enrich pipeline and responds with the
// sorted record list. Live progress goes out on /events while this runs.
func searchHandler(svc *collection.Service) http.HandlerFunc {
	logger := logging.NewLogger("server")

	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req searchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" {
			http.Error(w, "username is required", http.StatusBadRequest)
			return
		}

		records, err := svc.FetchCollection(r.Context(), req.Username)
		if err != nil {
			logger.Error().Err(err).Str("username", req.Username).Msg("Search failed")
			writeJSONError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"username": req.Username,
			"count":    len(records),
			"records":  records,
		})
	}
}

// writeJSONError maps pipeline errors to HTTP status codes.
func writeJSONError(w http.ResponseWriter, err error) {
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, collection.ErrNoToken):
		status = http.StatusBadRequest
	case errors.Is(err, collection.ErrInvalidToken):
		status = http.StatusUnauthorized
	case errors.Is(err, collection.ErrNotFound):
		status = http.StatusNotFound
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

// eventsHandler bridges the progress bus to Server-Sent Events. Each
// connection gets a buffered channel; a slow consumer drops events rather
// than stalling the pipeline, since the bus delivers synchronously.
func eventsHandler(bus *progress.Bus) http.HandlerFunc {
	logger := logging.NewLogger("server")

	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming not supported", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		events := make(chan progress.Event, 64)
		unsubscribe := bus.Subscribe(func(e progress.Event) {
			select {
			case events <- e:
			default:
				logger.Warn().Str("type", string(e.Type)).Msg("Dropping event for slow SSE consumer")
			}
		})
		defer unsubscribe()

		for {
			select {
			case <-r.Context().Done():
				return
			case event := <-events:
				payload, err := json.Marshal(event)
				if err != nil {
					logger.Error().Err(err).Msg("Failed to encode progress event")
					continue
				}
				fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, payload)
				flusher.Flush()
			}
		}
	}
}

type tokenRequest struct {
	Token string `json:"token"`
}

// tokenHandler replaces the Discogs token at runtime.
func tokenHandler(cfg *config.Config) http.HandlerFunc {
	logger := logging.NewLogger("server")

	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req tokenRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		cfg.SetToken(req.Token)
		logger.Info().Bool("token_configured", cfg.HasToken()).Msg("Token updated")

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]bool{"tokenSet": cfg.HasToken()})
	}
}

type debugRequest struct {
	Enabled bool `json:"enabled"`
}

// debugHandler toggles on-disk debug log capture and announces the change
// on the progress bus so connected clients see it immediately.
func debugHandler(cfg *config.Config, bus *progress.Bus) http.HandlerFunc {
	logger := logging.NewLogger("server")

	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req debugRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		var message string
		if req.Enabled {
			path, err := logging.EnableDebugFile(cfg.DebugLogDir)
			if err != nil {
				logger.Error().Err(err).Msg("Failed to enable debug logging")
				http.Error(w, "failed to enable debug logging", http.StatusInternalServerError)
				return
			}
			message = "Debug logging enabled: " + path
		} else {
			if err := logging.DisableDebugFile(); err != nil {
				logger.Error().Err(err).Msg("Failed to disable debug logging")
			}
			message = "Debug logging disabled"
		}

		bus.Publish(progress.Event{
			Type:    progress.EventDebugStatus,
			Message: message,
		})

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"enabled": logging.DebugFileEnabled(),
			"path":    logging.DebugFilePath(),
		})
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
