package integration

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/wantlist/discogs-collector/internal/testutil"
	"github.com/wantlist/discogs-collector/pkg/cache"
	"github.com/wantlist/discogs-collector/pkg/collection"
	"github.com/wantlist/discogs-collector/pkg/config"
	"github.com/wantlist/discogs-collector/pkg/progress"
	"github.com/wantlist/discogs-collector/pkg/scheduler"
)

// setupRedis creates a Redis container for integration testing.
func setupRedis(t *testing.T) (*redis.Client, func()) {
	t.Helper()

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: host + ":" + port.Port(),
	})

	cleanup := func() {
		redisClient.Close()
		container.Terminate(ctx)
	}

	return redisClient, cleanup
}

func setupPipeline(t *testing.T, mock *testutil.MockDiscogs, responseCache scheduler.ResponseCache) *collection.Service {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.BaseURL = mock.URL()
	cfg.SetToken("integration-token")

	schedCfg := scheduler.Config{
		BaseURL:           mock.URL(),
		UserAgent:         cfg.UserAgent,
		Token:             cfg.Token,
		HTTPClient:        &http.Client{Timeout: 10 * time.Second},
		QueueSize:         128,
		MinInterval:       time.Millisecond,
		WindowLimit:       1000,
		WindowLength:      time.Second,
		MaxRetries:        3,
		RetryBackoffStep:  time.Millisecond,
		RateLimitCooldown: 5 * time.Millisecond,
		Cache:             responseCache,
	}
	sched, err := scheduler.New(schedCfg)
	if err != nil {
		t.Fatalf("Failed to create scheduler: %v", err)
	}
	t.Cleanup(sched.Close)

	return collection.NewService(sched, cfg, progress.NewBus())
}

func configureCollection(mock *testutil.MockDiscogs, username string) {
	mock.SetResponse(testutil.CollectionPath(username), testutil.MockResponse{
		StatusCode: http.StatusOK,
		Body: testutil.CollectionPageBody(2, 1,
			testutil.ListingRelease{ID: 11, Title: "Alpha", Artist: "Band A", Year: 1975},
			testutil.ListingRelease{ID: 12, Title: "Beta", Artist: "Band B", Year: 1981},
		),
	})
	mock.SetResponse(testutil.ReleasePath(11), testutil.MockResponse{
		StatusCode: http.StatusOK,
		Body:       testutil.ReleaseDetailBody(11, 100, 7, 5, 1975),
	})
	mock.SetResponse(testutil.ReleasePath(12), testutil.MockResponse{
		StatusCode: http.StatusOK,
		Body:       testutil.ReleaseDetailBody(12, 200, 42, 1, 1981),
	})
	mock.SetResponse(testutil.PriceSuggestionsPath(11), testutil.MockResponse{
		StatusCode: http.StatusOK,
		Body:       testutil.PriceSuggestionsBody(config.DefaultCondition, 15),
	})
	mock.SetResponse(testutil.PriceSuggestionsPath(12), testutil.MockResponse{
		StatusCode: http.StatusOK,
		Body:       testutil.PriceSuggestionsBody(config.DefaultCondition, 30),
	})
}

// TestFullPipelineFlow runs listing, enrichment, and sorting end to end
// against a mock Discogs API with the Redis response cache wired in.
func TestFullPipelineFlow(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := testutil.NewMockDiscogs()
	defer mock.Close()
	configureCollection(mock, "integration")

	manager := cache.NewManager(redisClient, 10*time.Minute)
	svc := setupPipeline(t, mock, manager)

	records, err := svc.FetchCollection(context.Background(), "integration")
	if err != nil {
		t.Fatalf("FetchCollection() error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}

	// Sorted descending by want count.
	if records[0].ID != 12 || records[1].ID != 11 {
		t.Errorf("order = [%d, %d], want [12, 11]", records[0].ID, records[1].ID)
	}
	if records[0].MedianPrice != "30.00" {
		t.Errorf("MedianPrice = %q, want 30.00", records[0].MedianPrice)
	}

	// 1 listing + 2 detail + 2 price calls.
	if got := mock.GetRequestCount(); got != 5 {
		t.Errorf("upstream requests = %d, want 5", got)
	}
}

// TestCachedRerunSkipsUpstream verifies a repeated fetch is served entirely
// from the response cache.
func TestCachedRerunSkipsUpstream(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := testutil.NewMockDiscogs()
	defer mock.Close()
	configureCollection(mock, "rerun")

	manager := cache.NewManager(redisClient, 10*time.Minute)
	svc := setupPipeline(t, mock, manager)

	first, err := svc.FetchCollection(context.Background(), "rerun")
	if err != nil {
		t.Fatalf("first FetchCollection() error: %v", err)
	}
	countAfterFirst := mock.GetRequestCount()

	second, err := svc.FetchCollection(context.Background(), "rerun")
	if err != nil {
		t.Fatalf("second FetchCollection() error: %v", err)
	}

	if got := mock.GetRequestCount(); got != countAfterFirst {
		t.Errorf("second run hit upstream %d times, want 0", got-countAfterFirst)
	}
	if len(first) != len(second) {
		t.Fatalf("cached run returned %d records, first returned %d", len(second), len(first))
	}
	for i := range first {
		if first[i].ID != second[i].ID || first[i].MedianPrice != second[i].MedianPrice {
			t.Errorf("record %d differs between runs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

// TestCacheFlushForcesRefetch verifies Flush drops every cached response.
func TestCacheFlushForcesRefetch(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := testutil.NewMockDiscogs()
	defer mock.Close()
	configureCollection(mock, "flushed")

	manager := cache.NewManager(redisClient, 10*time.Minute)
	svc := setupPipeline(t, mock, manager)

	ctx := context.Background()
	if _, err := svc.FetchCollection(ctx, "flushed"); err != nil {
		t.Fatalf("FetchCollection() error: %v", err)
	}
	countAfterFirst := mock.GetRequestCount()

	if err := manager.Flush(ctx); err != nil {
		t.Fatalf("Flush() error: %v", err)
	}

	if _, err := svc.FetchCollection(ctx, "flushed"); err != nil {
		t.Fatalf("FetchCollection() after flush error: %v", err)
	}

	if got := mock.GetRequestCount(); got != countAfterFirst*2 {
		t.Errorf("requests after flush = %d, want %d", got, countAfterFirst*2)
	}
}
