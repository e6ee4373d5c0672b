// Package testutil provides testing utilities for the Discogs collector.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
)

// MockResponse defines the behavior for a mock Discogs endpoint response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
}

// MockDiscogs is a configurable mock Discogs API server for testing.
type MockDiscogs struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)

	// Tracking
	RequestCount  int
	PathCounts    map[string]int
	LastAuth      string
	LastUserAgent string
}

// NewMockDiscogs creates a new mock Discogs server.
func NewMockDiscogs() *MockDiscogs {
	mock := &MockDiscogs{
		handlers:   make(map[string]func(w http.ResponseWriter, r *http.Request)),
		PathCounts: make(map[string]int),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.PathCounts[r.URL.Path]++
		mock.LastAuth = r.Header.Get("Authorization")
		mock.LastUserAgent = r.Header.Get("User-Agent")
		mock.mu.Unlock()

		mock.mu.RLock()
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.RUnlock()

		if exists {
			handler(w, r)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message": "The requested resource was not found."}`))
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockDiscogs) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockDiscogs) Close() {
	m.server.Close()
}

// SetHandler sets a custom handler for a specific path.
func (m *MockDiscogs) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a canned response for a path.
func (m *MockDiscogs) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		if w.Header().Get("Content-Type") == "" {
			w.Header().Set("Content-Type", "application/json")
		}
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// GetRequestCount returns the total number of requests received.
func (m *MockDiscogs) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetPathCount returns how many requests a specific path received.
func (m *MockDiscogs) GetPathCount(path string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.PathCounts[path]
}

// CollectionPath returns the listing path for a username.
func CollectionPath(username string) string {
	return fmt.Sprintf("/users/%s/collection/folders/0/releases", username)
}

// ReleasePath returns the detail path for a release ID.
func ReleasePath(id int64) string {
	return fmt.Sprintf("/releases/%d", id)
}

// PriceSuggestionsPath returns the price suggestion path for a release ID.
func PriceSuggestionsPath(id int64) string {
	return fmt.Sprintf("/marketplace/price_suggestions/%d", id)
}

// ListingRelease is a minimal listing entry for building mock pages.
type ListingRelease struct {
	ID     int64
	Title  string
	Artist string
	Year   int
}

// CollectionPageBody builds a listing page JSON body.
func CollectionPageBody(items, pages int, releases ...ListingRelease) string {
	type artist struct {
		Name string `json:"name"`
	}
	type basicInfo struct {
		ID      int64    `json:"id"`
		Title   string   `json:"title"`
		Year    int      `json:"year"`
		Thumb   string   `json:"thumb"`
		Artists []artist `json:"artists"`
	}
	type entry struct {
		ID               int64     `json:"id"`
		BasicInformation basicInfo `json:"basic_information"`
	}

	entries := make([]entry, len(releases))
	for i, rel := range releases {
		entries[i] = entry{
			ID: rel.ID,
			BasicInformation: basicInfo{
				ID:      rel.ID,
				Title:   rel.Title,
				Year:    rel.Year,
				Thumb:   fmt.Sprintf("https://img.example/%d.jpg", rel.ID),
				Artists: []artist{{Name: rel.Artist}},
			},
		}
	}

	body, _ := json.Marshal(map[string]any{
		"pagination": map[string]int{"items": items, "pages": pages},
		"releases":   entries,
	})
	return string(body)
}

// ReleaseDetailBody builds a release detail JSON body.
func ReleaseDetailBody(id int64, have, want, numForSale, year int) string {
	body, _ := json.Marshal(map[string]any{
		"id":           id,
		"year":         year,
		"num_for_sale": numForSale,
		"community":    map[string]int{"have": have, "want": want},
		"images": []map[string]string{
			{"type": "primary", "uri": fmt.Sprintf("https://img.example/%d-full.jpg", id), "uri150": fmt.Sprintf("https://img.example/%d-150.jpg", id)},
		},
		"formats": []map[string]string{{"name": "Vinyl"}},
	})
	return string(body)
}

// PriceSuggestionsBody builds a price suggestion JSON body keyed by
// condition label.
func PriceSuggestionsBody(condition string, value float64) string {
	body, _ := json.Marshal(map[string]any{
		condition: map[string]any{"value": value, "currency": "EUR"},
	})
	return string(body)
}
