package collection

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"sync"

	"github.com/wantlist/discogs-collector/pkg/config"
	"github.com/wantlist/discogs-collector/pkg/discogs"
	"github.com/wantlist/discogs-collector/pkg/progress"
	"github.com/wantlist/discogs-collector/pkg/scheduler"
)

func listingEndpoint(username string) string {
	return fmt.Sprintf("/users/%s/collection/folders/0/releases", url.PathEscape(username))
}

func listingParams(page int) url.Values {
	params := url.Values{}
	params.Set("per_page", strconv.Itoa(config.PageSize))
	params.Set("page", strconv.Itoa(page))
	return params
}

// fetchListing drains every page of the user's collection listing.
// Page 1 establishes the totals; the remaining pages are all submitted at
// once and paced by the scheduler's FIFO queue. Any page failure fails the
// whole fetch: a partial item list is misleading.
func (s *Service) fetchListing(ctx context.Context, username string) ([]discogs.Record, error) {
	s.bus.Publish(progress.Event{
		Type:    progress.EventListing,
		Message: "Fetching collection data...",
		Current: 0,
		Total:   0,
	})

	endpoint := listingEndpoint(username)
	symbol := config.CurrencySymbol(s.config.Currency)

	resp, err := s.scheduler.Do(ctx, endpoint, listingParams(1), "")
	if err != nil {
		switch {
		case scheduler.IsAuth(err):
			return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
		case scheduler.IsNotFound(err):
			return nil, fmt.Errorf("%w: %w", ErrNotFound, err)
		default:
			return nil, fmt.Errorf("fetch collection page 1: %w", err)
		}
	}

	var page discogs.CollectionPage
	if err := json.Unmarshal(resp.Body, &page); err != nil {
		return nil, fmt.Errorf("decode collection page 1: %w", err)
	}

	totalItems := page.Pagination.Items
	totalPages := page.Pagination.Pages

	s.logger.Info().
		Str("username", username).
		Int("items", totalItems).
		Int("pages", totalPages).
		Msg("Collection listing totals")

	if totalItems == 0 {
		s.bus.Publish(progress.Event{
			Type:    progress.EventComplete,
			Message: "No records found in collection",
			Current: 0,
			Total:   0,
		})
		return []discogs.Record{}, nil
	}

	records := make([]discogs.Record, 0, totalItems)
	for _, entry := range page.Releases {
		records = append(records, discogs.FromListingEntry(entry, symbol))
	}

	s.publishListingProgress(len(records), totalItems)

	if totalPages <= 1 {
		return records, nil
	}

	// Submit every remaining page at once; the scheduler's pacing is the
	// only throttle. Pages resolve in any order, so appends are guarded
	// and the final order is left to the business sort.
	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		firstErr error
	)

	for pageNum := 2; pageNum <= totalPages; pageNum++ {
		wg.Add(1)
		go func(pageNum int) {
			defer wg.Done()

			pageResp, err := s.scheduler.Do(ctx, endpoint, listingParams(pageNum), "")
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("fetch collection page %d: %w", pageNum, err)
				}
				mu.Unlock()
				return
			}

			var pageData discogs.CollectionPage
			if err := json.Unmarshal(pageResp.Body, &pageData); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("decode collection page %d: %w", pageNum, err)
				}
				mu.Unlock()
				return
			}

			mu.Lock()
			for _, entry := range pageData.Releases {
				records = append(records, discogs.FromListingEntry(entry, symbol))
			}
			fetched := len(records)
			mu.Unlock()

			s.logger.Debug().
				Int("page", pageNum).
				Int("total_pages", totalPages).
				Int("records", fetched).
				Msg("Fetched collection page")

			s.publishListingProgress(fetched, totalItems)
		}(pageNum)
	}

	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	return records, nil
}

// publishListingProgress emits a listing event with current clamped so it
// never exceeds the reported total.
func (s *Service) publishListingProgress(fetched, totalItems int) {
	if fetched > totalItems {
		fetched = totalItems
	}
	s.bus.Publish(progress.Event{
		Type:    progress.EventListing,
		Message: "Fetching collection data...",
		Current: fetched,
		Total:   totalItems,
	})
}
