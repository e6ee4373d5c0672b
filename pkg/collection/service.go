// Package collection implements the two-stage fetch pipeline: drain every
// page of a user's collection listing through the request scheduler, then
// enrich each record with detail and price lookups, emitting progress
// events as work completes.
package collection

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/wantlist/discogs-collector/pkg/config"
	"github.com/wantlist/discogs-collector/pkg/discogs"
	"github.com/wantlist/discogs-collector/pkg/logging"
	"github.com/wantlist/discogs-collector/pkg/progress"
	"github.com/wantlist/discogs-collector/pkg/scheduler"
)

// Service is the pipeline entry point exposed to the surrounding
// application.
type Service struct {
	scheduler *scheduler.Scheduler
	config    *config.Config
	bus       *progress.Bus
	logger    zerolog.Logger
}

// NewService creates the collection pipeline on top of a scheduler.
func NewService(sched *scheduler.Scheduler, cfg *config.Config, bus *progress.Bus) *Service {
	return &Service{
		scheduler: sched,
		config:    cfg,
		bus:       bus,
		logger:    logging.NewLogger("collection"),
	}
}

// Bus returns the progress bus callers can subscribe to.
func (s *Service) Bus() *progress.Bus {
	return s.bus
}

// FetchCollection retrieves, enriches, and sorts a user's collection.
// The returned records are ordered descending by want count. Fails with
// ErrNoToken, ErrInvalidToken, ErrNotFound, or a wrapped scheduler
// rejection; every failure also emits an error event for live subscribers.
func (s *Service) FetchCollection(ctx context.Context, username string) ([]discogs.Record, error) {
	if !s.config.HasToken() {
		s.publishError(ErrNoToken)
		return nil, ErrNoToken
	}

	s.logger.Info().Str("username", username).Msg("Fetching collection")

	records, err := s.fetchListing(ctx, username)
	if err != nil {
		s.logger.Error().Err(err).Str("username", username).Msg("Collection fetch failed")
		s.publishError(err)
		return nil, err
	}

	// Zero-item collections already emitted their terminal complete event.
	if len(records) == 0 {
		return records, nil
	}

	s.bus.Publish(progress.Event{
		Type:    progress.EventEnrichment,
		Message: "Enhancing record details...",
		Current: 0,
		Total:   len(records),
	})

	for i := range records {
		if ctx.Err() != nil {
			err := fmt.Errorf("collection fetch cancelled: %w", ctx.Err())
			s.publishError(err)
			return nil, err
		}
		records[i] = s.enrichRecord(ctx, records[i], i, len(records))
	}

	s.bus.Publish(progress.Event{
		Type:    progress.EventComplete,
		Message: "Processing complete!",
		Current: len(records),
		Total:   len(records),
	})

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].WantCount > records[j].WantCount
	})

	s.logger.Info().
		Str("username", username).
		Int("records", len(records)).
		Msg("Collection fetch complete")

	return records, nil
}

func (s *Service) publishError(err error) {
	s.bus.Publish(progress.Event{
		Type:    progress.EventError,
		Message: fmt.Sprintf("Error: %v", err),
		Current: 0,
		Total:   0,
	})
}
