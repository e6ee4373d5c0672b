package collection

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/wantlist/discogs-collector/pkg/config"
	"github.com/wantlist/discogs-collector/pkg/discogs"
	"github.com/wantlist/discogs-collector/pkg/progress"
)

// enrichRecord performs the two independent enrichment calls for one
// record and returns the updated value. It never fails outward: a record
// missing enrichment is strictly more useful than no record, so failures
// are logged against the record's ID and the defaults stand. Progress and
// record events are emitted exactly once, after both attempts.
func (s *Service) enrichRecord(ctx context.Context, record discogs.Record, index, total int) discogs.Record {
	recordID := strconv.FormatInt(record.ID, 10)
	symbol := config.CurrencySymbol(s.config.Currency)

	if detail, err := s.fetchDetail(ctx, record.ID); err != nil {
		s.logger.Warn().
			Err(err).
			Str("record_id", recordID).
			Str("title", record.Title).
			Msg("Release detail lookup failed, keeping defaults")
	} else {
		record = discogs.ApplyDetail(record, detail)
	}

	if suggestions, err := s.fetchPriceSuggestions(ctx, record.ID); err != nil {
		s.logger.Warn().
			Err(err).
			Str("record_id", recordID).
			Str("title", record.Title).
			Msg("Price suggestion lookup failed, keeping defaults")
	} else {
		record = discogs.ApplyPrice(record, suggestions, s.config.Condition, symbol)
	}

	s.bus.Publish(progress.Event{
		Type:    progress.EventEnrichment,
		Message: "Enhancing record details...",
		Current: index + 1,
		Total:   total,
	})

	snapshot := record
	s.bus.Publish(progress.Event{
		Type:    progress.EventRecordEnriched,
		Current: index + 1,
		Total:   total,
		Record:  &snapshot,
		Index:   index,
	})

	return record
}

// fetchDetail retrieves the extended release data for one record.
func (s *Service) fetchDetail(ctx context.Context, id int64) (discogs.ReleaseDetail, error) {
	params := url.Values{}
	params.Set("curr_abbr", s.config.Currency)

	resp, err := s.scheduler.Do(ctx, fmt.Sprintf("/releases/%d", id), params, strconv.FormatInt(id, 10))
	if err != nil {
		return discogs.ReleaseDetail{}, err
	}

	var detail discogs.ReleaseDetail
	if err := json.Unmarshal(resp.Body, &detail); err != nil {
		return discogs.ReleaseDetail{}, fmt.Errorf("decode release detail: %w", err)
	}
	return detail, nil
}

// fetchPriceSuggestions retrieves the per-condition price suggestions for
// one record.
func (s *Service) fetchPriceSuggestions(ctx context.Context, id int64) (discogs.PriceSuggestions, error) {
	resp, err := s.scheduler.Do(ctx, fmt.Sprintf("/marketplace/price_suggestions/%d", id), nil, strconv.FormatInt(id, 10))
	if err != nil {
		return nil, err
	}

	var suggestions discogs.PriceSuggestions
	if err := json.Unmarshal(resp.Body, &suggestions); err != nil {
		return nil, fmt.Errorf("decode price suggestions: %w", err)
	}
	return suggestions, nil
}
