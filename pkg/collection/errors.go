package collection

import (
	"errors"
)

// Terminal errors surfaced by FetchCollection. Scheduler rejections are
// wrapped, not replaced, so the original status classification stays
// reachable through errors.As.
var (
	// ErrNoToken means no Discogs token is configured; no request was
	// issued.
	ErrNoToken = errors.New("discogs API token is required")

	// ErrInvalidToken means Discogs rejected the configured token (401).
	ErrInvalidToken = errors.New("invalid discogs API token")

	// ErrNotFound means the user does not exist or their collection is
	// private (404 on the listing fetch).
	ErrNotFound = errors.New("user not found or collection is not public")
)
