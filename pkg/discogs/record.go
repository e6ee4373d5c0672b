package discogs

import (
	"fmt"
	"strconv"
	"strings"
)

// Placeholder for fields the API did not supply.
const Unknown = "Unknown"

// Record is one collection item, created from a listing entry and enriched
// in place by the pipeline. JSON tags match what the web frontend renders.
type Record struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	Artist        string `json:"artist"`
	ThumbnailURL  string `json:"thumbnailUrl"`
	ReleaseURL    string `json:"releaseUrl"`
	Year          string `json:"year"`
	Format        string `json:"format"`
	CatalogNumber string `json:"catno"`
	Label         string `json:"label"`

	// Enrichment fields, defaulted until the detail and price calls land.
	HaveCount    int    `json:"haveCount"`
	WantCount    int    `json:"wantCount"`
	NumForSale   int    `json:"numForSale"`
	MedianPrice  string `json:"medianPrice"`
	Currency     string `json:"currency"`
	FullImageURL string `json:"fullImageUrl"`
}

// FromListingEntry converts one listing entry into a Record with enrichment
// fields at their defaults. The mapping is pure: the same entry always
// produces the same record.
func FromListingEntry(entry ListingEntry, currencySymbol string) Record {
	info := entry.BasicInformation
	id := info.ID
	if id == 0 {
		id = entry.ID
	}

	thumb := info.Thumb
	if thumb == "" {
		thumb = info.CoverImage
	}
	fullImage := info.CoverImage
	if fullImage == "" {
		fullImage = info.Thumb
	}

	return Record{
		ID:            id,
		Title:         info.Title,
		Artist:        joinArtists(info.Artists),
		ThumbnailURL:  thumb,
		ReleaseURL:    fmt.Sprintf("https://www.discogs.com/release/%d", id),
		Year:          yearString(info.Year),
		Format:        joinFormats(info.Formats),
		CatalogNumber: orUnknown(info.CatNo),
		Label:         joinLabels(info.Labels),
		HaveCount:     0,
		WantCount:     0,
		NumForSale:    0,
		MedianPrice:   Unknown,
		Currency:      currencySymbol,
		FullImageURL:  fullImage,
	}
}

func joinArtists(artists []Artist) string {
	if len(artists) == 0 {
		return "Unknown Artist"
	}
	names := make([]string, len(artists))
	for i, a := range artists {
		names[i] = a.Name
	}
	return strings.Join(names, ", ")
}

func joinFormats(formats []Format) string {
	if len(formats) == 0 {
		return Unknown
	}
	names := make([]string, len(formats))
	for i, f := range formats {
		names[i] = f.Name
	}
	return strings.Join(names, ", ")
}

func joinLabels(labels []Label) string {
	if len(labels) == 0 {
		return Unknown
	}
	names := make([]string, len(labels))
	for i, l := range labels {
		names[i] = l.Name
	}
	return strings.Join(names, ", ")
}

func yearString(year int) string {
	if year == 0 {
		return Unknown
	}
	return strconv.Itoa(year)
}

func orUnknown(s string) string {
	if s == "" {
		return Unknown
	}
	return s
}
