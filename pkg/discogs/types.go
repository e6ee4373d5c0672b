// Package discogs defines the wire types of the Discogs API endpoints the
// collector consumes, the Record model assembled from them, and
// the pure transforms that map API payloads onto records.
package discogs

// Pagination is the envelope pagination block of listing responses.
type Pagination struct {
	Items int `json:"items"`
	Pages int `json:"pages"`
}

// CollectionPage is one page of a user's collection folder listing.
type CollectionPage struct {
	Pagination Pagination     `json:"pagination"`
	Releases   []ListingEntry `json:"releases"`
}

// ListingEntry is one release summary in a collection listing page.
type ListingEntry struct {
	ID               int64            `json:"id"`
	BasicInformation BasicInformation `json:"basic_information"`
}

// BasicInformation carries the release summary fields of a listing entry.
type BasicInformation struct {
	ID         int64    `json:"id"`
	Title      string   `json:"title"`
	Year       int      `json:"year"`
	Thumb      string   `json:"thumb"`
	CoverImage string   `json:"cover_image"`
	CatNo      string   `json:"catno"`
	Artists    []Artist `json:"artists"`
	Formats    []Format `json:"formats"`
	Labels     []Label  `json:"labels"`
}

// Artist is a credited artist on a release.
type Artist struct {
	Name string `json:"name"`
}

// Format is a release format (Vinyl, CD, ...).
type Format struct {
	Name string `json:"name"`
}

// Label is a record label entry on a release.
type Label struct {
	Name  string `json:"name"`
	CatNo string `json:"catno"`
}

// ReleaseDetail is the per-release detail endpoint payload.
type ReleaseDetail struct {
	ID         int64     `json:"id"`
	Year       int       `json:"year"`
	NumForSale int       `json:"num_for_sale"`
	Community  Community `json:"community"`
	Images     []Image   `json:"images"`
	Formats    []Format  `json:"formats"`
}

// Community carries ownership statistics for a release.
type Community struct {
	Have int `json:"have"`
	Want int `json:"want"`
}

// Image is one release image. Type is "primary" for the lead image.
type Image struct {
	Type   string `json:"type"`
	URI    string `json:"uri"`
	URI150 string `json:"uri150"`
}

// PriceSuggestion is the suggested price for one condition grade.
type PriceSuggestion struct {
	Value    float64 `json:"value"`
	Currency string  `json:"currency"`
}

// PriceSuggestions maps condition labels ("Very Good (VG)", ...) to
// suggested prices.
type PriceSuggestions map[string]PriceSuggestion
