package discogs

import (
	"fmt"
)

// ApplyDetail merges a release detail payload into a record and returns the
// updated value. It overwrites ownership counts, marketplace availability,
// year, format, and image URLs; fields absent from the payload keep their
// prior values. Pure: neither argument is mutated.
func ApplyDetail(record Record, detail ReleaseDetail) Record {
	record.HaveCount = detail.Community.Have
	record.WantCount = detail.Community.Want
	record.NumForSale = detail.NumForSale

	if img, ok := pickImage(detail.Images); ok {
		record.FullImageURL = img.URI
		if img.URI150 != "" {
			record.ThumbnailURL = img.URI150
		}
	}

	record.Year = yearString(detail.Year)
	record.Format = joinFormats(detail.Formats)

	return record
}

// pickImage prefers the image tagged "primary", falling back to the first.
func pickImage(images []Image) (Image, bool) {
	if len(images) == 0 {
		return Image{}, false
	}
	for _, img := range images {
		if img.Type == "primary" {
			return img, true
		}
	}
	return images[0], true
}

// ApplyPrice merges a price suggestion payload into a record and returns
// the updated value. Only the exact condition key is consulted; when the
// key is absent the record keeps its prior price, so vocabulary drift on
// the Discogs side degrades to "Unknown" instead of failing.
func ApplyPrice(record Record, suggestions PriceSuggestions, condition, currencySymbol string) Record {
	suggestion, ok := suggestions[condition]
	if !ok {
		return record
	}

	record.MedianPrice = fmt.Sprintf("%.2f", suggestion.Value)
	record.Currency = currencySymbol
	return record
}
