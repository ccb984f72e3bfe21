package domain

// Provenance records which acquisition channel produced a raw record.
type Provenance string

const (
	ProvenanceWebScraper Provenance = "web_scraper"
	ProvenanceMarketFeed Provenance = "market_feed"
	ProvenanceFileUpload Provenance = "file_upload"
	ProvenanceManual     Provenance = "manual"
	ProvenanceCSVUpload  Provenance = "csv_upload"
)

// String returns the string representation of Provenance.
func (p Provenance) String() string {
	return string(p)
}

// IsValid checks if the provenance is a known value.
func (p Provenance) IsValid() bool {
	switch p {
	case ProvenanceWebScraper, ProvenanceMarketFeed, ProvenanceFileUpload, ProvenanceManual, ProvenanceCSVUpload:
		return true
	}
	return false
}

// SourceCategory is the logical grouping of provenance tags consumed by ETL filtering.
type SourceCategory string

const (
	CategoryAll        SourceCategory = "all"
	CategoryMarketFeed SourceCategory = "market_feed"
	CategoryUploaded   SourceCategory = "uploaded"
)

// Category maps a raw provenance tag to its filtering category.
// file_upload, manual and csv_upload are one logical "uploaded" origin.
// Scraped rows belong to no specific category and match only "all".
func (p Provenance) Category() SourceCategory {
	switch p {
	case ProvenanceFileUpload, ProvenanceManual, ProvenanceCSVUpload:
		return CategoryUploaded
	case ProvenanceMarketFeed:
		return CategoryMarketFeed
	default:
		return CategoryAll
	}
}

// Matches reports whether a provenance tag falls under the category.
// CategoryAll matches every tag.
func (c SourceCategory) Matches(p Provenance) bool {
	if c == CategoryAll {
		return true
	}
	return p.Category() == c
}

// String returns the string representation of SourceCategory.
func (c SourceCategory) String() string {
	return string(c)
}

// IsValid checks if the category is a known value.
func (c SourceCategory) IsValid() bool {
	return c == CategoryAll || c == CategoryMarketFeed || c == CategoryUploaded
}
