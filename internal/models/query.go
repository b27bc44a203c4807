package models

import (
	"fmt"
	"time"
)

// SearchType selects the retrieval strategy.
type SearchType string

const (
	// SearchTypeSemantic ranks by embedding similarity only.
	SearchTypeSemantic SearchType = "semantic"
	// SearchTypeKeyword ranks by lexical scoring only.
	SearchTypeKeyword SearchType = "keyword"
	// SearchTypeHybrid combines both signals with configurable weights.
	SearchTypeHybrid SearchType = "hybrid"
)

// DateRange restricts results to documents created within [From, To].
// A zero value leaves the corresponding bound open.
type DateRange struct {
	From time.Time `json:"from,omitempty"`
	To   time.Time `json:"to,omitempty"`
}

// SearchOptions configures a search request.
//
// KeywordWeight and VectorWeight are independent multipliers; their sum need not
// equal 1. They are pointers so an explicit zero (suppress that signal, but still
// compute it) is distinguishable from "use the configured default".
type SearchOptions struct {
	SearchType          SearchType `json:"search_type"`
	Limit               int        `json:"limit,omitempty"`
	Threshold           *float64   `json:"threshold,omitempty"`
	KeywordWeight       *float64   `json:"keyword_weight,omitempty"`
	VectorWeight        *float64   `json:"vector_weight,omitempty"`
	SpecificDocumentIDs []string   `json:"specific_document_ids,omitempty"`
	// UseBM25 switches keyword mode to per-request BM25 ranking over whole
	// documents instead of the containment scorer.
	UseBM25 bool `json:"use_bm25,omitempty"`

	// Post-filters, applied to the ranked result set, never to the candidate set.
	CategoryFilter string     `json:"category_filter,omitempty"`
	TagFilter      []string   `json:"tag_filter,omitempty"`
	FavoriteOnly   bool       `json:"favorite_only,omitempty"`
	DateRange      *DateRange `json:"date_range,omitempty"`
}

// Validate normalizes the options in place. The search type defaults to hybrid;
// the limit is clamped to [1, maxLimit] with defaultLimit for unset.
func (o *SearchOptions) Validate(defaultLimit, maxLimit int) error {
	switch o.SearchType {
	case "":
		o.SearchType = SearchTypeHybrid
	case SearchTypeSemantic, SearchTypeKeyword, SearchTypeHybrid:
	default:
		return fmt.Errorf("invalid search type %q", o.SearchType)
	}
	if o.Limit <= 0 {
		o.Limit = defaultLimit
	}
	if maxLimit > 0 && o.Limit > maxLimit {
		o.Limit = maxLimit
	}
	return nil
}
