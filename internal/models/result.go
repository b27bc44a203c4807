package models

import "time"

// SearchResult is a document-level search hit. ID is always the original
// document id, never a chunk-qualified id; Content is the best matching chunk's
// text, not necessarily the whole document. Similarity is the final merged score
// and is not bounded to [0,1] once keyword boosts apply, so callers must not
// assume probability semantics.
type SearchResult struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Content       string    `json:"content"`
	Similarity    float64   `json:"similarity"`
	KeywordScore  float64   `json:"keyword_score,omitempty"`
	SemanticScore float64   `json:"semantic_score,omitempty"`
	MatchType     string    `json:"match_type,omitempty"`
	Summary       string    `json:"summary,omitempty"`
	AICategory    string    `json:"ai_category,omitempty"`
	Tags          []string  `json:"tags,omitempty"`
	FileSize      int64     `json:"file_size,omitempty"`
	MimeType      string    `json:"mime_type,omitempty"`
	IsFavorite    bool      `json:"is_favorite,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Match types recorded on a SearchResult, naming the strongest evidence that
// retained it.
const (
	MatchSemantic = "semantic"
	MatchExact    = "exact"
	MatchBoosted  = "boosted"
	MatchKeyword  = "keyword"
)

// ResultKind discriminates the shape of a ResultList.
type ResultKind string

const (
	// KindRanked marks a ranked search response.
	KindRanked ResultKind = "ranked"
	// KindListing marks the no-query pass-through document listing.
	KindListing ResultKind = "listing"
)

// ResultList is the single tagged result shape every consumer receives.
// Consumers switch on Kind instead of probing for field presence.
type ResultList struct {
	Kind      ResultKind     `json:"kind"`
	Items     []SearchResult `json:"items"`
	Query     string         `json:"query,omitempty"`
	QueryTime int64          `json:"query_time_ms,omitempty"`
}
