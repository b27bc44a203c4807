package search

import (
	"sort"

	"github.com/thaidocs/sarabun/internal/keyword"
	"github.com/thaidocs/sarabun/internal/models"
	"github.com/thaidocs/sarabun/internal/vector"
)

// Lowered acceptance thresholds for chunks with an exact keyword hit. An exact
// textual match is strong independent evidence even when embedding similarity
// for that chunk is mediocre, e.g. after chunk-boundary truncation.
const (
	boostedHitThreshold = 0.1
	exactHitThreshold   = 0.15
)

// MergeParams carries the per-request knobs for the hybrid merge.
type MergeParams struct {
	QueryTerms    []string
	KeywordWeight float64
	VectorWeight  float64
	Threshold     float64
	Limit         int
}

// Merge combines vector similarity and keyword scores per chunk, applies the
// dynamic per-chunk threshold, deduplicates to one result per document keeping
// the highest-scoring chunk, and returns the ranked, limited result list.
// Documents absent from docs cannot be hydrated and are dropped. Returns an
// empty slice when hits is empty.
func Merge(hits []vector.ChunkHit, docs map[string]*models.Document, scorer *keyword.Scorer, p MergeParams) []models.SearchResult {
	if len(hits) == 0 {
		return []models.SearchResult{}
	}

	type candidate struct {
		result models.SearchResult
		score  float64
	}
	best := make(map[string]candidate)

	for _, hit := range hits {
		doc, ok := docs[hit.Chunk.DocumentID]
		if !ok {
			continue
		}

		keywordScore := scorer.Score(p.QueryTerms, hit.Chunk.Content)
		finalScore := hit.Similarity*p.VectorWeight + keywordScore*p.KeywordWeight

		// Threshold lowering requires an exact query-term hit in the chunk; a
		// boost-term overlap alone raises the score but not the admission bar.
		threshold := p.Threshold
		matchType := models.MatchSemantic
		switch {
		case keyword.HasExactHit(p.QueryTerms, hit.Chunk.Content) && scorer.HasBoostHit(p.QueryTerms, hit.Chunk.Content):
			threshold = min(threshold, boostedHitThreshold)
			matchType = models.MatchBoosted
		case keyword.HasExactHit(p.QueryTerms, hit.Chunk.Content):
			threshold = min(threshold, exactHitThreshold)
			matchType = models.MatchExact
		}
		if finalScore < threshold {
			continue
		}

		if prev, ok := best[doc.ID]; ok && prev.score >= finalScore {
			continue
		}
		best[doc.ID] = candidate{
			result: models.SearchResult{
				ID:            doc.ID,
				Name:          doc.Name,
				Content:       hit.Chunk.Content,
				Similarity:    finalScore,
				SemanticScore: hit.Similarity,
				KeywordScore:  keywordScore,
				MatchType:     matchType,
				Summary:       doc.Summary,
				AICategory:    doc.AICategory,
				Tags:          doc.Tags,
				FileSize:      doc.FileSize,
				MimeType:      doc.MimeType,
				IsFavorite:    doc.IsFavorite,
				CreatedAt:     doc.CreatedAt,
			},
			score: finalScore,
		}
	}

	results := make([]models.SearchResult, 0, len(best))
	for _, c := range best {
		results = append(results, c.result)
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		if !results[i].CreatedAt.Equal(results[j].CreatedAt) {
			return results[i].CreatedAt.Before(results[j].CreatedAt)
		}
		return results[i].ID < results[j].ID
	})

	if p.Limit > 0 && len(results) > p.Limit {
		results = results[:p.Limit]
	}
	return results
}
