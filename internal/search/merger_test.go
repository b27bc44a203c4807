package search

import (
	"testing"
	"time"

	"github.com/thaidocs/sarabun/internal/keyword"
	"github.com/thaidocs/sarabun/internal/models"
	"github.com/thaidocs/sarabun/internal/vector"
)

func testDocs(ids ...string) map[string]*models.Document {
	docs := make(map[string]*models.Document)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range ids {
		docs[id] = &models.Document{
			ID:        id,
			Name:      "doc " + id,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}
	}
	return docs
}

func hit(docID, content string, sim float64) vector.ChunkHit {
	return vector.ChunkHit{
		Chunk:      &models.Chunk{ID: docID + "_c", DocumentID: docID, Content: content},
		Similarity: sim,
	}
}

func TestMergeExactHitLowersThreshold(t *testing.T) {
	scorer := keyword.NewScorer(keyword.BoostPolicy{Terms: []string{"XOLO"}, Amount: 0.3})
	hits := []vector.ChunkHit{
		hit("d1", "no relevant words here", 0.9),
		hit("d2", "contains XOLO store", 0.3),
	}
	results := Merge(hits, testDocs("d1", "d2"), scorer, MergeParams{
		QueryTerms:    []string{"xolo"},
		KeywordWeight: 0.4,
		VectorWeight:  0.6,
		Threshold:     0.5,
		Limit:         10,
	})
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	// d2's boosted keyword score (1.0 + 0.3) * 0.4 plus 0.3 * 0.6 outranks
	// d1's pure vector 0.9 * 0.6.
	if results[0].ID != "d2" {
		t.Errorf("expected d2 first, got %s", results[0].ID)
	}
	if results[0].MatchType != models.MatchBoosted {
		t.Errorf("expected boosted match type, got %s", results[0].MatchType)
	}
	if results[1].ID != "d1" || results[1].MatchType != models.MatchSemantic {
		t.Errorf("expected semantic d1 second, got %s (%s)", results[1].ID, results[1].MatchType)
	}
}

func TestMergeThresholds(t *testing.T) {
	scorer := keyword.NewScorer(keyword.BoostPolicy{Terms: []string{"xolo"}, Amount: 0.3})
	// Keyword weight is zero here so the vector contribution alone decides,
	// isolating the dynamic threshold from the keyword score.
	tests := []struct {
		name  string
		hits  []vector.ChunkHit
		query []string
		want  int
	}{
		{
			// 0.2*0.6 = 0.12: below 0.15 but above the boosted 0.1
			name:  "boosted hit clears lowered threshold",
			hits:  []vector.ChunkHit{hit("d1", "xolo branch report", 0.2)},
			query: []string{"xolo"},
			want:  1,
		},
		{
			// 0.3*0.6 = 0.18: below 0.5 but above the exact-hit 0.15
			name:  "generic exact hit clears lowered threshold",
			hits:  []vector.ChunkHit{hit("d1", "quarterly revenue figures", 0.3)},
			query: []string{"revenue"},
			want:  1,
		},
		{
			// 0.1*0.6 = 0.06: below even the exact-hit 0.15
			name:  "exact hit still fails below lowered threshold",
			hits:  []vector.ChunkHit{hit("d1", "quarterly revenue figures", 0.1)},
			query: []string{"revenue"},
			want:  0,
		},
		{
			// no exact hit: 0.49*0.6 = 0.294 < 0.5
			name:  "no exact hit uses full threshold",
			hits:  []vector.ChunkHit{hit("d1", "unrelated text", 0.49)},
			query: []string{"revenue"},
			want:  0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := Merge(tt.hits, testDocs("d1"), scorer, MergeParams{
				QueryTerms:    tt.query,
				KeywordWeight: 0,
				VectorWeight:  0.6,
				Threshold:     0.5,
				Limit:         10,
			})
			if len(results) != tt.want {
				t.Errorf("expected %d results, got %d", tt.want, len(results))
			}
		})
	}
}

func TestMergeBoostWithoutExactHitKeepsFullThreshold(t *testing.T) {
	scorer := keyword.NewScorer(keyword.BoostPolicy{Terms: []string{"xolo"}, Amount: 0.3})
	params := MergeParams{
		QueryTerms:    []string{"xolotl"},
		KeywordWeight: 0,
		VectorWeight:  0.6,
		Threshold:     0.5,
		Limit:         10,
	}
	// The boost term overlaps the query as a substring, but the chunk never
	// contains the query term itself, so the admission bar stays at 0.5.
	low := Merge([]vector.ChunkHit{hit("d1", "the xolo branch", 0.2)}, testDocs("d1"), scorer, params)
	if len(low) != 0 {
		t.Fatalf("expected no results below the full threshold, got %d", len(low))
	}
	high := Merge([]vector.ChunkHit{hit("d1", "the xolo branch", 0.9)}, testDocs("d1"), scorer, params)
	if len(high) != 1 {
		t.Fatalf("expected 1 result, got %d", len(high))
	}
	if high[0].MatchType != models.MatchSemantic {
		t.Errorf("expected semantic match type, got %s", high[0].MatchType)
	}
}

func TestMergeOneResultPerDocument(t *testing.T) {
	scorer := keyword.NewScorer(keyword.BoostPolicy{})
	hits := []vector.ChunkHit{
		hit("d1", "first chunk about budgets", 0.85),
		{Chunk: &models.Chunk{ID: "d1_c2", DocumentID: "d1", Content: "second chunk about budgets"}, Similarity: 0.7},
	}
	results := Merge(hits, testDocs("d1"), scorer, MergeParams{
		QueryTerms:    []string{"budgets"},
		KeywordWeight: 0.4,
		VectorWeight:  0.6,
		Threshold:     0.3,
		Limit:         10,
	})
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Content != "first chunk about budgets" {
		t.Errorf("expected the higher-scoring chunk's content, got %q", results[0].Content)
	}
	if results[0].SemanticScore != 0.85 {
		t.Errorf("expected semantic score 0.85, got %f", results[0].SemanticScore)
	}
}

func TestMergeEmptyInput(t *testing.T) {
	scorer := keyword.NewScorer(keyword.BoostPolicy{})
	results := Merge(nil, testDocs("d1"), scorer, MergeParams{Threshold: 0.3, Limit: 10})
	if results == nil {
		t.Fatal("expected empty slice, got nil")
	}
	if len(results) != 0 {
		t.Errorf("expected 0 results, got %d", len(results))
	}
}

func TestMergeDeterministic(t *testing.T) {
	scorer := keyword.NewScorer(keyword.BoostPolicy{})
	hits := []vector.ChunkHit{
		hit("d1", "alpha report", 0.8),
		hit("d2", "alpha report", 0.8),
		hit("d3", "alpha report", 0.8),
	}
	p := MergeParams{
		QueryTerms:    []string{"alpha"},
		KeywordWeight: 0.4,
		VectorWeight:  0.6,
		Threshold:     0.3,
		Limit:         10,
	}
	docs := testDocs("d1", "d2", "d3")
	first := Merge(hits, docs, scorer, p)
	for i := 0; i < 5; i++ {
		again := Merge(hits, docs, scorer, p)
		if len(again) != len(first) {
			t.Fatalf("result count changed between runs")
		}
		for j := range first {
			if first[j].ID != again[j].ID {
				t.Fatalf("order changed between runs: %s vs %s", first[j].ID, again[j].ID)
			}
		}
	}
	// Ties broken by earliest CreatedAt.
	if first[0].ID != "d1" || first[1].ID != "d2" || first[2].ID != "d3" {
		t.Errorf("tie-break order wrong: %s %s %s", first[0].ID, first[1].ID, first[2].ID)
	}
}

func TestMergeVectorWeightMonotonic(t *testing.T) {
	scorer := keyword.NewScorer(keyword.BoostPolicy{})
	hits := []vector.ChunkHit{hit("d1", "alpha report", 0.7)}
	docs := testDocs("d1")
	var prev float64
	for _, vw := range []float64{0.2, 0.4, 0.6, 0.8, 1.0} {
		results := Merge(hits, docs, scorer, MergeParams{
			QueryTerms:    []string{"alpha"},
			KeywordWeight: 0.4,
			VectorWeight:  vw,
			Threshold:     0.1,
			Limit:         10,
		})
		if len(results) != 1 {
			t.Fatalf("expected 1 result at vectorWeight %f", vw)
		}
		if results[0].Similarity < prev {
			t.Errorf("score decreased when vectorWeight rose to %f", vw)
		}
		prev = results[0].Similarity
	}
}

func TestMergeLimit(t *testing.T) {
	scorer := keyword.NewScorer(keyword.BoostPolicy{})
	hits := []vector.ChunkHit{
		hit("d1", "alpha", 0.9),
		hit("d2", "alpha", 0.8),
		hit("d3", "alpha", 0.7),
		hit("d4", "alpha", 0.6),
	}
	results := Merge(hits, testDocs("d1", "d2", "d3", "d4"), scorer, MergeParams{
		QueryTerms:    []string{"alpha"},
		KeywordWeight: 0.4,
		VectorWeight:  0.6,
		Threshold:     0.1,
		Limit:         2,
	})
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].ID != "d1" || results[1].ID != "d2" {
		t.Errorf("expected top-2 by score, got %s %s", results[0].ID, results[1].ID)
	}
}

func TestMergeZeroWeights(t *testing.T) {
	scorer := keyword.NewScorer(keyword.BoostPolicy{})
	hits := []vector.ChunkHit{hit("d1", "alpha report", 0.9)}
	results := Merge(hits, testDocs("d1"), scorer, MergeParams{
		QueryTerms:    []string{"alpha"},
		KeywordWeight: 0,
		VectorWeight:  0.6,
		Threshold:     0.3,
		Limit:         10,
	})
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Similarity != 0.54 {
		t.Errorf("expected 0.54 with zero keyword weight, got %f", results[0].Similarity)
	}
	if results[0].KeywordScore != 1.0 {
		t.Errorf("keyword score should still be computed, got %f", results[0].KeywordScore)
	}
}
