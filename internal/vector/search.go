package vector

import (
	"sort"

	"github.com/thaidocs/sarabun/internal/models"
	"go.uber.org/zap"
)

// ChunkHit pairs a candidate chunk with its raw cosine similarity.
type ChunkHit struct {
	Chunk      *models.Chunk
	Similarity float64
}

// Searcher scores candidate chunks against a query embedding. It is pure over
// the supplied candidates and keeps no state between calls.
type Searcher struct {
	logger *zap.Logger
}

// SearcherOption configures a Searcher.
type SearcherOption func(*Searcher)

// WithLogger sets a logger for skipped-chunk diagnostics.
func WithLogger(l *zap.Logger) SearcherOption {
	return func(s *Searcher) { s.logger = l }
}

// NewSearcher creates a Searcher.
func NewSearcher(opts ...SearcherOption) *Searcher {
	s := &Searcher{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search computes cosine similarity between queryEmbedding and every candidate
// chunk and returns the topK highest-scoring chunks. When documentIDFilter is
// non-empty, only chunks from those documents are scored; filtering happens
// before scoring so cost stays proportional to the restricted set. Chunks with
// missing or wrong-dimension embeddings are skipped and logged, never fatal;
// the skipped count is returned so callers can tell an all-stale candidate set
// apart from a genuinely empty match. Ties break by lower chunk index, then
// lower document id, so repeated calls over the same candidates return the
// same order.
func (s *Searcher) Search(queryEmbedding []float32, candidates []*models.Chunk, topK int, documentIDFilter []string) ([]ChunkHit, int) {
	if topK <= 0 || len(queryEmbedding) == 0 || len(candidates) == 0 {
		return nil, 0
	}

	var filter map[string]struct{}
	if len(documentIDFilter) > 0 {
		filter = make(map[string]struct{}, len(documentIDFilter))
		for _, id := range documentIDFilter {
			filter[id] = struct{}{}
		}
	}

	skipped := 0
	hits := make([]ChunkHit, 0, len(candidates))
	for _, chunk := range candidates {
		if filter != nil {
			if _, ok := filter[chunk.DocumentID]; !ok {
				continue
			}
		}
		if len(chunk.Embedding) != len(queryEmbedding) {
			skipped++
			if s.logger != nil {
				s.logger.Warn("skipping chunk with bad embedding",
					zap.String("chunk_id", chunk.ID),
					zap.String("document_id", chunk.DocumentID),
					zap.Int("embedding_len", len(chunk.Embedding)),
					zap.Int("expected_len", len(queryEmbedding)),
				)
			}
			continue
		}
		hits = append(hits, ChunkHit{
			Chunk:      chunk,
			Similarity: CosineSimilarity(queryEmbedding, chunk.Embedding),
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		if hits[i].Chunk.ChunkIndex != hits[j].Chunk.ChunkIndex {
			return hits[i].Chunk.ChunkIndex < hits[j].Chunk.ChunkIndex
		}
		return hits[i].Chunk.DocumentID < hits[j].Chunk.DocumentID
	})

	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, skipped
}
