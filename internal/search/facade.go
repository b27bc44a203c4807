// Package search implements hybrid document retrieval: vector similarity,
// lexical scoring, and the weighted merge between them.
package search

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/thaidocs/sarabun/internal/config"
	"github.com/thaidocs/sarabun/internal/embedding"
	"github.com/thaidocs/sarabun/internal/keyword"
	"github.com/thaidocs/sarabun/internal/models"
	"github.com/thaidocs/sarabun/internal/store"
	"github.com/thaidocs/sarabun/internal/vector"
)

// Engine is the search facade. It dispatches semantic, keyword, and hybrid
// requests, hydrates document display fields, and applies post-filters.
// Each request's ranking runs over a freshly fetched candidate set; no scores
// or corpus statistics are shared across requests.
type Engine struct {
	store    store.Store
	embedder embedding.Embedder
	searcher *vector.Searcher
	cfg      config.SearchConfig
	logger   *zap.Logger

	mu     sync.RWMutex
	scorer *keyword.Scorer
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets a logger for search diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// NewEngine creates a search engine. embedder may be nil when no provider is
// configured; semantic and hybrid requests then fail with
// ErrNoEmbeddingProvider while keyword requests still work.
func NewEngine(st store.Store, embedder embedding.Embedder, cfg config.SearchConfig, opts ...Option) *Engine {
	e := &Engine{
		store:    st,
		embedder: embedder,
		cfg:      cfg,
		scorer: keyword.NewScorer(keyword.BoostPolicy{
			Terms:  cfg.Boost.Terms,
			Amount: cfg.Boost.Amount,
		}),
	}
	for _, opt := range opts {
		opt(e)
	}
	var searcherOpts []vector.SearcherOption
	if e.logger != nil {
		searcherOpts = append(searcherOpts, vector.WithLogger(e.logger))
	}
	e.searcher = vector.NewSearcher(searcherOpts...)
	return e
}

// SetBoostPolicy swaps the domain-boost policy. Safe to call while searches
// are in flight; each request snapshots the scorer once.
func (e *Engine) SetBoostPolicy(policy keyword.BoostPolicy) {
	e.mu.Lock()
	e.scorer = keyword.NewScorer(policy)
	e.mu.Unlock()
	if e.logger != nil {
		e.logger.Info("boost policy updated", zap.Int("terms", len(policy.Terms)))
	}
}

func (e *Engine) currentScorer() *keyword.Scorer {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.scorer
}

// Search runs a query for userID per opts and returns the tagged result list.
// An empty or whitespace-only query is the no-query pass-through: it returns a
// document listing (Kind listing) instead of a ranked search. A genuinely empty
// match set is a normal ranked response with zero items, never an error.
func (e *Engine) Search(ctx context.Context, query, userID string, opts models.SearchOptions) (*models.ResultList, error) {
	start := time.Now()
	if err := opts.Validate(e.cfg.DefaultLimit, e.cfg.MaxLimit); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSearchFailed, err)
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return e.listing(ctx, userID, opts, start)
	}

	var (
		results []models.SearchResult
		err     error
	)
	switch opts.SearchType {
	case models.SearchTypeSemantic:
		results, err = e.searchSemantic(ctx, query, userID, opts)
	case models.SearchTypeKeyword:
		results, err = e.searchKeyword(ctx, query, userID, opts)
	default:
		results, err = e.searchHybrid(ctx, query, userID, opts)
	}
	if err != nil {
		return nil, err
	}

	results = applyPostFilters(results, opts)

	elapsed := time.Since(start)
	if e.logger != nil {
		e.logger.Debug("search completed",
			zap.String("type", string(opts.SearchType)),
			zap.String("user_id", userID),
			zap.Int("results", len(results)),
			zap.Duration("elapsed", elapsed))
	}
	return &models.ResultList{
		Kind:      models.KindRanked,
		Items:     results,
		Query:     query,
		QueryTime: elapsed.Milliseconds(),
	}, nil
}

// listing is the no-query pass-through: an unranked document listing hydrated
// into the same result shape, discriminated by Kind.
func (e *Engine) listing(ctx context.Context, userID string, opts models.SearchOptions, start time.Time) (*models.ResultList, error) {
	docs, err := e.fetchDocuments(ctx, userID, opts.SpecificDocumentIDs)
	if err != nil {
		return nil, err
	}
	results := make([]models.SearchResult, 0, len(docs))
	for _, doc := range docs {
		results = append(results, documentResult(doc))
	}
	sort.Slice(results, func(i, j int) bool {
		if !results[i].CreatedAt.Equal(results[j].CreatedAt) {
			return results[i].CreatedAt.After(results[j].CreatedAt)
		}
		return results[i].ID < results[j].ID
	})
	if e.cfg.ListingLimit > 0 && len(results) > e.cfg.ListingLimit {
		results = results[:e.cfg.ListingLimit]
	}
	results = applyPostFilters(results, opts)
	return &models.ResultList{
		Kind:      models.KindListing,
		Items:     results,
		QueryTime: time.Since(start).Milliseconds(),
	}, nil
}

func (e *Engine) searchSemantic(ctx context.Context, query, userID string, opts models.SearchOptions) ([]models.SearchResult, error) {
	queryEmbedding, err := e.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	chunks, docsByID, err := e.fetchCandidates(ctx, userID, opts.SpecificDocumentIDs)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSearchFailed, err)
	}

	hits, skipped := e.searcher.Search(queryEmbedding, chunks, e.topK(), opts.SpecificDocumentIDs)
	if len(hits) == 0 && skipped > 0 {
		return nil, fmt.Errorf("%w: %d of %d candidate chunks skipped", ErrStaleEmbeddings, skipped, len(chunks))
	}
	threshold := e.threshold(opts)

	results := make([]models.SearchResult, 0, len(hits))
	seen := make(map[string]struct{})
	for _, hit := range hits {
		if hit.Similarity < threshold {
			continue
		}
		doc, ok := docsByID[hit.Chunk.DocumentID]
		if !ok {
			continue
		}
		if _, dup := seen[doc.ID]; dup {
			continue
		}
		seen[doc.ID] = struct{}{}
		r := documentResult(doc)
		r.Content = hit.Chunk.Content
		r.Similarity = hit.Similarity
		r.SemanticScore = hit.Similarity
		r.MatchType = models.MatchSemantic
		results = append(results, r)
		if len(results) >= opts.Limit {
			break
		}
	}
	return results, nil
}

func (e *Engine) searchKeyword(ctx context.Context, query, userID string, opts models.SearchOptions) ([]models.SearchResult, error) {
	chunks, docsByID, err := e.fetchCandidates(ctx, userID, opts.SpecificDocumentIDs)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSearchFailed, err)
	}

	if opts.UseBM25 {
		return e.rankBM25(query, docsByID, opts), nil
	}

	scorer := e.currentScorer()
	queryTerms := keyword.Tokenize(query)

	type candidate struct {
		result models.SearchResult
		score  float64
	}
	best := make(map[string]candidate)
	for _, chunk := range chunks {
		doc, ok := docsByID[chunk.DocumentID]
		if !ok {
			continue
		}
		score := keyword.CapScore(scorer.Score(queryTerms, chunk.Content), e.cfg.KeywordScoreCap)
		if score <= 0 {
			continue
		}
		if prev, ok := best[doc.ID]; ok && prev.score >= score {
			continue
		}
		r := documentResult(doc)
		r.Content = chunk.Content
		r.Similarity = score
		r.KeywordScore = score
		r.MatchType = models.MatchKeyword
		best[doc.ID] = candidate{result: r, score: score}
	}

	results := make([]models.SearchResult, 0, len(best))
	for _, c := range best {
		results = append(results, c.result)
	}
	sortRanked(results)
	if len(results) > opts.Limit {
		results = results[:opts.Limit]
	}
	return results, nil
}

// rankBM25 ranks whole documents with Okapi BM25. Corpus statistics are built
// fresh from this request's candidate documents.
func (e *Engine) rankBM25(query string, docsByID map[string]*models.Document, opts models.SearchOptions) []models.SearchResult {
	docs := make([]*models.Document, 0, len(docsByID))
	texts := make([]string, 0, len(docsByID))
	for _, doc := range docsByID {
		docs = append(docs, doc)
		texts = append(texts, doc.Content)
	}
	stats := keyword.BuildCorpusStats(texts)
	queryTerms := keyword.TokenizeBM25(query)

	results := make([]models.SearchResult, 0, len(docs))
	for i, doc := range docs {
		score := keyword.BM25Score(queryTerms, texts[i], stats)
		if score <= 0 {
			continue
		}
		r := documentResult(doc)
		r.Similarity = score
		r.KeywordScore = score
		r.MatchType = models.MatchKeyword
		results = append(results, r)
	}
	sortRanked(results)
	if len(results) > opts.Limit {
		results = results[:opts.Limit]
	}
	return results
}

func (e *Engine) searchHybrid(ctx context.Context, query, userID string, opts models.SearchOptions) ([]models.SearchResult, error) {
	if e.embedder == nil {
		return nil, ErrNoEmbeddingProvider
	}

	var (
		queryEmbedding []float32
		chunks         []*models.Chunk
		docsByID       map[string]*models.Document
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		queryEmbedding, err = e.embedQuery(gctx, query)
		return err
	})
	g.Go(func() error {
		var err error
		chunks, docsByID, err = e.fetchCandidates(gctx, userID, opts.SpecificDocumentIDs)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSearchFailed, err)
	}

	hits, skipped := e.searcher.Search(queryEmbedding, chunks, e.topK(), opts.SpecificDocumentIDs)
	if len(hits) == 0 && skipped > 0 {
		return nil, fmt.Errorf("%w: %d of %d candidate chunks skipped", ErrStaleEmbeddings, skipped, len(chunks))
	}
	return Merge(hits, docsByID, e.currentScorer(), MergeParams{
		QueryTerms:    keyword.Tokenize(query),
		KeywordWeight: e.keywordWeight(opts),
		VectorWeight:  e.vectorWeight(opts),
		Threshold:     e.threshold(opts),
		Limit:         opts.Limit,
	}), nil
}

func (e *Engine) embedQuery(ctx context.Context, query string) ([]float32, error) {
	if e.embedder == nil {
		return nil, ErrNoEmbeddingProvider
	}
	vec, err := e.embedder.Embed(ctx, query)
	if err != nil {
		if errors.Is(err, embedding.ErrNotConfigured) {
			return nil, fmt.Errorf("%w: %w", ErrNoEmbeddingProvider, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrEmbeddingProvider, err)
	}
	return vec, nil
}

// fetchCandidates loads the user's chunks and the documents that hydrate
// display fields, both narrowed by documentIDs when provided.
func (e *Engine) fetchCandidates(ctx context.Context, userID string, documentIDs []string) ([]*models.Chunk, map[string]*models.Document, error) {
	chunks, err := e.store.GetChunksForUser(ctx, userID, documentIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrChunkStoreUnavailable, err)
	}
	docs, err := e.fetchDocuments(ctx, userID, documentIDs)
	if err != nil {
		return nil, nil, err
	}
	docsByID := make(map[string]*models.Document, len(docs))
	for _, doc := range docs {
		docsByID[doc.ID] = doc
	}
	return chunks, docsByID, nil
}

func (e *Engine) fetchDocuments(ctx context.Context, userID string, documentIDs []string) ([]*models.Document, error) {
	var filter *store.DocumentFilter
	if len(documentIDs) > 0 {
		filter = &store.DocumentFilter{DocumentIDs: documentIDs}
	}
	docs, err := e.store.GetDocuments(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrChunkStoreUnavailable, err)
	}
	return docs, nil
}

func (e *Engine) topK() int {
	if e.cfg.TopKCandidates > 0 {
		return e.cfg.TopKCandidates
	}
	return 50
}

func (e *Engine) threshold(opts models.SearchOptions) float64 {
	if opts.Threshold != nil {
		return *opts.Threshold
	}
	return e.cfg.DefaultThreshold
}

func (e *Engine) keywordWeight(opts models.SearchOptions) float64 {
	if opts.KeywordWeight != nil {
		return *opts.KeywordWeight
	}
	return e.cfg.KeywordWeight
}

func (e *Engine) vectorWeight(opts models.SearchOptions) float64 {
	if opts.VectorWeight != nil {
		return *opts.VectorWeight
	}
	return e.cfg.VectorWeight
}

// documentResult copies a document's display fields into a result.
func documentResult(doc *models.Document) models.SearchResult {
	return models.SearchResult{
		ID:         doc.ID,
		Name:       doc.Name,
		Content:    doc.Content,
		Summary:    doc.Summary,
		AICategory: doc.AICategory,
		Tags:       doc.Tags,
		FileSize:   doc.FileSize,
		MimeType:   doc.MimeType,
		IsFavorite: doc.IsFavorite,
		CreatedAt:  doc.CreatedAt,
	}
}

func sortRanked(results []models.SearchResult) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		if !results[i].CreatedAt.Equal(results[j].CreatedAt) {
			return results[i].CreatedAt.Before(results[j].CreatedAt)
		}
		return results[i].ID < results[j].ID
	})
}

// applyPostFilters narrows an already-ranked result set by category, tags,
// favorite flag, and date range. Filters run after ranking and limiting, so a
// filter can shrink a page below the nominal limit.
func applyPostFilters(results []models.SearchResult, opts models.SearchOptions) []models.SearchResult {
	if opts.CategoryFilter == "" && len(opts.TagFilter) == 0 && !opts.FavoriteOnly && opts.DateRange == nil {
		return results
	}
	filtered := results[:0:0]
	for _, r := range results {
		if opts.CategoryFilter != "" && !strings.EqualFold(r.AICategory, opts.CategoryFilter) {
			continue
		}
		if opts.FavoriteOnly && !r.IsFavorite {
			continue
		}
		if len(opts.TagFilter) > 0 && !hasAnyTag(r.Tags, opts.TagFilter) {
			continue
		}
		if dr := opts.DateRange; dr != nil {
			if !dr.From.IsZero() && r.CreatedAt.Before(dr.From) {
				continue
			}
			if !dr.To.IsZero() && r.CreatedAt.After(dr.To) {
				continue
			}
		}
		filtered = append(filtered, r)
	}
	return filtered
}

func hasAnyTag(tags, wanted []string) bool {
	for _, w := range wanted {
		for _, t := range tags {
			if strings.EqualFold(t, w) {
				return true
			}
		}
	}
	return false
}
