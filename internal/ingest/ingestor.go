package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/thaidocs/sarabun/internal/embedding"
	"github.com/thaidocs/sarabun/internal/models"
	"github.com/thaidocs/sarabun/internal/store"
)

// Ingestor persists documents and their embedded chunks. A chunk's embedding is
// fully written before the chunk becomes visible to search reads; the whole
// chunk batch is committed in one transaction after embedding finishes.
type Ingestor struct {
	store    store.Store
	embedder embedding.Embedder
	chunker  *Chunker
	logger   *zap.Logger
}

// Option configures an Ingestor.
type Option func(*Ingestor)

// WithLogger sets a logger for ingestion progress.
func WithLogger(l *zap.Logger) Option {
	return func(in *Ingestor) { in.logger = l }
}

// NewIngestor creates an ingestor. embedder may be nil; documents are then
// stored without chunk embeddings and only keyword search sees them.
func NewIngestor(st store.Store, embedder embedding.Embedder, chunker *Chunker, opts ...Option) *Ingestor {
	in := &Ingestor{
		store:    st,
		embedder: embedder,
		chunker:  chunker,
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// IngestDocument stores a document, chunks its content, embeds the chunks, and
// persists them. Returns the stored document.
func (in *Ingestor) IngestDocument(ctx context.Context, input models.DocumentInput) (*models.Document, error) {
	if strings.TrimSpace(input.Content) == "" {
		return nil, fmt.Errorf("document content is empty")
	}
	if input.UserID == "" {
		return nil, fmt.Errorf("user id is required")
	}

	now := time.Now()
	doc := &models.Document{
		ID:         input.ID,
		UserID:     input.UserID,
		Name:       input.Name,
		Content:    input.Content,
		Summary:    input.Summary,
		AICategory: input.AICategory,
		Tags:       input.Tags,
		FileSize:   input.FileSize,
		MimeType:   input.MimeType,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	if doc.Name == "" {
		doc.Name = doc.ID
	}

	if err := in.store.CreateDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to store document: %w", err)
	}

	chunks := in.chunker.Chunk(doc.ID, doc.Content)
	if len(chunks) == 0 {
		return doc, nil
	}

	if in.embedder != nil {
		texts := make([]string, len(chunks))
		for i, chunk := range chunks {
			texts[i] = chunk.Content
		}
		vectors, err := in.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			in.discard(ctx, doc.ID)
			return nil, fmt.Errorf("failed to embed chunks for document %s: %w", doc.ID, err)
		}
		for i, chunk := range chunks {
			chunk.Embedding = vectors[i]
		}
	}

	if err := in.store.BatchCreateChunks(ctx, chunks); err != nil {
		in.discard(ctx, doc.ID)
		return nil, fmt.Errorf("failed to store chunks for document %s: %w", doc.ID, err)
	}

	if in.logger != nil {
		in.logger.Info("document ingested",
			zap.String("document_id", doc.ID),
			zap.String("user_id", doc.UserID),
			zap.Int("chunks", len(chunks)))
	}
	return doc, nil
}

// discard removes a document left behind by a failed ingestion so it does not
// surface chunkless in listings.
func (in *Ingestor) discard(ctx context.Context, id string) {
	if err := in.store.DeleteDocument(ctx, id); err != nil && in.logger != nil {
		in.logger.Warn("failed to remove document after ingest failure",
			zap.String("document_id", id),
			zap.Error(err))
	}
}

// DeleteDocument removes a document and its chunks.
func (in *Ingestor) DeleteDocument(ctx context.Context, id string) error {
	if err := in.store.DeleteDocument(ctx, id); err != nil {
		return fmt.Errorf("failed to delete document %s: %w", id, err)
	}
	if in.logger != nil {
		in.logger.Info("document deleted", zap.String("document_id", id))
	}
	return nil
}
