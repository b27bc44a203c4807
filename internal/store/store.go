// Package store defines the persistence contract retrieval reads from, plus the
// minimal writes ingestion needs to populate it.
package store

import (
	"context"

	"github.com/thaidocs/sarabun/internal/models"
)

// DocumentFilter narrows a GetDocuments read. A nil filter returns everything
// the user owns.
type DocumentFilter struct {
	DocumentIDs []string
	Category    string
}

// Store defines document and chunk persistence operations. Retrieval only uses
// the read side; writes belong to the ingestion path.
type Store interface {
	// Read contract consumed by search.
	GetChunksForUser(ctx context.Context, userID string, documentIDs []string) ([]*models.Chunk, error)
	GetDocuments(ctx context.Context, userID string, filter *DocumentFilter) ([]*models.Document, error)
	GetDocument(ctx context.Context, id string) (*models.Document, error)

	// Ingestion writes.
	CreateDocument(ctx context.Context, doc *models.Document) error
	BatchCreateChunks(ctx context.Context, chunks []*models.Chunk) error
	DeleteDocument(ctx context.Context, id string) error

	// Stats.
	CountDocuments(ctx context.Context) (int64, error)
	CountChunks(ctx context.Context) (int64, error)

	Close() error
}
