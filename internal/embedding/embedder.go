// Package embedding provides text embedding via a remote provider, with caching.
package embedding

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned when no embedding provider is configured.
// Semantic and hybrid search cannot run in that state; keyword search still can.
var ErrNotConfigured = errors.New("embedding provider not configured")

// ErrProviderUnavailable is returned for transient provider failures
// (timeout, rate limit, non-200 response). Callers may retry.
var ErrProviderUnavailable = errors.New("embedding provider unavailable")

// Embedder produces vector embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}
