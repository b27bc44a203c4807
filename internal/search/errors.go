package search

import "errors"

// Error classes callers branch on with errors.Is. The chat collaborator falls
// back to keyword mode on ErrNoEmbeddingProvider and retries or surfaces the
// failure on the others; an empty result set is never reported as an error.
var (
	// ErrNoEmbeddingProvider means semantic and hybrid search cannot run
	// because no embedding provider is configured.
	ErrNoEmbeddingProvider = errors.New("no embedding provider configured")

	// ErrEmbeddingProvider means the configured provider failed to embed the
	// query (timeout, rate limit, network).
	ErrEmbeddingProvider = errors.New("embedding provider error")

	// ErrStaleEmbeddings means candidate chunks exist but none matched the
	// active provider's dimensionality, usually after a provider or model
	// change without re-ingestion. Surfaced instead of an empty result so
	// callers can fall back to keyword mode.
	ErrStaleEmbeddings = errors.New("stored embeddings do not match active provider")

	// ErrChunkStoreUnavailable means candidate chunks could not be fetched.
	ErrChunkStoreUnavailable = errors.New("chunk store unavailable")

	// ErrSearchFailed is the generic class for failures not covered above.
	ErrSearchFailed = errors.New("search failed")
)
