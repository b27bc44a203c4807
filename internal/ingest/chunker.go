// Package ingest provides document chunking, embedding, and persistence.
package ingest

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/thaidocs/sarabun/internal/models"
)

// Chunker splits text into overlapping character-based chunks. Sizes are in
// runes so multi-byte scripts chunk by character, not by byte.
type Chunker struct {
	chunkSize    int
	chunkOverlap int
}

// NewChunker creates a chunker with the given size and overlap (in characters).
func NewChunker(chunkSize, chunkOverlap int) *Chunker {
	return &Chunker{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
	}
}

// Chunk splits text into Chunks with overlapping windows. ChunkIndex values are
// contiguous from 0 and TotalChunks is set on every chunk.
func (c *Chunker) Chunk(docID, text string) []*models.Chunk {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	step := c.chunkSize - c.chunkOverlap
	if step <= 0 {
		step = 1
	}
	now := time.Now()
	chunks := make([]*models.Chunk, 0)
	chunkIndex := 0
	for i := 0; i < len(runes); i += step {
		end := i + c.chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunk := &models.Chunk{
			ID:         fmt.Sprintf("%s_%s", docID, uuid.New().String()[:8]),
			DocumentID: docID,
			ChunkIndex: chunkIndex,
			Content:    string(runes[i:end]),
			CreatedAt:  now,
		}
		chunks = append(chunks, chunk)
		chunkIndex++
		if end >= len(runes) {
			break
		}
	}
	for _, chunk := range chunks {
		chunk.TotalChunks = len(chunks)
	}
	return chunks
}
