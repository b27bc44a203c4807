// Package models defines core data structures for documents, chunks, queries, and search results.
package models

import "time"

// Document represents a stored document with extracted text and display metadata.
type Document struct {
	ID         string    `json:"id" db:"id"`
	UserID     string    `json:"user_id" db:"user_id"`
	Name       string    `json:"name" db:"name"`
	Content    string    `json:"content" db:"content"`
	Summary    string    `json:"summary,omitempty" db:"summary"`
	AICategory string    `json:"ai_category,omitempty" db:"ai_category"`
	Tags       []string  `json:"tags,omitempty" db:"tags"`
	FileSize   int64     `json:"file_size,omitempty" db:"file_size"`
	MimeType   string    `json:"mime_type,omitempty" db:"mime_type"`
	IsFavorite bool      `json:"is_favorite,omitempty" db:"is_favorite"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// Chunk represents an overlapping slice of a document's extracted text, the unit
// of embedding and retrieval granularity. ChunkIndex values for a document are
// contiguous 0..TotalChunks-1.
type Chunk struct {
	ID          string    `json:"id" db:"id"`
	DocumentID  string    `json:"document_id" db:"document_id"`
	ChunkIndex  int       `json:"chunk_index" db:"chunk_index"`
	TotalChunks int       `json:"total_chunks" db:"total_chunks"`
	Content     string    `json:"content" db:"content"`
	Embedding   []float32 `json:"-" db:"-"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// DocumentInput is the input for ingesting a document.
type DocumentInput struct {
	ID         string   `json:"id,omitempty"`
	UserID     string   `json:"user_id"`
	Name       string   `json:"name"`
	Content    string   `json:"content"`
	Summary    string   `json:"summary,omitempty"`
	AICategory string   `json:"ai_category,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	FileSize   int64    `json:"file_size,omitempty"`
	MimeType   string   `json:"mime_type,omitempty"`
}
