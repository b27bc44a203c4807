package ingest

import (
	"strings"
	"testing"
)

func TestChunkContiguousIndices(t *testing.T) {
	c := NewChunker(100, 20)
	text := strings.Repeat("a", 450)
	chunks := c.Chunk("doc1", text)
	if len(chunks) == 0 {
		t.Fatal("expected chunks")
	}
	for i, chunk := range chunks {
		if chunk.ChunkIndex != i {
			t.Errorf("chunk %d has index %d", i, chunk.ChunkIndex)
		}
		if chunk.TotalChunks != len(chunks) {
			t.Errorf("chunk %d total %d, want %d", i, chunk.TotalChunks, len(chunks))
		}
		if chunk.DocumentID != "doc1" {
			t.Errorf("chunk %d wrong document id %s", i, chunk.DocumentID)
		}
		if !strings.HasPrefix(chunk.ID, "doc1_") {
			t.Errorf("chunk id %s should carry the document id", chunk.ID)
		}
	}
}

func TestChunkOverlap(t *testing.T) {
	c := NewChunker(10, 4)
	text := "0123456789abcdefghij"
	chunks := c.Chunk("d", text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	if chunks[0].Content != "0123456789" {
		t.Errorf("first chunk wrong: %q", chunks[0].Content)
	}
	// Step is size - overlap = 6, so the second chunk starts at rune 6.
	if !strings.HasPrefix(chunks[1].Content, "6789") {
		t.Errorf("second chunk should overlap the first: %q", chunks[1].Content)
	}
}

func TestChunkShortText(t *testing.T) {
	c := NewChunker(1000, 200)
	chunks := c.Chunk("d", "short document")
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Content != "short document" {
		t.Errorf("content mismatch: %q", chunks[0].Content)
	}
	if chunks[0].TotalChunks != 1 {
		t.Errorf("total should be 1, got %d", chunks[0].TotalChunks)
	}
}

func TestChunkEmptyText(t *testing.T) {
	c := NewChunker(1000, 200)
	if chunks := c.Chunk("d", ""); chunks != nil {
		t.Errorf("empty text should produce no chunks, got %d", len(chunks))
	}
}

func TestChunkMultibyteRunes(t *testing.T) {
	c := NewChunker(5, 2)
	text := "สวัสดีครับผมทดสอบ"
	chunks := c.Chunk("d", text)
	rejoined := 0
	for _, chunk := range chunks {
		runes := []rune(chunk.Content)
		if len(runes) > 5 {
			t.Errorf("chunk exceeds size in runes: %d", len(runes))
		}
		rejoined += len(runes)
	}
	// Every rune of the text appears in some chunk (with overlap counted).
	if rejoined < len([]rune(text)) {
		t.Error("chunks do not cover the whole text")
	}
}

func TestChunkZeroOverlapStep(t *testing.T) {
	// Overlap >= size must not loop forever; the step clamps to 1.
	c := NewChunker(3, 5)
	chunks := c.Chunk("d", "abcdef")
	if len(chunks) == 0 {
		t.Fatal("expected chunks")
	}
	for i, chunk := range chunks {
		if chunk.ChunkIndex != i {
			t.Errorf("non-contiguous index at %d", i)
		}
	}
}
