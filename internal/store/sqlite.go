package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/thaidocs/sarabun/internal/models"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		content TEXT NOT NULL,
		summary TEXT,
		ai_category TEXT,
		tags TEXT,
		file_size INTEGER DEFAULT 0,
		mime_type TEXT,
		is_favorite INTEGER DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_documents_user_id ON documents(user_id);
	CREATE INDEX IF NOT EXISTS idx_documents_created_at ON documents(created_at);

	CREATE TABLE IF NOT EXISTS chunks (
		id TEXT PRIMARY KEY,
		document_id TEXT NOT NULL,
		chunk_index INTEGER NOT NULL,
		total_chunks INTEGER NOT NULL,
		content TEXT NOT NULL,
		embedding BLOB,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (document_id) REFERENCES documents(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_chunks_document_id ON chunks(document_id);
	CREATE INDEX IF NOT EXISTS idx_chunks_document_chunk ON chunks(document_id, chunk_index);
	`
	_, err := db.Exec(schema)
	return err
}

// embeddingToBytes encodes a vector as little-endian float32.
func embeddingToBytes(v []float32) []byte {
	if len(v) == 0 {
		return nil
	}
	const size = 4
	out := make([]byte, len(v)*size)
	for i, f := range v {
		binary.LittleEndian.PutUint32(out[i*size:(i+1)*size], math.Float32bits(f))
	}
	return out
}

// bytesToEmbedding decodes a little-endian float32 vector.
func bytesToEmbedding(b []byte) []float32 {
	const size = 4
	if len(b) < size {
		return nil
	}
	out := make([]float32, len(b)/size)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*size : (i+1)*size]))
	}
	return out
}

// CreateDocument inserts a document.
func (s *SQLiteStore) CreateDocument(ctx context.Context, doc *models.Document) error {
	tagsJSON, err := json.Marshal(doc.Tags)
	if err != nil {
		return fmt.Errorf("failed to marshal tags: %w", err)
	}

	now := time.Now()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (id, user_id, name, content, summary, ai_category, tags, file_size, mime_type, is_favorite, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.UserID, doc.Name, doc.Content, doc.Summary, doc.AICategory,
		string(tagsJSON), doc.FileSize, doc.MimeType, doc.IsFavorite, doc.CreatedAt, doc.UpdatedAt,
	)
	return err
}

func scanDocument(scan func(dest ...any) error) (*models.Document, error) {
	var doc models.Document
	var tagsJSON sql.NullString
	var summary, category, mime sql.NullString
	if err := scan(&doc.ID, &doc.UserID, &doc.Name, &doc.Content, &summary, &category,
		&tagsJSON, &doc.FileSize, &mime, &doc.IsFavorite, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		return nil, err
	}
	doc.Summary = summary.String
	doc.AICategory = category.String
	doc.MimeType = mime.String
	if tagsJSON.Valid && tagsJSON.String != "" {
		if err := json.Unmarshal([]byte(tagsJSON.String), &doc.Tags); err != nil {
			return nil, fmt.Errorf("failed to unmarshal tags: %w", err)
		}
	}
	return &doc, nil
}

const documentColumns = `id, user_id, name, content, summary, ai_category, tags, file_size, mime_type, is_favorite, created_at, updated_at`

// GetDocument returns a document by ID.
func (s *SQLiteStore) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = ?`, id)
	doc, err := scanDocument(row.Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("document not found: %s", id)
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// GetDocuments returns a user's documents, newest first, optionally narrowed by filter.
func (s *SQLiteStore) GetDocuments(ctx context.Context, userID string, filter *DocumentFilter) ([]*models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE user_id = ?`
	args := []any{userID}
	if filter != nil {
		if len(filter.DocumentIDs) > 0 {
			query += ` AND id IN (` + placeholders(len(filter.DocumentIDs)) + `)`
			for _, id := range filter.DocumentIDs {
				args = append(args, id)
			}
		}
		if filter.Category != "" {
			query += ` AND ai_category = ?`
			args = append(args, filter.Category)
		}
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*models.Document
	for rows.Next() {
		doc, err := scanDocument(rows.Scan)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// GetChunksForUser returns every chunk (with embedding) belonging to the user's
// documents, ordered by document then chunk index. When documentIDs is non-empty
// the read is restricted to those documents, so cost stays proportional to the
// restricted set.
func (s *SQLiteStore) GetChunksForUser(ctx context.Context, userID string, documentIDs []string) ([]*models.Chunk, error) {
	query := `SELECT c.id, c.document_id, c.chunk_index, c.total_chunks, c.content, c.embedding, c.created_at
		 FROM chunks c JOIN documents d ON c.document_id = d.id
		 WHERE d.user_id = ?`
	args := []any{userID}
	if len(documentIDs) > 0 {
		query += ` AND c.document_id IN (` + placeholders(len(documentIDs)) + `)`
		for _, id := range documentIDs {
			args = append(args, id)
		}
	}
	query += ` ORDER BY c.document_id, c.chunk_index`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []*models.Chunk
	for rows.Next() {
		var chunk models.Chunk
		var emb []byte
		if err := rows.Scan(&chunk.ID, &chunk.DocumentID, &chunk.ChunkIndex, &chunk.TotalChunks,
			&chunk.Content, &emb, &chunk.CreatedAt); err != nil {
			return nil, err
		}
		chunk.Embedding = bytesToEmbedding(emb)
		chunks = append(chunks, &chunk)
	}
	return chunks, rows.Err()
}

// BatchCreateChunks inserts multiple chunks in a transaction.
func (s *SQLiteStore) BatchCreateChunks(ctx context.Context, chunks []*models.Chunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO chunks (id, document_id, chunk_index, total_chunks, content, embedding, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now()
	for _, chunk := range chunks {
		chunk.CreatedAt = now
		if _, err := stmt.ExecContext(ctx, chunk.ID, chunk.DocumentID, chunk.ChunkIndex,
			chunk.TotalChunks, chunk.Content, embeddingToBytes(chunk.Embedding), chunk.CreatedAt); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// DeleteDocument removes a document and its chunks.
func (s *SQLiteStore) DeleteDocument(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE document_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

// CountDocuments returns the total number of documents.
func (s *SQLiteStore) CountDocuments(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&count)
	return count, err
}

// CountChunks returns the total number of chunks.
func (s *SQLiteStore) CountChunks(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
