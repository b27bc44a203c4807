package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/thaidocs/sarabun/internal/models"
	"github.com/thaidocs/sarabun/internal/search"
	"github.com/thaidocs/sarabun/internal/store"
)

type searchRequest struct {
	Query  string `json:"query"`
	UserID string `json:"user_id"`
	models.SearchOptions
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	if req.UserID == "" {
		s.respondError(w, http.StatusBadRequest, "bad_request", "user_id is required")
		return
	}
	s.logger.Debug("search request",
		zap.String("user_id", req.UserID),
		zap.String("type", string(req.SearchType)),
		zap.Int("limit", req.Limit))
	response, err := s.engine.Search(r.Context(), req.Query, req.UserID, req.SearchOptions)
	if err != nil {
		s.respondSearchError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

// respondSearchError maps the search error taxonomy to HTTP statuses and a
// machine-readable error class, so callers can tell "no embedding provider"
// apart from a transient outage.
func (s *Server) respondSearchError(w http.ResponseWriter, err error) {
	s.logger.Error("search failed", zap.Error(err))
	switch {
	case errors.Is(err, search.ErrNoEmbeddingProvider):
		s.respondError(w, http.StatusUnprocessableEntity, "no_embedding_provider", err.Error())
	case errors.Is(err, search.ErrStaleEmbeddings):
		s.respondError(w, http.StatusUnprocessableEntity, "stale_embeddings", err.Error())
	case errors.Is(err, search.ErrEmbeddingProvider):
		s.respondError(w, http.StatusServiceUnavailable, "embedding_provider", err.Error())
	case errors.Is(err, search.ErrChunkStoreUnavailable):
		s.respondError(w, http.StatusServiceUnavailable, "chunk_store_unavailable", err.Error())
	default:
		s.respondError(w, http.StatusInternalServerError, "search_failed", err.Error())
	}
}

func (s *Server) handleIngestDocument(w http.ResponseWriter, r *http.Request) {
	var input models.DocumentInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.respondError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	s.logger.Debug("ingest document request", zap.String("name", input.Name), zap.String("user_id", input.UserID))
	doc, err := s.ingestor.IngestDocument(r.Context(), input)
	if err != nil {
		s.logger.Error("ingestion failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "ingest_failed", err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]string{"id": doc.ID, "status": "ingested"})
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		s.respondError(w, http.StatusBadRequest, "bad_request", "user_id is required")
		return
	}
	var filter *store.DocumentFilter
	if category := r.URL.Query().Get("category"); category != "" {
		filter = &store.DocumentFilter{Category: category}
	}
	docs, err := s.store.GetDocuments(r.Context(), userID, filter)
	if err != nil {
		s.logger.Error("list documents failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "list_failed", err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"documents": docs})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	doc, err := s.store.GetDocument(r.Context(), id)
	if err != nil {
		s.respondError(w, http.StatusNotFound, "not_found", "document not found")
		return
	}
	s.respondJSON(w, http.StatusOK, doc)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.logger.Debug("delete document request", zap.String("id", id))
	if err := s.ingestor.DeleteDocument(r.Context(), id); err != nil {
		s.logger.Error("deletion failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "delete_failed", err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	docCount, err := s.store.CountDocuments(ctx)
	if err != nil {
		s.logger.Error("status: count documents failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "status_failed", err.Error())
		return
	}
	chunkCount, err := s.store.CountChunks(ctx)
	if err != nil {
		s.logger.Error("status: count chunks failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "status_failed", err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"documents": docCount,
		"chunks":    chunkCount,
		"config": map[string]interface{}{
			"embedding_model":      s.config.Embedding.Model,
			"embedding_dimensions": s.config.Embedding.Dimensions,
			"chunk_size":           s.config.Search.ChunkSize,
			"chunk_overlap":        s.config.Search.ChunkOverlap,
			"default_threshold":    s.config.Search.DefaultThreshold,
			"keyword_weight":       s.config.Search.KeywordWeight,
			"vector_weight":        s.config.Search.VectorWeight,
			"database_path":        s.config.Storage.DatabasePath,
		},
	})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, class, message string) {
	s.respondJSON(w, status, map[string]string{"error": class, "message": message})
}
