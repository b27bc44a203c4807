package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/thaidocs/sarabun/internal/config"
	"github.com/thaidocs/sarabun/internal/embedding"
	"github.com/thaidocs/sarabun/internal/ingest"
	"github.com/thaidocs/sarabun/internal/models"
	"github.com/thaidocs/sarabun/internal/search"
	"github.com/thaidocs/sarabun/internal/store"
)

// newTestServer wires real components over an in-memory database. embedder may
// be nil to simulate the unconfigured-provider state.
func newTestServer(t *testing.T, embedder embedding.Embedder) (*Server, *httptest.Server) {
	t.Helper()
	st, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("store failed: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Search.Boost.Terms = []string{"xolo"}

	logger := zap.NewNop()
	engine := search.NewEngine(st, embedder, cfg.Search, search.WithLogger(logger))
	ingestor := ingest.NewIngestor(st, embedder, ingest.NewChunker(cfg.Search.ChunkSize, cfg.Search.ChunkOverlap), ingest.WithLogger(logger))
	srv := NewServer(engine, ingestor, st, cfg, logger)

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return srv, ts
}

func ingestTestDocument(t *testing.T, ts *httptest.Server, userID, name, content string) string {
	t.Helper()
	body, _ := json.Marshal(models.DocumentInput{UserID: userID, Name: name, Content: content})
	resp, err := http.Post(ts.URL+"/api/v1/documents", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("ingest request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var out map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode ingest response: %v", err)
	}
	return out["id"]
}

func TestSearchEndpointKeyword(t *testing.T) {
	_, ts := newTestServer(t, nil)
	ingestTestDocument(t, ts, "u1", "stores", "the XOLO store opened downtown")
	ingestTestDocument(t, ts, "u1", "budget", "annual budget figures")

	body, _ := json.Marshal(map[string]interface{}{
		"query":       "xolo",
		"user_id":     "u1",
		"search_type": "keyword",
	})
	resp, err := http.Post(ts.URL+"/api/v1/search", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("search request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var result models.ResultList
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.Kind != models.KindRanked {
		t.Errorf("expected ranked kind, got %s", result.Kind)
	}
	if len(result.Items) != 1 || result.Items[0].Name != "stores" {
		t.Errorf("expected only the xolo document, got %v", result.Items)
	}
}

func TestSearchEndpointHybrid(t *testing.T) {
	_, ts := newTestServer(t, embedding.NewMockEmbedder(8))
	ingestTestDocument(t, ts, "u1", "stores", "the XOLO store opened downtown")

	body, _ := json.Marshal(map[string]interface{}{
		"query":       "xolo",
		"user_id":     "u1",
		"search_type": "hybrid",
	})
	resp, err := http.Post(ts.URL+"/api/v1/search", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("search request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var result models.ResultList
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	// The exact boosted keyword hit lowers the threshold, so the document is
	// retained regardless of what the mock embeddings score.
	if len(result.Items) != 1 {
		t.Fatalf("expected 1 result, got %d", len(result.Items))
	}
}

func TestSearchEndpointNoProvider(t *testing.T) {
	_, ts := newTestServer(t, nil)
	body, _ := json.Marshal(map[string]interface{}{
		"query":       "anything",
		"user_id":     "u1",
		"search_type": "semantic",
	})
	resp, err := http.Post(ts.URL+"/api/v1/search", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("search request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
	var out map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if out["error"] != "no_embedding_provider" {
		t.Errorf("expected no_embedding_provider class, got %q", out["error"])
	}
}

func TestSearchEndpointEmptyQueryListing(t *testing.T) {
	_, ts := newTestServer(t, nil)
	ingestTestDocument(t, ts, "u1", "a", "first document body")
	ingestTestDocument(t, ts, "u1", "b", "second document body")

	body, _ := json.Marshal(map[string]interface{}{
		"query":       "",
		"user_id":     "u1",
		"search_type": "hybrid",
	})
	resp, err := http.Post(ts.URL+"/api/v1/search", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("search request failed: %v", err)
	}
	defer resp.Body.Close()
	var result models.ResultList
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.Kind != models.KindListing {
		t.Errorf("expected listing kind, got %s", result.Kind)
	}
	if len(result.Items) != 2 {
		t.Errorf("expected 2 documents, got %d", len(result.Items))
	}
}

func TestSearchEndpointMissingUser(t *testing.T) {
	_, ts := newTestServer(t, nil)
	resp, err := http.Post(ts.URL+"/api/v1/search", "application/json", bytes.NewReader([]byte(`{"query":"x"}`)))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

func TestDocumentLifecycle(t *testing.T) {
	_, ts := newTestServer(t, nil)
	id := ingestTestDocument(t, ts, "u1", "contract", "a contract body")

	resp, err := http.Get(ts.URL + "/api/v1/documents/" + id)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/v1/documents/"+id, nil)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	resp, err = http.Get(ts.URL + "/api/v1/documents/" + id)
	if err != nil {
		t.Fatalf("get after delete failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", resp.StatusCode)
	}
}

func TestStatusEndpoint(t *testing.T) {
	_, ts := newTestServer(t, nil)
	ingestTestDocument(t, ts, "u1", "doc", "some content for counting")

	resp, err := http.Get(ts.URL + "/api/v1/status")
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var out struct {
		Documents int64 `json:"documents"`
		Chunks    int64 `json:"chunks"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if out.Documents != 1 || out.Chunks < 1 {
		t.Errorf("unexpected counts: %d docs, %d chunks", out.Documents, out.Chunks)
	}
}

func TestHealthEndpoint(t *testing.T) {
	_, ts := newTestServer(t, nil)
	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("health failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}
