package qdrant

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/lexbridge/lexbridge-backend/internal/platform/logger"
)

func testLogger() *logger.Logger {
	return &logger.Logger{SugaredLogger: zap.NewNop().Sugar()}
}

// stubQdrant serves the ready check, the collection info probe, and a
// configurable search response.
func stubQdrant(t *testing.T, dim int, searchHandler http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/collections/legal_chunks", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"result": map[string]any{
				"config": map[string]any{
					"params": map[string]any{
						"vectors": map[string]any{"size": dim, "distance": "Cosine"},
					},
				},
			},
			"status": "ok",
		})
	})
	if searchHandler != nil {
		mux.HandleFunc("/collections/legal_chunks/points/search", searchHandler)
	}
	return httptest.NewServer(mux)
}

func newTestStore(t *testing.T, srv *httptest.Server, dim int) VectorStore {
	t.Helper()
	store, err := NewVectorStore(testLogger(), Config{
		URL:        srv.URL,
		Collection: "legal_chunks",
		VectorDim:  dim,
	})
	if err != nil {
		t.Fatalf("NewVectorStore: %v", err)
	}
	return store
}

func TestSearchDecodesAndNormalizes(t *testing.T) {
	srv := stubQdrant(t, 3, func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode search request: %v", err)
		}
		if req["with_payload"] != true {
			t.Error("search must request payloads")
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"result": []map[string]any{
				{"id": "chunk-a", "score": 0.8, "payload": map[string]any{"text": "Art. 5"}},
				{"id": 42, "score": 0.2, "payload": map[string]any{}},
				{"id": nil, "score": 0.9},
			},
			"status": "ok",
		})
	})
	defer srv.Close()

	store := newTestStore(t, srv, 3)
	matches, err := store.Search(context.Background(), []float32{0.1, 0.2, 0.3}, 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("got %d matches, want 2 (nil id dropped)", len(matches))
	}
	if matches[0].ChunkID != "chunk-a" || matches[0].Text != "Art. 5" {
		t.Errorf("matches[0] = %+v", matches[0])
	}
	// Cosine score 0.8 rescales to (0.8+1)/2 = 0.9.
	if math.Abs(matches[0].Similarity-0.9) > 1e-9 {
		t.Errorf("Similarity = %v, want 0.9", matches[0].Similarity)
	}
	if matches[1].ChunkID != "42" {
		t.Errorf("numeric point ids are stringified, got %q", matches[1].ChunkID)
	}
}

func TestSearchRejectsDimensionMismatch(t *testing.T) {
	srv := stubQdrant(t, 3, nil)
	defer srv.Close()

	store := newTestStore(t, srv, 3)
	_, err := store.Search(context.Background(), []float32{0.1}, 10)
	var opErr *OperationError
	if !errors.As(err, &opErr) || opErr.Code != OperationErrorValidation {
		t.Fatalf("want validation OperationError, got %v", err)
	}
}

func TestSearchSurfacesEnvelopeError(t *testing.T) {
	srv := stubQdrant(t, 3, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": map[string]any{"error": "collection segment fault"},
		})
	})
	defer srv.Close()

	store := newTestStore(t, srv, 3)
	_, err := store.Search(context.Background(), []float32{0.1, 0.2, 0.3}, 10)
	var opErr *OperationError
	if !errors.As(err, &opErr) || opErr.Code != OperationErrorQueryFailed {
		t.Fatalf("want query_failed OperationError, got %v", err)
	}
}

func TestNewVectorStoreRejectsDimensionDrift(t *testing.T) {
	srv := stubQdrant(t, 768, nil)
	defer srv.Close()

	_, err := NewVectorStore(testLogger(), Config{
		URL:        srv.URL,
		Collection: "legal_chunks",
		VectorDim:  1536,
	})
	var opErr *OperationError
	if !errors.As(err, &opErr) || opErr.Code != OperationErrorValidation {
		t.Fatalf("collection size drift must fail bootstrap, got %v", err)
	}
}

func TestUpsertValidation(t *testing.T) {
	srv := stubQdrant(t, 3, nil)
	defer srv.Close()

	store := newTestStore(t, srv, 3)
	err := store.Upsert(context.Background(), []Vector{{ID: "", Values: []float32{1, 2, 3}}})
	var opErr *OperationError
	if !errors.As(err, &opErr) || opErr.Code != OperationErrorValidation {
		t.Fatalf("want validation error for empty id, got %v", err)
	}
	if err := store.Upsert(context.Background(), nil); err != nil {
		t.Fatalf("empty upsert is a no-op, got %v", err)
	}
}

func TestDeleteIDsSkipsEmptyBatch(t *testing.T) {
	srv := stubQdrant(t, 3, nil)
	defer srv.Close()

	store := newTestStore(t, srv, 3)
	// Blank and duplicate ids collapse to nothing; no delete call is made
	// (the stub would 404 on the delete path).
	if err := store.DeleteIDs(context.Background(), []string{"", "  "}); err != nil {
		t.Fatalf("DeleteIDs: %v", err)
	}
}

func TestNormalizeScoreBounds(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{1, 1},
		{-1, 0},
		{0, 0.5},
		{3, 1},
		{-3, 0},
	}
	for _, c := range cases {
		if got := normalizeScore(c.in); math.Abs(got-c.want) > 1e-9 {
			t.Errorf("normalizeScore(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}
