package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lexbridge/lexbridge-backend/internal/data/graph"
	"github.com/lexbridge/lexbridge-backend/internal/domain"
	httpx "github.com/lexbridge/lexbridge-backend/internal/http"
	httpH "github.com/lexbridge/lexbridge-backend/internal/http/handlers"
	"github.com/lexbridge/lexbridge-backend/internal/modules/retrieval"
	"github.com/lexbridge/lexbridge-backend/internal/platform/dbctx"
	"github.com/lexbridge/lexbridge-backend/internal/platform/logger"
	"github.com/lexbridge/lexbridge-backend/internal/platform/qdrant"
)

func testLogger() *logger.Logger {
	return &logger.Logger{SugaredLogger: zap.NewNop().Sugar()}
}

type stubVec struct {
	matches []qdrant.ChunkMatch
}

func (s *stubVec) Search(context.Context, []float32, int) ([]qdrant.ChunkMatch, error) {
	return s.matches, nil
}
func (s *stubVec) Upsert(context.Context, []qdrant.Vector) error { return nil }
func (s *stubVec) DeleteIDs(context.Context, []string) error     { return nil }
func (s *stubVec) HealthCheck(context.Context) bool              { return true }

type stubBridge struct {
	chunksByNode map[string][]string
}

func (s *stubBridge) Add(dbctx.Context, *domain.BridgeEntry) (uuid.UUID, error) {
	return uuid.Nil, nil
}
func (s *stubBridge) AddBatch(dbctx.Context, []*domain.BridgeEntry) (int, error) { return 0, nil }
func (s *stubBridge) NodesForChunk(dbctx.Context, string, string) ([]*domain.BridgeEntry, error) {
	return nil, nil
}
func (s *stubBridge) ChunksForNode(_ dbctx.Context, urn string) ([]*domain.BridgeEntry, error) {
	out := make([]*domain.BridgeEntry, 0, len(s.chunksByNode[urn]))
	for _, id := range s.chunksByNode[urn] {
		out = append(out, &domain.BridgeEntry{ChunkID: id, GraphNodeURN: urn, Confidence: 1})
	}
	return out, nil
}
func (s *stubBridge) DeleteForChunk(dbctx.Context, string) (int64, error) { return 0, nil }
func (s *stubBridge) HealthCheck(context.Context) bool                    { return true }

type stubGraph struct {
	sources map[string]*graph.SourceNode
}

func (s *stubGraph) Query(context.Context, string, map[string]any) ([]graph.Record, error) {
	return nil, nil
}
func (s *stubGraph) ShortestPath(context.Context, string, string, int) (*graph.Path, error) {
	return nil, domain.ErrNotFound
}
func (s *stubGraph) Traverse(context.Context, string, domain.WeightProfile, int, int) ([]graph.ScoredNode, error) {
	return nil, nil
}
func (s *stubGraph) ResolveSource(_ context.Context, id string) (*graph.SourceNode, error) {
	if n, ok := s.sources[id]; ok {
		return n, nil
	}
	return nil, domain.ErrNotFound
}
func (s *stubGraph) HealthCheck(context.Context) bool { return true }

func newTestRouter(vec qdrant.VectorStore, bridge *stubBridge, g *stubGraph) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := testLogger()
	retriever := retrieval.NewHybridRetriever(log, vec, bridge, g, retrieval.NewBlendState(0.7), retrieval.Config{})
	verifier := retrieval.NewSourceVerifier(log, g, bridge, 4)
	return httpx.NewRouter(httpx.RouterConfig{
		Log:              log,
		RetrievalHandler: httpH.NewRetrievalHandler(log, retriever, retrieval.BuiltinProfiles()),
		VerifyHandler:    httpH.NewVerifyHandler(log, verifier),
		FeedbackHandler:  httpH.NewFeedbackHandler(log, retriever),
	})
}

func postJSON(t *testing.T, router *gin.Engine, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRetrieveEndpoint(t *testing.T) {
	vec := &stubVec{matches: []qdrant.ChunkMatch{
		{ChunkID: "chunk-a", Text: "Art. 5", Similarity: 0.9},
	}}
	router := newTestRouter(vec, &stubBridge{}, &stubGraph{})

	rec := postJSON(t, router, "/api/v1/retrieve", map[string]any{
		"embedding": []float32{0.1, 0.2},
		"top_k":     5,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Results []domain.RetrievalResult `json:"results"`
		Alpha   float64                  `json:"alpha"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 1 || resp.Results[0].ChunkID != "chunk-a" {
		t.Errorf("results = %+v", resp.Results)
	}
	if resp.Alpha != 0.7 {
		t.Errorf("alpha = %v, want 0.7", resp.Alpha)
	}
}

func TestRetrieveEndpointValidation(t *testing.T) {
	router := newTestRouter(&stubVec{}, &stubBridge{}, &stubGraph{})

	rec := postJSON(t, router, "/api/v1/retrieve", map[string]any{"top_k": 5})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing embedding: status = %d, want 400", rec.Code)
	}

	rec = postJSON(t, router, "/api/v1/retrieve", map[string]any{
		"embedding": []float32{0.1},
		"profile":   "astrological",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown profile: status = %d, want 400", rec.Code)
	}
}

func TestVerifyEndpoint(t *testing.T) {
	g := &stubGraph{sources: map[string]*graph.SourceNode{
		"urn:lex:norm-5": {URN: "urn:lex:norm-5", Label: domain.NodeTypeNorm},
	}}
	bridge := &stubBridge{chunksByNode: map[string][]string{
		"urn:lex:norm-5": {"c1", "c2", "c3"},
	}}
	router := newTestRouter(&stubVec{}, bridge, g)

	rec := postJSON(t, router, "/api/v1/verify", map[string]any{
		"source_ids": []string{"urn:lex:norm-5", "Art. 999"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Outcomes map[string]domain.VerificationOutcome `json:"outcomes"`
		Strict   bool                                  `json:"strict"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Strict {
		t.Error("strict should default to true")
	}
	if !resp.Outcomes["urn:lex:norm-5"].Verified {
		t.Errorf("grounded source should verify: %+v", resp.Outcomes["urn:lex:norm-5"])
	}
	if resp.Outcomes["Art. 999"].Verified {
		t.Errorf("unknown source must not verify: %+v", resp.Outcomes["Art. 999"])
	}
}

func TestVerifyEndpointValidation(t *testing.T) {
	router := newTestRouter(&stubVec{}, &stubBridge{}, &stubGraph{})
	rec := postJSON(t, router, "/api/v1/verify", map[string]any{"source_ids": []string{}})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty source_ids: status = %d, want 400", rec.Code)
	}
}

func TestAlphaFeedbackEndpoint(t *testing.T) {
	router := newTestRouter(&stubVec{}, &stubBridge{}, &stubGraph{})

	rec := postJSON(t, router, "/api/v1/feedback/alpha", map[string]any{
		"correlation": 0.9,
		"authority":   1.0,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Alpha float64 `json:"alpha"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Alpha >= 0.7 {
		t.Errorf("high correlation should lower alpha, got %v", resp.Alpha)
	}

	rec = postJSON(t, router, "/api/v1/feedback/alpha", map[string]any{"authority": 1.0})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing correlation: status = %d, want 400", rec.Code)
	}
}
