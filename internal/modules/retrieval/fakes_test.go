package retrieval

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lexbridge/lexbridge-backend/internal/data/graph"
	"github.com/lexbridge/lexbridge-backend/internal/domain"
	"github.com/lexbridge/lexbridge-backend/internal/platform/dbctx"
	"github.com/lexbridge/lexbridge-backend/internal/platform/logger"
	"github.com/lexbridge/lexbridge-backend/internal/platform/qdrant"
)

func testLogger() *logger.Logger {
	return &logger.Logger{SugaredLogger: zap.NewNop().Sugar()}
}

type fakeVectorStore struct {
	matches []qdrant.ChunkMatch
	err     error
	calls   int
	lastTop int
	mu      sync.Mutex
}

func (f *fakeVectorStore) Search(_ context.Context, _ []float32, limit int) ([]qdrant.ChunkMatch, error) {
	f.mu.Lock()
	f.calls++
	f.lastTop = limit
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := f.matches
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeVectorStore) Upsert(context.Context, []qdrant.Vector) error { return nil }
func (f *fakeVectorStore) DeleteIDs(context.Context, []string) error    { return nil }
func (f *fakeVectorStore) HealthCheck(context.Context) bool             { return f.err == nil }

type fakeBridge struct {
	// nodesByChunk maps chunk id to linked graph node URNs.
	nodesByChunk map[string][]string
	// chunksByNode maps graph node URN to bridged chunk ids.
	chunksByNode map[string][]string
	err          error
}

func (f *fakeBridge) Add(dbctx.Context, *domain.BridgeEntry) (uuid.UUID, error) {
	return uuid.Nil, nil
}

func (f *fakeBridge) AddBatch(dbctx.Context, []*domain.BridgeEntry) (int, error) { return 0, nil }

func (f *fakeBridge) NodesForChunk(_ dbctx.Context, chunkID, nodeType string) ([]*domain.BridgeEntry, error) {
	if f.err != nil {
		return nil, f.err
	}
	entries := make([]*domain.BridgeEntry, 0, len(f.nodesByChunk[chunkID]))
	for _, urn := range f.nodesByChunk[chunkID] {
		entries = append(entries, &domain.BridgeEntry{ChunkID: chunkID, GraphNodeURN: urn, Confidence: 1})
	}
	_ = nodeType
	return entries, nil
}

func (f *fakeBridge) ChunksForNode(_ dbctx.Context, graphNodeURN string) ([]*domain.BridgeEntry, error) {
	if f.err != nil {
		return nil, f.err
	}
	entries := make([]*domain.BridgeEntry, 0, len(f.chunksByNode[graphNodeURN]))
	for _, chunkID := range f.chunksByNode[graphNodeURN] {
		entries = append(entries, &domain.BridgeEntry{ChunkID: chunkID, GraphNodeURN: graphNodeURN, Confidence: 1})
	}
	return entries, nil
}

func (f *fakeBridge) DeleteForChunk(dbctx.Context, string) (int64, error) { return 0, nil }
func (f *fakeBridge) HealthCheck(context.Context) bool                    { return f.err == nil }

type fakeGraph struct {
	// traversals maps a start URN to the scored nodes its expansion yields.
	traversals map[string][]graph.ScoredNode
	// sources maps a source identifier to its resolved node.
	sources     map[string]*graph.SourceNode
	traverseErr error
	resolveErr  error
}

func (f *fakeGraph) Query(context.Context, string, map[string]any) ([]graph.Record, error) {
	return nil, nil
}

func (f *fakeGraph) ShortestPath(context.Context, string, string, int) (*graph.Path, error) {
	return nil, domain.ErrNotFound
}

func (f *fakeGraph) Traverse(_ context.Context, startURN string, _ domain.WeightProfile, _, _ int) ([]graph.ScoredNode, error) {
	if f.traverseErr != nil {
		return nil, f.traverseErr
	}
	return f.traversals[startURN], nil
}

func (f *fakeGraph) ResolveSource(_ context.Context, id string) (*graph.SourceNode, error) {
	if f.resolveErr != nil {
		return nil, f.resolveErr
	}
	if node, ok := f.sources[id]; ok {
		return node, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeGraph) HealthCheck(context.Context) bool { return true }
