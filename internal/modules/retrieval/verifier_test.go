package retrieval

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/lexbridge/lexbridge-backend/internal/data/graph"
	"github.com/lexbridge/lexbridge-backend/internal/domain"
)

func newTestVerifier(g *fakeGraph, bridge *fakeBridge) *SourceVerifier {
	return NewSourceVerifier(testLogger(), g, bridge, 4)
}

func TestVerifyGroundedSource(t *testing.T) {
	g := &fakeGraph{sources: map[string]*graph.SourceNode{
		"urn:lex:norm-5": {URN: "urn:lex:norm-5", Label: domain.NodeTypeNorm, Name: "Art. 5"},
	}}
	bridge := &fakeBridge{chunksByNode: map[string][]string{
		"urn:lex:norm-5": {"c1", "c2", "c3"},
	}}

	outcomes := newTestVerifier(g, bridge).Verify(context.Background(), []string{"urn:lex:norm-5"}, true, nil)
	out := outcomes["urn:lex:norm-5"]
	if !out.Exists || !out.Verified {
		t.Fatalf("fully grounded source should verify: %+v", out)
	}
	if out.ChunkCount != 3 {
		t.Errorf("ChunkCount = %d, want 3", out.ChunkCount)
	}
	if math.Abs(out.Confidence-1.0) > 1e-9 {
		t.Errorf("Confidence = %v, want 1.0 (0.5 + 0.3 + 0.3 capped)", out.Confidence)
	}
	if out.NodeType != domain.NodeTypeNorm {
		t.Errorf("NodeType = %q, want Norm", out.NodeType)
	}
}

func TestVerifyUnknownSource(t *testing.T) {
	outcomes := newTestVerifier(&fakeGraph{}, &fakeBridge{}).Verify(context.Background(), []string{"Art. 999"}, true, nil)
	out := outcomes["Art. 999"]
	if out.Exists || out.Verified {
		t.Fatalf("unknown source must not verify: %+v", out)
	}
	if out.Confidence != 0 {
		t.Errorf("Confidence = %v, want 0", out.Confidence)
	}
	if out.Note == "" {
		t.Error("expected a note explaining the failure")
	}
}

func TestVerifyStrictRequiresChunks(t *testing.T) {
	g := &fakeGraph{sources: map[string]*graph.SourceNode{
		"urn:lex:doctrine-1": {URN: "urn:lex:doctrine-1", Label: domain.NodeTypeDoctrine},
	}}
	bridge := &fakeBridge{} // node exists, nothing bridged

	v := newTestVerifier(g, bridge)

	strictOut := v.Verify(context.Background(), []string{"urn:lex:doctrine-1"}, true, nil)["urn:lex:doctrine-1"]
	if !strictOut.Exists {
		t.Fatalf("node exists in graph: %+v", strictOut)
	}
	if strictOut.Verified {
		t.Error("strict mode must not verify a source with zero bridged chunks")
	}
	if math.Abs(strictOut.Confidence-0.5) > 1e-9 {
		t.Errorf("Confidence = %v, want 0.5 for graph-only existence", strictOut.Confidence)
	}

	lenientOut := v.Verify(context.Background(), []string{"urn:lex:doctrine-1"}, false, nil)["urn:lex:doctrine-1"]
	if !lenientOut.Verified {
		t.Error("non-strict mode should verify on graph existence alone")
	}
}

func TestVerifySingleChunkConfidence(t *testing.T) {
	g := &fakeGraph{sources: map[string]*graph.SourceNode{
		"urn:lex:norm-1": {URN: "urn:lex:norm-1", Label: domain.NodeTypeNorm},
	}}
	bridge := &fakeBridge{chunksByNode: map[string][]string{"urn:lex:norm-1": {"c1"}}}

	out := newTestVerifier(g, bridge).Verify(context.Background(), []string{"urn:lex:norm-1"}, true, nil)["urn:lex:norm-1"]
	if !out.Verified {
		t.Fatalf("one bridged chunk satisfies strict mode: %+v", out)
	}
	if math.Abs(out.Confidence-0.8) > 1e-9 {
		t.Errorf("Confidence = %v, want 0.8", out.Confidence)
	}
}

func TestVerifyNodeTypeFilter(t *testing.T) {
	g := &fakeGraph{sources: map[string]*graph.SourceNode{
		"urn:lex:act-1": {URN: "urn:lex:act-1", Label: domain.NodeTypeJudicialAct},
	}}
	bridge := &fakeBridge{chunksByNode: map[string][]string{"urn:lex:act-1": {"c1"}}}

	out := newTestVerifier(g, bridge).Verify(
		context.Background(),
		[]string{"urn:lex:act-1"},
		true,
		[]string{domain.NodeTypeNorm, domain.NodeTypeConcept},
	)["urn:lex:act-1"]

	if !out.Exists {
		t.Fatalf("filtered source still exists: %+v", out)
	}
	if out.Verified {
		t.Error("source outside the node type filter must not verify")
	}
	if out.Note == "" {
		t.Error("expected a note naming the filter exclusion")
	}
}

func TestVerifyBridgeFailureFailsClosed(t *testing.T) {
	g := &fakeGraph{sources: map[string]*graph.SourceNode{
		"urn:lex:norm-1": {URN: "urn:lex:norm-1", Label: domain.NodeTypeNorm},
	}}
	bridge := &fakeBridge{err: errors.New("postgres down")}

	out := newTestVerifier(g, bridge).Verify(context.Background(), []string{"urn:lex:norm-1"}, false, nil)["urn:lex:norm-1"]
	if out.Exists || out.Verified {
		t.Fatalf("bridge failure must fail closed: %+v", out)
	}
	if out.Confidence != 0 {
		t.Errorf("Confidence = %v, want 0", out.Confidence)
	}
	if out.Note == "" {
		t.Error("expected a note recording the bridge failure")
	}
}

func TestVerifyBatchAndDuplicates(t *testing.T) {
	g := &fakeGraph{sources: map[string]*graph.SourceNode{
		"urn:lex:norm-1": {URN: "urn:lex:norm-1", Label: domain.NodeTypeNorm},
	}}
	bridge := &fakeBridge{chunksByNode: map[string][]string{"urn:lex:norm-1": {"c1"}}}

	ids := []string{"urn:lex:norm-1", "missing", "urn:lex:norm-1"}
	outcomes := newTestVerifier(g, bridge).Verify(context.Background(), ids, true, nil)
	if len(outcomes) != 2 {
		t.Fatalf("got %d outcomes, want 2 (duplicates collapse)", len(outcomes))
	}
	if !outcomes["urn:lex:norm-1"].Verified {
		t.Error("known source should verify")
	}
	if outcomes["missing"].Verified {
		t.Error("missing source must not verify")
	}
}
