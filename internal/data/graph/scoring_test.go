package graph

import (
	"math"
	"testing"
)

func TestScorePathRowsLastEdgeDecay(t *testing.T) {
	weights := map[string]float64{
		"contained_in":   0.8,
		"interpreted_by": 0.6,
	}

	rows := []pathRow{
		{URN: "urn:lex:concept:y", LastRel: "CONTAINED_IN", Hops: 1},
		{URN: "urn:lex:concept:z", LastRel: "INTERPRETED_BY", Hops: 2},
	}
	scored := scorePathRows(rows, weights)
	if len(scored) != 2 {
		t.Fatalf("expected 2 scored nodes, got %d", len(scored))
	}

	// Depth-1 path over a 0.8 edge: (1/(1+1)) * 0.8 = 0.4.
	if math.Abs(scored[0].Score-0.4) > 1e-9 {
		t.Fatalf("depth-1 score: got %f want 0.4", scored[0].Score)
	}
	// Depth-2 path over a 0.6 edge: (1/3) * 0.6 = 0.2.
	if math.Abs(scored[1].Score-0.2) > 1e-9 {
		t.Fatalf("depth-2 score: got %f want 0.2", scored[1].Score)
	}
}

func TestScorePathRowsMaxOverPaths(t *testing.T) {
	weights := map[string]float64{"relates_to": 0.5, "defines": 1.0}
	rows := []pathRow{
		{URN: "urn:lex:norm:a", LastRel: "RELATES_TO", Hops: 3},
		{URN: "urn:lex:norm:a", LastRel: "DEFINES", Hops: 1},
		{URN: "urn:lex:norm:a", LastRel: "RELATES_TO", Hops: 1},
	}
	scored := scorePathRows(rows, weights)
	if len(scored) != 1 {
		t.Fatalf("expected dedup to 1 node, got %d", len(scored))
	}
	// Best path wins: (1/2) * 1.0 = 0.5 via the defines edge.
	if math.Abs(scored[0].Score-0.5) > 1e-9 {
		t.Fatalf("max-over-paths score: got %f want 0.5", scored[0].Score)
	}
	if scored[0].Hops != 1 {
		t.Fatalf("expected winning path hops 1, got %d", scored[0].Hops)
	}
}

func TestScorePathRowsUnweightedEdgeDropped(t *testing.T) {
	weights := map[string]float64{"contained_in": 0.8}
	rows := []pathRow{
		{URN: "urn:lex:doctrine:d", LastRel: "COMMENTED_BY", Hops: 1},
	}
	if scored := scorePathRows(rows, weights); len(scored) != 0 {
		t.Fatalf("node reached only via an unweighted edge must be absent, got %+v", scored)
	}
}

func TestRelTypeUnion(t *testing.T) {
	union := relTypeUnion(map[string]float64{
		"contained_in": 0.8,
		"part_of":      0.5,
	})
	if union != "CONTAINED_IN|PART_OF" {
		t.Fatalf("union: got %q", union)
	}

	// Injection-shaped and non-positive kinds are dropped, not interpolated.
	union = relTypeUnion(map[string]float64{
		"cites]->() MATCH (m) RETURN m //": 0.9,
		"applies":                          0,
	})
	if union != "" {
		t.Fatalf("expected empty union for invalid kinds, got %q", union)
	}
}

func TestNormalizeArticleRef(t *testing.T) {
	cases := map[string]string{
		"Article 432":        "432",
		"art. 432.1 GK":      "432.1",
		"432":                "432",
		"urn:lex:norm:x:432": "",
		"good faith":         "",
	}
	for in, want := range cases {
		if got := normalizeArticleRef(in); got != want {
			t.Fatalf("normalizeArticleRef(%q): got %q want %q", in, got, want)
		}
	}
}
