package graph

import (
	"context"

	"github.com/lexbridge/lexbridge-backend/internal/domain"
)

// Record is one row of a generic parametrized query. Typed accessors exist
// for the shapes the engine itself consumes (ScoredNode, Path, SourceNode);
// Record is only the passthrough surface.
type Record map[string]any

// ScoredNode is a node reached by a weighted traversal. Score is
// 1/(hops+1) scaled by the weight of the last edge traversed into the node,
// maximized over all qualifying paths.
type ScoredNode struct {
	URN   string  `json:"urn"`
	Label string  `json:"label,omitempty"`
	Score float64 `json:"score"`
	Hops  int     `json:"hops"`
}

// Path is a shortest-path result. Tie order between equally short paths is
// store-dependent; callers must not rely on it across calls.
type Path struct {
	NodeURNs []string `json:"node_urns"`
	Length   int      `json:"length"`
}

// SourceNode is a resolved citation target.
type SourceNode struct {
	URN   string `json:"urn"`
	Label string `json:"label,omitempty"`
	Name  string `json:"name,omitempty"`
}

// LegalGraph is the traversal contract over the legal property graph.
// Connectivity failures return an error and an empty result; the retriever
// treats that as "no graph signal", never as a failed retrieval.
type LegalGraph interface {
	// Query is a generic parametrized passthrough. No business logic.
	Query(ctx context.Context, statement string, params map[string]any) ([]Record, error)

	// ShortestPath returns the shortest path between two URNs bounded by
	// maxHops, or domain.ErrNotFound when none exists within the bound.
	ShortestPath(ctx context.Context, startURN, endURN string, maxHops int) (*Path, error)

	// Traverse expands outward from startURN following only edge kinds
	// present in the profile's weight map. The weight map is a traversal
	// filter, not just a scoring multiplier: an absent edge kind changes
	// reachability. Results are sorted by score descending and truncated
	// to limit; nodes unreachable within maxDepth are absent, not zero.
	Traverse(ctx context.Context, startURN string, profile domain.WeightProfile, maxDepth, limit int) ([]ScoredNode, error)

	// ResolveSource resolves a claimed source id by exact URN, by display
	// name or canonical citation string, then by a normalized
	// article-number fallback. domain.ErrNotFound when nothing matches.
	ResolveSource(ctx context.Context, id string) (*SourceNode, error)

	HealthCheck(ctx context.Context) bool
}
