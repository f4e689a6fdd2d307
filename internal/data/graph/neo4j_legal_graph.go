package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/lexbridge/lexbridge-backend/internal/domain"
	"github.com/lexbridge/lexbridge-backend/internal/platform/logger"
	"github.com/lexbridge/lexbridge-backend/internal/platform/neo4jdb"
)

const (
	maxTraversalDepth = 4
	maxTraversalLimit = 500
	maxShortestHops   = 10
)

type legalGraph struct {
	client *neo4jdb.Client
	log    *logger.Logger
}

func NewLegalGraph(client *neo4jdb.Client, baseLog *logger.Logger) LegalGraph {
	return &legalGraph{
		client: client,
		log:    baseLog.With("store", "Neo4jLegalGraph"),
	}
}

func (g *legalGraph) Query(ctx context.Context, statement string, params map[string]any) ([]Record, error) {
	if g == nil || g.client == nil || g.client.Driver == nil {
		return nil, fmt.Errorf("legal graph: %w", domain.ErrUnavailable)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	session := g.client.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: g.client.Database,
	})
	defer session.Close(ctx)

	rows, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, statement, params)
		if err != nil {
			return nil, err
		}
		out := []Record{}
		for res.Next(ctx) {
			out = append(out, Record(res.Record().AsMap()))
		}
		return out, res.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("legal graph query: %w", err)
	}
	return rows.([]Record), nil
}

func (g *legalGraph) ShortestPath(ctx context.Context, startURN, endURN string, maxHops int) (*Path, error) {
	if startURN == "" || endURN == "" {
		return nil, fmt.Errorf("shortest path: empty urn: %w", domain.ErrNotFound)
	}
	maxHops = clampInt(maxHops, 1, maxShortestHops)

	// Variable-length bounds cannot be query parameters in Cypher; the
	// bound is clamped above before interpolation.
	statement := fmt.Sprintf(`
MATCH (a {urn: $start}), (b {urn: $end}),
      p = shortestPath((a)-[*..%d]-(b))
RETURN [x IN nodes(p) | x.urn] AS urns, length(p) AS hops
LIMIT 1
`, maxHops)

	rows, err := g.Query(ctx, statement, map[string]any{
		"start": startURN,
		"end":   endURN,
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("shortest path %s -> %s within %d hops: %w", startURN, endURN, maxHops, domain.ErrNotFound)
	}

	row := rows[0]
	urns := []string{}
	if raw, ok := row["urns"].([]any); ok {
		for _, v := range raw {
			if s, ok := v.(string); ok && s != "" {
				urns = append(urns, s)
			}
		}
	}
	hops := 0
	if n, ok := row["hops"].(int64); ok {
		hops = int(n)
	}
	return &Path{NodeURNs: urns, Length: hops}, nil
}

func (g *legalGraph) Traverse(ctx context.Context, startURN string, profile domain.WeightProfile, maxDepth, limit int) ([]ScoredNode, error) {
	if startURN == "" {
		return []ScoredNode{}, nil
	}
	union := relTypeUnion(profile.Weights)
	if union == "" {
		// No followable edge kinds means no reachable nodes, by contract.
		return []ScoredNode{}, nil
	}
	maxDepth = clampInt(maxDepth, 1, maxTraversalDepth)
	limit = clampInt(limit, 1, maxTraversalLimit)

	// Raw rows are over-fetched relative to limit because several paths can
	// reach the same node; dedup and truncation happen after scoring.
	rowCap := limit * 8

	statement := fmt.Sprintf(`
MATCH p = (s {urn: $urn})-[:%s*1..%d]-(n)
WHERE n.urn IS NOT NULL AND n.urn <> $urn
RETURN n.urn AS urn,
       head(labels(n)) AS label,
       length(p) AS hops,
       type(last(relationships(p))) AS last_rel
LIMIT %d
`, union, maxDepth, rowCap)

	rows, err := g.Query(ctx, statement, map[string]any{"urn": startURN})
	if err != nil {
		return nil, err
	}

	pathRows := make([]pathRow, 0, len(rows))
	for _, row := range rows {
		pr := pathRow{}
		if s, ok := row["urn"].(string); ok {
			pr.URN = s
		}
		if s, ok := row["label"].(string); ok {
			pr.Label = s
		}
		if s, ok := row["last_rel"].(string); ok {
			pr.LastRel = s
		}
		if n, ok := row["hops"].(int64); ok {
			pr.Hops = int(n)
		}
		pathRows = append(pathRows, pr)
	}

	scored := scorePathRows(pathRows, lowerKeys(profile.Weights))
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

func (g *legalGraph) HealthCheck(ctx context.Context) bool {
	return g != nil && g.client.HealthCheck(ctx)
}

func lowerKeys(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return out
}
