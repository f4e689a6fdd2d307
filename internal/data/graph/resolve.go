package graph

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/lexbridge/lexbridge-backend/internal/domain"
)

// Resolution runs cheapest-first: exact URN, then name/citation attributes,
// then an article-number fallback for ids like "Article 432" or "art. 432.1"
// that synthesis layers tend to emit instead of canonical URNs.
func (g *legalGraph) ResolveSource(ctx context.Context, id string) (*SourceNode, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("resolve source: empty id: %w", domain.ErrNotFound)
	}

	if node, err := g.resolveOne(ctx, `
MATCH (n {urn: $id})
RETURN n.urn AS urn, head(labels(n)) AS label, n.name AS name
LIMIT 1
`, map[string]any{"id": id}); err != nil || node != nil {
		return node, err
	}

	if node, err := g.resolveOne(ctx, `
MATCH (n)
WHERE toLower(n.name) = toLower($id) OR n.citation = $id
RETURN n.urn AS urn, head(labels(n)) AS label, n.name AS name
LIMIT 1
`, map[string]any{"id": id}); err != nil || node != nil {
		return node, err
	}

	if num := normalizeArticleRef(id); num != "" {
		if node, err := g.resolveOne(ctx, `
MATCH (n:Norm)
WHERE n.article_number = $num
RETURN n.urn AS urn, head(labels(n)) AS label, n.name AS name
LIMIT 1
`, map[string]any{"num": num}); err != nil || node != nil {
			return node, err
		}
	}

	return nil, fmt.Errorf("resolve source %q: %w", id, domain.ErrNotFound)
}

func (g *legalGraph) resolveOne(ctx context.Context, statement string, params map[string]any) (*SourceNode, error) {
	rows, err := g.Query(ctx, statement, params)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	row := rows[0]
	node := &SourceNode{}
	if s, ok := row["urn"].(string); ok {
		node.URN = s
	}
	if s, ok := row["label"].(string); ok {
		node.Label = s
	}
	if s, ok := row["name"].(string); ok {
		node.Name = s
	}
	if node.URN == "" {
		return nil, nil
	}
	return node, nil
}

var articleNumberPattern = regexp.MustCompile(`\d+(?:\.\d+)*`)

// normalizeArticleRef extracts a bare article number ("432", "432.1") from a
// free-form citation-style id. Empty when the id carries no number.
func normalizeArticleRef(id string) string {
	lowered := strings.ToLower(strings.TrimSpace(id))
	if lowered == "" {
		return ""
	}
	// Reject ids that are clearly URNs or prose rather than article refs.
	if strings.HasPrefix(lowered, "urn:") {
		return ""
	}
	return articleNumberPattern.FindString(lowered)
}
