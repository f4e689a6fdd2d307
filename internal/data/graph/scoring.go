package graph

import (
	"regexp"
	"sort"
	"strings"
)

// pathRow is one raw variable-length-path row returned by the traversal
// query: the reached node, the hop count, and the type of the final edge.
type pathRow struct {
	URN     string
	Label   string
	LastRel string
	Hops    int
}

var relKindPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// relTypeUnion turns a weight map's relation kinds into a Cypher
// relationship-type union ("CONTAINED_IN|PART_OF"). Kinds that fail the
// pattern check are dropped rather than interpolated; the keys come from
// caller-supplied profiles and end up inside the query string.
func relTypeUnion(weights map[string]float64) string {
	kinds := make([]string, 0, len(weights))
	for kind, w := range weights {
		kind = strings.TrimSpace(strings.ToLower(kind))
		if w <= 0 || !relKindPattern.MatchString(kind) {
			continue
		}
		kinds = append(kinds, strings.ToUpper(kind))
	}
	sort.Strings(kinds)
	return strings.Join(kinds, "|")
}

// scorePathRows applies the path-score formula to raw traversal rows:
// score = 1/(hops+1) * weight(lastEdge), best path per node wins.
// The last-edge-only weighting (rather than a product along the path) is
// intentional; see the traversal contract.
func scorePathRows(rows []pathRow, weights map[string]float64) []ScoredNode {
	type best struct {
		node  ScoredNode
		found bool
	}
	byURN := map[string]best{}
	order := make([]string, 0, len(rows))

	for _, row := range rows {
		if row.URN == "" || row.Hops <= 0 {
			continue
		}
		w, ok := weights[strings.ToLower(strings.TrimSpace(row.LastRel))]
		if !ok || w <= 0 {
			continue
		}
		score := (1.0 / float64(row.Hops+1)) * w
		cur, seen := byURN[row.URN]
		if !seen {
			order = append(order, row.URN)
		}
		if !cur.found || score > cur.node.Score {
			byURN[row.URN] = best{
				node: ScoredNode{
					URN:   row.URN,
					Label: row.Label,
					Score: score,
					Hops:  row.Hops,
				},
				found: true,
			}
		}
	}

	out := make([]ScoredNode, 0, len(byURN))
	for _, urn := range order {
		if b := byURN[urn]; b.found {
			out = append(out, b.node)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score == out[j].Score {
			return out[i].URN < out[j].URN
		}
		return out[i].Score > out[j].Score
	})
	return out
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
