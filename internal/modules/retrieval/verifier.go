package retrieval

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/lexbridge/lexbridge-backend/internal/data/graph"
	bridgerepo "github.com/lexbridge/lexbridge-backend/internal/data/repos/bridge"
	"github.com/lexbridge/lexbridge-backend/internal/domain"
	"github.com/lexbridge/lexbridge-backend/internal/platform/dbctx"
	"github.com/lexbridge/lexbridge-backend/internal/platform/logger"
)

// SourceVerifier checks cited sources against the knowledge graph and the
// bridge. A source is verified when it resolves to a real graph node and,
// in strict mode, at least one indexed chunk is bridged to it; grounding in
// the corpus is what separates a citable source from a plausible hallucination.
type SourceVerifier struct {
	log         *logger.Logger
	graph       graph.LegalGraph
	bridge      bridgerepo.MappingRepo
	maxInflight int
}

func NewSourceVerifier(log *logger.Logger, legalGraph graph.LegalGraph, bridge bridgerepo.MappingRepo, maxInflight int) *SourceVerifier {
	if maxInflight <= 0 {
		maxInflight = 8
	}
	return &SourceVerifier{
		log:         log.Named("source_verifier"),
		graph:       legalGraph,
		bridge:      bridge,
		maxInflight: maxInflight,
	}
}

// Verify resolves each source identifier and reports an outcome per input
// string, keyed by the identifier as given. Identifiers may be URNs, node
// names, citation strings, or bare article references.
//
// When nodeTypeFilter is non-empty, a source resolving to a node type
// outside the filter exists but is not verified. Bridge failures fail
// closed: the outcome is unverified with the error recorded in Note.
func (v *SourceVerifier) Verify(
	ctx context.Context,
	sourceIDs []string,
	strict bool,
	nodeTypeFilter []string,
) map[string]domain.VerificationOutcome {
	outcomes := make(map[string]domain.VerificationOutcome, len(sourceIDs))
	if len(sourceIDs) == 0 {
		return outcomes
	}

	allowedTypes := make(map[string]bool, len(nodeTypeFilter))
	for _, t := range nodeTypeFilter {
		allowedTypes[t] = true
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(v.maxInflight)

	for _, id := range sourceIDs {
		id := id
		mu.Lock()
		_, seen := outcomes[id]
		if !seen {
			outcomes[id] = domain.VerificationOutcome{}
		}
		mu.Unlock()
		if seen {
			continue
		}
		g.Go(func() error {
			outcome := v.verifyOne(gctx, id, strict, allowedTypes)
			mu.Lock()
			outcomes[id] = outcome
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

func (v *SourceVerifier) verifyOne(ctx context.Context, sourceID string, strict bool, allowedTypes map[string]bool) domain.VerificationOutcome {
	node, err := v.graph.ResolveSource(ctx, sourceID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			v.log.Warn("source resolution failed", "source_id", sourceID, "error", err)
			return domain.VerificationOutcome{Note: fmt.Sprintf("resolution failed: %v", err)}
		}
		return domain.VerificationOutcome{Note: "no matching graph node"}
	}

	entries, err := v.bridge.ChunksForNode(dbctx.Context{Ctx: ctx}, node.URN)
	if err != nil {
		// Fail closed: an unreachable bridge must not certify a source.
		v.log.Warn("bridge lookup failed during verification", "source_id", sourceID, "urn", node.URN, "error", err)
		return domain.VerificationOutcome{Note: fmt.Sprintf("bridge unavailable: %v", err)}
	}

	outcome := domain.VerificationOutcome{
		Exists:     true,
		ChunkCount: len(entries),
		NodeType:   node.Label,
		Confidence: groundingConfidence(len(entries)),
	}

	if len(allowedTypes) > 0 && !allowedTypes[node.Label] {
		outcome.Note = fmt.Sprintf("node type %s excluded by filter", node.Label)
		return outcome
	}

	outcome.Verified = !strict || outcome.ChunkCount > 0
	return outcome
}

// groundingConfidence rates how well a resolved node is anchored in the
// indexed corpus: 0.5 for bare graph existence, +0.3 with at least one
// bridged chunk, +0.3 more with three or more, capped at 1.0.
func groundingConfidence(chunkCount int) float64 {
	conf := 0.5
	if chunkCount >= 1 {
		conf += 0.3
	}
	if chunkCount >= 3 {
		conf += 0.3
	}
	if conf > 1.0 {
		conf = 1.0
	}
	return conf
}
