package retrieval

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lexbridge/lexbridge-backend/internal/data/graph"
	bridgerepo "github.com/lexbridge/lexbridge-backend/internal/data/repos/bridge"
	"github.com/lexbridge/lexbridge-backend/internal/domain"
	"github.com/lexbridge/lexbridge-backend/internal/platform/dbctx"
	"github.com/lexbridge/lexbridge-backend/internal/platform/logger"
	"github.com/lexbridge/lexbridge-backend/internal/platform/qdrant"
)

// Config tunes the retrieval pipeline. Zero values are replaced by defaults
// in NewHybridRetriever, so callers only set what they need to change.
type Config struct {
	// OverRetrieveFactor widens the vector candidate pool before graph
	// re-ranking: Search fetches topK * OverRetrieveFactor matches.
	OverRetrieveFactor int

	// DefaultGraphScore is assigned when no graph signal is available for a
	// candidate, either because retrieval runs vector-only or because the
	// bridge lookup for that chunk failed.
	DefaultGraphScore float64

	// MaxInflight caps concurrent bridge lookups and graph traversals.
	MaxInflight int

	TraversalDepth int
	TraversalLimit int

	VectorTimeout time.Duration
	BridgeTimeout time.Duration
	GraphTimeout  time.Duration
}

func (c Config) withDefaults() Config {
	if c.OverRetrieveFactor <= 0 {
		c.OverRetrieveFactor = 3
	}
	if c.DefaultGraphScore <= 0 {
		c.DefaultGraphScore = 0.5
	}
	if c.MaxInflight <= 0 {
		c.MaxInflight = 8
	}
	if c.TraversalDepth <= 0 {
		c.TraversalDepth = 2
	}
	if c.TraversalLimit <= 0 {
		c.TraversalLimit = 200
	}
	if c.VectorTimeout <= 0 {
		c.VectorTimeout = 5 * time.Second
	}
	if c.BridgeTimeout <= 0 {
		c.BridgeTimeout = 2 * time.Second
	}
	if c.GraphTimeout <= 0 {
		c.GraphTimeout = 5 * time.Second
	}
	return c
}

// HybridRetriever fuses vector similarity with weighted graph proximity.
// The vector store is the availability anchor: if Search fails the call
// fails. Bridge and graph failures degrade the affected candidates to
// DefaultGraphScore instead of failing the request.
type HybridRetriever struct {
	log    *logger.Logger
	vec    qdrant.VectorStore
	bridge bridgerepo.MappingRepo
	graph  graph.LegalGraph
	alpha  *BlendState
	cfg    Config
}

func NewHybridRetriever(
	log *logger.Logger,
	vec qdrant.VectorStore,
	bridge bridgerepo.MappingRepo,
	legalGraph graph.LegalGraph,
	alpha *BlendState,
	cfg Config,
) *HybridRetriever {
	if alpha == nil {
		alpha = NewBlendState(0.7)
	}
	return &HybridRetriever{
		log:    log.Named("hybrid_retriever"),
		vec:    vec,
		bridge: bridge,
		graph:  legalGraph,
		alpha:  alpha,
		cfg:    cfg.withDefaults(),
	}
}

// Alpha returns the current blend coefficient.
func (r *HybridRetriever) Alpha() float64 { return r.alpha.Get() }

// UpdateAlpha feeds one feedback observation into the blend state and
// returns the resulting α.
func (r *HybridRetriever) UpdateAlpha(feedbackCorrelation, authority float64) float64 {
	next := r.alpha.Update(feedbackCorrelation, authority)
	r.log.Info("alpha updated",
		"feedback_correlation", feedbackCorrelation,
		"authority", authority,
		"alpha", next,
	)
	return next
}

// candidate carries one vector match through the re-ranking pipeline.
// Candidates keep their vector rank order, so the final stable sort breaks
// score ties by similarity rank.
type candidate struct {
	match       qdrant.ChunkMatch
	linked      []string
	graphScore  float64
	linkedUsed  []string
	bridgeError bool
}

// Retrieve runs the hybrid pipeline: over-retrieve by vector similarity,
// resolve chunk-to-node links through the bridge, score linked nodes by
// weighted traversal from the context nodes, then fuse
// α·similarity + (1−α)·graphScore and return the topK results.
//
// With no context nodes or an empty profile the call degrades to
// vector-only mode and every candidate gets DefaultGraphScore.
func (r *HybridRetriever) Retrieve(
	ctx context.Context,
	queryEmbedding []float32,
	contextNodeURNs []string,
	profile *domain.WeightProfile,
	topK int,
) ([]domain.RetrievalResult, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("hybrid retrieve: topK must be positive, got %d", topK)
	}
	if len(queryEmbedding) == 0 {
		return nil, fmt.Errorf("hybrid retrieve: empty query embedding")
	}

	started := time.Now()

	vctx, cancel := context.WithTimeout(ctx, r.cfg.VectorTimeout)
	matches, err := r.vec.Search(vctx, queryEmbedding, topK*r.cfg.OverRetrieveFactor)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("hybrid retrieve: vector search: %w", err)
	}
	vectorElapsed := time.Since(started)
	if len(matches) == 0 {
		return []domain.RetrievalResult{}, nil
	}

	cands := make([]candidate, len(matches))
	for i, m := range matches {
		cands[i] = candidate{match: m}
	}

	graphMode := len(contextNodeURNs) > 0 && profile != nil && len(profile.Weights) > 0
	mode := "vector_only"
	degradedBridge := false
	degradedGraph := false

	if graphMode {
		mode = "hybrid"
		degradedBridge = r.resolveLinks(ctx, cands)
		nodeScores, contextSet, allGraphFailed := r.scoreContextNodes(ctx, contextNodeURNs, *profile)
		degradedGraph = allGraphFailed
		r.assignGraphScores(cands, nodeScores, contextSet, allGraphFailed)
	} else {
		for i := range cands {
			cands[i].graphScore = r.cfg.DefaultGraphScore
		}
	}

	alpha := r.alpha.Get()
	results := make([]domain.RetrievalResult, len(cands))
	for i, c := range cands {
		results[i] = domain.RetrievalResult{
			ChunkID:         c.match.ChunkID,
			Text:            c.match.Text,
			SimilarityScore: c.match.Similarity,
			GraphScore:      c.graphScore,
			FinalScore:      alpha*c.match.Similarity + (1-alpha)*c.graphScore,
			LinkedNodes:     c.linkedUsed,
			Metadata:        c.match.Payload,
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].FinalScore > results[j].FinalScore
	})
	if len(results) > topK {
		results = results[:topK]
	}

	r.log.Debug("retrieval complete",
		"mode", mode,
		"alpha", alpha,
		"candidates", len(cands),
		"returned", len(results),
		"context_nodes", len(contextNodeURNs),
		"degraded_bridge", degradedBridge,
		"degraded_graph", degradedGraph,
		"vector_ms", vectorElapsed.Milliseconds(),
		"total_ms", time.Since(started).Milliseconds(),
	)
	return results, nil
}

// resolveLinks fills each candidate's linked node URNs from the bridge.
// A failed lookup marks only that candidate; it later falls back to
// DefaultGraphScore. Reports whether any lookup failed.
func (r *HybridRetriever) resolveLinks(ctx context.Context, cands []candidate) bool {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.MaxInflight)

	var mu sync.Mutex
	degraded := false

	for i := range cands {
		i := i
		g.Go(func() error {
			bctx, cancel := context.WithTimeout(gctx, r.cfg.BridgeTimeout)
			defer cancel()
			entries, err := r.bridge.NodesForChunk(dbctx.Context{Ctx: bctx}, cands[i].match.ChunkID, "")
			if err != nil {
				r.log.Warn("bridge lookup failed, candidate degrades to default graph score",
					"chunk_id", cands[i].match.ChunkID, "error", err)
				mu.Lock()
				cands[i].bridgeError = true
				degraded = true
				mu.Unlock()
				return nil
			}
			linked := make([]string, 0, len(entries))
			for _, e := range entries {
				linked = append(linked, e.GraphNodeURN)
			}
			mu.Lock()
			cands[i].linked = linked
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return degraded
}

// scoreContextNodes traverses the graph once per context node and merges the
// per-node scores, keeping the maximum when a node is reachable from several
// context nodes. Returns the merged scores, the set of context URNs, and
// whether every traversal failed.
func (r *HybridRetriever) scoreContextNodes(
	ctx context.Context,
	contextNodeURNs []string,
	profile domain.WeightProfile,
) (map[string]float64, map[string]bool, bool) {
	nodeScores := make(map[string]float64)
	contextSet := make(map[string]bool, len(contextNodeURNs))

	var mu sync.Mutex
	failures := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.MaxInflight)

	for _, urn := range contextNodeURNs {
		urn := urn
		contextSet[urn] = true
		g.Go(func() error {
			tctx, cancel := context.WithTimeout(gctx, r.cfg.GraphTimeout)
			defer cancel()
			scored, err := r.graph.Traverse(tctx, urn, profile, r.cfg.TraversalDepth, r.cfg.TraversalLimit)
			if err != nil {
				r.log.Warn("graph traversal failed, continuing without it",
					"context_node", urn, "profile", profile.Name, "error", err)
				mu.Lock()
				failures++
				mu.Unlock()
				return nil
			}
			mu.Lock()
			for _, sn := range scored {
				if sn.Score > nodeScores[sn.URN] {
					nodeScores[sn.URN] = sn.Score
				}
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return nodeScores, contextSet, failures == len(contextNodeURNs) && len(contextNodeURNs) > 0
}

// assignGraphScores computes each candidate's graph score as the maximum
// over its linked nodes. A linked node that IS a context node scores 1.0; a
// linked node unreachable within the traversal bounds contributes 0. Only
// candidates with no usable graph signal fall back to DefaultGraphScore.
func (r *HybridRetriever) assignGraphScores(
	cands []candidate,
	nodeScores map[string]float64,
	contextSet map[string]bool,
	allGraphFailed bool,
) {
	for i := range cands {
		c := &cands[i]
		if c.bridgeError || len(c.linked) == 0 || allGraphFailed {
			c.graphScore = r.cfg.DefaultGraphScore
			continue
		}
		best := 0.0
		for _, urn := range c.linked {
			score := nodeScores[urn]
			if contextSet[urn] {
				score = 1.0
			}
			if score > best {
				best = score
			}
			if score > 0 {
				c.linkedUsed = append(c.linkedUsed, urn)
			}
		}
		c.graphScore = best
	}
}
