package domain

// WeightProfile maps relation kinds to traversal weights in (0,1] for one
// interpretive lens. Edge kinds absent from Weights are not traversed at all.
// Profiles are static configuration injected at call time, never persisted.
type WeightProfile struct {
	Name    string             `yaml:"name" json:"name"`
	Weights map[string]float64 `yaml:"weights" json:"weights"`
}

// Clone returns a deep copy so callers can tweak weights without racing
// against concurrent retrievals.
func (p WeightProfile) Clone() WeightProfile {
	out := WeightProfile{Name: p.Name, Weights: make(map[string]float64, len(p.Weights))}
	for k, v := range p.Weights {
		out.Weights[k] = v
	}
	return out
}

// RetrievalResult is one ranked candidate. Ordering by FinalScore descending
// is the only invariant consumers may rely on.
type RetrievalResult struct {
	ChunkID         string         `json:"chunk_id"`
	Text            string         `json:"text"`
	SimilarityScore float64        `json:"similarity_score"`
	GraphScore      float64        `json:"graph_score"`
	FinalScore      float64        `json:"final_score"`
	LinkedNodes     []string       `json:"linked_nodes,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}
