package domain

// VerificationOutcome is the per-source grounding verdict. Ephemeral,
// computed per verification call.
type VerificationOutcome struct {
	Exists     bool    `json:"exists"`
	ChunkCount int     `json:"chunk_count"`
	NodeType   string  `json:"node_type,omitempty"`
	Verified   bool    `json:"verified"`
	Confidence float64 `json:"confidence"`
	Note       string  `json:"note,omitempty"`
}
