package retrieval

import (
	"math"
	"sync"
	"sync/atomic"
)

// α is clamped to [alphaFloor, alphaCeil] at all times so neither the vector
// nor the graph signal can ever be fully zeroed out; that floor is what keeps
// ranking degradation graceful when one store turns unreliable.
const (
	alphaFloor = 0.3
	alphaCeil  = 0.9
	alphaStep  = 0.01
)

// BlendState owns the process-wide adaptive blend coefficient between vector
// similarity and graph relevance. Reads are lock-free; updates are
// infrequent and serialized. A Retrieve call may observe a slightly stale α,
// which is acceptable: ranking is not linearizable with feedback updates.
type BlendState struct {
	bits atomic.Uint64
	mu   sync.Mutex
}

func NewBlendState(initial float64) *BlendState {
	s := &BlendState{}
	s.bits.Store(math.Float64bits(clampAlpha(initial)))
	return s
}

func (s *BlendState) Get() float64 {
	return math.Float64frombits(s.bits.Load())
}

// Update applies one feedback observation. Correlation above 0.5 means the
// graph signal tracked judged relevance, so α shifts toward the graph side;
// otherwise it shifts back toward vector similarity. The step is scaled by
// the feedback producer's authority. Returns the new α.
func (s *BlendState) Update(feedbackCorrelation, authority float64) float64 {
	feedbackCorrelation = clamp01(feedbackCorrelation)
	authority = clamp01(authority)

	s.mu.Lock()
	defer s.mu.Unlock()

	alpha := math.Float64frombits(s.bits.Load())
	if feedbackCorrelation > 0.5 {
		alpha -= alphaStep * authority
	} else {
		alpha += alphaStep * authority
	}
	alpha = clampAlpha(alpha)
	s.bits.Store(math.Float64bits(alpha))
	return alpha
}

func clampAlpha(v float64) float64 {
	if v < alphaFloor || math.IsNaN(v) {
		return alphaFloor
	}
	if v > alphaCeil {
		return alphaCeil
	}
	return v
}

func clamp01(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
