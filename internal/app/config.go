package app

import (
	"time"

	"github.com/lexbridge/lexbridge-backend/internal/modules/retrieval"
	"github.com/lexbridge/lexbridge-backend/internal/platform/envutil"
)

type Config struct {
	Port        string
	Environment string
	Version     string

	// ProfilesPath optionally points at a YAML file overriding the builtin
	// weight profiles.
	ProfilesPath string

	// InitialAlpha seeds the adaptive blend coefficient.
	InitialAlpha float64

	// BridgeCacheTTL enables the Redis read-through cache on bridge lookups
	// when positive and a Redis client is configured.
	BridgeCacheTTL time.Duration

	Retrieval retrieval.Config
}

func LoadConfig() Config {
	return Config{
		Port:           envutil.Str("PORT", "8080"),
		Environment:    envutil.Str("APP_ENV", "development"),
		Version:        envutil.Str("APP_VERSION", "dev"),
		ProfilesPath:   envutil.Str("PROFILES_PATH", ""),
		InitialAlpha:   envutil.Float("RETRIEVAL_INITIAL_ALPHA", 0.7),
		BridgeCacheTTL: envutil.Duration("BRIDGE_CACHE_TTL", 5*time.Minute),
		Retrieval: retrieval.Config{
			OverRetrieveFactor: envutil.Int("RETRIEVAL_OVER_RETRIEVE_FACTOR", 3),
			DefaultGraphScore:  envutil.Float("RETRIEVAL_DEFAULT_GRAPH_SCORE", 0.5),
			MaxInflight:        envutil.Int("RETRIEVAL_MAX_INFLIGHT", 8),
			TraversalDepth:     envutil.Int("RETRIEVAL_TRAVERSAL_DEPTH", 2),
			TraversalLimit:     envutil.Int("RETRIEVAL_TRAVERSAL_LIMIT", 200),
			VectorTimeout:      envutil.Duration("RETRIEVAL_VECTOR_TIMEOUT", 5*time.Second),
			BridgeTimeout:      envutil.Duration("RETRIEVAL_BRIDGE_TIMEOUT", 2*time.Second),
			GraphTimeout:       envutil.Duration("RETRIEVAL_GRAPH_TIMEOUT", 5*time.Second),
		},
	}
}
