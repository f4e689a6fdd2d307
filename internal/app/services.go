package app

import (
	"fmt"

	"github.com/lexbridge/lexbridge-backend/internal/domain"
	"github.com/lexbridge/lexbridge-backend/internal/modules/retrieval"
	"github.com/lexbridge/lexbridge-backend/internal/platform/logger"
)

type Services struct {
	Retriever *retrieval.HybridRetriever
	Verifier  *retrieval.SourceVerifier
	Profiles  map[string]domain.WeightProfile
}

func wireServices(clients Clients, repos Repos, cfg Config, log *logger.Logger) (Services, error) {
	profiles, err := retrieval.LoadProfiles(cfg.ProfilesPath)
	if err != nil {
		return Services{}, fmt.Errorf("load weight profiles: %w", err)
	}

	alpha := retrieval.NewBlendState(cfg.InitialAlpha)
	retriever := retrieval.NewHybridRetriever(log, clients.Vector, repos.Bridge, repos.Graph, alpha, cfg.Retrieval)
	verifier := retrieval.NewSourceVerifier(log, repos.Graph, repos.Bridge, cfg.Retrieval.MaxInflight)

	return Services{
		Retriever: retriever,
		Verifier:  verifier,
		Profiles:  profiles,
	}, nil
}
