package app

import (
	"gorm.io/gorm"

	"github.com/lexbridge/lexbridge-backend/internal/data/graph"
	bridgerepo "github.com/lexbridge/lexbridge-backend/internal/data/repos/bridge"
	"github.com/lexbridge/lexbridge-backend/internal/platform/logger"
)

type Repos struct {
	Bridge bridgerepo.MappingRepo
	Graph  graph.LegalGraph
}

func wireRepos(gdb *gorm.DB, clients Clients, cfg Config, log *logger.Logger) Repos {
	bridge := bridgerepo.NewMappingRepo(gdb, log)
	bridge = bridgerepo.NewCachedMappingRepo(bridge, clients.Redis, cfg.BridgeCacheTTL, log)

	return Repos{
		Bridge: bridge,
		Graph:  graph.NewLegalGraph(clients.Neo4j, log),
	}
}
