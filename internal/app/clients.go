package app

import (
	"context"
	"fmt"

	"github.com/lexbridge/lexbridge-backend/internal/data/db"
	"github.com/lexbridge/lexbridge-backend/internal/platform/logger"
	"github.com/lexbridge/lexbridge-backend/internal/platform/neo4jdb"
	"github.com/lexbridge/lexbridge-backend/internal/platform/qdrant"
	"github.com/lexbridge/lexbridge-backend/internal/platform/redisdb"
)

// Clients bundles the backing stores. Postgres, Neo4j and Qdrant are
// required; Redis is the optional bridge cache and stays nil when
// REDIS_ADDR is unset.
type Clients struct {
	Postgres *db.PostgresService
	Neo4j    *neo4jdb.Client
	Vector   qdrant.VectorStore
	Redis    *redisdb.Client
}

func wireClients(log *logger.Logger) (Clients, error) {
	pg, err := db.NewPostgresService(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init postgres: %w", err)
	}
	if err := pg.AutoMigrateAll(); err != nil {
		return Clients{}, fmt.Errorf("postgres automigrate: %w", err)
	}

	neo, err := neo4jdb.NewFromEnv(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init neo4j: %w", err)
	}

	qcfg, err := qdrant.ResolveConfigFromEnv()
	if err != nil {
		return Clients{}, fmt.Errorf("resolve qdrant config: %w", err)
	}
	vec, err := qdrant.NewVectorStore(log, qcfg)
	if err != nil {
		return Clients{}, fmt.Errorf("init qdrant: %w", err)
	}

	rdb, err := redisdb.NewFromEnv(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init redis: %w", err)
	}

	return Clients{Postgres: pg, Neo4j: neo, Vector: vec, Redis: rdb}, nil
}

func (c Clients) Close() {
	if c.Neo4j != nil {
		_ = c.Neo4j.Close(context.Background())
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
}
