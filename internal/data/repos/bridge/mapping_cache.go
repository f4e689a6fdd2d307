package bridge

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/lexbridge/lexbridge-backend/internal/domain"
	"github.com/lexbridge/lexbridge-backend/internal/platform/dbctx"
	"github.com/lexbridge/lexbridge-backend/internal/platform/logger"
	"github.com/lexbridge/lexbridge-backend/internal/platform/redisdb"
)

// cachedMappingRepo is a short-TTL read-through cache in front of the bridge
// lookups. Pure optimization: cache misses and redis failures fall through
// to the database, writes invalidate both lookup directions.
type cachedMappingRepo struct {
	inner MappingRepo
	rdb   *goredis.Client
	ttl   time.Duration
	log   *logger.Logger
}

func NewCachedMappingRepo(inner MappingRepo, redis *redisdb.Client, ttl time.Duration, baseLog *logger.Logger) MappingRepo {
	if redis == nil || redis.RDB == nil || ttl <= 0 {
		return inner
	}
	return &cachedMappingRepo{
		inner: inner,
		rdb:   redis.RDB,
		ttl:   ttl,
		log:   baseLog.With("repo", "BridgeMappingCache"),
	}
}

const (
	chunkKeyPrefix = "bridge:chunk:"
	nodeKeyPrefix  = "bridge:node:"
)

func (c *cachedMappingRepo) Add(dbc dbctx.Context, entry *domain.BridgeEntry) (uuid.UUID, error) {
	id, err := c.inner.Add(dbc, entry)
	if err == nil {
		c.invalidate(dbc.Ctx, entry.ChunkID, entry.GraphNodeURN)
	}
	return id, err
}

func (c *cachedMappingRepo) AddBatch(dbc dbctx.Context, entries []*domain.BridgeEntry) (int, error) {
	n, err := c.inner.AddBatch(dbc, entries)
	if err == nil {
		for _, e := range entries {
			c.invalidate(dbc.Ctx, e.ChunkID, e.GraphNodeURN)
		}
	}
	return n, err
}

func (c *cachedMappingRepo) NodesForChunk(dbc dbctx.Context, chunkID, nodeType string) ([]*domain.BridgeEntry, error) {
	// Type-filtered lookups bypass the cache; the unfiltered set is the
	// hot path and the only one worth a key.
	if nodeType != "" {
		return c.inner.NodesForChunk(dbc, chunkID, nodeType)
	}
	key := chunkKeyPrefix + chunkID
	if hit, ok := c.get(dbc.Ctx, key); ok {
		return hit, nil
	}
	rows, err := c.inner.NodesForChunk(dbc, chunkID, "")
	if err != nil {
		return nil, err
	}
	c.put(dbc.Ctx, key, rows)
	return rows, nil
}

func (c *cachedMappingRepo) ChunksForNode(dbc dbctx.Context, graphNodeURN string) ([]*domain.BridgeEntry, error) {
	key := nodeKeyPrefix + graphNodeURN
	if hit, ok := c.get(dbc.Ctx, key); ok {
		return hit, nil
	}
	rows, err := c.inner.ChunksForNode(dbc, graphNodeURN)
	if err != nil {
		return nil, err
	}
	c.put(dbc.Ctx, key, rows)
	return rows, nil
}

func (c *cachedMappingRepo) DeleteForChunk(dbc dbctx.Context, chunkID string) (int64, error) {
	// Invalidate node-side keys before the rows disappear.
	rows, _ := c.inner.NodesForChunk(dbc, chunkID, "")
	n, err := c.inner.DeleteForChunk(dbc, chunkID)
	if err == nil {
		for _, e := range rows {
			c.invalidate(dbc.Ctx, e.ChunkID, e.GraphNodeURN)
		}
		c.invalidate(dbc.Ctx, chunkID, "")
	}
	return n, err
}

func (c *cachedMappingRepo) HealthCheck(ctx context.Context) bool {
	return c.inner.HealthCheck(ctx)
}

func (c *cachedMappingRepo) get(ctx context.Context, key string) ([]*domain.BridgeEntry, bool) {
	if ctx == nil {
		ctx = context.Background()
	}
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var rows []*domain.BridgeEntry
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, false
	}
	return rows, true
}

func (c *cachedMappingRepo) put(ctx context.Context, key string, rows []*domain.BridgeEntry) {
	if ctx == nil {
		ctx = context.Background()
	}
	raw, err := json.Marshal(rows)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.log.Debug("bridge cache set failed", "key", key, "error", err)
	}
}

func (c *cachedMappingRepo) invalidate(ctx context.Context, chunkID, graphNodeURN string) {
	if ctx == nil {
		ctx = context.Background()
	}
	keys := make([]string, 0, 2)
	if chunkID != "" {
		keys = append(keys, chunkKeyPrefix+chunkID)
	}
	if graphNodeURN != "" {
		keys = append(keys, nodeKeyPrefix+graphNodeURN)
	}
	if len(keys) == 0 {
		return
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		c.log.Debug("bridge cache invalidate failed", "keys", keys, "error", err)
	}
}
