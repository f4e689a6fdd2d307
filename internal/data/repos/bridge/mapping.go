package bridge

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lexbridge/lexbridge-backend/internal/domain"
	"github.com/lexbridge/lexbridge-backend/internal/platform/dbctx"
	"github.com/lexbridge/lexbridge-backend/internal/platform/logger"
)

// MappingRepo is the bridge-table contract: the persistent chunk↔node
// mapping both the retriever and the verifier depend on.
type MappingRepo interface {
	// Add upserts on the unique (chunk_id, graph_node_urn) pair. Duplicate
	// pairs refresh metadata only; confidence and relation kind are
	// immutable after first insert. Returns domain.ErrInvalidMapping on
	// malformed input, never an error on duplicates.
	Add(dbc dbctx.Context, entry *domain.BridgeEntry) (uuid.UUID, error)
	// AddBatch inserts entries atomically (single transaction, internally
	// sub-chunked for throughput). Returns the number of entries written.
	AddBatch(dbc dbctx.Context, entries []*domain.BridgeEntry) (int, error)
	// NodesForChunk returns the mappings for a chunk, optionally filtered
	// by node type. Empty slice when none exist, never an error.
	NodesForChunk(dbc dbctx.Context, chunkID, nodeType string) ([]*domain.BridgeEntry, error)
	// ChunksForNode is the symmetric lookup.
	ChunksForNode(dbc dbctx.Context, graphNodeURN string) ([]*domain.BridgeEntry, error)
	// DeleteForChunk purges all mappings for a chunk (used on re-ingestion).
	// Idempotent: deleting an unmapped chunk returns 0, not an error.
	DeleteForChunk(dbc dbctx.Context, chunkID string) (int64, error)
	HealthCheck(ctx context.Context) bool
}

type mappingRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMappingRepo(db *gorm.DB, baseLog *logger.Logger) MappingRepo {
	return &mappingRepo{db: db, log: baseLog.With("repo", "BridgeMappingRepo")}
}

const batchSize = 200

var conflictTarget = clause.OnConflict{
	Columns: []clause.Column{{Name: "chunk_id"}, {Name: "graph_node_urn"}},
	DoUpdates: clause.AssignmentColumns([]string{
		"metadata",
		"updated_at",
	}),
}

func (r *mappingRepo) Add(dbc dbctx.Context, entry *domain.BridgeEntry) (uuid.UUID, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if !entry.Valid() {
		return uuid.Nil, fmt.Errorf("bridge add: %w", domain.ErrInvalidMapping)
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	entry.UpdatedAt = time.Now().UTC()

	if err := transaction.WithContext(dbc.Ctx).
		Clauses(conflictTarget).
		Create(entry).Error; err != nil {
		return uuid.Nil, err
	}

	// On conflict the stored row keeps its original surrogate key.
	var stored domain.BridgeEntry
	if err := transaction.WithContext(dbc.Ctx).
		Where("chunk_id = ? AND graph_node_urn = ?", entry.ChunkID, entry.GraphNodeURN).
		Take(&stored).Error; err != nil {
		return uuid.Nil, err
	}
	entry.ID = stored.ID
	return stored.ID, nil
}

func (r *mappingRepo) AddBatch(dbc dbctx.Context, entries []*domain.BridgeEntry) (int, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(entries) == 0 {
		return 0, nil
	}
	now := time.Now().UTC()
	for i, e := range entries {
		if !e.Valid() {
			return 0, fmt.Errorf("bridge batch entry %d: %w", i, domain.ErrInvalidMapping)
		}
		if e.ID == uuid.Nil {
			e.ID = uuid.New()
		}
		e.UpdatedAt = now
	}

	err := transaction.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(conflictTarget).CreateInBatches(entries, batchSize).Error
	})
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

func (r *mappingRepo) NodesForChunk(dbc dbctx.Context, chunkID, nodeType string) ([]*domain.BridgeEntry, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	results := []*domain.BridgeEntry{}
	if chunkID == "" {
		return results, nil
	}
	q := transaction.WithContext(dbc.Ctx).Where("chunk_id = ?", chunkID)
	if nodeType != "" {
		q = q.Where("node_type = ?", nodeType)
	}
	if err := q.Order("confidence DESC, graph_node_urn ASC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *mappingRepo) ChunksForNode(dbc dbctx.Context, graphNodeURN string) ([]*domain.BridgeEntry, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	results := []*domain.BridgeEntry{}
	if graphNodeURN == "" {
		return results, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("graph_node_urn = ?", graphNodeURN).
		Order("confidence DESC, chunk_id ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *mappingRepo) DeleteForChunk(dbc dbctx.Context, chunkID string) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if chunkID == "" {
		return 0, nil
	}
	res := transaction.WithContext(dbc.Ctx).
		Where("chunk_id = ?", chunkID).
		Delete(&domain.BridgeEntry{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *mappingRepo) HealthCheck(ctx context.Context) bool {
	if r == nil || r.db == nil {
		return false
	}
	if ctx == nil {
		ctx = context.Background()
	}
	sqlDB, err := r.db.DB()
	if err != nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return sqlDB.PingContext(ctx) == nil
}
