package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	bridgerepo "github.com/lexbridge/lexbridge-backend/internal/data/repos/bridge"
	"github.com/lexbridge/lexbridge-backend/internal/domain"
	"github.com/lexbridge/lexbridge-backend/internal/http/response"
	"github.com/lexbridge/lexbridge-backend/internal/platform/dbctx"
	"github.com/lexbridge/lexbridge-backend/internal/platform/logger"
	"github.com/lexbridge/lexbridge-backend/internal/platform/qdrant"
)

const maxMappingBatch = 500

type BridgeHandler struct {
	log  *logger.Logger
	gdb  *gorm.DB
	repo bridgerepo.MappingRepo
	vec  qdrant.VectorStore
}

func NewBridgeHandler(log *logger.Logger, gdb *gorm.DB, repo bridgerepo.MappingRepo, vec qdrant.VectorStore) *BridgeHandler {
	return &BridgeHandler{log: log, gdb: gdb, repo: repo, vec: vec}
}

type mappingPayload struct {
	ChunkID      string         `json:"chunk_id"`
	GraphNodeURN string         `json:"graph_node_urn"`
	NodeType     string         `json:"node_type"`
	RelationKind string         `json:"relation_kind"`
	Confidence   float64        `json:"confidence"`
	Source       string         `json:"source"`
	Metadata     map[string]any `json:"metadata"`
}

type addMappingsRequest struct {
	Mappings []mappingPayload `json:"mappings"`
}

// AddMappings ingests a batch of chunk-to-node links. The batch is
// all-or-nothing; re-sending an existing (chunk, node) pair refreshes its
// metadata instead of duplicating it.
func (h *BridgeHandler) AddMappings(c *gin.Context) {
	var req addMappingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if len(req.Mappings) == 0 {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("mappings is required"))
		return
	}
	if len(req.Mappings) > maxMappingBatch {
		response.RespondError(c, http.StatusBadRequest, "invalid_request",
			fmt.Errorf("mappings exceeds batch limit of %d", maxMappingBatch))
		return
	}

	entries := make([]*domain.BridgeEntry, 0, len(req.Mappings))
	for i, m := range req.Mappings {
		entry := &domain.BridgeEntry{
			ChunkID:      m.ChunkID,
			GraphNodeURN: m.GraphNodeURN,
			NodeType:     m.NodeType,
			RelationKind: m.RelationKind,
			Confidence:   m.Confidence,
			Source:       m.Source,
		}
		if m.Metadata != nil {
			raw, err := json.Marshal(m.Metadata)
			if err != nil {
				response.RespondError(c, http.StatusBadRequest, "invalid_request",
					fmt.Errorf("mappings[%d]: metadata not serializable: %w", i, err))
				return
			}
			entry.Metadata = datatypes.JSON(raw)
		}
		if !entry.Valid() {
			response.RespondError(c, http.StatusBadRequest, "invalid_mapping",
				fmt.Errorf("mappings[%d]: %w", i, domain.ErrInvalidMapping))
			return
		}
		entries = append(entries, entry)
	}

	count, err := h.repo.AddBatch(dbctx.Context{Ctx: c.Request.Context(), Tx: h.gdb}, entries)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidMapping) {
			response.RespondError(c, http.StatusBadRequest, "invalid_mapping", err)
			return
		}
		h.log.Error("bridge batch ingest failed", "count", len(entries), "error", err)
		response.RespondError(c, http.StatusInternalServerError, "bridge_write_failed", err)
		return
	}
	response.RespondCreated(c, gin.H{"ingested": count})
}

// DeleteChunk purges a chunk from the bridge and the vector store, for
// retracted or re-indexed source documents. Bridge rows go first so a
// half-completed purge never leaves a searchable chunk that claims graph
// grounding.
func (h *BridgeHandler) DeleteChunk(c *gin.Context) {
	chunkID := c.Param("chunkID")
	if chunkID == "" {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("chunkID is required"))
		return
	}

	deleted, err := h.repo.DeleteForChunk(dbctx.Context{Ctx: c.Request.Context(), Tx: h.gdb}, chunkID)
	if err != nil {
		h.log.Error("bridge purge failed", "chunk_id", chunkID, "error", err)
		response.RespondError(c, http.StatusInternalServerError, "bridge_delete_failed", err)
		return
	}

	vectorDeleted := true
	if err := h.vec.DeleteIDs(c.Request.Context(), []string{chunkID}); err != nil {
		vectorDeleted = false
		h.log.Warn("vector delete failed after bridge purge", "chunk_id", chunkID, "error", err)
	}
	response.RespondOK(c, gin.H{
		"chunk_id":       chunkID,
		"deleted":        deleted,
		"vector_deleted": vectorDeleted,
	})
}
