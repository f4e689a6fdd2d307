package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Node labels known to the legal graph. Informational; the bridge does not
// validate them.
const (
	NodeTypeNorm        = "Norm"
	NodeTypeConcept     = "Concept"
	NodeTypeDoctrine    = "Doctrine"
	NodeTypeJudicialAct = "JudicialAct"
)

// Relation kinds between a chunk's content and a graph node. Produced by the
// ingestion pipelines; the same universe of kinds is weighted by traversal
// profiles.
const (
	RelationContainedIn   = "contained_in"
	RelationPartOf        = "part_of"
	RelationRelatesTo     = "relates_to"
	RelationCommentedBy   = "commented_by"
	RelationInterpretedBy = "interpreted_by"
	RelationDefines       = "defines"
	RelationCites         = "cites"
	RelationApplies       = "applies"
)

// BridgeEntry is one chunk→node mapping row, the only consistency bond
// between the vector index and the graph store. (chunk_id, graph_node_urn)
// is unique; re-insertion upserts and refreshes metadata only.
type BridgeEntry struct {
	ID uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`

	ChunkID      string  `gorm:"column:chunk_id;not null;index;uniqueIndex:ux_bridge_chunk_node" json:"chunk_id"`
	GraphNodeURN string  `gorm:"column:graph_node_urn;not null;index;uniqueIndex:ux_bridge_chunk_node" json:"graph_node_urn"`
	NodeType     string  `gorm:"column:node_type;index" json:"node_type,omitempty"`
	RelationKind string  `gorm:"column:relation_kind;index" json:"relation_kind,omitempty"`
	Confidence   float64 `gorm:"column:confidence;not null;default:0" json:"confidence"`
	Source       string  `gorm:"column:source" json:"source,omitempty"`

	Metadata datatypes.JSON `gorm:"type:jsonb;column:metadata" json:"metadata,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (BridgeEntry) TableName() string { return "bridge_entry" }

// Valid reports whether the entry is well-formed enough to persist.
func (e *BridgeEntry) Valid() bool {
	if e == nil {
		return false
	}
	if e.ChunkID == "" || e.GraphNodeURN == "" {
		return false
	}
	return e.Confidence >= 0 && e.Confidence <= 1
}
