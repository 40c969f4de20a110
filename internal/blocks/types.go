// Package blocks holds the block graph of a document-analysis job: the block
// and relationship types as the analysis service emits them, an indexed Store
// accumulated across response pages, and the text assembly that walks CHILD edges.
package blocks

import "slices"

// Type is the kind of a block.
type Type string

const (
	TypePage             Type = "PAGE"
	TypeLine             Type = "LINE"
	TypeWord             Type = "WORD"
	TypeKeyValueSet      Type = "KEY_VALUE_SET"
	TypeSelectionElement Type = "SELECTION_ELEMENT"
	TypeTable            Type = "TABLE"
	TypeCell             Type = "CELL"
)

// EntityType tags the role of a KEY_VALUE_SET block.
type EntityType string

const (
	EntityKey   EntityType = "KEY"
	EntityValue EntityType = "VALUE"
)

// SelectionStatus is the state of a SELECTION_ELEMENT block.
type SelectionStatus string

const (
	Selected    SelectionStatus = "SELECTED"
	NotSelected SelectionStatus = "NOT_SELECTED"
)

// RelationshipType is the kind of a typed edge.
type RelationshipType string

const (
	RelChild RelationshipType = "CHILD"
	RelValue RelationshipType = "VALUE"
)

// Relationship is an ordered edge from one block to other blocks.
type Relationship struct {
	Type RelationshipType `json:"Type"`
	IDs  []string         `json:"Ids"`
}

// Block is the atomic unit of an analysis result.
// JSON field names follow the analysis service's response schema.
type Block struct {
	ID              string          `json:"Id"`
	Type            Type            `json:"BlockType"`
	Text            string          `json:"Text,omitempty"`
	EntityTypes     []EntityType    `json:"EntityTypes,omitempty"`
	SelectionStatus SelectionStatus `json:"SelectionStatus,omitempty"`
	Page            int             `json:"Page,omitempty"`
	RowIndex        int             `json:"RowIndex,omitempty"`
	ColumnIndex     int             `json:"ColumnIndex,omitempty"`
	Confidence      float64         `json:"Confidence,omitempty"`
	Relationships   []Relationship  `json:"Relationships,omitempty"`
}

// IsKey reports whether b is a KEY_VALUE_SET block tagged KEY.
func (b *Block) IsKey() bool {
	return b.Type == TypeKeyValueSet && slices.Contains(b.EntityTypes, EntityKey)
}

// IsValue reports whether b is a KEY_VALUE_SET block that is not a key.
func (b *Block) IsValue() bool {
	return b.Type == TypeKeyValueSet && !slices.Contains(b.EntityTypes, EntityKey)
}

// Edges returns the relationships of type t in edge order.
func (b *Block) Edges(t RelationshipType) []Relationship {
	var out []Relationship
	for _, rel := range b.Relationships {
		if rel.Type == t {
			out = append(out, rel)
		}
	}
	return out
}

// ChildIDs returns the targets of every CHILD edge, flattened in edge order.
func (b *Block) ChildIDs() []string {
	var ids []string
	for _, rel := range b.Relationships {
		if rel.Type == RelChild {
			ids = append(ids, rel.IDs...)
		}
	}
	return ids
}
