package models

// Field represents a top-level technology category tracked on the radar
type Field struct {
	ID          uint       `gorm:"column:field_id;primaryKey" json:"field_id"`
	Name        string     `gorm:"column:field_name;not null" json:"field_name"`
	Description string     `gorm:"column:description" json:"description"`
	Subfields   []Subfield `gorm:"foreignKey:FieldID;references:ID" json:"subfields,omitempty"`
}

// TableName pins the table name so raw queries and indexes can rely on it
func (Field) TableName() string {
	return "field"
}

// Subfield represents a named sub-category nested under one Field.
// Names are unique per owning field, compared case-insensitively.
type Subfield struct {
	ID          uint   `gorm:"column:subfield_id;primaryKey" json:"subfield_id"`
	FieldID     uint   `gorm:"column:field_id;not null;index:idx_subfield_field" json:"field_id"`
	Name        string `gorm:"column:subfield_name;not null" json:"subfield_name"`
	Description string `gorm:"column:description" json:"description"`
}

func (Subfield) TableName() string {
	return "subfield"
}

// EntityKind distinguishes field-level from subfield-level pipelines
type EntityKind string

const (
	KindField    EntityKind = "field"
	KindSubfield EntityKind = "subfield"
)
