package models

import (
	"time"
)

// MetricObservation is one timestamped maturity/innovation/relevance reading.
// A nil SubfieldID marks a field-level observation.
type MetricObservation struct {
	ID         uint      `gorm:"column:metric_id;primaryKey" json:"metric_id"`
	Metric1    float64   `gorm:"column:metric_1" json:"metric_1"` // maturity
	Metric2    float64   `gorm:"column:metric_2" json:"metric_2"` // innovation
	Metric3    float64   `gorm:"column:metric_3" json:"metric_3"` // relevance
	MetricDate time.Time `gorm:"column:metric_date;not null;index:idx_metric_date" json:"metric_date"`
	FieldID    uint      `gorm:"column:field_id;not null;index:idx_metric_field" json:"field_id"`
	SubfieldID *uint     `gorm:"column:subfield_id;index:idx_metric_subfield" json:"subfield_id"`
	Rationale  string    `gorm:"column:rationale;type:text" json:"rationale"`
	Source     string    `gorm:"column:source" json:"source"`
}

func (MetricObservation) TableName() string {
	return "timed_metrics"
}

// IsSubfield reports whether the observation belongs to a subfield
func (m MetricObservation) IsSubfield() bool {
	return m.SubfieldID != nil
}

// EntityGrowth pairs an entity's latest observation with the percent change
// of each metric against the observation before it.
type EntityGrowth struct {
	EntityID   uint              `json:"entity_id"`
	EntityName string            `json:"entity_name"`
	Current    MetricObservation `json:"current"`
	Growth1    float64           `json:"growth_metric_1"`
	Growth2    float64           `json:"growth_metric_2"`
	Growth3    float64           `json:"growth_metric_3"`
}

// RadarPoint is one row of the radar chart: a field, optionally one of its
// subfields, and the latest observation for whichever is more specific.
type RadarPoint struct {
	FieldID             uint       `json:"field_id"`
	FieldName           string     `json:"field_name"`
	FieldDescription    string     `json:"field_description"`
	SubfieldID          *uint      `json:"subfield_id"`
	SubfieldName        *string    `json:"subfield_name"`
	SubfieldDescription *string    `json:"subfield_description"`
	Metric1             *float64   `json:"metric_1"`
	Metric2             *float64   `json:"metric_2"`
	Metric3             *float64   `json:"metric_3"`
	Rationale           *string    `json:"rationale"`
	MetricDate          *time.Time `json:"metric_date"`
	Source              *string    `json:"source"`
}
