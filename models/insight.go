package models

import (
	"time"
)

// DefaultConfidenceScore is stored when the generated text carries no score
const DefaultConfidenceScore = 0.9

// Insight is a generated narrative. A nil FieldID marks a global insight.
type Insight struct {
	ID              uint      `gorm:"column:insight_id;primaryKey" json:"insight_id"`
	FieldID         *uint     `gorm:"column:field_id;index:idx_insight_field" json:"field_id"`
	InsightText     string    `gorm:"column:insight_text;type:text;not null" json:"insight_text"`
	ConfidenceScore float64   `gorm:"column:confidence_score" json:"confidence_score"`
	GeneratedAt     time.Time `gorm:"column:generated_at;not null;index:idx_insight_generated" json:"generated_at"`
}

func (Insight) TableName() string {
	return "insight"
}

// Feedback is an analyst's rating of a stored insight
type Feedback struct {
	ID           uint      `gorm:"column:feedback_id;primaryKey" json:"feedback_id"`
	InsightID    uint      `gorm:"column:insight_id;not null;index:idx_feedback_insight" json:"insight_id"`
	FeedbackText string    `gorm:"column:feedback_text;type:text" json:"feedback_text"`
	Rating       int       `gorm:"column:rating" json:"rating"`
	CreatedAt    time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Feedback) TableName() string {
	return "feedback"
}

// ModelParameters holds the sampling parameters used for metric updates.
// The most recently created row wins.
type ModelParameters struct {
	ID          uint      `gorm:"column:parameter_id;primaryKey" json:"parameter_id"`
	Temperature float64   `gorm:"column:temperature" json:"temperature"`
	TopP        float64   `gorm:"column:top_p" json:"top_p"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"created_at"`
}

func (ModelParameters) TableName() string {
	return "model_parameters"
}
