package models

// =============================================================================
// Requests
// =============================================================================

// UpdateMetricsRequest asks for a fresh observation of one field
type UpdateMetricsRequest struct {
	FieldID uint `json:"field_id" binding:"required"`
}

// UpdateSubfieldMetricsRequest asks for a fresh observation of one subfield
type UpdateSubfieldMetricsRequest struct {
	SubfieldID uint `json:"subfield_id" binding:"required"`
	FieldID    uint `json:"field_id" binding:"required"`
}

// GenerateSubfieldRequest asks the generator to propose subfields of a field
type GenerateSubfieldRequest struct {
	FieldName string `json:"fieldName" binding:"required"`
	FieldID   uint   `json:"fieldId" binding:"required"`
}

// GenerateSubInsightRequest asks for a subfield-level insight of one field
type GenerateSubInsightRequest struct {
	FieldID uint `json:"fieldId" binding:"required"`
}

// FeedbackRequest rates a stored insight on a 1-5 scale
type FeedbackRequest struct {
	InsightID    uint   `json:"insight_id" binding:"required"`
	FeedbackText string `json:"feedback_text"`
	Rating       int    `json:"rating" binding:"required,min=1,max=5"`
}

// ModelParametersRequest updates the row named by ParameterID, or inserts a
// new row when ParameterID is absent
type ModelParametersRequest struct {
	ParameterID *uint    `json:"parameter_id"`
	Temperature *float64 `json:"temperature" binding:"required,min=0,max=2"`
	TopP        *float64 `json:"top_p" binding:"required,min=0,max=1"`
}

// PageQuery carries limit/offset pagination
type PageQuery struct {
	Limit  int `form:"limit"`
	Offset int `form:"offset"`
}

// Normalize applies the default page size and clamps negative offsets
func (p PageQuery) Normalize() PageQuery {
	if p.Limit <= 0 {
		p.Limit = 10
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// =============================================================================
// Pipeline results
// =============================================================================

// MetricsUpdateResult is the outcome of a single-entity metrics update
type MetricsUpdateResult struct {
	Kind        EntityKind        `json:"kind"`
	EntityName  string            `json:"entity_name"`
	Observation MetricObservation `json:"observation"`
}

// EntryResult is the outcome of one entry of a batch generation. Error and
// Entry are set only for failed entries.
type EntryResult struct {
	ID      uint               `json:"id,omitempty"`
	Name    string             `json:"name,omitempty"`
	Created bool               `json:"created,omitempty"`
	Metrics *MetricObservation `json:"metrics,omitempty"`
	Error   string             `json:"error,omitempty"`
	Entry   string             `json:"entry,omitempty"`
}

// Failed reports whether the entry was not persisted
func (r EntryResult) Failed() bool {
	return r.Error != ""
}

// GenerationResult summarizes a new-entity batch
type GenerationResult struct {
	Kind         EntityKind    `json:"kind"`
	NoSuggestion bool          `json:"no_suggestion"`
	FieldID      uint          `json:"field_id,omitempty"`
	FieldName    string        `json:"field_name,omitempty"`
	Results      []EntryResult `json:"results"`
	Processed    int           `json:"processed"`
	Succeeded    int           `json:"succeeded"`
}

// InsightResult is the outcome of an insight generation
type InsightResult struct {
	NoMetrics       bool    `json:"no_metrics"`
	InsightID       uint    `json:"insight_id,omitempty"`
	InsightText     string  `json:"insight"`
	ConfidenceScore float64 `json:"confidenceScore"`
	FieldID         *uint   `json:"fieldId,omitempty"`
	FieldName       string  `json:"fieldName,omitempty"`
}

// =============================================================================
// Responses
// =============================================================================

// DataResponse is the envelope for successful reads
type DataResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Count   *int   `json:"count,omitempty"`
	Total   *int64 `json:"total,omitempty"`
	Data    any    `json:"data"`
}

// NewDataResponse wraps data with no counts
func NewDataResponse(data any) DataResponse {
	return DataResponse{Success: true, Data: data}
}

// NewListResponse wraps a list with its length and, when total >= 0, the
// total number of matching rows
func NewListResponse(data any, count int, total int64) DataResponse {
	resp := DataResponse{Success: true, Count: &count, Data: data}
	if total >= 0 {
		resp.Total = &total
	}
	return resp
}

// ErrorResponse represents an error response. Details is omitted in production.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Details string `json:"details,omitempty"`
}
