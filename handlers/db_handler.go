package handlers

import (
	"net/http"

	"techpulse/models"
	"techpulse/services"

	"github.com/gin-gonic/gin"
)

type DBHandler struct {
	taxonomy   *services.TaxonomyService
	metrics    *services.MetricsRepository
	insights   *services.InsightRepository
	parameters *services.ParametersService
}

// NewDBHandler creates a new handler for the read API
func NewDBHandler(
	taxonomy *services.TaxonomyService,
	metrics *services.MetricsRepository,
	insights *services.InsightRepository,
	parameters *services.ParametersService,
) *DBHandler {
	return &DBHandler{
		taxonomy:   taxonomy,
		metrics:    metrics,
		insights:   insights,
		parameters: parameters,
	}
}

// =============================================================================
// Taxonomy
// =============================================================================

// ListFields returns every field
// GET /api/db/fields?includeSubfields=true
func (h *DBHandler) ListFields(c *gin.Context) {
	fields, err := h.taxonomy.ListFields(c.Request.Context(), c.Query("includeSubfields") == "true")
	if err != nil {
		respondError(c, err, "Failed to fetch fields")
		return
	}
	c.JSON(http.StatusOK, models.NewListResponse(fields, len(fields), -1))
}

// GetField returns one field with its subfields
// GET /api/db/fields/:id
func (h *DBHandler) GetField(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	field, err := h.taxonomy.GetField(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to fetch field")
		return
	}
	subfields, err := h.taxonomy.ListSubfields(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to fetch field")
		return
	}
	field.Subfields = subfields
	respondOK(c, field)
}

// ListFieldSubfields returns the subfields of one field
// GET /api/db/fields/:id/subfields
func (h *DBHandler) ListFieldSubfields(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	if _, err := h.taxonomy.GetField(c.Request.Context(), id); err != nil {
		respondError(c, err, "Failed to fetch subfields")
		return
	}

	subfields, err := h.taxonomy.ListSubfields(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to fetch subfields")
		return
	}
	c.JSON(http.StatusOK, models.NewListResponse(subfields, len(subfields), -1))
}

// ListSubfields returns every subfield
// GET /api/db/subfields
func (h *DBHandler) ListSubfields(c *gin.Context) {
	subfields, err := h.taxonomy.ListAllSubfields(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to fetch subfields")
		return
	}
	c.JSON(http.StatusOK, models.NewListResponse(subfields, len(subfields), -1))
}

// GetSubfield returns one subfield
// GET /api/db/subfields/:id
func (h *DBHandler) GetSubfield(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	subfield, err := h.taxonomy.GetSubfield(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to fetch subfield")
		return
	}
	respondOK(c, subfield)
}

// =============================================================================
// Metrics
// =============================================================================

// FieldMetrics returns a page of a field's observations, newest first
// GET /api/db/metrics/field/:id?limit=10&offset=0
func (h *DBHandler) FieldMetrics(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	if _, err := h.taxonomy.GetField(c.Request.Context(), id); err != nil {
		respondError(c, err, "Failed to fetch metrics")
		return
	}
	h.metricsPage(c, id, nil)
}

// FieldMetricsHistory returns every field-level observation, oldest first
// GET /api/db/metrics/field/:id/all
func (h *DBHandler) FieldMetricsHistory(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	if _, err := h.taxonomy.GetField(c.Request.Context(), id); err != nil {
		respondError(c, err, "Failed to fetch metrics")
		return
	}
	h.metricsHistory(c, id, nil)
}

// SubfieldMetrics returns a page of a subfield's observations
// GET /api/db/metrics/subfield/:id?limit=10&offset=0
func (h *DBHandler) SubfieldMetrics(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	if _, err := h.taxonomy.GetSubfield(c.Request.Context(), id); err != nil {
		respondError(c, err, "Failed to fetch metrics")
		return
	}
	h.metricsPage(c, 0, &id)
}

// SubfieldMetricsHistory returns every observation of a subfield
// GET /api/db/metrics/subfield/:id/all
func (h *DBHandler) SubfieldMetricsHistory(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	if _, err := h.taxonomy.GetSubfield(c.Request.Context(), id); err != nil {
		respondError(c, err, "Failed to fetch metrics")
		return
	}
	h.metricsHistory(c, 0, &id)
}

func (h *DBHandler) metricsPage(c *gin.Context, fieldID uint, subfieldID *uint) {
	var page models.PageQuery
	if err := c.ShouldBindQuery(&page); err != nil {
		respondBadRequest(c, err)
		return
	}

	rows, total, err := h.metrics.Page(c.Request.Context(), fieldID, subfieldID, page)
	if err != nil {
		respondError(c, err, "Failed to fetch metrics")
		return
	}
	c.JSON(http.StatusOK, models.NewListResponse(rows, len(rows), total))
}

func (h *DBHandler) metricsHistory(c *gin.Context, fieldID uint, subfieldID *uint) {
	rows, err := h.metrics.History(c.Request.Context(), fieldID, subfieldID)
	if err != nil {
		respondError(c, err, "Failed to fetch metrics")
		return
	}
	c.JSON(http.StatusOK, models.NewListResponse(rows, len(rows), -1))
}

// RadarData returns the latest observation per field and subfield
// GET /api/db/radar-data?fieldId=1
func (h *DBHandler) RadarData(c *gin.Context) {
	fieldID, ok := optionalUintQuery(c, "fieldId")
	if !ok {
		return
	}

	points, err := h.metrics.Radar(c.Request.Context(), fieldID)
	if err != nil {
		respondError(c, err, "Failed to fetch radar data")
		return
	}
	c.JSON(http.StatusOK, models.NewListResponse(points, len(points), -1))
}

// =============================================================================
// Insights and Feedback
// =============================================================================

// ListInsights returns a page of insights, newest first
// GET /api/db/insights?fieldId=1&limit=10&offset=0
func (h *DBHandler) ListInsights(c *gin.Context) {
	fieldID, ok := optionalUintQuery(c, "fieldId")
	if !ok {
		return
	}
	var page models.PageQuery
	if err := c.ShouldBindQuery(&page); err != nil {
		respondBadRequest(c, err)
		return
	}

	insights, total, err := h.insights.List(c.Request.Context(), fieldID, page)
	if err != nil {
		respondError(c, err, "Failed to fetch insights")
		return
	}
	c.JSON(http.StatusOK, models.NewListResponse(insights, len(insights), total))
}

// CreateFeedback rates an insight
// POST /api/db/feedback {"insight_id": 1, "feedback_text": "...", "rating": 4}
func (h *DBHandler) CreateFeedback(c *gin.Context) {
	var req models.FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	feedback, err := h.insights.CreateFeedback(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "Failed to save feedback")
		return
	}
	c.JSON(http.StatusCreated, models.NewDataResponse(feedback))
}

// =============================================================================
// Model Parameters
// =============================================================================

// GetModelParameters returns the active sampling parameters as a list of
// zero or one rows
// GET /api/db/model-parameters
func (h *DBHandler) GetModelParameters(c *gin.Context) {
	params, err := h.parameters.Latest(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to fetch model parameters")
		return
	}

	rows := []models.ModelParameters{}
	if params != nil {
		rows = append(rows, *params)
	}
	c.JSON(http.StatusOK, models.NewListResponse(rows, len(rows), -1))
}

// UpdateModelParameters updates or inserts sampling parameters
// PUT /api/db/model-parameters {"parameter_id": 1, "temperature": 0.7, "top_p": 1}
func (h *DBHandler) UpdateModelParameters(c *gin.Context) {
	var req models.ModelParametersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	params, err := h.parameters.Upsert(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "Failed to update model parameters")
		return
	}
	respondOK(c, params)
}
