package handlers

import (
	"net/http"

	"techpulse/models"
	"techpulse/services"

	"github.com/gin-gonic/gin"
)

type AIHandler struct {
	orchestrator *services.InsightOrchestrator
}

// NewAIHandler creates a new AI handler
func NewAIHandler(orchestrator *services.InsightOrchestrator) *AIHandler {
	return &AIHandler{
		orchestrator: orchestrator,
	}
}

// UpdateMetrics re-scores one field
// POST /api/ai/update-metrics {"field_id": 1}
func (h *AIHandler) UpdateMetrics(c *gin.Context) {
	var req models.UpdateMetricsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	result, err := h.orchestrator.UpdateMetrics(c.Request.Context(), req.FieldID)
	if err != nil {
		respondError(c, err, "Failed to update metrics")
		return
	}
	respondOK(c, result)
}

// UpdateSubfieldMetrics re-scores one subfield of a field
// POST /api/ai/update-subfield-metrics {"subfield_id": 3, "field_id": 1}
func (h *AIHandler) UpdateSubfieldMetrics(c *gin.Context) {
	var req models.UpdateSubfieldMetricsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	result, err := h.orchestrator.UpdateSubfieldMetrics(c.Request.Context(), req.SubfieldID, req.FieldID)
	if err != nil {
		respondError(c, err, "Failed to update subfield metrics")
		return
	}
	respondOK(c, result)
}

// GenerateField proposes new fields
// POST /api/ai/generate-field
func (h *AIHandler) GenerateField(c *gin.Context) {
	result, err := h.orchestrator.GenerateNewField(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to generate fields")
		return
	}
	respondGeneration(c, result, "No new fields suggested")
}

// GenerateSubfield proposes new subfields of a field
// POST /api/ai/generate-subfield {"fieldName": "...", "fieldId": 1}
func (h *AIHandler) GenerateSubfield(c *gin.Context) {
	var req models.GenerateSubfieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	result, err := h.orchestrator.GenerateNewSubfield(c.Request.Context(), req.FieldName, req.FieldID)
	if err != nil {
		respondError(c, err, "Failed to generate subfields")
		return
	}
	respondGeneration(c, result, "No new subfields suggested")
}

func respondGeneration(c *gin.Context, result *models.GenerationResult, noSuggestion string) {
	resp := models.NewDataResponse(result)
	if result.NoSuggestion {
		resp.Message = noSuggestion
	} else {
		resp.Message = "Generation complete"
	}
	c.JSON(http.StatusOK, resp)
}

// GenerateInsight writes a cross-field insight
// POST /api/ai/generate-insight
func (h *AIHandler) GenerateInsight(c *gin.Context) {
	result, err := h.orchestrator.GenerateInsight(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to generate insight")
		return
	}
	respondInsight(c, result)
}

// GenerateSubInsight writes an insight across one field's subfields
// POST /api/ai/generate-sub-insight {"fieldId": 1}
func (h *AIHandler) GenerateSubInsight(c *gin.Context) {
	var req models.GenerateSubInsightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	result, err := h.orchestrator.GenerateSubInsight(c.Request.Context(), req.FieldID)
	if err != nil {
		respondError(c, err, "Failed to generate subfield insight")
		return
	}
	respondInsight(c, result)
}

func respondInsight(c *gin.Context, result *models.InsightResult) {
	resp := models.NewDataResponse(result)
	if result.NoMetrics {
		resp.Message = "No metrics available"
	}
	c.JSON(http.StatusOK, resp)
}
