package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"techpulse/models"

	"github.com/gin-gonic/gin"
)

// productionKey marks requests served in production; error details are
// withheld from those responses
const productionKey = "techpulse.production"

// =============================================================================
// Response Helpers
// =============================================================================

// respondWithError sends a standardized error response. The cause is
// attached to the context for the request logger and, outside production,
// echoed in details.
func respondWithError(c *gin.Context, code int, message string, cause error) {
	resp := models.ErrorResponse{
		Success: false,
		Error:   message,
		Code:    code,
	}
	if cause != nil {
		_ = c.Error(cause)
		if !c.GetBool(productionKey) {
			resp.Details = cause.Error()
		}
	}
	c.JSON(code, resp)
}

// respondBadRequest sends a 400 error response
func respondBadRequest(c *gin.Context, cause error) {
	respondWithError(c, http.StatusBadRequest, "Invalid request", cause)
}

// respondError maps a service error to its status. message is the stable
// text used for server-side failures.
func respondError(c *gin.Context, err error, message string) {
	var (
		validation *models.ValidationError
		notFound   *models.NotFoundError
	)
	switch {
	case errors.As(err, &validation):
		respondBadRequest(c, err)
	case errors.As(err, &notFound):
		respondWithError(c, http.StatusNotFound, notFound.Error(), nil)
	default:
		respondWithError(c, http.StatusInternalServerError, message, err)
	}
}

// respondOK wraps data in the success envelope
func respondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, models.NewDataResponse(data))
}

// =============================================================================
// Parameter Helpers
// =============================================================================

// uintParam reads a positive integer path parameter, answering 400 otherwise
func uintParam(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		respondBadRequest(c, &models.ValidationError{Field: name, Message: "must be a positive integer"})
		return 0, false
	}
	return uint(v), true
}

// optionalUintQuery reads an optional positive integer query parameter
func optionalUintQuery(c *gin.Context, name string) (*uint, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || v == 0 {
		respondBadRequest(c, &models.ValidationError{Field: name, Message: "must be a positive integer"})
		return nil, false
	}
	id := uint(v)
	return &id, true
}
