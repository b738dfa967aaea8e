package services

import (
	"errors"

	"techpulse/models"

	"gorm.io/gorm"
)

// =============================================================================
// Scope Helpers - Reusable Query Conditions
// =============================================================================

// scopeObservations restricts a metrics query to one field's field-level rows
// or, when subfieldID is set, to one subfield's rows. A nil subfieldID means
// "field-level only", never "any subfield".
func scopeObservations(query *gorm.DB, fieldID uint, subfieldID *uint) *gorm.DB {
	if subfieldID == nil {
		return query.Where("field_id = ? AND subfield_id IS NULL", fieldID)
	}
	if fieldID == 0 {
		return query.Where("subfield_id = ?", *subfieldID)
	}
	return query.Where("field_id = ? AND subfield_id = ?", fieldID, *subfieldID)
}

// scopeInsights restricts an insight query to global rows (nil) or one field
func scopeInsights(query *gorm.DB, fieldID *uint) *gorm.DB {
	if fieldID == nil {
		return query.Where("field_id IS NULL")
	}
	return query.Where("field_id = ?", *fieldID)
}

// =============================================================================
// Ordering and Paging Helpers
// =============================================================================

// newestObservationsFirst orders observations by date with id as tie-breaker
func newestObservationsFirst(query *gorm.DB) *gorm.DB {
	return query.Order("metric_date DESC").Order("metric_id DESC")
}

func oldestObservationsFirst(query *gorm.DB) *gorm.DB {
	return query.Order("metric_date ASC").Order("metric_id ASC")
}

func newestInsightsFirst(query *gorm.DB) *gorm.DB {
	return query.Order("generated_at DESC").Order("insight_id DESC")
}

// paginate applies a normalized limit/offset
func paginate(query *gorm.DB, page models.PageQuery) *gorm.DB {
	page = page.Normalize()
	return query.Limit(page.Limit).Offset(page.Offset)
}

// =============================================================================
// Error Helpers
// =============================================================================

// persistenceErr wraps a store failure; nil stays nil
func persistenceErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &models.PersistenceError{Op: op, Err: err}
}

// notFoundOr maps gorm's record-not-found to a NotFoundError and anything
// else to a PersistenceError
func notFoundOr(err error, entity string, id any, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.NotFoundError{Entity: entity, ID: id}
	}
	return persistenceErr(op, err)
}
