package services

import (
	"context"
	"strings"

	"techpulse/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TaxonomyService reads and extends the field/subfield taxonomy
type TaxonomyService struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewTaxonomyService creates a new taxonomy service instance
func NewTaxonomyService(db *gorm.DB, logger *zap.Logger) *TaxonomyService {
	return &TaxonomyService{db: db, logger: logger}
}

// ListFields returns every field ordered by name
func (s *TaxonomyService) ListFields(ctx context.Context, includeSubfields bool) ([]models.Field, error) {
	query := s.db.WithContext(ctx).Order("field_name")
	if includeSubfields {
		query = query.Preload("Subfields", func(db *gorm.DB) *gorm.DB {
			return db.Order("subfield_name")
		})
	}

	var fields []models.Field
	if err := query.Find(&fields).Error; err != nil {
		return nil, persistenceErr("list fields", err)
	}
	return fields, nil
}

// GetField returns one field or a NotFoundError
func (s *TaxonomyService) GetField(ctx context.Context, id uint) (*models.Field, error) {
	var field models.Field
	if err := s.db.WithContext(ctx).First(&field, "field_id = ?", id).Error; err != nil {
		return nil, notFoundOr(err, "Field", id, "get field")
	}
	return &field, nil
}

// ListSubfields returns a field's subfields ordered by name
func (s *TaxonomyService) ListSubfields(ctx context.Context, fieldID uint) ([]models.Subfield, error) {
	var subfields []models.Subfield
	err := s.db.WithContext(ctx).Where("field_id = ?", fieldID).Order("subfield_name").Find(&subfields).Error
	if err != nil {
		return nil, persistenceErr("list subfields", err)
	}
	return subfields, nil
}

// ListAllSubfields returns every subfield grouped by owning field
func (s *TaxonomyService) ListAllSubfields(ctx context.Context) ([]models.Subfield, error) {
	var subfields []models.Subfield
	err := s.db.WithContext(ctx).Order("field_id").Order("subfield_name").Find(&subfields).Error
	if err != nil {
		return nil, persistenceErr("list subfields", err)
	}
	return subfields, nil
}

// GetSubfield returns one subfield or a NotFoundError
func (s *TaxonomyService) GetSubfield(ctx context.Context, id uint) (*models.Subfield, error) {
	var subfield models.Subfield
	if err := s.db.WithContext(ctx).First(&subfield, "subfield_id = ?", id).Error; err != nil {
		return nil, notFoundOr(err, "Subfield", id, "get subfield")
	}
	return &subfield, nil
}

// GetSubfieldOfField returns the subfield only if it belongs to fieldID
func (s *TaxonomyService) GetSubfieldOfField(ctx context.Context, subfieldID, fieldID uint) (*models.Subfield, error) {
	var subfield models.Subfield
	err := s.db.WithContext(ctx).
		Where("subfield_id = ? AND field_id = ?", subfieldID, fieldID).
		First(&subfield).Error
	if err != nil {
		return nil, notFoundOr(err, "Subfield", subfieldID, "get subfield")
	}
	return &subfield, nil
}

// FieldNames returns every field name ordered by id
func (s *TaxonomyService) FieldNames(ctx context.Context) ([]string, error) {
	var names []string
	err := s.db.WithContext(ctx).Model(&models.Field{}).Order("field_id").Pluck("field_name", &names).Error
	if err != nil {
		return nil, persistenceErr("list field names", err)
	}
	return names, nil
}

// SubfieldNames returns the names of a field's subfields ordered by id
func (s *TaxonomyService) SubfieldNames(ctx context.Context, fieldID uint) ([]string, error) {
	var names []string
	err := s.db.WithContext(ctx).Model(&models.Subfield{}).
		Where("field_id = ?", fieldID).
		Order("subfield_id").
		Pluck("subfield_name", &names).Error
	if err != nil {
		return nil, persistenceErr("list subfield names", err)
	}
	return names, nil
}

// =============================================================================
// Upserts
// =============================================================================

// UpsertField returns the field named name, creating it if absent.
// Lookup is by exact name first. The insert ignores conflicts with the
// case-insensitive unique index; a conflict means another writer (or a case
// variant) got there first, and that row is reused.
func (s *TaxonomyService) UpsertField(ctx context.Context, name, description string) (*models.Field, bool, error) {
	db := s.db.WithContext(ctx)

	var existing models.Field
	res := db.Where("field_name = ?", name).Limit(1).Find(&existing)
	if res.Error != nil {
		return nil, false, persistenceErr("look up field", res.Error)
	}
	if res.RowsAffected > 0 {
		return &existing, false, nil
	}

	field := models.Field{Name: name, Description: description}
	res = db.Clauses(clause.OnConflict{DoNothing: true}).Create(&field)
	if res.Error != nil {
		return nil, false, persistenceErr("create field", res.Error)
	}
	if res.RowsAffected > 0 {
		s.logger.Info("Created field", zap.Uint("field_id", field.ID), zap.String("field_name", field.Name))
		return &field, true, nil
	}

	res = db.Where("lower(field_name) = ?", strings.ToLower(name)).Limit(1).Find(&existing)
	if res.Error != nil {
		return nil, false, persistenceErr("look up field", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, false, persistenceErr("create field", gorm.ErrRecordNotFound)
	}
	s.logger.Info("Reusing field after name conflict",
		zap.Uint("field_id", existing.ID),
		zap.String("requested", name),
		zap.String("stored", existing.Name),
	)
	return &existing, false, nil
}

// UpsertSubfield is UpsertField scoped to one owning field
func (s *TaxonomyService) UpsertSubfield(ctx context.Context, fieldID uint, name, description string) (*models.Subfield, bool, error) {
	db := s.db.WithContext(ctx)

	var existing models.Subfield
	res := db.Where("subfield_name = ? AND field_id = ?", name, fieldID).Limit(1).Find(&existing)
	if res.Error != nil {
		return nil, false, persistenceErr("look up subfield", res.Error)
	}
	if res.RowsAffected > 0 {
		return &existing, false, nil
	}

	subfield := models.Subfield{FieldID: fieldID, Name: name, Description: description}
	res = db.Clauses(clause.OnConflict{DoNothing: true}).Create(&subfield)
	if res.Error != nil {
		return nil, false, persistenceErr("create subfield", res.Error)
	}
	if res.RowsAffected > 0 {
		s.logger.Info("Created subfield",
			zap.Uint("subfield_id", subfield.ID),
			zap.Uint("field_id", fieldID),
			zap.String("subfield_name", subfield.Name),
		)
		return &subfield, true, nil
	}

	res = db.Where("field_id = ? AND lower(subfield_name) = ?", fieldID, strings.ToLower(name)).Limit(1).Find(&existing)
	if res.Error != nil {
		return nil, false, persistenceErr("look up subfield", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, false, persistenceErr("create subfield", gorm.ErrRecordNotFound)
	}
	return &existing, false, nil
}
