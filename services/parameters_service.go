package services

import (
	"context"
	"time"

	"techpulse/config"
	"techpulse/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ParametersService manages the stored sampling parameters
type ParametersService struct {
	db       *gorm.DB
	defaults config.AIDefaults
	logger   *zap.Logger
	now      func() time.Time
}

// NewParametersService creates a new parameters service instance
func NewParametersService(db *gorm.DB, defaults config.AIDefaults, logger *zap.Logger) *ParametersService {
	return &ParametersService{db: db, defaults: defaults, logger: logger, now: time.Now}
}

// Latest returns the most recently created row, or nil if the table is empty
func (s *ParametersService) Latest(ctx context.Context) (*models.ModelParameters, error) {
	var params models.ModelParameters
	res := s.db.WithContext(ctx).
		Order("created_at DESC").
		Order("parameter_id DESC").
		Limit(1).
		Find(&params)
	if res.Error != nil {
		return nil, persistenceErr("read model parameters", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &params, nil
}

// Sampling resolves the parameters for a metrics update: the latest stored
// row, or the configured defaults when none is stored
func (s *ParametersService) Sampling(ctx context.Context) (SamplingParams, error) {
	params := SamplingParams{
		Model:       s.defaults.Model,
		Temperature: s.defaults.Temperature,
		TopP:        s.defaults.TopP,
		MaxTokens:   s.defaults.MaxTokens,
	}

	stored, err := s.Latest(ctx)
	if err != nil {
		return SamplingParams{}, err
	}
	if stored == nil {
		s.logger.Debug("No stored model parameters, using defaults")
		return params, nil
	}
	params.Temperature = stored.Temperature
	params.TopP = stored.TopP
	return params, nil
}

// Upsert updates the row named by req.ParameterID or inserts a new row.
// Either way the written row becomes the latest.
func (s *ParametersService) Upsert(ctx context.Context, req models.ModelParametersRequest) (*models.ModelParameters, error) {
	if req.Temperature == nil {
		return nil, &models.ValidationError{Field: "temperature", Message: "is required"}
	}
	if req.TopP == nil {
		return nil, &models.ValidationError{Field: "top_p", Message: "is required"}
	}

	db := s.db.WithContext(ctx)
	now := s.now().UTC()

	if req.ParameterID == nil {
		params := models.ModelParameters{Temperature: *req.Temperature, TopP: *req.TopP, CreatedAt: now}
		if err := db.Create(&params).Error; err != nil {
			return nil, persistenceErr("create model parameters", err)
		}
		s.logger.Info("Model parameters created", zap.Uint("parameter_id", params.ID))
		return &params, nil
	}

	var params models.ModelParameters
	if err := db.First(&params, "parameter_id = ?", *req.ParameterID).Error; err != nil {
		return nil, notFoundOr(err, "ModelParameters", *req.ParameterID, "get model parameters")
	}
	params.Temperature = *req.Temperature
	params.TopP = *req.TopP
	params.CreatedAt = now
	if err := db.Save(&params).Error; err != nil {
		return nil, persistenceErr("update model parameters", err)
	}
	s.logger.Info("Model parameters updated", zap.Uint("parameter_id", params.ID))
	return &params, nil
}
