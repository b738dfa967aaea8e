package services

import (
	"context"
	"time"

	"techpulse/models"

	"gorm.io/gorm"
)

// InsightRepository stores generated insights and their feedback
type InsightRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewInsightRepository creates a new insight repository instance
func NewInsightRepository(db *gorm.DB) *InsightRepository {
	return &InsightRepository{db: db, now: time.Now}
}

// WithClock replaces the clock used to stamp generated_at and created_at
func (r *InsightRepository) WithClock(now func() time.Time) *InsightRepository {
	r.now = now
	return r
}

// Latest returns the newest insight of the scope (nil = global), or nil
func (r *InsightRepository) Latest(ctx context.Context, fieldID *uint) (*models.Insight, error) {
	var insight models.Insight
	res := newestInsightsFirst(scopeInsights(r.db.WithContext(ctx).Model(&models.Insight{}), fieldID)).
		Limit(1).
		Find(&insight)
	if res.Error != nil {
		return nil, persistenceErr("read latest insight", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &insight, nil
}

// Insert appends an insight stamped with the current time
func (r *InsightRepository) Insert(ctx context.Context, insight *models.Insight) error {
	insight.ID = 0
	insight.GeneratedAt = r.now().UTC()
	if err := r.db.WithContext(ctx).Create(insight).Error; err != nil {
		return persistenceErr("insert insight", err)
	}
	return nil
}

// List returns a page of insights, newest first. A nil fieldID lists every
// insight regardless of scope.
func (r *InsightRepository) List(ctx context.Context, fieldID *uint, page models.PageQuery) ([]models.Insight, int64, error) {
	base := func() *gorm.DB {
		query := r.db.WithContext(ctx).Model(&models.Insight{})
		if fieldID != nil {
			query = scopeInsights(query, fieldID)
		}
		return query
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, persistenceErr("count insights", err)
	}

	var insights []models.Insight
	if err := paginate(newestInsightsFirst(base()), page).Find(&insights).Error; err != nil {
		return nil, 0, persistenceErr("list insights", err)
	}
	return insights, total, nil
}

// CreateFeedback records a rating for an existing insight
func (r *InsightRepository) CreateFeedback(ctx context.Context, req models.FeedbackRequest) (*models.Feedback, error) {
	db := r.db.WithContext(ctx)

	var insight models.Insight
	if err := db.Select("insight_id").First(&insight, "insight_id = ?", req.InsightID).Error; err != nil {
		return nil, notFoundOr(err, "Insight", req.InsightID, "get insight")
	}

	feedback := models.Feedback{
		InsightID:    req.InsightID,
		FeedbackText: req.FeedbackText,
		Rating:       req.Rating,
		CreatedAt:    r.now().UTC(),
	}
	if err := db.Create(&feedback).Error; err != nil {
		return nil, persistenceErr("create feedback", err)
	}
	return &feedback, nil
}
