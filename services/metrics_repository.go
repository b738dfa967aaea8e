package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"techpulse/models"
	"techpulse/utils"

	"gorm.io/gorm"
)

// recentPerEntitySQL ranks observations within each entity, newest first.
// Both Postgres and SQLite (3.25+) support window functions.
const recentPerEntitySQL = `
SELECT * FROM (
	SELECT tm.*,
		ROW_NUMBER() OVER (PARTITION BY %s ORDER BY tm.metric_date DESC, tm.metric_id DESC) AS rn
	FROM timed_metrics tm
	WHERE %s
) ranked
WHERE rn <= ?
ORDER BY %s, metric_date DESC, metric_id DESC`

// MetricsRepository reads and appends metric observations
type MetricsRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewMetricsRepository creates a repository stamping rows with the wall clock
func NewMetricsRepository(db *gorm.DB) *MetricsRepository {
	return &MetricsRepository{db: db, now: time.Now}
}

// WithClock replaces the clock used to stamp metric_date
func (r *MetricsRepository) WithClock(now func() time.Time) *MetricsRepository {
	r.now = now
	return r
}

// Latest returns the newest observation for the scope, or nil if none exist
func (r *MetricsRepository) Latest(ctx context.Context, fieldID uint, subfieldID *uint) (*models.MetricObservation, error) {
	rows, err := r.Recent(ctx, fieldID, subfieldID, 1)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return &rows[0], nil
}

// Recent returns up to limit observations for the scope, newest first
func (r *MetricsRepository) Recent(ctx context.Context, fieldID uint, subfieldID *uint, limit int) ([]models.MetricObservation, error) {
	var rows []models.MetricObservation
	query := scopeObservations(r.db.WithContext(ctx).Model(&models.MetricObservation{}), fieldID, subfieldID)
	if err := newestObservationsFirst(query).Limit(limit).Find(&rows).Error; err != nil {
		return nil, persistenceErr("read observations", err)
	}
	return rows, nil
}

// Insert appends an observation. metric_date is always stamped here.
func (r *MetricsRepository) Insert(ctx context.Context, obs *models.MetricObservation) error {
	obs.ID = 0
	obs.MetricDate = r.now().UTC()
	if err := r.db.WithContext(ctx).Create(obs).Error; err != nil {
		return persistenceErr("insert observation", err)
	}
	return nil
}

// Page returns one page of the scope's observations, newest first, with the
// total row count
func (r *MetricsRepository) Page(ctx context.Context, fieldID uint, subfieldID *uint, page models.PageQuery) ([]models.MetricObservation, int64, error) {
	base := func() *gorm.DB {
		return scopeObservations(r.db.WithContext(ctx).Model(&models.MetricObservation{}), fieldID, subfieldID)
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, persistenceErr("count observations", err)
	}

	var rows []models.MetricObservation
	if err := paginate(newestObservationsFirst(base()), page).Find(&rows).Error; err != nil {
		return nil, 0, persistenceErr("read observations", err)
	}
	return rows, total, nil
}

// History returns every observation for the scope, oldest first
func (r *MetricsRepository) History(ctx context.Context, fieldID uint, subfieldID *uint) ([]models.MetricObservation, error) {
	var rows []models.MetricObservation
	query := scopeObservations(r.db.WithContext(ctx).Model(&models.MetricObservation{}), fieldID, subfieldID)
	if err := oldestObservationsFirst(query).Find(&rows).Error; err != nil {
		return nil, persistenceErr("read observation history", err)
	}
	return rows, nil
}

// RecentPerEntity returns up to perEntity newest observations for every
// entity of the kind. For subfields the result is limited to fieldID's
// subfields. Rows are grouped by entity id, newest first within a group.
func (r *MetricsRepository) RecentPerEntity(ctx context.Context, kind models.EntityKind, fieldID uint, perEntity int) ([]models.MetricObservation, error) {
	var (
		rows []models.MetricObservation
		sql  string
		args []any
	)
	if kind == models.KindSubfield {
		sql = fmt.Sprintf(recentPerEntitySQL, "tm.subfield_id", "tm.field_id = ? AND tm.subfield_id IS NOT NULL", "subfield_id")
		args = []any{fieldID, perEntity}
	} else {
		sql = fmt.Sprintf(recentPerEntitySQL, "tm.field_id", "tm.subfield_id IS NULL", "field_id")
		args = []any{perEntity}
	}

	if err := r.db.WithContext(ctx).Raw(sql, args...).Scan(&rows).Error; err != nil {
		return nil, persistenceErr("read recent observations", err)
	}
	return rows, nil
}

// Growth groups rows from RecentPerEntity by entity and computes the growth
// of each metric between the two newest rows. Entities with a single row get
// zero growth. names maps entity id to display name.
func Growth(kind models.EntityKind, rows []models.MetricObservation, names map[uint]string) []models.EntityGrowth {
	grouped := make(map[uint][]models.MetricObservation)
	var order []uint
	for _, row := range rows {
		id := row.FieldID
		if kind == models.KindSubfield && row.SubfieldID != nil {
			id = *row.SubfieldID
		}
		if _, seen := grouped[id]; !seen {
			order = append(order, id)
		}
		grouped[id] = append(grouped[id], row)
	}
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })

	out := make([]models.EntityGrowth, 0, len(order))
	for _, id := range order {
		obs := grouped[id]
		g := models.EntityGrowth{EntityID: id, EntityName: names[id], Current: obs[0]}
		if len(obs) > 1 {
			rates := utils.GrowthRates(
				[3]float64{obs[0].Metric1, obs[0].Metric2, obs[0].Metric3},
				[3]float64{obs[1].Metric1, obs[1].Metric2, obs[1].Metric3},
			)
			g.Growth1, g.Growth2, g.Growth3 = rates[0], rates[1], rates[2]
		}
		out = append(out, g)
	}
	return out
}

// =============================================================================
// Radar
// =============================================================================

// Radar returns the latest observation per field and subfield. Without a
// field filter every field appears: once per subfield (subfield metrics,
// falling back to the field's own) or once on its own if it has none. With
// a filter only that field's subfields that have observations appear.
func (r *MetricsRepository) Radar(ctx context.Context, fieldID *uint) ([]models.RadarPoint, error) {
	db := r.db.WithContext(ctx)

	var fields []models.Field
	fieldQuery := db.Order("field_name").Preload("Subfields", func(q *gorm.DB) *gorm.DB {
		return q.Order("subfield_name")
	})
	if fieldID != nil {
		fieldQuery = fieldQuery.Where("field_id = ?", *fieldID)
	}
	if err := fieldQuery.Find(&fields).Error; err != nil {
		return nil, persistenceErr("read radar fields", err)
	}

	fieldLatest, err := r.latestBy(ctx, models.KindField, 0)
	if err != nil {
		return nil, err
	}
	var subLatest map[uint]models.MetricObservation
	if fieldID != nil {
		subLatest, err = r.latestBy(ctx, models.KindSubfield, *fieldID)
	} else {
		subLatest, err = r.latestAllSubfields(ctx)
	}
	if err != nil {
		return nil, err
	}

	points := make([]models.RadarPoint, 0)
	for _, f := range fields {
		if fieldID != nil {
			for _, s := range f.Subfields {
				if obs, ok := subLatest[s.ID]; ok {
					points = append(points, radarPoint(f, &s, &obs))
				}
			}
			continue
		}

		var own *models.MetricObservation
		if obs, ok := fieldLatest[f.ID]; ok {
			own = &obs
		}
		if len(f.Subfields) == 0 {
			points = append(points, radarPoint(f, nil, own))
			continue
		}
		for _, s := range f.Subfields {
			if obs, ok := subLatest[s.ID]; ok {
				points = append(points, radarPoint(f, &s, &obs))
			} else {
				points = append(points, radarPoint(f, &s, own))
			}
		}
	}
	return points, nil
}

func (r *MetricsRepository) latestBy(ctx context.Context, kind models.EntityKind, fieldID uint) (map[uint]models.MetricObservation, error) {
	rows, err := r.RecentPerEntity(ctx, kind, fieldID, 1)
	if err != nil {
		return nil, err
	}
	out := make(map[uint]models.MetricObservation, len(rows))
	for _, row := range rows {
		if kind == models.KindSubfield {
			out[*row.SubfieldID] = row
		} else {
			out[row.FieldID] = row
		}
	}
	return out, nil
}

func (r *MetricsRepository) latestAllSubfields(ctx context.Context) (map[uint]models.MetricObservation, error) {
	var rows []models.MetricObservation
	sql := fmt.Sprintf(recentPerEntitySQL, "tm.subfield_id", "tm.subfield_id IS NOT NULL", "subfield_id")
	if err := r.db.WithContext(ctx).Raw(sql, 1).Scan(&rows).Error; err != nil {
		return nil, persistenceErr("read recent observations", err)
	}
	out := make(map[uint]models.MetricObservation, len(rows))
	for _, row := range rows {
		out[*row.SubfieldID] = row
	}
	return out, nil
}

func radarPoint(f models.Field, s *models.Subfield, obs *models.MetricObservation) models.RadarPoint {
	p := models.RadarPoint{
		FieldID:          f.ID,
		FieldName:        f.Name,
		FieldDescription: f.Description,
	}
	if s != nil {
		id, name, desc := s.ID, s.Name, s.Description
		p.SubfieldID, p.SubfieldName, p.SubfieldDescription = &id, &name, &desc
	}
	if obs != nil {
		m1, m2, m3 := obs.Metric1, obs.Metric2, obs.Metric3
		rationale, source, date := obs.Rationale, obs.Source, obs.MetricDate
		p.Metric1, p.Metric2, p.Metric3 = &m1, &m2, &m3
		p.Rationale, p.Source, p.MetricDate = &rationale, &source, &date
	}
	return p
}
