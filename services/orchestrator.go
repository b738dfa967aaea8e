package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"techpulse/config"
	"techpulse/models"
	"techpulse/parser"
	"techpulse/prompts"

	"go.uber.org/zap"
)

const noArticles = "No recent articles available."

// TextGenerator turns a resolved prompt into generated text
type TextGenerator interface {
	Generate(ctx context.Context, prompt string, params SamplingParams) (string, error)
}

// OrchestratorDeps are the collaborators of the insight pipeline
type OrchestratorDeps struct {
	Taxonomy   *TaxonomyService
	Metrics    *MetricsRepository
	Insights   *InsightRepository
	Parameters *ParametersService
	Corpus     *ArticleCorpus
	Prompts    *prompts.Store
	Generator  TextGenerator
	Sink       InsightSink // optional
}

// OrchestratorConfig holds the explicit defaults threaded into the pipeline
type OrchestratorConfig struct {
	AI                  config.AIDefaults
	ArticlesPerField    int
	ArticlesPerSubfield int
}

// InsightOrchestrator sequences the metrics, new-entity and insight pipelines.
// It holds no state between requests.
type InsightOrchestrator struct {
	deps   OrchestratorDeps
	cfg    OrchestratorConfig
	logger *zap.Logger
}

// NewInsightOrchestrator creates a new orchestrator instance
func NewInsightOrchestrator(deps OrchestratorDeps, cfg OrchestratorConfig, logger *zap.Logger) *InsightOrchestrator {
	return &InsightOrchestrator{deps: deps, cfg: cfg, logger: logger}
}

// deterministicParams are used for new-entity and insight generation
func (o *InsightOrchestrator) deterministicParams() SamplingParams {
	return SamplingParams{
		Model:       o.cfg.AI.Model,
		Temperature: 0,
		TopP:        1,
		MaxTokens:   o.cfg.AI.MaxTokens,
	}
}

// =============================================================================
// Update Metrics
// =============================================================================

// UpdateMetrics asks the generator to re-score one field and stores the
// result as a new field-level observation
func (o *InsightOrchestrator) UpdateMetrics(ctx context.Context, fieldID uint) (*models.MetricsUpdateResult, error) {
	if fieldID == 0 {
		return nil, &models.ValidationError{Field: "field_id", Message: "is required"}
	}

	field, err := o.deps.Taxonomy.GetField(ctx, fieldID)
	if err != nil {
		return nil, err
	}
	latest, err := o.deps.Metrics.Latest(ctx, fieldID, nil)
	if err != nil {
		return nil, err
	}
	articles, err := o.deps.Corpus.ForField(ctx, field.Name, o.cfg.ArticlesPerField)
	if err != nil {
		return nil, err
	}

	obs, err := o.updateEntity(ctx, parser.KindField, field.Name, latest, articles)
	if err != nil {
		return nil, err
	}
	obs.FieldID = fieldID
	if err := o.deps.Metrics.Insert(ctx, obs); err != nil {
		return nil, err
	}

	o.logger.Info("Field metrics updated", zap.Uint("field_id", fieldID), zap.Uint("metric_id", obs.ID))
	return &models.MetricsUpdateResult{Kind: models.KindField, EntityName: field.Name, Observation: *obs}, nil
}

// UpdateSubfieldMetrics is UpdateMetrics for a subfield of fieldID
func (o *InsightOrchestrator) UpdateSubfieldMetrics(ctx context.Context, subfieldID, fieldID uint) (*models.MetricsUpdateResult, error) {
	if subfieldID == 0 {
		return nil, &models.ValidationError{Field: "subfield_id", Message: "is required"}
	}
	if fieldID == 0 {
		return nil, &models.ValidationError{Field: "field_id", Message: "is required"}
	}

	subfield, err := o.deps.Taxonomy.GetSubfieldOfField(ctx, subfieldID, fieldID)
	if err != nil {
		return nil, err
	}
	latest, err := o.deps.Metrics.Latest(ctx, fieldID, &subfieldID)
	if err != nil {
		return nil, err
	}
	articles, err := o.deps.Corpus.ForSubfield(ctx, subfieldID, o.cfg.ArticlesPerSubfield)
	if err != nil {
		return nil, err
	}

	obs, err := o.updateEntity(ctx, parser.KindSubfield, subfield.Name, latest, articles)
	if err != nil {
		return nil, err
	}
	obs.FieldID = fieldID
	obs.SubfieldID = &subfieldID
	if err := o.deps.Metrics.Insert(ctx, obs); err != nil {
		return nil, err
	}

	o.logger.Info("Subfield metrics updated",
		zap.Uint("field_id", fieldID),
		zap.Uint("subfield_id", subfieldID),
		zap.Uint("metric_id", obs.ID),
	)
	return &models.MetricsUpdateResult{Kind: models.KindSubfield, EntityName: subfield.Name, Observation: *obs}, nil
}

// updateEntity builds the prompt, generates and parses. Nothing is written.
func (o *InsightOrchestrator) updateEntity(ctx context.Context, kind parser.Kind, name string, latest *models.MetricObservation, articles []models.Article) (*models.MetricObservation, error) {
	params, err := o.deps.Parameters.Sampling(ctx)
	if err != nil {
		return nil, err
	}

	label := string(kind) + "_name"
	prompt, err := o.deps.Prompts.Render(prompts.UpdateMetrics,
		prompts.PlaceholderEntityKind, string(kind),
		prompts.PlaceholderFieldData, formatEntityData(label, name, latest),
		prompts.PlaceholderArticlesData, formatArticles(label, name, articles),
	)
	if err != nil {
		return nil, err
	}

	text, err := o.deps.Generator.Generate(ctx, prompt, params)
	if err != nil {
		return nil, err
	}

	entity, err := parser.ParseEntity(kind, text, name)
	if err != nil {
		o.logger.Warn("Unusable metrics response",
			zap.String("kind", string(kind)),
			zap.String("name", name),
			zap.String("response", parser.Excerpt(text)),
			zap.Error(err),
		)
		return nil, err
	}
	return observationFrom(entity), nil
}

// =============================================================================
// New Entity Generation
// =============================================================================

// GenerateNewField asks the generator for fields not yet tracked and stores
// each proposed field with its first observation
func (o *InsightOrchestrator) GenerateNewField(ctx context.Context) (*models.GenerationResult, error) {
	names, err := o.deps.Taxonomy.FieldNames(ctx)
	if err != nil {
		return nil, err
	}
	prompt, err := o.deps.Prompts.Render(prompts.NewFields,
		prompts.PlaceholderCurrentFields, formatNames(names),
	)
	if err != nil {
		return nil, err
	}

	result := &models.GenerationResult{Kind: models.KindField}
	err = o.generateBatch(ctx, parser.KindField, prompt, result, func(ent *parser.Entity) (uint, uint, bool, error) {
		field, created, err := o.deps.Taxonomy.UpsertField(ctx, ent.Name, ent.Description)
		if err != nil {
			return 0, 0, false, err
		}
		return field.ID, 0, created, nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GenerateNewSubfield asks the generator for new subfields of fieldID
func (o *InsightOrchestrator) GenerateNewSubfield(ctx context.Context, fieldName string, fieldID uint) (*models.GenerationResult, error) {
	if strings.TrimSpace(fieldName) == "" {
		return nil, &models.ValidationError{Field: "fieldName", Message: "is required"}
	}
	if fieldID == 0 {
		return nil, &models.ValidationError{Field: "fieldId", Message: "is required"}
	}

	if _, err := o.deps.Taxonomy.GetField(ctx, fieldID); err != nil {
		return nil, err
	}
	names, err := o.deps.Taxonomy.SubfieldNames(ctx, fieldID)
	if err != nil {
		return nil, err
	}
	prompt, err := o.deps.Prompts.Render(prompts.NewSubfields,
		prompts.PlaceholderFieldName, fieldName,
		prompts.PlaceholderSubfields, formatNames(names),
	)
	if err != nil {
		return nil, err
	}

	result := &models.GenerationResult{Kind: models.KindSubfield, FieldID: fieldID, FieldName: fieldName}
	err = o.generateBatch(ctx, parser.KindSubfield, prompt, result, func(ent *parser.Entity) (uint, uint, bool, error) {
		sub, created, err := o.deps.Taxonomy.UpsertSubfield(ctx, fieldID, ent.Name, ent.Description)
		if err != nil {
			return 0, 0, false, err
		}
		return fieldID, sub.ID, created, nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// resolveFunc creates or reuses the entity for a parsed entry and returns the
// owning field id, the subfield id (0 for fields) and whether it was created
type resolveFunc func(ent *parser.Entity) (fieldID, subfieldID uint, created bool, err error)

// generateBatch runs one batch generation. Entries are processed in order so
// a later entry sees the entities created by earlier ones. An entry failure
// is recorded and never stops its siblings.
func (o *InsightOrchestrator) generateBatch(ctx context.Context, kind parser.Kind, prompt string, result *models.GenerationResult, resolve resolveFunc) error {
	text, err := o.deps.Generator.Generate(ctx, prompt, o.deterministicParams())
	if err != nil {
		return err
	}

	if parser.IsNoSuggestion(text) {
		o.logger.Info("Generator suggested no new entities", zap.String("kind", string(kind)))
		result.NoSuggestion = true
		result.Results = []models.EntryResult{}
		return nil
	}

	entries, err := parser.SplitEntries(kind, text)
	if err != nil {
		o.logger.Warn("Batch response has no entries",
			zap.String("kind", string(kind)),
			zap.String("response", parser.Excerpt(text)),
		)
		return err
	}

	result.Results = make([]models.EntryResult, 0, len(entries))
	for _, entry := range entries {
		res := o.processEntry(ctx, kind, entry, resolve)
		if !res.Failed() {
			result.Succeeded++
		}
		result.Results = append(result.Results, res)
	}
	result.Processed = len(entries)

	o.logger.Info("Batch generation finished",
		zap.String("kind", string(kind)),
		zap.Int("processed", result.Processed),
		zap.Int("succeeded", result.Succeeded),
	)
	return nil
}

func (o *InsightOrchestrator) processEntry(ctx context.Context, kind parser.Kind, entry string, resolve resolveFunc) models.EntryResult {
	fail := func(name string, err error) models.EntryResult {
		o.logger.Warn("Batch entry failed", zap.String("kind", string(kind)), zap.String("name", name), zap.Error(err))
		return models.EntryResult{Name: name, Error: err.Error(), Entry: parser.Excerpt(entry)}
	}

	ent, err := parser.ParseEntry(kind, entry)
	if err != nil {
		return fail("", err)
	}

	fieldID, subfieldID, created, err := resolve(ent)
	if err != nil {
		return fail(ent.Name, err)
	}

	obs := observationFrom(ent)
	obs.FieldID = fieldID
	id := fieldID
	if subfieldID != 0 {
		obs.SubfieldID = &subfieldID
		id = subfieldID
	}
	if err := o.deps.Metrics.Insert(ctx, obs); err != nil {
		return fail(ent.Name, err)
	}

	return models.EntryResult{ID: id, Name: ent.Name, Created: created, Metrics: obs}
}

// =============================================================================
// Insight Generation
// =============================================================================

// GenerateInsight writes a cross-field insight from every field's two newest
// observations and the previous global insight
func (o *InsightOrchestrator) GenerateInsight(ctx context.Context) (*models.InsightResult, error) {
	rows, err := o.deps.Metrics.RecentPerEntity(ctx, models.KindField, 0, 2)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		o.logger.Info("No field metrics available for insight")
		return &models.InsightResult{NoMetrics: true}, nil
	}

	fields, err := o.deps.Taxonomy.ListFields(ctx, false)
	if err != nil {
		return nil, err
	}
	names := make(map[uint]string, len(fields))
	for _, f := range fields {
		names[f.ID] = f.Name
	}

	insight, err := o.generateInsight(ctx, prompts.FullRadarInsight, nil,
		formatGrowth("Field Name", Growth(models.KindField, rows, names)))
	if err != nil {
		return nil, err
	}
	return &models.InsightResult{
		InsightID:       insight.ID,
		InsightText:     insight.InsightText,
		ConfidenceScore: insight.ConfidenceScore,
	}, nil
}

// GenerateSubInsight writes an insight comparing the subfields of fieldID
func (o *InsightOrchestrator) GenerateSubInsight(ctx context.Context, fieldID uint) (*models.InsightResult, error) {
	if fieldID == 0 {
		return nil, &models.ValidationError{Field: "fieldId", Message: "is required"}
	}

	field, err := o.deps.Taxonomy.GetField(ctx, fieldID)
	if err != nil {
		return nil, err
	}
	rows, err := o.deps.Metrics.RecentPerEntity(ctx, models.KindSubfield, fieldID, 2)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		o.logger.Info("No subfield metrics available for insight", zap.Uint("field_id", fieldID))
		return &models.InsightResult{NoMetrics: true, FieldID: &fieldID, FieldName: field.Name}, nil
	}

	subfields, err := o.deps.Taxonomy.ListSubfields(ctx, fieldID)
	if err != nil {
		return nil, err
	}
	names := make(map[uint]string, len(subfields))
	for _, s := range subfields {
		names[s.ID] = s.Name
	}

	insight, err := o.generateInsight(ctx, prompts.SubfieldFieldInsight, &fieldID,
		formatGrowth("Subfield Name", Growth(models.KindSubfield, rows, names)))
	if err != nil {
		return nil, err
	}
	return &models.InsightResult{
		InsightID:       insight.ID,
		InsightText:     insight.InsightText,
		ConfidenceScore: insight.ConfidenceScore,
		FieldID:         &fieldID,
		FieldName:       field.Name,
	}, nil
}

func (o *InsightOrchestrator) generateInsight(ctx context.Context, template string, fieldID *uint, metricsData string) (*models.Insight, error) {
	previous, err := o.deps.Insights.Latest(ctx, fieldID)
	if err != nil {
		return nil, err
	}

	prompt, err := o.deps.Prompts.Render(template,
		prompts.PlaceholderMetricsData, metricsData,
		prompts.PlaceholderPreviousInsight, formatPreviousInsight(previous),
	)
	if err != nil {
		return nil, err
	}
	o.logger.Debug("Populated insight prompt", zap.String("template", template), zap.String("prompt", prompt))

	text, err := o.deps.Generator.Generate(ctx, prompt, o.deterministicParams())
	if err != nil {
		return nil, err
	}

	insight := &models.Insight{
		FieldID:         fieldID,
		InsightText:     text,
		ConfidenceScore: parser.ParseConfidence(text),
	}
	if err := o.deps.Insights.Insert(ctx, insight); err != nil {
		return nil, err
	}

	o.publish(ctx, fieldID, text)
	return insight, nil
}

// publish is best-effort; failures are only logged
func (o *InsightOrchestrator) publish(ctx context.Context, fieldID *uint, text string) {
	if o.deps.Sink == nil {
		return
	}
	if err := o.deps.Sink.Publish(ctx, fieldID, text); err != nil {
		o.logger.Error("Failed to publish insight side file",
			zap.String("file", InsightFileName(fieldID)),
			zap.Error(err),
		)
	}
}

// =============================================================================
// Prompt formatting
// =============================================================================

func observationFrom(ent *parser.Entity) *models.MetricObservation {
	return &models.MetricObservation{
		Metric1:   ent.Metric1,
		Metric2:   ent.Metric2,
		Metric3:   ent.Metric3,
		Rationale: ent.Rationale,
		Source:    ent.Source,
	}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatEntityData(label, name string, latest *models.MetricObservation) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %s\n", label, name)
	if latest == nil {
		sb.WriteString("No previous metrics recorded.")
		return sb.String()
	}
	fmt.Fprintf(&sb, "metric_1: %s\n", formatNumber(latest.Metric1))
	fmt.Fprintf(&sb, "metric_2: %s\n", formatNumber(latest.Metric2))
	fmt.Fprintf(&sb, "metric_3: %s\n", formatNumber(latest.Metric3))
	fmt.Fprintf(&sb, "rationale: %s\n", latest.Rationale)
	fmt.Fprintf(&sb, "metric_date: %s", latest.MetricDate.UTC().Format(time.RFC3339))
	return sb.String()
}

func formatArticles(label, name string, articles []models.Article) string {
	if len(articles) == 0 {
		return noArticles
	}
	blocks := make([]string, 0, len(articles))
	for _, a := range articles {
		blocks = append(blocks, fmt.Sprintf("%s: %s\ntitle: %s\nsummary: %s\npublished: %s",
			label, name, a.Title, a.Summary, a.Published))
	}
	return strings.Join(blocks, "\n\n")
}

func formatNames(names []string) string {
	if len(names) == 0 {
		return "None"
	}
	return strings.Join(names, "\n")
}

func formatGrowth(heading string, growth []models.EntityGrowth) string {
	blocks := make([]string, 0, len(growth))
	for _, g := range growth {
		blocks = append(blocks, fmt.Sprintf(
			"%s: %s\n\nMost Recent Metrics:\n"+
				"  Interest (metric_1): %s (growth: %s%%)\n"+
				"  Innovation (metric_2): %s (growth: %s%%)\n"+
				"  Relevance to Banking (metric_3): %s (growth: %s%%)\n\n"+
				"Rationale: %s",
			heading, g.EntityName,
			formatNumber(g.Current.Metric1), formatNumber(g.Growth1),
			formatNumber(g.Current.Metric2), formatNumber(g.Growth2),
			formatNumber(g.Current.Metric3), formatNumber(g.Growth3),
			g.Current.Rationale,
		))
	}
	return strings.Join(blocks, "\n\n")
}

func formatPreviousInsight(previous *models.Insight) string {
	if previous == nil {
		return prompts.NoPreviousInsight
	}
	return fmt.Sprintf("Previous Insight:\n%s\nGenerated At: %s",
		previous.InsightText, previous.GeneratedAt.UTC().Format(time.RFC3339))
}
