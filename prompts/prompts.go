package prompts

import (
	"embed"
	"io/fs"
)

// Template names as stored on disk
const (
	UpdateMetrics        = "prompt_update_metrics.txt"
	NewFields            = "prompt_new_fields.txt"
	NewSubfields         = "prompt_subfield.txt"
	FullRadarInsight     = "full_radar_insight_generation.txt"
	SubfieldFieldInsight = "insight_subfield_gen.txt"
)

// Placeholders. Each appears at most once in its template.
const (
	PlaceholderEntityKind      = "{ENTITY_KIND}"
	PlaceholderFieldData       = "{FIELD_DATA}"
	PlaceholderArticlesData    = "{ARTICLES_DATA}"
	PlaceholderCurrentFields   = "{CURRENT_FIELDS}"
	PlaceholderFieldName       = "{FIELD_NAME}"
	PlaceholderSubfields       = "{SUBFIELDS}"
	PlaceholderMetricsData     = "{METRICS_DATA}"
	PlaceholderPreviousInsight = "{PREVIOUS_INSIGHT}"
)

// NoPreviousInsight stands in for {PREVIOUS_INSIGHT} when none is stored
const NoPreviousInsight = "No previous insight available."

//go:embed templates/*.txt
var embedded embed.FS

// Defaults returns the built-in templates rooted at the template directory
func Defaults() fs.FS {
	sub, err := fs.Sub(embedded, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}
