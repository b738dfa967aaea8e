// Package parser extracts structured values from labeled-line generator
// output. Each response kind has a fixed grammar: an ordered table of
// labels and the pattern that captures each label's value.
package parser

import (
	"regexp"
	"strconv"
	"strings"

	"techpulse/models"
)

// Kind selects the grammar used to read a response
type Kind string

const (
	KindField    Kind = "field"
	KindSubfield Kind = "subfield"
	KindInsight  Kind = "insight"
)

// KindOf maps an entity kind to its response grammar
func KindOf(k models.EntityKind) Kind {
	if k == models.KindSubfield {
		return KindSubfield
	}
	return KindField
}

// NoSuggestionSentinel is the literal reply meaning "no new entities suggested"
const NoSuggestionSentinel = "NUH_UH"

// Value labels shared by the grammars
const (
	LabelName        = "name"
	LabelDescription = "description"
	LabelMetric1     = "metric_1"
	LabelMetric2     = "metric_2"
	LabelMetric3     = "metric_3"
	LabelRationale   = "rationale"
	LabelSource      = "source"
	LabelConfidence  = "confidence"
)

type rule struct {
	label   string
	pattern *regexp.Regexp
}

type grammar struct {
	entryPrefix string
	rules       []rule
}

const number = `(\d+(?:\.\d+)?|\.\d+)`

var (
	metric1Rule     = rule{LabelMetric1, regexp.MustCompile(`(?i)metric_1:\s*` + number)}
	metric2Rule     = rule{LabelMetric2, regexp.MustCompile(`(?i)metric_2:\s*` + number)}
	metric3Rule     = rule{LabelMetric3, regexp.MustCompile(`(?i)metric_3:\s*` + number)}
	rationaleRule   = rule{LabelRationale, regexp.MustCompile(`(?is)rationale:\s*(.+?)\s*\n\s*source:`)}
	sourceRule      = rule{LabelSource, regexp.MustCompile(`(?i)source:\s*(https?://\S+)`)}
	descriptionRule = rule{LabelDescription, regexp.MustCompile(`(?is)description:\s*(.+?)\s*\n\s*metric_1:`)}

	entrySeparator = regexp.MustCompile(`\n\s*\n`)
)

var grammars = map[Kind]grammar{
	KindField: {
		entryPrefix: "field_name:",
		rules: []rule{
			{LabelName, regexp.MustCompile(`(?i)\bfield_name:[ \t]*([^\n]*)`)},
			metric1Rule, metric2Rule, metric3Rule, rationaleRule, sourceRule,
		},
	},
	KindSubfield: {
		entryPrefix: "subfield_name:",
		rules: []rule{
			{LabelName, regexp.MustCompile(`(?i)subfield_name:[ \t]*([^\n]*)`)},
			metric1Rule, metric2Rule, metric3Rule, rationaleRule, sourceRule,
		},
	},
	KindInsight: {
		rules: []rule{
			{LabelConfidence, regexp.MustCompile(`(?i)confidence score:\s*` + number)},
		},
	},
}

// Entity is one parsed field or subfield answer
type Entity struct {
	Name        string
	Description string
	Metric1     float64
	Metric2     float64
	Metric3     float64
	Rationale   string
	Source      string
}

// extract applies the named rules of a grammar to text and returns the
// trimmed captures. A missing or blank label fails the whole extraction.
// Name values never extend past their own line.
func extract(kind Kind, text string, extra ...rule) (map[string]string, error) {
	g, ok := grammars[kind]
	if !ok {
		return nil, &models.ParseError{Kind: string(kind), Message: "unknown response kind " + string(kind)}
	}

	rules := append(append([]rule{}, g.rules...), extra...)
	values := make(map[string]string, len(rules))
	var missing []string
	for _, r := range rules {
		m := r.pattern.FindStringSubmatch(text)
		if m == nil || strings.TrimSpace(m[1]) == "" {
			missing = append(missing, r.label)
			continue
		}
		values[r.label] = strings.TrimSpace(m[1])
	}

	if len(missing) > 0 {
		return nil, &models.ParseError{Kind: string(kind), Missing: missing}
	}
	return values, nil
}

func toEntity(kind Kind, values map[string]string) (*Entity, error) {
	e := &Entity{
		Name:        values[LabelName],
		Description: values[LabelDescription],
		Rationale:   values[LabelRationale],
		Source:      values[LabelSource],
	}

	targets := []struct {
		label string
		dst   *float64
	}{
		{LabelMetric1, &e.Metric1},
		{LabelMetric2, &e.Metric2},
		{LabelMetric3, &e.Metric3},
	}
	for _, t := range targets {
		v, err := strconv.ParseFloat(values[t.label], 64)
		if err != nil {
			return nil, &models.ParseError{Kind: string(kind), Message: "invalid " + t.label + " value " + strconv.Quote(values[t.label])}
		}
		*t.dst = v
	}
	return e, nil
}

// ParseEntity reads a single-entity answer and checks that it is about
// expectedName, ignoring case.
func ParseEntity(kind Kind, text, expectedName string) (*Entity, error) {
	values, err := extract(kind, text)
	if err != nil {
		return nil, err
	}

	entity, err := toEntity(kind, values)
	if err != nil {
		return nil, err
	}

	if !strings.EqualFold(entity.Name, strings.TrimSpace(expectedName)) {
		return nil, &models.NameMismatchError{Kind: string(kind), Expected: expectedName, Got: entity.Name}
	}
	return entity, nil
}

// SplitEntries normalizes a batch answer and returns the blank-line separated
// entries that start with the kind's name label. Each line of a returned
// entry is trimmed. No matching entry is a ParseError.
func SplitEntries(kind Kind, text string) ([]string, error) {
	g, ok := grammars[kind]
	if !ok || g.entryPrefix == "" {
		return nil, &models.ParseError{Kind: string(kind), Message: "response kind " + string(kind) + " has no batch form"}
	}

	normalized := strings.ReplaceAll(text, `"`, "")
	normalized = strings.ReplaceAll(normalized, "\r\n", "\n")
	normalized = strings.TrimSpace(normalized)

	var entries []string
	for _, candidate := range entrySeparator.Split(normalized, -1) {
		if !strings.HasPrefix(strings.TrimSpace(candidate), g.entryPrefix) {
			continue
		}
		lines := strings.Split(candidate, "\n")
		for i := range lines {
			lines[i] = strings.TrimSpace(lines[i])
		}
		entries = append(entries, strings.Join(lines, "\n"))
	}

	if len(entries) == 0 {
		return nil, &models.ParseError{
			Kind:    string(kind),
			Message: "no valid " + string(kind) + " entries found; expected blocks starting with " + g.entryPrefix,
		}
	}
	return entries, nil
}

// ParseEntry reads one batch entry. Entries also carry a description.
func ParseEntry(kind Kind, entry string) (*Entity, error) {
	values, err := extract(kind, entry, descriptionRule)
	if err != nil {
		return nil, err
	}
	return toEntity(kind, values)
}

// ParseConfidence returns the insight's confidence score, or the default
// when the text carries none.
func ParseConfidence(text string) float64 {
	values, err := extract(KindInsight, text)
	if err != nil {
		return models.DefaultConfidenceScore
	}
	score, err := strconv.ParseFloat(values[LabelConfidence], 64)
	if err != nil {
		return models.DefaultConfidenceScore
	}
	return score
}

// IsNoSuggestion reports whether the generator declined to suggest entities
func IsNoSuggestion(text string) bool {
	return strings.TrimSpace(text) == NoSuggestionSentinel
}

const excerptLen = 100

// Excerpt shortens an entry for error reports
func Excerpt(entry string) string {
	runes := []rune(entry)
	if len(runes) <= excerptLen {
		return entry
	}
	return string(runes[:excerptLen]) + "..."
}
