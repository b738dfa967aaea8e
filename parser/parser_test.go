package parser

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"techpulse/models"
)

const fieldAnswer = `field_name: Quantum Computing
metric_1: 0.62
metric_2: 0.81
metric_3: .4
rationale: Error-corrected logical qubits were demonstrated
at scale this quarter.
source: https://arxiv.org/abs/2403.01234v1`

func TestParseEntity_Field(t *testing.T) {
	entity, err := ParseEntity(KindField, fieldAnswer, "Quantum Computing")
	require.NoError(t, err)

	assert.Equal(t, "Quantum Computing", entity.Name)
	assert.Equal(t, 0.62, entity.Metric1)
	assert.Equal(t, 0.81, entity.Metric2)
	assert.Equal(t, 0.4, entity.Metric3)
	assert.Equal(t, "Error-corrected logical qubits were demonstrated\nat scale this quarter.", entity.Rationale)
	assert.Equal(t, "https://arxiv.org/abs/2403.01234v1", entity.Source)
}

func TestParseEntity_NameComparison(t *testing.T) {
	tests := []struct {
		name     string
		expected string
		wantErr  bool
	}{
		{name: "exact", expected: "Quantum Computing"},
		{name: "case only", expected: "QUANTUM computing"},
		{name: "surrounding whitespace", expected: "  Quantum Computing "},
		{name: "different entity", expected: "Generative AI", wantErr: true},
		{name: "prefix only", expected: "Quantum", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entity, err := ParseEntity(KindField, fieldAnswer, tt.expected)
			if !tt.wantErr {
				require.NoError(t, err)
				assert.Equal(t, "Quantum Computing", entity.Name)
				return
			}
			var mismatch *models.NameMismatchError
			require.True(t, errors.As(err, &mismatch), "got %v", err)
			assert.Equal(t, "Quantum Computing", mismatch.Got)
		})
	}
}

func TestParseEntity_MissingLabels(t *testing.T) {
	text := "field_name: Quantum Computing\nmetric_1: 0.5\nmetric_2: 0.5\nrationale: nothing cited"

	_, err := ParseEntity(KindField, text, "Quantum Computing")

	var parseErr *models.ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, []string{LabelMetric3, LabelRationale, LabelSource}, parseErr.Missing)
}

func TestParseEntity_SubfieldDoesNotMatchFieldGrammar(t *testing.T) {
	text := strings.Replace(fieldAnswer, "field_name:", "subfield_name:", 1)

	_, err := ParseEntity(KindField, text, "Quantum Computing")
	var parseErr *models.ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, []string{LabelName}, parseErr.Missing)

	entity, err := ParseEntity(KindSubfield, text, "quantum computing")
	require.NoError(t, err)
	assert.Equal(t, "Quantum Computing", entity.Name)
}

func TestSplitEntries(t *testing.T) {
	text := "Here are my suggestions:\r\n\r\n" +
		"  field_name: \"Neuromorphic Chips\"\r\n" +
		"  description: Brain-inspired hardware\r\n" +
		"  metric_1: 0.3\r\n\r\n" +
		"field_name: Spatial Computing\ndescription: AR and VR\nmetric_1: 0.5\n\n" +
		"Field_Name: wrong case prefix\n\n" +
		"Thanks!"

	entries, err := SplitEntries(KindField, text)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "field_name: Neuromorphic Chips\ndescription: Brain-inspired hardware\nmetric_1: 0.3", entries[0])
	assert.True(t, strings.HasPrefix(entries[1], "field_name: Spatial Computing"))
}

func TestSplitEntries_NoEntries(t *testing.T) {
	_, err := SplitEntries(KindSubfield, "field_name: not a subfield\n\nmetric_1: 0.4")

	var parseErr *models.ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Contains(t, parseErr.Error(), "subfield_name:")

	_, err = SplitEntries(KindInsight, "anything")
	assert.Error(t, err)
}

func TestParseEntry(t *testing.T) {
	entry := `subfield_name: Post-Quantum Cryptography
description: Lattice and hash based schemes
that resist quantum attacks
metric_1: 0.7
metric_2: 0.9
metric_3: 0.95
rationale: NIST finalized ML-KEM.
source: https://csrc.nist.gov/pubs/fips/203/final`

	entity, err := ParseEntry(KindSubfield, entry)
	require.NoError(t, err)
	assert.Equal(t, "Post-Quantum Cryptography", entity.Name)
	assert.Equal(t, "Lattice and hash based schemes\nthat resist quantum attacks", entity.Description)
	assert.Equal(t, 0.95, entity.Metric3)
	assert.Equal(t, "NIST finalized ML-KEM.", entity.Rationale)
}

func TestParseEntry_BlankNameIsMissing(t *testing.T) {
	tests := []struct {
		name  string
		kind  Kind
		entry string
	}{
		{
			name:  "empty field name",
			kind:  KindField,
			entry: "field_name:\ndescription: Something new\nmetric_1: 0.5\nmetric_2: 0.5\nmetric_3: 0.5\nrationale: r\nsource: https://example.com",
		},
		{
			name:  "whitespace field name",
			kind:  KindField,
			entry: "field_name:   \t\ndescription: Something new\nmetric_1: 0.5\nmetric_2: 0.5\nmetric_3: 0.5\nrationale: r\nsource: https://example.com",
		},
		{
			name:  "empty subfield name",
			kind:  KindSubfield,
			entry: "subfield_name:\ndescription: Something new\nmetric_1: 0.5\nmetric_2: 0.5\nmetric_3: 0.5\nrationale: r\nsource: https://example.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entity, err := ParseEntry(tt.kind, tt.entry)
			assert.Nil(t, entity)

			var parseErr *models.ParseError
			require.True(t, errors.As(err, &parseErr), "got %v", err)
			assert.Equal(t, []string{LabelName}, parseErr.Missing)
		})
	}
}

func TestParseEntity_BlankNameIsMissing(t *testing.T) {
	text := strings.Replace(fieldAnswer, "field_name: Quantum Computing", "field_name:", 1)

	_, err := ParseEntity(KindField, text, "metric_1: 0.62")

	var parseErr *models.ParseError
	require.True(t, errors.As(err, &parseErr), "got %v", err)
	assert.Equal(t, []string{LabelName}, parseErr.Missing)
}

func TestParseEntry_MissingDescription(t *testing.T) {
	_, err := ParseEntry(KindField, fieldAnswer)

	var parseErr *models.ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, []string{LabelDescription}, parseErr.Missing)
}

func TestParseConfidence(t *testing.T) {
	tests := []struct {
		name string
		text string
		want float64
	}{
		{name: "present", text: "Summary...\nConfidence Score: 0.82", want: 0.82},
		{name: "lower case", text: "confidence score: 1", want: 1},
		{name: "absent", text: "Summary without a score", want: 0.9},
		{name: "not a number", text: "Confidence score: high", want: 0.9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseConfidence(tt.text))
		})
	}
}

func TestIsNoSuggestion(t *testing.T) {
	assert.True(t, IsNoSuggestion("NUH_UH"))
	assert.True(t, IsNoSuggestion("  NUH_UH\n"))
	assert.False(t, IsNoSuggestion("nuh_uh"))
	assert.False(t, IsNoSuggestion("NUH_UH, but here is one anyway"))
}

func TestExcerpt(t *testing.T) {
	tests := []struct {
		name  string
		entry string
		want  string
	}{
		{name: "short", entry: "short", want: "short"},
		{name: "exactly the limit", entry: strings.Repeat("x", 100), want: strings.Repeat("x", 100)},
		{name: "long", entry: strings.Repeat("x", 150), want: strings.Repeat("x", 100) + "..."},
		{name: "multibyte", entry: strings.Repeat("é", 101), want: strings.Repeat("é", 100) + "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Excerpt(tt.entry))
		})
	}
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindField, KindOf(models.KindField))
	assert.Equal(t, KindSubfield, KindOf(models.KindSubfield))
}
