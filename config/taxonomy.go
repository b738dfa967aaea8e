package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Taxonomy is the fixed list of fields and subfields the dashboard is
// seeded with.
type Taxonomy struct {
	Fields []TaxonomyField `yaml:"fields"`
}

type TaxonomyField struct {
	Name        string             `yaml:"name"`
	Description string             `yaml:"description"`
	Subfields   []TaxonomySubfield `yaml:"subfields"`
}

type TaxonomySubfield struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// LoadTaxonomy reads a taxonomy YAML file.
func LoadTaxonomy(path string) (*Taxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading taxonomy: %w", err)
	}
	return ParseTaxonomy(data)
}

// ParseTaxonomy parses taxonomy YAML and rejects unnamed or duplicate entries.
func ParseTaxonomy(data []byte) (*Taxonomy, error) {
	var t Taxonomy
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing taxonomy: %w", err)
	}

	seen := make(map[string]bool, len(t.Fields))
	for i, f := range t.Fields {
		name := strings.TrimSpace(f.Name)
		if name == "" {
			return nil, fmt.Errorf("taxonomy field %d has no name", i)
		}
		key := strings.ToLower(name)
		if seen[key] {
			return nil, fmt.Errorf("duplicate taxonomy field %q", name)
		}
		seen[key] = true
		t.Fields[i].Name = name

		subSeen := make(map[string]bool, len(f.Subfields))
		for j, s := range f.Subfields {
			subName := strings.TrimSpace(s.Name)
			if subName == "" {
				return nil, fmt.Errorf("subfield %d of %q has no name", j, name)
			}
			subKey := strings.ToLower(subName)
			if subSeen[subKey] {
				return nil, fmt.Errorf("duplicate subfield %q under %q", subName, name)
			}
			subSeen[subKey] = true
			t.Fields[i].Subfields[j].Name = subName
		}
	}
	return &t, nil
}
