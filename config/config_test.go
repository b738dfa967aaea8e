package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("DB_DRIVER", "")
	t.Setenv("AI_DEFAULT_MODEL", "")
	t.Setenv("ARXIV_CATEGORIES", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.LLMProvider)
	assert.Equal(t, "postgres", cfg.DatabaseDriver)
	assert.Equal(t, DefaultAI(), cfg.AI)
	assert.Equal(t, 5, cfg.ArticlesPerField)
	assert.Equal(t, 1, cfg.ArticlesPerSubfield)
	assert.Equal(t, 30*time.Second, cfg.AITimeout)
	assert.Equal(t, []string{"cs.CR", "q-fin.CP", "q-fin.GN"}, cfg.Arxiv.Categories)
	assert.False(t, cfg.Insight.Enabled())
	assert.Empty(t, cfg.CORSOrigins)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("AI_DEFAULT_TEMPERATURE", "0.2")
	t.Setenv("AI_MAX_TOKENS", "512")
	t.Setenv("ARXIV_CATEGORIES", "cs.AI, cs.LG ,")
	t.Setenv("APP_ENV", "Production")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000, https://radar.example.com")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
	assert.Equal(t, 0.2, cfg.AI.Temperature)
	assert.Equal(t, 512, cfg.AI.MaxTokens)
	assert.Equal(t, []string{"cs.AI", "cs.LG"}, cfg.Arxiv.Categories)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, []string{"http://localhost:3000", "https://radar.example.com"}, cfg.CORSOrigins)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid openai", mutate: func(c *Config) {}},
		{name: "missing openai key", mutate: func(c *Config) { c.OpenAIKey = "" }, wantErr: true},
		{name: "groq without key", mutate: func(c *Config) { c.LLMProvider = "groq" }, wantErr: true},
		{name: "gemini with key", mutate: func(c *Config) { c.LLMProvider = "gemini"; c.GeminiKey = "g" }},
		{name: "unknown provider", mutate: func(c *Config) { c.LLMProvider = "bard" }, wantErr: true},
		{name: "unknown driver", mutate: func(c *Config) { c.DatabaseDriver = "mysql" }, wantErr: true},
		{name: "zero max tokens", mutate: func(c *Config) { c.AI.MaxTokens = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{DatabaseDriver: "sqlite", LLMProvider: "openai", OpenAIKey: "k", AI: DefaultAI()}
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadTaxonomy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taxonomy.yaml")
	data := `
fields:
  - name: " Quantum Computing "
    description: Qubits and friends
    subfields:
      - name: Quantum Cryptography
        description: Post-quantum schemes
  - name: Generative AI
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	tax, err := LoadTaxonomy(path)
	require.NoError(t, err)
	require.Len(t, tax.Fields, 2)
	assert.Equal(t, "Quantum Computing", tax.Fields[0].Name)
	assert.Equal(t, "Quantum Cryptography", tax.Fields[0].Subfields[0].Name)
	assert.Empty(t, tax.Fields[1].Subfields)
}

func TestParseTaxonomy_RejectsDuplicates(t *testing.T) {
	_, err := ParseTaxonomy([]byte("fields:\n  - name: AI\n  - name: ai\n"))
	assert.Error(t, err)

	_, err = ParseTaxonomy([]byte("fields:\n  - name: AI\n    subfields:\n      - name: NLP\n      - name: nlp\n"))
	assert.Error(t, err)

	_, err = ParseTaxonomy([]byte("fields:\n  - description: nameless\n"))
	assert.Error(t, err)
}

func TestDefaultAIFor(t *testing.T) {
	assert.Equal(t, "gpt-4", DefaultAIFor("openai").Model)
	assert.Equal(t, "gpt-3.5-turbo", DefaultAIFor("openai").FallbackModel)
	assert.Equal(t, "gemini-2.5-flash", DefaultAIFor("gemini").FallbackModel)
	assert.Equal(t, "llama-3.3-70b-versatile", DefaultAIFor("groq").Model)
	assert.Equal(t, 2048, DefaultAIFor("groq").MaxTokens)
}
