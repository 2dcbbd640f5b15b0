package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "hr_documents", cfg.DocumentsDir)
	assert.Equal(t, 3, cfg.TopK)
	assert.Equal(t, "tfidf", cfg.Embedder.Type)
	assert.Equal(t, []string{"mock"}, cfg.LLM.Providers)
	assert.Equal(t, 0.60, cfg.Confidence.EscalationThreshold)
	assert.Equal(t, 400, cfg.Segmenter.TargetWords)
}

func TestLoadAppliesDefaultsToPartialConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	partial := `
documents_dir: /srv/docs
llm:
  providers: [groq, mock]
confidence:
  escalation_threshold: 0.7
`
	require.NoError(t, os.WriteFile(path, []byte(partial), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/docs", cfg.DocumentsDir)
	assert.Equal(t, []string{"groq", "mock"}, cfg.LLM.Providers)
	assert.Equal(t, 0.7, cfg.Confidence.EscalationThreshold)
	// Unset fields pick up defaults.
	assert.Equal(t, 3, cfg.TopK)
	assert.Equal(t, 0.40, cfg.Confidence.MissingInfoCap)
	assert.NotEmpty(t, cfg.Confidence.MissingInfoMarkers)
	assert.Equal(t, 500, cfg.Segmenter.MaxWords)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLoadOpenAIEmbedderDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
embedder:
  type: openai
  openai:
    model: custom-embedding
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.Embedder.OpenAI)
	assert.Equal(t, "custom-embedding", cfg.Embedder.OpenAI.Model)
	assert.Equal(t, "https://api.openai.com/v1", cfg.Embedder.OpenAI.BaseURL)
	assert.Equal(t, "OPENAI_API_KEY", cfg.Embedder.OpenAI.APIKeyEnv)
	assert.Equal(t, 30, cfg.Embedder.OpenAI.TimeoutSecs)
}

func TestLoadRejectsInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("top_k: [not a number"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := defaultConfig()
	cfg.DocumentsDir = "/tmp/docs"

	require.NoError(t, Save(path, cfg))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/docs", loaded.DocumentsDir)
	assert.Equal(t, cfg.Confidence.EscalationThreshold, loaded.Confidence.EscalationThreshold)
}
