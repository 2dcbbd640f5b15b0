package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"hrchat/internal/answer"
	"hrchat/internal/segment"
)

// OpenAIEmbedderConfig holds configuration for the OpenAI-compatible embedder.
type OpenAIEmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type   string                `yaml:"type"`
	OpenAI *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
}

// ProviderConfig holds settings for one chat-completion provider.
type ProviderConfig struct {
	BaseURL     string  `yaml:"base_url"`
	APIKeyEnv   string  `yaml:"api_key_env"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	TimeoutSecs int     `yaml:"timeout_secs"`
}

// LLMConfig selects the answer provider and its fallback order. Providers
// are tried in the order listed; "mock" needs no credentials.
type LLMConfig struct {
	Providers []string        `yaml:"providers"`
	Groq      *ProviderConfig `yaml:"groq,omitempty"`
	OpenAI    *ProviderConfig `yaml:"openai,omitempty"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// StorageConfig configures the chat history database. An empty path
// disables persistence.
type StorageConfig struct {
	Path string `yaml:"path"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	DocumentsDir string         `yaml:"documents_dir"`
	TopK         int            `yaml:"top_k"`
	LogLevel     string         `yaml:"log_level"`
	Embedder     EmbedderConfig `yaml:"embedder"`
	Segmenter    segment.Config `yaml:"segmenter"`
	LLM          LLMConfig      `yaml:"llm"`
	Confidence   answer.Policy  `yaml:"confidence"`
	Server       ServerConfig   `yaml:"server"`
	Storage      StorageConfig  `yaml:"storage"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := defaultConfig()
			return cfg, nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/hrchat/config.yaml.
// If neither exists, it writes defaults to ~/.config/hrchat/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "hrchat", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{
		DocumentsDir: "hr_documents",
		TopK:         3,
		LogLevel:     "info",
		Embedder:     EmbedderConfig{Type: "tfidf"},
		Segmenter:    segment.DefaultConfig(),
		LLM:          LLMConfig{Providers: []string{"mock"}},
		Confidence:   answer.DefaultPolicy(),
		Server: ServerConfig{
			Addr:           ":8080",
			AllowedOrigins: []string{"*"},
		},
		Storage: StorageConfig{Path: "hrchat.db"},
	}
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.DocumentsDir == "" {
		cfg.DocumentsDir = "hr_documents"
	}
	if cfg.TopK == 0 {
		cfg.TopK = 3
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "tfidf"
	}
	if cfg.Embedder.Type == "openai" && cfg.Embedder.OpenAI != nil {
		if cfg.Embedder.OpenAI.BaseURL == "" {
			cfg.Embedder.OpenAI.BaseURL = "https://api.openai.com/v1"
		}
		if cfg.Embedder.OpenAI.APIKeyEnv == "" {
			cfg.Embedder.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
		}
		if cfg.Embedder.OpenAI.Model == "" {
			cfg.Embedder.OpenAI.Model = "text-embedding-3-small"
		}
		if cfg.Embedder.OpenAI.TimeoutSecs == 0 {
			cfg.Embedder.OpenAI.TimeoutSecs = 30
		}
	}
	applySegmenterDefaults(&cfg.Segmenter)
	if len(cfg.LLM.Providers) == 0 {
		cfg.LLM.Providers = []string{"mock"}
	}
	applyPolicyDefaults(&cfg.Confidence)
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"*"}
	}
}

func applySegmenterDefaults(cfg *segment.Config) {
	def := segment.DefaultConfig()
	if cfg.TargetWords == 0 {
		cfg.TargetWords = def.TargetWords
	}
	if cfg.MinWords == 0 {
		cfg.MinWords = def.MinWords
	}
	if cfg.MaxWords == 0 {
		cfg.MaxWords = def.MaxWords
	}
	if cfg.OverlapWords == 0 {
		cfg.OverlapWords = def.OverlapWords
	}
}

func applyPolicyDefaults(p *answer.Policy) {
	def := answer.DefaultPolicy()
	if p.EscalationThreshold == 0 {
		p.EscalationThreshold = def.EscalationThreshold
	}
	if p.MissingInfoCap == 0 {
		p.MissingInfoCap = def.MissingInfoCap
	}
	if p.OverlapBoost == 0 {
		p.OverlapBoost = def.OverlapBoost
	}
	if p.OverlapThreshold == 0 {
		p.OverlapThreshold = def.OverlapThreshold
	}
	if p.DetailedAnswerChars == 0 {
		p.DetailedAnswerChars = def.DetailedAnswerChars
	}
	if len(p.MissingInfoMarkers) == 0 {
		p.MissingInfoMarkers = def.MissingInfoMarkers
	}
}
