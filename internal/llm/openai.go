package llm

// OpenAI defaults. Temperature stays very low to favor factual answers.
const (
	openaiBaseURL = "https://api.openai.com/v1"
	openaiModel   = "gpt-4o-mini"
)

// NewOpenAI creates the OpenAI-backed provider. The API key is read from
// the env var named in cfg (OPENAI_API_KEY by default).
func NewOpenAI(cfg ChatConfig) (Provider, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = openaiBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = openaiModel
	}
	if cfg.APIKeyEnv == "" {
		cfg.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.1
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 400
	}
	return newChatClient("openai", cfg)
}
