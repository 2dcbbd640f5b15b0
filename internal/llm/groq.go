package llm

// Groq defaults. llama-3.1-8b-instant keeps latency low for chat traffic.
const (
	groqBaseURL = "https://api.groq.com/openai/v1"
	groqModel   = "llama-3.1-8b-instant"
)

// NewGroq creates the Groq-backed provider. The API key is read from the
// env var named in cfg (GROQ_API_KEY by default).
func NewGroq(cfg ChatConfig) (Provider, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = groqBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = groqModel
	}
	if cfg.APIKeyEnv == "" {
		cfg.APIKeyEnv = "GROQ_API_KEY"
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.2
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 1024
	}
	return newChatClient("groq", cfg)
}
