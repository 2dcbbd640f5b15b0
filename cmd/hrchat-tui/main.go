package main

import (
	"context"
	"errors"
	"flag"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"hrchat/internal/answer"
	"hrchat/internal/config"
	"hrchat/internal/embedding"
	"hrchat/internal/embedding/openai"
	"hrchat/internal/embedding/tfidf"
	"hrchat/internal/llm"
	"hrchat/internal/logger"
	"hrchat/internal/segment"
	"hrchat/internal/service"
	"hrchat/internal/store"
	"hrchat/internal/tui"
)

func main() {
	_ = godotenv.Load()

	var cfgPath, userID string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/hrchat/config.yaml if not provided)")
	flag.StringVar(&userID, "user", "local", "User id recorded with chat history")
	flag.Parse()

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		fatal("failed to load config", err)
	}

	// The terminal owns stdout; keep logs quiet unless something breaks.
	log := logger.New(logger.LevelError)
	defer log.Sync()

	embedders := buildEmbedderFactory(cfg, log)
	provider := buildProvider(cfg.LLM, log)
	generator := answer.NewGenerator(provider, log)
	segmenter := segment.NewChunker(cfg.Segmenter)

	var chats *store.Store
	if cfg.Storage.Path != "" {
		chats, err = store.Open(cfg.Storage.Path)
		if err != nil {
			fatal("open chat store failed", err)
		}
		defer chats.Close()
	}

	svc := service.New(embedders, segmenter, generator, cfg.Confidence,
		cfg.DocumentsDir, cfg.TopK, service.Options{Chats: chats, Log: log})

	summary, _, err := svc.Reindex(context.Background())
	if err != nil {
		if errors.Is(err, service.ErrNoDocuments) {
			summary = "No documents indexed yet. Add files to " + cfg.DocumentsDir + " and restart."
		} else {
			fatal("indexing failed", err)
		}
	}

	m := tui.New(svc, userID, summary)
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		fatal("tui failed", err)
	}
}

func buildEmbedderFactory(cfg *config.AppConfig, log *zap.SugaredLogger) embedding.Factory {
	switch cfg.Embedder.Type {
	case "tfidf", "":
		return func() (embedding.Embedder, error) {
			return tfidf.NewEmbedder(), nil
		}
	case "openai":
		if cfg.Embedder.OpenAI == nil {
			fatal("openai embedder config missing", nil)
		}
		client, err := openai.NewClient(openai.Config{
			BaseURL:   cfg.Embedder.OpenAI.BaseURL,
			APIKeyEnv: cfg.Embedder.OpenAI.APIKeyEnv,
			Model:     cfg.Embedder.OpenAI.Model,
			Timeout:   time.Duration(cfg.Embedder.OpenAI.TimeoutSecs) * time.Second,
		})
		if err != nil {
			fatal("openai embedder init failed", err)
		}
		return func() (embedding.Embedder, error) { return client, nil }
	default:
		fatal("unknown embedder: "+cfg.Embedder.Type, nil)
		return nil
	}
}

func buildProvider(cfg config.LLMConfig, log *zap.SugaredLogger) llm.Provider {
	for _, name := range cfg.Providers {
		switch name {
		case "mock":
			return llm.NewMock()
		case "groq":
			p, err := llm.NewGroq(chatConfig(cfg.Groq))
			if err != nil {
				log.Warnw("groq provider unavailable", "error", err)
				continue
			}
			return p
		case "openai":
			p, err := llm.NewOpenAI(chatConfig(cfg.OpenAI))
			if err != nil {
				log.Warnw("openai provider unavailable", "error", err)
				continue
			}
			return p
		default:
			log.Warnw("unknown provider", "name", name)
		}
	}
	return llm.NewMock()
}

func chatConfig(pc *config.ProviderConfig) llm.ChatConfig {
	if pc == nil {
		return llm.ChatConfig{}
	}
	return llm.ChatConfig{
		BaseURL:     pc.BaseURL,
		APIKeyEnv:   pc.APIKeyEnv,
		Model:       pc.Model,
		Temperature: pc.Temperature,
		MaxTokens:   pc.MaxTokens,
		Timeout:     time.Duration(pc.TimeoutSecs) * time.Second,
	}
}

func fatal(msg string, err error) {
	l, _ := zap.NewProduction()
	if err != nil {
		l.Sugar().Fatalw(msg, "error", err)
	}
	l.Sugar().Fatal(msg)
}
