package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

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
	"hrchat/internal/server"
	"hrchat/internal/service"
	"hrchat/internal/store"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/hrchat/config.yaml if not provided)")
	flag.Parse()

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		fallbackExit("failed to load config", err)
	}

	log := logger.New(cfg.LogLevel)
	defer log.Sync()

	embedders := buildEmbedderFactory(cfg, log)
	provider := buildProvider(cfg.LLM, log)
	generator := answer.NewGenerator(provider, log)
	segmenter := segment.NewChunker(cfg.Segmenter)

	var chats *store.Store
	if cfg.Storage.Path != "" {
		chats, err = store.Open(cfg.Storage.Path)
		if err != nil {
			log.Fatalw("open chat store failed", "path", cfg.Storage.Path, "error", err)
		}
		defer chats.Close()
	}

	svc := service.New(embedders, segmenter, generator, cfg.Confidence,
		cfg.DocumentsDir, cfg.TopK, service.Options{Chats: chats, Log: log})

	if _, chunks, err := svc.Reindex(context.Background()); err != nil {
		if errors.Is(err, service.ErrNoDocuments) {
			log.Warnw("starting with an empty index", "documents_dir", cfg.DocumentsDir)
		} else {
			log.Fatalw("initial indexing failed", "error", err)
		}
	} else {
		log.Infow("initial index ready", "chunks", chunks)
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           server.New(svc, chats, log).Handler(cfg.Server.AllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infow("listening", "addr", cfg.Server.Addr, "provider", provider.Name())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("shutdown failed", "error", err)
	}
	log.Info("stopped")
}

// buildEmbedderFactory returns a factory producing one embedder per index
// build. The TF-IDF embedder is stateful per corpus, so each build gets a
// fresh instance; the remote client is stateless and shared.
func buildEmbedderFactory(cfg *config.AppConfig, log *zap.SugaredLogger) embedding.Factory {
	switch cfg.Embedder.Type {
	case "tfidf", "":
		return func() (embedding.Embedder, error) {
			return tfidf.NewEmbedder(), nil
		}
	case "openai":
		if cfg.Embedder.OpenAI == nil {
			log.Fatal("openai embedder config missing")
		}
		client, err := openai.NewClient(openai.Config{
			BaseURL:   cfg.Embedder.OpenAI.BaseURL,
			APIKeyEnv: cfg.Embedder.OpenAI.APIKeyEnv,
			Model:     cfg.Embedder.OpenAI.Model,
			Timeout:   time.Duration(cfg.Embedder.OpenAI.TimeoutSecs) * time.Second,
		})
		if err != nil {
			log.Fatalw("openai embedder init failed", "error", err)
		}
		return func() (embedding.Embedder, error) { return client, nil }
	default:
		log.Fatalw("unknown embedder", "type", cfg.Embedder.Type)
		return nil
	}
}

// buildProvider tries the configured providers in order and returns the
// first one that initializes; the mock provider is the final fallback so
// the service always starts.
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
	log.Warn("no configured provider available, using mock answers")
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

// fallbackExit reports startup errors that happen before the logger exists.
func fallbackExit(msg string, err error) {
	l, _ := zap.NewProduction()
	l.Sugar().Fatalw(msg, "error", err)
}
