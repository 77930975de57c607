package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/hh-assessor/internal/ai"
	"github.com/spigell/hh-assessor/internal/ai/gemini"
	"github.com/spigell/hh-assessor/internal/ai/quota"
	"github.com/spigell/hh-assessor/internal/assessment/questions"
	"github.com/spigell/hh-assessor/internal/assessment/scoring"
	"github.com/spigell/hh-assessor/internal/assessment/skills"
	"github.com/spigell/hh-assessor/internal/logger"
	"github.com/spigell/hh-assessor/internal/secrets"
	"github.com/spigell/hh-assessor/internal/store"
)

// pipeline holds the components every command shares. All of them talk to
// the provider through one guarded generator.
type pipeline struct {
	generator *quota.Generator
	extractor *skills.Extractor
	questions *questions.Generator
	scorer    *scoring.Scorer
	assistant *ai.Assistant
}

// setup loads the configuration and creates the logger, exiting on failure.
func setup() (*Config, *zap.Logger) {
	config, err := getConfig()
	if err != nil {
		log.Fatalf("getting a config: %s", err)
	}
	if config == nil {
		config = &Config{}
	}

	opts := logger.Options{
		JSON:  viper.GetBool("json"),
		Debug: viper.GetBool("debug"),
	}
	if config.Log != nil {
		opts.File = config.Log.File
		opts.MaxSizeMB = config.Log.MaxSize
		opts.MaxBackups = config.Log.MaxBackups
		opts.MaxAgeDays = config.Log.MaxAge
	}

	l, err := logger.New(opts)
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	return config, l
}

func newPipeline(config *Config, log *zap.Logger) *pipeline {
	quotaCfg := config.Quota
	if quotaCfg == nil {
		quotaCfg = &QuotaConfig{
			MinInterval: quota.DefaultMinInterval,
			Window:      quota.DefaultWindow,
			MaxCalls:    quota.DefaultMaxCalls,
			MaxWait:     quota.DefaultMaxWait,
		}
	}

	guard := quota.NewGuard(quota.Config{
		MinInterval: quotaCfg.MinInterval,
		Window:      quotaCfg.Window,
		MaxCalls:    quotaCfg.MaxCalls,
	}, nil)

	generator := quota.NewGenerator(guard, providerFactory(config.AI, log), quotaCfg.MaxWait, log.Named("quota"))

	maxLogLength := 0
	if config.AI != nil && config.AI.Gemini != nil {
		maxLogLength = config.AI.Gemini.MaxLogLength
	}
	maxDescription := 0
	if config.Extraction != nil {
		maxDescription = config.Extraction.MaxDescriptionLength
	}

	return &pipeline{
		generator: generator,
		extractor: skills.NewExtractor(generator, log.Named("skills"), skills.Options{
			MaxDescriptionLength: maxDescription,
			MaxLogLength:         maxLogLength,
		}),
		questions: questions.NewGenerator(generator, log.Named("questions"), questions.Options{MaxLogLength: maxLogLength}),
		scorer:    scoring.NewScorer(generator, log.Named("scoring")),
		assistant: ai.NewAssistant(generator, log.Named("assistant")),
	}
}

// providerFactory resolves credentials on the first generation call, so
// commands that never reach the provider do not need a key.
func providerFactory(cfg *AIConfig, log *zap.Logger) quota.Factory {
	return func(ctx context.Context) (ai.Generator, error) {
		if cfg == nil || cfg.Gemini == nil {
			return nil, fmt.Errorf("ai.gemini configuration is required")
		}

		provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
		if provider != "" && provider != gemini.Provider {
			return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
		}

		apiKey, err := secrets.Load(secrets.Source{
			Name:  "gemini api key",
			Value: cfg.Gemini.APIKey,
			Env:   "GEMINI_API_KEY",
			File:  cfg.Gemini.APIKeyFile,
		})
		if err != nil {
			return nil, fmt.Errorf("%w (set ai.gemini.api-key-file, GEMINI_API_KEY_FILE or GEMINI_API_KEY)", err)
		}

		opts := gemini.Options{
			APIKey:          apiKey,
			Model:           cfg.Gemini.Model,
			MaxOutputTokens: cfg.Gemini.MaxOutputTokens,
			MaxLogLength:    cfg.Gemini.MaxLogLength,
		}
		if cfg.Gemini.Temperature > 0 {
			temperature := cfg.Gemini.Temperature
			opts.Temperature = &temperature
		}

		genLogger := logger.WithCommonFields(log, gemini.Provider, cfg.Gemini.Model)
		genLogger.Info("initializing generation provider")

		return gemini.NewGenerator(ctx, opts, genLogger)
	}
}

func newStore(ctx context.Context, cfg *StoreConfig, log *zap.Logger) (store.Store, error) {
	driver := "memory"
	if cfg != nil && cfg.Driver != "" {
		driver = strings.ToLower(strings.TrimSpace(cfg.Driver))
	}

	switch driver {
	case "memory":
		log.Info("using in-memory store")
		return store.NewMemory(), nil
	case "redis":
		if cfg.Redis == nil {
			return nil, fmt.Errorf("store.redis configuration is required for the redis driver")
		}
		log.Info("using redis store", zap.String("addr", cfg.Redis.Addr), zap.Int("db", cfg.Redis.DB))
		return store.NewRedis(ctx, store.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.Redis.TTL,
		}, log.Named("store"))
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", driver)
	}
}

// readInput reads a whole file, or stdin when path is "-".
func readInput(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

// writeJSON writes v indented to path, or to stdout when path is empty.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
