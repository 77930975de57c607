package cmd

import (
	"errors"
	"log"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/hh-assessor/internal/ai/quota"
	"github.com/spigell/hh-assessor/internal/assessment/skills"
	"github.com/spigell/hh-assessor/internal/server"
	"github.com/spigell/hh-assessor/internal/store"
)

const (
	app = "hh-assessor"
)

type Config struct {
	AI         *AIConfig         `mapstructure:"ai"`
	Quota      *QuotaConfig      `mapstructure:"quota"`
	Server     *ServerConfig     `mapstructure:"server"`
	Store      *StoreConfig      `mapstructure:"store"`
	Log        *LogConfig        `mapstructure:"log"`
	Extraction *ExtractionConfig `mapstructure:"extraction"`
}

type AIConfig struct {
	Provider string        `mapstructure:"provider"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey          string  `mapstructure:"api-key"`
	APIKeyFile      string  `mapstructure:"api-key-file"`
	Model           string  `mapstructure:"model"`
	Temperature     float32 `mapstructure:"temperature"`
	MaxOutputTokens int32   `mapstructure:"max-output-tokens"`
	MaxLogLength    int     `mapstructure:"max-log-length"`
}

type QuotaConfig struct {
	MinInterval time.Duration `mapstructure:"min-interval"`
	Window      time.Duration `mapstructure:"window"`
	MaxCalls    int           `mapstructure:"max-calls"`
	MaxWait     time.Duration `mapstructure:"max-wait"`
}

type ServerConfig struct {
	Address   string `mapstructure:"address"`
	RateLimit *struct {
		Requests uint          `mapstructure:"requests"`
		Per      time.Duration `mapstructure:"per"`
	} `mapstructure:"rate-limit"`
}

type StoreConfig struct {
	Driver string `mapstructure:"driver"`
	Redis  *struct {
		Addr     string        `mapstructure:"addr"`
		Password string        `mapstructure:"password"`
		DB       int           `mapstructure:"db"`
		TTL      time.Duration `mapstructure:"ttl"`
	} `mapstructure:"redis"`
}

type LogConfig struct {
	File       string `mapstructure:"file"`
	MaxSize    int    `mapstructure:"max-size"`
	MaxBackups int    `mapstructure:"max-backups"`
	MaxAge     int    `mapstructure:"max-age"`
}

type ExtractionConfig struct {
	MaxDescriptionLength int `mapstructure:"max-description-length"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "hh-assessor builds job specific assessments with an LLM and scores candidate answers",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	for key, env := range map[string]string{
		"ai.gemini.api-key-file": "GEMINI_API_KEY_FILE",
		"store.redis.addr":       "HH_ASSESSOR_REDIS_ADDR",
	} {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	setDefaults()

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is hh-assessor.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func setDefaults() {
	viper.SetDefault("ai.provider", "gemini")
	viper.SetDefault("ai.gemini.model", "gemini-2.5-flash")
	viper.SetDefault("ai.gemini.max-log-length", 200)

	viper.SetDefault("quota.min-interval", quota.DefaultMinInterval)
	viper.SetDefault("quota.window", quota.DefaultWindow)
	viper.SetDefault("quota.max-calls", quota.DefaultMaxCalls)
	viper.SetDefault("quota.max-wait", quota.DefaultMaxWait)

	viper.SetDefault("server.address", server.DefaultAddress)
	viper.SetDefault("server.rate-limit.requests", 30)
	viper.SetDefault("server.rate-limit.per", time.Minute)

	viper.SetDefault("store.driver", "memory")
	viper.SetDefault("store.redis.addr", "localhost:6379")
	viper.SetDefault("store.redis.ttl", store.DefaultTTL)

	viper.SetDefault("extraction.max-description-length", skills.DefaultMaxDescriptionLen)
}

func initConfig() {
	// version does not need any configuration
	if versionCmd.CalledAs() != "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
	}

	// The config file is optional unless it was given explicitly.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}
