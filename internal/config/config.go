package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/todmy/keyphrase-extractor/internal/pipeline"
)

type Environment string

const (
	Development Environment = "development"
	Production  Environment = "production"
)

type AppConfig struct {
	Env        Environment
	LogLevel   string
	ServerPort string
}

type DatabaseConfig struct {
	URL string
}

type AuthConfig struct {
	SecretKey     string
	PasswordHash  string
	TokenDuration time.Duration
}

type ExtractionConfig struct {
	DefaultVariant          string
	CorpusSize              int
	FrequencyPath           string
	GazetteerPath           string
	ModelDir                string
	MostFrequentUnigrams    int
	MostFrequentNonUnigrams int
	TopN                    int
	Workers                 int
}

type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	Auth       AuthConfig
	Extraction ExtractionConfig
}

// Load reads an optional .env file and then the environment
func Load() (*Config, error) {
	_ = godotenv.Load()

	env := parseEnvironment(getEnv("APP_ENV", "development"))

	return &Config{
		App: AppConfig{
			Env:        env,
			LogLevel:   getLogLevel(env),
			ServerPort: getEnv("APP_SERVER_PORT", "8080"),
		},
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", ""),
		},
		Auth: AuthConfig{
			SecretKey:     getEnv("JWT_SECRET", "change-me-in-production"),
			PasswordHash:  getEnv("OPERATOR_PASSWORD_HASH", ""),
			TokenDuration: time.Duration(getEnvInt("TOKEN_DURATION_HOURS", 24)) * time.Hour,
		},
		Extraction: ExtractionConfig{
			DefaultVariant:          strings.ToLower(getEnv("EXTRACT_DEFAULT_VARIANT", string(pipeline.Kea))),
			CorpusSize:              getEnvInt("EXTRACT_CORPUS_SIZE", 144),
			FrequencyPath:           getEnv("EXTRACT_DF_PATH", ""),
			GazetteerPath:           getEnv("EXTRACT_GAZETTEER_PATH", ""),
			ModelDir:                getEnv("EXTRACT_MODEL_DIR", "./models"),
			MostFrequentUnigrams:    getEnvInt("EXTRACT_MF_UNIGRAMS", 30),
			MostFrequentNonUnigrams: getEnvInt("EXTRACT_MF_NON_UNIGRAMS", 30),
			TopN:                    getEnvInt("EXTRACT_TOP_N", 10),
			Workers:                 getEnvInt("EXTRACT_WORKERS", defaultWorkerCount()),
		},
	}, nil
}

func (c *Config) Validate() error {
	if _, err := pipeline.ParseVariant(c.Extraction.DefaultVariant); err != nil {
		return fmt.Errorf("EXTRACT_DEFAULT_VARIANT: %w", err)
	}
	positive := map[string]int{
		"EXTRACT_CORPUS_SIZE":     c.Extraction.CorpusSize,
		"EXTRACT_MF_UNIGRAMS":     c.Extraction.MostFrequentUnigrams,
		"EXTRACT_MF_NON_UNIGRAMS": c.Extraction.MostFrequentNonUnigrams,
		"EXTRACT_TOP_N":           c.Extraction.TopN,
		"EXTRACT_WORKERS":         c.Extraction.Workers,
		"TOKEN_DURATION_HOURS":    int(c.Auth.TokenDuration / time.Hour),
	}
	for name, v := range positive {
		if v <= 0 {
			return fmt.Errorf("%s must be positive, got %d", name, v)
		}
	}
	if c.App.Env == Production && c.Auth.SecretKey == "change-me-in-production" {
		return fmt.Errorf("JWT_SECRET is required in production")
	}
	return nil
}

func parseEnvironment(envStr string) Environment {
	env := Environment(strings.ToLower(envStr))

	switch env {
	case Development, Production:
		return env
	default:
		return Development
	}
}

func defaultWorkerCount() int {
	return max(min(runtime.NumCPU(), 8), 1)
}

func getLogLevel(env Environment) string {
	if env == Production {
		return getEnv("APP_LOG_LEVEL", "info")
	}

	return getEnv("APP_LOG_LEVEL", "debug")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
