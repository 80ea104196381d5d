package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ClassifierHuggingFace = "huggingface"
	ClassifierLocal       = "local"
	ClassifierNone        = "none"

	DefaultHFModel = "mrm8488/bert-tiny-finetuned-fake-news"

	// Google API keys always carry this prefix; anything else is treated as missing.
	googleKeyPrefix = "AIza"
)

type Config struct {
	Port       string
	LogLevel   string
	AdminToken string

	DbUrl    string
	RedisUrl string

	GoogleAPIKey      string
	NewsAPIKey        string
	FactCheckTimeout  time.Duration
	FactCheckRPS      float64
	FactCheckCacheTTL time.Duration

	Classifier string
	HFAPIToken string
	HFModel    string
	ModelPath  string

	LexiconPath string
}

func Load() (*Config, error) {
	// A missing .env file is fine, the environment may already be populated.
	_ = godotenv.Load()

	timeout, err := getDuration("FACTCHECK_TIMEOUT", 6*time.Second)
	if err != nil {
		return nil, err
	}
	ttl, err := getDuration("FACTCHECK_CACHE_TTL", 24*time.Hour)
	if err != nil {
		return nil, err
	}
	rps, err := getFloat("FACTCHECK_RPS", 5)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:       getEnvOrDefault("PORT", "5000"),
		LogLevel:   getEnvOrDefault("LOG_LEVEL", "info"),
		AdminToken: os.Getenv("ADMIN_TOKEN"),

		DbUrl:    os.Getenv("DB_URL"),
		RedisUrl: os.Getenv("REDIS_URL"),

		GoogleAPIKey:      os.Getenv("GOOGLE_API_KEY"),
		NewsAPIKey:        os.Getenv("NEWS_API_KEY"),
		FactCheckTimeout:  timeout,
		FactCheckRPS:      rps,
		FactCheckCacheTTL: ttl,

		Classifier: strings.ToLower(getEnvOrDefault("CLASSIFIER", ClassifierHuggingFace)),
		HFAPIToken: os.Getenv("HF_API_TOKEN"),
		HFModel:    getEnvOrDefault("HF_MODEL", DefaultHFModel),
		ModelPath:  os.Getenv("MODEL_PATH"),

		LexiconPath: os.Getenv("SENTIMENT_LEXICON"),
	}

	switch cfg.Classifier {
	case ClassifierHuggingFace, ClassifierNone:
	case ClassifierLocal:
		if cfg.ModelPath == "" {
			return nil, fmt.Errorf("CLASSIFIER=local requires MODEL_PATH")
		}
	default:
		return nil, fmt.Errorf("unknown CLASSIFIER %q", cfg.Classifier)
	}

	return cfg, nil
}

// FactCheckEnabled reports whether the Google key looks usable.
func (c *Config) FactCheckEnabled() bool {
	return strings.HasPrefix(c.GoogleAPIKey, googleKeyPrefix)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getFloat(key string, defaultValue float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}
