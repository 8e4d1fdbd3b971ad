package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env      string
	LogLevel string
	HTTPAddr string

	DBType       string
	DBDSN        string
	SQLitePath   string
	FileFood     string
	FileStool    string
	FileProfiles string

	AuthMode       string
	AuthToken      string
	AuthServiceURL string
	AuthAPIKey     string
	AuthJWTSecret  string

	LLMProvider   string
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string
	GeminiAPIKey  string
	GeminiModel   string
	LLMTimeout    time.Duration

	RAGServiceURL string
	RAGTimeout    time.Duration

	Timezone       string
	ClassifierFile string
}

var (
	cfg  *Config
	once sync.Once
)

// Load reads .env (when present) and the process environment once.
func Load() *Config {
	once.Do(func() {
		_ = godotenv.Load()
		c, err := FromEnv()
		if err != nil {
			panic("Invalid config: " + err.Error())
		}
		cfg = c
	})
	return cfg
}

// FromEnv builds and validates a Config from the current environment.
func FromEnv() (*Config, error) {
	c := &Config{
		Env:      getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		HTTPAddr: getEnv("HTTP_ADDR", ":8088"),

		DBType:       getEnv("STORAGE_BACKEND", "file"),
		DBDSN:        getEnv("POSTGRES_DSN", ""),
		SQLitePath:   getEnv("SQLITE_PATH", "data/gut.db"),
		FileFood:     getEnv("FOOD_FILE", "data/food_logs.json"),
		FileStool:    getEnv("STOOL_FILE", "data/stool_logs.json"),
		FileProfiles: getEnv("PROFILE_FILE", "data/profiles.json"),

		AuthMode:       getEnv("AUTH_MODE", "local"),
		AuthToken:      getEnv("AUTH_TOKEN", "MOCK-TOKEN"),
		AuthServiceURL: getEnv("AUTH_SERVICE_URL", ""),
		AuthAPIKey:     getEnv("AUTH_API_KEY", ""),
		AuthJWTSecret:  getEnv("AUTH_JWT_SECRET", ""),

		LLMProvider:   getEnv("LLM_PROVIDER", "openai"),
		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		GeminiModel:   getEnv("GEMINI_MODEL", "gemini-2.0-flash"),

		RAGServiceURL: strings.TrimRight(getEnv("RAG_SERVICE_URL", ""), "/"),

		Timezone:       getEnv("APP_TIMEZONE", ""),
		ClassifierFile: getEnv("CLASSIFIER_FILE", ""),
	}

	var err error
	if c.LLMTimeout, err = getDuration("LLM_TIMEOUT", 60*time.Second); err != nil {
		return nil, err
	}
	if c.RAGTimeout, err = getDuration("RAG_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	switch c.DBType {
	case "postgres":
		if c.DBDSN == "" {
			return errors.New("POSTGRES_DSN is required when STORAGE_BACKEND=postgres")
		}
	case "sqlite":
		if c.SQLitePath == "" {
			return errors.New("SQLITE_PATH is required when STORAGE_BACKEND=sqlite")
		}
	case "file":
		if c.FileFood == "" || c.FileStool == "" || c.FileProfiles == "" {
			return errors.New("File storage requires FOOD_FILE, STOOL_FILE and PROFILE_FILE to be set")
		}
	default:
		return fmt.Errorf("STORAGE_BACKEND must be one of: file, postgres, sqlite (got %q)", c.DBType)
	}

	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return errors.New("APP_ENV must be one of: development, staging, production")
	}

	switch c.AuthMode {
	case "local":
		if c.Env == "production" {
			return errors.New("AUTH_MODE=local is not allowed in production")
		}
		if c.AuthToken == "" {
			return errors.New("AUTH_TOKEN is required when AUTH_MODE=local")
		}
	case "remote":
		if c.AuthServiceURL == "" {
			return errors.New("AUTH_SERVICE_URL is required when AUTH_MODE=remote")
		}
	case "jwt":
		if c.AuthJWTSecret == "" {
			return errors.New("AUTH_JWT_SECRET is required when AUTH_MODE=jwt")
		}
	default:
		return fmt.Errorf("AUTH_MODE must be one of: local, remote, jwt (got %q)", c.AuthMode)
	}

	if c.LLMProvider != "openai" && c.LLMProvider != "gemini" {
		return fmt.Errorf("LLM_PROVIDER must be one of: openai, gemini (got %q)", c.LLMProvider)
	}

	if c.Timezone != "" {
		if _, err := time.LoadLocation(c.Timezone); err != nil {
			return fmt.Errorf("APP_TIMEZONE: %w", err)
		}
	}
	return nil
}

// Location resolves the calendar time zone used for day boundaries.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
