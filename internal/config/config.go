package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Storage backends
const (
	BackendJSON     = "json"
	BackendPostgres = "postgres"
)

// Config holds all server settings. Values come from an optional YAML file
// and can be overridden per-field through environment variables.
type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`

	Storage struct {
		Backend     string `yaml:"backend"`
		HistoryFile string `yaml:"historyFile"`
		SurveyFile  string `yaml:"surveyFile"`
		DatabaseURL string `yaml:"databaseUrl"`
	} `yaml:"storage"`

	AI struct {
		APIKey  string `yaml:"apiKey"`
		BaseURL string `yaml:"baseUrl"`
		Model   string `yaml:"model"`
	} `yaml:"ai"`

	Auth struct {
		JWTSecret string `yaml:"jwtSecret"`
	} `yaml:"auth"`

	Email struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Sender   string `yaml:"sender"`
		Password string `yaml:"password"`
	} `yaml:"email"`
}

// Load reads the YAML config at path (missing file is fine) and applies
// environment overrides on top.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	applyEnv(cfg)

	if cfg.Storage.Backend != BackendJSON && cfg.Storage.Backend != BackendPostgres {
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
	if cfg.Storage.Backend == BackendPostgres && cfg.Storage.DatabaseURL == "" {
		return nil, fmt.Errorf("postgres backend requires a database url")
	}

	return cfg, nil
}

func defaults() *Config {
	cfg := &Config{}
	cfg.Server.Port = 8080
	cfg.Storage.Backend = BackendJSON
	cfg.Storage.HistoryFile = "history.json"
	cfg.Storage.SurveyFile = "satisfaction.json"
	cfg.Email.Host = "smtp.gmail.com"
	cfg.Email.Port = 587
	return cfg
}

func applyEnv(cfg *Config) {
	setString(&cfg.Storage.Backend, "STORAGE_BACKEND")
	setString(&cfg.Storage.HistoryFile, "HISTORY_FILE")
	setString(&cfg.Storage.SurveyFile, "SURVEY_FILE")
	setString(&cfg.Storage.DatabaseURL, "DATABASE_URL")
	setString(&cfg.AI.APIKey, "AI_API_KEY")
	setString(&cfg.AI.BaseURL, "AI_BASE_URL")
	setString(&cfg.AI.Model, "AI_MODEL")
	setString(&cfg.Auth.JWTSecret, "JWT_SECRET")
	setString(&cfg.Email.Host, "EMAIL_SMTP_SERVER")
	setString(&cfg.Email.Sender, "EMAIL_SENDER")
	setString(&cfg.Email.Password, "EMAIL_PASSWORD")
	setInt(&cfg.Server.Port, "PORT")
	setInt(&cfg.Email.Port, "EMAIL_SMTP_PORT")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
