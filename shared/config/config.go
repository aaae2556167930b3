package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	YouTube  YouTubeConfig  `yaml:"youtube"`
	AI       AIConfig       `yaml:"ai"`
	Database DatabaseConfig `yaml:"database"`
	Search   SearchConfig   `yaml:"search"`
}

type ServerConfig struct {
	Port        int      `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
}

type YouTubeConfig struct {
	APIKey            string `yaml:"api_key" env:"YOUTUBE_API_KEY"`
	ClientID          string `yaml:"client_id" env:"GOOGLE_CLIENT_ID"`
	ClientSecret      string `yaml:"client_secret" env:"GOOGLE_CLIENT_SECRET"`
	TokenFile         string `yaml:"token_file"`
	MaxResults        int64  `yaml:"max_results"`
	RelevanceLanguage string `yaml:"relevance_language"`
}

type AIConfig struct {
	GeminiAPIKey string `yaml:"gemini_api_key" env:"GEMINI_API_KEY"`
	Model        string `yaml:"model"`
}

type DatabaseConfig struct {
	Path          string `yaml:"path"`
	AdminPassword string `yaml:"admin_password" env:"ADMIN_PASSWORD"`
}

type SearchConfig struct {
	CacheTTLHours int    `yaml:"cache_ttl_hours"`
	PruneSchedule string `yaml:"prune_schedule"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	configFile := os.Getenv("CONFIG_FILE")
	if configFile == "" {
		configFile = "config.yaml"
	}

	var cfg Config
	data, err := os.ReadFile(configFile)
	if err != nil {
		// Config can come entirely from the environment; only a present
		// but unreadable file is an error.
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configFile, err)
	}

	if cfg.YouTube.APIKey == "" {
		cfg.YouTube.APIKey = os.Getenv("YOUTUBE_API_KEY")
	}
	if cfg.YouTube.ClientID == "" {
		cfg.YouTube.ClientID = os.Getenv("GOOGLE_CLIENT_ID")
	}
	if cfg.YouTube.ClientSecret == "" {
		cfg.YouTube.ClientSecret = os.Getenv("GOOGLE_CLIENT_SECRET")
	}
	if cfg.AI.GeminiAPIKey == "" {
		cfg.AI.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.Database.AdminPassword == "" {
		cfg.Database.AdminPassword = os.Getenv("ADMIN_PASSWORD")
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		cfg.Server.CORSOrigins = []string{"*"}
	}
	if cfg.YouTube.TokenFile == "" {
		cfg.YouTube.TokenFile = "youtube_token.json"
	}
	if cfg.YouTube.MaxResults == 0 {
		cfg.YouTube.MaxResults = 6
	}
	if cfg.YouTube.RelevanceLanguage == "" {
		cfg.YouTube.RelevanceLanguage = "en"
	}
	if cfg.AI.Model == "" {
		cfg.AI.Model = "gemini-2.5-flash"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "data/app.db"
	}
	if cfg.Search.CacheTTLHours == 0 {
		cfg.Search.CacheTTLHours = 24
	}
	if cfg.Search.PruneSchedule == "" {
		cfg.Search.PruneSchedule = "@hourly"
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.YouTube.APIKey == "" && (c.YouTube.ClientID == "" || c.YouTube.ClientSecret == "") {
		return fmt.Errorf("YouTube credentials are required (set YOUTUBE_API_KEY, or GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET for OAuth)")
	}
	if c.AI.GeminiAPIKey == "" {
		return fmt.Errorf("Gemini API key is required (set GEMINI_API_KEY or ai.gemini_api_key)")
	}
	if c.YouTube.MaxResults < 1 || c.YouTube.MaxResults > 50 {
		return fmt.Errorf("youtube.max_results must be between 1 and 50, got %d", c.YouTube.MaxResults)
	}
	return nil
}
