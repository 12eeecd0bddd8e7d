package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Site      SiteConfig
	Cache     CacheConfig
	Gemini    GeminiConfig
	Assistant AssistantConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// SiteConfig holds the retail-site crawl configuration
type SiteConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	SeedPaths         []string      `mapstructure:"seed_paths"`
	Categories        []string      `mapstructure:"categories"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
	PageTimeout       time.Duration `mapstructure:"page_timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
}

// CacheConfig holds catalog cache configuration
type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// GeminiConfig holds generation backend configuration. An empty API key
// disables generation; the assistant then answers deterministically.
type GeminiConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Temperature float32       `mapstructure:"temperature"`
	MaxTokens   int32         `mapstructure:"max_tokens"`
}

// AssistantConfig holds response-shaping configuration
type AssistantConfig struct {
	SupportEmail       string `mapstructure:"support_email"`
	HistoryWindow      int    `mapstructure:"history_window"`
	MaxDisplayProducts int    `mapstructure:"max_display_products"`
	KnowledgeFile      string `mapstructure:"knowledge_file"`
	OffersPath         string `mapstructure:"offers_path"`
	NewsletterPath     string `mapstructure:"newsletter_path"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/shoptalk/")

	v.SetEnvPrefix("SHOPTALK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional; env vars and defaults suffice.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("site.base_url", "https://shop.example.com")
	v.SetDefault("site.seed_paths", []string{
		"/", "/sale", "/products",
		"/category/hair-care", "/category/grooming", "/category/home",
	})
	v.SetDefault("site.categories", []string{"hair care", "grooming", "home", "kitchen"})
	v.SetDefault("site.request_timeout", "30s")
	v.SetDefault("site.page_timeout", "10s")
	v.SetDefault("site.requests_per_second", 4.0)

	v.SetDefault("cache.ttl", "5m")

	v.SetDefault("gemini.model", "gemini-2.0-flash")
	v.SetDefault("gemini.timeout", "15s")
	v.SetDefault("gemini.temperature", 0.6)
	v.SetDefault("gemini.max_tokens", 1024)

	v.SetDefault("assistant.support_email", "support@shoptalk.example")
	v.SetDefault("assistant.history_window", 10)
	v.SetDefault("assistant.max_display_products", 5)
	v.SetDefault("assistant.offers_path", "/sale")
	v.SetDefault("assistant.newsletter_path", "/newsletter")
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Site.BaseURL == "" {
		return fmt.Errorf("site base URL is required (set SHOPTALK_SITE_BASE_URL)")
	}

	if config.Cache.TTL <= 0 {
		return fmt.Errorf("cache TTL must be positive, got: %s", config.Cache.TTL)
	}

	if config.Server.Environment != "development" && config.Server.Environment != "production" && config.Server.Environment != "test" {
		return fmt.Errorf("environment must be 'development', 'production' or 'test', got: %s", config.Server.Environment)
	}

	return nil
}
