// Package config provides configuration management for the bot.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Discord  DiscordConfig
	WebSub   WebSubConfig
	Fetcher  FetcherConfig
	Poller   PollerConfig
	Events   EventsConfig
	Logging  LoggingConfig
	API      APIConfig
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port            int
	ShutdownTimeout time.Duration
}

// DatabaseConfig contains the PostgreSQL connection configuration.
type DatabaseConfig struct {
	URL            string
	MaxConnections int32
	MinConnections int32
	MaxIdleTime    time.Duration
	MaxLifetime    time.Duration
}

// DiscordConfig contains the Discord bot credentials.
type DiscordConfig struct {
	Token string
}

// WebSubConfig contains the WebSub hub and callback configuration.
// CallbackBase is the public origin this process is reachable at; the
// per-channel callback path /websub/{webhookId} is appended to it.
type WebSubConfig struct {
	HubURL       string
	CallbackBase string
}

// FetcherConfig selects and configures the video data fetch strategy.
// Strategy is "api" (YouTube Data API v3, requires APIKey) or "invidious".
type FetcherConfig struct {
	Strategy          string
	APIKey            string
	InvidiousInstance string
	RatePerSecond     float64
	RateBurst         int
}

// PollerConfig contains the scheduled pass configuration.
type PollerConfig struct {
	RenewalSpec   string
	ReconcileSpec string
	RenewalWindow time.Duration
}

// EventsConfig contains the optional RabbitMQ notification tap. The tap is
// disabled when URL is empty.
type EventsConfig struct {
	URL        string
	Exchange   string
	RoutingKey string
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level string
	File  string
}

// APIConfig contains the management API configuration.
type APIConfig struct {
	Keys []string
}

// Load loads configuration from file and environment variables.
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	setDefaults()

	viper.AutomaticEnv()
	viper.SetEnvPrefix("DCYT")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found, use defaults and env vars
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("database.url is required")
	}
	if c.Discord.Token == "" {
		return fmt.Errorf("discord.token is required")
	}
	if c.WebSub.CallbackBase == "" {
		return fmt.Errorf("websub.callbackbase is required")
	}
	switch c.Fetcher.Strategy {
	case "api":
		if c.Fetcher.APIKey == "" {
			return fmt.Errorf("fetcher.apikey is required for the api strategy")
		}
	case "invidious":
	default:
		return fmt.Errorf("unknown fetcher strategy %q", c.Fetcher.Strategy)
	}
	return nil
}

func setDefaults() {
	// Server
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.shutdowntimeout", 30*time.Second)

	// Database
	viper.SetDefault("database.url", "")
	viper.SetDefault("database.maxconnections", 10)
	viper.SetDefault("database.minconnections", 2)
	viper.SetDefault("database.maxidletime", 10*time.Minute)
	viper.SetDefault("database.maxlifetime", 1*time.Hour)

	// WebSub
	viper.SetDefault("websub.huburl", "https://pubsubhubbub.appspot.com/subscribe")

	// Fetcher
	viper.SetDefault("fetcher.strategy", "api")
	viper.SetDefault("fetcher.invidiousinstance", "https://invidious.fdn.fr")
	viper.SetDefault("fetcher.ratepersecond", 2.0)
	viper.SetDefault("fetcher.rateburst", 5)

	// Poller
	viper.SetDefault("poller.renewalspec", "*/15 * * * *")
	viper.SetDefault("poller.reconcilespec", "*/5 * * * *")
	viper.SetDefault("poller.renewalwindow", 4*time.Hour)

	// Events
	viper.SetDefault("events.url", "")
	viper.SetDefault("events.exchange", "dcyt.notifications")
	viper.SetDefault("events.routingkey", "notification.published")

	// Logging
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.file", "")
}
