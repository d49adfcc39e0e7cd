package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	envPrefix           = "ORIGIN"
	defaultHTTPAddress  = "0.0.0.0:8080"
	defaultDatabasePath = "origin.db"
	defaultLogLevel     = "info"
	defaultCookieName   = "origin_session"
)

// AppConfig captures runtime configuration for the app server.
type AppConfig struct {
	HTTPAddress       string
	SessionSigningKey string
	SessionCookieName string
	RepositoryURL     string
	RepositoryKey     string
	IdentityURL       string
	IdentityKey       string
	AssistantURL      string
	AssistantKey      string
	AssistantModel    string
	LocatorURL        string
	DatabasePath      string
	LogLevel          string
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	configViper := viper.New()
	ApplyDefaults(configViper)
	return configViper
}

// ApplyDefaults configures defaults and env bindings on the provided viper instance.
func ApplyDefaults(configViper *viper.Viper) {
	configViper.SetEnvPrefix(envPrefix)
	configViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	configViper.AutomaticEnv()

	configViper.SetDefault("http.address", defaultHTTPAddress)
	configViper.SetDefault("database.path", defaultDatabasePath)
	configViper.SetDefault("log.level", defaultLogLevel)
	configViper.SetDefault("session.cookie_name", defaultCookieName)
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddress:       configViper.GetString("http.address"),
		SessionSigningKey: configViper.GetString("session.signing_secret"),
		SessionCookieName: configViper.GetString("session.cookie_name"),
		RepositoryURL:     configViper.GetString("repository.url"),
		RepositoryKey:     configViper.GetString("repository.anon_key"),
		IdentityURL:       configViper.GetString("identity.url"),
		IdentityKey:       configViper.GetString("identity.anon_key"),
		AssistantURL:      configViper.GetString("assistant.url"),
		AssistantKey:      configViper.GetString("assistant.api_key"),
		AssistantModel:    configViper.GetString("assistant.model"),
		LocatorURL:        configViper.GetString("locator.url"),
		DatabasePath:      configViper.GetString("database.path"),
		LogLevel:          configViper.GetString("log.level"),
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

func (c AppConfig) validate() error {
	if strings.TrimSpace(c.SessionSigningKey) == "" {
		return fmt.Errorf("session.signing_secret is required")
	}
	if strings.TrimSpace(c.DatabasePath) == "" {
		return fmt.Errorf("database.path is required")
	}
	if strings.TrimSpace(c.SessionCookieName) == "" {
		return fmt.Errorf("session.cookie_name is required")
	}
	if strings.TrimSpace(c.RepositoryURL) == "" {
		return fmt.Errorf("repository.url is required")
	}
	if strings.TrimSpace(c.RepositoryKey) == "" {
		return fmt.Errorf("repository.anon_key is required")
	}
	return nil
}
