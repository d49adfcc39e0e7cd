package config

import (
	"strings"
	"testing"
)

func validSettings() map[string]string {
	return map[string]string{
		"session.signing_secret": "secret",
		"repository.url":         "https://repo.example.com",
		"repository.anon_key":    "anon",
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	configViper := NewViper()
	for key, value := range validSettings() {
		configViper.Set(key, value)
	}

	cfg, err := Load(configViper)
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	if cfg.HTTPAddress != "0.0.0.0:8080" {
		t.Fatalf("unexpected http address: %q", cfg.HTTPAddress)
	}
	if cfg.DatabasePath != "origin.db" {
		t.Fatalf("unexpected database path: %q", cfg.DatabasePath)
	}
	if cfg.SessionCookieName != "origin_session" {
		t.Fatalf("unexpected cookie name: %q", cfg.SessionCookieName)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("unexpected log level: %q", cfg.LogLevel)
	}
}

func TestLoadRejectsMissingRequiredSettings(t *testing.T) {
	required := []string{
		"session.signing_secret",
		"repository.url",
		"repository.anon_key",
	}
	for _, missing := range required {
		t.Run(missing, func(t *testing.T) {
			configViper := NewViper()
			for key, value := range validSettings() {
				if key == missing {
					continue
				}
				configViper.Set(key, value)
			}

			_, err := Load(configViper)
			if err == nil {
				t.Fatalf("expected error when %s is absent", missing)
			}
			if !strings.Contains(err.Error(), missing) {
				t.Fatalf("error %q should name %s", err, missing)
			}
		})
	}
}
