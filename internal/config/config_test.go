package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.FeedURL != "https://download.swift.org/swift-evolution/v1/evolution.json" {
		t.Errorf("FeedURL = %q", cfg.FeedURL)
	}
	if cfg.HTTPTimeout != 30*time.Second {
		t.Errorf("HTTPTimeout = %v, want 30s", cfg.HTTPTimeout)
	}
	if cfg.FetchConcurrency != 8 {
		t.Errorf("FetchConcurrency = %d, want 8", cfg.FetchConcurrency)
	}
	if cfg.CORSOrigin != "*" {
		t.Errorf("CORSOrigin = %q, want *", cfg.CORSOrigin)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("HTTP_TIMEOUT", "5s")
	t.Setenv("FETCH_CONCURRENCY", "2")
	t.Setenv("PRETTY_LOG", "true")

	cfg := Load()
	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want 9090", cfg.Port)
	}
	if cfg.HTTPTimeout != 5*time.Second {
		t.Errorf("HTTPTimeout = %v, want 5s", cfg.HTTPTimeout)
	}
	if cfg.FetchConcurrency != 2 {
		t.Errorf("FetchConcurrency = %d, want 2", cfg.FetchConcurrency)
	}
	if !cfg.PrettyLog {
		t.Error("PrettyLog not overridden")
	}
}

func TestLoadMalformedValuesFallBack(t *testing.T) {
	t.Setenv("HTTP_TIMEOUT", "soon")
	t.Setenv("FETCH_CONCURRENCY", "many")

	cfg := Load()
	if cfg.HTTPTimeout != 30*time.Second {
		t.Errorf("HTTPTimeout = %v, want default", cfg.HTTPTimeout)
	}
	if cfg.FetchConcurrency != 8 {
		t.Errorf("FetchConcurrency = %d, want default", cfg.FetchConcurrency)
	}
}
