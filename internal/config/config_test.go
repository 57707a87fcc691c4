package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Agent.Name != "venus" {
		t.Errorf("agent name = %q", cfg.Agent.Name)
	}
	if cfg.API.Port != 8080 {
		t.Errorf("api port = %d", cfg.API.Port)
	}
	if cfg.GitHub.Labels.Plan != "minion:plan" {
		t.Errorf("plan label = %q", cfg.GitHub.Labels.Plan)
	}
	if cfg.GitHub.PollIntervalSeconds != 60 {
		t.Errorf("poll interval = %d", cfg.GitHub.PollIntervalSeconds)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{
		"agent": {"name": "mars", "model": "other-model", "maxTokens": 2048},
		"github": {"repo": "smartworkx/infra"}
	}`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Agent.Name != "mars" || cfg.Agent.MaxTokens != 2048 {
		t.Errorf("agent = %+v", cfg.Agent)
	}
	if cfg.GitHub.Repo != "smartworkx/infra" {
		t.Errorf("repo = %q", cfg.GitHub.Repo)
	}
	// Untouched groups keep defaults.
	if cfg.Conversation.MaxHistory != 50 {
		t.Errorf("max history = %d", cfg.Conversation.MaxHistory)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"agent": {"name": "mars"}}`), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MINION_AGENT_NAME", "jupiter")
	t.Setenv("MINION_ANTHROPIC_API_KEY", "sk-test")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Agent.Name != "jupiter" {
		t.Errorf("agent name = %q, want env override", cfg.Agent.Name)
	}
	if cfg.Providers.Anthropic.APIKey != "sk-test" {
		t.Errorf("api key = %q", cfg.Providers.Anthropic.APIKey)
	}
}

func TestLoadMissingExplicitFileFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("Load() succeeded on missing file")
	}
}

func TestAnthropicKeyFallback(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "sk-fallback")
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Providers.Anthropic.APIKey != "sk-fallback" {
		t.Errorf("api key = %q", cfg.Providers.Anthropic.APIKey)
	}
}
