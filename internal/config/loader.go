package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is the prefix for all environment overrides, e.g.
// MINION_AGENT_NAME or MINION_GITHUB_TOKEN.
const EnvPrefix = "MINION"

// Load reads configuration with priority environment > file > defaults.
// path may be empty, in which case only defaults and environment apply.
// A missing file at an explicit path is an error; a missing .env is not.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	groups := []struct {
		prefix string
		target any
	}{
		{EnvPrefix + "_AGENT", &cfg.Agent},
		{EnvPrefix + "_API", &cfg.API},
		{EnvPrefix + "_KAFKA", &cfg.Kafka},
		{EnvPrefix + "_TOOLS", &cfg.Tools},
		{EnvPrefix + "_CONVERSATION", &cfg.Conversation},
		{EnvPrefix + "_GITHUB", &cfg.GitHub},
		{EnvPrefix + "_ANTHROPIC", &cfg.Providers.Anthropic},
		{EnvPrefix + "_LEDGER", &cfg.Ledger},
	}
	for _, g := range groups {
		if err := envconfig.Process(g.prefix, g.target); err != nil {
			return nil, fmt.Errorf("process env %s: %w", g.prefix, err)
		}
	}

	// Fallbacks for the conventional credential variables.
	if cfg.Providers.Anthropic.APIKey == "" {
		cfg.Providers.Anthropic.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if cfg.GitHub.Token == "" {
		cfg.GitHub.Token = os.Getenv("GITHUB_TOKEN")
	}

	expandHome(&cfg.Ledger.Path)
	for i := range cfg.Tools.AllowedPaths {
		expandHome(&cfg.Tools.AllowedPaths[i])
	}
	for i := range cfg.Tools.GitRepos {
		expandHome(&cfg.Tools.GitRepos[i])
	}

	return cfg, nil
}

func expandHome(p *string) {
	if strings.HasPrefix(*p, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			*p = filepath.Join(home, (*p)[1:])
		}
	}
}
