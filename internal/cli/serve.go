package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/smartworkx/minion/internal/api"
	"github.com/smartworkx/minion/internal/chat"
	"github.com/smartworkx/minion/internal/claim"
	"github.com/smartworkx/minion/internal/config"
	"github.com/smartworkx/minion/internal/events"
	"github.com/smartworkx/minion/internal/github"
	"github.com/smartworkx/minion/internal/ledger"
	"github.com/smartworkx/minion/internal/provider"
	"github.com/smartworkx/minion/internal/source"
	"github.com/smartworkx/minion/internal/tools"
	"github.com/smartworkx/minion/internal/vcs"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the agent with all configured sources",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	printHeader("🤖 minion Agent")

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Providers.Anthropic.APIKey == "" {
		return errors.New("no Anthropic API key configured (set ANTHROPIC_API_KEY)")
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Ledger.Path), 0o755); err != nil {
		return fmt.Errorf("create ledger directory: %w", err)
	}
	store, err := ledger.Open(cfg.Ledger.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	prov := provider.NewAnthropicProvider(
		cfg.Providers.Anthropic.APIKey,
		cfg.Providers.Anthropic.APIBase,
		cfg.Agent.Model,
	)

	fullRegistry := buildRegistry(cfg, true)
	dispatcher := events.NewDispatcher()

	// The chat handler registers first so it owns chat.message events.
	dispatcher.Register(chat.New(prov, fullRegistry, cfg.Agent.Name, cfg.Agent.Model, cfg.Conversation.MaxHistory))

	broadcaster := claim.NewBroadcaster(cfg.Agent.Name, cfg.Kafka.TopicPrefix)

	var sources []events.Source
	if len(cfg.Kafka.Brokers) > 0 {
		publisher := claim.NewKafkaPublisher(cfg.Kafka.Brokers)
		defer publisher.Close()
		broadcaster.SetPublisher(publisher)

		consumer := source.NewKafkaConsumer(
			cfg.Kafka.Brokers,
			cfg.Kafka.ConsumerGroup,
			source.InboxTopic(cfg.Kafka.TopicPrefix, cfg.Agent.Name),
		)
		sources = append(sources, source.NewChatSource(consumer, publisher, cfg.Kafka.TopicPrefix, cfg.Agent.Name))
		slog.Info("Kafka bus enabled", "brokers", cfg.Kafka.Brokers)
	} else {
		slog.Info("No Kafka brokers configured, running in local mode")
	}

	if cfg.GitHub.Repo != "" {
		if cfg.GitHub.Token == "" {
			return errors.New("github.repo is set but no token configured (set GITHUB_TOKEN)")
		}
		if len(cfg.Tools.GitRepos) == 0 {
			return errors.New("github.repo is set but tools.gitRepos is empty")
		}

		host, err := github.NewClient(cfg.GitHub.Token, cfg.GitHub.Repo)
		if err != nil {
			return err
		}
		git := vcs.New(cfg.Tools.GitRepos[0])
		labels := github.Labels{
			Plan:         cfg.GitHub.Labels.Plan,
			Planned:      cfg.GitHub.Labels.Planned,
			Implement:    cfg.GitHub.Labels.Implement,
			Implementing: cfg.GitHub.Labels.Implementing,
			Done:         cfg.GitHub.Labels.Done,
		}

		// Planning works against a registry without file_write so the
		// model can inspect the repo but not change it.
		dispatcher.Register(github.NewPlanHandler(
			prov, buildRegistry(cfg, false), store, host, git, labels,
			cfg.Agent.Name, cfg.Agent.Model, cfg.GitHub.BaseBranch,
		))
		dispatcher.Register(github.NewImplementHandler(
			prov, fullRegistry, store, broadcaster, host, git, labels,
			cfg.Agent.Name, cfg.Agent.Model, cfg.GitHub.BaseBranch,
		))
		sources = append(sources, github.NewSource(
			host, store, labels,
			time.Duration(cfg.GitHub.PollIntervalSeconds)*time.Second,
		))
		slog.Info("GitHub workflows enabled", "repo", cfg.GitHub.Repo)
	}

	server := api.NewServer(fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port), dispatcher)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	for _, src := range sources {
		go func(src events.Source) {
			if err := src.Start(ctx, dispatcher); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("Source stopped", "error", err)
			}
		}(src)
	}
	go func() {
		if err := server.Start(); err != nil {
			slog.Error("API server stopped", "error", err)
			stop()
		}
	}()

	slog.Info("Agent running", "agent", cfg.Agent.Name, "model", cfg.Agent.Model)
	<-ctx.Done()

	slog.Info("Shutting down")
	for _, src := range sources {
		src.Stop()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// buildRegistry assembles the tool registry from the enabled list. With
// writable false the file_write tool is left out.
func buildRegistry(cfg *config.Config, writable bool) *tools.Registry {
	registry := tools.NewRegistry()
	timeout := time.Duration(cfg.Tools.ShellTimeoutSeconds) * time.Second
	workDir := ""
	if len(cfg.Tools.GitRepos) > 0 {
		workDir = cfg.Tools.GitRepos[0]
	}

	for _, name := range cfg.Tools.Enabled {
		switch name {
		case "shell":
			registry.Register(tools.NewShellTool(timeout, workDir))
		case "file_read":
			registry.Register(tools.NewFileReadTool(cfg.Tools.AllowedPaths))
		case "file_write":
			if writable {
				registry.Register(tools.NewFileWriteTool(cfg.Tools.AllowedPaths))
			}
		case "git":
			registry.Register(tools.NewGitTool(cfg.Tools.GitRepos, timeout))
		default:
			slog.Warn("Unknown tool in config, skipping", "tool", name)
		}
	}
	return registry
}
