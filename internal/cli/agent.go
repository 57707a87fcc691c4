package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/smartworkx/minion/internal/chat"
	"github.com/smartworkx/minion/internal/config"
	"github.com/smartworkx/minion/internal/events"
	"github.com/smartworkx/minion/internal/provider"
)

var agentMessage string

var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "Chat with the agent directly in CLI",
	Run:   runAgent,
}

func init() {
	agentCmd.Flags().StringVarP(&agentMessage, "message", "m", "", "Message to send to the agent")
}

func runAgent(cmd *cobra.Command, args []string) {
	if agentMessage == "" {
		fmt.Println("Error: --message is required")
		os.Exit(1)
	}

	printHeader("🤖 minion Agent")

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Printf("Config error: %v\n", err)
		os.Exit(1)
	}
	if cfg.Providers.Anthropic.APIKey == "" {
		fmt.Println("Error: no Anthropic API key configured (set ANTHROPIC_API_KEY)")
		os.Exit(1)
	}

	prov := provider.NewAnthropicProvider(
		cfg.Providers.Anthropic.APIKey,
		cfg.Providers.Anthropic.APIBase,
		cfg.Agent.Model,
	)
	handler := chat.New(prov, buildRegistry(cfg, true), cfg.Agent.Name, cfg.Agent.Model, cfg.Conversation.MaxHistory)

	response, err := handler.Handle(context.Background(), events.New("chat.message", "cli", map[string]any{
		"content": agentMessage,
		"sender":  "user",
	}))
	if err != nil {
		fmt.Printf("Agent error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(response)
}
