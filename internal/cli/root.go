package cli

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	// version can be overridden at build time via:
	// go build -ldflags "-X github.com/smartworkx/minion/internal/cli.version=1.2.3"
	version = "0.3.0"
	logo    = "\n" +
		"            _       _\n" +
		"  _ __ ___ (_)_ __ (_) ___  _ __\n" +
		" | '_ ` _ \\| | '_ \\| |/ _ \\| '_ \\\n" +
		" | | | | | | | | | | | (_) | | | |\n" +
		" |_| |_| |_|_|_| |_|_|\\___/|_| |_|\n"
)

// configPath is shared by all commands via the persistent --config flag.
var configPath string

var rootCmd = &cobra.Command{
	Use:   "minion",
	Short: "minion - autonomous coding agent",
	Long:  color.CyanString(logo) + "\nAn autonomous agent that chats, plans, and implements GitHub issues.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to JSON config file")
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(agentCmd)
	rootCmd.AddCommand(tasksCmd)
}
