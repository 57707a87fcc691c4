package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/smartworkx/minion/internal/config"
	"github.com/smartworkx/minion/internal/ledger"
)

var tasksStatus string

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "List tasks recorded in the ledger",
	Run:   runTasks,
}

func init() {
	tasksCmd.Flags().StringVarP(&tasksStatus, "status", "s", "", "Filter by status (claimed, done, failed)")
}

func runTasks(cmd *cobra.Command, args []string) {
	printHeader("📋 minion Tasks")

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Printf("Config error: %v\n", err)
		os.Exit(1)
	}

	store, err := ledger.Open(cfg.Ledger.Path)
	if err != nil {
		fmt.Printf("Ledger error: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	tasks, err := store.ListTasks(tasksStatus)
	if err != nil {
		fmt.Printf("Ledger error: %v\n", err)
		os.Exit(1)
	}
	if len(tasks) == 0 {
		fmt.Println("No tasks found.")
		return
	}

	for _, task := range tasks {
		fmt.Printf("%-24s %-8s %-10s %s\n", task.ID, task.Status, task.Agent, task.Title)
	}
}
