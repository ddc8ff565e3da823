package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/modelfold/smops/internal/history"
)

var historyLimit int

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history [endpoint]",
	Short: "Review recorded endpoint transitions",
	Long: `Show the locally recorded status transitions for an endpoint,
newest first. Without an endpoint, list every endpoint with recorded
transitions.`,
	Example: `  smops history                       # List endpoints with history
  smops history credit-model          # Show transitions for an endpoint
  smops history credit-model -n 5     # Only the last five`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum transitions to show (0 for all)")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := history.Open(cfg.History.Dir)
	if err != nil {
		return err
	}
	defer store.Close()

	if len(args) == 0 {
		endpoints, err := store.Endpoints()
		if err != nil {
			return err
		}
		if len(endpoints) == 0 {
			fmt.Println("No recorded transitions yet.")
			return nil
		}
		for _, name := range endpoints {
			fmt.Println(name)
		}
		return nil
	}

	transitions, err := store.List(args[0], historyLimit)
	if err != nil {
		return err
	}
	if len(transitions) == 0 {
		fmt.Printf("No recorded transitions for %s.\n", args[0])
		return nil
	}
	for _, t := range transitions {
		fmt.Printf("%s  %-10s %-30s %s\n",
			t.ObservedAt.Format("2006-01-02 15:04:05"), t.Status, t.State, t.ExecutionArn)
	}
	return nil
}
