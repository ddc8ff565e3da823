package main

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/sfn"
	"github.com/spf13/cobra"

	"github.com/modelfold/smops/internal/approval"
)

// approveCmd represents the approve command
var approveCmd = &cobra.Command{
	Use:   "approve <task-token>",
	Short: "Approve a pending deployment",
	Long: `Resume a deployment paused for approval. The task token comes from
the approval notification.`,
	Args: cobra.ExactArgs(1),
	RunE: runDecision(approval.DecisionApprove),
}

// rejectCmd represents the reject command
var rejectCmd = &cobra.Command{
	Use:   "reject <task-token>",
	Short: "Reject a pending deployment",
	Long: `Fail a deployment paused for approval, routing the pipeline to
rollback. The task token comes from the approval notification.`,
	Args: cobra.ExactArgs(1),
	RunE: runDecision(approval.DecisionReject),
}

func init() {
	rootCmd.AddCommand(approveCmd)
	rootCmd.AddCommand(rejectCmd)
}

func runDecision(decision approval.Decision) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		awsCfg, err := loadAWSConfig(ctx, cfg.Region)
		if err != nil {
			return err
		}

		responder := approval.NewResponder(sfn.NewFromConfig(awsCfg), logger)
		if err := responder.Respond(ctx, decision, args[0]); err != nil {
			return err
		}
		fmt.Printf("Decision recorded: %s\n", decision)
		return nil
	}
}
