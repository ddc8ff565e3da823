package main

import (
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sfn"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/spf13/cobra"

	"github.com/modelfold/smops/internal/project"
)

var submitWait bool

// submitCmd represents the submit command
var submitCmd = &cobra.Command{
	Use:   "submit <registration.json>",
	Short: "Submit a trained model to the release pipeline",
	Long: `Start the project's model approval/deployment pipeline with a
model registration payload (the training job description produced by the
training pipeline).`,
	Example: `  smops submit registration.json          # Submit a candidate model
  smops submit registration.json --wait   # Submit and track until done`,
	Args: cobra.ExactArgs(1),
	RunE: runSubmit,
}

func init() {
	rootCmd.AddCommand(submitCmd)

	submitCmd.Flags().BoolVarP(&submitWait, "wait", "w", false, "Track the execution until it finishes")
}

func runSubmit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	payload, err := os.ReadFile(args[0]) // #nosec G304 -- path is intentional user input
	if err != nil {
		return fmt.Errorf("read registration payload: %w", err)
	}

	ctx := cmd.Context()
	awsCfg, err := loadAWSConfig(ctx, cfg.Region)
	if err != nil {
		return err
	}

	client := project.NewClient(ssm.NewFromConfig(awsCfg), sfn.NewFromConfig(awsCfg), logger)
	sess, err := client.LoadSession(ctx, cfg.Project.ID, cfg.Project.Role)
	if err != nil {
		return err
	}

	sub, err := client.SubmitModel(ctx, sess, payload)
	if err != nil {
		return err
	}

	fmt.Printf("Execution: %s\n", sub.ExecutionArn)
	fmt.Printf("Started:   %s\n", sub.StartDate.Format("2006-01-02 15:04:05 MST"))

	if !submitWait {
		return nil
	}

	desc, err := client.WaitForCompletion(ctx, sub.ExecutionArn, cfg.Watch.PollInterval, cfg.Watch.HistoryLen)
	if err != nil {
		return err
	}
	fmt.Printf("\nExecution finished: %s\n", desc.Status)
	if desc.StopDate != nil {
		fmt.Printf("Duration: %s\n", desc.StopDate.Sub(aws.ToTime(desc.StartDate)).Round(time.Second))
	}
	return nil
}
