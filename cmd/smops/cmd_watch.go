package main

import (
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker"
	"github.com/spf13/cobra"

	"github.com/modelfold/smops/internal/deploy"
	"github.com/modelfold/smops/internal/history"
)

var watchExecutionArn string

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch <endpoint>",
	Short: "Watch an endpoint until its deployment stabilizes",
	Long: `Poll an endpoint's deployment status and print every change until a
single variant is serving all traffic again. Each observed transition is
recorded in the local history store for later review with 'smops history'.`,
	Example: `  smops watch credit-model
  smops watch credit-model --execution arn:aws:states:...`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVar(&watchExecutionArn, "execution", "", "Pipeline execution ARN to tag transitions with")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	awsCfg, err := loadAWSConfig(ctx, cfg.Region)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.History.Dir, 0o755); err != nil {
		return fmt.Errorf("create history dir: %w", err)
	}
	store, err := history.Open(cfg.History.Dir)
	if err != nil {
		return err
	}
	defer store.Close()

	inspector := deploy.NewInspector(sagemaker.NewFromConfig(awsCfg), logger)
	endpoint := args[0]

	last := ""
	for {
		state, err := inspector.Inspect(ctx, endpoint)
		if err != nil {
			return err
		}
		if state.Status != last {
			last = state.Status
			fmt.Printf("%s  %s\n", time.Now().Format("15:04:05"), state.Status)
			recordErr := store.Record(history.Transition{
				Endpoint:     endpoint,
				Status:       state.Status,
				ExecutionArn: watchExecutionArn,
			})
			if recordErr != nil {
				logger.Warn().Err(recordErr).Msg("failed to record transition")
			}
		}
		if state.Status == deploy.StatusStable {
			fmt.Printf("\nEndpoint stable on variant %s\n", aws.ToString(state.ActiveVariant.VariantName))
			return nil
		}

		timer := time.NewTimer(cfg.Watch.PollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
