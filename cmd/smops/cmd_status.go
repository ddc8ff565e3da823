package main

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker"
	"github.com/spf13/cobra"

	"github.com/modelfold/smops/internal/deploy"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status <endpoint>",
	Short: "Show an endpoint's deployment status",
	Long: `Classify an endpoint against the deployment lifecycle:

- New: the endpoint does not exist yet
- Testing: a canary deployment is in progress (two live variants)
- Stable: one variant is serving all traffic`,
	Example: `  smops status credit-model           # Classify the credit-model endpoint`,
	Args:    cobra.ExactArgs(1),
	RunE:    runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	awsCfg, err := loadAWSConfig(ctx, cfg.Region)
	if err != nil {
		return err
	}

	inspector := deploy.NewInspector(sagemaker.NewFromConfig(awsCfg), logger)
	state, err := inspector.Inspect(ctx, args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Endpoint: %s\n", args[0])
	fmt.Printf("Status:   %s\n", state.Status)
	if v := state.ActiveVariant; v != nil {
		fmt.Printf("Variant:  %s (weight %.2f, %d instance(s))\n",
			aws.ToString(v.VariantName),
			aws.ToFloat32(v.CurrentWeight),
			aws.ToInt32(v.CurrentInstanceCount))
	}
	return nil
}
