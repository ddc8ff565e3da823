package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/spf13/cobra"

	"github.com/modelfold/smops/config"
	"github.com/modelfold/smops/telemetry"
)

var (
	version = "0.1.0"
	cfgPath string
	rootCmd = &cobra.Command{
		Use:   "smops",
		Short: "SageMaker MLOps operator companion",
		Long: `Smops - SageMaker MLOps operator companion

Smops drives the model release pipeline from the command line:
submit trained models for deployment, relay approval decisions,
watch pipeline executions, and review past endpoint rollouts.`,
		Version: version,
	}
	logger = telemetry.NewLogger("smops")
)

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// init sets up the root command
func init() {
	rootCmd.SetVersionTemplate(`Smops {{.Version}} - SageMaker MLOps operator companion
`)
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", defaultConfigPath(), "Path to the smops config file")
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".smops", "config.yaml")
}

// loadConfig reads the operator configuration named by --config.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", cfgPath, err)
	}
	return cfg, nil
}

// loadAWSConfig resolves AWS credentials for the configured region.
func loadAWSConfig(ctx context.Context, region string) (aws.Config, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return aws.Config{}, fmt.Errorf("load AWS config: %w", err)
	}
	return awsCfg, nil
}
