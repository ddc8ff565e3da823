// Lambda entrypoint that prepares the blue/green endpoint configurations
// for a model deployment.
package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker"

	"github.com/modelfold/smops/internal/deploy"
	"github.com/modelfold/smops/telemetry"
)

type event struct {
	EndpointName      string `json:"EndpointName"`
	ModelRegistration struct {
		Payload struct {
			ModelName string `json:"ModelName"`
		} `json:"Payload"`
	} `json:"ModelRegistration"`
}

func main() {
	logger := telemetry.NewLogger("prepare-deployment")

	bucket := os.Getenv("MONITORING_BUCKET")
	if bucket == "" {
		logger.Error().Msg("MONITORING_BUCKET is not set")
		os.Exit(1)
	}

	cfg, err := awsconfig.LoadDefaultConfig(context.Background())
	if err != nil {
		logger.Error().Err(err).Msg("failed to load AWS config")
		os.Exit(1)
	}

	planner := deploy.NewPlanner(deploy.NewInspector(sagemaker.NewFromConfig(cfg), logger), bucket)
	lambda.Start(func(ctx context.Context, ev event) (*deploy.Plan, error) {
		return planner.Prepare(ctx, ev.EndpointName, ev.ModelRegistration.Payload.ModelName)
	})
}
