// Lambda entrypoint that promotes a trained model into the project bucket
// and registers it for deployment.
package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker"

	"github.com/modelfold/smops/internal/registry"
	"github.com/modelfold/smops/telemetry"
)

func main() {
	logger := telemetry.NewLogger("register-model")

	bucket := os.Getenv("PROJECT_BUCKET")
	roleARN := os.Getenv("PROJECT_MODEL_ROLE_ARN")
	projectID := os.Getenv("PROJECT_ID")
	if bucket == "" || roleARN == "" || projectID == "" {
		logger.Error().Msg("PROJECT_BUCKET, PROJECT_MODEL_ROLE_ARN and PROJECT_ID must be set")
		os.Exit(1)
	}

	cfg, err := awsconfig.LoadDefaultConfig(context.Background())
	if err != nil {
		logger.Error().Err(err).Msg("failed to load AWS config")
		os.Exit(1)
	}

	registrar := registry.NewRegistrar(
		sagemaker.NewFromConfig(cfg),
		s3.NewFromConfig(cfg),
		logger,
		bucket, roleARN, projectID,
	)
	lambda.Start(func(ctx context.Context, raw json.RawMessage) (*registry.Registration, error) {
		return registrar.Register(ctx, raw)
	})
}
