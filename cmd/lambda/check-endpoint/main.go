// Lambda entrypoint that checks whether an endpoint change has settled.
// The deployment state machine retries on the EndpointUpdating error name
// and fails the execution on UpdateFailed.
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

func main() {
	logger := telemetry.NewLogger("check-endpoint")

	cfg, err := awsconfig.LoadDefaultConfig(context.Background())
	if err != nil {
		logger.Error().Err(err).Msg("failed to load AWS config")
		os.Exit(1)
	}

	inspector := deploy.NewInspector(sagemaker.NewFromConfig(cfg), logger)
	lambda.Start(func(ctx context.Context, req deploy.CheckRequest) (*sagemaker.DescribeEndpointOutput, error) {
		return inspector.CheckUpdated(ctx, req)
	})
}
