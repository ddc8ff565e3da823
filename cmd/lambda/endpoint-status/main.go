// Lambda entrypoint that classifies an endpoint ahead of a deployment.
package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker"
	sagemakertypes "github.com/aws/aws-sdk-go-v2/service/sagemaker/types"

	"github.com/modelfold/smops/internal/deploy"
	"github.com/modelfold/smops/telemetry"
)

type event struct {
	EndpointName string `json:"EndpointName"`
}

type response struct {
	Status        string                                   `json:"Status"`
	ActiveVariant *sagemakertypes.ProductionVariantSummary `json:"ActiveVariant,omitempty"`
}

func main() {
	logger := telemetry.NewLogger("endpoint-status")

	cfg, err := awsconfig.LoadDefaultConfig(context.Background())
	if err != nil {
		logger.Error().Err(err).Msg("failed to load AWS config")
		os.Exit(1)
	}

	inspector := deploy.NewInspector(sagemaker.NewFromConfig(cfg), logger)
	lambda.Start(func(ctx context.Context, ev event) (*response, error) {
		state, err := inspector.Inspect(ctx, ev.EndpointName)
		if err != nil {
			return nil, err
		}
		return &response{Status: state.Status, ActiveVariant: state.ActiveVariant}, nil
	})
}
