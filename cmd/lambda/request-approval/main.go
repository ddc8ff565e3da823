// Lambda entrypoint that notifies the approver of a pending deployment.
package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-lambda-go/lambdacontext"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"github.com/modelfold/smops/internal/approval"
	"github.com/modelfold/smops/telemetry"
)

func main() {
	logger := telemetry.NewLogger("request-approval")

	cfg, err := awsconfig.LoadDefaultConfig(context.Background())
	if err != nil {
		logger.Error().Err(err).Msg("failed to load AWS config")
		os.Exit(1)
	}

	notifier := approval.NewNotifier(ses.NewFromConfig(cfg), sns.NewFromConfig(cfg), logger)
	lambda.Start(func(ctx context.Context, req approval.Request) error {
		lc, _ := lambdacontext.FromContext(ctx)
		var functionARN string
		if lc != nil {
			functionARN = lc.InvokedFunctionArn
		}
		return notifier.Notify(ctx, req, functionARN, cfg.Region)
	})
}
