// Lambda entrypoint for the execution-role policy attachment custom resource.
package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/cfn"
	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker"

	"github.com/modelfold/smops/internal/access"
	"github.com/modelfold/smops/internal/cfnres"
	"github.com/modelfold/smops/internal/resources"
	"github.com/modelfold/smops/telemetry"
)

func main() {
	logger := telemetry.NewLogger("policy-attachment")

	cfg, err := awsconfig.LoadDefaultConfig(context.Background())
	if err != nil {
		logger.Error().Err(err).Msg("failed to load AWS config")
		os.Exit(1)
	}

	handler := &resources.PolicyAttachment{
		Access: access.NewManager(sagemaker.NewFromConfig(cfg), iam.NewFromConfig(cfg), logger),
	}
	lambda.Start(cfn.LambdaWrap(cfnres.Wrap("policy-attachment", handler, logger)))
}
