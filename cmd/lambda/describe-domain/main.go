// Lambda entrypoint for the Studio domain description custom resource.
package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/cfn"
	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker"

	"github.com/modelfold/smops/internal/cfnres"
	"github.com/modelfold/smops/internal/resources"
	"github.com/modelfold/smops/internal/studio"
	"github.com/modelfold/smops/telemetry"
)

func main() {
	logger := telemetry.NewLogger("describe-domain")

	cfg, err := awsconfig.LoadDefaultConfig(context.Background())
	if err != nil {
		logger.Error().Err(err).Msg("failed to load AWS config")
		os.Exit(1)
	}

	handler := &resources.DescribeDomain{
		Studio: studio.NewClient(sagemaker.NewFromConfig(cfg), logger),
	}
	lambda.Start(cfn.LambdaWrap(cfnres.Wrap("describe-domain", handler, logger)))
}
