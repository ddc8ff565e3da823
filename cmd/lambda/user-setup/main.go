// Lambda entrypoint for the Studio user setup custom resource. Runs inside
// the Studio VPC with the domain's EFS volume mounted at /mnt/efs.
package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/cfn"
	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker"
	"github.com/aws/aws-sdk-go-v2/service/servicecatalog"

	"github.com/modelfold/smops/internal/cfnres"
	"github.com/modelfold/smops/internal/resources"
	"github.com/modelfold/smops/internal/setup"
	"github.com/modelfold/smops/telemetry"
)

const efsMountPoint = "/mnt/efs"

func main() {
	logger := telemetry.NewLogger("user-setup")

	cfg, err := awsconfig.LoadDefaultConfig(context.Background())
	if err != nil {
		logger.Error().Err(err).Msg("failed to load AWS config")
		os.Exit(1)
	}

	manager := setup.NewManager(
		sagemaker.NewFromConfig(cfg),
		setup.NewContent(efsMountPoint, logger),
		setup.NewProjects(servicecatalog.NewFromConfig(cfg), logger),
		logger,
	)
	handler := &resources.UserSetup{Setup: manager}
	lambda.Start(cfn.LambdaWrap(cfnres.Wrap("user-setup", handler, logger)))
}
