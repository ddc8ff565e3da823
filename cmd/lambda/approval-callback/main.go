// Lambda entrypoint behind the approval API Gateway. The links in the
// approval email land here with the decision and task token as query
// parameters.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sfn"

	"github.com/modelfold/smops/internal/approval"
	"github.com/modelfold/smops/telemetry"
)

func main() {
	logger := telemetry.NewLogger("approval-callback")

	cfg, err := awsconfig.LoadDefaultConfig(context.Background())
	if err != nil {
		logger.Error().Err(err).Msg("failed to load AWS config")
		os.Exit(1)
	}

	responder := approval.NewResponder(sfn.NewFromConfig(cfg), logger)
	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		decision := approval.Decision(req.QueryStringParameters["action"])
		token := req.QueryStringParameters["taskToken"]

		if err := responder.Respond(ctx, decision, token); err != nil {
			logger.WithContext(ctx).Error().Err(err).Msg("failed to relay approval decision")
			return htmlResponse(400, "Your response could not be processed. Please contact the pipeline operator."), nil
		}
		return htmlResponse(200, fmt.Sprintf("Thank you, your decision (%s) has been recorded.", decision)), nil
	})
}

func htmlResponse(status int, message string) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "text/html"},
		Body:       fmt.Sprintf("<html><body><p>%s</p></body></html>", message),
	}
}
