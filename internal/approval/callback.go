package approval

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sfn"

	"github.com/modelfold/smops/internal/awsapi"
	"github.com/modelfold/smops/telemetry"
)

// Decision is the approver's verdict relayed back to the state machine.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// Responder resumes a paused state machine execution with the approver's
// decision.
type Responder struct {
	sfn    awsapi.StepFunctionsAPI
	logger *telemetry.Logger
}

// NewResponder creates an approval responder.
func NewResponder(sfnClient awsapi.StepFunctionsAPI, logger *telemetry.Logger) *Responder {
	return &Responder{sfn: sfnClient, logger: logger}
}

// Respond delivers the decision for the given task token. Approval resumes
// the execution; rejection fails the waiting task with error name "Rejected",
// which the state machine routes to rollback.
func (r *Responder) Respond(ctx context.Context, decision Decision, taskToken string) error {
	if taskToken == "" {
		return fmt.Errorf("missing task token")
	}

	log := r.logger.WithContext(ctx)
	switch decision {
	case DecisionApprove:
		_, err := r.sfn.SendTaskSuccess(ctx, &sfn.SendTaskSuccessInput{
			TaskToken: aws.String(taskToken),
			Output:    aws.String(`{"Status": "Approved"}`),
		})
		if err != nil {
			return fmt.Errorf("send task success: %w", err)
		}
		log.Info().Msg("deployment approved")
		return nil
	case DecisionReject:
		_, err := r.sfn.SendTaskFailure(ctx, &sfn.SendTaskFailureInput{
			TaskToken: aws.String(taskToken),
			Error:     aws.String("Rejected"),
			Cause:     aws.String("Deployment rejected by approver"),
		})
		if err != nil {
			return fmt.Errorf("send task failure: %w", err)
		}
		log.Info().Msg("deployment rejected")
		return nil
	default:
		return fmt.Errorf("unknown decision %q", decision)
	}
}
