package project

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sfn"

	"github.com/modelfold/smops/pkg/naming"
)

// Submission identifies a started pipeline execution.
type Submission struct {
	ExecutionArn string
	StartDate    time.Time
}

// SubmitModel starts the project's model approval/deployment pipeline with
// the given registration payload. The execution name is timestamped so that
// Step Functions' own duplicate-name checking guards against double submits.
func (c *Client) SubmitModel(ctx context.Context, sess *Session, input json.RawMessage) (*Submission, error) {
	if sess.PipelineStateMachine == "" {
		return nil, fmt.Errorf("project %s has no pipeline state machine configured", sess.ProjectID)
	}

	out, err := c.sfn.StartExecution(ctx, &sfn.StartExecutionInput{
		StateMachineArn: aws.String(sess.PipelineStateMachine),
		Name:            aws.String(naming.Timestamped("execution")),
		Input:           aws.String(string(input)),
	})
	if err != nil {
		return nil, fmt.Errorf("start pipeline execution: %w", err)
	}

	c.logger.WithContext(ctx).Info().
		Str("execution_arn", aws.ToString(out.ExecutionArn)).
		Msg("model submitted for release")
	return &Submission{
		ExecutionArn: aws.ToString(out.ExecutionArn),
		StartDate:    aws.ToTime(out.StartDate),
	}, nil
}
