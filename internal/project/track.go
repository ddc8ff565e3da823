package project

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sfn"
	sfntypes "github.com/aws/aws-sdk-go-v2/service/sfn/types"
)

// ExecutionStatus is a best-effort snapshot of a pipeline execution, scraped
// from its event history. DescribeExecution does not expose the current state
// name, so the history is polled instead; poll-based tracking may miss
// intermediate transitions.
type ExecutionStatus struct {
	Done   bool
	Status string
	State  string
}

// ExecutionFailedError reports an execution that stopped without succeeding.
type ExecutionFailedError struct {
	ExecutionArn string
	EventType    string
	ErrorName    string
	Cause        string
}

func (e *ExecutionFailedError) Error() string {
	msg := e.EventType
	if e.ErrorName != "" {
		msg += ": " + e.ErrorName
	}
	if e.Cause != "" {
		msg += "\n " + e.Cause
	}
	return msg
}

// PollExecution fetches the newest historyLen events of an execution and
// derives its status and last known state name. prev carries the sticky state
// forward between polls, since a short event page may not include any state
// transition.
func (c *Client) PollExecution(ctx context.Context, executionArn string, historyLen int32, prev ExecutionStatus) (ExecutionStatus, error) {
	out, err := c.sfn.GetExecutionHistory(ctx, &sfn.GetExecutionHistoryInput{
		ExecutionArn: aws.String(executionArn),
		MaxResults:   historyLen,
		ReverseOrder: true,
	})
	if err != nil {
		return prev, fmt.Errorf("get execution history: %w", err)
	}
	if len(out.Events) == 0 {
		return prev, nil
	}

	result := prev
	latest := out.Events[0]
	latestType := string(latest.Type)
	if strings.HasPrefix(latestType, "Execution") && latest.Type != sfntypes.HistoryEventTypeExecutionStarted {
		if latest.Type == sfntypes.HistoryEventTypeExecutionSucceeded {
			result.Done = true
			result.Status = "SUCCEEDED"
		} else {
			failure := &ExecutionFailedError{ExecutionArn: executionArn, EventType: latestType}
			switch latest.Type {
			case sfntypes.HistoryEventTypeExecutionFailed:
				if d := latest.ExecutionFailedEventDetails; d != nil {
					failure.ErrorName = aws.ToString(d.Error)
					failure.Cause = aws.ToString(d.Cause)
				}
			case sfntypes.HistoryEventTypeExecutionAborted:
				if d := latest.ExecutionAbortedEventDetails; d != nil {
					failure.ErrorName = aws.ToString(d.Error)
					failure.Cause = aws.ToString(d.Cause)
				}
			case sfntypes.HistoryEventTypeExecutionTimedOut:
				if d := latest.ExecutionTimedOutEventDetails; d != nil {
					failure.ErrorName = aws.ToString(d.Error)
					failure.Cause = aws.ToString(d.Cause)
				}
			}
			return result, failure
		}
	} else {
		result.Status = "RUNNING"
	}

	// The last recognised state name is a matter of searching back through
	// the events.
	for _, ev := range out.Events {
		if ev.StateEnteredEventDetails != nil {
			result.State = aws.ToString(ev.StateEnteredEventDetails.Name)
			break
		}
		if ev.StateExitedEventDetails != nil {
			result.State = aws.ToString(ev.StateExitedEventDetails.Name)
			break
		}
	}
	return result, nil
}

// DescribeExecution returns the current description of an execution.
func (c *Client) DescribeExecution(ctx context.Context, executionArn string) (*sfn.DescribeExecutionOutput, error) {
	out, err := c.sfn.DescribeExecution(ctx, &sfn.DescribeExecutionInput{
		ExecutionArn: aws.String(executionArn),
	})
	if err != nil {
		return nil, fmt.Errorf("describe execution: %w", err)
	}
	return out, nil
}

// WaitForCompletion polls an execution until it finishes, logging every state
// change, and returns the final DescribeExecution result.
func (c *Client) WaitForCompletion(ctx context.Context, executionArn string, interval time.Duration, historyLen int32) (*sfn.DescribeExecutionOutput, error) {
	status := ExecutionStatus{Status: "UNKNOWN"}
	last := ""
	for !status.Done {
		var err error
		status, err = c.PollExecution(ctx, executionArn, historyLen, status)
		if err != nil {
			return nil, err
		}
		if s := status.Status + " " + status.State; s != last {
			last = s
			c.logger.WithContext(ctx).Info().
				Str("status", status.Status).
				Str("state", status.State).
				Msg("execution progressing")
		}
		if status.Done {
			break
		}
		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return c.DescribeExecution(ctx, executionArn)
}
