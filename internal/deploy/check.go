package deploy

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker"
)

// Default state sets for the update check. Overridable per invocation, since
// some state machine steps only care about a subset.
var (
	DefaultBusyStates = []string{"Creating", "Updating", "SystemUpdating", "RollingBack", "Deleting"}
	DefaultFailStates = []string{"Failed"}
)

// EndpointUpdating is returned while an endpoint change is still in progress.
// The deployment state machine catches this error name and retries.
type EndpointUpdating struct {
	Endpoint string
	Status   string
}

func (e *EndpointUpdating) Error() string {
	return fmt.Sprintf("endpoint %s is in status %s", e.Endpoint, e.Status)
}

// UpdateFailed is returned when an endpoint lands in a failure state, or
// outside the caller's accepted target states. Terminal: never retried.
type UpdateFailed struct {
	Endpoint string
	Status   string
}

func (e *UpdateFailed) Error() string {
	return fmt.Sprintf("endpoint %s is in status %s", e.Endpoint, e.Status)
}

// CheckRequest configures an endpoint update check.
type CheckRequest struct {
	EndpointName string   `json:"EndpointName"`
	BusyStates   []string `json:"BusyStates,omitempty"`
	TargetStates []string `json:"TargetStates,omitempty"`
	FailStates   []string `json:"FailStates,omitempty"`
}

// CheckUpdated verifies whether an endpoint has finished its current change.
// Busy states raise EndpointUpdating, failure (or unexpected) states raise
// UpdateFailed, anything else means the change completed and the endpoint
// description is returned.
func (i *Inspector) CheckUpdated(ctx context.Context, req CheckRequest) (*sagemaker.DescribeEndpointOutput, error) {
	busy := req.BusyStates
	if busy == nil {
		busy = DefaultBusyStates
	}
	fail := req.FailStates
	if fail == nil {
		fail = DefaultFailStates
	}

	desc, err := i.sm.DescribeEndpoint(ctx, &sagemaker.DescribeEndpointInput{
		EndpointName: aws.String(req.EndpointName),
	})
	if err != nil {
		return nil, fmt.Errorf("describe endpoint %s: %w", req.EndpointName, err)
	}

	status := string(desc.EndpointStatus)
	switch {
	case containsString(busy, status):
		return nil, &EndpointUpdating{Endpoint: req.EndpointName, Status: status}
	case req.TargetStates != nil && !containsString(req.TargetStates, status):
		return nil, &UpdateFailed{Endpoint: req.EndpointName, Status: status}
	case containsString(fail, status):
		return nil, &UpdateFailed{Endpoint: req.EndpointName, Status: status}
	}
	return desc, nil
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
