// Package deploy inspects SageMaker endpoints and prepares the blue/green
// endpoint configurations for a phased (canary) rollout.
package deploy

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker"
	sagemakertypes "github.com/aws/aws-sdk-go-v2/service/sagemaker/types"

	"github.com/modelfold/smops/internal/awsapi"
	"github.com/modelfold/smops/telemetry"
)

// Endpoint lifecycle classifications used by the deployment state machine.
const (
	// StatusNew means the endpoint does not exist yet.
	StatusNew = "New"
	// StatusTesting means a deployment is in progress (multiple live variants).
	StatusTesting = "Testing"
	// StatusStable means exactly one variant is serving all traffic.
	StatusStable = "Stable"
	// StatusReady means a stable endpoint is ready to receive a deployment.
	StatusReady = "Ready"
)

// State is the classification of an endpoint ahead of a deployment.
type State struct {
	Status        string
	ActiveVariant *sagemakertypes.ProductionVariantSummary
}

// Inspector classifies endpoints against the deployment lifecycle.
type Inspector struct {
	sm     awsapi.EndpointAPI
	logger *telemetry.Logger
}

// NewInspector creates an endpoint inspector.
func NewInspector(sm awsapi.EndpointAPI, logger *telemetry.Logger) *Inspector {
	return &Inspector{sm: sm, logger: logger}
}

// describeOrNil returns the endpoint description, or nil when the endpoint
// does not exist. Other API faults are returned as-is.
func (i *Inspector) describeOrNil(ctx context.Context, name string) (*sagemaker.DescribeEndpointOutput, error) {
	desc, err := i.sm.DescribeEndpoint(ctx, &sagemaker.DescribeEndpointInput{EndpointName: aws.String(name)})
	if err != nil {
		if awsapi.IsEndpointNotFound(err) {
			i.logger.WithContext(ctx).Info().Str("endpoint", name).Msg("endpoint does not exist yet")
			return nil, nil
		}
		return nil, fmt.Errorf("describe endpoint %s: %w", name, err)
	}
	return desc, nil
}

// Inspect classifies an endpoint as New, Testing, or Stable. A Stable result
// carries the single active production variant.
func (i *Inspector) Inspect(ctx context.Context, name string) (State, error) {
	desc, err := i.describeOrNil(ctx, name)
	if err != nil {
		return State{}, err
	}
	if desc == nil {
		return State{Status: StatusNew}, nil
	}
	if len(desc.ProductionVariants) > 1 {
		return State{Status: StatusTesting}, nil
	}
	if len(desc.ProductionVariants) == 0 {
		return State{}, fmt.Errorf("endpoint %s has no production variants", name)
	}
	return State{
		Status:        StatusStable,
		ActiveVariant: &desc.ProductionVariants[0],
	}, nil
}
