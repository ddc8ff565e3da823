package deploy

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker"
	sagemakertypes "github.com/aws/aws-sdk-go-v2/service/sagemaker/types"

	"github.com/modelfold/smops/pkg/naming"
	"github.com/modelfold/smops/pkg/s3uri"
)

// Variant colors for the blue/green rotation. The new model takes whichever
// color the live variant is not using.
const (
	variantBlue  = "blue"
	variantGreen = "green"
)

// ConfigRef identifies a created endpoint configuration.
type ConfigRef struct {
	Arn  string `json:"Arn"`
	Name string `json:"Name"`
}

// Plan is the outcome of deployment preparation: the end-state config, plus
// the interim canary config when a model is already live.
type Plan struct {
	Status               string     `json:"Status"`
	TargetEndpointConfig *ConfigRef `json:"TargetEndpointConfig,omitempty"`
	CanaryEndpointConfig *ConfigRef `json:"CanaryEndpointConfig,omitempty"`
}

// Planner builds the blue/green endpoint configurations for a deployment.
type Planner struct {
	*Inspector

	// MonitoringBucket receives data-capture records for every variant.
	MonitoringBucket string
	// InstanceType and InstanceCount size the new model's variant.
	InstanceType  sagemakertypes.ProductionVariantInstanceType
	InstanceCount int32
	// ExistingWeight is the traffic share the live model keeps during the
	// canary period. The new model gets the complement.
	ExistingWeight float32
	// SamplingPercent is the data-capture sampling rate.
	SamplingPercent int32

	now func() time.Time
}

// NewPlanner creates a deployment planner with the default canary split.
func NewPlanner(inspector *Inspector, monitoringBucket string) *Planner {
	return &Planner{
		Inspector:        inspector,
		MonitoringBucket: monitoringBucket,
		InstanceType:     sagemakertypes.ProductionVariantInstanceTypeMlG4dnXlarge,
		InstanceCount:    1,
		ExistingWeight:   0.9,
		SamplingPercent:  50,
		now:              time.Now,
	}
}

// dataCaptureConfig requests input+output capture for monitoring. A subfolder
// per endpoint name is created automatically under the capture prefix.
func (p *Planner) dataCaptureConfig() *sagemakertypes.DataCaptureConfig {
	return &sagemakertypes.DataCaptureConfig{
		EnableCapture:             aws.Bool(true),
		InitialSamplingPercentage: aws.Int32(p.SamplingPercent),
		DestinationS3Uri:          aws.String(s3uri.Format(p.MonitoringBucket, "capture")),
		CaptureOptions: []sagemakertypes.CaptureOption{
			{CaptureMode: sagemakertypes.CaptureModeInput},
			{CaptureMode: sagemakertypes.CaptureModeOutput},
		},
	}
}

// Prepare inspects the endpoint and creates the target (and, when a model is
// already live, canary) endpoint configurations for deploying modelName.
func (p *Planner) Prepare(ctx context.Context, endpointName, modelName string) (*Plan, error) {
	desc, err := p.describeOrNil(ctx, endpointName)
	if err != nil {
		return nil, err
	}

	plan := &Plan{}
	switch {
	case desc == nil:
		plan.Status = StatusNew
	case desc.EndpointStatus == sagemakertypes.EndpointStatusCreating,
		desc.EndpointStatus == sagemakertypes.EndpointStatusDeleting:
		return nil, fmt.Errorf("endpoint %q is currently in status %s", endpointName, desc.EndpointStatus)
	case len(desc.ProductionVariants) > 1:
		plan.Status = StatusTesting
		return plan, nil
	default:
		plan.Status = StatusReady
	}

	// Target end-state variant for the new model, at 100% of traffic.
	targetVariant := sagemakertypes.ProductionVariant{
		InitialInstanceCount: aws.Int32(p.InstanceCount),
		InitialVariantWeight: aws.Float32(1.0),
		InstanceType:         p.InstanceType,
		ModelName:            aws.String(modelName),
		VariantName:          aws.String(variantBlue),
	}

	targetRef, err := p.createConfig(ctx,
		naming.WithTimestamp(endpointName+"-target", "-", p.now()),
		[]sagemakertypes.ProductionVariant{targetVariant},
	)
	if err != nil {
		return nil, err
	}
	plan.TargetEndpointConfig = targetRef

	if desc == nil {
		return plan, nil
	}

	// A model is already live: build the interim canary config holding both
	// variants with complementary weights. The new variant takes the other
	// color of the blue/green pair.
	existing, err := p.existingVariantConfig(ctx, desc)
	if err != nil {
		return nil, err
	}
	existing.InitialInstanceCount = desc.ProductionVariants[0].CurrentInstanceCount
	existing.InitialVariantWeight = aws.Float32(p.ExistingWeight)

	canaryVariant := targetVariant
	canaryVariant.InitialVariantWeight = aws.Float32(1.0 - p.ExistingWeight)
	if aws.ToString(existing.VariantName) == variantBlue {
		canaryVariant.VariantName = aws.String(variantGreen)
	}

	canaryRef, err := p.createConfig(ctx,
		naming.WithTimestamp(endpointName+"-canary", "-", p.now()),
		[]sagemakertypes.ProductionVariant{existing, canaryVariant},
	)
	if err != nil {
		return nil, err
	}
	plan.CanaryEndpointConfig = canaryRef

	return plan, nil
}

// existingVariantConfig cross-references the live variant summary against the
// endpoint's current configuration. The ProductionVariant model (used for
// CreateEndpointConfig) differs slightly from the ProductionVariantSummary
// returned by DescribeEndpoint, so the full variant config must be fetched.
func (p *Planner) existingVariantConfig(ctx context.Context, desc *sagemaker.DescribeEndpointOutput) (sagemakertypes.ProductionVariant, error) {
	summary := desc.ProductionVariants[0]
	confOut, err := p.sm.DescribeEndpointConfig(ctx, &sagemaker.DescribeEndpointConfigInput{
		EndpointConfigName: desc.EndpointConfigName,
	})
	if err != nil {
		return sagemakertypes.ProductionVariant{}, fmt.Errorf("describe endpoint config %s: %w",
			aws.ToString(desc.EndpointConfigName), err)
	}
	for _, conf := range confOut.ProductionVariants {
		if aws.ToString(conf.VariantName) == aws.ToString(summary.VariantName) {
			return conf, nil
		}
	}
	// Only possible if something else mutates the endpoint concurrently.
	return sagemakertypes.ProductionVariant{}, fmt.Errorf(
		"variant %q from endpoint %q was not present in follow-up DescribeEndpointConfig result",
		aws.ToString(summary.VariantName), aws.ToString(desc.EndpointName))
}

func (p *Planner) createConfig(ctx context.Context, name string, variants []sagemakertypes.ProductionVariant) (*ConfigRef, error) {
	out, err := p.sm.CreateEndpointConfig(ctx, &sagemaker.CreateEndpointConfigInput{
		EndpointConfigName: aws.String(name),
		ProductionVariants: variants,
		DataCaptureConfig:  p.dataCaptureConfig(),
		Tags: []sagemakertypes.Tag{
			{Key: aws.String("PipelineConfigType"), Value: aws.String("Target")},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create endpoint config %s: %w", name, err)
	}
	return &ConfigRef{Arn: aws.ToString(out.EndpointConfigArn), Name: name}, nil
}
