// Package studio manages SageMaker Studio domains and user profiles for the
// CloudFormation custom resources.
package studio

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker"

	"github.com/modelfold/smops/internal/awsapi"
	"github.com/modelfold/smops/telemetry"
)

// ErrNoDomains is returned when the region has no SageMaker Studio domain to
// infer an ID from.
var ErrNoDomains = errors.New("no SageMaker Studio domain exists in this region")

// Client wraps the SageMaker control plane for Studio provisioning.
type Client struct {
	sm     awsapi.StudioAPI
	logger *telemetry.Logger

	// PollInterval and MaxWait bound the user profile status polls.
	PollInterval time.Duration
	MaxWait      time.Duration
}

// NewClient creates a studio client with default polling bounds.
func NewClient(sm awsapi.StudioAPI, logger *telemetry.Logger) *Client {
	return &Client{
		sm:           sm,
		logger:       logger,
		PollInterval: 5 * time.Second,
		MaxWait:      20 * time.Minute,
	}
}

// InferDomainID resolves the region's Studio domain ID when the caller did not
// supply one. Fails with ErrNoDomains when the region has none; when several
// exist the first is assumed to be the target.
func (c *Client) InferDomainID(ctx context.Context) (string, error) {
	out, err := c.sm.ListDomains(ctx, &sagemaker.ListDomainsInput{})
	if err != nil {
		return "", fmt.Errorf("list domains: %w", err)
	}
	if out.NextToken != nil {
		c.logger.WithContext(ctx).Warn().
			Msg("ignoring NextToken on ListDomains response - pagination not implemented")
	}
	if len(out.Domains) == 0 {
		return "", ErrNoDomains
	}
	if len(out.Domains) > 1 {
		c.logger.WithContext(ctx).Warn().
			Int("count", len(out.Domains)).
			Str("assumed", aws.ToString(out.Domains[0].DomainId)).
			Msg("multiple Studio domains in region, assuming first is target")
	}
	return aws.ToString(out.Domains[0].DomainId), nil
}

// DescribeDomain fetches the full domain description.
func (c *Client) DescribeDomain(ctx context.Context, domainID string) (*sagemaker.DescribeDomainOutput, error) {
	out, err := c.sm.DescribeDomain(ctx, &sagemaker.DescribeDomainInput{DomainId: aws.String(domainID)})
	if err != nil {
		return nil, fmt.Errorf("describe domain %s: %w", domainID, err)
	}
	return out, nil
}

// DomainOutputs maps a domain description to the property subset published as
// CloudFormation resource outputs. Unset fields are omitted.
func DomainOutputs(desc *sagemaker.DescribeDomainOutput) map[string]interface{} {
	out := map[string]interface{}{}
	putString(out, "DomainArn", desc.DomainArn)
	putString(out, "DomainId", desc.DomainId)
	putString(out, "DomainName", desc.DomainName)
	putString(out, "HomeEfsFileSystemId", desc.HomeEfsFileSystemId)
	putString(out, "SingleSignOnManagedApplicationInstanceId", desc.SingleSignOnManagedApplicationInstanceId)
	putString(out, "Url", desc.Url)
	putString(out, "VpcId", desc.VpcId)
	putString(out, "KmsKeyId", desc.KmsKeyId)
	putString(out, "HomeEfsFileSystemKmsKeyId", desc.HomeEfsFileSystemKmsKeyId) //nolint:staticcheck // published for stacks still reading the legacy key
	if desc.Status != "" {
		out["Status"] = string(desc.Status)
	}
	if desc.AuthMode != "" {
		out["AuthMode"] = string(desc.AuthMode)
	}
	if desc.AppNetworkAccessType != "" {
		out["AppNetworkAccessType"] = string(desc.AppNetworkAccessType)
	}
	if len(desc.SubnetIds) > 0 {
		out["SubnetIds"] = desc.SubnetIds
	}
	if desc.DefaultUserSettings != nil {
		out["DefaultUserSettings"] = structToMap(desc.DefaultUserSettings)
	}
	return out
}

func putString(m map[string]interface{}, key string, v *string) {
	if v != nil && *v != "" {
		m[key] = *v
	}
}
