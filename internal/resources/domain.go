// Package resources implements the CloudFormation custom resource types for
// Studio provisioning, on top of the studio, access, and setup packages.
package resources

import (
	"context"

	"github.com/aws/aws-lambda-go/cfn"

	"github.com/modelfold/smops/internal/cfnres"
	"github.com/modelfold/smops/internal/studio"
)

// DescribeDomain is a descriptive resource surfacing an existing Studio
// domain's attributes to CloudFormation. When no DomainId property is given,
// the region's sole domain is used.
type DescribeDomain struct {
	Studio *studio.Client
}

func (r *DescribeDomain) describe(ctx context.Context, event cfn.Event) (string, map[string]interface{}, error) {
	domainID := cfnres.StringProp(event.ResourceProperties, "DomainId")
	if domainID == "" {
		var err error
		domainID, err = r.Studio.InferDomainID(ctx)
		if err != nil {
			return "", nil, err
		}
	}

	desc, err := r.Studio.DescribeDomain(ctx, domainID)
	if err != nil {
		return "", nil, err
	}
	return domainID, studio.DomainOutputs(desc), nil
}

func (r *DescribeDomain) Create(ctx context.Context, event cfn.Event) (string, map[string]interface{}, error) {
	return r.describe(ctx, event)
}

func (r *DescribeDomain) Update(ctx context.Context, event cfn.Event) (string, map[string]interface{}, error) {
	return r.describe(ctx, event)
}

// Delete has nothing to tear down for a descriptive resource.
func (r *DescribeDomain) Delete(_ context.Context, event cfn.Event) (string, map[string]interface{}, error) {
	return event.PhysicalResourceID, nil, nil
}
