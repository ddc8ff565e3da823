package resources

import (
	"context"

	"github.com/aws/aws-lambda-go/cfn"
	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/modelfold/smops/internal/cfnres"
	"github.com/modelfold/smops/internal/studio"
)

// DescribeUser is a descriptive resource surfacing an existing Studio user
// profile's attributes, including its (flattened) user settings. The profile
// is polled until it leaves any transitional status, so downstream resources
// see settled values.
type DescribeUser struct {
	Studio *studio.Client
}

func (r *DescribeUser) describe(ctx context.Context, event cfn.Event) (string, map[string]interface{}, error) {
	profileName, err := cfnres.RequireStringProp(event.ResourceProperties, "UserProfileName")
	if err != nil {
		return "", nil, err
	}
	domainID := cfnres.StringProp(event.ResourceProperties, "DomainId")
	if domainID == "" {
		domainID, err = r.Studio.InferDomainID(ctx)
		if err != nil {
			return "", nil, err
		}
	}

	desc, err := r.Studio.WaitForStableProfile(ctx, domainID, profileName)
	if err != nil {
		return "", nil, err
	}
	return aws.ToString(desc.UserProfileArn), studio.ProfileOutputs(desc), nil
}

func (r *DescribeUser) Create(ctx context.Context, event cfn.Event) (string, map[string]interface{}, error) {
	return r.describe(ctx, event)
}

func (r *DescribeUser) Update(ctx context.Context, event cfn.Event) (string, map[string]interface{}, error) {
	return r.describe(ctx, event)
}

// Delete has nothing to tear down for a descriptive resource.
func (r *DescribeUser) Delete(_ context.Context, event cfn.Event) (string, map[string]interface{}, error) {
	return event.PhysicalResourceID, nil, nil
}
