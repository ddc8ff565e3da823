package resources

import (
	"context"

	"github.com/aws/aws-lambda-go/cfn"

	"github.com/modelfold/smops/internal/cfnres"
	"github.com/modelfold/smops/internal/setup"
)

// UserSetup runs post-creation setup for a Studio user: seeding home
// directory content and toggling SageMaker Projects. The user profile name is
// the physical resource ID.
type UserSetup struct {
	Setup *setup.Manager
}

func setupProps(props map[string]interface{}, profileName string) setup.Properties {
	return setup.Properties{
		DomainID:             cfnres.StringProp(props, "DomainId"),
		UserProfileName:      profileName,
		GitRepository:        cfnres.StringProp(props, "GitRepository"),
		HomeEfsFileSystemUID: cfnres.StringProp(props, "HomeEfsFileSystemUid"),
		EnableProjects:       cfnres.BoolProp(props, "EnableProjects"),
	}
}

func (r *UserSetup) Create(ctx context.Context, event cfn.Event) (string, map[string]interface{}, error) {
	profileName, err := cfnres.RequireStringProp(event.ResourceProperties, "UserProfileName")
	if err != nil {
		return "", nil, err
	}

	props := setupProps(event.ResourceProperties, profileName)
	if err := r.Setup.Create(ctx, props); err != nil {
		return "", nil, err
	}
	return profileName, map[string]interface{}{"UserProfileName": profileName}, nil
}

func (r *UserSetup) Update(ctx context.Context, event cfn.Event) (string, map[string]interface{}, error) {
	props := setupProps(event.ResourceProperties, event.PhysicalResourceID)
	if err := r.Setup.Update(ctx, props); err != nil {
		return event.PhysicalResourceID, nil, err
	}
	return event.PhysicalResourceID, nil, nil
}

func (r *UserSetup) Delete(ctx context.Context, event cfn.Event) (string, map[string]interface{}, error) {
	props := setupProps(event.ResourceProperties, event.PhysicalResourceID)
	if err := r.Setup.Delete(ctx, props); err != nil {
		return event.PhysicalResourceID, nil, err
	}
	return event.PhysicalResourceID, nil, nil
}
