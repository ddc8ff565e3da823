package resources

import (
	"context"
	"errors"

	"github.com/aws/aws-lambda-go/cfn"
	"github.com/aws/aws-sdk-go-v2/aws"
	sagemakertypes "github.com/aws/aws-sdk-go-v2/service/sagemaker/types"

	"github.com/modelfold/smops/internal/cfnres"
	"github.com/modelfold/smops/internal/studio"
)

// UserProfile manages a Studio user profile's lifecycle. The profile name is
// the physical resource ID.
type UserProfile struct {
	Studio *studio.Client
}

func (r *UserProfile) domainID(ctx context.Context, event cfn.Event) (string, error) {
	if id := cfnres.StringProp(event.ResourceProperties, "DomainId"); id != "" {
		return id, nil
	}
	return r.Studio.InferDomainID(ctx)
}

func (r *UserProfile) settings(event cfn.Event) (*sagemakertypes.UserSettings, error) {
	props := cfnres.MapProp(event.ResourceProperties, "UserSettings")
	return studio.SettingsFromProperties(props)
}

func (r *UserProfile) Create(ctx context.Context, event cfn.Event) (string, map[string]interface{}, error) {
	profileName, err := cfnres.RequireStringProp(event.ResourceProperties, "UserProfileName")
	if err != nil {
		return "", nil, err
	}
	domainID, err := r.domainID(ctx, event)
	if err != nil {
		return "", nil, err
	}
	settings, err := r.settings(event)
	if err != nil {
		return "", nil, err
	}

	desc, err := r.Studio.CreateProfile(ctx, domainID, profileName, settings)
	if err != nil {
		return "", nil, err
	}
	return profileName, map[string]interface{}{
		"UserProfileName":      profileName,
		"HomeEfsFileSystemUid": aws.ToString(desc.HomeEfsFileSystemUid),
	}, nil
}

func (r *UserProfile) Update(ctx context.Context, event cfn.Event) (string, map[string]interface{}, error) {
	profileName := event.PhysicalResourceID
	domainID, err := r.domainID(ctx, event)
	if err != nil {
		return profileName, nil, err
	}
	settings, err := r.settings(event)
	if err != nil {
		return profileName, nil, err
	}

	if _, err := r.Studio.UpdateProfile(ctx, domainID, profileName, settings); err != nil {
		return profileName, nil, err
	}
	return profileName, nil, nil
}

func (r *UserProfile) Delete(ctx context.Context, event cfn.Event) (string, map[string]interface{}, error) {
	profileName := event.PhysicalResourceID

	domainID := cfnres.StringProp(event.ResourceProperties, "DomainId")
	if domainID == "" {
		var err error
		domainID, err = r.Studio.InferDomainID(ctx)
		if errors.Is(err, studio.ErrNoDomains) {
			// Domain already deleted, so the user necessarily is too.
			return profileName, nil, nil
		}
		if err != nil {
			return profileName, nil, err
		}
	}

	if err := r.Studio.DeleteProfile(ctx, domainID, profileName); err != nil {
		return profileName, nil, err
	}
	return profileName, nil, nil
}
