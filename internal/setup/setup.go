package setup

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker"

	"github.com/modelfold/smops/internal/awsapi"
	"github.com/modelfold/smops/telemetry"
)

// Properties configures the setup of one Studio user.
type Properties struct {
	DomainID             string
	UserProfileName      string
	GitRepository        string
	HomeEfsFileSystemUID string
	EnableProjects       bool
}

// Manager runs the post-creation setup steps for Studio users.
type Manager struct {
	sm       awsapi.StudioAPI
	Content  *Content
	Projects *Projects
	logger   *telemetry.Logger
}

// NewManager creates a user setup manager.
func NewManager(sm awsapi.StudioAPI, content *Content, projects *Projects, logger *telemetry.Logger) *Manager {
	return &Manager{sm: sm, Content: content, Projects: projects, logger: logger}
}

func (m *Manager) executionRole(ctx context.Context, domainID, profileName string) (string, error) {
	desc, err := m.sm.DescribeUserProfile(ctx, &sagemaker.DescribeUserProfileInput{
		DomainId:        aws.String(domainID),
		UserProfileName: aws.String(profileName),
	})
	if err != nil {
		return "", fmt.Errorf("describe user profile %s: %w", profileName, err)
	}
	if desc.UserSettings == nil || desc.UserSettings.ExecutionRole == nil {
		return "", fmt.Errorf("user profile %s has no execution role", profileName)
	}
	return aws.ToString(desc.UserSettings.ExecutionRole), nil
}

// Create runs the setup steps for a new user. Content seeding failures are
// logged and swallowed rather than failing the whole stack, since users can
// always clone the repository themselves.
func (m *Manager) Create(ctx context.Context, props Properties) error {
	if props.GitRepository != "" {
		if props.HomeEfsFileSystemUID == "" {
			return fmt.Errorf("HomeEfsFileSystemUid is mandatory when GitRepository is specified")
		}
		if err := m.Content.CloneRepository(ctx, props.HomeEfsFileSystemUID, props.GitRepository); err != nil {
			m.logger.WithContext(ctx).Warn().Err(err).
				Str("repo", props.GitRepository).
				Msg("ignoring content setup error")
		}
	}

	if props.EnableProjects {
		roleARN, err := m.executionRole(ctx, props.DomainID, props.UserProfileName)
		if err != nil {
			return err
		}
		if err := m.Projects.EnableForRole(ctx, roleARN); err != nil {
			return err
		}
	}

	m.logger.WithContext(ctx).Info().
		Str("user_profile", props.UserProfileName).
		Msg("user set up")
	return nil
}

// Update is deliberately a no-op: re-cloning content over a user's working
// directory would risk clobbering their changes.
func (m *Manager) Update(ctx context.Context, props Properties) error {
	m.logger.WithContext(ctx).Warn().
		Str("user_profile", props.UserProfileName).
		Msg("user setup update is a no-op")
	return nil
}

// Delete tears down whatever setup is reversible: the EFS content stays (the
// filesystem may outlive the user), but the Projects portfolio association is
// removed when it was enabled.
func (m *Manager) Delete(ctx context.Context, props Properties) error {
	if !props.EnableProjects {
		return nil
	}
	roleARN, err := m.executionRole(ctx, props.DomainID, props.UserProfileName)
	if err != nil {
		return err
	}
	return m.Projects.DisableForRole(ctx, roleARN)
}
