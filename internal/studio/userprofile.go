package studio

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker"
	sagemakertypes "github.com/aws/aws-sdk-go-v2/service/sagemaker/types"

	"github.com/modelfold/smops/internal/awsapi"
)

// transitionalStatuses are user profile statuses that resolve on their own.
var transitionalStatuses = map[sagemakertypes.UserProfileStatus]bool{
	sagemakertypes.UserProfileStatusPending:  true,
	sagemakertypes.UserProfileStatusUpdating: true,
	sagemakertypes.UserProfileStatusDeleting: true,
}

// ProfileFailedError reports a user profile that entered a Failed status
// while an operation was waiting on it.
type ProfileFailedError struct {
	DomainID    string
	ProfileName string
	Op          string
	Status      sagemakertypes.UserProfileStatus
}

func (e *ProfileFailedError) Error() string {
	return fmt.Sprintf("user profile %q entered status %s during %s (domain %s)",
		e.ProfileName, e.Status, e.Op, e.DomainID)
}

func isFailedStatus(status sagemakertypes.UserProfileStatus) bool {
	return strings.Contains(strings.ToLower(string(status)), "failed")
}

// DescribeProfile fetches the current user profile description.
func (c *Client) DescribeProfile(ctx context.Context, domainID, name string) (*sagemaker.DescribeUserProfileOutput, error) {
	return c.sm.DescribeUserProfile(ctx, &sagemaker.DescribeUserProfileInput{
		DomainId:        aws.String(domainID),
		UserProfileName: aws.String(name),
	})
}

// WaitForStableProfile polls DescribeUserProfile until the profile leaves all
// transitional statuses, returning the final description. Errors out with the
// last observed status when MaxWait elapses.
func (c *Client) WaitForStableProfile(ctx context.Context, domainID, name string) (*sagemaker.DescribeUserProfileOutput, error) {
	deadline := time.Now().Add(c.MaxWait)
	lastStatus := sagemakertypes.UserProfileStatusPending

	for time.Now().Before(deadline) {
		desc, err := c.DescribeProfile(ctx, domainID, name)
		if err != nil {
			return nil, fmt.Errorf("describe user profile %s: %w", name, err)
		}
		lastStatus = desc.Status
		if !transitionalStatuses[desc.Status] {
			return desc, nil
		}
		c.logger.LogStatusPoll(ctx, "user-profile/"+name, string(desc.Status))
		if err := sleepCtx(ctx, c.PollInterval); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("timed out waiting for user profile %s to stabilize, last status %s", name, lastStatus)
}

// CreateProfile creates a user profile and waits until it is InService.
func (c *Client) CreateProfile(ctx context.Context, domainID, name string, settings *sagemakertypes.UserSettings) (*sagemaker.DescribeUserProfileOutput, error) {
	_, err := c.sm.CreateUserProfile(ctx, &sagemaker.CreateUserProfileInput{
		DomainId:        aws.String(domainID),
		UserProfileName: aws.String(name),
		UserSettings:    settings,
	})
	if err != nil {
		return nil, fmt.Errorf("create user profile %s: %w", name, err)
	}
	return c.waitInService(ctx, domainID, name, "creation")
}

// UpdateProfile applies new user settings and waits until the profile is back
// InService.
func (c *Client) UpdateProfile(ctx context.Context, domainID, name string, settings *sagemakertypes.UserSettings) (*sagemaker.DescribeUserProfileOutput, error) {
	_, err := c.sm.UpdateUserProfile(ctx, &sagemaker.UpdateUserProfileInput{
		DomainId:        aws.String(domainID),
		UserProfileName: aws.String(name),
		UserSettings:    settings,
	})
	if err != nil {
		return nil, fmt.Errorf("update user profile %s: %w", name, err)
	}
	return c.waitInService(ctx, domainID, name, "update")
}

// DeleteProfile deletes a user profile and waits until SageMaker reports it
// gone. A profile that is already absent is success.
func (c *Client) DeleteProfile(ctx context.Context, domainID, name string) error {
	_, err := c.sm.DeleteUserProfile(ctx, &sagemaker.DeleteUserProfileInput{
		DomainId:        aws.String(domainID),
		UserProfileName: aws.String(name),
	})
	if err != nil {
		if awsapi.IsResourceNotFound(err) {
			return nil
		}
		return fmt.Errorf("delete user profile %s: %w", name, err)
	}

	deadline := time.Now().Add(c.MaxWait)
	for time.Now().Before(deadline) {
		desc, err := c.DescribeProfile(ctx, domainID, name)
		if err != nil {
			if awsapi.IsResourceNotFound(err) {
				c.logger.WithContext(ctx).Info().
					Str("user_profile", name).
					Str("domain_id", domainID).
					Msg("user profile deleted")
				return nil
			}
			return fmt.Errorf("describe user profile %s: %w", name, err)
		}
		if isFailedStatus(desc.Status) {
			return &ProfileFailedError{DomainID: domainID, ProfileName: name, Op: "deletion", Status: desc.Status}
		}
		if desc.Status != sagemakertypes.UserProfileStatusDeleting {
			return fmt.Errorf("user profile %q no longer Deleting but not deleted (status %s, domain %s)",
				name, desc.Status, domainID)
		}
		if err := sleepCtx(ctx, c.PollInterval); err != nil {
			return err
		}
	}
	return fmt.Errorf("timed out waiting for user profile %s deletion", name)
}

func (c *Client) waitInService(ctx context.Context, domainID, name, op string) (*sagemaker.DescribeUserProfileOutput, error) {
	deadline := time.Now().Add(c.MaxWait)
	for time.Now().Before(deadline) {
		desc, err := c.DescribeProfile(ctx, domainID, name)
		if err != nil {
			return nil, fmt.Errorf("describe user profile %s: %w", name, err)
		}
		switch {
		case desc.Status == sagemakertypes.UserProfileStatusInService:
			return desc, nil
		case isFailedStatus(desc.Status):
			return nil, &ProfileFailedError{DomainID: domainID, ProfileName: name, Op: op, Status: desc.Status}
		}
		c.logger.LogStatusPoll(ctx, "user-profile/"+name, string(desc.Status))
		if err := sleepCtx(ctx, c.PollInterval); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("timed out waiting for user profile %s %s", name, op)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
