// Package access attaches IAM managed policies to the execution roles behind
// SageMaker Studio usernames.
package access

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker"

	"github.com/modelfold/smops/internal/awsapi"
	"github.com/modelfold/smops/pkg/naming"
	"github.com/modelfold/smops/telemetry"
)

// Attachment describes a policy attached to the execution roles of a set of
// Studio users.
type Attachment struct {
	Users     []string
	PolicyArn string
}

// Manager resolves usernames to execution roles and manages attachments.
type Manager struct {
	sm     awsapi.ProfileLookupAPI
	iam    awsapi.IAMAPI
	logger *telemetry.Logger

	// PropagationWait gives IAM time to propagate before dependent stack
	// resources run.
	PropagationWait time.Duration
}

// NewManager creates an attachment manager with the default propagation wait.
func NewManager(sm awsapi.ProfileLookupAPI, iamClient awsapi.IAMAPI, logger *telemetry.Logger) *Manager {
	return &Manager{
		sm:              sm,
		iam:             iamClient,
		logger:          logger,
		PropagationWait: 20 * time.Second,
	}
}

// listDomainIDs returns all Studio domain IDs in the region.
func (m *Manager) listDomainIDs(ctx context.Context) ([]string, error) {
	out, err := m.sm.ListDomains(ctx, &sagemaker.ListDomainsInput{})
	if err != nil {
		return nil, fmt.Errorf("list domains: %w", err)
	}
	if out.NextToken != nil {
		m.logger.WithContext(ctx).Warn().
			Msg("ignoring NextToken on ListDomains response - pagination not implemented")
	}
	ids := make([]string, 0, len(out.Domains))
	for _, d := range out.Domains {
		ids = append(ids, aws.ToString(d.DomainId))
	}
	return ids, nil
}

// resolveExecutionRole probes each domain for the username and returns the
// profile's execution role ARN.
func (m *Manager) resolveExecutionRole(ctx context.Context, domainIDs []string, username string) (string, error) {
	for _, domainID := range domainIDs {
		desc, err := m.sm.DescribeUserProfile(ctx, &sagemaker.DescribeUserProfileInput{
			DomainId:        aws.String(domainID),
			UserProfileName: aws.String(username),
		})
		if err != nil {
			if awsapi.IsResourceNotFound(err) {
				continue
			}
			return "", fmt.Errorf("describe user profile %s in %s: %w", username, domainID, err)
		}
		if desc.UserSettings == nil || aws.ToString(desc.UserSettings.ExecutionRole) == "" {
			return "", fmt.Errorf("user %q in domain %s has no execution role", username, domainID)
		}
		return aws.ToString(desc.UserSettings.ExecutionRole), nil
	}
	return "", fmt.Errorf("user %q not found in any Studio domain %v", username, domainIDs)
}

// Apply attaches (or detaches) the policy for every listed username, deduping
// shared execution roles. Returns the sorted role ARNs processed.
func (m *Manager) Apply(ctx context.Context, usernames []string, policyArn string, attach bool) ([]string, error) {
	domainIDs, err := m.listDomainIDs(ctx)
	if err != nil {
		return nil, err
	}
	if len(usernames) > 0 && len(domainIDs) == 0 {
		return nil, fmt.Errorf("found no Studio domains in this region to search usernames on")
	}

	verb := "attach"
	if !attach {
		verb = "detach"
	}

	processed := map[string]bool{}
	for _, username := range usernames {
		roleArn, err := m.resolveExecutionRole(ctx, domainIDs, username)
		if err != nil {
			return nil, fmt.Errorf("failed to %s policy for user %q: %w", verb, username, err)
		}
		if processed[roleArn] {
			m.logger.WithContext(ctx).Info().
				Str("user", username).
				Str("role", roleArn).
				Msg("skipping user, role already processed")
			continue
		}

		roleName := naming.RoleNameFromARN(roleArn)
		if attach {
			_, err = m.iam.AttachRolePolicy(ctx, &iam.AttachRolePolicyInput{
				PolicyArn: aws.String(policyArn),
				RoleName:  aws.String(roleName),
			})
		} else {
			_, err = m.iam.DetachRolePolicy(ctx, &iam.DetachRolePolicyInput{
				PolicyArn: aws.String(policyArn),
				RoleName:  aws.String(roleName),
			})
			if err != nil && awsapi.IsNoSuchEntity(err) {
				m.logger.WithContext(ctx).Info().
					Str("role", roleName).
					Msg("policy already detached or role gone, ignoring")
				err = nil
			}
		}
		if err != nil {
			return nil, fmt.Errorf("failed to %s policy for user %q: %w", verb, username, err)
		}
		processed[roleArn] = true
	}

	roles := make([]string, 0, len(processed))
	for r := range processed {
		roles = append(roles, r)
	}
	sort.Strings(roles)
	return roles, nil
}

// Create attaches the policy to every user's role and waits for propagation.
func (m *Manager) Create(ctx context.Context, att Attachment) ([]string, error) {
	roles, err := m.Apply(ctx, att.Users, att.PolicyArn, true)
	if err != nil {
		return nil, err
	}
	m.waitPropagation(ctx)
	return roles, nil
}

// Delete detaches the policy from every user's role and waits for propagation.
func (m *Manager) Delete(ctx context.Context, att Attachment) error {
	if _, err := m.Apply(ctx, att.Users, att.PolicyArn, false); err != nil {
		return err
	}
	m.waitPropagation(ctx)
	return nil
}

// Update reconciles an attachment change: a changed policy ARN moves every
// user, an unchanged one only moves the user delta.
func (m *Manager) Update(ctx context.Context, prev, next Attachment) error {
	policyChanged := prev.PolicyArn != next.PolicyArn
	added := difference(next.Users, prev.Users)
	removed := difference(prev.Users, next.Users)

	anyChanges := false
	if prev.PolicyArn != "" {
		if policyChanged {
			if _, err := m.Apply(ctx, prev.Users, prev.PolicyArn, false); err != nil {
				return err
			}
			anyChanges = true
		} else if len(removed) > 0 {
			if _, err := m.Apply(ctx, removed, prev.PolicyArn, false); err != nil {
				return err
			}
			anyChanges = true
		}
	}
	if policyChanged {
		if _, err := m.Apply(ctx, next.Users, next.PolicyArn, true); err != nil {
			return err
		}
		anyChanges = true
	} else if len(added) > 0 {
		if _, err := m.Apply(ctx, added, next.PolicyArn, true); err != nil {
			return err
		}
		anyChanges = true
	}

	if anyChanges {
		m.waitPropagation(ctx)
	}
	return nil
}

func (m *Manager) waitPropagation(ctx context.Context) {
	if m.PropagationWait <= 0 {
		return
	}
	timer := time.NewTimer(m.PropagationWait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// difference returns the members of a that are not in b, preserving order.
func difference(a, b []string) []string {
	inB := map[string]bool{}
	for _, s := range b {
		inB[s] = true
	}
	var out []string
	for _, s := range a {
		if !inB[s] {
			out = append(out, s)
		}
	}
	return out
}
