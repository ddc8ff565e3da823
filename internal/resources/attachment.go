package resources

import (
	"context"
	"fmt"

	"github.com/aws/aws-lambda-go/cfn"

	"github.com/modelfold/smops/internal/access"
	"github.com/modelfold/smops/internal/cfnres"
)

// PolicyAttachment attaches a managed policy to the execution roles behind a
// set of Studio usernames. It bridges two CloudFormation gaps: attaching an
// existing policy to existing roles, and resolving Studio usernames to roles.
// The policy ARN is the physical resource ID.
type PolicyAttachment struct {
	Access *access.Manager
}

func attachmentFromProps(props map[string]interface{}) (access.Attachment, error) {
	policyArn := cfnres.StringProp(props, "PolicyArn")
	if policyArn == "" {
		return access.Attachment{}, fmt.Errorf("resource property PolicyArn is required")
	}
	raw, ok := props["Users"].([]interface{})
	if !ok {
		return access.Attachment{}, fmt.Errorf("resource property Users is required")
	}
	att := access.Attachment{PolicyArn: policyArn}
	for _, u := range raw {
		name, ok := u.(string)
		if !ok {
			return access.Attachment{}, fmt.Errorf("resource property Users must be a list of strings")
		}
		att.Users = append(att.Users, name)
	}
	return att, nil
}

func (r *PolicyAttachment) Create(ctx context.Context, event cfn.Event) (string, map[string]interface{}, error) {
	att, err := attachmentFromProps(event.ResourceProperties)
	if err != nil {
		return "", nil, err
	}

	roleArns, err := r.Access.Create(ctx, att)
	if err != nil {
		return "", nil, err
	}
	return att.PolicyArn, map[string]interface{}{
		"Users":    att.Users,
		"RoleArns": roleArns,
	}, nil
}

func (r *PolicyAttachment) Update(ctx context.Context, event cfn.Event) (string, map[string]interface{}, error) {
	next, err := attachmentFromProps(event.ResourceProperties)
	if err != nil {
		return event.PhysicalResourceID, nil, err
	}
	// Old properties may be partial; a missing old policy just means nothing
	// to detach.
	prev, _ := attachmentFromProps(event.OldResourceProperties)

	if err := r.Access.Update(ctx, prev, next); err != nil {
		return event.PhysicalResourceID, nil, err
	}
	return next.PolicyArn, map[string]interface{}{
		"Users":     next.Users,
		"PolicyArn": next.PolicyArn,
	}, nil
}

func (r *PolicyAttachment) Delete(ctx context.Context, event cfn.Event) (string, map[string]interface{}, error) {
	att, err := attachmentFromProps(event.ResourceProperties)
	if err != nil {
		// Nothing identifiable to detach; succeed so stack deletion is not
		// blocked.
		return event.PhysicalResourceID, nil, nil
	}

	if err := r.Access.Delete(ctx, att); err != nil {
		return event.PhysicalResourceID, nil, err
	}
	return event.PhysicalResourceID, nil, nil
}
