// Package project loads ML project configuration from SSM and drives the
// model release pipeline: submitting candidate models to the deployment state
// machine and tracking executions.
package project

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	"github.com/modelfold/smops/internal/awsapi"
	"github.com/modelfold/smops/pkg/naming"
	"github.com/modelfold/smops/telemetry"
)

// Session is a project's configuration as provisioned into SSM by the project
// stack, plus the caller's sandbox parameters when a role is given.
type Session struct {
	ProjectID string
	Role      string

	ArtifactsBucket      string
	CodeCommit           string
	MonitoringBucket     string
	PipelineStateMachine string
	SourceBucket         string
	SudoRole             string

	Sandbox *Sandbox
}

// Sandbox holds the per-user sandbox parameters.
type Sandbox struct {
	ArtifactsBucket string
	SandboxBucket   string
}

// Client talks to the project's control plane.
type Client struct {
	ssm    awsapi.SSMAPI
	sfn    awsapi.StepFunctionsAPI
	logger *telemetry.Logger
}

// NewClient creates a project client.
func NewClient(ssmClient awsapi.SSMAPI, sfnClient awsapi.StepFunctionsAPI, logger *telemetry.Logger) *Client {
	return &Client{ssm: ssmClient, sfn: sfnClient, logger: logger}
}

var sharedParamIDs = []string{
	"ArtifactsBucket",
	"CodeCommit",
	"MonitoringBucket",
	"PipelineStateMachine",
	"SourceBucket",
	"SudoRole",
}

var sandboxParamIDs = []string{"ArtifactsBucket", "SandboxBucket"}

type paramSpec struct {
	shared bool
	id     string
}

// LoadSession reads the project's SSM parameters. role is optional: when set,
// the user's sandbox parameters are fetched too (the role name indexes them).
// A project with no valid parameters at all is treated as an invalid ID;
// partially missing parameters only degrade functionality and are logged.
func (c *Client) LoadSession(ctx context.Context, projectID, role string) (*Session, error) {
	prefix := fmt.Sprintf("/%s-Project", projectID)
	specs := map[string]paramSpec{}
	for _, id := range sharedParamIDs {
		specs[fmt.Sprintf("%s/%s", prefix, id)] = paramSpec{shared: true, id: id}
	}

	sess := &Session{ProjectID: projectID, Role: role}
	if role != "" {
		roleName := naming.RoleNameFromARN(role)
		sess.Sandbox = &Sandbox{}
		for _, id := range sandboxParamIDs {
			specs[fmt.Sprintf("%s/%s/%s", prefix, roleName, id)] = paramSpec{shared: false, id: id}
		}
	}

	names := make([]string, 0, len(specs))
	for name := range specs {
		names = append(names, name)
	}

	out, err := c.ssm.GetParameters(ctx, &ssm.GetParametersInput{Names: names})
	if err != nil {
		return nil, fmt.Errorf("get project parameters: %w", err)
	}
	if len(out.InvalidParameters) == len(specs) {
		return nil, fmt.Errorf("found no valid SSM parameters for %s: invalid project ID", prefix)
	}
	if len(out.InvalidParameters) > 0 {
		c.logger.WithContext(ctx).Warn().
			Strs("missing", out.InvalidParameters).
			Msg("some project parameters missing from SSM, functionality may be degraded")
	}

	for _, param := range out.Parameters {
		spec, ok := specs[aws.ToString(param.Name)]
		if !ok {
			continue
		}
		value := aws.ToString(param.Value)
		if spec.shared {
			switch spec.id {
			case "ArtifactsBucket":
				sess.ArtifactsBucket = value
			case "CodeCommit":
				sess.CodeCommit = value
			case "MonitoringBucket":
				sess.MonitoringBucket = value
			case "PipelineStateMachine":
				sess.PipelineStateMachine = value
			case "SourceBucket":
				sess.SourceBucket = value
			case "SudoRole":
				sess.SudoRole = value
			}
		} else {
			switch spec.id {
			case "ArtifactsBucket":
				sess.Sandbox.ArtifactsBucket = value
			case "SandboxBucket":
				sess.Sandbox.SandboxBucket = value
			}
		}
	}

	c.logger.WithContext(ctx).Info().Str("project_id", projectID).Msg("project session loaded")
	return sess, nil
}
