package awsapi

import (
	"errors"
	"strings"

	sagemakertypes "github.com/aws/aws-sdk-go-v2/service/sagemaker/types"
	"github.com/aws/smithy-go"
)

// IsResourceNotFound reports whether err is a SageMaker ResourceNotFound fault
// (missing user profile, domain, trial, ...).
func IsResourceNotFound(err error) bool {
	var nf *sagemakertypes.ResourceNotFound
	return errors.As(err, &nf)
}

// IsEndpointNotFound reports whether err is the DescribeEndpoint validation
// fault for a nonexistent endpoint. SageMaker signals this with a
// ValidationException rather than ResourceNotFound, so the message prefix is
// the only discriminator.
func IsEndpointNotFound(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return strings.HasPrefix(strings.ToLower(apiErr.ErrorMessage()), "could not find endpoint")
}

// IsNoSuchEntity reports whether err is the IAM NoSuchEntity fault, returned
// when detaching a policy that is already detached or whose role is gone.
func IsNoSuchEntity(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.ErrorCode() == "NoSuchEntity"
}
