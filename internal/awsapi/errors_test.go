package awsapi

import (
	"errors"
	"fmt"
	"testing"

	sagemakertypes "github.com/aws/aws-sdk-go-v2/service/sagemaker/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
)

func TestIsResourceNotFound(t *testing.T) {
	nf := &sagemakertypes.ResourceNotFound{Message: strPtr("RecordNotFound")}

	assert.True(t, IsResourceNotFound(nf))
	assert.True(t, IsResourceNotFound(fmt.Errorf("describe user profile: %w", nf)))
	assert.False(t, IsResourceNotFound(errors.New("some other error")))
	assert.False(t, IsResourceNotFound(nil))
}

func TestIsEndpointNotFound(t *testing.T) {
	notFound := &smithy.GenericAPIError{
		Code:    "ValidationException",
		Message: "Could not find endpoint \"arn:aws:sagemaker:us-east-1:123456789012:endpoint/churn\".",
	}
	otherValidation := &smithy.GenericAPIError{
		Code:    "ValidationException",
		Message: "1 validation error detected",
	}

	assert.True(t, IsEndpointNotFound(notFound))
	assert.True(t, IsEndpointNotFound(fmt.Errorf("describe endpoint: %w", notFound)))
	assert.False(t, IsEndpointNotFound(otherValidation))
	assert.False(t, IsEndpointNotFound(errors.New("network timeout")))
}

func TestIsNoSuchEntity(t *testing.T) {
	noSuch := &smithy.GenericAPIError{Code: "NoSuchEntity", Message: "Policy not attached"}

	assert.True(t, IsNoSuchEntity(noSuch))
	assert.True(t, IsNoSuchEntity(fmt.Errorf("detach: %w", noSuch)))
	assert.False(t, IsNoSuchEntity(errors.New("throttled")))
}

func strPtr(s string) *string { return &s }
