package resources

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/cfn"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker"
	sagemakertypes "github.com/aws/aws-sdk-go-v2/service/sagemaker/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelfold/smops/internal/studio"
	"github.com/modelfold/smops/telemetry"
)

type mockStudioClient struct {
	ListDomainsFunc         func(ctx context.Context, params *sagemaker.ListDomainsInput, optFns ...func(*sagemaker.Options)) (*sagemaker.ListDomainsOutput, error)
	DescribeDomainFunc      func(ctx context.Context, params *sagemaker.DescribeDomainInput, optFns ...func(*sagemaker.Options)) (*sagemaker.DescribeDomainOutput, error)
	DescribeUserProfileFunc func(ctx context.Context, params *sagemaker.DescribeUserProfileInput, optFns ...func(*sagemaker.Options)) (*sagemaker.DescribeUserProfileOutput, error)
	CreateUserProfileFunc   func(ctx context.Context, params *sagemaker.CreateUserProfileInput, optFns ...func(*sagemaker.Options)) (*sagemaker.CreateUserProfileOutput, error)
	UpdateUserProfileFunc   func(ctx context.Context, params *sagemaker.UpdateUserProfileInput, optFns ...func(*sagemaker.Options)) (*sagemaker.UpdateUserProfileOutput, error)
	DeleteUserProfileFunc   func(ctx context.Context, params *sagemaker.DeleteUserProfileInput, optFns ...func(*sagemaker.Options)) (*sagemaker.DeleteUserProfileOutput, error)
}

func (m *mockStudioClient) ListDomains(ctx context.Context, params *sagemaker.ListDomainsInput, optFns ...func(*sagemaker.Options)) (*sagemaker.ListDomainsOutput, error) {
	return m.ListDomainsFunc(ctx, params, optFns...)
}

func (m *mockStudioClient) DescribeDomain(ctx context.Context, params *sagemaker.DescribeDomainInput, optFns ...func(*sagemaker.Options)) (*sagemaker.DescribeDomainOutput, error) {
	return m.DescribeDomainFunc(ctx, params, optFns...)
}

func (m *mockStudioClient) DescribeUserProfile(ctx context.Context, params *sagemaker.DescribeUserProfileInput, optFns ...func(*sagemaker.Options)) (*sagemaker.DescribeUserProfileOutput, error) {
	return m.DescribeUserProfileFunc(ctx, params, optFns...)
}

func (m *mockStudioClient) CreateUserProfile(ctx context.Context, params *sagemaker.CreateUserProfileInput, optFns ...func(*sagemaker.Options)) (*sagemaker.CreateUserProfileOutput, error) {
	return m.CreateUserProfileFunc(ctx, params, optFns...)
}

func (m *mockStudioClient) UpdateUserProfile(ctx context.Context, params *sagemaker.UpdateUserProfileInput, optFns ...func(*sagemaker.Options)) (*sagemaker.UpdateUserProfileOutput, error) {
	return m.UpdateUserProfileFunc(ctx, params, optFns...)
}

func (m *mockStudioClient) DeleteUserProfile(ctx context.Context, params *sagemaker.DeleteUserProfileInput, optFns ...func(*sagemaker.Options)) (*sagemaker.DeleteUserProfileOutput, error) {
	return m.DeleteUserProfileFunc(ctx, params, optFns...)
}

func studioClient(mock *mockStudioClient) *studio.Client {
	c := studio.NewClient(mock, telemetry.NewLogger("test"))
	c.PollInterval = time.Millisecond
	c.MaxWait = time.Second
	return c
}

func singleDomain(id string) func(context.Context, *sagemaker.ListDomainsInput, ...func(*sagemaker.Options)) (*sagemaker.ListDomainsOutput, error) {
	return func(context.Context, *sagemaker.ListDomainsInput, ...func(*sagemaker.Options)) (*sagemaker.ListDomainsOutput, error) {
		return &sagemaker.ListDomainsOutput{
			Domains: []sagemakertypes.DomainDetails{{DomainId: aws.String(id)}},
		}, nil
	}
}

func TestDescribeDomainResource(t *testing.T) {
	mock := &mockStudioClient{
		ListDomainsFunc: singleDomain("d-inferred"),
		DescribeDomainFunc: func(_ context.Context, params *sagemaker.DescribeDomainInput, _ ...func(*sagemaker.Options)) (*sagemaker.DescribeDomainOutput, error) {
			return &sagemaker.DescribeDomainOutput{
				DomainId:   params.DomainId,
				DomainName: aws.String("studio"),
				Status:     sagemakertypes.DomainStatusInService,
			}, nil
		},
	}
	r := &DescribeDomain{Studio: studioClient(mock)}

	t.Run("explicit domain id", func(t *testing.T) {
		id, data, err := r.Create(context.Background(), cfn.Event{
			RequestType:        cfn.RequestCreate,
			ResourceProperties: map[string]interface{}{"DomainId": "d-given"},
		})
		require.NoError(t, err)
		assert.Equal(t, "d-given", id)
		assert.Equal(t, "studio", data["DomainName"])
	})

	t.Run("inferred domain id", func(t *testing.T) {
		id, _, err := r.Create(context.Background(), cfn.Event{
			RequestType:        cfn.RequestCreate,
			ResourceProperties: map[string]interface{}{},
		})
		require.NoError(t, err)
		assert.Equal(t, "d-inferred", id)
	})

	t.Run("delete is a no-op", func(t *testing.T) {
		id, _, err := r.Delete(context.Background(), cfn.Event{PhysicalResourceID: "d-given"})
		require.NoError(t, err)
		assert.Equal(t, "d-given", id)
	})
}

func TestUserProfileResource(t *testing.T) {
	t.Run("create returns the EFS UID", func(t *testing.T) {
		var created *sagemaker.CreateUserProfileInput
		mock := &mockStudioClient{
			ListDomainsFunc: singleDomain("d-one"),
			CreateUserProfileFunc: func(_ context.Context, params *sagemaker.CreateUserProfileInput, _ ...func(*sagemaker.Options)) (*sagemaker.CreateUserProfileOutput, error) {
				created = params
				return &sagemaker.CreateUserProfileOutput{}, nil
			},
			DescribeUserProfileFunc: func(_ context.Context, params *sagemaker.DescribeUserProfileInput, _ ...func(*sagemaker.Options)) (*sagemaker.DescribeUserProfileOutput, error) {
				return &sagemaker.DescribeUserProfileOutput{
					UserProfileName:      params.UserProfileName,
					Status:               sagemakertypes.UserProfileStatusInService,
					HomeEfsFileSystemUid: aws.String("200005"),
				}, nil
			},
		}
		r := &UserProfile{Studio: studioClient(mock)}

		id, data, err := r.Create(context.Background(), cfn.Event{
			RequestType: cfn.RequestCreate,
			ResourceProperties: map[string]interface{}{
				"UserProfileName": "alice",
				"UserSettings": map[string]interface{}{
					"ExecutionRole": "arn:aws:iam::111122223333:role/AliceExec",
				},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, "alice", id)
		assert.Equal(t, "200005", data["HomeEfsFileSystemUid"])

		require.NotNil(t, created)
		assert.Equal(t, "d-one", aws.ToString(created.DomainId))
		require.NotNil(t, created.UserSettings)
		assert.Equal(t, "arn:aws:iam::111122223333:role/AliceExec", aws.ToString(created.UserSettings.ExecutionRole))
	})

	t.Run("delete succeeds when domain is already gone", func(t *testing.T) {
		mock := &mockStudioClient{
			ListDomainsFunc: func(context.Context, *sagemaker.ListDomainsInput, ...func(*sagemaker.Options)) (*sagemaker.ListDomainsOutput, error) {
				return &sagemaker.ListDomainsOutput{}, nil
			},
		}
		r := &UserProfile{Studio: studioClient(mock)}

		id, _, err := r.Delete(context.Background(), cfn.Event{
			RequestType:        cfn.RequestDelete,
			PhysicalResourceID: "alice",
			ResourceProperties: map[string]interface{}{},
		})
		require.NoError(t, err)
		assert.Equal(t, "alice", id)
	})
}

func TestAttachmentFromProps(t *testing.T) {
	att, err := attachmentFromProps(map[string]interface{}{
		"PolicyArn": "arn:aws:iam::111122223333:policy/shared",
		"Users":     []interface{}{"alice", "bob"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, att.Users)

	_, err = attachmentFromProps(map[string]interface{}{"Users": []interface{}{"alice"}})
	require.Error(t, err)

	_, err = attachmentFromProps(map[string]interface{}{"PolicyArn": "arn:policy"})
	require.Error(t, err)

	_, err = attachmentFromProps(map[string]interface{}{
		"PolicyArn": "arn:policy",
		"Users":     []interface{}{42},
	})
	require.Error(t, err)
}

func TestSetupProps(t *testing.T) {
	props := setupProps(map[string]interface{}{
		"DomainId":             "d-one",
		"GitRepository":        "https://github.com/example/starter.git",
		"HomeEfsFileSystemUid": "200005",
		"EnableProjects":       "true",
	}, "alice")

	assert.Equal(t, "d-one", props.DomainID)
	assert.Equal(t, "alice", props.UserProfileName)
	assert.Equal(t, "200005", props.HomeEfsFileSystemUID)
	assert.True(t, props.EnableProjects)
}
