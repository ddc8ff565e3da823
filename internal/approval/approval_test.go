package approval

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sfn"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelfold/smops/telemetry"
)

type mockSESClient struct {
	SendEmailFunc func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

func (m *mockSESClient) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	return m.SendEmailFunc(ctx, params, optFns...)
}

type mockSNSClient struct {
	PublishFunc func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

func (m *mockSNSClient) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	return m.PublishFunc(ctx, params, optFns...)
}

type mockSFNClient struct {
	SendTaskSuccessFunc func(ctx context.Context, params *sfn.SendTaskSuccessInput, optFns ...func(*sfn.Options)) (*sfn.SendTaskSuccessOutput, error)
	SendTaskFailureFunc func(ctx context.Context, params *sfn.SendTaskFailureInput, optFns ...func(*sfn.Options)) (*sfn.SendTaskFailureOutput, error)
}

func (m *mockSFNClient) StartExecution(context.Context, *sfn.StartExecutionInput, ...func(*sfn.Options)) (*sfn.StartExecutionOutput, error) {
	return nil, errors.New("not implemented")
}

func (m *mockSFNClient) DescribeExecution(context.Context, *sfn.DescribeExecutionInput, ...func(*sfn.Options)) (*sfn.DescribeExecutionOutput, error) {
	return nil, errors.New("not implemented")
}

func (m *mockSFNClient) GetExecutionHistory(context.Context, *sfn.GetExecutionHistoryInput, ...func(*sfn.Options)) (*sfn.GetExecutionHistoryOutput, error) {
	return nil, errors.New("not implemented")
}

func (m *mockSFNClient) SendTaskSuccess(ctx context.Context, params *sfn.SendTaskSuccessInput, optFns ...func(*sfn.Options)) (*sfn.SendTaskSuccessOutput, error) {
	return m.SendTaskSuccessFunc(ctx, params, optFns...)
}

func (m *mockSFNClient) SendTaskFailure(ctx context.Context, params *sfn.SendTaskFailureInput, optFns ...func(*sfn.Options)) (*sfn.SendTaskFailureOutput, error) {
	return m.SendTaskFailureFunc(ctx, params, optFns...)
}

const testFunctionARN = "arn:aws:lambda:eu-west-1:111122223333:function:request-approval"

func approvalRequest() Request {
	return Request{
		ExecutionContext: ExecutionContext{
			Execution:    NamedEntity{Name: "deploy-42"},
			StateMachine: NamedEntity{Name: "model-deployment"},
			Task:         Task{Token: "tok/en+value=="},
		},
		ApprovalUri:        "https://api.example.com/approve",
		RejectionUri:       "https://api.example.com/reject?source=email",
		TimeoutDescription: "3 days",
	}
}

func TestConsoleExecutionURL(t *testing.T) {
	url, err := ConsoleExecutionURL(testFunctionARN, "eu-west-1", "model-deployment", "deploy-42")
	require.NoError(t, err)
	assert.Equal(t,
		"https://console.aws.amazon.com/states/home?region=eu-west-1"+
			"#/executions/details/arn:aws:states:eu-west-1:111122223333:execution:model-deployment:deploy-42",
		url)

	_, err = ConsoleExecutionURL("not-an-arn", "eu-west-1", "sm", "ex")
	require.Error(t, err)
}

func TestNotifyEmail(t *testing.T) {
	var sent *ses.SendEmailInput
	notifier := NewNotifier(
		&mockSESClient{
			SendEmailFunc: func(_ context.Context, params *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
				sent = params
				return &ses.SendEmailOutput{MessageId: aws.String("m-1")}, nil
			},
		},
		&mockSNSClient{
			PublishFunc: func(_ context.Context, _ *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
				t.Fatal("SNS must not be used when email succeeds")
				return nil, nil
			},
		},
		telemetry.NewLogger("test"),
	)

	req := approvalRequest()
	req.ManagerEmailAddress = "manager@example.com"

	require.NoError(t, notifier.Notify(context.Background(), req, testFunctionARN, "eu-west-1"))

	require.NotNil(t, sent)
	assert.Equal(t, "manager@example.com", aws.ToString(sent.Source))
	assert.Equal(t, []string{"manager@example.com"}, sent.Destination.ToAddresses)
	assert.Equal(t, []string{"no-reply@example.com"}, sent.ReplyToAddresses)

	body := aws.ToString(sent.Message.Body.Html.Data)
	assert.Contains(t, body, "https://api.example.com/approve?taskToken=tok%2Fen%2Bvalue%3D%3D")
	assert.Contains(t, body, "https://api.example.com/reject?source=email&amp;taskToken=tok%2Fen%2Bvalue%3D%3D")
	assert.Contains(t, body, "3 days")
}

func TestNotifySNSFallback(t *testing.T) {
	var published *sns.PublishInput
	notifier := NewNotifier(
		&mockSESClient{
			SendEmailFunc: func(_ context.Context, _ *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
				return nil, errors.New("address not verified")
			},
		},
		&mockSNSClient{
			PublishFunc: func(_ context.Context, params *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
				published = params
				return &sns.PublishOutput{MessageId: aws.String("n-1")}, nil
			},
		},
		telemetry.NewLogger("test"),
	)

	req := approvalRequest()
	req.ManagerEmailAddress = "manager@example.com"
	req.EmailTopic = "arn:aws:sns:eu-west-1:111122223333:approvals"

	require.NoError(t, notifier.Notify(context.Background(), req, testFunctionARN, "eu-west-1"))

	require.NotNil(t, published)
	assert.Equal(t, req.EmailTopic, aws.ToString(published.TopicArn))
	message := aws.ToString(published.Message)
	assert.Contains(t, message, "Approve -> https://api.example.com/approve?taskToken=tok%2Fen%2Bvalue%3D%3D")
	assert.Contains(t, message, "Reject -> https://api.example.com/reject?source=email&taskToken=tok%2Fen%2Bvalue%3D%3D")
	assert.Contains(t, message, "within 3 days")
}

func TestNotifyEmailFailureWithoutTopic(t *testing.T) {
	notifier := NewNotifier(
		&mockSESClient{
			SendEmailFunc: func(_ context.Context, _ *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
				return nil, errors.New("address not verified")
			},
		},
		&mockSNSClient{
			PublishFunc: func(_ context.Context, _ *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
				t.Fatal("no topic was configured")
				return nil, nil
			},
		},
		telemetry.NewLogger("test"),
	)

	req := approvalRequest()
	req.ManagerEmailAddress = "manager@example.com"

	err := notifier.Notify(context.Background(), req, testFunctionARN, "eu-west-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "address not verified")
}

func TestNotifyRequiresEmailOrTopic(t *testing.T) {
	notifier := NewNotifier(&mockSESClient{}, &mockSNSClient{}, telemetry.NewLogger("test"))
	err := notifier.Notify(context.Background(), approvalRequest(), testFunctionARN, "eu-west-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "manager email address or an SNS topic")
}

func TestRespond(t *testing.T) {
	t.Run("approve resumes the execution", func(t *testing.T) {
		var success *sfn.SendTaskSuccessInput
		responder := NewResponder(&mockSFNClient{
			SendTaskSuccessFunc: func(_ context.Context, params *sfn.SendTaskSuccessInput, _ ...func(*sfn.Options)) (*sfn.SendTaskSuccessOutput, error) {
				success = params
				return &sfn.SendTaskSuccessOutput{}, nil
			},
		}, telemetry.NewLogger("test"))

		require.NoError(t, responder.Respond(context.Background(), DecisionApprove, "tok-1"))
		require.NotNil(t, success)
		assert.Equal(t, "tok-1", aws.ToString(success.TaskToken))
		assert.True(t, strings.Contains(aws.ToString(success.Output), "Approved"))
	})

	t.Run("reject fails the waiting task", func(t *testing.T) {
		var failure *sfn.SendTaskFailureInput
		responder := NewResponder(&mockSFNClient{
			SendTaskFailureFunc: func(_ context.Context, params *sfn.SendTaskFailureInput, _ ...func(*sfn.Options)) (*sfn.SendTaskFailureOutput, error) {
				failure = params
				return &sfn.SendTaskFailureOutput{}, nil
			},
		}, telemetry.NewLogger("test"))

		require.NoError(t, responder.Respond(context.Background(), DecisionReject, "tok-2"))
		require.NotNil(t, failure)
		assert.Equal(t, "Rejected", aws.ToString(failure.Error))
	})

	t.Run("missing token is rejected", func(t *testing.T) {
		responder := NewResponder(&mockSFNClient{}, telemetry.NewLogger("test"))
		require.Error(t, responder.Respond(context.Background(), DecisionApprove, ""))
	})

	t.Run("unknown decision is rejected", func(t *testing.T) {
		responder := NewResponder(&mockSFNClient{}, telemetry.NewLogger("test"))
		require.Error(t, responder.Respond(context.Background(), Decision("maybe"), "tok-3"))
	})
}
