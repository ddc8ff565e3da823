// Package approval pauses deployments for a human decision: it sends the
// approval request out (SES email with an SNS fallback) and resumes the
// waiting Step Functions execution when the decision comes back.
package approval

import (
	"context"
	_ "embed"
	"fmt"
	"html/template"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"github.com/modelfold/smops/internal/awsapi"
	"github.com/modelfold/smops/telemetry"
)

//go:embed email.tpl.html
var emailTemplateHTML string

var emailTemplate = template.Must(template.New("approval-email").Parse(emailTemplateHTML))

const emailSubject = "Your approval needed for model deployment"

// Request is the approval notification payload emitted by the deployment
// state machine's waitForTaskToken step.
type Request struct {
	ExecutionContext    ExecutionContext `json:"ExecutionContext"`
	ApprovalUri         string           `json:"ApprovalUri"`
	RejectionUri        string           `json:"RejectionUri"`
	ManagerEmailAddress string           `json:"ManagerEmailAddress,omitempty"`
	EmailTopic          string           `json:"EmailTopic,omitempty"`
	TimeoutDescription  string           `json:"TimeoutDescription"`
}

// ExecutionContext mirrors the Step Functions context object passed through
// the state machine definition.
type ExecutionContext struct {
	Execution    NamedEntity `json:"Execution"`
	StateMachine NamedEntity `json:"StateMachine"`
	Task         Task        `json:"Task"`
}

type NamedEntity struct {
	Name string `json:"Name"`
}

type Task struct {
	Token string `json:"Token"`
}

// Notifier sends approval requests. Email is preferred because it carries
// richer content; an SNS topic serves as fallback when email fails.
type Notifier struct {
	ses    awsapi.SESAPI
	sns    awsapi.SNSAPI
	logger *telemetry.Logger
}

// NewNotifier creates an approval notifier.
func NewNotifier(sesClient awsapi.SESAPI, snsClient awsapi.SNSAPI, logger *telemetry.Logger) *Notifier {
	return &Notifier{ses: sesClient, sns: snsClient, logger: logger}
}

// appendToken adds the URL-encoded task token to a callback URI that may or
// may not already carry query parameters.
func appendToken(uri, token string) string {
	sep := "?"
	if strings.Contains(uri, "?") {
		sep = "&"
	}
	return uri + sep + "taskToken=" + url.QueryEscape(token)
}

// ConsoleExecutionURL builds the AWS Console deep link for a state machine
// execution. Partition and account are taken from the invoked Lambda's ARN,
// since the execution ARN is not part of the event.
func ConsoleExecutionURL(invokedFunctionARN, region, stateMachineName, executionName string) (string, error) {
	parts := strings.Split(invokedFunctionARN, ":")
	if len(parts) < 5 {
		return "", fmt.Errorf("malformed function ARN %q", invokedFunctionARN)
	}
	partition := parts[1]
	accountID := parts[4]
	executionARN := fmt.Sprintf("arn:%s:states:%s:%s:execution:%s:%s",
		partition, region, accountID, stateMachineName, executionName)
	return fmt.Sprintf("https://console.aws.amazon.com/states/home?region=%s#/executions/details/%s",
		region, executionARN), nil
}

// Notify sends the approval request for req. With a manager email address it
// tries SES first and falls back to the SNS topic on failure; with only a
// topic it publishes directly. Having neither is an error.
func (n *Notifier) Notify(ctx context.Context, req Request, invokedFunctionARN, region string) error {
	detailsURL, err := ConsoleExecutionURL(invokedFunctionARN, region,
		req.ExecutionContext.StateMachine.Name, req.ExecutionContext.Execution.Name)
	if err != nil {
		return err
	}

	approveURL := appendToken(req.ApprovalUri, req.ExecutionContext.Task.Token)
	rejectURL := appendToken(req.RejectionUri, req.ExecutionContext.Task.Token)

	log := n.logger.WithContext(ctx)

	if req.ManagerEmailAddress != "" {
		err := n.sendEmail(ctx, req, approveURL, rejectURL, detailsURL)
		if err == nil {
			log.Info().Str("to", req.ManagerEmailAddress).Msg("approval email sent")
			return nil
		}
		if req.EmailTopic == "" {
			return fmt.Errorf("send approval email: %w", err)
		}
		log.Warn().Err(err).Msg("failed to send email, falling back to SNS topic")
	} else if req.EmailTopic == "" {
		return fmt.Errorf("approval request needs a manager email address or an SNS topic")
	}

	message := strings.Join([]string{
		"Hello,",
		"",
		"A new model has been tested and is ready for deployment.",
		"",
		"Please *approve* to trigger phased deployment, or *reject* the change within " +
			req.TimeoutDescription + ", or the model will be auto-rejected.",
		"",
		"",
		"Approve -> " + approveURL,
		"",
		"Reject -> " + rejectURL,
		"",
		"",
		"",
		"To view the current status of this workflow in the AWS Console, visit: " + detailsURL,
		"",
	}, "\n")

	out, err := n.sns.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(req.EmailTopic),
		Subject:  aws.String(emailSubject),
		Message:  aws.String(message),
	})
	if err != nil {
		return fmt.Errorf("publish approval notification: %w", err)
	}
	log.Info().Str("message_id", aws.ToString(out.MessageId)).Msg("approval notification published")
	return nil
}

func (n *Notifier) sendEmail(ctx context.Context, req Request, approveURL, rejectURL, detailsURL string) error {
	var body strings.Builder
	err := emailTemplate.Execute(&body, map[string]string{
		"ApproveLink": approveURL,
		"RejectLink":  rejectURL,
		"ModelName":   req.ExecutionContext.Execution.Name,
		"Timeout":     req.TimeoutDescription,
		"DetailsUrl":  detailsURL,
	})
	if err != nil {
		return fmt.Errorf("render email template: %w", err)
	}

	// Reply-to goes to a no-reply address at the manager's own domain.
	_, domain, _ := strings.Cut(req.ManagerEmailAddress, "@")
	noReply := "no-reply@" + domain

	_, err = n.ses.SendEmail(ctx, &ses.SendEmailInput{
		Source:           aws.String(req.ManagerEmailAddress),
		ReplyToAddresses: []string{noReply},
		Destination: &sestypes.Destination{
			ToAddresses: []string{req.ManagerEmailAddress},
		},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{
				Charset: aws.String("UTF-8"),
				Data:    aws.String(emailSubject),
			},
			Body: &sestypes.Body{
				Html: &sestypes.Content{
					Charset: aws.String("UTF-8"),
					Data:    aws.String(body.String()),
				},
			},
		},
	})
	return err
}
