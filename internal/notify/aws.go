package notify

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"autosite/internal/common/logger"
	"autosite/internal/workflow"
)

func awsString(s string) *string { return &s }

// EmailNotifier sends the requester a terminal-state email via SES.
type EmailNotifier struct {
	client    *ses.Client
	fromEmail string
	logger    logger.Logger
}

func NewEmailNotifier(ctx context.Context, region, fromEmail string, log logger.Logger) (*EmailNotifier, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return &EmailNotifier{
		client:    ses.NewFromConfig(cfg),
		fromEmail: fromEmail,
		logger:    log.With(map[string]interface{}{"component": "email"}),
	}, nil
}

func (n *EmailNotifier) WorkflowCompleted(ctx context.Context, status workflow.Status, req workflow.Request) error {
	subject := fmt.Sprintf("Site generation %s: %s", status.State, req.Task)
	body := fmt.Sprintf("Workflow %s finished in state %s.\n", status.ID, status.State)
	if status.Result != nil {
		body += fmt.Sprintf("Repository: %s\nSite: %s\n", status.Result.RepoURL, status.Result.PagesURL)
	}
	if status.Error != "" {
		body += fmt.Sprintf("Failure stage: %s\nDetail: %s\n", status.Stage, status.Error)
	}

	_, err := n.client.SendEmail(ctx, &ses.SendEmailInput{
		Source: awsString(n.fromEmail),
		Destination: &sestypes.Destination{
			ToAddresses: []string{req.Email},
		},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: awsString(subject)},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: awsString(body)},
			},
		},
	})
	if err != nil {
		n.logger.WithError(err).Warn("email notification failed", map[string]interface{}{"workflowId": status.ID})
		return err
	}
	return nil
}

// OpsAlertNotifier publishes failed workflows to an SNS topic.
type OpsAlertNotifier struct {
	client   *sns.Client
	topicARN string
	logger   logger.Logger
}

func NewOpsAlertNotifier(ctx context.Context, region, topicARN string, log logger.Logger) (*OpsAlertNotifier, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return &OpsAlertNotifier{
		client:   sns.NewFromConfig(cfg),
		topicARN: topicARN,
		logger:   log.With(map[string]interface{}{"component": "ops-alert"}),
	}, nil
}

func (n *OpsAlertNotifier) WorkflowCompleted(ctx context.Context, status workflow.Status, req workflow.Request) error {
	if status.State != workflow.StateFailed {
		return nil
	}

	msg := fmt.Sprintf("workflow %s failed at stage %s: %s (task=%s, repository=%s)",
		status.ID, status.Stage, status.Error, req.Task, status.Repository)

	_, err := n.client.Publish(ctx, &sns.PublishInput{
		TopicArn: awsString(n.topicARN),
		Subject:  awsString("autosite workflow failure"),
		Message:  awsString(msg),
	})
	if err != nil {
		n.logger.WithError(err).Warn("ops alert failed", map[string]interface{}{"workflowId": status.ID})
		return err
	}
	return nil
}
