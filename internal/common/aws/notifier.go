// internal/common/aws/notifier.go
package aws

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"recruitment-workers/internal/common/config"
	"recruitment-workers/internal/common/logger"
	"recruitment-workers/internal/compliance"
	"recruitment-workers/internal/models"
	"recruitment-workers/internal/tasks"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
)

var ErrNotificationSendFailed = errors.New("NOTIFICATION_SEND_FAILED")

// Define interfaces for mocking
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type NotifierOptions struct {
	EmailEnabled bool
	FromEmail    string
	Recipients   []string
	SMSEnabled   bool
	TopicARN     string
	SenderID     string
}

// Notifier delivers compliance alerts by email and critical system alerts
// to the operations SNS topic.
type Notifier struct {
	opts   NotifierOptions
	ses    SESService
	sns    SNSService
	logger logger.Logger
}

func NewNotifier(sesClient SESService, snsClient SNSService, opts NotifierOptions, log logger.Logger) *Notifier {
	return &Notifier{
		opts:   opts,
		ses:    sesClient,
		sns:    snsClient,
		logger: log.WithFields(map[string]interface{}{"component": "notifier"}),
	}
}

// NewNotifierFromConfig builds SES and SNS clients from the default AWS
// credential chain.
func NewNotifierFromConfig(ctx context.Context, cfg config.NotificationConfig, log logger.Logger) (*Notifier, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return NewNotifier(ses.NewFromConfig(awsCfg), sns.NewFromConfig(awsCfg), NotifierOptions{
		EmailEnabled: cfg.Enabled && cfg.Email.Enabled,
		FromEmail:    cfg.Email.FromEmail,
		Recipients:   cfg.Email.Recipients,
		SMSEnabled:   cfg.Enabled && cfg.SMS.Enabled,
		TopicARN:     cfg.SMS.TopicARN,
		SenderID:     cfg.SMS.SenderID,
	}, log), nil
}

// Enabled reports whether any channel is configured.
func (n *Notifier) Enabled() bool {
	if n == nil {
		return false
	}
	return n.opts.EmailEnabled || n.opts.SMSEnabled
}

// SendComplianceAlert emails one alert to the configured recipients.
// CRITICAL alerts are also published to SNS.
func (n *Notifier) SendComplianceAlert(ctx context.Context, alert compliance.ComplianceAlert) error {
	if n.opts.EmailEnabled && len(n.opts.Recipients) > 0 {
		body := alert.Message
		if alert.Remedy != "" {
			body += "\n\nRemedy: " + alert.Remedy
		}
		if alert.Link != "" {
			body += "\nCandidate: " + alert.Link
		}
		if err := n.sendEmail(ctx, alert.Title, body); err != nil {
			return err
		}
	}
	if n.opts.SMSEnabled && alert.Severity == models.SeverityCritical {
		if err := n.publish(ctx, alert.Title, alert.Message); err != nil {
			return err
		}
	}
	return nil
}

// SendSystemAlert publishes critical system alerts to SNS and emails the rest.
func (n *Notifier) SendSystemAlert(ctx context.Context, alert tasks.SystemAlert) error {
	if alert.Type == tasks.AlertLevelCritical && n.opts.SMSEnabled {
		return n.publish(ctx, alert.Title, alert.Message)
	}
	if n.opts.EmailEnabled && len(n.opts.Recipients) > 0 {
		return n.sendEmail(ctx, alert.Title, alert.Message)
	}
	return nil
}

func (n *Notifier) sendEmail(ctx context.Context, subject, body string) error {
	_, err := n.ses.SendEmail(ctx, &ses.SendEmailInput{
		Source: aws.String(n.opts.FromEmail),
		Destination: &types.Destination{
			ToAddresses: n.opts.Recipients,
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body), Charset: aws.String("UTF-8")},
			},
		},
	})
	if err != nil {
		n.logger.Error("email send failed", map[string]interface{}{
			"error":   err,
			"subject": subject,
		})
		return fmt.Errorf("%w: ses: %v", ErrNotificationSendFailed, err)
	}
	return nil
}

func (n *Notifier) publish(ctx context.Context, subject, message string) error {
	input := &sns.PublishInput{
		TopicArn: aws.String(n.opts.TopicARN),
		Subject:  aws.String(truncate(subject, 100)),
		Message:  aws.String(message),
	}
	if n.opts.SenderID != "" {
		input.MessageAttributes = map[string]snstypes.MessageAttributeValue{
			"AWS.SNS.SMS.SenderID": {DataType: aws.String("String"), StringValue: aws.String(n.opts.SenderID)},
		}
	}
	if _, err := n.sns.Publish(ctx, input); err != nil {
		n.logger.Error("sns publish failed", map[string]interface{}{
			"error":   err,
			"subject": subject,
		})
		return fmt.Errorf("%w: sns: %v", ErrNotificationSendFailed, err)
	}
	return nil
}

// SNS rejects subjects over 100 characters.
func truncate(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= max {
		return s
	}
	return s[:max]
}
