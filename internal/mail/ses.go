package mail

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/aws/smithy-go"

	"github.com/ignite/sales-automator/internal/pkg/logger"
)

// SESTransport delivers through the AWS SES v2 API.
type SESTransport struct {
	client  *sesv2.Client
	timeout time.Duration
	log     *logger.Logger
}

// NewSESTransport builds an SES client from static credentials. Both halves
// of the key pair must be present; a partial pair is a configuration error
// so the operator finds out at boot, not on the first send.
func NewSESTransport(region, accessKey, secretKey string, timeout time.Duration, log *logger.Logger) (*SESTransport, error) {
	if accessKey == "" || secretKey == "" {
		return nil, NewSendError("ses", KindConfiguration,
			errors.New("AWS credentials are not configured"))
	}

	cfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		),
	)
	if err != nil {
		return nil, NewSendError("ses", KindConfiguration, fmt.Errorf("load aws config: %w", err))
	}

	return &SESTransport{
		client:  sesv2.NewFromConfig(cfg),
		timeout: timeout,
		log:     log,
	}, nil
}

func (t *SESTransport) Name() string { return "ses" }

// Send delivers msg through the SES API.
func (t *SESTransport) Send(ctx context.Context, msg *Message) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	from := msg.FromEmail
	if msg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", msg.FromName, msg.FromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(from),
		Destination: &types.Destination{
			ToAddresses: []string{msg.To},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(msg.Subject)},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(msg.HTML)},
				},
			},
		},
	}

	out, err := t.client.SendEmail(ctx, input)
	if err != nil {
		return nil, NewSendError("ses", classifySES(err), err)
	}

	messageID := ""
	if out.MessageId != nil {
		messageID = *out.MessageId
	}
	t.log.Info("email sent via ses", map[string]interface{}{
		"to":         msg.To,
		"message_id": messageID,
	})
	return &Result{MessageID: messageID, Transport: "ses"}, nil
}

// classifySES maps SES API errors onto the shared taxonomy.
func classifySES(err error) ErrorKind {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "SignatureDoesNotMatch", "InvalidClientTokenId", "UnrecognizedClientException",
			"AccessDeniedException", "InvalidSignatureException":
			return KindAuthentication
		case "MessageRejected", "MailFromDomainNotVerifiedException", "AccountSuspendedException":
			return KindRejected
		case "TooManyRequestsException", "SendingPausedException", "LimitExceededException":
			return KindTransient
		}
		return KindUnknown
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTransient
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTransient
	}
	return KindUnknown
}
