// internal/common/aws/ses.go
package aws

import (
	"context"
	"fmt"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// SESAPI is the part of *ses.Client the sender uses.
type SESAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type Email struct {
	To       string
	Subject  string
	HTMLBody string
	TextBody string
}

type SESClient struct {
	api  SESAPI
	from string
}

func NewSESClient(cfg sdkaws.Config, from string) *SESClient {
	return NewSESClientWithAPI(ses.NewFromConfig(cfg), from)
}

func NewSESClientWithAPI(api SESAPI, from string) *SESClient {
	return &SESClient{api: api, from: from}
}

// SendEmail delivers one message and returns the SES message id.
func (s *SESClient) SendEmail(ctx context.Context, email Email) (string, error) {
	if email.To == "" {
		return "", fmt.Errorf("email recipient is required")
	}

	body := &types.Body{}
	if email.HTMLBody != "" {
		body.Html = &types.Content{Data: sdkaws.String(email.HTMLBody), Charset: sdkaws.String("UTF-8")}
	}
	if email.TextBody != "" {
		body.Text = &types.Content{Data: sdkaws.String(email.TextBody), Charset: sdkaws.String("UTF-8")}
	}

	out, err := s.api.SendEmail(ctx, &ses.SendEmailInput{
		Source:      sdkaws.String(s.from),
		Destination: &types.Destination{ToAddresses: []string{email.To}},
		Message: &types.Message{
			Subject: &types.Content{Data: sdkaws.String(email.Subject), Charset: sdkaws.String("UTF-8")},
			Body:    body,
		},
	})
	if err != nil {
		return "", fmt.Errorf("ses send to %s: %w", email.To, err)
	}
	return sdkaws.ToString(out.MessageId), nil
}
