// internal/common/aws/sns.go
package aws

import (
	"context"
	"fmt"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

type SNSAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type SNSClient struct {
	api SNSAPI
}

func NewSNSClient(cfg sdkaws.Config) *SNSClient {
	return NewSNSClientWithAPI(sns.NewFromConfig(cfg))
}

func NewSNSClientWithAPI(api SNSAPI) *SNSClient {
	return &SNSClient{api: api}
}

// SendSMS publishes a transactional text message and returns the SNS message id.
func (s *SNSClient) SendSMS(ctx context.Context, phoneNumber, message string) (string, error) {
	if phoneNumber == "" {
		return "", fmt.Errorf("phone number is required")
	}

	out, err := s.api.Publish(ctx, &sns.PublishInput{
		PhoneNumber: sdkaws.String(phoneNumber),
		Message:     sdkaws.String(message),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"AWS.SNS.SMS.SMSType": {
				DataType:    sdkaws.String("String"),
				StringValue: sdkaws.String("Transactional"),
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("sns publish: %w", err)
	}
	return sdkaws.ToString(out.MessageId), nil
}
