package notify

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/aws/smithy-go"
)

// SNS rejects subjects longer than this.
const maxSubjectLen = 100

// SNSAPI is the subset of *sns.Client used by SNSPublisher.
type SNSAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
	Subscribe(ctx context.Context, params *sns.SubscribeInput, optFns ...func(*sns.Options)) (*sns.SubscribeOutput, error)
}

// SNSPublisher publishes messages to a single SNS topic.
type SNSPublisher struct {
	client   SNSAPI
	topicARN string
}

func NewSNSPublisher(client SNSAPI, topicARN string) *SNSPublisher {
	return &SNSPublisher{client: client, topicARN: topicARN}
}

func (p *SNSPublisher) Publish(ctx context.Context, msg Message) error {
	input := &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Message:  aws.String(msg.Body),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"eligible_count": {
				DataType:    aws.String("Number"),
				StringValue: aws.String(strconv.Itoa(msg.EligibleCount)),
			},
		},
	}
	if subject := truncate(msg.Subject, maxSubjectLen); subject != "" {
		input.Subject = aws.String(subject)
	}

	if _, err := p.client.Publish(ctx, input); err != nil {
		return mapSNSError("publish", err)
	}
	return nil
}

// SubscribeEmail registers an email endpoint on the topic. SNS treats a
// repeated subscription of the same endpoint as a no-op, so this is safe to
// call on every startup. The returned ARN is "pending confirmation" until the
// recipient confirms.
func (p *SNSPublisher) SubscribeEmail(ctx context.Context, email string) (string, error) {
	out, err := p.client.Subscribe(ctx, &sns.SubscribeInput{
		TopicArn:              aws.String(p.topicARN),
		Protocol:              aws.String("email"),
		Endpoint:              aws.String(email),
		ReturnSubscriptionArn: true,
	})
	if err != nil {
		return "", mapSNSError("subscribe", err)
	}
	return aws.ToString(out.SubscriptionArn), nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// mapSNSError wraps SNS failures in ErrDispatch, keeping the API error code
// in the message.
func mapSNSError(op string, err error) error {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("%w: sns %s: %w", ErrDispatch, op, err)
	}
	return fmt.Errorf("%w: sns %s %s: %w", ErrDispatch, op, apiErr.ErrorCode(), err)
}

var _ Publisher = (*SNSPublisher)(nil)
