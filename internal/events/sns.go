package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/rs/zerolog"
)

// snsAPI is the subset of the SNS client used here.
type snsAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSPublisher publishes events as JSON messages to an SNS topic. The event
// type is also set as a message attribute so subscribers can filter on it.
type SNSPublisher struct {
	client   snsAPI
	topicARN string
	logger   zerolog.Logger
}

// NewSNSPublisher loads the default AWS configuration for region and returns
// a publisher for topicARN.
func NewSNSPublisher(ctx context.Context, topicARN, region string, logger zerolog.Logger) (*SNSPublisher, error) {
	if topicARN == "" {
		return nil, fmt.Errorf("empty topic ARN")
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	return newSNSPublisher(sns.NewFromConfig(cfg), topicARN, logger), nil
}

func newSNSPublisher(client snsAPI, topicARN string, logger zerolog.Logger) *SNSPublisher {
	logger = logger.With().Str("component", "sns-events").Logger()
	logger.Info().Str("topic_arn", topicARN).Msg("SNS event publisher initialised")

	return &SNSPublisher{
		client:   client,
		topicARN: topicARN,
		logger:   logger,
	}
}

// Publish sends the event to the topic.
func (p *SNSPublisher) Publish(ctx context.Context, e Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	out, err := p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Message:  aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"event_type": {
				DataType:    aws.String("String"),
				StringValue: aws.String(string(e.Type)),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("sns publish failed for topic %s: %w", p.topicARN, err)
	}

	p.logger.Debug().
		Str("event_type", string(e.Type)).
		Str("order_id", e.OrderID.String()).
		Str("message_id", aws.ToString(out.MessageId)).
		Msg("event published")

	return nil
}
