// Package notify fans committed onboarding results out to subscribers.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	awsclient "merchant-onboarding/internal/common/aws"
	"merchant-onboarding/internal/common/logger"
	"merchant-onboarding/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

const EventOnboardingCommitted = "onboarding.committed"

// CommittedEvent is published once per committed assessment.
type CommittedEvent struct {
	Event         string               `json:"event"`
	AssessmentKey models.AssessmentKey `json:"assessmentKey"`
	TxHandle      models.TxHandle      `json:"txHandle"`
	CreditScore   int                  `json:"creditScore"`
	Timestamp     time.Time            `json:"timestamp"`
}

func NewCommittedEvent(result models.OnboardingResult) CommittedEvent {
	return CommittedEvent{
		Event:         EventOnboardingCommitted,
		AssessmentKey: result.AssessmentKey,
		TxHandle:      result.CommitHandle,
		CreditScore:   result.RiskAssessment.CreditRisk.CreditScore,
		Timestamp:     result.Timestamp,
	}
}

type Publisher interface {
	PublishCommitted(ctx context.Context, result models.OnboardingResult) error
}

type SNSPublisher struct {
	client   awsclient.PublishAPI
	topicARN string
	logger   logger.Logger
}

func NewSNSPublisher(client awsclient.PublishAPI, topicARN string, log logger.Logger) *SNSPublisher {
	return &SNSPublisher{
		client:   client,
		topicARN: topicARN,
		logger:   log.WithFields(map[string]interface{}{"component": "sns-publisher", "topicArn": topicARN}),
	}
}

func (p *SNSPublisher) PublishCommitted(ctx context.Context, result models.OnboardingResult) error {
	body, err := json.Marshal(NewCommittedEvent(result))
	if err != nil {
		return fmt.Errorf("encode committed event: %w", err)
	}

	out, err := p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Message:  aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"eventType": {DataType: aws.String("String"), StringValue: aws.String(EventOnboardingCommitted)},
		},
	})
	if err != nil {
		return fmt.Errorf("publish %s for %s: %w", EventOnboardingCommitted, result.AssessmentKey, err)
	}

	p.logger.Debug("committed event published", map[string]interface{}{
		"assessmentKey": result.AssessmentKey.String(),
		"messageId":     aws.ToString(out.MessageId),
	})
	return nil
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) PublishCommitted(context.Context, models.OnboardingResult) error { return nil }
