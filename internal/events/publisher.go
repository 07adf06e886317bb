// Package events announces committed catalog deletions on an SNS topic so
// other services can drop their own copies of the removed rows.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"

	"github.com/expotoworld/expotoworld/backend/catalog-admin-service/internal/logging"
	"github.com/expotoworld/expotoworld/backend/catalog-admin-service/internal/models"
)

// EventCatalogEntityDeleted is the event_type attribute of every message.
const EventCatalogEntityDeleted = "catalog.entity.deleted"

// PublishAPI is the part of the SNS client used here.
type PublishAPI interface {
	Publish(ctx context.Context, in *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// DeletionEvent is the JSON body of a published message.
type DeletionEvent struct {
	OpID       string            `json:"op_id"`
	EntityType models.EntityType `json:"entity_type"`
	EntityID   int               `json:"entity_id"`
	ProductIDs []int             `json:"product_ids"`
	VariantIDs []int             `json:"variant_ids"`
	BrandIDs   []int             `json:"brand_ids"`
	DeletedAt  time.Time         `json:"deleted_at"`
}

// Publisher sends deletion events to one topic.
type Publisher struct {
	client   PublishAPI
	topicARN string
	now      func() time.Time
}

// NewPublisher creates a publisher using cfg.
func NewPublisher(cfg aws.Config, topicARN string) *Publisher {
	return NewPublisherWithClient(sns.NewFromConfig(cfg), topicARN)
}

// NewPublisherWithClient wraps an existing client.
func NewPublisherWithClient(client PublishAPI, topicARN string) *Publisher {
	return &Publisher{client: client, topicARN: topicARN, now: time.Now}
}

// NotifyDeleted publishes one event for a committed deletion.
func (p *Publisher) NotifyDeleted(ctx context.Context, opID string, scope models.Scope) error {
	ev := DeletionEvent{
		OpID:       opID,
		EntityType: scope.Root.Type,
		EntityID:   scope.Root.ID,
		ProductIDs: nonNil(scope.ProductIDs),
		VariantIDs: nonNil(scope.VariantIDs),
		BrandIDs:   nonNil(scope.BrandIDs),
		DeletedAt:  p.now().UTC(),
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode deletion event: %w", err)
	}

	out, err := p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Message:  aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"event_type": {
				DataType:    aws.String("String"),
				StringValue: aws.String(EventCatalogEntityDeleted),
			},
			"entity_type": {
				DataType:    aws.String("String"),
				StringValue: aws.String(string(scope.Root.Type)),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to publish deletion of %s: %w", scope.Root, err)
	}

	logging.LogKV(logging.LevelInfo, "deletion event published", logging.Fields{
		"op_id":      opID,
		"root":       scope.Root.String(),
		"message_id": aws.ToString(out.MessageId),
	})
	return nil
}

func nonNil(ids []int) []int {
	if ids == nil {
		return []int{}
	}
	return ids
}
