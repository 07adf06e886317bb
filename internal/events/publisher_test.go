package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expotoworld/expotoworld/backend/catalog-admin-service/internal/models"
)

type fakeSNS struct {
	inputs []*sns.PublishInput
	err    error
}

func (f *fakeSNS) Publish(_ context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.inputs = append(f.inputs, in)
	return &sns.PublishOutput{MessageId: aws.String("msg-1")}, nil
}

func TestNotifyDeleted(t *testing.T) {
	fake := &fakeSNS{}
	p := NewPublisherWithClient(fake, "arn:aws:sns:eu-central-1:123:catalog-events")
	p.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	err := p.NotifyDeleted(context.Background(), "op-1", models.Scope{
		Root:       models.Ref{Type: models.EntityCategory, ID: 3},
		ProductIDs: []int{7},
		BrandIDs:   []int{2},
	})
	require.NoError(t, err)
	require.Len(t, fake.inputs, 1)

	in := fake.inputs[0]
	assert.Equal(t, "arn:aws:sns:eu-central-1:123:catalog-events", aws.ToString(in.TopicArn))
	assert.Equal(t, "category", aws.ToString(in.MessageAttributes["entity_type"].StringValue))
	assert.Equal(t, EventCatalogEntityDeleted, aws.ToString(in.MessageAttributes["event_type"].StringValue))

	var ev DeletionEvent
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(in.Message)), &ev))
	assert.Equal(t, "op-1", ev.OpID)
	assert.Equal(t, models.EntityCategory, ev.EntityType)
	assert.Equal(t, 3, ev.EntityID)
	assert.Equal(t, []int{7}, ev.ProductIDs)
	assert.Equal(t, []int{}, ev.VariantIDs)
	assert.Equal(t, []int{2}, ev.BrandIDs)
}

func TestNotifyDeleted_PublishError(t *testing.T) {
	p := NewPublisherWithClient(&fakeSNS{err: errors.New("throttled")}, "arn")
	err := p.NotifyDeleted(context.Background(), "op", models.Scope{Root: models.Ref{Type: models.EntityBrand, ID: 1}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "brand#1")
}
