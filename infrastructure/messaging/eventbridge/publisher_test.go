package eventbridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"learnboard/domain/events"
)

type MockEventBridge struct {
	mock.Mock
}

func (m *MockEventBridge) PutEvents(ctx context.Context, in *eventbridge.PutEventsInput, _ ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*eventbridge.PutEventsOutput)
	return out, args.Error(1)
}

func submitted(i int) events.DomainEvent {
	best := float64(i)
	return events.NewProgressSubmitted(fmt.Sprintf("u%d", i), "e1", "l1", "completed", &best, &best, 1, time.Unix(1700000000, 0).UTC())
}

func TestPublish_BuildsEntry(t *testing.T) {
	client := new(MockEventBridge)
	client.On("PutEvents", mock.Anything, mock.MatchedBy(func(in *eventbridge.PutEventsInput) bool {
		if len(in.Entries) != 1 {
			return false
		}
		e := in.Entries[0]
		var detail map[string]interface{}
		if err := json.Unmarshal([]byte(aws.ToString(e.Detail)), &detail); err != nil {
			return false
		}
		return aws.ToString(e.EventBusName) == "bus" &&
			aws.ToString(e.Source) == Source &&
			aws.ToString(e.DetailType) == events.EventTypeProgressSubmitted &&
			detail["user_id"] == "u3"
	})).Return(&eventbridge.PutEventsOutput{}, nil).Once()

	p := NewPublisher(client, "bus", zap.NewNop())

	require.NoError(t, p.Publish(context.Background(), submitted(3)))
	client.AssertExpectations(t)
}

func TestPublishBatch_ChunksByTen(t *testing.T) {
	client := new(MockEventBridge)
	client.On("PutEvents", mock.Anything, mock.MatchedBy(func(in *eventbridge.PutEventsInput) bool {
		return len(in.Entries) == 10
	})).Return(&eventbridge.PutEventsOutput{}, nil).Twice()
	client.On("PutEvents", mock.Anything, mock.MatchedBy(func(in *eventbridge.PutEventsInput) bool {
		return len(in.Entries) == 3
	})).Return(&eventbridge.PutEventsOutput{}, nil).Once()

	batch := make([]events.DomainEvent, 23)
	for i := range batch {
		batch[i] = submitted(i)
	}

	require.NoError(t, NewPublisher(client, "bus", zap.NewNop()).PublishBatch(context.Background(), batch))
	client.AssertNumberOfCalls(t, "PutEvents", 3)
}

func TestPublish_FailedEntries(t *testing.T) {
	client := new(MockEventBridge)
	client.On("PutEvents", mock.Anything, mock.Anything).Return(&eventbridge.PutEventsOutput{
		FailedEntryCount: 1,
		Entries:          []types.PutEventsResultEntry{{ErrorCode: aws.String("InternalFailure")}},
	}, nil)

	err := NewPublisher(client, "bus", zap.NewNop()).Publish(context.Background(), submitted(1))

	assert.ErrorContains(t, err, "1 events failed")
}

func TestPublish_ClientError(t *testing.T) {
	client := new(MockEventBridge)
	boom := errors.New("throttled")
	client.On("PutEvents", mock.Anything, mock.Anything).Return(nil, boom)

	err := NewPublisher(client, "bus", zap.NewNop()).Publish(context.Background(), submitted(1))

	assert.ErrorIs(t, err, boom)
}

func TestNoopPublisher(t *testing.T) {
	p := NewNoopPublisher(zap.NewNop())
	assert.NoError(t, p.Publish(context.Background(), submitted(1)))
	assert.NoError(t, p.PublishBatch(context.Background(), []events.DomainEvent{submitted(2)}))
}
