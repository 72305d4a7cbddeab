package eventbridge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"go.uber.org/zap"

	"learnboard/application/ports"
	"learnboard/domain/events"
)

// Source is the EventBridge source of every published event.
const Source = "learnboard.progress"

// maxEntriesPerCall is the PutEvents entry limit.
const maxEntriesPerCall = 10

// PutEventsAPI is the subset of the EventBridge client the publisher uses.
type PutEventsAPI interface {
	PutEvents(ctx context.Context, params *eventbridge.PutEventsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error)
}

// Publisher implements ports.EventPublisher on an EventBridge bus.
type Publisher struct {
	client       PutEventsAPI
	eventBusName string
	logger       *zap.Logger
}

var _ ports.EventPublisher = (*Publisher)(nil)

// NewPublisher creates a new EventBridge publisher
func NewPublisher(client PutEventsAPI, eventBusName string, logger *zap.Logger) *Publisher {
	return &Publisher{
		client:       client,
		eventBusName: eventBusName,
		logger:       logger,
	}
}

// Publish sends a single event to EventBridge
func (p *Publisher) Publish(ctx context.Context, event events.DomainEvent) error {
	return p.PublishBatch(ctx, []events.DomainEvent{event})
}

// PublishBatch sends events in chunks of maxEntriesPerCall. The first failing
// chunk stops the batch.
func (p *Publisher) PublishBatch(ctx context.Context, domainEvents []events.DomainEvent) error {
	for i := 0; i < len(domainEvents); i += maxEntriesPerCall {
		end := min(i+maxEntriesPerCall, len(domainEvents))
		if err := p.publishChunk(ctx, domainEvents[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (p *Publisher) publishChunk(ctx context.Context, chunk []events.DomainEvent) error {
	entries := make([]types.PutEventsRequestEntry, 0, len(chunk))
	for _, event := range chunk {
		detail, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("failed to marshal %s event: %w", event.GetEventType(), err)
		}
		entries = append(entries, types.PutEventsRequestEntry{
			EventBusName: aws.String(p.eventBusName),
			Source:       aws.String(Source),
			DetailType:   aws.String(event.GetEventType()),
			Detail:       aws.String(string(detail)),
			Time:         aws.Time(event.GetTimestamp()),
		})
	}

	out, err := p.client.PutEvents(ctx, &eventbridge.PutEventsInput{Entries: entries})
	if err != nil {
		return fmt.Errorf("failed to publish events to EventBridge: %w", err)
	}

	if out.FailedEntryCount > 0 {
		for i, entry := range out.Entries {
			if entry.ErrorCode != nil && i < len(chunk) {
				p.logger.Error("Failed to publish event",
					zap.String("eventType", chunk[i].GetEventType()),
					zap.String("aggregateID", chunk[i].GetAggregateID()),
					zap.String("errorCode", aws.ToString(entry.ErrorCode)),
					zap.String("errorMessage", aws.ToString(entry.ErrorMessage)),
				)
			}
		}
		return fmt.Errorf("%d events failed to publish", out.FailedEntryCount)
	}

	p.logger.Debug("Events published to EventBridge",
		zap.Int("count", len(entries)),
		zap.String("eventBus", p.eventBusName),
	)
	return nil
}

// NoopPublisher drops events. It is used when events are disabled.
type NoopPublisher struct {
	logger *zap.Logger
}

var _ ports.EventPublisher = (*NoopPublisher)(nil)

// NewNoopPublisher creates a publisher that only logs.
func NewNoopPublisher(logger *zap.Logger) *NoopPublisher {
	return &NoopPublisher{logger: logger}
}

func (p *NoopPublisher) Publish(_ context.Context, event events.DomainEvent) error {
	p.logger.Debug("Event dropped, publishing disabled",
		zap.String("eventType", event.GetEventType()),
		zap.String("aggregateID", event.GetAggregateID()),
	)
	return nil
}

func (p *NoopPublisher) PublishBatch(ctx context.Context, domainEvents []events.DomainEvent) error {
	for _, e := range domainEvents {
		_ = p.Publish(ctx, e)
	}
	return nil
}
