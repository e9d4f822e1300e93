package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ai-ragchat-client/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IPublisher interface {
	Publish(evt Event) error
}

// Envelope is the wire form of an Event on the bus.
type Envelope struct {
	Type       string                 `json:"type"`
	Payload    map[string]interface{} `json:"payload"`
	OccurredAt time.Time              `json:"occurred_at"`
}

// Bus is an in-process pub/sub over a watermill GoChannel. Publish blocks
// until every subscriber has acked, so a subscriber that renders on each
// event has finished before the publishing operation returns.
type Bus struct {
	pubSub *gochannel.GoChannel
}

var _ IPublisher = (*Bus)(nil)

func NewBus(log logger.ILogger) *Bus {
	return &Bus{
		pubSub: gochannel.NewGoChannel(
			gochannel.Config{BlockPublishUntilSubscriberAck: true},
			NewWatermillLogger(log),
		),
	}
}

func (b *Bus) Publish(evt Event) error {
	payload, err := json.Marshal(Envelope{
		Type:       evt.EventType(),
		Payload:    evt.Payload(),
		OccurredAt: evt.Timestamp(),
	})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	return b.pubSub.Publish(evt.EventType(), msg)
}

// Subscribe calls handle for every event on topic until ctx is done or the
// bus is closed. Messages are acked after handle returns, even when it fails,
// so a broken subscriber never stalls publishers.
func (b *Bus) Subscribe(ctx context.Context, topic string, handle func(Envelope) error) error {
	messages, err := b.pubSub.Subscribe(ctx, topic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			var envelope Envelope
			if err := json.Unmarshal(msg.Payload, &envelope); err == nil {
				_ = handle(envelope)
			}
			msg.Ack()
		}
	}()

	return nil
}

func (b *Bus) Close() error {
	return b.pubSub.Close()
}
