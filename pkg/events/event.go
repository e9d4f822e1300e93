package events

import "time"

// Event defines the contract for all client events.
type Event interface {
	// EventType returns the unique code for this event, used as the topic.
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// TopicSessionChanged is published after every committed session transition.
const TopicSessionChanged = "session.changed"

// NewSessionChanged describes a committed transition. The payload carries
// a summary only; subscribers read the full state from the session store.
func NewSessionChanged(reason string, summary map[string]interface{}) Event {
	data := map[string]interface{}{"reason": reason}
	for k, v := range summary {
		data[k] = v
	}
	return BaseEvent{
		Type:       TopicSessionChanged,
		Data:       data,
		OccurredAt: time.Now(),
	}
}
