package nop

import (
	"context"

	"github.com/keelhq/warden/pkg/eventstream"
)

// Publisher is a no-op eventstream publisher used for tests and disabled mode.
type Publisher struct{}

// NewPublisher creates a new no-op eventstream publisher.
func NewPublisher() *Publisher {
	return &Publisher{}
}

// PublishGateEvent validates input and otherwise does nothing.
func (p *Publisher) PublishGateEvent(_ context.Context, event *eventstream.GateEvent) error {
	if event == nil {
		return eventstream.ErrNilGateEvent
	}

	return nil
}

// Close is a no-op.
func (p *Publisher) Close() error {
	return nil
}
