package eventstream

import "context"

// Publisher publishes gate events to an event stream backend.
type Publisher interface {
	PublishGateEvent(ctx context.Context, event *GateEvent) error
	Close() error
}
