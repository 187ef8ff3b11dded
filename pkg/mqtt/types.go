package mqtt

import (
	"context"
	"errors"
)

// ErrNotStarted is returned by operations issued before Start.
var ErrNotStarted = errors.New("mqtt: client not started")

// MessageHandler is called, in arrival order, for every message on a subscribed topic.
type MessageHandler func(ctx context.Context, topic string, payload []byte)

// Client is the subset of an MQTT v5 session the remote console and the
// status publisher need.
type Client interface {
	// Start begins connecting in the background. Use AwaitConnection to wait.
	Start(ctx context.Context) error
	Disconnect(ctx context.Context)

	Publish(ctx context.Context, topic string, qos int, retain bool, payload []byte) error

	// Subscribe registers handler for filter. Subscriptions survive reconnects.
	Subscribe(ctx context.Context, filter string, qos int, handler MessageHandler) error
	Unsubscribe(ctx context.Context, filter string) error

	AwaitConnection(ctx context.Context) error
	IsConnected() bool
}
