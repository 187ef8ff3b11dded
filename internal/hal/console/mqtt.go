package console

import (
	"context"
	"fmt"
	"strings"
	"time"

	"k8s.io/utils/clock"

	"github.com/autopeer-io/uvm/internal/hal"
	"github.com/autopeer-io/uvm/pkg/log"
	"github.com/autopeer-io/uvm/pkg/mqtt"
	"github.com/autopeer-io/uvm/pkg/mqtt/topic"
)

// lineQueueSize bounds the input lines buffered between reads.
const lineQueueSize = 16

var _ hal.Console = (*MQTT)(nil)

// MQTT is a remote console. Output is published to the node's console/out
// topic and every message on console/in is one input line.
type MQTT struct {
	ctx    context.Context
	client mqtt.Client
	clock  clock.Clock
	nodeID string

	outTopic string
	inTopic  string
	qos      int
	wait     time.Duration

	lines chan string
}

// MQTTOption configures an MQTT console.
type MQTTOption func(*MQTT)

// WithMQTTWait makes ReadLine give up when no line arrives within d. Zero
// waits until the console's context ends.
func WithMQTTWait(d time.Duration) MQTTOption {
	return func(m *MQTT) { m.wait = d }
}

// WithMQTTClock replaces the clock used for the read deadline.
func WithMQTTClock(c clock.Clock) MQTTOption {
	return func(m *MQTT) { m.clock = c }
}

// WithQoS sets the QoS used for publishing and subscribing.
func WithQoS(qos int) MQTTOption {
	return func(m *MQTT) { m.qos = qos }
}

// NewMQTT subscribes to the node's input topic and returns the console. The
// client must already be started.
func NewMQTT(ctx context.Context, client mqtt.Client, topics *topic.Builder, nodeID string, opts ...MQTTOption) (*MQTT, error) {
	m := &MQTT{
		ctx:      ctx,
		client:   client,
		clock:    clock.RealClock{},
		nodeID:   nodeID,
		outTopic: topics.ConsoleOut(nodeID),
		inTopic:  topics.ConsoleIn(nodeID),
		qos:      1,
		lines:    make(chan string, lineQueueSize),
	}
	for _, o := range opts {
		o(m)
	}

	if err := client.Subscribe(ctx, m.inTopic, m.qos, m.onLine); err != nil {
		return nil, fmt.Errorf("failed to subscribe to console input: %w", err)
	}
	return m, nil
}

func (m *MQTT) String() string { return "mqtt:" + m.nodeID }

func (m *MQTT) onLine(_ context.Context, _ string, payload []byte) {
	line := strings.TrimRight(string(payload), "\r\n")
	select {
	case m.lines <- line:
	default:
		log.Warn("Console input queue full, dropping line", "topic", m.inTopic)
	}
}

// WriteStr publishes text. Publish errors are logged and dropped.
func (m *MQTT) WriteStr(s string) {
	s = hal.TrimNUL(s)
	if s == "" {
		return
	}
	if err := m.client.Publish(m.ctx, m.outTopic, m.qos, false, []byte(s)); err != nil {
		log.Error(err, "Failed to publish console output", "topic", m.outTopic)
	}
}

// ReadLine copies the next queued line into buf, truncating it to fit.
func (m *MQTT) ReadLine(buf []byte) int {
	if len(buf) == 0 {
		return 0
	}

	var timeout <-chan time.Time
	if m.wait > 0 {
		timeout = m.clock.After(m.wait)
	}

	select {
	case line := <-m.lines:
		return hal.Terminate(buf, copy(buf[:len(buf)-1], line))
	case <-timeout:
	case <-m.ctx.Done():
	}
	return hal.Terminate(buf, 0)
}

// Close unsubscribes from the input topic.
func (m *MQTT) Close() error {
	return m.client.Unsubscribe(context.Background(), m.inTopic)
}
