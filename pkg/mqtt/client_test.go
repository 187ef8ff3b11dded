package mqtt

import (
	"context"
	"testing"

	"github.com/eclipse/paho.golang/paho"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientDefaults(t *testing.T) {
	_, err := NewClient(nil)
	require.Error(t, err)

	_, err = NewClient(&ClientConfig{})
	require.Error(t, err)

	_, err = NewClient(&ClientConfig{BrokerURL: "localhost"})
	require.Error(t, err)

	cfg := &ClientConfig{BrokerURL: "tcp://localhost:1883"}
	c, err := NewClient(cfg)
	require.NoError(t, err)
	assert.Equal(t, DefaultKeepAlive, cfg.KeepAlive)
	assert.Equal(t, DefaultConnectTimeout, cfg.ConnectTimeout)
	assert.Equal(t, DefaultReconnectDelay, cfg.ReconnectDelay)
	assert.False(t, c.IsConnected())
}

func TestValidateWillQoS(t *testing.T) {
	cfg := &ClientConfig{BrokerURL: "tcp://localhost:1883", WillQoS: 3}
	assert.Error(t, cfg.Validate())
}

func TestClientNotStarted(t *testing.T) {
	c, err := NewClient(&ClientConfig{BrokerURL: "tcp://localhost:1883"})
	require.NoError(t, err)

	ctx := context.Background()
	assert.ErrorIs(t, c.Publish(ctx, "t", 0, false, nil), ErrNotStarted)
	assert.ErrorIs(t, c.Subscribe(ctx, "t", 0, nil), ErrNotStarted)
	assert.ErrorIs(t, c.Unsubscribe(ctx, "t"), ErrNotStarted)
	assert.ErrorIs(t, c.AwaitConnection(ctx), ErrNotStarted)
}

func TestWillMessage(t *testing.T) {
	c := &pahoClient{cfg: &ClientConfig{}}
	assert.Nil(t, c.willMessage())

	c.cfg.WillTopic = "uvm/v1/status/n1"
	c.cfg.WillPayload = []byte("offline")
	c.cfg.WillRetain = true
	w := c.willMessage()
	require.NotNil(t, w)
	assert.Equal(t, "uvm/v1/status/n1", w.Topic)
	assert.True(t, w.Retain)
}

func TestDispatch(t *testing.T) {
	c, err := NewClient(&ClientConfig{BrokerURL: "tcp://localhost:1883"})
	require.NoError(t, err)
	pc := c.(*pahoClient)

	var got []string
	record := func(name string) MessageHandler {
		return func(_ context.Context, topic string, payload []byte) {
			got = append(got, name+":"+topic+":"+string(payload))
		}
	}
	pc.subs = []subscription{
		{filter: "uvm/v1/console/in/n1", handler: record("exact")},
		{filter: "uvm/v1/#", handler: record("all")},
		{filter: "uvm/v1/status/+", handler: record("status")},
	}

	ack, err := pc.dispatch(paho.PublishReceived{Packet: &paho.Publish{Topic: "uvm/v1/console/in/n1", Payload: []byte("go")}})
	require.NoError(t, err)
	assert.True(t, ack)
	assert.Equal(t, []string{"exact:uvm/v1/console/in/n1:go", "all:uvm/v1/console/in/n1:go"}, got)

	got = nil
	_, _ = pc.dispatch(paho.PublishReceived{Packet: &paho.Publish{Topic: "other/topic"}})
	assert.Empty(t, got)
}

func TestRemoveFilter(t *testing.T) {
	subs := []subscription{{filter: "a"}, {filter: "b"}, {filter: "a"}}
	out := removeFilter(subs, "a")
	require.Len(t, out, 1)
	assert.Equal(t, "b", out[0].filter)
}
