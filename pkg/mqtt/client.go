package mqtt

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"

	"github.com/eclipse/paho.golang/autopaho"
	"github.com/eclipse/paho.golang/paho"

	"github.com/autopeer-io/uvm/pkg/log"
	"github.com/autopeer-io/uvm/pkg/mqtt/topic"
)

type subscription struct {
	filter  string
	qos     byte
	handler MessageHandler
}

type pahoClient struct {
	cfg    *ClientConfig
	logger log.Logger

	cm        *autopaho.ConnectionManager
	connected atomic.Bool

	mu sync.RWMutex
	// subs keeps registration order so overlapping filters dispatch predictably.
	subs []subscription
}

// NewClient returns a Client for cfg. Missing timeouts are defaulted in place.
func NewClient(cfg *ClientConfig) (Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("mqtt config is required")
	}
	setDefaultConfig(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid mqtt config: %w", err)
	}

	return &pahoClient{
		cfg:    cfg,
		logger: log.WithName("mqtt").WithValues("clientID", cfg.ClientID),
	}, nil
}

func (c *pahoClient) connectionConfig() autopaho.ClientConfig {
	brokerURL, _ := url.Parse(c.cfg.BrokerURL)

	return autopaho.ClientConfig{
		ServerUrls:                    []*url.URL{brokerURL},
		KeepAlive:                     c.cfg.KeepAlive,
		CleanStartOnInitialConnection: c.cfg.CleanStart,
		SessionExpiryInterval:         c.cfg.SessionExpiry,
		ReconnectBackoff:              autopaho.NewConstantBackoff(c.cfg.ReconnectDelay),
		ConnectTimeout:                c.cfg.ConnectTimeout,
		ConnectUsername:               c.cfg.Username,
		ConnectPassword:               []byte(c.cfg.Password),
		TlsCfg:                        &tls.Config{InsecureSkipVerify: c.cfg.InsecureSkipVerify},
		WillMessage:                   c.willMessage(),
		OnConnectionUp:                c.onConnectionUp,
		OnConnectError:                c.onConnectError,
		ClientConfig: paho.ClientConfig{
			ClientID:           c.cfg.ClientID,
			OnClientError:      func(err error) { c.logger.Error(err, "MQTT client error") },
			OnServerDisconnect: c.onServerDisconnect,
			OnPublishReceived:  []func(paho.PublishReceived) (bool, error){c.dispatch},
		},
	}
}

func (c *pahoClient) Start(ctx context.Context) error {
	c.logger.Info("Connecting to MQTT broker", "broker", c.cfg.BrokerURL)

	cm, err := autopaho.NewConnection(ctx, c.connectionConfig())
	if err != nil {
		return fmt.Errorf("failed to start mqtt connection: %w", err)
	}
	c.cm = cm
	return nil
}

func (c *pahoClient) Disconnect(ctx context.Context) {
	if c.cm == nil {
		return
	}
	if err := c.cm.Disconnect(ctx); err != nil {
		c.logger.Warn("MQTT disconnect was not clean", "err", err)
	}
	c.connected.Store(false)
	c.logger.Info("Disconnected from MQTT broker")
}

func (c *pahoClient) Publish(ctx context.Context, topicName string, qos int, retain bool, payload []byte) error {
	if c.cm == nil {
		return ErrNotStarted
	}
	_, err := c.cm.Publish(ctx, &paho.Publish{
		Topic:   topicName,
		QoS:     byte(qos),
		Retain:  retain,
		Payload: payload,
	})
	return err
}

// Subscribe records the handler first, so a reconnect that races the
// SUBSCRIBE packet still restores it.
func (c *pahoClient) Subscribe(ctx context.Context, filter string, qos int, handler MessageHandler) error {
	if c.cm == nil {
		return ErrNotStarted
	}

	c.mu.Lock()
	c.subs = append(removeFilter(c.subs, filter), subscription{filter: filter, qos: byte(qos), handler: handler})
	c.mu.Unlock()

	if _, err := c.cm.Subscribe(ctx, &paho.Subscribe{
		Subscriptions: []paho.SubscribeOptions{{Topic: filter, QoS: byte(qos)}},
	}); err != nil {
		return fmt.Errorf("failed to subscribe to %q: %w", filter, err)
	}
	c.logger.Debug("Subscribed", "topic", filter)
	return nil
}

func (c *pahoClient) Unsubscribe(ctx context.Context, filter string) error {
	if c.cm == nil {
		return ErrNotStarted
	}

	c.mu.Lock()
	c.subs = removeFilter(c.subs, filter)
	c.mu.Unlock()

	_, err := c.cm.Unsubscribe(ctx, &paho.Unsubscribe{Topics: []string{filter}})
	return err
}

func (c *pahoClient) AwaitConnection(ctx context.Context) error {
	if c.cm == nil {
		return ErrNotStarted
	}
	return c.cm.AwaitConnection(ctx)
}

func (c *pahoClient) IsConnected() bool { return c.connected.Load() }

// onConnectionUp restores every subscription in a single SUBSCRIBE.
func (c *pahoClient) onConnectionUp(cm *autopaho.ConnectionManager, _ *paho.Connack) {
	c.connected.Store(true)
	c.logger.Info("Connected to MQTT broker")

	c.mu.RLock()
	opts := make([]paho.SubscribeOptions, 0, len(c.subs))
	for _, s := range c.subs {
		opts = append(opts, paho.SubscribeOptions{Topic: s.filter, QoS: s.qos})
	}
	c.mu.RUnlock()

	if len(opts) == 0 {
		return
	}
	if _, err := cm.Subscribe(context.Background(), &paho.Subscribe{Subscriptions: opts}); err != nil {
		c.logger.Error(err, "Failed to restore subscriptions", "count", len(opts))
	}
}

func (c *pahoClient) onConnectError(err error) {
	c.connected.Store(false)
	c.logger.Error(err, "MQTT connection failed, retrying", "in", c.cfg.ReconnectDelay)
}

func (c *pahoClient) onServerDisconnect(d *paho.Disconnect) {
	c.connected.Store(false)
	reason := ""
	if d.Properties != nil {
		reason = d.Properties.ReasonString
	}
	c.logger.Warn("MQTT broker closed the session", "reasonCode", d.ReasonCode, "reason", reason)
}

// dispatch calls every handler whose filter matches, inline, so messages on
// one topic are handled in order. Every message is acknowledged.
func (c *pahoClient) dispatch(p paho.PublishReceived) (bool, error) {
	c.mu.RLock()
	var handlers []MessageHandler
	for _, s := range c.subs {
		if topic.Match(s.filter, p.Packet.Topic) {
			handlers = append(handlers, s.handler)
		}
	}
	c.mu.RUnlock()

	if len(handlers) == 0 {
		c.logger.Debug("Dropping message on unhandled topic", "topic", p.Packet.Topic)
	}
	for _, h := range handlers {
		h(context.Background(), p.Packet.Topic, p.Packet.Payload)
	}
	return true, nil
}

func (c *pahoClient) willMessage() *paho.WillMessage {
	if c.cfg.WillTopic == "" {
		return nil
	}
	return &paho.WillMessage{
		Topic:   c.cfg.WillTopic,
		Payload: c.cfg.WillPayload,
		QoS:     c.cfg.WillQoS,
		Retain:  c.cfg.WillRetain,
	}
}

func removeFilter(subs []subscription, filter string) []subscription {
	out := subs[:0]
	for _, s := range subs {
		if s.filter != filter {
			out = append(out, s)
		}
	}
	return out
}
