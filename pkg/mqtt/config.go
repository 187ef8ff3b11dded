package mqtt

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

const (
	DefaultKeepAlive      uint16 = 60
	DefaultConnectTimeout        = 5 * time.Second
	DefaultReconnectDelay        = 3 * time.Second
)

// ClientConfig configures a Client.
type ClientConfig struct {
	BrokerURL string
	ClientID  string
	Username  string
	Password  string

	// KeepAlive in seconds.
	KeepAlive      uint16
	ConnectTimeout time.Duration
	ReconnectDelay time.Duration

	// SessionExpiry in seconds. 0 ends the session with the connection.
	SessionExpiry uint32
	CleanStart    bool

	InsecureSkipVerify bool

	// The broker publishes the will when the node drops off without a
	// clean disconnect.
	WillTopic   string
	WillPayload []byte
	WillQoS     byte
	WillRetain  bool
}

func setDefaultConfig(cfg *ClientConfig) {
	if cfg.KeepAlive == 0 {
		cfg.KeepAlive = DefaultKeepAlive
	}
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = DefaultConnectTimeout
	}
	if cfg.ReconnectDelay == 0 {
		cfg.ReconnectDelay = DefaultReconnectDelay
	}
}

func (c *ClientConfig) Validate() error {
	if c.BrokerURL == "" {
		return errors.New("broker url is required")
	}
	u, err := url.Parse(c.BrokerURL)
	if err != nil {
		return err
	}
	if u.Host == "" {
		return fmt.Errorf("broker url %q has no host", c.BrokerURL)
	}
	if c.WillQoS > 2 {
		return fmt.Errorf("will qos must be 0, 1 or 2, got %d", c.WillQoS)
	}
	return nil
}
