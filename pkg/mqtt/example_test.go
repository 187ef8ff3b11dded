package mqtt_test

import (
	"context"
	"fmt"
	"time"

	"github.com/autopeer-io/uvm/pkg/log"
	"github.com/autopeer-io/uvm/pkg/mqtt"
	"github.com/autopeer-io/uvm/pkg/mqtt/topic"
)

// ExampleClient shows how a node attaches its console to a broker: it
// subscribes to its input topic and publishes output lines.
func ExampleClient() {
	// Values normally come from pkg/options.
	cfg := &mqtt.ClientConfig{
		BrokerURL:          "tcp://localhost:1883",
		ClientID:           "uvm-node-001",
		Username:           "admin",
		Password:           "public",
		KeepAlive:          60,
		ConnectTimeout:     5 * time.Second,
		InsecureSkipVerify: true,
		CleanStart:         true,
	}

	// No connection is made yet.
	client, err := mqtt.NewClient(cfg)
	if err != nil {
		log.Error(err, "Failed to create MQTT client")
		return
	}

	// Start returns immediately; connecting and reconnecting happen in the background.
	ctx := context.Background()
	if err := client.Start(ctx); err != nil {
		log.Error(err, "Failed to start MQTT client")
		return
	}

	topics := topic.NewBuilder("uvm/v1")

	// Subscriptions survive reconnects.
	onLine := func(ctx context.Context, topic string, payload []byte) {
		fmt.Printf("got input on %s: %s\n", topic, string(payload))
	}
	if err := client.Subscribe(ctx, topics.ConsoleIn(cfg.ClientID), 1, onLine); err != nil {
		log.Error(err, "Failed to subscribe", "topic", topics.ConsoleIn(cfg.ClientID))
	}

	if err := client.AwaitConnection(ctx); err != nil {
		log.Error(err, "Connection timed out")
		return
	}

	if err := client.Publish(ctx, topics.ConsoleOut(cfg.ClientID), 1, false, []byte("UVM: serial initialized\n")); err != nil {
		log.Error(err, "Failed to publish console output")
	}

	client.Disconnect(ctx)
}
