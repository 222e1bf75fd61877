package sim

import (
	"context"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// GroundFeed publishes delivered beacon payloads to an MQTT broker,
// standing in for the ground-station side of the LoRa link during
// bench runs. It implements platform.Radio and is usually attached
// behind the lossy Radio via Forward, so only "received" beacons show
// up on the feed.
type GroundFeed struct {
	client paho.Client
	topic  string
}

const (
	groundFeedConnectTimeout = 10 * time.Second
	groundFeedPublishTimeout = 5 * time.Second
)

// NewGroundFeed connects to the broker and returns a publisher for the
// given topic.
func NewGroundFeed(broker, clientID, topic string) (*GroundFeed, error) {
	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)

	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(groundFeedConnectTimeout) {
		return nil, fmt.Errorf("connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connecting to broker: %w", err)
	}

	return &GroundFeed{client: client, topic: topic}, nil
}

// Transmit implements platform.Radio by publishing the payload at
// QoS 1: the feed is the record of what the ground saw, so delivery
// matters more than latency.
func (g *GroundFeed) Transmit(ctx context.Context, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	token := g.client.Publish(g.topic, 1, false, payload)
	if !token.WaitTimeout(groundFeedPublishTimeout) {
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publishing beacon: %w", err)
	}
	return nil
}

// Close disconnects from the broker.
func (g *GroundFeed) Close() error {
	g.client.Disconnect(1000)
	return nil
}
