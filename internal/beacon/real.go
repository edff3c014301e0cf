package beacon

import (
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// MQTTConn is a Conn over an MQTT broker.
type MQTTConn struct {
	client paho.Client
}

// Dial connects to the broker with automatic reconnection. Subscriptions
// are renewed on reconnect by the client.
func Dial(broker, clientID string) (*MQTTConn, error) {
	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetResumeSubs(true)

	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("mqtt connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	return &MQTTConn{client: client}, nil
}

// Subscribe registers the handler at QoS 0; adverts are high-volume noise
// and losing one is harmless.
func (c *MQTTConn) Subscribe(topic string, handler func(payload []byte)) error {
	token := c.client.Subscribe(topic, 0, func(_ paho.Client, m paho.Message) {
		handler(m.Payload())
	})
	if !token.WaitTimeout(10 * time.Second) {
		return fmt.Errorf("mqtt subscribe timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribe %s: %w", topic, err)
	}
	return nil
}

// Close disconnects from the broker, flushing in-flight work briefly.
func (c *MQTTConn) Close() error {
	c.client.Disconnect(1000)
	return nil
}
