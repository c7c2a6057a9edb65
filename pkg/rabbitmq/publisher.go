package rabbitmq

import (
	"encoding/json"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// IPublisher publishes payloads to MQTT topics.
type IPublisher interface {
	// PublishMessage publishes on the publisher's default topic at QoS 0.
	PublishMessage(message interface{}) error
	// PublishToQos publishes on an explicit topic.
	PublishToQos(topic string, qos byte, retained bool, message interface{}) error
	Close()
}

// Publisher holds the client and the default topic
type Publisher struct {
	client mqtt.Client
	topic  string
}

// NewPublisher creates a new Publisher instance using the shared MQTT client and topic
func NewPublisher(client mqtt.Client, topic string) *Publisher {
	return &Publisher{client: client, topic: topic}
}

func (p *Publisher) PublishMessage(message interface{}) error {
	return p.PublishToQos(p.topic, 0, false, message)
}

func (p *Publisher) PublishToQos(topic string, qos byte, retained bool, message interface{}) error {
	payload, err := encodePayload(message)
	if err != nil {
		return err
	}
	token := p.client.Publish(topic, qos, retained, payload)
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("failed to publish message: %w", token.Error())
	}
	log.WithField("topic", topic).WithField("qos", qos).Debugf("published %d bytes", len(payload))
	return nil
}

// encodePayload accepts strings and byte slices as-is and JSON-encodes anything else.
func encodePayload(message interface{}) ([]byte, error) {
	switch m := message.(type) {
	case string:
		return []byte(m), nil
	case []byte:
		return m, nil
	}
	b, err := json.Marshal(message)
	if err != nil {
		return nil, fmt.Errorf("invalid message format: %w", err)
	}
	return b, nil
}

// Close gracefully closes the MQTT connection for the publisher
func (p *Publisher) Close() {
	if p.client.IsConnected() {
		p.client.Disconnect(250)
		log.Info("MQTT client disconnected")
	}
}
