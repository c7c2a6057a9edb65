package rabbitmq

import (
	"context"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Handler processes one MQTT message received on the subscribed topic.
type Handler func(topic string, message mqtt.Message) error

// IConsumer interface defines the ConsumeMessage method with dependencies T
type IConsumer[T any] interface {
	ConsumeMessage(ctx context.Context)
	SetHandler(handler Handler)
}

// QoS1Prefixes lists the topic prefixes that are subscribed at QoS 1.
var QoS1Prefixes = []string{
	"weather/daily",
	"event/canopyEstimate",
	"event/canopyRejected",
}

// QosFor returns the subscription QoS for a topic.
func QosFor(topic string) byte {
	t := strings.TrimSpace(topic)
	for _, p := range QoS1Prefixes {
		if strings.HasPrefix(t, p) {
			return 1
		}
	}
	return 0
}

// Consumer holds the client, topics and handler of a subscription.
type Consumer struct {
	client  mqtt.Client
	handler Handler
	topics  []string
}

// NewConsumer creates a Consumer for one topic; the handler may be injected later.
func NewConsumer(client mqtt.Client, topic string, handler Handler) *Consumer {
	return NewMultiConsumer(client, []string{topic}, handler)
}

// NewMultiConsumer creates a Consumer subscribed to several topics with one handler.
func NewMultiConsumer(client mqtt.Client, topics []string, handler Handler) *Consumer {
	return &Consumer{client: client, topics: topics, handler: handler}
}

func (c *Consumer) SetHandler(handler Handler) {
	c.handler = handler
}

func (c *Consumer) dispatch(topic string) mqtt.MessageHandler {
	return func(_ mqtt.Client, msg mqtt.Message) {
		if c.handler == nil {
			log.WithField("topic", topic).Warn("no handler set")
			return
		}
		if err := c.handler(topic, msg); err != nil {
			log.WithField("topic", msg.Topic()).WithError(err).Error("error handling message")
		}
	}
}

// ConsumeMessage subscribes to the topics and processes messages using the handler.
// It blocks until the context is cancelled, then unsubscribes.
func (c *Consumer) ConsumeMessage(ctx context.Context) {
	for _, topic := range c.topics {
		topic := strings.TrimSpace(topic)
		if topic == "" {
			continue
		}
		token := c.client.Subscribe(topic, QosFor(topic), c.dispatch(topic))
		if token.Wait() && token.Error() != nil {
			log.WithField("topic", topic).WithError(token.Error()).Error("subscribe failed")
			continue
		}
		log.WithField("topic", topic).Info("subscribed")
	}

	<-ctx.Done()

	for _, topic := range c.topics {
		c.client.Unsubscribe(topic).Wait()
	}
}
