package queue

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// RabbitMQMessage is a recalculation request handed to the worker pool.
// Exactly one of Ack or Nack must be called once the request is settled.
type RabbitMQMessage struct {
	Body        []byte
	Timestamp   time.Time
	Redelivered bool
	Ack         func(multiple bool) error
	Nack        func(multiple bool, requeue bool) error
}

func toMessage(d amqp.Delivery) RabbitMQMessage {
	return RabbitMQMessage{
		Body:        d.Body,
		Timestamp:   d.Timestamp,
		Redelivered: d.Redelivered,
		Ack:         d.Ack,
		Nack:        d.Nack,
	}
}

type RabbitMQConsumer interface {
	Consume(ctx context.Context) (<-chan RabbitMQMessage, error)
	// GetQueueLength reports how many messages are ready in the broker queue.
	GetQueueLength() (int, error)
	Close() error
}

// Channel is the subset of *amqp.Channel used for consuming.
type Channel interface {
	Qos(prefetchCount, prefetchSize int, global bool) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	QueueDeclarePassive(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	Cancel(consumer string, noWait bool) error
}

type rabbitMQConsumer struct {
	channel  Channel
	queue    string
	tag      string
	prefetch int
	logger   zerolog.Logger
}

func NewRabbitMQConsumer(channel Channel, queue, consumerTag string, prefetch int, logger zerolog.Logger) RabbitMQConsumer {
	return &rabbitMQConsumer{
		channel:  channel,
		queue:    queue,
		tag:      consumerTag,
		prefetch: max(prefetch, 1),
		logger:   logger.With().Str("queue", queue).Str("consumer_tag", consumerTag).Logger(),
	}
}

// Consume subscribes with manual acknowledgements. The returned channel is
// closed when ctx is done or the broker stops delivering.
func (c *rabbitMQConsumer) Consume(ctx context.Context) (<-chan RabbitMQMessage, error) {
	// Per-consumer limit: the broker never has more than prefetch unacked
	// deliveries outstanding for this consumer.
	if err := c.channel.Qos(c.prefetch, 0, false); err != nil {
		return nil, fmt.Errorf("failed to set qos: %w", err)
	}

	const autoAck, exclusive, noLocal, noWait = false, false, false, false
	deliveries, err := c.channel.Consume(c.queue, c.tag, autoAck, exclusive, noLocal, noWait, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to consume %s: %w", c.queue, err)
	}

	out := make(chan RabbitMQMessage)
	go c.forward(ctx, deliveries, out)

	c.logger.Info().Int("prefetch", c.prefetch).Msg("RabbitMQ consumer started")
	return out, nil
}

func (c *rabbitMQConsumer) forward(ctx context.Context, deliveries <-chan amqp.Delivery, out chan<- RabbitMQMessage) {
	defer close(out)

	for {
		var d amqp.Delivery
		var ok bool

		select {
		case <-ctx.Done():
			c.logger.Info().Msg("Stopping RabbitMQ consumer")
			return
		case d, ok = <-deliveries:
		}
		if !ok {
			c.logger.Warn().Msg("RabbitMQ delivery channel closed")
			return
		}

		select {
		case out <- toMessage(d):
		case <-ctx.Done():
			// Nobody picked it up, so it goes back to the queue.
			if err := d.Nack(false, true); err != nil {
				c.logger.Warn().Err(err).Uint64("delivery_tag", d.DeliveryTag).Msg("Failed to requeue delivery")
			}
			return
		}
	}
}

func (c *rabbitMQConsumer) GetQueueLength() (int, error) {
	const durable, autoDelete, exclusive, noWait = true, false, false, false
	q, err := c.channel.QueueDeclarePassive(c.queue, durable, autoDelete, exclusive, noWait, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to inspect %s: %w", c.queue, err)
	}
	return q.Messages, nil
}

func (c *rabbitMQConsumer) Close() error {
	if err := c.channel.Cancel(c.tag, false); err != nil {
		return fmt.Errorf("failed to cancel consumer: %w", err)
	}

	c.logger.Info().Msg("RabbitMQ consumer closed")
	return nil
}
