package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/rlsguard/stats-service/internal/models"
)

const publishTimeout = 5 * time.Second

// Publisher is the subset of *amqp.Channel used for publishing.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type RabbitMQPublisher interface {
	Publish(ctx context.Context, exchange, routingKey string, body []byte) error
	PublishStatisticsCalculated(ctx context.Context, event models.StatisticsCalculatedEvent) error
}

type rabbitMQPublisher struct {
	channel    Publisher
	exchange   string
	routingKey string
	logger     zerolog.Logger
}

// NewRabbitMQPublisher publishes statistics.calculated events to exchange
// under routingKey.
func NewRabbitMQPublisher(channel Publisher, exchange, routingKey string, logger zerolog.Logger) RabbitMQPublisher {
	return &rabbitMQPublisher{
		channel:    channel,
		exchange:   exchange,
		routingKey: routingKey,
		logger:     logger,
	}
}

func (p *rabbitMQPublisher) Publish(ctx context.Context, exchange, routingKey string, body []byte) error {
	publishCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	return p.channel.PublishWithContext(
		publishCtx,
		exchange,   // exchange
		routingKey, // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		},
	)
}

func (p *rabbitMQPublisher) PublishStatisticsCalculated(ctx context.Context, event models.StatisticsCalculatedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := p.Publish(ctx, p.exchange, p.routingKey, body); err != nil {
		return fmt.Errorf("failed to publish %s: %w", p.routingKey, err)
	}

	p.logger.Debug().
		Str("event_id", event.EventID).
		Str("classroom_id", event.ClassroomID).
		Str("routing_key", p.routingKey).
		Msg("Published statistics calculated event")

	return nil
}
