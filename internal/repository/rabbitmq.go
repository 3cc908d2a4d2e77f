package repository

import (
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/rlsguard/stats-service/internal/config"
)

// RabbitMQRepository owns the broker connection shared by the consumer and
// the event publisher.
type RabbitMQRepository interface {
	SetupQueue(queue, routingKey string) error
	Channel() *amqp.Channel
	Ping() error
	Close() error
}

type rabbitMQRepository struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	logger   zerolog.Logger
}

// NewRabbitMQRepository dials the broker and declares the durable direct
// exchange named in cfg.
func NewRabbitMQRepository(cfg config.RabbitMQConfig, logger zerolog.Logger) (RabbitMQRepository, error) {
	conn, err := amqp.DialConfig(cfg.URL, amqp.Config{
		Heartbeat:  10 * time.Second,
		Properties: amqp.Table{"connection_name": "stats-service"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := channel.ExchangeDeclare(
		cfg.Exchange, // name
		"direct",     // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	); err != nil {
		_ = channel.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	logger.Info().Str("exchange", cfg.Exchange).Msg("Connected to RabbitMQ")

	return &rabbitMQRepository{
		conn:     conn,
		channel:  channel,
		exchange: cfg.Exchange,
		logger:   logger,
	}, nil
}

func (r *rabbitMQRepository) Channel() *amqp.Channel {
	return r.channel
}

func (r *rabbitMQRepository) SetupQueue(queue, routingKey string) error {
	q, err := r.channel.QueueDeclare(
		queue, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	if err := r.channel.QueueBind(
		q.Name,     // queue name
		routingKey, // routing key
		r.exchange, // exchange
		false,      // no-wait
		nil,        // arguments
	); err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}

	r.logger.Info().
		Str("exchange", r.exchange).
		Str("queue", q.Name).
		Str("routing_key", routingKey).
		Msg("RabbitMQ queue setup complete")

	return nil
}

func (r *rabbitMQRepository) Ping() error {
	if r.conn.IsClosed() || r.channel.IsClosed() {
		return amqp.ErrClosed
	}
	return nil
}

func (r *rabbitMQRepository) Close() error {
	if err := r.channel.Close(); err != nil && err != amqp.ErrClosed {
		r.logger.Error().Err(err).Msg("Failed to close RabbitMQ channel")
	}

	if err := r.conn.Close(); err != nil && err != amqp.ErrClosed {
		return fmt.Errorf("failed to close RabbitMQ connection: %w", err)
	}

	return nil
}
