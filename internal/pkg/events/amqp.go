package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/yigit/collegeerp/internal/pkg/breaker"
)

// AMQPConfig configures the broker connection.
type AMQPConfig struct {
	URL      string
	Exchange string
}

// AMQPPublisher publishes changes to a durable topic exchange.
type AMQPPublisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
	cb       *gobreaker.CircuitBreaker
	logger   zerolog.Logger
}

// NewAMQPPublisher dials the broker and declares the exchange.
func NewAMQPPublisher(cfg AMQPConfig, cb *gobreaker.CircuitBreaker, logger zerolog.Logger) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	if err := ch.ExchangeDeclare(cfg.Exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", cfg.Exchange, err)
	}

	logger.Info().Str("exchange", cfg.Exchange).Msg("Connected to RabbitMQ")
	return &AMQPPublisher{conn: conn, ch: ch, exchange: cfg.Exchange, cb: cb, logger: logger}, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, change Change) error {
	body, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("failed to marshal change: %w", err)
	}

	_, err = breaker.Run(p.cb, func() (struct{}, error) {
		return struct{}{}, p.ch.PublishWithContext(ctx,
			p.exchange,
			strings.ToLower(change.RoutingKey()),
			false,
			false,
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				Timestamp:    change.Timestamp,
				Body:         body,
			})
	})
	if err != nil {
		p.logger.Error().Err(err).Str("table", change.Table).Str("type", change.Type).Msg("Failed to publish change event")
		return err
	}
	return nil
}

// Close closes the channel and the connection.
func (p *AMQPPublisher) Close() error {
	if err := p.ch.Close(); err != nil {
		p.conn.Close()
		return err
	}
	return p.conn.Close()
}
