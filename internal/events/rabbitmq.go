package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"coffee-pos/internal/config"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

const (
	dialAttempts   = 5
	dialBackoff    = 2 * time.Second
	publishTimeout = 5 * time.Second
)

// channel is the subset of *amqp.Channel used for publishing.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// RabbitPublisher publishes JSON events to a durable topic exchange.
type RabbitPublisher struct {
	conn     *amqp.Connection
	ch       channel
	exchange string
	mu       sync.Mutex
	logger   zerolog.Logger
}

// NewRabbitPublisher dials the broker, retrying while it starts up, and
// declares the topic exchange.
func NewRabbitPublisher(ctx context.Context, cfg config.RabbitMQConfig, logger zerolog.Logger) (*RabbitPublisher, error) {
	logger = logger.With().Str("component", "events").Logger()

	var conn *amqp.Connection
	var err error
	for attempt := 1; attempt <= dialAttempts; attempt++ {
		conn, err = amqp.Dial(cfg.URL)
		if err == nil {
			break
		}
		logger.Warn().Err(err).Int("attempt", attempt).Msg("failed to connect to RabbitMQ")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(dialBackoff):
		}
	}
	if err != nil {
		return nil, fmt.Errorf("could not connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("could not open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		cfg.Exchange, // name
		"topic",      // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("could not declare exchange: %w", err)
	}

	logger.Info().Str("exchange", cfg.Exchange).Msg("connected to RabbitMQ")

	return &RabbitPublisher{conn: conn, ch: ch, exchange: cfg.Exchange, logger: logger}, nil
}

// PublishOrderSettled publishes an order.settled event.
func (p *RabbitPublisher) PublishOrderSettled(ctx context.Context, e OrderSettled) error {
	return p.publish(ctx, RoutingOrderSettled, e.OrderID.String(), e)
}

// PublishLowStock publishes an inventory.low_stock event.
func (p *RabbitPublisher) PublishLowStock(ctx context.Context, e LowStock) error {
	return p.publish(ctx, RoutingLowStock, fmt.Sprintf("ingredient-%d", e.IngredientID), e)
}

func (p *RabbitPublisher) publish(ctx context.Context, routingKey, correlationID string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	p.mu.Lock()
	err = p.ch.PublishWithContext(ctx,
		p.exchange, // exchange
		routingKey, // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:   "application/json",
			DeliveryMode:  amqp.Persistent,
			CorrelationId: correlationID,
			Timestamp:     time.Now(),
			Type:          routingKey,
			Body:          body,
		},
	)
	p.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", routingKey, err)
	}

	p.logger.Debug().
		Str("routing_key", routingKey).
		Int("size", len(body)).
		Msg("event published")

	return nil
}

// Close closes the channel and the connection.
func (p *RabbitPublisher) Close() error {
	if err := p.ch.Close(); err != nil {
		p.logger.Warn().Err(err).Msg("failed to close channel")
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
