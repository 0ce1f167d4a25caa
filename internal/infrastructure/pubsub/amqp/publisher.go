package amqppubsub

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/bookswap/internal/core/ports"
)

const (
	exchangeKind   = "topic"
	publishTimeout = 5 * time.Second
)

type publisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	lock     sync.Mutex
}

// NewPublisher connects to the broker and declares the durable topic
// exchange where events are published.
func NewPublisher(url, exchange string) (ports.Publisher, error) {
	if exchange == "" {
		return nil, fmt.Errorf("missing exchange")
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(
		exchange,
		exchangeKind,
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}

	return &publisher{conn: conn, channel: ch, exchange: exchange}, nil
}

// Publish sends the message with a routing key derived from the topic, ie.
// WINNER_SELECTED is routed as winner.selected.
func (p *publisher) Publish(topic string, message string) error {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	p.lock.Lock()
	defer p.lock.Unlock()

	if err := p.channel.PublishWithContext(
		ctx,
		p.exchange,
		RoutingKey(topic),
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Type:         topic,
			Body:         []byte(message),
		},
	); err != nil {
		return fmt.Errorf("failed to publish to exchange %s: %w", p.exchange, err)
	}
	return nil
}

func (p *publisher) Close() {
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			log.WithError(err).Debug("failed to close amqp channel")
		}
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			log.WithError(err).Debug("failed to close amqp connection")
		}
	}
}

// RoutingKey ...
func RoutingKey(topic string) string {
	return strings.ReplaceAll(strings.ToLower(topic), "_", ".")
}
