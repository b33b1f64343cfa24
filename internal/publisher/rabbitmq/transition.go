package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/jengzang/dwell-backend-go/internal/models"
	"github.com/jengzang/dwell-backend-go/internal/publisher"
)

var _ publisher.TransitionPublisher = (*TransitionPublisher)(nil)

// DefaultExchange is used when no exchange name is configured
const DefaultExchange = "dwell.events"

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type TransitionPublisher struct {
	ch       channel
	exchange string
}

// Dial connects to the broker and declares the exchange. queue may be empty,
// in which case consumers bind their own queues.
func Dial(url, exchange, queue string) (*TransitionPublisher, *amqp.Connection, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("rabbitmq connect: %w", err)
	}
	p, err := NewTransitionPublisher(conn, exchange, queue)
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}
	return p, conn, nil
}

func NewTransitionPublisher(conn *amqp.Connection, exchange, queue string) (*TransitionPublisher, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, "fanout", true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	if queue != "" {
		if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
			return nil, fmt.Errorf("declare queue: %w", err)
		}
		if err := ch.QueueBind(queue, "", exchange, false, nil); err != nil {
			return nil, fmt.Errorf("bind queue: %w", err)
		}
	}

	return &TransitionPublisher{ch: ch, exchange: exchange}, nil
}

// PublishTransition sends one message per side of the transition
func (p *TransitionPublisher) PublishTransition(ctx context.Context, tr models.Transition) error {
	for _, ev := range publisher.Events(tr) {
		body, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("marshal event: %w", err)
		}

		err = p.ch.PublishWithContext(ctx, p.exchange, "", false, false, amqp.Publishing{
			ContentType: "application/json",
			Timestamp:   ev.At,
			Type:        ev.Event,
			Body:        body,
		})
		if err != nil {
			return fmt.Errorf("publish %s: %w", ev.Event, err)
		}
	}
	return nil
}
