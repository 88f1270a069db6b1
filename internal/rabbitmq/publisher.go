package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/streadway/amqp"

	"certhub/internal/domain/notification"
)

// Publisher sends notification events to exchange, routed by event type.
type Publisher struct {
	ch       *amqp.Channel
	exchange string
}

func NewPublisher(ch *amqp.Channel, exchange string) *Publisher {
	return &Publisher{ch: ch, exchange: exchange}
}

func (p *Publisher) Publish(ctx context.Context, ev notification.Event) error {
	const op = "rabbitmq.Publish"
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	msg, err := newPublishing(ev)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := p.ch.Publish(p.exchange, RoutingKey(ev), false, false, msg); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// RoutingKey is "notification.<type>", so consumers can bind per type.
func RoutingKey(ev notification.Event) string {
	return "notification." + string(ev.Type)
}

func newPublishing(ev notification.Event) (amqp.Publishing, error) {
	body, err := json.Marshal(ev)
	if err != nil {
		return amqp.Publishing{}, err
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    ev.CreatedAt,
		MessageId:    fmt.Sprintf("notification-%d", ev.ID),
		Body:         body,
	}, nil
}
