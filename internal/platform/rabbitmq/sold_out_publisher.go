package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"online-shopping/internal/model"
)

// SoldOutPublisher sends one persistent JSON message per sold-out post.
type SoldOutPublisher struct {
	conn      *amqp.Connection
	queueName string
}

func NewSoldOutPublisher(conn *amqp.Connection, queueName string) *SoldOutPublisher {
	return &SoldOutPublisher{
		conn:      conn,
		queueName: queueName,
	}
}

func (p *SoldOutPublisher) PublishSoldOut(ctx context.Context, event model.SoldOutEvent) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("open rabbitmq channel failed: %w", err)
	}
	defer ch.Close()

	if err := declareQueue(ch, p.queueName); err != nil {
		return err
	}

	payload, err := EncodeSoldOutEvent(event)
	if err != nil {
		return err
	}

	if err := ch.PublishWithContext(
		ctx,
		"",
		p.queueName,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         payload,
			DeliveryMode: amqp.Persistent,
			Type:         "post.sold_out",
		},
	); err != nil {
		return fmt.Errorf("publish sold out event failed: %w", err)
	}
	return nil
}

func EncodeSoldOutEvent(event model.SoldOutEvent) ([]byte, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal sold out event failed: %w", err)
	}
	return payload, nil
}

// DecodeSoldOutEvent parses a message body and rejects events without a post or user.
func DecodeSoldOutEvent(body []byte) (model.SoldOutEvent, error) {
	var event model.SoldOutEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return model.SoldOutEvent{}, fmt.Errorf("unmarshal sold out event failed: %w", err)
	}
	if event.PostID == 0 || event.UserID == 0 {
		return model.SoldOutEvent{}, fmt.Errorf("sold out event missing post or user id")
	}
	return event, nil
}
