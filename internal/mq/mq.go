/*
Package mq bridges change events onto RabbitMQ so backend consumers can react
to record mutations without holding a connection to this process.

A single connection and channel are used; the exchange is a fanout, so every
bound queue sees every event.
*/
package mq

import (
	"context"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

// Upper bound on a single publish, including broker confirmation.
const publishTimeout = 5 * time.Second

/*
Relay publishes serialized change events to a fanout exchange.  It satisfies
the broadcaster's Relay interface.
*/
type Relay struct {
	conn     *amqp091.Connection
	ch       *amqp091.Channel
	exchange string
}

/*
Dial connects to RabbitMQ and declares the fanout exchange the relay
publishes to.
*/
func Dial(url, exchange string) (*Relay, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = ch.ExchangeDeclare(exchange, "fanout", false, true, false, false, nil)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange %q: %w", exchange, err)
	}

	return &Relay{conn: conn, ch: ch, exchange: exchange}, nil
}

// Publish sends one serialized change event to the exchange, waiting at most
// publishTimeout.
func (r *Relay) Publish(ctx context.Context, raw []byte) error {
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	return r.ch.PublishWithContext(
		ctx,
		r.exchange,
		"",
		false,
		false,
		amqp091.Publishing{
			ContentType: "application/json",
			Body:        raw,
		},
	)
}

func (r *Relay) Close() {
	r.ch.Close()
	r.conn.Close()
}
