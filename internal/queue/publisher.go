package queue

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	seatsBookedQueue  = "seatgrid.seats_booked"
	eventCreatedQueue = "seatgrid.event_created"
)

// Publisher holds one long-lived connection and channel, declaring both
// durable queues once at startup rather than dialing per publish the way
// the teacher's queue_publisher.go does — a flash-sale's booking volume
// would otherwise pay a fresh TCP/AMQP handshake on every confirmed
// booking. Publish calls are still best-effort: errors are logged and
// swallowed so a broker outage never blocks a booking that already
// committed.
type Publisher struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewPublisher(url string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	for _, name := range []string{seatsBookedQueue, eventCreatedQueue} {
		if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
			ch.Close()
			conn.Close()
			return nil, err
		}
	}
	return &Publisher{conn: conn, ch: ch}, nil
}

func (p *Publisher) Close() {
	if p == nil {
		return
	}
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}

// PublishSeatsBooked publishes the confirmation event. Call it from its own
// goroutine if the caller wants to keep the booking response path free of
// broker latency — BookSeats itself never calls this inline.
func (p *Publisher) PublishSeatsBooked(ctx context.Context, ev SeatsBookedEvent) {
	p.publish(ctx, seatsBookedQueue, ev)
}

func (p *Publisher) PublishEventCreated(ctx context.Context, ev EventCreatedEvent) {
	p.publish(ctx, eventCreatedQueue, ev)
}

func (p *Publisher) publish(ctx context.Context, queueName string, payload interface{}) {
	if p == nil {
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("queue: marshal %s event failed: %v", queueName, err)
		return
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := p.ch.PublishWithContext(ctx, "", queueName, false, false, pub); err != nil {
		log.Printf("queue: publish to %s failed: %v", queueName, err)
	}
}
