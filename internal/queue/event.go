// Package queue defines the domain events published alongside the core
// booking protocol and the RabbitMQ publisher that ships them.
package queue

import "time"

// SeatsBookedEvent is published after a booking commits successfully. It is
// a side-effect notification, not a reservation step: nothing in the core
// protocol waits on it, and its loss never causes a double-booking or a
// lost seat.
type SeatsBookedEvent struct {
	BookingID   string    `json:"booking_id"`
	EventID     string    `json:"event_id"`
	UserID      string    `json:"user_id"`
	SeatCount   int       `json:"seat_count"`
	ConfirmedAt time.Time `json:"confirmed_at"`
}

// EventCreatedEvent is published when the Event Initializer materializes a
// new event, letting downstream consumers warm caches or provision
// capacity without querying the seat store directly.
type EventCreatedEvent struct {
	EventID    string    `json:"event_id"`
	Name       string    `json:"name"`
	Date       time.Time `json:"date"`
	Rows       int       `json:"rows"`
	Cols       int       `json:"cols"`
	TotalSeats int       `json:"total_seats"`
	CreatedAt  time.Time `json:"created_at"`
}
