// Package queue defines message payloads exchanged over the message broker.
package queue

// RideCreatedEvent is published when a ride has been committed to the
// store. It carries enough information for downstream consumers to log,
// notify, or trigger analytics without querying the primary database.
type RideCreatedEvent struct {
	RideID        uint64   `json:"ride_id"`
	DriverID      string   `json:"driver_id"`
	Departure     string   `json:"departure"`
	Destination   string   `json:"destination"`
	DepartureTime string   `json:"departure_time"`
	Price         float64  `json:"price"`
	SeatsTotal    int      `json:"seats_total"`
	Options       []string `json:"options"`
	CreatedAt     string   `json:"created_at"`
}

// MessageSentEvent is published after a message has been appended to a
// ride thread. The external notification service consumes it to deliver
// push notifications; this backend only emits it at the boundary.
type MessageSentEvent struct {
	MessageID   string  `json:"message_id"`
	RideID      uint64  `json:"ride_id"`
	SenderID    string  `json:"sender_id"`
	RecipientID *string `json:"recipient_id"`
	SentAt      string  `json:"sent_at"`
}
