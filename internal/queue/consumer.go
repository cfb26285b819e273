package queue

// consumer.go contains the background consumer that listens to the
// ride.created queue and appends audit lines to logs/rides.log.

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// StartRideConsumer connects to RabbitMQ, declares the ride.created
// queue (durable), and starts consuming messages. Each event is
// appended to logs/rides.log in a single-line, human-friendly format.
// The function runs a reconnect loop and keeps running while logging
// any processing errors; offending messages are rejected without
// requeueing so the server continues operating.
func StartRideConsumer() error {
	url := brokerURL()

	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Printf("ride-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		if err := consumeLoop(conn); err != nil {
			log.Printf("ride-consumer: consume loop ended: %v; reconnecting", err)
			time.Sleep(2 * time.Second)
			continue
		}
	}
}

func consumeLoop(conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Printf("ride-consumer: set QoS failed: %v", err)
	}

	_, err = ch.QueueDeclare(rideCreatedQueue, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(rideCreatedQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := handleRideCreated(d.Body); err != nil {
			log.Printf("ride-consumer: handle message failed: %v", err)
			_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

func handleRideCreated(body []byte) error {
	var ev RideCreatedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	// Ensure logs directory exists
	if err := os.MkdirAll("logs", 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	fpath := filepath.Join("logs", "rides.log")
	f, err := os.OpenFile(fpath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	options := "[]"
	if len(ev.Options) > 0 {
		options = fmt.Sprintf("[%s]", strings.Join(ev.Options, ","))
	}

	line := fmt.Sprintf("[%s] Ride created | ride_id=%d | driver_id=%s | route=\"%s -> %s\" | departure=%s | price=%.2f | seats=%d | options=%s\n",
		ev.CreatedAt, ev.RideID, ev.DriverID, ev.Departure, ev.Destination, ev.DepartureTime, ev.Price, ev.SeatsTotal, options)

	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}
