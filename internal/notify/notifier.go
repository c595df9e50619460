// Package notify publishes reservation lifecycle events for downstream
// consumers such as mailers and the back office.
package notify

import (
	"context"
	"fmt"
	"time"

	"carbroker/pkg/kafka"
	"carbroker/pkg/logger"
	"carbroker/pkg/model"
)

const (
	EventBookingCreated   = "booking.created"
	EventBookingCancelled = "booking.cancelled"

	schemaVersion = "1"
)

type Publisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

// Event is the JSON body of every published message.
type Event struct {
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data"`
}

// KafkaNotifier keys every message by vehicle so that the events of one car
// stay ordered on a single partition.
type KafkaNotifier struct {
	publisher Publisher
	source    string
	log       *logger.Logger
	now       func() time.Time
}

func NewKafkaNotifier(publisher Publisher, source string, log *logger.Logger) *KafkaNotifier {
	return &KafkaNotifier{
		publisher: publisher,
		source:    source,
		log:       log,
		now:       time.Now,
	}
}

func (n *KafkaNotifier) BookingCreated(ctx context.Context, c model.Confirmation) error {
	return n.publish(ctx, EventBookingCreated, c.Identity, c.ReservationNumber, c)
}

func (n *KafkaNotifier) BookingCancelled(ctx context.Context, c model.Cancellation) error {
	return n.publish(ctx, EventBookingCancelled, c.Identity, c.VendorReservationID, c)
}

func (n *KafkaNotifier) publish(ctx context.Context, eventType string, id model.VehicleIdentity, correlationID string, data any) error {
	now := n.now()
	msg, err := kafka.NewMessage().
		WithKey(id.Key()).
		WithValue(Event{Type: eventType, OccurredAt: now, Data: data}).
		WithEventType(eventType).
		WithCorrelationID(correlationID).
		WithSchemaVersion(schemaVersion).
		WithSource(n.source).
		WithTimestamp(now).
		Build()
	if err != nil {
		return fmt.Errorf("build %s event: %w", eventType, err)
	}

	if err := n.publisher.Publish(ctx, msg); err != nil {
		return fmt.Errorf("publish %s event: %w", eventType, err)
	}
	n.log.Debug("Reservation event published", "event", eventType, "vehicle", id.String(), "event_id", msg.GetEventID())
	return nil
}

// LogNotifier is used when no broker is configured.
type LogNotifier struct {
	log *logger.Logger
}

func NewLogNotifier(log *logger.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) BookingCreated(_ context.Context, c model.Confirmation) error {
	n.log.Info("Reservation event",
		"event", EventBookingCreated,
		"reservation_number", c.ReservationNumber,
		"vehicle", c.Identity.String(),
		"status", c.Status,
	)
	return nil
}

func (n *LogNotifier) BookingCancelled(_ context.Context, c model.Cancellation) error {
	n.log.Info("Reservation event",
		"event", EventBookingCancelled,
		"vendor_rez_id", c.VendorReservationID,
		"vehicle", c.Identity.String(),
		"vendor_acknowledged", c.VendorAcknowledged,
	)
	return nil
}
