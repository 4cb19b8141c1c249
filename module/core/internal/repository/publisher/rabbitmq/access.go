package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/nandanugg/station-gate/module/core/domain"
	"github.com/nandanugg/station-gate/module/core/internal/repository/publisher"
)

var _ publisher.AccessPublisher = (*AccessPublisher)(nil)

const (
	ExchangeName = "gate.events"
	QueueName    = "access_events"
)

type AccessPublisher struct {
	ch *amqp.Channel
}

func NewAccessPublisher(conn *amqp.Connection) (*AccessPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}

	if err := ch.ExchangeDeclare(ExchangeName, "fanout", true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	if _, err := ch.QueueDeclare(QueueName, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare queue: %w", err)
	}

	if err := ch.QueueBind(QueueName, "", ExchangeName, false, nil); err != nil {
		return nil, fmt.Errorf("bind queue: %w", err)
	}

	return &AccessPublisher{ch: ch}, nil
}

type accessMessage struct {
	EventID   string                 `json:"event_id"`
	DeviceID  string                 `json:"device_id"`
	Event     domain.AccessEventType `json:"event"`
	Location  eventLocation          `json:"location"`
	Nearest   eventNearest           `json:"nearest"`
	InRadius  []string               `json:"in_radius"`
	Timestamp int64                  `json:"timestamp"`
}

type eventLocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  float64 `json:"accuracy"`
}

type eventNearest struct {
	WaypointID string  `json:"waypoint_id"`
	DistanceKm float64 `json:"distance_km"`
}

func newAccessMessage(event *domain.AccessEvent) accessMessage {
	inRadius := event.InRadius
	if inRadius == nil {
		inRadius = []string{}
	}
	return accessMessage{
		EventID:  uuid.NewString(),
		DeviceID: event.DeviceID,
		Event:    event.Event,
		Location: eventLocation{
			Latitude:  event.Position.Lat,
			Longitude: event.Position.Lon,
			Accuracy:  event.Position.Accuracy,
		},
		Nearest: eventNearest{
			WaypointID: event.Nearest.WaypointID,
			DistanceKm: event.Nearest.DistanceKm,
		},
		InRadius:  inRadius,
		Timestamp: event.Timestamp,
	}
}

func (p *AccessPublisher) PublishAccess(ctx context.Context, event *domain.AccessEvent) error {
	msg := newAccessMessage(event)

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal access event: %w", err)
	}

	return p.ch.PublishWithContext(ctx, ExchangeName, "", false, false, amqp.Publishing{
		ContentType: "application/json",
		MessageId:   msg.EventID,
		Type:        string(msg.Event),
		Body:        body,
	})
}
