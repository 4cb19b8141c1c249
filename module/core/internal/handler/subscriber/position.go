package subscriber

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/nandanugg/station-gate/module/core/domain"
)

const TopicPattern = "/gate/device/+/position"

type accessService interface {
	Check(ctx context.Context, deviceID string, pos domain.Position) (*domain.Evaluation, error)
}

type positionMessage struct {
	DeviceID  string  `json:"device_id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  float64 `json:"accuracy"`
	Timestamp int64   `json:"timestamp"`
}

type PositionSubscriber struct {
	client    mqtt.Client
	accessSvc accessService
}

func NewPositionSubscriber(client mqtt.Client, accessSvc accessService) *PositionSubscriber {
	return &PositionSubscriber{
		client:    client,
		accessSvc: accessSvc,
	}
}

func (s *PositionSubscriber) Start() error {
	token := s.client.Subscribe(TopicPattern, 1, s.handleMessage)
	token.Wait()
	return token.Error()
}

// handleMessage runs one evaluation per fix. Fixes are handled in arrival
// order, so evaluations for a device never overlap.
func (s *PositionSubscriber) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	log := zap.L().With(zap.String("topic", msg.Topic()))

	var raw positionMessage
	if err := json.Unmarshal(msg.Payload(), &raw); err != nil {
		log.Warn("invalid position message", zap.Error(err))
		return
	}

	if err := validatePositionMessage(&raw); err != nil {
		log.Warn("validation error", zap.Error(err))
		return
	}

	pos := domain.Position{Lat: raw.Latitude, Lon: raw.Longitude, Accuracy: raw.Accuracy}
	eval, err := s.accessSvc.Check(context.Background(), raw.DeviceID, pos)
	if err != nil {
		log.Error("access check error", zap.String("device_id", raw.DeviceID), zap.Error(err))
		return
	}

	log.Debug("access evaluated",
		zap.String("device_id", raw.DeviceID),
		zap.Bool("accessible", eval.Aggregate.Accessible),
		zap.String("nearest", eval.Aggregate.Nearest.WaypointID),
		zap.Float64("nearest_km", eval.Aggregate.Nearest.DistanceKm),
	)
}

func validatePositionMessage(msg *positionMessage) error {
	if msg.DeviceID == "" {
		return fmt.Errorf("device_id: required")
	}
	if math.IsNaN(msg.Latitude) || msg.Latitude < -90 || msg.Latitude > 90 {
		return fmt.Errorf("latitude: must be between -90 and 90")
	}
	if math.IsNaN(msg.Longitude) || msg.Longitude < -180 || msg.Longitude > 180 {
		return fmt.Errorf("longitude: must be between -180 and 180")
	}
	if msg.Accuracy < 0 {
		return fmt.Errorf("accuracy: must not be negative")
	}
	if msg.Timestamp <= 0 {
		return fmt.Errorf("timestamp: must be positive")
	}
	return nil
}
