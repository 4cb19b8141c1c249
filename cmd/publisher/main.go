package main

import (
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strconv"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/nandanugg/station-gate/config"
)

type positionMessage struct {
	DeviceID  string  `json:"device_id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  float64 `json:"accuracy"`
	Timestamp int64   `json:"timestamp"`
}

const charset = "abcdefghijklmnopqrstuvwxyz0123456789"

func randomDeviceID() string {
	b := make([]byte, 8)
	for i := range b {
		b[i] = charset[rand.Intn(len(charset))]
	}
	return "device-" + string(b)
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <interval_seconds>\n", os.Args[0])
		os.Exit(1)
	}

	intervalSec, err := strconv.Atoi(os.Args[1])
	if err != nil || intervalSec <= 0 {
		fmt.Fprintf(os.Stderr, "error: interval must be a positive integer\n")
		os.Exit(1)
	}

	logger, err := config.NewLogger("info", "console")
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	waypoints, err := config.LoadWaypoints(os.Getenv("WAYPOINTS_FILE"))
	if err != nil {
		logger.Fatal("waypoints", zap.Error(err))
	}

	broker := "tcp://localhost:1883"
	if v := os.Getenv("MQTT_BROKER"); v != "" {
		broker = v
	}

	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID("gate-mock-device")

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		logger.Fatal("mqtt connect", zap.Error(token.Error()))
	}
	defer client.Disconnect(250)

	devicePool := make([]string, 5)
	for i := range devicePool {
		devicePool[i] = randomDeviceID()
	}

	logger.Info("publishing",
		zap.String("broker", broker),
		zap.Int("interval_s", intervalSec),
		zap.Strings("devices", devicePool),
	)

	ticker := time.NewTicker(time.Duration(intervalSec) * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		did := devicePool[rand.Intn(len(devicePool))]
		wp := waypoints[rand.Intn(len(waypoints))]

		var lat, lon float64
		// 30% chance to land within a few km of a waypoint, otherwise drift ~50km.
		if rand.Float64() < 0.3 {
			lat = wp.Lat + (rand.Float64()-0.5)*0.05
			lon = wp.Lon + (rand.Float64()-0.5)*0.05
		} else {
			lat = wp.Lat + (rand.Float64()-0.5)*0.9
			lon = wp.Lon + (rand.Float64()-0.5)*0.9
		}

		msg := positionMessage{
			DeviceID:  did,
			Latitude:  lat,
			Longitude: lon,
			Accuracy:  5 + rand.Float64()*45,
			Timestamp: time.Now().Unix(),
		}

		payload, _ := json.Marshal(msg)
		topic := fmt.Sprintf("/gate/device/%s/position", did)

		token := client.Publish(topic, 1, false, payload)
		token.Wait()

		logger.Info("published", zap.String("topic", topic), zap.ByteString("payload", payload))
	}
}
