package config

import (
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// NewMQTT connects with auto-reconnect; onConnect runs after every (re)connect
// so subscriptions survive broker restarts.
func NewMQTT(cfg *Config, onConnect func() error) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientID).
		SetAutoReconnect(true).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			zap.L().Warn("mqtt connection lost", zap.Error(err))
		})
	if onConnect != nil {
		opts.SetOnConnectHandler(func(_ mqtt.Client) {
			if err := onConnect(); err != nil {
				zap.L().Error("mqtt on-connect failed", zap.Error(err))
			}
		})
	}

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect: %w", token.Error())
	}
	return client, nil
}
