package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"
)

const TelemetryTopic = "v1/devices/me/telemetry"

// mqttClient is the part of mqtt.Client the backend uses.
type mqttClient interface {
	IsConnected() bool
	Connect() mqtt.Token
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

type ThingsBoard struct {
	client mqttClient
}

// NewThingsBoard builds an MQTT client for broker (tcp://host:port). ThingsBoard
// authenticates with the device access token as username. The connection is
// made on the first Reconnect.
func NewThingsBoard(broker, accessToken string) *ThingsBoard {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(fmt.Sprintf("plant-controller-%d", time.Now().UnixNano()))
	opts.SetUsername(accessToken)
	opts.SetAutoReconnect(false)
	opts.SetConnectTimeout(publishTimeout)
	opts.OnConnect = func(mqtt.Client) {
		log.Info().Str("broker", broker).Msg("Connected to ThingsBoard MQTT broker")
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.Warn().Err(err).Str("broker", broker).Msg("Connection lost to ThingsBoard MQTT broker")
	}
	return &ThingsBoard{client: mqtt.NewClient(opts)}
}

func (t *ThingsBoard) Name() string { return "thingsboard" }

func (t *ThingsBoard) Connected() bool { return t.client.IsConnected() }

func (t *ThingsBoard) Reconnect(ctx context.Context) error {
	return wait(ctx, t.client.Connect(), "connect")
}

func (t *ThingsBoard) Publish(ctx context.Context, s Sample) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal telemetry: %w", err)
	}
	return wait(ctx, t.client.Publish(TelemetryTopic, 1, false, payload), "publish")
}

func (t *ThingsBoard) Close() {
	t.client.Disconnect(250)
}

func wait(ctx context.Context, token mqtt.Token, op string) error {
	select {
	case <-token.Done():
	case <-ctx.Done():
		return fmt.Errorf("mqtt %s: %w", op, ctx.Err())
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt %s: %w", op, err)
	}
	return nil
}
