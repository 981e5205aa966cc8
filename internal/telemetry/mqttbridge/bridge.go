// Package mqttbridge republishes discovery events onto an MQTT broker for
// external dashboards. It is pure ambient telemetry: nothing in the
// dongle or gamepad state machines depends on it being present.
package mqttbridge

import (
	"context"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/goccy/go-json"
	"github.com/nexus-edge/toycomm/internal/domain"
	"github.com/rs/zerolog"
)

type Config struct {
	BrokerURL string
	ClientID  string
	Topic     string
	QoS       byte
	KeepAlive time.Duration
}

// Bridge publishes every DiscoveryEvent it receives on events to Topic as
// a JSON document.
type Bridge struct {
	config Config
	client paho.Client
	logger zerolog.Logger
}

func New(config Config, logger zerolog.Logger) *Bridge {
	b := &Bridge{config: config, logger: logger.With().Str("component", "mqtt-bridge").Logger()}

	opts := paho.NewClientOptions().
		AddBroker(config.BrokerURL).
		SetClientID(config.ClientID).
		SetKeepAlive(config.KeepAlive).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(2 * time.Second).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			b.logger.Warn().Err(err).Msg("lost connection to mqtt broker")
		})

	b.client = paho.NewClient(opts)
	return b
}

func (b *Bridge) Connect(ctx context.Context) error {
	token := b.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return fmt.Errorf("mqtt bridge: connect timeout")
	}
	return token.Error()
}

func (b *Bridge) Disconnect() {
	b.client.Disconnect(250)
}

type wireEvent struct {
	Kind    string `json:"kind"`
	Name    string `json:"name,omitempty"`
	Address string `json:"address,omitempty"`
}

func kindName(kind domain.DiscoveryEventKind) string {
	switch kind {
	case domain.EventDeviceFound:
		return "device_found"
	case domain.EventDeviceDisconnected:
		return "device_disconnected"
	case domain.EventScanningFinished:
		return "scanning_finished"
	default:
		return "unknown"
	}
}

// Run publishes every event from events until ctx is canceled.
func (b *Bridge) Run(ctx context.Context, events <-chan domain.DiscoveryEvent) {
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			b.publish(ev)
		case <-ctx.Done():
			return
		}
	}
}

func (b *Bridge) publish(ev domain.DiscoveryEvent) {
	payload, err := json.Marshal(wireEvent{
		Kind:    kindName(ev.Kind),
		Name:    ev.Name,
		Address: ev.Address,
	})
	if err != nil {
		b.logger.Error().Err(err).Msg("failed to encode event for mqtt bridge")
		return
	}
	token := b.client.Publish(b.config.Topic, b.config.QoS, false, payload)
	token.Wait()
	if token.Error() != nil {
		b.logger.Error().Err(token.Error()).Msg("failed to publish event to mqtt broker")
	}
}
