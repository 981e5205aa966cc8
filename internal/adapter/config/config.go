// Package config loads toycommd's configuration via viper: a YAML file
// on disk, overridable by TOYCOMMD_-prefixed environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the complete daemon configuration.
type Config struct {
	Service ServiceConfig `mapstructure:"service"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Dongle  DongleConfig  `mapstructure:"dongle"`
	Gamepad GamepadConfig `mapstructure:"gamepad"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type ServiceConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

type HTTPConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// DongleConfig sizes the dongle manager's command and event channels.
// RetryDelay is loaded but not read anywhere: the reconnect supervisor
// waits a fixed 2s between sessions.
type DongleConfig struct {
	CommandBufferSize int           `mapstructure:"command_buffer_size"`
	EventBufferSize   int           `mapstructure:"event_buffer_size"`
	RetryDelay        time.Duration `mapstructure:"retry_delay"`
}

// GamepadConfig toggles the Windows XInput tracker. Non-Windows builds
// ignore Enabled and always run without a gamepad manager.
type GamepadConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// TelemetryConfig wires the optional outward-facing event bridges.
type TelemetryConfig struct {
	MQTT MQTTBridgeConfig `mapstructure:"mqtt"`
	WebSocket WebSocketBridgeConfig `mapstructure:"websocket"`
}

type MQTTBridgeConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	BrokerURL string        `mapstructure:"broker_url"`
	ClientID  string        `mapstructure:"client_id"`
	Topic     string        `mapstructure:"topic"`
	QoS       byte          `mapstructure:"qos"`
	KeepAlive time.Duration `mapstructure:"keep_alive"`
}

type WebSocketBridgeConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads the configuration file at path, applies defaults, then lets
// TOYCOMMD_-prefixed environment variables override anything set.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("TOYCOMMD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	applyDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("service.name", "toycommd")
	v.SetDefault("service.environment", "development")

	v.SetDefault("http.port", 8090)
	v.SetDefault("http.read_timeout", 10*time.Second)
	v.SetDefault("http.write_timeout", 10*time.Second)
	v.SetDefault("http.idle_timeout", 60*time.Second)

	v.SetDefault("dongle.command_buffer_size", 16)
	v.SetDefault("dongle.event_buffer_size", 16)
	v.SetDefault("dongle.retry_delay", 2*time.Second)

	v.SetDefault("gamepad.enabled", true)

	v.SetDefault("telemetry.mqtt.enabled", false)
	v.SetDefault("telemetry.mqtt.broker_url", "tcp://localhost:1883")
	v.SetDefault("telemetry.mqtt.client_id", "toycommd")
	v.SetDefault("telemetry.mqtt.topic", "toycommd/events")
	v.SetDefault("telemetry.mqtt.qos", byte(1))
	v.SetDefault("telemetry.mqtt.keep_alive", 30*time.Second)

	v.SetDefault("telemetry.websocket.enabled", false)
	v.SetDefault("telemetry.websocket.path", "/ws/events")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

func validate(cfg *Config) error {
	if cfg.Dongle.CommandBufferSize < 1 {
		return fmt.Errorf("dongle.command_buffer_size must be at least 1")
	}
	if cfg.Dongle.EventBufferSize < 1 {
		return fmt.Errorf("dongle.event_buffer_size must be at least 1")
	}
	if cfg.Telemetry.MQTT.Enabled && cfg.Telemetry.MQTT.BrokerURL == "" {
		return fmt.Errorf("telemetry.mqtt.broker_url is required when telemetry.mqtt.enabled is true")
	}
	return nil
}
