// Command toycommd is the entry point for the toy communication daemon.
// It drives one Lovense-style USB dongle through a reconnecting session
// state machine, tracks XInput gamepads as a second device class, and
// exposes both over optional MQTT/websocket telemetry bridges plus a
// health/metrics HTTP surface.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nexus-edge/toycomm/internal/adapter/config"
	"github.com/nexus-edge/toycomm/internal/dongle"
	"github.com/nexus-edge/toycomm/internal/dongle/usbscan"
	"github.com/nexus-edge/toycomm/internal/domain"
	"github.com/nexus-edge/toycomm/internal/gamepad"
	"github.com/nexus-edge/toycomm/internal/health"
	"github.com/nexus-edge/toycomm/internal/metrics"
	"github.com/nexus-edge/toycomm/internal/telemetry/mqttbridge"
	"github.com/nexus-edge/toycomm/internal/telemetry/wsbridge"
	"github.com/nexus-edge/toycomm/pkg/logging"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const configPathEnv = "TOYCOMMD_CONFIG"

func main() {
	configPath := os.Getenv(configPathEnv)
	if configPath == "" {
		configPath = "config.yaml"
	}

	bootLogger := logging.NewLogger("info", "console")
	cfg, err := config.Load(configPath)
	if err != nil {
		bootLogger.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger := logging.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info().Str("service", cfg.Service.Name).Str("env", cfg.Service.Environment).Msg("starting toycommd")

	metricsRegistry := metrics.NewRegistry()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dongleMgr := dongle.NewManager(
		logging.WithComponent(logger, "dongle-manager"),
		cfg.Dongle.CommandBufferSize,
		cfg.Dongle.EventBufferSize,
	)

	scanner := usbscan.NewScanner(logging.WithComponent(logger, "usb-scanner"))
	defer scanner.Close()

	supervisor := dongle.NewSupervisor(dongleMgr, scanner, logging.WithComponent(logger, "dongle-supervisor"))
	go func() {
		if err := supervisor.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error().Err(err).Msg("dongle supervisor exited")
		}
	}()

	fanOut := newEventFanout()
	go fanOut.pump(ctx, dongleMgr.Events())

	var gamepadMgr *gamepad.Manager
	if cfg.Gamepad.Enabled {
		api, err := gamepad.NewHostAPI()
		if err != nil {
			logger.Warn().Err(err).Msg("gamepad support unavailable on this platform")
		} else {
			gamepadMgr = gamepad.NewManager(api, logging.WithComponent(logger, "gamepad-manager"))
			gamepadEvents := make(chan domain.DiscoveryEvent, cfg.Dongle.EventBufferSize)
			gamepadMgr.StartScanning(gamepadEvents)
			go fanOut.pump(ctx, gamepadEvents)
		}
	}

	go fanOut.trackMetrics(metricsRegistry, dongleMgr, gamepadMgr)

	var mqttBridge *mqttbridge.Bridge
	if cfg.Telemetry.MQTT.Enabled {
		mqttBridge = mqttbridge.New(mqttbridge.Config{
			BrokerURL: cfg.Telemetry.MQTT.BrokerURL,
			ClientID:  cfg.Telemetry.MQTT.ClientID,
			Topic:     cfg.Telemetry.MQTT.Topic,
			QoS:       cfg.Telemetry.MQTT.QoS,
			KeepAlive: cfg.Telemetry.MQTT.KeepAlive,
		}, logging.WithComponent(logger, "mqtt-bridge"))
		if err := mqttBridge.Connect(ctx); err != nil {
			logger.Error().Err(err).Msg("failed to connect mqtt telemetry bridge")
			mqttBridge = nil
		} else {
			go mqttBridge.Run(ctx, fanOut.subscribe())
			defer mqttBridge.Disconnect()
		}
	}

	var wsBridge *wsbridge.Bridge
	if cfg.Telemetry.WebSocket.Enabled {
		wsBridge = wsbridge.New(logging.WithComponent(logger, "ws-bridge"))
		go wsBridge.Run(fanOut.subscribe())
	}

	mux := http.NewServeMux()
	healthChecker := health.NewChecker(dongleMgr, logging.WithComponent(logger, "health-checker"))
	mux.HandleFunc("/health", healthChecker.HealthHandler)
	mux.HandleFunc("/health/live", healthChecker.LiveHandler)
	mux.HandleFunc("/health/ready", healthChecker.ReadyHandler)
	mux.Handle("/metrics", promhttp.Handler())
	if wsBridge != nil {
		mux.HandleFunc(cfg.Telemetry.WebSocket.Path, wsBridge.Handler)
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      mux,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		logger.Info().Int("port", cfg.HTTP.Port).Msg("starting http server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutdown signal received, initiating graceful shutdown")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("error shutting down http server")
	}

	logger.Info().Msg("toycommd shutdown complete")
}
