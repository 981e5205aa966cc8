// Package metrics holds the Prometheus registry for toycommd.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds every metric the daemon exports.
type Registry struct {
	devicesDiscovered prometheus.Counter
	devicesLost       prometheus.Counter
	dongleWriteErrors prometheus.Counter
	dongleReconnects  prometheus.Counter
	vibrateCommands   prometheus.Counter
	gamepadConnected  prometheus.Gauge
	scanning          prometheus.Gauge
}

func NewRegistry() *Registry {
	return &Registry{
		devicesDiscovered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "toycommd_devices_discovered_total",
			Help: "Total number of DeviceFound events across all transports",
		}),
		devicesLost: promauto.NewCounter(prometheus.CounterOpts{
			Name: "toycommd_devices_lost_total",
			Help: "Total number of DeviceDisconnected events across all transports",
		}),
		dongleWriteErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "toycommd_dongle_write_errors_total",
			Help: "Total number of failed writes to the dongle or an attached toy",
		}),
		dongleReconnects: promauto.NewCounter(prometheus.CounterOpts{
			Name: "toycommd_dongle_reconnects_total",
			Help: "Total number of dongle sessions started by the reconnect supervisor",
		}),
		vibrateCommands: promauto.NewCounter(prometheus.CounterOpts{
			Name: "toycommd_vibrate_commands_total",
			Help: "Total number of vibrate commands committed to a device",
		}),
		gamepadConnected: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "toycommd_gamepad_connected_count",
			Help: "Current number of connected XInput controllers",
		}),
		scanning: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "toycommd_scanning",
			Help: "1 if the dongle is currently scanning for toys, 0 otherwise",
		}),
	}
}

func (r *Registry) IncDevicesDiscovered() { r.devicesDiscovered.Inc() }
func (r *Registry) IncDevicesLost()       { r.devicesLost.Inc() }
func (r *Registry) IncDongleWriteErrors() { r.dongleWriteErrors.Inc() }
func (r *Registry) IncDongleReconnects()  { r.dongleReconnects.Inc() }
func (r *Registry) IncVibrateCommands()   { r.vibrateCommands.Inc() }

func (r *Registry) SetGamepadConnected(count int) { r.gamepadConnected.Set(float64(count)) }

func (r *Registry) SetScanning(isScanning bool) {
	if isScanning {
		r.scanning.Set(1)
		return
	}
	r.scanning.Set(0)
}
