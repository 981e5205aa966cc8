package gamepad

import (
	"sync"

	"github.com/nexus-edge/toycomm/internal/domain"
	"github.com/rs/zerolog"
)

// Manager is process-wide: the host exposes exactly one gamepad API
// instance, so the Tracker and Scanner are initialized lazily on first use
// and shared for the life of the process.
type Manager struct {
	once    sync.Once
	api     API
	log     zerolog.Logger
	tracker *Tracker
	scanner *Scanner
}

func NewManager(api API, logger zerolog.Logger) *Manager {
	return &Manager{api: api, log: logger}
}

func (m *Manager) ensure() {
	m.once.Do(func() {
		m.tracker = NewTracker(m.api, m.log)
		m.scanner = NewScanner(m.api, m.tracker, m.log)
	})
}

// StartScanning begins the discovery scan loop; DeviceFound and
// ScanningFinished events are delivered on events.
func (m *Manager) StartScanning(events chan<- domain.DiscoveryEvent) {
	m.ensure()
	m.scanner.StartScanning(events)
}

// StopScanning raises the scanner's stop signal.
func (m *Manager) StopScanning() {
	m.ensure()
	m.scanner.StopScanning()
}

// Tracker exposes the shared connection tracker, e.g. so a caller can
// report how many slots are connected.
func (m *Manager) Tracker() *Tracker {
	m.ensure()
	return m.tracker
}
