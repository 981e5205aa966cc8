package dongle

import (
	"context"
	"sync/atomic"

	"github.com/nexus-edge/toycomm/internal/domain"
	"github.com/rs/zerolog"
)

// Manager owns the command/event channels a caller uses to drive one
// dongle session and runs the state dispatch loop for its lifetime.
type Manager struct {
	logger   zerolog.Logger
	commands chan domain.ExternalCommand
	events   chan domain.DiscoveryEvent
	scanning atomic.Bool
}

// NewManager builds a Manager with unstarted channels; call Run to drive
// the session. commandBuffer/eventBuffer size the respective channels —
// callers issuing StartScanning/StopScanning back to back should size
// commandBuffer generously since the state machine processes one command
// at a time.
func NewManager(logger zerolog.Logger, commandBuffer, eventBuffer int) *Manager {
	return &Manager{
		logger:   logger,
		commands: make(chan domain.ExternalCommand, commandBuffer),
		events:   make(chan domain.DiscoveryEvent, eventBuffer),
	}
}

// Commands returns the channel external callers send StartScanning,
// StopScanning, and DongleFound commands on.
func (m *Manager) Commands() chan<- domain.ExternalCommand { return m.commands }

// Events returns the channel DeviceFound/DeviceDisconnected/ScanningFinished
// events are delivered on.
func (m *Manager) Events() <-chan domain.DiscoveryEvent { return m.events }

// Scanning reports whether the manager currently believes it is
// scanning, for external health/metrics reporting.
func (m *Manager) Scanning() bool { return m.scanning.Load() }

// Run drives the state dispatch loop until the command channel is closed,
// the attached dongle's read channel closes, or ctx is canceled. It always
// starts at WaitForDongle: a fresh Manager,
// and a Manager recovering from a dongle hang via the supervisor, both
// begin the same way — no dongle is known to be present yet.
func (m *Manager) Run(ctx context.Context) {
	var current State = newWaitForDongleState(m.commands, m.events, &m.scanning, m.logger)
	for current != nil {
		next := current.transition(ctx)
		if next == nil {
			if recoverer, ok := current.(hubRecoverer); ok {
				next = newIdleState(recoverer.recoverHub(), m.logger)
			}
		}
		current = next
	}
	m.logger.Info().Msg("dongle session ended")
}
