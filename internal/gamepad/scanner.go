package gamepad

import (
	"sync"
	"time"

	"github.com/nexus-edge/toycomm/internal/domain"
	"github.com/rs/zerolog"
)

// scanInterval is the 1 Hz sweep period for the discovery scanner (§4.2).
const scanInterval = 1 * time.Second

// Scanner polls all four slots looking for newly-present controllers not
// yet known to the paired Tracker, emitting DeviceFound and registering
// them. It is a separate loop from the Tracker's own poller: discovery and
// connectivity-tracking are different concerns operating at different
// rates.
type Scanner struct {
	api     API
	tracker *Tracker
	log     zerolog.Logger

	mu      sync.Mutex
	stopCh  chan struct{}
	running bool
}

func NewScanner(api API, tracker *Tracker, logger zerolog.Logger) *Scanner {
	return &Scanner{
		api:     api,
		tracker: tracker,
		log:     logger.With().Str("component", "gamepad-scanner").Logger(),
	}
}

// StartScanning launches the scan loop if it is not already running.
func (s *Scanner) StartScanning(events chan<- domain.DiscoveryEvent) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	stop := s.stopCh
	s.mu.Unlock()

	go s.scanLoop(events, stop)
}

// StopScanning raises the external stop signal. The scan loop emits
// ScanningFinished exactly once, on the sweep in which it observes the
// signal.
func (s *Scanner) StopScanning() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	close(s.stopCh)
	s.running = false
}

func (s *Scanner) scanLoop(events chan<- domain.DiscoveryEvent, stop <-chan struct{}) {
	for {
		for _, slot := range allSlots {
			if s.tracker.Connected(slot) {
				continue
			}
			if err := s.api.GetState(slot); err != nil {
				continue
			}
			s.log.Info().Str("address", slot.Address()).Msg("gamepad found")
			creator := newDeviceCreator(slot)
			s.tracker.Add(slot)
			events <- domain.DeviceFoundEvent(slot.Address(), slot.Address(), creator)
		}

		select {
		case <-time.After(scanInterval):
		case <-stop:
			events <- domain.ScanningFinishedEvent()
			return
		}
	}
}
