package gamepad

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/nexus-edge/toycomm/internal/domain"
	"github.com/rs/zerolog"
)

// pollInterval is the 2 Hz sweep period for the connection-tracking
// poller (§4.2).
const pollInterval = 500 * time.Millisecond

// Tracker maintains the bitmap of presently-connected gamepad slots and
// the lifecycle of the single shared polling task that keeps it honest.
// The bitmap is the single source of truth for "is slot N connected";
// bitmap updates and the "should I start the poller" decision are
// serialized under one mutex so the poller is started exactly once per
// zero-to-nonzero transition, regardless of which entry point (add vs
// addWithSender) triggers it.
type Tracker struct {
	api API
	log zerolog.Logger

	mu          sync.Mutex
	connected   atomic.Uint32 // bitmap, read lock-free via Connected
	pollRunning bool
}

func NewTracker(api API, logger zerolog.Logger) *Tracker {
	return &Tracker{
		api: api,
		log: logger.With().Str("component", "gamepad-tracker").Logger(),
	}
}

// Add marks a slot connected and starts the poller if it isn't running.
// A poller started by Add has no sink and reports no disconnect events;
// if a poller is already running, it keeps the sink it was started with.
func (t *Tracker) Add(slot Index) {
	t.add(slot, nil)
}

// AddWithSender is the same as Add, but when this call starts the poller,
// that poller publishes DeviceDisconnected events for every slot onto
// sink. If a poller is already running, sink is not used: disconnects go
// to whatever sink (if any) the running poller was started with.
func (t *Tracker) AddWithSender(slot Index, sink chan<- domain.DiscoveryEvent) {
	t.add(slot, sink)
}

func (t *Tracker) add(slot Index, sink chan<- domain.DiscoveryEvent) {
	t.mu.Lock()
	bitmap := t.connected.Load()
	shouldStart := bitmap == 0 && !t.pollRunning
	t.connected.Store(bitmap | uint32(slot.bit()))
	if shouldStart {
		t.pollRunning = true
	}
	t.mu.Unlock()

	if shouldStart {
		go t.pollLoop(sink)
	}
}

// Connected is a lock-free query of whether slot is currently connected.
func (t *Tracker) Connected(slot Index) bool {
	return t.connected.Load()&uint32(slot.bit()) != 0
}

// ConnectedCount reports how many slots are currently connected, for
// metrics reporting.
func (t *Tracker) ConnectedCount() int {
	bitmap := t.connected.Load()
	count := 0
	for _, slot := range allSlots {
		if bitmap&uint32(slot.bit()) != 0 {
			count++
		}
	}
	return count
}

// pollLoop is the single shared polling task. Each sweep snapshots the
// bitmap; for every set bit whose GetState call now errors, it clears the
// bit and emits a disconnect. If the bitmap reaches zero, the poller
// clears its running flag and exits — there is exactly one poller alive
// at any time regardless of how many slots fill or empty.
func (t *Tracker) pollLoop(sink chan<- domain.DiscoveryEvent) {
	for {
		if t.stopPollingIfEmpty() {
			return
		}
		bitmap := t.connected.Load()

		for _, slot := range allSlots {
			if bitmap&uint32(slot.bit()) == 0 {
				continue
			}
			if err := t.api.GetState(slot); err != nil {
				t.log.Info().Str("address", slot.Address()).Err(err).Msg("gamepad disconnected")
				bitmap = t.clearSlot(slot)
				if sink != nil {
					sink <- domain.DeviceDisconnectedEvent(slot.Address())
				}
				if bitmap == 0 && t.stopPollingIfEmpty() {
					return
				}
			}
		}

		time.Sleep(pollInterval)
	}
}

func (t *Tracker) clearSlot(slot Index) uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	bitmap := t.connected.Load() &^ uint32(slot.bit())
	t.connected.Store(bitmap)
	return bitmap
}

// stopPollingIfEmpty checks the bitmap and clears the running flag under
// the same mutex add uses, so an add that lands between the poller's last
// clear and its exit either sees the flag cleared (and starts a new
// poller) or keeps this poller alive.
func (t *Tracker) stopPollingIfEmpty() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.connected.Load() != 0 {
		return false
	}
	t.pollRunning = false
	return true
}
