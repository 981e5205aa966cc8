package main

import (
	"context"
	"sync"
	"time"

	"github.com/nexus-edge/toycomm/internal/dongle"
	"github.com/nexus-edge/toycomm/internal/domain"
	"github.com/nexus-edge/toycomm/internal/gamepad"
	"github.com/nexus-edge/toycomm/internal/metrics"
)

// eventFanout multiplexes discovery events from both the dongle manager
// and the gamepad manager out to every telemetry bridge and metrics
// consumer that subscribes, so neither bridge has to know the other
// exists.
type eventFanout struct {
	mu   sync.Mutex
	subs []chan domain.DiscoveryEvent
}

func newEventFanout() *eventFanout {
	return &eventFanout{}
}

// subscribe returns a new channel that receives the events passed to pump
// from then on. Delivery never blocks: an event is dropped for a
// subscriber whose 32-slot buffer is full.
func (f *eventFanout) subscribe() <-chan domain.DiscoveryEvent {
	ch := make(chan domain.DiscoveryEvent, 32)
	f.mu.Lock()
	f.subs = append(f.subs, ch)
	f.mu.Unlock()
	return ch
}

// pump reads from source until it closes or ctx is canceled, broadcasting
// every event to all current subscribers.
func (f *eventFanout) pump(ctx context.Context, source <-chan domain.DiscoveryEvent) {
	for {
		select {
		case ev, ok := <-source:
			if !ok {
				return
			}
			f.broadcast(ev)
		case <-ctx.Done():
			return
		}
	}
}

func (f *eventFanout) broadcast(ev domain.DiscoveryEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, sub := range f.subs {
		select {
		case sub <- ev:
		default:
		}
	}
}

// trackMetrics subscribes to the fanout and maintains the Prometheus
// gauges/counters that summarize discovery activity across both
// transports.
func (f *eventFanout) trackMetrics(reg *metrics.Registry, dongleMgr *dongle.Manager, gamepadMgr *gamepad.Manager) {
	events := f.subscribe()
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			switch ev.Kind {
			case domain.EventDeviceFound:
				reg.IncDevicesDiscovered()
			case domain.EventDeviceDisconnected:
				reg.IncDevicesLost()
			}
		case <-ticker.C:
			reg.SetScanning(dongleMgr.Scanning())
			if gamepadMgr != nil {
				reg.SetGamepadConnected(gamepadMgr.Tracker().ConnectedCount())
			}
		}
	}
}
