// Package dongle implements the session state machine that drives a
// single physical Lovense-style dongle through wait-for-hardware → idle →
// scanning → device-attached → idle, arbitrating three concurrent input
// streams (external commands, dongle protocol messages, device write
// requests) against one dongle-write output stream and one event stream.
package dongle

import (
	"context"
	"sync/atomic"

	"github.com/nexus-edge/toycomm/internal/domain"
)

// incomingKind tags the variant produced by the hub's fair-select helpers.
type incomingKind int

const (
	incomingCommMgr incomingKind = iota
	incomingDongle
	incomingDevice
	incomingDisconnect
)

// incomingMessage is the result of a single wait on the hub: exactly one
// of its payload fields is meaningful, selected by kind.
type incomingMessage struct {
	kind      incomingKind
	extCmd    domain.ExternalCommand
	dongleMsg domain.DongleIncomingMessage
	deviceMsg domain.OutgoingData
}

// ChannelHub bundles the four channel endpoints and the shared scanning
// flag that move, as a unit, between states. At most one state holds a
// live reference to a given hub at any time — the dispatch loop in
// manager.go hands it from one state's constructor to the next only after
// the previous state's transition has returned, so two states never
// observe it concurrently.
type ChannelHub struct {
	commIncoming   <-chan domain.ExternalCommand
	dongleOutgoing chan<- domain.OutgoingData
	dongleIncoming <-chan domain.DongleIncomingMessage
	eventOutgoing  chan<- domain.DiscoveryEvent
	scanning       *atomic.Bool
}

func newChannelHub(
	commIncoming <-chan domain.ExternalCommand,
	dongleOutgoing chan<- domain.OutgoingData,
	dongleIncoming <-chan domain.DongleIncomingMessage,
	eventOutgoing chan<- domain.DiscoveryEvent,
	scanning *atomic.Bool,
) *ChannelHub {
	return &ChannelHub{
		commIncoming:   commIncoming,
		dongleOutgoing: dongleOutgoing,
		dongleIncoming: dongleIncoming,
		eventOutgoing:  eventOutgoing,
		scanning:       scanning,
	}
}

// waitForInput arbitrates the two channels live outside DeviceLoop: the
// external command source and the dongle. Each channel delivers in its
// own FIFO order; when both are ready at once, Go's select picks one at
// random, so neither source can starve the other.
func (h *ChannelHub) waitForInput(ctx context.Context) incomingMessage {
	select {
	case cmd, ok := <-h.commIncoming:
		if !ok {
			return incomingMessage{kind: incomingDisconnect}
		}
		return incomingMessage{kind: incomingCommMgr, extCmd: cmd}
	case msg, ok := <-h.dongleIncoming:
		if !ok {
			return incomingMessage{kind: incomingDisconnect}
		}
		return incomingMessage{kind: incomingDongle, dongleMsg: msg}
	case <-ctx.Done():
		return incomingMessage{kind: incomingDisconnect}
	}
}

// waitForDeviceInput is waitForInput plus a third source: the owning
// device object's write requests, live only while DeviceLoop holds the
// hub.
func (h *ChannelHub) waitForDeviceInput(ctx context.Context, deviceIncoming <-chan domain.OutgoingData) incomingMessage {
	select {
	case cmd, ok := <-h.commIncoming:
		if !ok {
			return incomingMessage{kind: incomingDisconnect}
		}
		return incomingMessage{kind: incomingCommMgr, extCmd: cmd}
	case msg, ok := <-h.dongleIncoming:
		if !ok {
			return incomingMessage{kind: incomingDisconnect}
		}
		return incomingMessage{kind: incomingDongle, dongleMsg: msg}
	case dm, ok := <-deviceIncoming:
		if !ok {
			return incomingMessage{kind: incomingDisconnect}
		}
		return incomingMessage{kind: incomingDevice, deviceMsg: dm}
	case <-ctx.Done():
		return incomingMessage{kind: incomingDisconnect}
	}
}

func (h *ChannelHub) sendOutput(ctx context.Context, msg domain.OutgoingData) {
	select {
	case h.dongleOutgoing <- msg:
	case <-ctx.Done():
	}
}

func (h *ChannelHub) sendEvent(ctx context.Context, ev domain.DiscoveryEvent) {
	select {
	case h.eventOutgoing <- ev:
	case <-ctx.Done():
	}
}

func (h *ChannelHub) setScanning(isScanning bool) {
	h.scanning.Store(isScanning)
}

// drainPendingDongle discards whatever is currently queued on the dongle
// channel, without blocking on anything else. It never touches
// commIncoming, so a queued command is still delivered to the caller's
// next waitForInput.
func (h *ChannelHub) drainPendingDongle() {
	for {
		select {
		case <-h.dongleIncoming:
		default:
			return
		}
	}
}
