package dongle

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/nexus-edge/toycomm/internal/domain"
	"github.com/rs/zerolog"
)

// State is one link in the session state machine. transition runs to
// completion and returns the next state, or nil to signal the dispatch
// loop in manager.go that this segment of the session is over. A nil
// return means one of two things, disambiguated by whether the state
// also implements hubRecoverer: an input went away for good (the external
// command channel or the dongle's read channel closed, or ctx was
// canceled) and the session ends, or scanning simply finished and the hub
// underneath it is still perfectly usable (loop back to Idle).
type State interface {
	transition(ctx context.Context) State
}

// hubRecoverer is implemented by states that can return nil while still
// holding a live hub, so the dispatch loop can hand that hub straight to
// a fresh Idle rather than tearing the whole session down.
type hubRecoverer interface {
	recoverHub() *ChannelHub
}

const dongleProbeSettle = 250 * time.Millisecond

// --- WaitForDongle -----------------------------------------------------

// waitForDongleState is the entry point: no physical dongle has been
// found yet, so only the external command channel is live. A
// StartScanning arriving here is latched rather than dropped — once the
// dongle does show up we jump straight into scanning instead of forcing
// the caller to re-issue the command (ported from the original's
// should_scan flag).
type waitForDongleState struct {
	commIncoming   <-chan domain.ExternalCommand
	eventOutgoing  chan<- domain.DiscoveryEvent
	scanning       *atomic.Bool
	logger         zerolog.Logger
	shouldScan     bool
}

func newWaitForDongleState(
	commIncoming <-chan domain.ExternalCommand,
	eventOutgoing chan<- domain.DiscoveryEvent,
	scanning *atomic.Bool,
	logger zerolog.Logger,
) *waitForDongleState {
	return &waitForDongleState{
		commIncoming:  commIncoming,
		eventOutgoing: eventOutgoing,
		scanning:      scanning,
		logger:        logger,
	}
}

func (s *waitForDongleState) transition(ctx context.Context) State {
	for {
		select {
		case cmd, ok := <-s.commIncoming:
			if !ok {
				return nil
			}
			switch cmd.Kind {
			case domain.CommandStartScanning:
				s.shouldScan = true
			case domain.CommandStopScanning:
				s.shouldScan = false
			case domain.CommandDongleFound:
				codec := startCodec(ctx, cmd.Writer, cmd.Reader, s.logger)
				hub := newChannelHub(s.commIncoming, codec.outgoing, codec.incoming, s.eventOutgoing, s.scanning)
				if s.shouldScan {
					return newStartScanningState(hub, s.logger)
				}
				return newIdleState(hub, s.logger)
			}
		case <-ctx.Done():
			return nil
		}
	}
}

// --- Idle ----------------------------------------------------------------

// idleState probes the dongle with a Status request on every entry — not
// just the first — then gives the dongle 250ms to settle before reading
// input. Anything that arrived in that window, including the probe's
// answer about a pre-connected toy, is processed afterwards in order.
type idleState struct {
	hub    *ChannelHub
	logger zerolog.Logger
}

func newIdleState(hub *ChannelHub, logger zerolog.Logger) *idleState {
	return &idleState{hub: hub, logger: logger}
}

func (s *idleState) transition(ctx context.Context) State {
	s.hub.setScanning(false)
	s.hub.sendOutput(ctx, domain.NewOutgoingMessage(domain.DongleOutgoingMessage{
		Func: domain.FuncStatus,
		Type: domain.TypeToy,
	}))

	select {
	case <-time.After(dongleProbeSettle):
	case <-ctx.Done():
		return nil
	}

	for {
		msg := s.hub.waitForInput(ctx)
		switch msg.kind {
		case incomingDisconnect:
			return nil
		case incomingCommMgr:
			switch msg.extCmd.Kind {
			case domain.CommandStartScanning:
				return newStartScanningState(s.hub, s.logger)
			case domain.CommandStopScanning:
				// already idle; nothing to stop.
			}
		case incomingDongle:
			if id, ok := connectedDeviceID(msg.dongleMsg); ok {
				creator := newDeviceCreator(id)
				s.hub.sendEvent(ctx, domain.DeviceFoundEvent(id, id, creator))
				return newDeviceLoopState(s.hub, s.logger, id, creator)
			}
			s.logger.Error().Str("func", string(msg.dongleMsg.Func)).Msg("discarding unsolicited dongle message while idle")
		}
	}
}

// --- StartScanning ---------------------------------------------------

type startScanningState struct {
	hub    *ChannelHub
	logger zerolog.Logger
}

func newStartScanningState(hub *ChannelHub, logger zerolog.Logger) *startScanningState {
	return &startScanningState{hub: hub, logger: logger}
}

func (s *startScanningState) transition(ctx context.Context) State {
	s.hub.setScanning(true)
	s.hub.sendOutput(ctx, domain.NewOutgoingMessage(domain.DongleOutgoingMessage{
		Func: domain.FuncSearch,
		Type: domain.TypeToy,
	}))
	return newScanningState(s.hub, s.logger)
}

// --- Scanning ----------------------------------------------------------

type scanningState struct {
	hub    *ChannelHub
	logger zerolog.Logger
}

func newScanningState(hub *ChannelHub, logger zerolog.Logger) *scanningState {
	return &scanningState{hub: hub, logger: logger}
}

func (s *scanningState) transition(ctx context.Context) State {
	for {
		msg := s.hub.waitForInput(ctx)
		switch msg.kind {
		case incomingDisconnect:
			return nil
		case incomingCommMgr:
			switch msg.extCmd.Kind {
			case domain.CommandStopScanning:
				return newStopScanningState(s.hub, s.logger)
			case domain.CommandStartScanning:
				// already scanning.
			}
		case incomingDongle:
			if msg.dongleMsg.Func != domain.FuncToyData {
				s.logger.Error().Str("func", string(msg.dongleMsg.Func)).Msg("discarding unrecognized dongle message while scanning")
				continue
			}
			if id, ok := toyDataDeviceID(msg.dongleMsg); ok {
				return newStopScanningAndConnectState(s.hub, s.logger, id)
			}
			if toyDataSearchEndedWithoutFind(msg.dongleMsg) {
				return newIdleState(s.hub, s.logger)
			}
			s.logger.Error().Msg("discarding ToyData with neither data nor result while scanning")
		}
	}
}

// connectedDeviceID recognizes the unsolicited IncomingStatus notification
// Idle is waiting for: a toy already paired with the dongle before this
// session even started scanning.
func connectedDeviceID(msg domain.DongleIncomingMessage) (string, bool) {
	if msg.Func != domain.FuncIncomingStatus || msg.Data == nil || msg.Data.Status == nil {
		return "", false
	}
	if *msg.Data.Status != domain.ResultDeviceConnectSuccess {
		return "", false
	}
	return msg.Data.ID, true
}

// toyDataDeviceID recognizes a ToyData message that found a toy: data is
// present and carries the toy's id.
func toyDataDeviceID(msg domain.DongleIncomingMessage) (string, bool) {
	if msg.Data == nil {
		return "", false
	}
	return msg.Data.ID, true
}

// toyDataSearchEndedWithoutFind recognizes a ToyData message that carries
// only a result code: the search ran to completion without finding anything.
func toyDataSearchEndedWithoutFind(msg domain.DongleIncomingMessage) bool {
	return msg.Data == nil && msg.Result != nil
}

// --- StopScanning --------------------------------------------------------

// stopScanningState always returns nil — StopScanning is a terminal node
// in the original state graph too. The dispatch loop recognizes it via
// hubRecoverer and re-enters Idle with the same hub rather than ending
// the session, which is the one deliberate behavioral fix over the
// original (see design notes on the StopScanning open question).
type stopScanningState struct {
	hub    *ChannelHub
	logger zerolog.Logger
}

func newStopScanningState(hub *ChannelHub, logger zerolog.Logger) *stopScanningState {
	return &stopScanningState{hub: hub, logger: logger}
}

func (s *stopScanningState) transition(ctx context.Context) State {
	s.hub.setScanning(false)
	s.hub.sendOutput(ctx, domain.NewOutgoingMessage(domain.DongleOutgoingMessage{
		Func: domain.FuncStopSearch,
		Type: domain.TypeUSB,
	}))
	s.hub.sendEvent(ctx, domain.ScanningFinishedEvent())
	return nil
}

func (s *stopScanningState) recoverHub() *ChannelHub { return s.hub }

// --- StopScanningAndConnect ----------------------------------------------

// stopScanningAndConnectState waits for the dongle's search_stopped ack
// before announcing the device that triggered it, so the DeviceFound
// event never races a StopScanning the caller issued concurrently.
type stopScanningAndConnectState struct {
	hub      *ChannelHub
	logger   zerolog.Logger
	deviceID string
}

func newStopScanningAndConnectState(hub *ChannelHub, logger zerolog.Logger, deviceID string) *stopScanningAndConnectState {
	return &stopScanningAndConnectState{hub: hub, logger: logger, deviceID: deviceID}
}

func (s *stopScanningAndConnectState) transition(ctx context.Context) State {
	s.hub.sendOutput(ctx, domain.NewOutgoingMessage(domain.DongleOutgoingMessage{
		Func: domain.FuncStopSearch,
		Type: domain.TypeUSB,
	}))

	for {
		msg := s.hub.waitForInput(ctx)
		switch msg.kind {
		case incomingDisconnect:
			return nil
		case incomingCommMgr:
			// StartScanning/StopScanning arriving mid-handshake are
			// ignored; the handshake already in flight wins.
		case incomingDongle:
			if searchStopped(msg.dongleMsg) {
				s.hub.setScanning(false)
				s.hub.sendEvent(ctx, domain.ScanningFinishedEvent())
				creator := newDeviceCreator(s.deviceID)
				s.hub.sendEvent(ctx, domain.DeviceFoundEvent("LovenseDongleDevice", s.deviceID, creator))
				return newDeviceLoopState(s.hub, s.logger, s.deviceID, creator)
			}
			s.logger.Error().Str("func", string(msg.dongleMsg.Func)).Msg("discarding dongle message while stopping scan")
		}
	}
}

func searchStopped(msg domain.DongleIncomingMessage) bool {
	return msg.Func == domain.FuncSearch && msg.Result != nil && *msg.Result == domain.ResultSearchStopped
}

// --- DeviceLoop ------------------------------------------------------

// deviceLoopState is live for as long as exactly one toy is attached. Its
// three-way select forwards every dongle message it doesn't recognize as
// a disconnect straight up to the device's own read channel, rather than
// discarding it — ToyData acks and battery reports are meaningful to
// whatever owns the toy object even though this state doesn't parse them.
type deviceLoopState struct {
	hub      *ChannelHub
	logger   zerolog.Logger
	deviceID string
	creator  *deviceCreator
}

func newDeviceLoopState(hub *ChannelHub, logger zerolog.Logger, deviceID string, creator *deviceCreator) *deviceLoopState {
	return &deviceLoopState{hub: hub, logger: logger, deviceID: deviceID, creator: creator}
}

func (s *deviceLoopState) transition(ctx context.Context) State {
	for {
		msg := s.hub.waitForDeviceInput(ctx, s.creator.writes)
		switch msg.kind {
		case incomingDisconnect:
			return nil
		case incomingCommMgr:
			// a dongle can only service one attached toy at a time in
			// this protocol, so scanning is a no-op while a device owns
			// it — but the original still acks with ScanningFinished for
			// either Start or Stop, and we preserve that quirk verbatim
			// (spec.md open question 9(a)) rather than silently dropping it.
			switch msg.extCmd.Kind {
			case domain.CommandStartScanning, domain.CommandStopScanning:
				s.hub.sendEvent(ctx, domain.ScanningFinishedEvent())
			}
		case incomingDongle:
			if disconnected, id := deviceDisconnected(msg.dongleMsg); disconnected && id == s.deviceID {
				s.hub.sendEvent(ctx, domain.DeviceDisconnectedEvent(s.deviceID))
				return newIdleState(s.hub, s.logger)
			}
			s.forwardToDevice(msg.dongleMsg)
		case incomingDevice:
			s.hub.sendOutput(ctx, msg.deviceMsg)
		}
	}
}

func (s *deviceLoopState) forwardToDevice(msg domain.DongleIncomingMessage) {
	select {
	case s.creator.reads <- msg:
	default:
		s.logger.Warn().Str("device", s.deviceID).Msg("dropping dongle frame, device read channel full")
	}
}

func deviceDisconnected(msg domain.DongleIncomingMessage) (bool, string) {
	if msg.Func != domain.FuncIncomingStatus || msg.Data == nil || msg.Data.Status == nil {
		return false, ""
	}
	if *msg.Data.Status != domain.ResultDeviceDisconnected {
		return false, ""
	}
	return true, msg.Data.ID
}
