package dongle

import (
	"context"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/nexus-edge/toycomm/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestHarness(t *testing.T) (*Manager, chan []byte, chan []byte, func()) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	mgr := NewManager(zerolog.Nop(), 8, 8)
	go mgr.Run(ctx)

	rawToDongle := make(chan []byte, 16)
	rawFromDongle := make(chan []byte, 16)
	mgr.Commands() <- domain.DongleFoundCommand(rawToDongle, rawFromDongle)

	return mgr, rawToDongle, rawFromDongle, cancel
}

func sendDongleLine(t *testing.T, raw chan []byte, msg domain.DongleIncomingMessage) {
	t.Helper()
	line, err := json.Marshal(msg)
	require.NoError(t, err)
	raw <- line
}

func requireEvent(t *testing.T, events <-chan domain.DiscoveryEvent, kind domain.DiscoveryEventKind) domain.DiscoveryEvent {
	t.Helper()
	select {
	case ev := <-events:
		require.Equal(t, kind, ev.Kind)
		return ev
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for event kind %v", kind)
		return domain.DiscoveryEvent{}
	}
}

func requireOutgoing(t *testing.T, raw <-chan []byte, wantFunc domain.DongleMessageFunc) domain.DongleOutgoingMessage {
	t.Helper()
	select {
	case line := <-raw:
		var msg domain.DongleOutgoingMessage
		require.NoError(t, json.Unmarshal(line, &msg))
		require.Equal(t, wantFunc, msg.Func)
		return msg
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for outgoing func %s", wantFunc)
		return domain.DongleOutgoingMessage{}
	}
}

// S5 — start scanning, a toy is found over ToyData, the manager stops the
// search and attaches the device, then the device later disconnects and
// the session returns to Idle (observable as a fresh Status probe).
func TestManager_ScanConnectDisconnectCycle(t *testing.T) {
	mgr, toDongle, fromDongle, cancel := newTestHarness(t)
	defer cancel()

	requireOutgoing(t, toDongle, domain.FuncStatus) // Idle's entry probe

	mgr.Commands() <- domain.StartScanningCommand()
	requireOutgoing(t, toDongle, domain.FuncSearch)
	require.True(t, mgr.Scanning())

	sendDongleLine(t, fromDongle, domain.DongleIncomingMessage{
		Func: domain.FuncToyData,
		Type: domain.TypeToy,
		Data: &domain.IncomingStatusData{ID: "toy-1"},
	})

	requireOutgoing(t, toDongle, domain.FuncStopSearch)

	stoppedResult := domain.ResultSearchStopped
	sendDongleLine(t, fromDongle, domain.DongleIncomingMessage{
		Func:   domain.FuncSearch,
		Type:   domain.TypeUSB,
		Result: &stoppedResult,
	})

	requireEvent(t, mgr.Events(), domain.EventScanningFinished)
	found := requireEvent(t, mgr.Events(), domain.EventDeviceFound)
	require.Equal(t, "toy-1", found.Address)
	require.False(t, mgr.Scanning())

	disconnectStatus := domain.ResultDeviceDisconnected
	sendDongleLine(t, fromDongle, domain.DongleIncomingMessage{
		Func: domain.FuncIncomingStatus,
		Type: domain.TypeUSB,
		Data: &domain.IncomingStatusData{ID: "toy-1", Status: &disconnectStatus},
	})

	gone := requireEvent(t, mgr.Events(), domain.EventDeviceDisconnected)
	require.Equal(t, "toy-1", gone.Address)

	requireOutgoing(t, toDongle, domain.FuncStatus) // back in Idle
}

// A ToyData carrying only a result code means the search ran to completion
// without finding anything; Scanning falls straight back to Idle.
func TestManager_ScanEndsWithoutFind(t *testing.T) {
	mgr, toDongle, fromDongle, cancel := newTestHarness(t)
	defer cancel()

	requireOutgoing(t, toDongle, domain.FuncStatus)

	mgr.Commands() <- domain.StartScanningCommand()
	requireOutgoing(t, toDongle, domain.FuncSearch)

	stoppedResult := domain.ResultSearchStopped
	sendDongleLine(t, fromDongle, domain.DongleIncomingMessage{
		Func:   domain.FuncToyData,
		Type:   domain.TypeToy,
		Result: &stoppedResult,
	})

	requireOutgoing(t, toDongle, domain.FuncStatus) // Idle re-entered, fresh probe
}

// StopScanning issued while already idle is a no-op (no ScanningFinished
// fires); StopScanning issued while actively scanning stops cleanly and the
// session is immediately usable again (observable via a fresh Status probe
// reached without resending StartScanning).
func TestManager_StopScanningIdleIsNoop(t *testing.T) {
	mgr, toDongle, _, cancel := newTestHarness(t)
	defer cancel()

	requireOutgoing(t, toDongle, domain.FuncStatus)

	mgr.Commands() <- domain.StopScanningCommand()

	select {
	case ev := <-mgr.Events():
		t.Fatalf("unexpected event while idle: %+v", ev)
	case <-time.After(500 * time.Millisecond):
	}
}

func TestManager_StopScanningWhileScanningReentersIdle(t *testing.T) {
	mgr, toDongle, _, cancel := newTestHarness(t)
	defer cancel()

	requireOutgoing(t, toDongle, domain.FuncStatus)

	mgr.Commands() <- domain.StartScanningCommand()
	requireOutgoing(t, toDongle, domain.FuncSearch)

	mgr.Commands() <- domain.StopScanningCommand()
	requireOutgoing(t, toDongle, domain.FuncStopSearch)
	requireEvent(t, mgr.Events(), domain.EventScanningFinished)
	require.False(t, mgr.Scanning())

	requireOutgoing(t, toDongle, domain.FuncStatus) // Idle re-entered on the same hub
}

// S4 — dongle cold-start with a pre-connected toy: no scan request is ever
// issued, but IncomingStatus/DeviceConnectSuccess arrives straight out of
// Idle's probe window and the session jumps directly to DeviceLoop.
func TestManager_ColdStartPreConnectedToy(t *testing.T) {
	mgr, toDongle, fromDongle, cancel := newTestHarness(t)
	defer cancel()

	requireOutgoing(t, toDongle, domain.FuncStatus)

	connectStatus := domain.ResultDeviceConnectSuccess
	sendDongleLine(t, fromDongle, domain.DongleIncomingMessage{
		Func: domain.FuncIncomingStatus,
		Type: domain.TypeUSB,
		Data: &domain.IncomingStatusData{ID: "abc", Status: &connectStatus},
	})

	found := requireEvent(t, mgr.Events(), domain.EventDeviceFound)
	require.Equal(t, "abc", found.Address)
	require.Equal(t, "abc", found.Name)
}

// spec.md open question 9(a): a Start/StopScanning command arriving while
// DeviceLoop owns the hub is a no-op except that it still emits
// ScanningFinished, reproducing the source's suspect-but-real behavior.
func TestManager_DeviceLoopScanCommandEmitsScanningFinished(t *testing.T) {
	mgr, toDongle, fromDongle, cancel := newTestHarness(t)
	defer cancel()

	requireOutgoing(t, toDongle, domain.FuncStatus)

	connectStatus := domain.ResultDeviceConnectSuccess
	sendDongleLine(t, fromDongle, domain.DongleIncomingMessage{
		Func: domain.FuncIncomingStatus,
		Type: domain.TypeUSB,
		Data: &domain.IncomingStatusData{ID: "abc", Status: &connectStatus},
	})
	requireEvent(t, mgr.Events(), domain.EventDeviceFound)

	mgr.Commands() <- domain.StartScanningCommand()
	requireEvent(t, mgr.Events(), domain.EventScanningFinished)

	mgr.Commands() <- domain.StopScanningCommand()
	requireEvent(t, mgr.Events(), domain.EventScanningFinished)

	select {
	case line := <-toDongle:
		t.Fatalf("unexpected dongle write while device-attached: %s", line)
	case <-time.After(300 * time.Millisecond):
	}
}

// A StartScanning issued before the dongle is ever found is latched: once
// DongleFound arrives the session jumps straight to scanning instead of
// requiring the caller to reissue the command.
func TestManager_StartScanningLatchedBeforeDongleFound(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	mgr := NewManager(zerolog.Nop(), 8, 8)
	go mgr.Run(ctx)

	mgr.Commands() <- domain.StartScanningCommand()

	toDongle := make(chan []byte, 16)
	fromDongle := make(chan []byte, 16)
	mgr.Commands() <- domain.DongleFoundCommand(toDongle, fromDongle)

	requireOutgoing(t, toDongle, domain.FuncSearch)
	require.True(t, mgr.Scanning())
}
