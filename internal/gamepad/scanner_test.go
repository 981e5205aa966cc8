package gamepad

import (
	"testing"
	"time"

	"github.com/nexus-edge/toycomm/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanner_FindsDeviceThenFinishesOnStop(t *testing.T) {
	api := newFakeAPI(Controller2)
	tracker := NewTracker(api, zerolog.Nop())
	scanner := NewScanner(api, tracker, zerolog.Nop())
	events := make(chan domain.DiscoveryEvent, 8)

	scanner.StartScanning(events)

	var found domain.DiscoveryEvent
	select {
	case found = <-events:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for device found")
	}
	assert.Equal(t, domain.EventDeviceFound, found.Kind)
	assert.Equal(t, "2", found.Address)
	assert.True(t, tracker.Connected(Controller2))

	scanner.StopScanning()
	select {
	case ev := <-events:
		assert.Equal(t, domain.EventScanningFinished, ev.Kind)
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for ScanningFinished")
	}
}

func TestScanner_IgnoresAlreadyTrackedSlot(t *testing.T) {
	api := newFakeAPI(Controller1)
	tracker := NewTracker(api, zerolog.Nop())
	tracker.Add(Controller1)
	scanner := NewScanner(api, tracker, zerolog.Nop())
	events := make(chan domain.DiscoveryEvent, 8)

	scanner.StartScanning(events)
	defer scanner.StopScanning()

	select {
	case ev := <-events:
		t.Fatalf("unexpected event for already-tracked slot: %+v", ev)
	case <-time.After(1200 * time.Millisecond):
	}
	require.True(t, tracker.Connected(Controller1))
}
