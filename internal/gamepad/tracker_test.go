package gamepad

import (
	"testing"
	"time"

	"github.com/nexus-edge/toycomm/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// S6 — tracker seeded with slots {0,2} connected; slot 2 (1-based "3")
// goes away. Within one sweep we expect a Disconnected("3") event and the
// bitmap to settle on {0}. When slot 0 also disappears, the poller exits.
func TestTracker_DisconnectSequence(t *testing.T) {
	api := newFakeAPI(Controller1, Controller3)
	tracker := NewTracker(api, zerolog.Nop())
	events := make(chan domain.DiscoveryEvent, 8)

	tracker.AddWithSender(Controller1, events)
	tracker.AddWithSender(Controller3, events)
	require.True(t, tracker.Connected(Controller1))
	require.True(t, tracker.Connected(Controller3))

	api.unplug(Controller3)

	var ev domain.DiscoveryEvent
	select {
	case ev = <-events:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for disconnect event")
	}
	assert.Equal(t, domain.EventDeviceDisconnected, ev.Kind)
	assert.Equal(t, "3", ev.Address)
	assert.False(t, tracker.Connected(Controller3))
	assert.True(t, tracker.Connected(Controller1))

	api.unplug(Controller1)
	select {
	case ev = <-events:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for second disconnect event")
	}
	assert.Equal(t, "1", ev.Address)
	assert.False(t, tracker.Connected(Controller1))
}

// The first Add starts the poller and sets the running flag; a second Add
// while that poller is alive leaves the flag set, since only the bitmap
// transition from zero may start a poller. Both slots stay present so the
// poller cannot exit and clear the flag under the test.
func TestTracker_StartsExactlyOnePoller(t *testing.T) {
	api := newFakeAPI(Controller1, Controller2)
	tracker := NewTracker(api, zerolog.Nop())

	tracker.Add(Controller1)
	tracker.mu.Lock()
	firstRunning := tracker.pollRunning
	tracker.mu.Unlock()
	require.True(t, firstRunning)

	tracker.Add(Controller2)
	tracker.mu.Lock()
	stillRunning := tracker.pollRunning
	tracker.mu.Unlock()
	assert.True(t, stillRunning)
}
