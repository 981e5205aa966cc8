package magicmotion

import (
	"context"

	"tinygo.org/x/bluetooth"
)

// bleEndpoint adapts a tinygo.org/x/bluetooth characteristic into the
// Endpoint interface the command handler writes through. This is the
// concrete stand-in for "the BLE stack itself", which the rest of this
// package treats as an opaque byte-level collaborator.
type bleEndpoint struct {
	characteristic bluetooth.DeviceCharacteristic
}

// NewBLEEndpoint wraps an already-discovered TX characteristic.
func NewBLEEndpoint(characteristic bluetooth.DeviceCharacteristic) Endpoint {
	return &bleEndpoint{characteristic: characteristic}
}

// WriteValue performs a write-without-response, matching the wire contract
// used by the representative two-motor device (no ack frame is expected
// back through this path; acks, if any, arrive on the device's own
// notification channel and are out of scope for this handler).
func (e *bleEndpoint) WriteValue(_ context.Context, data []byte) error {
	_, err := e.characteristic.WriteWithoutResponse(data)
	return err
}
