package domain

import "errors"

// Sentinel errors, grouped by the three-tier taxonomy from the error
// handling design: transport-closed events are not modeled as errors at
// all (they are a control-flow signal, see the dongle package's
// incomingDisconnect), unexpected
// messages are logged and discarded rather than returned, and the errors
// below are the ones that do cross a component boundary: protocol-handler
// input validation and device I/O failures.
var (
	// ErrMotorCountMismatch is returned when a VibrateCmd names more motors
	// than the device declares, or an out-of-range motor index.
	ErrMotorCountMismatch = errors.New("toycomm: motor index out of range for device")

	// ErrDeviceWriteFailed wraps a transport-level write failure surfaced
	// from a protocol command handler back to its caller.
	ErrDeviceWriteFailed = errors.New("toycomm: device write failed")

	// ErrMalformedToyData marks a ToyData/DeviceConnectSuccess message that
	// was missing the device id the protocol requires it to carry.
	ErrMalformedToyData = errors.New("toycomm: dongle message missing expected id")

	// ErrDongleUnavailable reports that no dongle could be located. The
	// usbscan port scanner does not return it: it keeps polling until a
	// dongle appears or its context is canceled.
	ErrDongleUnavailable = errors.New("toycomm: no lovense dongle found")

	// ErrGamepadUnavailable is returned when the host gamepad API could not
	// be loaded (e.g. not running on the expected platform).
	ErrGamepadUnavailable = errors.New("toycomm: gamepad API unavailable")
)
