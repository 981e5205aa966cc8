//go:build !windows

package gamepad

import "github.com/nexus-edge/toycomm/internal/domain"

// NewHostAPI has nothing to bind to outside Windows; XInput is a
// Windows-only surface (§1). Callers on other platforms run without a
// gamepad manager, matching this subsystem's non-goal of hot-swapping
// between transports for a single logical device class.
func NewHostAPI() (API, error) {
	return nil, domain.ErrGamepadUnavailable
}
