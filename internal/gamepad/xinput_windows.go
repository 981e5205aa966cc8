//go:build windows

package gamepad

import (
	"fmt"
	"unsafe"

	"github.com/nexus-edge/toycomm/internal/domain"
	"golang.org/x/sys/windows"
)

// xinputAPI calls into xinput1_4.dll directly via syscall, the same
// approach used throughout the pack for Windows-only hardware surfaces
// that have no first-class cgo-free Go binding. XInputGetState returning
// anything other than ERROR_SUCCESS means the slot is unplugged.
type xinputAPI struct {
	proc *windows.LazyProc
}

// xinputState mirrors the fixed-size XINPUT_STATE struct; only its shape
// (not its field values) matters here since GetState never inspects the
// payload, only the return code.
type xinputState struct {
	packetNumber uint32
	gamepad      [12]byte
}

// NewHostAPI loads the XInput API, preferring the newest DLL version and
// falling back to older ones present on older Windows builds.
func NewHostAPI() (API, error) {
	for _, name := range []string{"xinput1_4.dll", "xinput1_3.dll", "xinput9_1_0.dll"} {
		dll := windows.NewLazySystemDLL(name)
		if err := dll.Load(); err != nil {
			continue
		}
		proc := dll.NewProc("XInputGetState")
		if err := proc.Find(); err != nil {
			continue
		}
		return &xinputAPI{proc: proc}, nil
	}
	return nil, fmt.Errorf("%w: no xinput DLL available", domain.ErrGamepadUnavailable)
}

func (x *xinputAPI) GetState(slot Index) error {
	var state xinputState
	ret, _, _ := x.proc.Call(uintptr(slot), uintptr(unsafe.Pointer(&state)))
	if ret != 0 { // ERROR_SUCCESS == 0
		return fmt.Errorf("gamepad: xinput slot %d unavailable (code %d)", slot, ret)
	}
	return nil
}
