// Package magicmotion implements the command handler for a representative
// two-motor BLE vibration device. It is the protocol layer's smallest
// complete example: translate an abstract vibrate/stop command into a
// fixed byte frame, while never sending the wire an update nothing
// actually changed.
package magicmotion

import (
	"sync"

	"github.com/nexus-edge/toycomm/internal/domain"
)

// VibrateSubcommand is one motor's requested speed, scale 0.0-1.0.
type VibrateSubcommand struct {
	MotorIndex int
	Speed      float64
}

// VibrateCmd carries the subcommands for a single vibrate message; a motor
// not named in Subcommands keeps its last committed speed.
type VibrateCmd struct {
	Subcommands []VibrateSubcommand
}

// commandManager is the per-device memo of last-committed motor speeds
// (integer 0..100), used to suppress redundant writes and to reconstruct
// the full-device snapshot the wire protocol requires on every write.
type commandManager struct {
	mu         sync.Mutex
	motorCount int
	speeds     []int
}

func newCommandManager(motorCount int) *commandManager {
	return &commandManager{
		motorCount: motorCount,
		speeds:     make([]int, motorCount),
	}
}

// update applies the subcommands to the committed speed table and reports
// whether anything actually changed. On change it returns the full,
// current per-motor snapshot (ready to render into a frame); on no change
// it returns (nil, false, nil) and the caller must emit nothing.
func (m *commandManager) update(cmd VibrateCmd) ([]int, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, sub := range cmd.Subcommands {
		if sub.MotorIndex < 0 || sub.MotorIndex >= m.motorCount {
			return nil, false, domain.ErrMotorCountMismatch
		}
	}

	changed := false
	for _, sub := range cmd.Subcommands {
		speed := speedToScale(sub.Speed)
		if m.speeds[sub.MotorIndex] != speed {
			m.speeds[sub.MotorIndex] = speed
			changed = true
		}
	}

	if !changed {
		return nil, false, nil
	}

	snapshot := make([]int, m.motorCount)
	copy(snapshot, m.speeds)
	return snapshot, true, nil
}

// speedToScale converts a [0.0,1.0] float speed into an integer 0..100 by
// truncation of round(speed*100), matching the wire's integer percentage.
func speedToScale(speed float64) int {
	if speed < 0 {
		speed = 0
	}
	if speed > 1 {
		speed = 1
	}
	return int(speed*100 + 0.5)
}
