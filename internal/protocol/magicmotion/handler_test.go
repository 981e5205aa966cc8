package magicmotion

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingEndpoint struct {
	writes [][]byte
}

func (r *recordingEndpoint) WriteValue(_ context.Context, data []byte) error {
	cp := make([]byte, len(data))
	copy(cp, data)
	r.writes = append(r.writes, cp)
	return nil
}

func newTestHandler() (*Handler, *recordingEndpoint) {
	ep := &recordingEndpoint{}
	return NewHandler(ep, 2, zerolog.Nop()), ep
}

// S1 — vibrate at 0.5 on one motor of a fresh two-motor device.
func TestHandleVibrate_SingleMotorHalfSpeed(t *testing.T) {
	h, ep := newTestHandler()

	err := h.HandleVibrate(context.Background(), VibrateCmd{
		Subcommands: []VibrateSubcommand{{MotorIndex: 0, Speed: 0.5}},
	})
	require.NoError(t, err)
	require.Len(t, ep.writes, 1)
	assert.Equal(t, []byte{
		0x10, 0xff, 0x04, 0x0a, 0x32, 0x32, 0x00,
		0x04, 0x08, 0x32, 0x64, 0x00,
		0x04, 0x08, 0x00, 0x64, 0x01,
	}, ep.writes[0])
}

// S2 — repeating the identical vibrate command emits no further writes.
func TestHandleVibrate_RepeatIsIdempotent(t *testing.T) {
	h, ep := newTestHandler()
	cmd := VibrateCmd{Subcommands: []VibrateSubcommand{{MotorIndex: 0, Speed: 0.5}}}

	require.NoError(t, h.HandleVibrate(context.Background(), cmd))
	require.NoError(t, h.HandleVibrate(context.Background(), cmd))

	assert.Len(t, ep.writes, 1)
}

// S3 — stop after S1 zeroes every motor, including the one never touched.
func TestHandleStop_AfterVibrate(t *testing.T) {
	h, ep := newTestHandler()
	require.NoError(t, h.HandleVibrate(context.Background(), VibrateCmd{
		Subcommands: []VibrateSubcommand{{MotorIndex: 0, Speed: 0.5}},
	}))

	require.NoError(t, h.HandleStop(context.Background()))

	require.Len(t, ep.writes, 2)
	assert.Equal(t, []byte{
		0x10, 0xff, 0x04, 0x0a, 0x32, 0x32, 0x00,
		0x04, 0x08, 0x00, 0x64, 0x00,
		0x04, 0x08, 0x00, 0x64, 0x01,
	}, ep.writes[1])
}

// Stop on a device that never vibrated is already at rest: no write.
func TestHandleStop_NoopWhenAlreadyStopped(t *testing.T) {
	h, ep := newTestHandler()
	require.NoError(t, h.HandleStop(context.Background()))
	assert.Empty(t, ep.writes)
}

func TestHandleVibrate_RejectsOutOfRangeMotor(t *testing.T) {
	h, _ := newTestHandler()
	err := h.HandleVibrate(context.Background(), VibrateCmd{
		Subcommands: []VibrateSubcommand{{MotorIndex: 5, Speed: 1}},
	})
	assert.Error(t, err)
}

func TestHandleVibrate_SingleMotorDeviceDuplicatesByte(t *testing.T) {
	ep := &recordingEndpoint{}
	h := NewHandler(ep, 1, zerolog.Nop())

	require.NoError(t, h.HandleVibrate(context.Background(), VibrateCmd{
		Subcommands: []VibrateSubcommand{{MotorIndex: 0, Speed: 1.0}},
	}))

	require.Len(t, ep.writes, 1)
	assert.Equal(t, byte(0x64), ep.writes[0][9])
	assert.Equal(t, byte(0x64), ep.writes[0][14])
}
