package magicmotion

import (
	"context"
	"fmt"

	"github.com/nexus-edge/toycomm/internal/domain"
	"github.com/rs/zerolog"
)

// Endpoint is the write side of the device's transport, e.g. a BLE TX
// characteristic. Failures propagate to the handler's caller; they never
// tear down anything above this layer.
type Endpoint interface {
	WriteValue(ctx context.Context, data []byte) error
}

// Handler is the command handler for one connected two-motor device. It
// owns the command manager that deduplicates writes for that device.
type Handler struct {
	endpoint Endpoint
	manager  *commandManager
	logger   zerolog.Logger
}

// NewHandler builds a handler for a device with the given motor count
// (1 or 2 for this representative protocol).
func NewHandler(endpoint Endpoint, motorCount int, logger zerolog.Logger) *Handler {
	return &Handler{
		endpoint: endpoint,
		manager:  newCommandManager(motorCount),
		logger:   logger.With().Str("component", "magicmotion-handler").Logger(),
	}
}

// HandleVibrate consults the command manager and, if at least one motor's
// committed speed changed, writes a single full-snapshot frame to the
// device's TX endpoint.
func (h *Handler) HandleVibrate(ctx context.Context, cmd VibrateCmd) error {
	snapshot, changed, err := h.manager.update(cmd)
	if err != nil {
		return fmt.Errorf("magicmotion: %w", err)
	}
	if !changed {
		return nil
	}

	frame := buildFrame(snapshot)
	if err := h.endpoint.WriteValue(ctx, frame); err != nil {
		h.logger.Error().Err(err).Msg("device write failed")
		return fmt.Errorf("%w: %v", domain.ErrDeviceWriteFailed, err)
	}
	return nil
}

// HandleStop is equivalent to vibrating every declared motor at zero.
func (h *Handler) HandleStop(ctx context.Context) error {
	subs := make([]VibrateSubcommand, h.manager.motorCount)
	for i := range subs {
		subs[i] = VibrateSubcommand{MotorIndex: i, Speed: 0}
	}
	return h.HandleVibrate(ctx, VibrateCmd{Subcommands: subs})
}
