package dongle

import (
	"context"

	"github.com/goccy/go-json"
	"github.com/nexus-edge/toycomm/internal/domain"
	"github.com/rs/zerolog"
)

// wireCodec sits between the raw line-oriented byte pipe the USB/serial
// scanner hands over on DongleFound and the typed channels the state
// machine proper operates on. It owns two pump goroutines for the
// lifetime of a single dongle session. The decoder exits when the raw read
// channel closes, the encoder when its typed outgoing channel closes, and
// both when ctx is canceled; the encoder closes the raw write channel on
// its way out.
type wireCodec struct {
	outgoing chan domain.OutgoingData
	incoming chan domain.DongleIncomingMessage
}

// startCodec launches the encode/decode pumps and returns the typed
// channels the rest of the state machine reads and writes. rawW/rawR are
// the byte pipe produced by the port scanner on DongleFound.
func startCodec(ctx context.Context, rawW domain.DongleWriter, rawR domain.DongleReader, logger zerolog.Logger) *wireCodec {
	c := &wireCodec{
		outgoing: make(chan domain.OutgoingData, 16),
		incoming: make(chan domain.DongleIncomingMessage, 16),
	}
	go c.encodeLoop(ctx, rawW, logger)
	go c.decodeLoop(ctx, rawR, logger)
	return c
}

func (c *wireCodec) encodeLoop(ctx context.Context, rawW domain.DongleWriter, logger zerolog.Logger) {
	defer close(rawW)
	for {
		select {
		case out, ok := <-c.outgoing:
			if !ok {
				return
			}
			line, err := encodeOutgoing(out)
			if err != nil {
				logger.Error().Err(err).Msg("failed to encode outgoing dongle frame")
				continue
			}
			select {
			case rawW <- line:
			case <-ctx.Done():
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (c *wireCodec) decodeLoop(ctx context.Context, rawR domain.DongleReader, logger zerolog.Logger) {
	defer close(c.incoming)
	for {
		select {
		case line, ok := <-rawR:
			if !ok {
				return
			}
			msg, err := decodeIncoming(line)
			if err != nil {
				logger.Warn().Err(err).Bytes("line", line).Msg("discarding malformed dongle line")
				continue
			}
			select {
			case c.incoming <- msg:
			case <-ctx.Done():
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// encodeOutgoing renders an OutgoingData for the wire: protocol messages
// are JSON, raw per-device payloads pass through untouched.
func encodeOutgoing(out domain.OutgoingData) ([]byte, error) {
	if out.IsMessage() {
		return json.Marshal(out.Message)
	}
	return out.Payload, nil
}

func decodeIncoming(line []byte) (domain.DongleIncomingMessage, error) {
	var msg domain.DongleIncomingMessage
	err := json.Unmarshal(line, &msg)
	return msg, err
}
