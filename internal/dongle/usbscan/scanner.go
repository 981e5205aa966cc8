// Package usbscan locates a Lovense USB dongle by vendor/product ID and
// exposes it as the raw line-oriented byte pipe the dongle state machine
// expects.
package usbscan

import (
	"bufio"
	"context"
	"time"

	"github.com/google/gousb"
	"github.com/nexus-edge/toycomm/internal/domain"
	"github.com/rs/zerolog"
)

// lovenseVendorID/lovenseProductID identify the USB dongle on the bus.
const (
	lovenseVendorID  = gousb.ID(0x1915)
	lovenseProductID = gousb.ID(0x520c)
)

const pollInterval = 1 * time.Second

// Scanner implements dongle.PortFinder against a real USB bus via gousb.
type Scanner struct {
	usb    *gousb.Context
	logger zerolog.Logger
}

func NewScanner(logger zerolog.Logger) *Scanner {
	return &Scanner{usb: gousb.NewContext(), logger: logger}
}

func (s *Scanner) Close() error {
	return s.usb.Close()
}

// FindDongle polls the bus at 1Hz until a matching device appears or ctx
// is canceled, mirroring the discovery scanner's poll cadence elsewhere
// in this module.
func (s *Scanner) FindDongle(ctx context.Context) (domain.DongleWriter, domain.DongleReader, error) {
	for {
		dev, err := s.openOnce()
		if err == nil {
			return s.attach(ctx, dev)
		}
		s.logger.Debug().Err(err).Msg("no lovense dongle on the bus yet")

		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

func (s *Scanner) openOnce() (*gousb.Device, error) {
	devices, err := s.usb.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return desc.Vendor == lovenseVendorID && desc.Product == lovenseProductID
	})
	if err != nil {
		return nil, err
	}
	if len(devices) == 0 {
		return nil, errNoDongle{}
	}
	for _, extra := range devices[1:] {
		extra.Close()
	}
	return devices[0], nil
}

func (s *Scanner) attach(ctx context.Context, dev *gousb.Device) (domain.DongleWriter, domain.DongleReader, error) {
	intf, done, err := dev.DefaultInterface()
	if err != nil {
		dev.Close()
		return nil, nil, err
	}

	outEP, err := intf.OutEndpoint(1)
	if err != nil {
		done()
		dev.Close()
		return nil, nil, err
	}
	inEP, err := intf.InEndpoint(1)
	if err != nil {
		done()
		dev.Close()
		return nil, nil, err
	}

	writeLines := make(chan []byte, 16)
	readLines := make(chan []byte, 16)

	go pumpWrites(ctx, outEP, writeLines, s.logger)
	go pumpReads(ctx, inEP, readLines, s.logger)

	go func() {
		<-ctx.Done()
		done()
		dev.Close()
	}()

	return writeLines, readLines, nil
}

func pumpWrites(ctx context.Context, ep *gousb.OutEndpoint, lines <-chan []byte, logger zerolog.Logger) {
	for {
		select {
		case line, ok := <-lines:
			if !ok {
				return
			}
			if _, err := ep.Write(append(line, '\n')); err != nil {
				logger.Error().Err(err).Msg("usb write to dongle failed")
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func pumpReads(ctx context.Context, ep *gousb.InEndpoint, out chan<- []byte, logger zerolog.Logger) {
	stream, err := ep.NewStream(512, 1)
	if err != nil {
		logger.Error().Err(err).Msg("failed to open dongle read stream")
		close(out)
		return
	}
	defer stream.Close()
	defer close(out)

	scanner := bufio.NewScanner(stream)
	for scanner.Scan() {
		line := append([]byte(nil), scanner.Bytes()...)
		select {
		case out <- line:
		case <-ctx.Done():
			return
		}
	}
}

type errNoDongle struct{}

func (errNoDongle) Error() string { return "usbscan: no matching dongle found" }
