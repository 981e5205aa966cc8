package dongle

import "github.com/nexus-edge/toycomm/internal/domain"

// deviceCreator is handed upward on DeviceFound once the dongle reports a
// successful connect. writes carries outer commands down into DeviceLoop
// (motor speeds, stop); reads carries dongle ToyData frames DeviceLoop
// could not interpret itself back up to whatever owns the toy object.
type deviceCreator struct {
	id     string
	writes chan domain.OutgoingData
	reads  chan domain.DongleIncomingMessage
}

func newDeviceCreator(id string) *deviceCreator {
	return &deviceCreator{
		id:     id,
		writes: make(chan domain.OutgoingData, 256),
		reads:  make(chan domain.DongleIncomingMessage, 256),
	}
}

func (d *deviceCreator) Address() string { return d.id }

// Writes is the channel an outer protocol handler sends raw per-device
// payloads on; DeviceLoop forwards everything it receives here straight
// to the dongle.
func (d *deviceCreator) Writes() chan<- domain.OutgoingData { return d.writes }

// Reads delivers dongle frames addressed to this device that DeviceLoop
// didn't need to act on itself (ToyData acks, battery reports, and the
// like).
func (d *deviceCreator) Reads() <-chan domain.DongleIncomingMessage { return d.reads }
