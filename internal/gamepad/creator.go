package gamepad

// RumbleCommand is the abstract per-device write a gamepad rumble-motor
// toy receives; the outer device object translates this into whatever
// native rumble call the platform API exposes.
type RumbleCommand struct {
	LeftMotor  float64
	RightMotor float64
}

// deviceCreator implements domain.DeviceCreator for a discovered gamepad
// slot. It exposes the write channel the outer device object uses to push
// rumble commands down to the slot; construction of the actual device
// object is the outer server's job.
type deviceCreator struct {
	slot    Index
	Writes  chan RumbleCommand
}

func newDeviceCreator(slot Index) *deviceCreator {
	return &deviceCreator{
		slot:   slot,
		Writes: make(chan RumbleCommand, 256),
	}
}

func (c *deviceCreator) Address() string {
	return c.slot.Address()
}
