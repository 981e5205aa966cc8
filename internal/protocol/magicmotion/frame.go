package magicmotion

// buildFrame renders the fixed 17-byte two-motor frame: a constant header,
// two per-motor blocks (each inlining the motor's committed speed byte-for-
// byte), and a trailer. The device has no incremental update opcode, so
// every write is a full snapshot of both motors even when only one changed
// in this particular command.
//
// snapshot holds the full, current speed for every declared motor. When
// the device declares only a single motor, that motor's byte is
// duplicated into both motor blocks — the hardware always has two
// physical motor channels even if the capability only exposes one logical
// control.
func buildFrame(snapshot []int) []byte {
	m0 := snapshot[0]
	m1 := m0
	if len(snapshot) > 1 {
		m1 = snapshot[1]
	}

	return []byte{
		0x10, 0xff, 0x04, 0x0a, 0x32, 0x32, 0x00,
		0x04, 0x08, byte(m0), 0x64, 0x00,
		0x04, 0x08, byte(m1), 0x64, 0x01,
	}
}
