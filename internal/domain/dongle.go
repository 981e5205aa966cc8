// Package domain contains the core entities shared by the dongle state
// machine, the gamepad tracker, and the protocol command handler. These
// types are transport-agnostic: they describe what is communicated, not
// how the bytes get there.
package domain

// DongleMessageFunc is the "func" field of a dongle wire message.
type DongleMessageFunc string

const (
	FuncStatus         DongleMessageFunc = "Status"
	FuncIncomingStatus DongleMessageFunc = "IncomingStatus"
	FuncSearch         DongleMessageFunc = "Search"
	FuncStopSearch     DongleMessageFunc = "StopSearch"
	FuncToyData        DongleMessageFunc = "ToyData"
)

// DongleMessageType is the "type" field of a dongle wire message.
type DongleMessageType string

const (
	TypeToy DongleMessageType = "toy"
	TypeUSB DongleMessageType = "usb"
)

// ResultCode enumerates the "result"/"data.status" codes the dongle sends.
type ResultCode string

const (
	ResultDeviceConnectSuccess ResultCode = "device_connect_success"
	ResultDeviceDisconnected   ResultCode = "device_disconnected"
	ResultSearchStopped        ResultCode = "search_stopped"
)

// IncomingStatusData is the optional "data" payload on an inbound message.
type IncomingStatusData struct {
	ID     string      `json:"id,omitempty"`
	Status *ResultCode `json:"status,omitempty"`
}

// DongleIncomingMessage is a message read from the dongle.
type DongleIncomingMessage struct {
	Func   DongleMessageFunc    `json:"func"`
	Type   DongleMessageType    `json:"type"`
	ID     string               `json:"id,omitempty"`
	Data   *IncomingStatusData  `json:"data,omitempty"`
	Result *ResultCode          `json:"result,omitempty"`
}

// DongleOutgoingMessage is a message written to the dongle.
type DongleOutgoingMessage struct {
	Func    DongleMessageFunc `json:"func"`
	Type    DongleMessageType `json:"type"`
	ID      string            `json:"id,omitempty"`
	Command string            `json:"command,omitempty"`
	Eager   *bool             `json:"eager,omitempty"`
}

// OutgoingData is the tagged variant written to the dongle writer channel:
// either a protocol message, or a raw payload destined for an
// already-attached device.
type OutgoingData struct {
	Message *DongleOutgoingMessage
	RawDeviceData
}

// RawDeviceData is a byte payload addressed to a specific already-attached
// toy, bypassing the dongle control protocol entirely.
type RawDeviceData struct {
	DeviceID string
	Payload  []byte
}

// IsMessage reports whether this OutgoingData carries a dongle protocol
// message rather than a raw device payload.
func (o OutgoingData) IsMessage() bool {
	return o.Message != nil
}

// NewOutgoingMessage wraps a dongle protocol message for the writer channel.
func NewOutgoingMessage(msg DongleOutgoingMessage) OutgoingData {
	return OutgoingData{Message: &msg}
}

// NewOutgoingRaw wraps a raw per-device payload for the writer channel.
func NewOutgoingRaw(deviceID string, payload []byte) OutgoingData {
	return OutgoingData{RawDeviceData: RawDeviceData{DeviceID: deviceID, Payload: payload}}
}

// ByteWriter and ByteReader are the primitives the lower-level port scanner
// hands the state machine once the physical dongle is found. They model
// the serial/USB transport as an opaque line-oriented byte pipe.
type ByteWriter interface {
	Write(line []byte) error
}

type ByteReader interface {
	Read() ([]byte, error)
}

// ExternalCommandKind tags the variant of an ExternalCommand.
type ExternalCommandKind int

const (
	CommandStartScanning ExternalCommandKind = iota
	CommandStopScanning
	CommandDongleFound
)

// ExternalCommand is the downward command interface driving the dongle
// manager: start/stop scanning, or notification that the port scanner has
// located the physical dongle.
type ExternalCommand struct {
	Kind   ExternalCommandKind
	Writer DongleWriter
	Reader DongleReader
}

// DongleWriter/DongleReader are the channel-shaped byte pipe the port
// scanner hands over on DongleFound.
type DongleWriter chan<- []byte
type DongleReader <-chan []byte

func StartScanningCommand() ExternalCommand {
	return ExternalCommand{Kind: CommandStartScanning}
}

func StopScanningCommand() ExternalCommand {
	return ExternalCommand{Kind: CommandStopScanning}
}

func DongleFoundCommand(w DongleWriter, r DongleReader) ExternalCommand {
	return ExternalCommand{Kind: CommandDongleFound, Writer: w, Reader: r}
}

// DiscoveryEventKind tags the variant of a DiscoveryEvent.
type DiscoveryEventKind int

const (
	EventDeviceFound DiscoveryEventKind = iota
	EventDeviceDisconnected
	EventScanningFinished
)

// DeviceCreator is the opaque factory handed upward with DeviceFound. Each
// transport (dongle, gamepad) implements it with whatever per-device
// channel endpoints that transport actually uses; building the
// higher-level device object those endpoints feed is the outer server's
// job and is out of scope here — this interface only carries the address
// far enough to be logged and matched against a later disconnect.
type DeviceCreator interface {
	Address() string
}

// DiscoveryEvent is the upward event interface emitted by both the dongle
// manager and the gamepad manager.
type DiscoveryEvent struct {
	Kind    DiscoveryEventKind
	Name    string
	Address string
	Creator DeviceCreator
}

func DeviceFoundEvent(name, address string, creator DeviceCreator) DiscoveryEvent {
	return DiscoveryEvent{Kind: EventDeviceFound, Name: name, Address: address, Creator: creator}
}

func DeviceDisconnectedEvent(address string) DiscoveryEvent {
	return DiscoveryEvent{Kind: EventDeviceDisconnected, Address: address}
}

func ScanningFinishedEvent() DiscoveryEvent {
	return DiscoveryEvent{Kind: EventScanningFinished}
}
