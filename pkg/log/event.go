package log

import "time"

// Event is a protocol log event. Exactly one of the payload pointers is set.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// ConnectionID identifies the transport connection (UUID), if any.
	ConnectionID string `cbor:"2,keyasint,omitempty"`

	// Direction indicates message flow relative to the bridge.
	Direction Direction `cbor:"3,keyasint"`

	// Layer where the event was captured.
	Layer Layer `cbor:"4,keyasint"`

	// Category classifies the event.
	Category Category `cbor:"5,keyasint"`

	// RemoteAddr is the peer address for transport events.
	RemoteAddr string `cbor:"6,keyasint,omitempty"`

	Frame       *FrameEvent       `cbor:"10,keyasint,omitempty"` // Transport layer
	Packet      *PacketEvent      `cbor:"11,keyasint,omitempty"` // Data area
	Command     *CommandEvent     `cbor:"12,keyasint,omitempty"` // Request area
	Response    *ResponseEvent    `cbor:"13,keyasint,omitempty"` // Response area
	Scan        *ScanEvent        `cbor:"14,keyasint,omitempty"` // Engine
	StateChange *StateChangeEvent `cbor:"15,keyasint,omitempty"`
	Error       *ErrorEventData   `cbor:"16,keyasint,omitempty"`
}

// Direction indicates the direction of message flow.
type Direction uint8

const (
	// DirectionIn is consumer to bridge.
	DirectionIn Direction = 0
	// DirectionOut is bridge to consumer.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Layer indicates which layer captured the event.
type Layer uint8

const (
	// LayerTransport is raw area frames on a connection.
	LayerTransport Layer = 0
	// LayerArea is decoded area contents (packets, commands, lines).
	LayerArea Layer = 1
	// LayerEngine is the bridge engine (scans, discovery, lifecycle).
	LayerEngine Layer = 2
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerTransport:
		return "TRANSPORT"
	case LayerArea:
		return "AREA"
	case LayerEngine:
		return "ENGINE"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryMessage is an area write (packet, command or response line).
	CategoryMessage Category = 0
	// CategoryScan is a completed change scan.
	CategoryScan Category = 1
	// CategoryState is a lifecycle state change.
	CategoryState Category = 2
	// CategoryError is an error at any layer.
	CategoryError Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryMessage:
		return "MESSAGE"
	case CategoryScan:
		return "SCAN"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// FrameEvent captures a raw area frame at the transport layer.
type FrameEvent struct {
	// Area is the area id the frame belongs to.
	Area uint8 `cbor:"1,keyasint"`

	// Size is the frame size in bytes (including the length prefix).
	Size int `cbor:"2,keyasint"`

	// Data is the raw area bytes (may be truncated).
	Data []byte `cbor:"3,keyasint,omitempty"`

	// Truncated indicates if Data was truncated.
	Truncated bool `cbor:"4,keyasint,omitempty"`
}

// PacketEvent captures a data area packet.
type PacketEvent struct {
	Count   int       `cbor:"1,keyasint"`
	Handles []uint16  `cbor:"2,keyasint,omitempty"`
	Values  []float64 `cbor:"3,keyasint,omitempty"`

	// Dropped is set when the packet could not be sent.
	Dropped bool `cbor:"4,keyasint,omitempty"`
}

// CommandEvent captures a request area command.
type CommandEvent struct {
	// Text is the raw request text.
	Text string `cbor:"1,keyasint"`

	// Kind is the parsed command keyword (empty if parsing failed).
	Kind string `cbor:"2,keyasint,omitempty"`

	// Handle is the argument of SUBSCRIBE/UNSUBSCRIBE.
	Handle *uint16 `cbor:"3,keyasint,omitempty"`

	// Ignored holds the reason a command was dropped.
	Ignored string `cbor:"4,keyasint,omitempty"`
}

// ResponseEvent captures a response area line.
type ResponseEvent struct {
	Line string `cbor:"1,keyasint"`
}

// ScanEvent captures a completed change scan.
type ScanEvent struct {
	// Subscriptions is the number of subscriptions checked.
	Subscriptions int `cbor:"1,keyasint"`

	// Changed is the number of changed values found.
	Changed int `cbor:"2,keyasint"`

	// Duration is the time the scan took, in nanoseconds.
	Duration time.Duration `cbor:"3,keyasint"`
}

// StateChangeEvent captures lifecycle changes.
type StateChangeEvent struct {
	Entity   StateEntity `cbor:"1,keyasint"`
	OldState string      `cbor:"2,keyasint,omitempty"`
	NewState string      `cbor:"3,keyasint"`
	Reason   string      `cbor:"4,keyasint,omitempty"`
}

// StateEntity indicates what entity changed state.
type StateEntity uint8

const (
	// StateEntityConnection is a transport connection.
	StateEntityConnection StateEntity = 0
	// StateEntityBridge is the bridge service.
	StateEntityBridge StateEntity = 1
	// StateEntityCatalog is the variable catalog (discovery results).
	StateEntityCatalog StateEntity = 2
)

// String returns the state entity name.
func (s StateEntity) String() string {
	switch s {
	case StateEntityConnection:
		return "CONNECTION"
	case StateEntityBridge:
		return "BRIDGE"
	case StateEntityCatalog:
		return "CATALOG"
	default:
		return "UNKNOWN"
	}
}

// ErrorEventData captures errors at any layer.
type ErrorEventData struct {
	// Layer where the error occurred.
	Layer Layer `cbor:"1,keyasint"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`

	// Context describes what operation was being performed.
	Context string `cbor:"3,keyasint,omitempty"`
}
