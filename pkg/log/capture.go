package log

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Capture file tags. Every record in a .lblog file is a tagged CBOR item so
// a reader can tell a header from an event without guessing.
const (
	// HeaderTag marks the capture header, the first record of a file.
	HeaderTag uint64 = 0x4C42

	// EventTag marks one protocol event.
	EventTag uint64 = 0x4C45
)

const (
	// CaptureFormat identifies bridge captures in the header.
	CaptureFormat = "lvarbridge"

	// CaptureVersion is the capture layout written by this package.
	CaptureVersion uint8 = 1
)

// Capture errors.
var (
	ErrNotCapture         = errors.New("not a bridge capture")
	ErrUnsupportedVersion = errors.New("unsupported capture version")
)

// Header opens every capture file.
type Header struct {
	Format  string    `cbor:"1,keyasint"`
	Version uint8     `cbor:"2,keyasint"`
	Created time.Time `cbor:"3,keyasint"`
}

// NewHeader returns the header for a capture started now.
func NewHeader() Header {
	return Header{Format: CaptureFormat, Version: CaptureVersion, Created: time.Now()}
}

// Validate checks that h describes a capture this package can read.
func (h Header) Validate() error {
	if h.Format != CaptureFormat {
		return fmt.Errorf("%w: format %q", ErrNotCapture, h.Format)
	}
	if h.Version == 0 || h.Version > CaptureVersion {
		return fmt.Errorf("%w: %d (newest known %d)", ErrUnsupportedVersion, h.Version, CaptureVersion)
	}
	return nil
}

var (
	captureEncMode cbor.EncMode
	captureDecMode cbor.DecMode
)

func init() {
	tags := cbor.NewTagSet()
	required := cbor.TagOptions{EncTag: cbor.EncTagRequired, DecTag: cbor.DecTagRequired}
	if err := tags.Add(required, reflect.TypeOf(Header{}), HeaderTag); err != nil {
		panic(fmt.Sprintf("register capture header tag: %v", err))
	}
	if err := tags.Add(required, reflect.TypeOf(Event{}), EventTag); err != nil {
		panic(fmt.Sprintf("register capture event tag: %v", err))
	}

	var err error
	captureEncMode, err = cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeRFC3339Nano,
	}.EncModeWithTags(tags)
	if err != nil {
		panic(fmt.Sprintf("capture encoder mode: %v", err))
	}

	// Unknown keys are skipped so older tools read newer events.
	captureDecMode, err = cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyQuiet,
		IndefLength: cbor.IndefLengthAllowed,
	}.DecModeWithTags(tags)
	if err != nil {
		panic(fmt.Sprintf("capture decoder mode: %v", err))
	}
}

// EncodeEvent encodes a tagged event record.
func EncodeEvent(event Event) ([]byte, error) {
	return captureEncMode.Marshal(event)
}

// DecodeEvent decodes a tagged event record.
func DecodeEvent(data []byte) (Event, error) {
	var event Event
	if err := captureDecMode.Unmarshal(data, &event); err != nil {
		return Event{}, err
	}
	return event, nil
}

// NewEncoder returns a record encoder writing to w.
func NewEncoder(w io.Writer) *cbor.Encoder {
	return captureEncMode.NewEncoder(w)
}

// NewDecoder returns a record decoder reading from r.
func NewDecoder(r io.Reader) *cbor.Decoder {
	return captureDecMode.NewDecoder(r)
}

// ReadHeader decodes and validates the header record. An empty stream
// yields io.EOF.
func ReadHeader(dec *cbor.Decoder) (Header, error) {
	var h Header
	if err := dec.Decode(&h); err != nil {
		if errors.Is(err, io.EOF) {
			return Header{}, io.EOF
		}
		return Header{}, fmt.Errorf("%w: %v", ErrNotCapture, err)
	}
	if err := h.Validate(); err != nil {
		return Header{}, err
	}
	return h, nil
}
