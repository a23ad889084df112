package area

import (
	"errors"
	"fmt"

	"github.com/lvarbridge/lvarbridge-go/pkg/wire"
)

// ID identifies an area.
type ID uint8

// Area identifiers.
const (
	Values   ID = 0
	Request  ID = 1
	Response ID = 2
)

// String returns the area name.
func (id ID) String() string {
	switch id {
	case Values:
		return "Values"
	case Request:
		return "Request"
	case Response:
		return "Response"
	default:
		return fmt.Sprintf("Area(%d)", uint8(id))
	}
}

// Area names as published by the host.
const (
	ValuesName   = "LVarBridge.Values"
	RequestName  = "LVarBridge.Request"
	ResponseName = "LVarBridge.Response"
)

// Area errors.
var (
	ErrAreaExists   = errors.New("area already registered")
	ErrUnknownArea  = errors.New("unknown area")
	ErrAreaOverflow = errors.New("data exceeds area size")
	ErrInvalidSpec  = errors.New("invalid area spec")
)

// Spec describes one area.
type Spec struct {
	ID   ID
	Name string
	Size int
}

// Validate checks that the spec has a name and a positive size.
func (s Spec) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("%w: area %d has no name", ErrInvalidSpec, s.ID)
	}
	if s.Size <= 0 {
		return fmt.Errorf("%w: area %s has size %d", ErrInvalidSpec, s.Name, s.Size)
	}
	return nil
}

// DefaultSpecs returns the three bridge areas in ID order.
func DefaultSpecs() []Spec {
	return []Spec{
		{ID: Values, Name: ValuesName, Size: wire.PacketSize},
		{ID: Request, Name: RequestName, Size: wire.RequestAreaSize},
		{ID: Response, Name: ResponseName, Size: wire.ResponseAreaSize},
	}
}

// SizeOf returns the default size of the area, or 0 for an unknown ID.
func SizeOf(id ID) int {
	for _, s := range DefaultSpecs() {
		if s.ID == id {
			return s.Size
		}
	}
	return 0
}

// Registry publishes areas and moves their contents.
type Registry interface {
	// Register creates an area. Registering the same ID twice fails with
	// ErrAreaExists.
	Register(spec Spec) error

	// WriteArea replaces the area contents. Shorter data is zero padded;
	// longer data fails with ErrAreaOverflow.
	WriteArea(id ID, data []byte) error

	// OnWrite registers an observer called with the full area contents
	// after every write. The slice must not be retained.
	OnWrite(id ID, fn func(data []byte))
}
