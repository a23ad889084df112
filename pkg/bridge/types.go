package bridge

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lvarbridge/lvarbridge-go/pkg/area"
	"github.com/lvarbridge/lvarbridge-go/pkg/log"
	"github.com/lvarbridge/lvarbridge-go/pkg/throttle"
	"github.com/lvarbridge/lvarbridge-go/pkg/wire"
)

// Bridge errors.
var (
	ErrNotStarted     = errors.New("bridge not started")
	ErrAlreadyStarted = errors.New("bridge already started")
	ErrInert          = errors.New("bridge inert after setup failure")
	ErrInvalidConfig  = errors.New("invalid configuration")
)

// Host is the simulation process as seen by the bridge.
type Host interface {
	// ResolveNameAt returns the name of the variable at h, or false when h
	// is past the end of the namespace.
	ResolveNameAt(h wire.Handle) (string, bool)

	// ReadValue returns the current value at h. Handles the host does not
	// know yield a stable sentinel value.
	ReadValue(h wire.Handle) float64
}

// Outbound writes the bridge's outbound areas. area.Registry satisfies it.
type Outbound interface {
	WriteArea(id area.ID, data []byte) error
}

// State is the service lifecycle state.
type State uint8

const (
	// StateIdle - created, not started.
	StateIdle State = iota

	// StateRunning - areas registered, loop running.
	StateRunning

	// StateInert - area registration failed; nothing runs for this session.
	StateInert

	// StateStopped - loop ended by Stop or context cancellation.
	StateStopped
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateRunning:
		return "RUNNING"
	case StateInert:
		return "INERT"
	case StateStopped:
		return "STOPPED"
	default:
		return "UNKNOWN"
	}
}

// Config configures an Engine.
type Config struct {
	// ScanEvery is the number of frames between change scans.
	// Zero means throttle.DefaultEvery.
	ScanEvery int

	// Logger for debug output (optional).
	Logger *slog.Logger

	// ProtocolLogger receives area-level events (optional).
	ProtocolLogger log.Logger
}

// DefaultConfig returns the release configuration.
func DefaultConfig() Config {
	return Config{ScanEvery: throttle.DefaultEvery}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.ScanEvery < 0 {
		return fmt.Errorf("%w: scan interval must not be negative", ErrInvalidConfig)
	}
	return nil
}

// ServiceConfig configures a Service.
type ServiceConfig struct {
	Config

	// Frames delivers host frame ticks. If nil, the service ticks at
	// FrameRate.
	Frames <-chan struct{}

	// FrameRate is the tick rate in Hz used when Frames is nil.
	// Zero means DefaultFrameRate.
	FrameRate int

	// CommandQueue is the number of pending commands buffered between the
	// request area and the loop. Zero means DefaultCommandQueue.
	CommandQueue int
}

// Service defaults.
const (
	DefaultFrameRate    = 30
	DefaultCommandQueue = 16
)

// DefaultServiceConfig returns a ticker-driven service configuration.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		Config:       DefaultConfig(),
		FrameRate:    DefaultFrameRate,
		CommandQueue: DefaultCommandQueue,
	}
}

// Validate checks the configuration.
func (c ServiceConfig) Validate() error {
	if err := c.Config.Validate(); err != nil {
		return err
	}
	if c.FrameRate < 0 {
		return fmt.Errorf("%w: frame rate must not be negative", ErrInvalidConfig)
	}
	if c.CommandQueue < 0 {
		return fmt.Errorf("%w: command queue must not be negative", ErrInvalidConfig)
	}
	return nil
}

func (c ServiceConfig) frameInterval() time.Duration {
	rate := c.FrameRate
	if rate == 0 {
		rate = DefaultFrameRate
	}
	return time.Second / time.Duration(rate)
}

// Stats counts engine activity since creation.
type Stats struct {
	Frames   uint64
	Scans    uint64
	Changes  uint64
	Commands uint64
	Ignored  uint64

	// Packets, Entries and Dropped mirror the packetizer counters.
	Packets uint64
	Entries uint64
	Dropped uint64

	// ResponseErrors counts response lines that failed to send.
	ResponseErrors uint64

	Variables     int
	Subscriptions int
}
