package transport

import (
	"context"
	"net"
	"time"

	"github.com/lvarbridge/lvarbridge-go/pkg/area"
	"github.com/lvarbridge/lvarbridge-go/pkg/command"
)

// ServerConnection represents a server-side connection to a consumer.
// Implemented by ServerConn.
type ServerConnection interface {
	// RemoteAddr returns the remote network address of the consumer.
	RemoteAddr() net.Addr

	// ConnID returns the unique connection identifier.
	ConnID() string

	// Send sends a frame payload to the consumer.
	Send(data []byte) error

	// Close closes the connection.
	Close() error
}

// ClientConnection represents a consumer's connection to the bridge.
// Implemented by ClientConn.
type ClientConnection interface {
	// LocalAddr returns the local network address.
	LocalAddr() net.Addr

	// RemoteAddr returns the remote network address.
	RemoteAddr() net.Addr

	// WriteArea sends a complete area to the bridge.
	WriteArea(id area.ID, data []byte) error

	// SendCommand writes a command into the request area.
	SendCommand(cmd command.Command) error

	// Receive receives the next area with the specified timeout.
	Receive(timeout time.Duration) (area.ID, []byte, error)

	// Close closes the connection.
	Close() error
}

// TransportServer represents a bridge TCP server.
// Implemented by Server.
type TransportServer interface {
	area.Registry

	// Start begins accepting connections.
	Start(ctx context.Context) error

	// Stop gracefully stops the server.
	Stop() error

	// Addr returns the server's listen address.
	Addr() net.Addr

	// ConnectionCount returns the number of active connections.
	ConnectionCount() int
}

// FrameReadWriter provides length-prefixed frame I/O.
// Implemented by Framer.
type FrameReadWriter interface {
	// ReadFrame reads a length-prefixed frame.
	ReadFrame() ([]byte, error)

	// WriteFrame writes a length-prefixed frame.
	WriteFrame(data []byte) error
}

// Compile-time interface satisfaction checks.
var (
	_ ServerConnection = (*ServerConn)(nil)
	_ ClientConnection = (*ClientConn)(nil)
	_ TransportServer  = (*Server)(nil)
	_ FrameReadWriter  = (*Framer)(nil)
	_ area.Registry    = (*Server)(nil)
)
