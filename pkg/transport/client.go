package transport

import (
	"context"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/lvarbridge/lvarbridge-go/pkg/area"
	"github.com/lvarbridge/lvarbridge-go/pkg/command"
	"github.com/lvarbridge/lvarbridge-go/pkg/log"
	"github.com/lvarbridge/lvarbridge-go/pkg/wire"
)

// ClientConfig configures a bridge client.
type ClientConfig struct {
	// MaxMessageSize is the maximum frame payload size (default: 4 KB).
	MaxMessageSize uint32

	// ConnectTimeout is the connection timeout (default: 10s).
	ConnectTimeout time.Duration

	// Logger for protocol logging (optional).
	Logger log.Logger
}

// Client connects consumers to a bridge server.
type Client struct {
	config ClientConfig
}

// NewClient creates a new bridge client.
func NewClient(config ClientConfig) *Client {
	if config.MaxMessageSize == 0 {
		config.MaxMessageSize = DefaultMaxMessageSize
	}
	if config.ConnectTimeout == 0 {
		config.ConnectTimeout = 10 * time.Second
	}
	return &Client{config: config}
}

// Dial connects to a bridge server with the default client configuration.
func Dial(ctx context.Context, address string) (*ClientConn, error) {
	return NewClient(ClientConfig{}).Connect(ctx, address)
}

// Connect establishes a connection to the specified address.
func (c *Client) Connect(ctx context.Context, address string) (*ClientConn, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.ConnectTimeout)
		defer cancel()
	}

	dialer := &net.Dialer{}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("dial failed: %w", err)
	}

	framer := NewFramerWithMaxSize(conn, c.config.MaxMessageSize)
	if c.config.Logger != nil {
		framer.SetLogger(c.config.Logger, conn.LocalAddr().String())
	}

	cc := &ClientConn{
		conn:     conn,
		framer:   framer,
		closeCh:  make(chan struct{}),
		inbox:    make(chan inbound, inboxSize),
		readDone: make(chan struct{}),
	}
	go cc.readLoop()
	return cc, nil
}

// inboxSize is the number of received areas buffered ahead of Receive.
const inboxSize = 32

// inbound is one received area, or a per-frame decode error.
type inbound struct {
	id   area.ID
	data []byte
	err  error
}

// ClientConn represents a connection from a consumer to the bridge.
type ClientConn struct {
	conn    net.Conn
	framer  *Framer
	closeCh chan struct{}

	// The read loop owns the socket's read side. Receive never touches the
	// connection, so a timed-out Receive cannot split a frame.
	inbox    chan inbound
	readDone chan struct{}
	readErr  error

	closeOnce sync.Once
	writeMu   sync.Mutex
}

// LocalAddr returns the local network address.
func (c *ClientConn) LocalAddr() net.Addr {
	return c.conn.LocalAddr()
}

// RemoteAddr returns the remote network address.
func (c *ClientConn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// WriteArea sends a complete area to the bridge. data is zero padded to
// the area size.
func (c *ClientConn) WriteArea(id area.ID, data []byte) error {
	size := area.SizeOf(id)
	if size == 0 {
		return fmt.Errorf("%w: %s", area.ErrUnknownArea, id)
	}
	if len(data) > size {
		return fmt.Errorf("%w: %d > %d bytes for %s", area.ErrAreaOverflow, len(data), size, id)
	}

	payload := make([]byte, AreaIDSize+size)
	payload[0] = byte(id)
	copy(payload[AreaIDSize:], data)

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	select {
	case <-c.closeCh:
		return ErrConnectionClosed
	default:
	}

	return c.framer.WriteFrame(payload)
}

// SendCommand writes cmd into the request area.
func (c *ClientConn) SendCommand(cmd command.Command) error {
	return c.WriteArea(area.Request, cmd.Encode())
}

// SendText writes raw text into the request area. Text longer than the
// area is truncated.
func (c *ClientConn) SendText(text string) error {
	return c.WriteArea(area.Request, wire.EncodeText(text, wire.RequestAreaSize))
}

// Receive returns the next area written by the bridge. A timeout of zero
// waits indefinitely. When the timeout expires the returned error wraps
// os.ErrDeadlineExceeded (a net.Error with Timeout() true) and the stream
// stays intact for the next call.
func (c *ClientConn) Receive(timeout time.Duration) (area.ID, []byte, error) {
	select {
	case <-c.closeCh:
		return 0, nil, ErrConnectionClosed
	default:
	}

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case in := <-c.inbox:
		return in.id, in.data, in.err
	case <-c.readDone:
		// Deliver what was read before the stream ended.
		select {
		case in := <-c.inbox:
			return in.id, in.data, in.err
		default:
		}
		return 0, nil, c.readErr
	case <-c.closeCh:
		return 0, nil, ErrConnectionClosed
	case <-expired:
		return 0, nil, fmt.Errorf("receive: %w", os.ErrDeadlineExceeded)
	}
}

// readLoop reads frames until the connection fails or is closed.
func (c *ClientConn) readLoop() {
	defer close(c.readDone)

	for {
		payload, err := c.framer.ReadFrame()
		if err != nil {
			select {
			case <-c.closeCh:
				c.readErr = ErrConnectionClosed
			default:
				c.readErr = err
			}
			return
		}

		in := c.decode(payload)
		select {
		case c.inbox <- in:
		case <-c.closeCh:
			c.readErr = ErrConnectionClosed
			return
		}
	}
}

// decode validates one frame payload. A bad area does not desynchronize
// the stream, so it is reported to Receive and reading continues.
func (c *ClientConn) decode(payload []byte) inbound {
	id, data, err := DecodeAreaFrame(payload)
	if err != nil {
		return inbound{err: err}
	}
	if size := area.SizeOf(id); size != 0 && len(data) != size {
		return inbound{id: id, err: fmt.Errorf("%w: %s got %d bytes, want %d", ErrAreaSize, id, len(data), size)}
	}
	return inbound{id: id, data: data}
}

// Close closes the connection.
func (c *ClientConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closeCh)
		err = c.conn.Close()
	})
	return err
}
