package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/lvarbridge/lvarbridge-go/pkg/area"
	"github.com/lvarbridge/lvarbridge-go/pkg/log"
)

// DefaultPort is the default bridge TCP port.
const DefaultPort = 4710

// Server errors.
var (
	ErrServerRunning    = errors.New("server already running")
	ErrConnectionClosed = errors.New("connection closed")
)

// ServerConfig configures a bridge server.
type ServerConfig struct {
	// Address to listen on (e.g., ":4710" or "127.0.0.1:0").
	Address string

	// MaxMessageSize is the maximum frame payload size (default: 4 KB).
	MaxMessageSize uint32

	// WriteTimeout bounds a single frame write to a consumer so a stalled
	// consumer cannot hold up the bridge (default: 1s).
	WriteTimeout time.Duration

	// Logger for protocol logging (optional).
	Logger log.Logger

	// OnConnect is called when a new connection is established.
	OnConnect func(conn *ServerConn)

	// OnDisconnect is called when a connection is closed.
	OnDisconnect func(conn *ServerConn)

	// OnError is called when an error occurs. conn is nil for listener
	// errors.
	OnError func(conn *ServerConn, err error)
}

type serverArea struct {
	spec      area.Spec
	buf       []byte
	observers []func([]byte)
}

// Server publishes areas to every connected consumer.
type Server struct {
	config   ServerConfig
	listener net.Listener

	// Active connections
	conns   map[*ServerConn]struct{}
	connsMu sync.RWMutex

	// Registered areas
	areas   map[area.ID]*serverArea
	areasMu sync.Mutex

	// State
	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewServer creates a new bridge server.
func NewServer(config ServerConfig) *Server {
	if config.Address == "" {
		config.Address = fmt.Sprintf(":%d", DefaultPort)
	}
	if config.MaxMessageSize == 0 {
		config.MaxMessageSize = DefaultMaxMessageSize
	}
	if config.WriteTimeout == 0 {
		config.WriteTimeout = time.Second
	}

	return &Server{
		config: config,
		conns:  make(map[*ServerConn]struct{}),
		areas:  make(map[area.ID]*serverArea),
	}
}

// Start starts the server and begins accepting connections.
func (s *Server) Start(ctx context.Context) error {
	if s.running.Load() {
		return ErrServerRunning
	}

	listener, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	s.listener = listener
	s.ctx, s.cancel = context.WithCancel(ctx)

	s.running.Store(true)

	s.wg.Add(1)
	go s.acceptLoop()

	return nil
}

// Stop stops the server and closes all connections.
func (s *Server) Stop() error {
	if !s.running.Load() {
		return nil
	}

	s.running.Store(false)
	s.cancel()

	// Close listener to stop accept loop
	if s.listener != nil {
		s.listener.Close()
	}

	s.connsMu.Lock()
	for conn := range s.conns {
		conn.Close()
	}
	s.connsMu.Unlock()

	s.wg.Wait()

	return nil
}

// Addr returns the server's listen address.
func (s *Server) Addr() net.Addr {
	if s.listener != nil {
		return s.listener.Addr()
	}
	return nil
}

// ConnectionCount returns the number of active connections.
func (s *Server) ConnectionCount() int {
	s.connsMu.RLock()
	defer s.connsMu.RUnlock()
	return len(s.conns)
}

// Register creates an area.
func (s *Server) Register(spec area.Spec) error {
	if err := spec.Validate(); err != nil {
		return err
	}
	if uint32(spec.Size+AreaIDSize) > s.config.MaxMessageSize {
		return fmt.Errorf("%w: %s needs %d bytes", ErrMessageTooLarge, spec.Name, spec.Size+AreaIDSize)
	}

	s.areasMu.Lock()
	defer s.areasMu.Unlock()

	a, exists := s.areas[spec.ID]
	if exists && a.buf != nil {
		return fmt.Errorf("%w: %s", area.ErrAreaExists, spec.Name)
	}
	if !exists {
		a = &serverArea{}
		s.areas[spec.ID] = a
	}
	a.spec = spec
	a.buf = make([]byte, spec.Size)
	return nil
}

// WriteArea replaces the area contents, notifies local observers and
// broadcasts the area to every connection. Connections that fail to
// receive it are closed; their errors are returned joined.
func (s *Server) WriteArea(id area.ID, data []byte) error {
	snapshot, observers, err := s.store(id, data)
	if err != nil {
		return err
	}
	for _, fn := range observers {
		fn(snapshot)
	}

	payload := EncodeAreaFrame(id, snapshot)

	s.connsMu.RLock()
	conns := make([]*ServerConn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.connsMu.RUnlock()

	var errs []error
	for _, c := range conns {
		if err := c.Send(payload); err != nil {
			errs = append(errs, fmt.Errorf("conn %s: %w", c.connID, err))
			c.Close()
		}
	}
	return errors.Join(errs...)
}

// OnWrite registers fn for writes to area id, from either side.
func (s *Server) OnWrite(id area.ID, fn func(data []byte)) {
	s.areasMu.Lock()
	defer s.areasMu.Unlock()

	a, ok := s.areas[id]
	if !ok {
		a = &serverArea{spec: area.Spec{ID: id}}
		s.areas[id] = a
	}
	a.observers = append(a.observers, fn)
}

// store copies data into the area buffer and returns a snapshot with the
// observers to notify.
func (s *Server) store(id area.ID, data []byte) ([]byte, []func([]byte), error) {
	s.areasMu.Lock()
	defer s.areasMu.Unlock()

	a, ok := s.areas[id]
	if !ok || a.buf == nil {
		return nil, nil, fmt.Errorf("%w: %s", area.ErrUnknownArea, id)
	}
	if len(data) > a.spec.Size {
		return nil, nil, fmt.Errorf("%w: %d > %d bytes for %s", area.ErrAreaOverflow, len(data), a.spec.Size, a.spec.Name)
	}

	n := copy(a.buf, data)
	clear(a.buf[n:])
	return append([]byte(nil), a.buf...), slices.Clone(a.observers), nil
}

// receive handles an area frame written by a consumer. The frame must carry
// exactly one registered area.
func (s *Server) receive(id area.ID, data []byte) error {
	s.areasMu.Lock()
	a, ok := s.areas[id]
	if !ok || a.buf == nil {
		s.areasMu.Unlock()
		return fmt.Errorf("%w: %s", area.ErrUnknownArea, id)
	}
	size := a.spec.Size
	s.areasMu.Unlock()

	if len(data) != size {
		return fmt.Errorf("%w: %s got %d bytes, want %d", ErrAreaSize, id, len(data), size)
	}

	snapshot, observers, err := s.store(id, data)
	if err != nil {
		return err
	}
	for _, fn := range observers {
		fn(snapshot)
	}
	return nil
}

// acceptLoop accepts incoming connections.
func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for s.running.Load() {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.running.Load() && s.config.OnError != nil {
				s.config.OnError(nil, fmt.Errorf("accept error: %w", err))
			}
			continue
		}

		s.wg.Add(1)
		go s.handleConnection(conn)
	}
}

// handleConnection processes a single connection.
func (s *Server) handleConnection(conn net.Conn) {
	defer s.wg.Done()

	connID := uuid.New().String()

	framer := NewFramerWithMaxSize(conn, s.config.MaxMessageSize)
	if s.config.Logger != nil {
		framer.SetLogger(s.config.Logger, connID)
	}

	sconn := &ServerConn{
		conn:       conn,
		framer:     framer,
		server:     s,
		closeCh:    make(chan struct{}),
		remoteAddr: conn.RemoteAddr(),
		connID:     connID,
	}

	s.logState(sconn, "", "CONNECTED")

	s.connsMu.Lock()
	s.conns[sconn] = struct{}{}
	s.connsMu.Unlock()

	if s.config.OnConnect != nil {
		s.config.OnConnect(sconn)
	}

	sconn.readLoop()

	s.connsMu.Lock()
	delete(s.conns, sconn)
	s.connsMu.Unlock()
	sconn.Close()

	s.logState(sconn, "CONNECTED", "DISCONNECTED")

	if s.config.OnDisconnect != nil {
		s.config.OnDisconnect(sconn)
	}
}

func (s *Server) logState(c *ServerConn, oldState, newState string) {
	if s.config.Logger == nil {
		return
	}
	s.config.Logger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: c.connID,
		Layer:        log.LayerTransport,
		Category:     log.CategoryState,
		RemoteAddr:   c.remoteAddr.String(),
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityConnection,
			OldState: oldState,
			NewState: newState,
		},
	})
}

func (s *Server) reportError(c *ServerConn, err error) {
	if s.config.Logger != nil {
		s.config.Logger.Log(log.Event{
			Timestamp:    time.Now(),
			ConnectionID: c.connID,
			Layer:        log.LayerTransport,
			Category:     log.CategoryError,
			RemoteAddr:   c.remoteAddr.String(),
			Error: &log.ErrorEventData{
				Layer:   log.LayerTransport,
				Message: err.Error(),
				Context: "receive",
			},
		})
	}
	if s.config.OnError != nil {
		s.config.OnError(c, err)
	}
}

// ServerConn represents a consumer connection to the server.
type ServerConn struct {
	conn       net.Conn
	framer     *Framer
	server     *Server
	closeCh    chan struct{}
	closeOnce  sync.Once
	remoteAddr net.Addr
	connID     string // Unique connection identifier

	writeMu sync.Mutex
}

// RemoteAddr returns the remote address of the consumer.
func (c *ServerConn) RemoteAddr() net.Addr {
	return c.remoteAddr
}

// ConnID returns the unique connection identifier.
func (c *ServerConn) ConnID() string {
	return c.connID
}

// Send sends a frame payload to the consumer.
func (c *ServerConn) Send(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	select {
	case <-c.closeCh:
		return ErrConnectionClosed
	default:
	}

	c.conn.SetWriteDeadline(time.Now().Add(c.server.config.WriteTimeout))
	defer c.conn.SetWriteDeadline(time.Time{})
	return c.framer.WriteFrame(data)
}

// Close closes the connection.
func (c *ServerConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closeCh)
		err = c.conn.Close()
	})
	return err
}

// readLoop reads area frames until the connection fails. Frames for unknown
// areas or with the wrong size are reported and skipped; framing errors end
// the connection.
func (c *ServerConn) readLoop() {
	for {
		select {
		case <-c.closeCh:
			return
		case <-c.server.ctx.Done():
			return
		default:
		}

		payload, err := c.framer.ReadFrame()
		if err != nil {
			if errors.Is(err, ErrMessageEmpty) {
				c.server.reportError(c, err)
				continue
			}
			if c.server.running.Load() {
				select {
				case <-c.closeCh:
				default:
					if !errors.Is(err, io.EOF) {
						c.server.reportError(c, err)
					}
				}
			}
			return
		}

		id, data, err := DecodeAreaFrame(payload)
		if err == nil {
			err = c.server.receive(id, data)
		}
		if err != nil {
			c.server.reportError(c, err)
		}
	}
}
