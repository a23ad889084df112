package consumer

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"time"

	"github.com/lvarbridge/lvarbridge-go/pkg/area"
	"github.com/lvarbridge/lvarbridge-go/pkg/command"
	"github.com/lvarbridge/lvarbridge-go/pkg/wire"
)

// Conn is the consumer's connection to the bridge. transport.ClientConn
// satisfies it.
type Conn interface {
	Channel
	Receive(timeout time.Duration) (area.ID, []byte, error)
}

// SessionConfig configures a Session.
type SessionConfig struct {
	// CheckInterval is how often CHECKLVARS is sent to pick up new
	// variables. Zero disables polling.
	CheckInterval time.Duration

	// PollTimeout bounds a single receive so the session can notice
	// cancellation and send checks (default: 100ms).
	PollTimeout time.Duration

	// Logger for debug output (optional).
	Logger *slog.Logger
}

// DefaultSessionConfig returns the default session configuration.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		CheckInterval: 5 * time.Second,
		PollTimeout:   100 * time.Millisecond,
	}
}

// Session pumps a connection into a Manager.
type Session struct {
	conn    Conn
	manager *Manager
	config  SessionConfig
	logger  *slog.Logger
}

// NewSession creates a session. The manager should send through the same
// connection.
func NewSession(conn Conn, manager *Manager, config SessionConfig) *Session {
	if config.PollTimeout == 0 {
		config.PollTimeout = 100 * time.Millisecond
	}
	return &Session{
		conn:    conn,
		manager: manager,
		config:  config,
		logger:  config.Logger,
	}
}

// Manager returns the session's manager.
func (s *Session) Manager() *Manager {
	return s.manager
}

// Sync requests the full variable list.
func (s *Session) Sync() error {
	return s.conn.SendCommand(command.ListVars())
}

// Run requests the list and then processes incoming areas until ctx is
// done or the connection fails. It returns nil on cancellation.
func (s *Session) Run(ctx context.Context) error {
	if err := s.Sync(); err != nil {
		return err
	}

	var check <-chan time.Time
	if s.config.CheckInterval > 0 {
		ticker := time.NewTicker(s.config.CheckInterval)
		defer ticker.Stop()
		check = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-check:
			if err := s.conn.SendCommand(command.CheckVars()); err != nil {
				return err
			}
		default:
		}

		id, data, err := s.conn.Receive(s.config.PollTimeout)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		if err := s.Dispatch(id, data); err != nil {
			s.debugLog("dispatch failed", "area", id, "error", err)
		}
	}
}

// Dispatch routes one received area to the manager.
func (s *Session) Dispatch(id area.ID, data []byte) error {
	switch id {
	case area.Values:
		p, err := wire.DecodePacket(data)
		if err != nil {
			return err
		}
		s.manager.HandlePacket(p)
	case area.Response:
		return s.manager.HandleResponse(wire.DecodeText(data))
	default:
		s.debugLog("ignoring area", "area", id)
	}
	return nil
}

func (s *Session) debugLog(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
