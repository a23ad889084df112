package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lvarbridge/lvarbridge-go/pkg/area"
	"github.com/lvarbridge/lvarbridge-go/pkg/log"
)

// Service runs an Engine against an area.Registry.
type Service struct {
	mu     sync.RWMutex
	state  State
	config ServiceConfig

	host     Host
	registry area.Registry
	engine   *Engine

	commands chan []byte
	stats    chan chan Stats

	cancel context.CancelFunc
	done   chan struct{}

	logger         *slog.Logger
	protocolLogger log.Logger
}

// NewService creates a service for host publishing through registry.
func NewService(host Host, registry area.Registry, config ServiceConfig) (*Service, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	engine, err := NewEngine(host, registry, config.Config)
	if err != nil {
		return nil, err
	}

	queue := config.CommandQueue
	if queue == 0 {
		queue = DefaultCommandQueue
	}

	return &Service{
		state:          StateIdle,
		config:         config,
		host:           host,
		registry:       registry,
		engine:         engine,
		commands:       make(chan []byte, queue),
		stats:          make(chan chan Stats),
		logger:         config.Logger,
		protocolLogger: config.ProtocolLogger,
	}, nil
}

// State returns the current lifecycle state.
func (s *Service) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Start registers the areas, hooks the request area and starts the loop.
// If any area cannot be registered the service becomes inert for good and
// the registration error is returned.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateRunning:
		return ErrAlreadyStarted
	case StateInert:
		return ErrInert
	case StateStopped:
		return ErrAlreadyStarted
	}

	for _, spec := range area.DefaultSpecs() {
		if err := s.registry.Register(spec); err != nil {
			s.setStateLocked(StateInert, err.Error())
			if s.logger != nil {
				s.logger.Error("area registration failed, bridge inert", "area", spec.Name, "error", err)
			}
			return fmt.Errorf("register %s: %w", spec.Name, err)
		}
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	s.registry.OnWrite(area.Request, func(data []byte) {
		s.enqueue(loopCtx, data)
	})

	s.setStateLocked(StateRunning, "")
	go s.run(loopCtx, cancel)
	return nil
}

// Stop ends the loop and waits for it to exit. Pending commands and the
// in-progress state are discarded.
func (s *Service) Stop() error {
	s.mu.Lock()
	if s.state != StateRunning {
		s.mu.Unlock()
		return ErrNotStarted
	}
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	cancel()
	<-done
	return nil
}

// Done returns a channel closed when the loop exits, or nil if the service
// never started.
func (s *Service) Done() <-chan struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.done
}

// Stats returns the engine counters. While running, the snapshot is taken
// on the loop goroutine.
func (s *Service) Stats() Stats {
	s.mu.RLock()
	running := s.state == StateRunning
	done := s.done
	s.mu.RUnlock()

	if running {
		reply := make(chan Stats, 1)
		select {
		case s.stats <- reply:
			return <-reply
		case <-done:
		}
	}
	return s.engine.Stats()
}

func (s *Service) enqueue(ctx context.Context, data []byte) {
	cmd := append([]byte(nil), data...)
	select {
	case s.commands <- cmd:
	case <-ctx.Done():
	}
}

func (s *Service) run(ctx context.Context, cancel context.CancelFunc) {
	reason := "stopped"
	defer func() {
		cancel()
		s.mu.Lock()
		s.setStateLocked(StateStopped, reason)
		close(s.done)
		s.mu.Unlock()
	}()

	frames := s.config.Frames
	if frames == nil {
		ticks := make(chan struct{})
		ticker := time.NewTicker(s.config.frameInterval())
		defer ticker.Stop()
		go func() {
			for {
				select {
				case <-ticker.C:
					select {
					case ticks <- struct{}{}:
					case <-ctx.Done():
						return
					}
				case <-ctx.Done():
					return
				}
			}
		}()
		frames = ticks
	}

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-frames:
			if !ok {
				reason = "frame source closed"
				return
			}
			s.engine.OnFrame()
		case raw := <-s.commands:
			s.engine.OnCommand(raw)
		case reply := <-s.stats:
			reply <- s.engine.Stats()
		}
	}
}

func (s *Service) setStateLocked(state State, reason string) {
	old := s.state
	s.state = state
	s.debugLog("bridge state changed", "from", old, "to", state)

	if s.protocolLogger != nil {
		s.protocolLogger.Log(log.Event{
			Timestamp: time.Now(),
			Layer:     log.LayerEngine,
			Category:  log.CategoryState,
			StateChange: &log.StateChangeEvent{
				Entity:   log.StateEntityBridge,
				OldState: old.String(),
				NewState: state.String(),
				Reason:   reason,
			},
		})
	}
}

func (s *Service) debugLog(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
