package consumer

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/lvarbridge/lvarbridge-go/pkg/area"
	"github.com/lvarbridge/lvarbridge-go/pkg/command"
	"github.com/lvarbridge/lvarbridge-go/pkg/wire"
)

// ErrLocalClosed is returned by a closed LocalConn.
var ErrLocalClosed = errors.New("local connection closed")

type localArea struct {
	id   area.ID
	data []byte
}

// LocalConn is a consumer connection to a bridge in the same process,
// sharing an area.Hub. Area writes are queued without bound, so the
// bridge never blocks on a slow consumer and no packet is lost.
type LocalConn struct {
	hub *area.Hub

	mu     sync.Mutex
	queue  []localArea
	closed bool

	ready chan struct{}
	done  chan struct{}
}

// NewLocalConn attaches a consumer to hub. It may be created before the
// bridge registers its areas.
func NewLocalConn(hub *area.Hub) *LocalConn {
	c := &LocalConn{
		hub:   hub,
		ready: make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
	hub.OnWrite(area.Values, func(data []byte) { c.enqueue(area.Values, data) })
	hub.OnWrite(area.Response, func(data []byte) { c.enqueue(area.Response, data) })
	return c
}

func (c *LocalConn) enqueue(id area.ID, data []byte) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.queue = append(c.queue, localArea{id: id, data: data})
	c.mu.Unlock()

	select {
	case c.ready <- struct{}{}:
	default:
	}
}

// SendCommand writes cmd into the request area.
func (c *LocalConn) SendCommand(cmd command.Command) error {
	return c.write(cmd.Encode())
}

// SendText writes raw text into the request area.
func (c *LocalConn) SendText(text string) error {
	return c.write(wire.EncodeText(text, wire.RequestAreaSize))
}

func (c *LocalConn) write(data []byte) error {
	select {
	case <-c.done:
		return ErrLocalClosed
	default:
	}
	return c.hub.WriteArea(area.Request, data)
}

// Receive returns the next area the bridge wrote. A timeout of zero waits
// indefinitely; an expired timeout wraps os.ErrDeadlineExceeded.
func (c *LocalConn) Receive(timeout time.Duration) (area.ID, []byte, error) {
	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	for {
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return 0, nil, ErrLocalClosed
		}
		if len(c.queue) > 0 {
			next := c.queue[0]
			c.queue[0] = localArea{}
			c.queue = c.queue[1:]
			c.mu.Unlock()
			return next.id, next.data, nil
		}
		c.mu.Unlock()

		select {
		case <-c.ready:
		case <-c.done:
			return 0, nil, ErrLocalClosed
		case <-expired:
			return 0, nil, fmt.Errorf("receive: %w", os.ErrDeadlineExceeded)
		}
	}
}

// Close detaches the connection. Pending areas are discarded.
func (c *LocalConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	c.queue = nil
	close(c.done)
	return nil
}

var _ Conn = (*LocalConn)(nil)
