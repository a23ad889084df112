package consumer

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lvarbridge/lvarbridge-go/pkg/area"
	"github.com/lvarbridge/lvarbridge-go/pkg/command"
	"github.com/lvarbridge/lvarbridge-go/pkg/wire"
)

type frame struct {
	id   area.ID
	data []byte
}

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

var _ net.Error = timeoutError{}

// fakeConn queues frames for Receive and records sent commands.
type fakeConn struct {
	recordingChannel
	mu     sync.Mutex
	frames []frame
	err    error
}

func (c *fakeConn) push(id area.ID, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, frame{id, data})
}

func (c *fakeConn) fail(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
}

func (c *fakeConn) Receive(timeout time.Duration) (area.ID, []byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.frames) > 0 {
		f := c.frames[0]
		c.frames = c.frames[1:]
		return f.id, f.data, nil
	}
	if c.err != nil {
		return 0, nil, c.err
	}
	time.Sleep(time.Millisecond)
	return 0, nil, timeoutError{}
}

func line(s string) []byte {
	return wire.EncodeText(s, wire.ResponseAreaSize)
}

func TestSessionRun(t *testing.T) {
	conn := &fakeConn{}
	m := NewManager(conn, ManagerConfig{})
	s := NewSession(conn, m, SessionConfig{PollTimeout: time.Millisecond})

	values := make(chan Event, 4)
	_, _ = m.AddListener("B", func(e Event) {
		if e.Err == nil {
			values <- e
		}
	})

	for _, l := range []string{wire.ListStart, "A", "B", wire.ListEnd} {
		conn.push(area.Response, line(l))
	}
	p := &wire.Packet{}
	p.Append(1, 6.5)
	data, _ := p.MarshalBinary()
	conn.push(area.Values, data)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	select {
	case e := <-values:
		assert.Equal(t, Event{Name: "B", Value: 6.5}, e)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for value")
	}

	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, []string{"LISTLVARS", "CLEAR", "SUBSCRIBE 1"}, conn.commands())
}

func TestSessionPollsForNewVariables(t *testing.T) {
	conn := &fakeConn{}
	s := NewSession(conn, NewManager(conn, ManagerConfig{}), SessionConfig{
		CheckInterval: 5 * time.Millisecond,
		PollTimeout:   time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	assert.Eventually(t, func() bool {
		for _, c := range conn.commands() {
			if c == command.CheckVars().String() {
				return true
			}
		}
		return false
	}, 2*time.Second, 5*time.Millisecond)
}

func TestSessionReturnsConnectionError(t *testing.T) {
	conn := &fakeConn{}
	conn.fail(errors.New("connection reset"))
	s := NewSession(conn, NewManager(conn, ManagerConfig{}), SessionConfig{})

	err := s.Run(context.Background())
	assert.EqualError(t, err, "connection reset")
}

func TestSessionSyncFailure(t *testing.T) {
	conn := &fakeConn{}
	conn.recordingChannel.err = errors.New("closed")
	s := NewSession(conn, NewManager(conn, ManagerConfig{}), SessionConfig{})

	assert.Error(t, s.Run(context.Background()))
}

func TestSessionDispatch(t *testing.T) {
	conn := &fakeConn{}
	s := NewSession(conn, NewManager(conn, ManagerConfig{}), DefaultSessionConfig())

	assert.Error(t, s.Dispatch(area.Values, []byte{1, 2, 3}))
	assert.NoError(t, s.Dispatch(area.Request, line("CLEAR")))
	assert.NoError(t, s.Dispatch(area.Response, line("stray")))
	assert.Same(t, s.manager, s.Manager())
}
