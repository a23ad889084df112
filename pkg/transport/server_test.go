package transport_test

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/lvarbridge/lvarbridge-go/pkg/area"
	"github.com/lvarbridge/lvarbridge-go/pkg/command"
	"github.com/lvarbridge/lvarbridge-go/pkg/log"
	"github.com/lvarbridge/lvarbridge-go/pkg/transport"
	"github.com/lvarbridge/lvarbridge-go/pkg/wire"
)

// startTestServer starts a loopback server with the bridge areas registered.
// The returned channel receives every accepted connection.
func startTestServer(t *testing.T, config transport.ServerConfig) (*transport.Server, <-chan *transport.ServerConn) {
	t.Helper()

	connected := make(chan *transport.ServerConn, 8)
	onConnect := config.OnConnect
	config.Address = "127.0.0.1:0"
	config.OnConnect = func(conn *transport.ServerConn) {
		if onConnect != nil {
			onConnect(conn)
		}
		connected <- conn
	}

	server := transport.NewServer(config)
	for _, spec := range area.DefaultSpecs() {
		if err := server.Register(spec); err != nil {
			t.Fatalf("Register(%s) failed: %v", spec.Name, err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	if err := server.Start(ctx); err != nil {
		cancel()
		t.Fatalf("Failed to start server: %v", err)
	}
	t.Cleanup(func() {
		server.Stop()
		cancel()
	})
	return server, connected
}

func dialTestServer(t *testing.T, server *transport.Server, connected <-chan *transport.ServerConn) *transport.ClientConn {
	t.Helper()

	conn, err := transport.Dial(context.Background(), server.Addr().String())
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	select {
	case <-connected:
	case <-time.After(2 * time.Second):
		t.Fatal("Timeout waiting for server to accept")
	}
	return conn
}

func TestServerBroadcastsAreaWrites(t *testing.T) {
	server, connected := startTestServer(t, transport.ServerConfig{})
	clients := []*transport.ClientConn{
		dialTestServer(t, server, connected),
		dialTestServer(t, server, connected),
		dialTestServer(t, server, connected),
	}

	if got := server.ConnectionCount(); got != 3 {
		t.Errorf("ConnectionCount = %d, want 3", got)
	}

	p := &wire.Packet{}
	p.Append(7, 2.5)
	data, _ := p.MarshalBinary()
	if err := server.WriteArea(area.Values, data); err != nil {
		t.Fatalf("WriteArea failed: %v", err)
	}

	for i, c := range clients {
		id, got, err := c.Receive(2 * time.Second)
		if err != nil {
			t.Fatalf("client %d: Receive failed: %v", i, err)
		}
		if id != area.Values {
			t.Errorf("client %d: area = %v, want Values", i, id)
		}
		decoded, err := wire.DecodePacket(got)
		if err != nil {
			t.Fatalf("client %d: DecodePacket failed: %v", i, err)
		}
		if decoded.Count != 1 || decoded.Handles[0] != 7 || decoded.Values[0] != 2.5 {
			t.Errorf("client %d: packet = %+v", i, decoded)
		}
	}
}

func TestServerPadsShortWrites(t *testing.T) {
	server, connected := startTestServer(t, transport.ServerConfig{})
	client := dialTestServer(t, server, connected)

	if err := server.WriteArea(area.Response, []byte("A")); err != nil {
		t.Fatalf("WriteArea failed: %v", err)
	}

	id, data, err := client.Receive(2 * time.Second)
	if err != nil {
		t.Fatalf("Receive failed: %v", err)
	}
	if id != area.Response || len(data) != wire.ResponseAreaSize {
		t.Errorf("got area %v with %d bytes, want Response with %d", id, len(data), wire.ResponseAreaSize)
	}
	if wire.DecodeText(data) != "A" {
		t.Errorf("line = %q, want A", wire.DecodeText(data))
	}
}

func TestServerDeliversCommands(t *testing.T) {
	server, connected := startTestServer(t, transport.ServerConfig{})

	received := make(chan string, 4)
	server.OnWrite(area.Request, func(data []byte) {
		received <- wire.DecodeText(data)
	})

	client := dialTestServer(t, server, connected)
	if err := client.SendCommand(command.Subscribe(12)); err != nil {
		t.Fatalf("SendCommand failed: %v", err)
	}
	if err := client.SendText("LISTLVARS"); err != nil {
		t.Fatalf("SendText failed: %v", err)
	}

	for _, want := range []string{"SUBSCRIBE 12", "LISTLVARS"} {
		select {
		case got := <-received:
			if got != want {
				t.Errorf("command = %q, want %q", got, want)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("Timeout waiting for %q", want)
		}
	}
}

func TestServerRejectsBadFrames(t *testing.T) {
	var mu sync.Mutex
	var errs []error
	server, connected := startTestServer(t, transport.ServerConfig{
		OnError: func(conn *transport.ServerConn, err error) {
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
		},
	})

	received := make(chan string, 4)
	server.OnWrite(area.Request, func(data []byte) {
		received <- wire.DecodeText(data)
	})

	conn, err := net.Dial("tcp", server.Addr().String())
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()
	<-connected

	framer := transport.NewFramer(conn)
	// Short request area, unknown area, then a valid command.
	framer.WriteFrame(transport.EncodeAreaFrame(area.Request, []byte("CLEAR")))
	framer.WriteFrame(transport.EncodeAreaFrame(9, []byte("CLEAR")))
	framer.WriteFrame(transport.EncodeAreaFrame(area.Request, wire.EncodeText("CLEAR", wire.RequestAreaSize)))

	select {
	case got := <-received:
		if got != "CLEAR" {
			t.Errorf("command = %q, want CLEAR", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timeout waiting for valid command")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(errs) != 2 {
		t.Fatalf("got %d errors, want 2: %v", len(errs), errs)
	}
	if !errors.Is(errs[0], transport.ErrAreaSize) {
		t.Errorf("first error = %v, want ErrAreaSize", errs[0])
	}
	if !errors.Is(errs[1], area.ErrUnknownArea) {
		t.Errorf("second error = %v, want ErrUnknownArea", errs[1])
	}
}

func TestServerRegister(t *testing.T) {
	server := transport.NewServer(transport.ServerConfig{MaxMessageSize: 200})

	if err := server.Register(area.Spec{ID: area.Values, Name: area.ValuesName, Size: wire.PacketSize}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	err := server.Register(area.Spec{ID: area.Values, Name: area.ValuesName, Size: wire.PacketSize})
	if !errors.Is(err, area.ErrAreaExists) {
		t.Errorf("expected ErrAreaExists, got %v", err)
	}

	err = server.Register(area.Spec{ID: area.Request, Name: area.RequestName, Size: wire.RequestAreaSize})
	if !errors.Is(err, transport.ErrMessageTooLarge) {
		t.Errorf("expected ErrMessageTooLarge, got %v", err)
	}

	if err := server.WriteArea(area.Response, []byte("x")); !errors.Is(err, area.ErrUnknownArea) {
		t.Errorf("expected ErrUnknownArea, got %v", err)
	}
	if err := server.WriteArea(area.Values, make([]byte, wire.PacketSize+1)); !errors.Is(err, area.ErrAreaOverflow) {
		t.Errorf("expected ErrAreaOverflow, got %v", err)
	}
}

func TestServerWriteWithoutConnections(t *testing.T) {
	server, _ := startTestServer(t, transport.ServerConfig{})

	notified := 0
	server.OnWrite(area.Response, func([]byte) { notified++ })

	if err := server.WriteArea(area.Response, []byte("A")); err != nil {
		t.Errorf("WriteArea without consumers = %v, want nil", err)
	}
	if notified != 1 {
		t.Errorf("observers notified %d times, want 1", notified)
	}
}

func TestServerLogsConnectionState(t *testing.T) {
	logger := &stateLogger{}
	server, connected := startTestServer(t, transport.ServerConfig{Logger: logger})

	disconnected := make(chan struct{})
	client := dialTestServer(t, server, connected)
	go func() {
		for server.ConnectionCount() != 0 {
			time.Sleep(5 * time.Millisecond)
		}
		close(disconnected)
	}()
	client.Close()

	select {
	case <-disconnected:
	case <-time.After(2 * time.Second):
		t.Fatal("Timeout waiting for disconnect")
	}

	// The disconnect event is logged after the connection is unregistered.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if states := logger.states(); len(states) == 2 {
			if states[0] != "CONNECTED" || states[1] != "DISCONNECTED" {
				t.Errorf("states = %v", states)
			}
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("states = %v, want CONNECTED, DISCONNECTED", logger.states())
}

func TestServerStopClosesConnections(t *testing.T) {
	server, connected := startTestServer(t, transport.ServerConfig{})
	client := dialTestServer(t, server, connected)

	if err := server.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if _, _, err := client.Receive(2 * time.Second); err == nil {
		t.Error("Receive after server stop should fail")
	}
	if err := server.Stop(); err != nil {
		t.Errorf("second Stop = %v, want nil", err)
	}
}

func TestServerStartTwice(t *testing.T) {
	server, _ := startTestServer(t, transport.ServerConfig{})
	if err := server.Start(context.Background()); !errors.Is(err, transport.ErrServerRunning) {
		t.Errorf("expected ErrServerRunning, got %v", err)
	}
}

type stateLogger struct {
	mu     sync.Mutex
	events []log.Event
}

func (l *stateLogger) Log(e log.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *stateLogger) states() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []string
	for _, e := range l.events {
		if e.StateChange != nil && e.StateChange.Entity == log.StateEntityConnection {
			out = append(out, e.StateChange.NewState)
		}
	}
	return out
}
