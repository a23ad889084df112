package consumer

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/lvarbridge/lvarbridge-go/pkg/command"
	"github.com/lvarbridge/lvarbridge-go/pkg/wire"
)

// Listener errors, delivered in Event.Err.
var (
	// ErrNoValue indicates a known variable for which no value has arrived.
	ErrNoValue = errors.New("no value yet received from host")

	// ErrNoSuchVariable indicates a name missing from the bridge's list.
	ErrNoSuchVariable = errors.New("variable does not exist")

	// ErrUnknownListener indicates a listener id that is not registered.
	ErrUnknownListener = errors.New("unknown listener")
)

// Channel sends commands to the bridge.
type Channel interface {
	SendCommand(cmd command.Command) error
}

// Event is delivered to listeners. Err is set when no value is available.
type Event struct {
	Name  string
	Value float64
	Err   error
}

// Listener receives variable events. It is called without the manager lock
// held and may call back into the Manager.
type Listener func(Event)

// ListenerID identifies a registered listener.
type ListenerID uint64

// ManagerConfig configures a Manager.
type ManagerConfig struct {
	// Logger for debug output (optional).
	Logger *slog.Logger
}

type delivery struct {
	fn    Listener
	event Event
}

// Manager is safe for concurrent use.
type Manager struct {
	mu      sync.Mutex
	channel Channel

	ids    map[string]wire.Handle
	names  map[wire.Handle]string
	values map[string]float64

	listeners map[string]map[ListenerID]Listener
	owners    map[ListenerID]string
	nextID    ListenerID

	// List being received between the sentinels.
	inList  bool
	pending []string

	logger *slog.Logger
}

// NewManager creates a manager sending commands through channel.
func NewManager(channel Channel, config ManagerConfig) *Manager {
	return &Manager{
		channel:   channel,
		ids:       make(map[string]wire.Handle),
		names:     make(map[wire.Handle]string),
		values:    make(map[string]float64),
		listeners: make(map[string]map[ListenerID]Listener),
		owners:    make(map[ListenerID]string),
		logger:    config.Logger,
	}
}

// AddListener registers fn for name and immediately delivers the last
// known value, or an error event explaining why there is none. The first
// listener of a known name subscribes it on the bridge. A failed send is
// returned but the listener stays registered.
func (m *Manager) AddListener(name string, fn Listener) (ListenerID, error) {
	m.mu.Lock()
	m.nextID++
	id := m.nextID

	set, exists := m.listeners[name]
	if !exists {
		set = make(map[ListenerID]Listener)
		m.listeners[name] = set
	}
	set[id] = fn
	m.owners[id] = name

	var err error
	if h, known := m.ids[name]; known && !exists {
		err = m.send(command.Subscribe(h))
	}
	ev := m.currentLocked(name)
	m.mu.Unlock()

	fn(ev)
	return id, err
}

// RemoveListener unregisters a listener. Removing the last listener of a
// known name unsubscribes it on the bridge.
func (m *Manager) RemoveListener(id ListenerID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	name, ok := m.owners[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownListener, id)
	}
	delete(m.owners, id)

	set := m.listeners[name]
	delete(set, id)
	if len(set) > 0 {
		return nil
	}
	delete(m.listeners, name)

	if h, known := m.ids[name]; known {
		return m.send(command.Unsubscribe(h))
	}
	return nil
}

// HandleResponse processes one response area line. Lines between the list
// sentinels are collected; the end sentinel installs the list.
func (m *Manager) HandleResponse(line string) error {
	m.mu.Lock()
	switch {
	case line == wire.ListStart:
		m.inList = true
		m.pending = m.pending[:0]
		m.mu.Unlock()
		return nil
	case line == wire.ListEnd:
		if !m.inList {
			m.mu.Unlock()
			m.debugLog("list end without start")
			return nil
		}
		names := slices.Clone(m.pending)
		m.inList = false
		m.pending = m.pending[:0]
		m.mu.Unlock()
		return m.UpdateList(names)
	case m.inList:
		m.pending = append(m.pending, line)
	default:
		m.debugLog("response line outside list", "line", line)
	}
	m.mu.Unlock()
	return nil
}

// UpdateList installs a full variable list, positionally indexed by
// handle. All bridge subscriptions are cleared and every listened name in
// the list is subscribed again. When a name appears twice the first handle
// wins.
func (m *Manager) UpdateList(names []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	if err := m.send(command.Clear()); err != nil {
		errs = append(errs, err)
	}

	clear(m.ids)
	clear(m.names)

	for i, name := range names {
		if i > wire.MaxHandle {
			break
		}
		h := wire.Handle(i)
		if _, dup := m.ids[name]; dup {
			continue
		}
		m.ids[name] = h
		m.names[h] = name

		if _, listened := m.listeners[name]; listened {
			if err := m.send(command.Subscribe(h)); err != nil {
				errs = append(errs, err)
			}
		}
	}

	m.debugLog("variable list updated", "count", len(m.ids))
	return errors.Join(errs...)
}

// HandlePacket records the values in p and notifies their listeners.
// Entries for handles missing from the list are skipped.
func (m *Manager) HandlePacket(p *wire.Packet) {
	var out []delivery

	m.mu.Lock()
	for i := 0; i < p.Len(); i++ {
		h, v := p.Entry(i)
		name, ok := m.names[h]
		if !ok {
			m.debugLog("value for unknown handle", "handle", h)
			continue
		}
		m.values[name] = v

		for _, fn := range m.listeners[name] {
			out = append(out, delivery{fn: fn, event: Event{Name: name, Value: v}})
		}
	}
	m.mu.Unlock()

	for _, d := range out {
		d.fn(d.event)
	}
}

// Value returns the last value of name, or ErrNoValue / ErrNoSuchVariable.
func (m *Manager) Value(name string) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ev := m.currentLocked(name)
	return ev.Value, ev.Err
}

// Handle returns the handle of name in the current list.
func (m *Manager) Handle(name string) (wire.Handle, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	h, ok := m.ids[name]
	return h, ok
}

// Names returns the current list in handle order.
func (m *Manager) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	handles := make([]wire.Handle, 0, len(m.names))
	for h := range m.names {
		handles = append(handles, h)
	}
	slices.Sort(handles)

	out := make([]string, len(handles))
	for i, h := range handles {
		out[i] = m.names[h]
	}
	return out
}

// Listened returns the names that have at least one listener, sorted.
func (m *Manager) Listened() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, 0, len(m.listeners))
	for name := range m.listeners {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

func (m *Manager) currentLocked(name string) Event {
	if v, ok := m.values[name]; ok {
		return Event{Name: name, Value: v}
	}
	if _, known := m.ids[name]; known {
		return Event{Name: name, Err: ErrNoValue}
	}
	return Event{Name: name, Err: ErrNoSuchVariable}
}

func (m *Manager) send(cmd command.Command) error {
	if m.channel == nil {
		return nil
	}
	if err := m.channel.SendCommand(cmd); err != nil {
		m.debugLog("command send failed", "command", cmd.String(), "error", err)
		return fmt.Errorf("send %s: %w", cmd, err)
	}
	return nil
}

func (m *Manager) debugLog(msg string, args ...any) {
	if m.logger != nil {
		m.logger.Debug(msg, args...)
	}
}
