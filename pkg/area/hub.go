package area

import (
	"fmt"
	"slices"
	"sync"
)

type entry struct {
	spec      Spec
	buf       []byte
	observers []func([]byte)
}

// Hub is an in-process Registry. Both sides of the bridge may live in the
// same process and share a Hub. It is safe for concurrent use; observers
// run on the writer's goroutine, outside the hub lock.
type Hub struct {
	mu    sync.RWMutex
	areas map[ID]*entry
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{areas: make(map[ID]*entry)}
}

// Register creates the area described by spec.
func (h *Hub) Register(spec Spec) error {
	if err := spec.Validate(); err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	e, exists := h.areas[spec.ID]
	if exists && e.buf != nil {
		return fmt.Errorf("%w: %s", ErrAreaExists, spec.Name)
	}
	if !exists {
		e = &entry{}
		h.areas[spec.ID] = e
	}
	e.spec = spec
	e.buf = make([]byte, spec.Size)
	return nil
}

// WriteArea replaces the area contents and notifies observers.
func (h *Hub) WriteArea(id ID, data []byte) error {
	h.mu.Lock()
	e, ok := h.areas[id]
	if !ok || e.buf == nil {
		h.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownArea, id)
	}
	if len(data) > e.spec.Size {
		h.mu.Unlock()
		return fmt.Errorf("%w: %d > %d bytes for %s", ErrAreaOverflow, len(data), e.spec.Size, e.spec.Name)
	}

	n := copy(e.buf, data)
	clear(e.buf[n:])
	snapshot := append([]byte(nil), e.buf...)
	observers := slices.Clone(e.observers)
	h.mu.Unlock()

	for _, fn := range observers {
		fn(snapshot)
	}
	return nil
}

// OnWrite registers fn for writes to area id. Observers of an area that is
// not registered yet are kept and fire once it exists.
func (h *Hub) OnWrite(id ID, fn func(data []byte)) {
	h.mu.Lock()
	defer h.mu.Unlock()

	e, ok := h.areas[id]
	if !ok {
		e = &entry{spec: Spec{ID: id}}
		h.areas[id] = e
	}
	e.observers = append(e.observers, fn)
}

// Read returns a copy of the current area contents.
func (h *Hub) Read(id ID) ([]byte, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	e, ok := h.areas[id]
	if !ok || e.buf == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownArea, id)
	}
	return append([]byte(nil), e.buf...), nil
}

// Spec returns the spec of a registered area.
func (h *Hub) Spec(id ID) (Spec, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	e, ok := h.areas[id]
	if !ok || e.buf == nil {
		return Spec{}, false
	}
	return e.spec, true
}

var _ Registry = (*Hub)(nil)
