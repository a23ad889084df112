package bridge

import (
	"sync"

	"github.com/lvarbridge/lvarbridge-go/pkg/area"
	"github.com/lvarbridge/lvarbridge-go/pkg/wire"
)

// testHost is a host namespace backed by a slice of names and a value map.
type testHost struct {
	mu     sync.Mutex
	names  []string
	values map[wire.Handle]float64
}

func newTestHost(names ...string) *testHost {
	return &testHost{names: names, values: make(map[wire.Handle]float64)}
}

func (h *testHost) ResolveNameAt(handle wire.Handle) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if int(handle) >= len(h.names) {
		return "", false
	}
	return h.names[handle], true
}

func (h *testHost) ReadValue(handle wire.Handle) float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.values[handle]
}

func (h *testHost) set(handle wire.Handle, v float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.values[handle] = v
}

func (h *testHost) add(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.names = append(h.names, name)
}

// recorder captures outbound area writes.
type recorder struct {
	packets []*wire.Packet
	lines   []string
}

func (r *recorder) WriteArea(id area.ID, data []byte) error {
	switch id {
	case area.Values:
		p, err := wire.DecodePacket(data)
		if err != nil {
			return err
		}
		r.packets = append(r.packets, p)
	case area.Response:
		r.lines = append(r.lines, wire.DecodeText(data))
	}
	return nil
}

func (r *recorder) reset() {
	r.packets = nil
	r.lines = nil
}
