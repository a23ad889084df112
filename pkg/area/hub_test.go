package area

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lvarbridge/lvarbridge-go/pkg/wire"
)

func registerDefaults(t *testing.T, h *Hub) {
	t.Helper()
	for _, s := range DefaultSpecs() {
		require.NoError(t, h.Register(s))
	}
}

func TestDefaultSpecs(t *testing.T) {
	specs := DefaultSpecs()
	require.Len(t, specs, 3)

	assert.Equal(t, Spec{ID: Values, Name: "LVarBridge.Values", Size: wire.PacketSize}, specs[0])
	assert.Equal(t, Spec{ID: Request, Name: "LVarBridge.Request", Size: 256}, specs[1])
	assert.Equal(t, Spec{ID: Response, Name: "LVarBridge.Response", Size: 256}, specs[2])

	assert.Equal(t, 104, SizeOf(Values))
	assert.Equal(t, 0, SizeOf(ID(9)))
}

func TestIDString(t *testing.T) {
	assert.Equal(t, "Values", Values.String())
	assert.Equal(t, "Request", Request.String())
	assert.Equal(t, "Response", Response.String())
	assert.Equal(t, "Area(7)", ID(7).String())
}

func TestHubRegister(t *testing.T) {
	h := NewHub()
	registerDefaults(t, h)

	err := h.Register(Spec{ID: Values, Name: ValuesName, Size: wire.PacketSize})
	assert.ErrorIs(t, err, ErrAreaExists)

	assert.ErrorIs(t, h.Register(Spec{ID: 5, Size: 8}), ErrInvalidSpec)
	assert.ErrorIs(t, h.Register(Spec{ID: 5, Name: "x"}), ErrInvalidSpec)

	spec, ok := h.Spec(Request)
	require.True(t, ok)
	assert.Equal(t, RequestName, spec.Name)
}

func TestHubWritePadsAndNotifies(t *testing.T) {
	h := NewHub()
	registerDefaults(t, h)

	var got [][]byte
	h.OnWrite(Request, func(data []byte) {
		got = append(got, append([]byte(nil), data...))
	})

	require.NoError(t, h.WriteArea(Request, []byte("LISTLVARS")))
	require.NoError(t, h.WriteArea(Request, []byte("CLEAR")))

	require.Len(t, got, 2)
	assert.Len(t, got[0], wire.RequestAreaSize)
	assert.Equal(t, "LISTLVARS", wire.DecodeText(got[0]))
	// The shorter second write must not leave "VARS" behind.
	assert.Equal(t, "CLEAR", wire.DecodeText(got[1]))

	data, err := h.Read(Request)
	require.NoError(t, err)
	assert.Equal(t, got[1], data)
}

func TestHubIdenticalWritesNotifyEachTime(t *testing.T) {
	h := NewHub()
	registerDefaults(t, h)

	calls := 0
	h.OnWrite(Response, func([]byte) { calls++ })

	for i := 0; i < 3; i++ {
		require.NoError(t, h.WriteArea(Response, []byte("A")))
	}
	assert.Equal(t, 3, calls)
}

func TestHubWriteErrors(t *testing.T) {
	h := NewHub()
	registerDefaults(t, h)

	err := h.WriteArea(Values, make([]byte, wire.PacketSize+1))
	assert.ErrorIs(t, err, ErrAreaOverflow)

	err = h.WriteArea(ID(9), []byte{1})
	assert.ErrorIs(t, err, ErrUnknownArea)

	_, err = h.Read(ID(9))
	assert.ErrorIs(t, err, ErrUnknownArea)
}

func TestHubObserverBeforeRegister(t *testing.T) {
	h := NewHub()

	var seen string
	h.OnWrite(Request, func(data []byte) { seen = wire.DecodeText(data) })

	assert.ErrorIs(t, h.WriteArea(Request, []byte("CLEAR")), ErrUnknownArea)
	_, ok := h.Spec(Request)
	assert.False(t, ok)

	registerDefaults(t, h)
	require.NoError(t, h.WriteArea(Request, []byte("CLEAR")))
	assert.Equal(t, "CLEAR", seen)
}

func TestHubObserverMayWrite(t *testing.T) {
	h := NewHub()
	registerDefaults(t, h)

	h.OnWrite(Request, func(data []byte) {
		_ = h.WriteArea(Response, data)
	})
	require.NoError(t, h.WriteArea(Request, []byte("echo")))

	data, err := h.Read(Response)
	require.NoError(t, err)
	assert.Equal(t, "echo", wire.DecodeText(data))
}

func TestHubConcurrentWrites(t *testing.T) {
	h := NewHub()
	registerDefaults(t, h)

	var mu sync.Mutex
	count := 0
	h.OnWrite(Values, func([]byte) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = h.WriteArea(Values, make([]byte, wire.PacketSize))
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1000, count)
}

func TestHubObserverAddedDuringWrite(t *testing.T) {
	h := NewHub()
	registerDefaults(t, h)

	var late []string
	added := false
	h.OnWrite(Response, func([]byte) {
		if added {
			return
		}
		added = true
		h.OnWrite(Response, func(data []byte) { late = append(late, wire.DecodeText(data)) })
	})

	require.NoError(t, h.WriteArea(Response, []byte("first")))
	assert.Empty(t, late, "an observer added during a write fires from the next write on")

	require.NoError(t, h.WriteArea(Response, []byte("second")))
	assert.Equal(t, []string{"second"}, late)
}
