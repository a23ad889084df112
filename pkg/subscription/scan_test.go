package subscription

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lvarbridge/lvarbridge-go/pkg/packet"
	"github.com/lvarbridge/lvarbridge-go/pkg/wire"
)

// host is a fake variable store.
type host map[wire.Handle]float64

func (h host) ReadValue(handle wire.Handle) float64 {
	return h[handle]
}

// collector records every packet a scan flushes.
type collector struct {
	packets []wire.Packet
	fail    bool
}

func (c *collector) SendPacket(p *wire.Packet) error {
	if c.fail {
		return errors.New("transport down")
	}
	c.packets = append(c.packets, *p)
	return nil
}

func (c *collector) handles() []wire.Handle {
	var out []wire.Handle
	for _, p := range c.packets {
		for i := 0; i < p.Len(); i++ {
			h, _ := p.Entry(i)
			out = append(out, h)
		}
	}
	return out
}

func scan(t *testing.T, tbl *Table, values host) *collector {
	t.Helper()
	out := &collector{}
	_, err := tbl.Scan(values, packet.New(out))
	require.NoError(t, err)
	return out
}

func TestScanEmptyTable(t *testing.T) {
	out := scan(t, NewTable(), host{})
	assert.Empty(t, out.packets)
}

func TestScanReportsNewSubscription(t *testing.T) {
	tbl := NewTable()
	tbl.Subscribe(1)

	out := scan(t, tbl, host{1: 3.5})

	require.Len(t, out.packets, 1)
	p := out.packets[0]
	assert.Equal(t, uint16(1), p.Count)
	h, v := p.Entry(0)
	assert.Equal(t, wire.Handle(1), h)
	assert.Equal(t, 3.5, v)
}

func TestScanUnchangedSendsNothing(t *testing.T) {
	tbl := NewTable()
	tbl.Subscribe(1)
	values := host{1: 3.5}

	scan(t, tbl, values)
	out := scan(t, tbl, values)

	assert.Empty(t, out.packets)
}

func TestScanReportsChangeExactlyOnce(t *testing.T) {
	tbl := NewTable()
	tbl.Subscribe(1)
	tbl.Subscribe(2)
	values := host{1: 1, 2: 2}
	scan(t, tbl, values)

	values[2] = 2.0000000001
	out := scan(t, tbl, values)
	assert.Equal(t, []wire.Handle{2}, out.handles())

	out = scan(t, tbl, values)
	assert.Empty(t, out.packets)
}

func TestScanUnsubscribedNotReported(t *testing.T) {
	tbl := NewTable()
	tbl.Subscribe(1)
	values := host{1: 3.5}
	scan(t, tbl, values)

	tbl.Unsubscribe(1)
	values[1] = 9
	out := scan(t, tbl, values)

	assert.Empty(t, out.packets)
}

func TestScanAfterClear(t *testing.T) {
	tbl := NewTable()
	for h := wire.Handle(0); h < 30; h++ {
		tbl.Subscribe(h)
	}
	tbl.Clear()

	out := scan(t, tbl, host{0: 1, 1: 2})
	assert.Empty(t, out.packets)
}

func TestScanSplitsAtCapacity(t *testing.T) {
	tbl := NewTable()
	values := host{}
	const n = 2*wire.PacketCapacity + 3
	for h := wire.Handle(0); h < n; h++ {
		tbl.Subscribe(h)
		values[h] = float64(h) + 0.5
	}

	out := &collector{}
	result, err := tbl.Scan(values, packet.New(out))
	require.NoError(t, err)

	assert.Equal(t, n, result.Checked)
	assert.Equal(t, n, result.Changed)
	require.Len(t, out.packets, 3)
	for _, p := range out.packets {
		assert.LessOrEqual(t, p.Len(), wire.PacketCapacity)
	}

	got := out.handles()
	require.Len(t, got, n)
	for i, h := range got {
		assert.Equal(t, wire.Handle(i), h, "scan order must be ascending")
	}
}

func TestScanChangedSetMatchesDifferences(t *testing.T) {
	tbl := NewTable()
	values := host{}
	for h := wire.Handle(0); h < 40; h++ {
		tbl.Subscribe(h)
		values[h] = 0
	}
	scan(t, tbl, values)

	want := []wire.Handle{3, 11, 12, 29, 39}
	for _, h := range want {
		values[h] = 1
	}
	out := scan(t, tbl, values)

	assert.Equal(t, want, out.handles())
}

func TestScanBitPatternComparison(t *testing.T) {
	tbl := NewTable()
	tbl.Subscribe(1)
	values := host{1: math.NaN()}

	out := scan(t, tbl, values)
	assert.Len(t, out.handles(), 1)

	out = scan(t, tbl, values)
	assert.Empty(t, out.packets, "identical NaN must not be reported again")

	values[1] = 0
	scan(t, tbl, values)
	values[1] = math.Copysign(0, -1)
	out = scan(t, tbl, values)
	assert.Equal(t, []wire.Handle{1}, out.handles(), "-0 differs from +0 bitwise")
}

func TestScanStoresValueWhenSendFails(t *testing.T) {
	tbl := NewTable()
	tbl.Subscribe(1)
	values := host{1: 5}

	out := &collector{fail: true}
	result, err := tbl.Scan(values, packet.New(out))
	assert.Error(t, err)
	assert.Equal(t, 1, result.Changed)

	v, _ := tbl.LastValue(1)
	assert.Equal(t, 5.0, v)

	out = scan(t, tbl, values)
	assert.Empty(t, out.packets, "a dropped value is not retried")
}

func TestScanUndiscoveredHandleQuietAfterFirstReport(t *testing.T) {
	tbl := NewTable()
	tbl.Subscribe(500)
	values := host{}

	out := scan(t, tbl, values)
	assert.Equal(t, []wire.Handle{500}, out.handles())

	out = scan(t, tbl, values)
	assert.Empty(t, out.packets)
}

func TestReaderFunc(t *testing.T) {
	tbl := NewTable()
	tbl.Subscribe(2)

	out := &collector{}
	_, err := tbl.Scan(ReaderFunc(func(h wire.Handle) float64 { return float64(h) * 10 }), packet.New(out))
	require.NoError(t, err)

	require.Len(t, out.packets, 1)
	_, v := out.packets[0].Entry(0)
	assert.Equal(t, 20.0, v)
}
