package packet

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lvarbridge/lvarbridge-go/pkg/wire"
)

// capture records copies of every packet sent.
type capture struct {
	packets []wire.Packet
	err     error
}

func (c *capture) SendPacket(p *wire.Packet) error {
	if c.err != nil {
		return c.err
	}
	c.packets = append(c.packets, *p)
	return nil
}

func TestFlushEmptyIsNoop(t *testing.T) {
	var out capture
	p := New(&out)

	require.NoError(t, p.Flush())
	assert.Empty(t, out.packets)
}

func TestAddFlushesAtCapacity(t *testing.T) {
	var out capture
	p := New(&out)

	for i := 0; i < wire.PacketCapacity-1; i++ {
		require.NoError(t, p.Add(wire.Handle(i), float64(i)))
	}
	assert.Empty(t, out.packets, "packet must not be sent before it is full")

	require.NoError(t, p.Add(100, 1))
	require.Len(t, out.packets, 1)
	assert.Equal(t, uint16(wire.PacketCapacity), out.packets[0].Count)
	assert.Zero(t, p.Pending())
}

func TestPacketsNeverExceedCapacity(t *testing.T) {
	var out capture
	p := New(&out)

	const n = 3*wire.PacketCapacity + 4
	for i := 0; i < n; i++ {
		require.NoError(t, p.Add(wire.Handle(i), float64(i)))
	}
	require.NoError(t, p.Flush())

	require.Len(t, out.packets, 4)
	seen := 0
	for _, pkt := range out.packets {
		assert.LessOrEqual(t, int(pkt.Count), wire.PacketCapacity)
		assert.NotZero(t, pkt.Count)
		for i := 0; i < pkt.Len(); i++ {
			h, v := pkt.Entry(i)
			assert.Equal(t, wire.Handle(seen), h)
			assert.Equal(t, float64(seen), v)
			seen++
		}
	}
	assert.Equal(t, n, seen)

	stats := p.Stats()
	assert.Equal(t, uint64(4), stats.Packets)
	assert.Equal(t, uint64(n), stats.Entries)
}

func TestFailedSendDropsPacket(t *testing.T) {
	out := capture{err: errors.New("area busy")}
	p := New(&out)

	require.NoError(t, p.Add(1, 1))
	err := p.Flush()

	assert.Error(t, err)
	assert.Zero(t, p.Pending(), "failed packet must not be retried")
	assert.Equal(t, uint64(1), p.Stats().Dropped)

	out.err = nil
	require.NoError(t, p.Add(2, 2))
	require.NoError(t, p.Flush())
	require.Len(t, out.packets, 1)
	assert.Equal(t, uint16(1), out.packets[0].Count)
	h, _ := out.packets[0].Entry(0)
	assert.Equal(t, wire.Handle(2), h)
}

func TestSenderFunc(t *testing.T) {
	var got int
	p := New(SenderFunc(func(pkt *wire.Packet) error {
		got = pkt.Len()
		return nil
	}))

	require.NoError(t, p.Add(1, 1))
	require.NoError(t, p.Add(2, 2))
	require.NoError(t, p.Flush())
	assert.Equal(t, 2, got)
}
