package packet

import (
	"fmt"

	"github.com/lvarbridge/lvarbridge-go/pkg/wire"
)

// Sender transmits one complete packet.
type Sender interface {
	SendPacket(p *wire.Packet) error
}

// SenderFunc adapts a function to the Sender interface.
type SenderFunc func(p *wire.Packet) error

// SendPacket calls f(p).
func (f SenderFunc) SendPacket(p *wire.Packet) error {
	return f(p)
}

// Stats counts packetizer activity since creation.
type Stats struct {
	// Packets is the number of packets sent successfully.
	Packets uint64

	// Entries is the number of entries in successfully sent packets.
	Entries uint64

	// Dropped is the number of packets whose send failed.
	Dropped uint64
}

// Packetizer accumulates entries into packets and hands full packets to a
// Sender. It is not safe for concurrent use.
type Packetizer struct {
	out     Sender
	pending wire.Packet
	stats   Stats
}

// New creates a packetizer that sends through out.
func New(out Sender) *Packetizer {
	return &Packetizer{out: out}
}

// Add appends an entry, sending the packet if that makes it full.
// The returned error is the send error of the flushed packet, if any; the
// entry itself is never lost from the in-progress packet.
func (p *Packetizer) Add(h wire.Handle, v float64) error {
	p.pending.Append(h, v)
	if p.pending.Full() {
		return p.Flush()
	}
	return nil
}

// Flush sends the in-progress packet if it has any entries and starts a new
// one. A failed send drops the packet.
func (p *Packetizer) Flush() error {
	if p.pending.Count == 0 {
		return nil
	}

	count := p.pending.Count
	err := p.out.SendPacket(&p.pending)
	p.pending.Reset()

	if err != nil {
		p.stats.Dropped++
		return fmt.Errorf("send packet (%d entries): %w", count, err)
	}
	p.stats.Packets++
	p.stats.Entries += uint64(count)
	return nil
}

// Pending returns the number of entries waiting in the in-progress packet.
func (p *Packetizer) Pending() int {
	return p.pending.Len()
}

// Stats returns a snapshot of the counters.
func (p *Packetizer) Stats() Stats {
	return p.stats
}
