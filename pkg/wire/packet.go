package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// Handle identifies a host variable. Handles are issued densely from 0 by
// the host and are stable for a host session.
type Handle uint16

// MaxHandle is the largest handle representable in the data area.
const MaxHandle = math.MaxUint16

// Packet layout constants.
const (
	// PacketCapacity is the maximum number of entries in one packet.
	PacketCapacity = 10

	countOffset   = 0
	handlesOffset = 2
	valuesOffset  = 24 // handles end at 22; two bytes of padding align values to 8

	// PacketSize is the encoded size of a packet in bytes.
	PacketSize = valuesOffset + PacketCapacity*8
)

// Packet errors.
var (
	// ErrPacketSize indicates an encoded packet of the wrong length.
	ErrPacketSize = errors.New("invalid packet size")

	// ErrPacketCount indicates an encoded count larger than PacketCapacity.
	ErrPacketCount = errors.New("packet count exceeds capacity")
)

// Packet is one batch of changed (handle, value) pairs.
// Only the first Count entries are meaningful.
type Packet struct {
	Count   uint16
	Handles [PacketCapacity]Handle
	Values  [PacketCapacity]float64
}

// Append adds an entry. It returns false if the packet is already full.
func (p *Packet) Append(h Handle, v float64) bool {
	if p.Full() {
		return false
	}
	p.Handles[p.Count] = h
	p.Values[p.Count] = v
	p.Count++
	return true
}

// Len returns the number of valid entries.
func (p *Packet) Len() int {
	return int(p.Count)
}

// Full reports whether the packet holds PacketCapacity entries.
func (p *Packet) Full() bool {
	return p.Count >= PacketCapacity
}

// Entry returns the i-th valid entry.
func (p *Packet) Entry(i int) (Handle, float64) {
	return p.Handles[i], p.Values[i]
}

// Reset empties the packet and zeroes all slots so stale entries never leak
// into the padding of the next encoding.
func (p *Packet) Reset() {
	*p = Packet{}
}

// AppendBinary appends the fixed-size encoding of p to b.
func (p *Packet) AppendBinary(b []byte) ([]byte, error) {
	if p.Count > PacketCapacity {
		return nil, fmt.Errorf("%w: %d > %d", ErrPacketCount, p.Count, PacketCapacity)
	}

	start := len(b)
	b = append(b, make([]byte, PacketSize)...)
	buf := b[start:]

	binary.LittleEndian.PutUint16(buf[countOffset:], p.Count)
	for i := 0; i < PacketCapacity; i++ {
		binary.LittleEndian.PutUint16(buf[handlesOffset+i*2:], uint16(p.Handles[i]))
		binary.LittleEndian.PutUint64(buf[valuesOffset+i*8:], math.Float64bits(p.Values[i]))
	}
	return b, nil
}

// MarshalBinary encodes the packet into a new PacketSize byte slice.
func (p *Packet) MarshalBinary() ([]byte, error) {
	return p.AppendBinary(make([]byte, 0, PacketSize))
}

// UnmarshalBinary decodes a PacketSize byte slice into p.
// Slots beyond the encoded count are cleared.
func (p *Packet) UnmarshalBinary(data []byte) error {
	if len(data) != PacketSize {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrPacketSize, len(data), PacketSize)
	}

	count := binary.LittleEndian.Uint16(data[countOffset:])
	if count > PacketCapacity {
		return fmt.Errorf("%w: %d > %d", ErrPacketCount, count, PacketCapacity)
	}

	p.Reset()
	p.Count = count
	for i := 0; i < int(count); i++ {
		p.Handles[i] = Handle(binary.LittleEndian.Uint16(data[handlesOffset+i*2:]))
		p.Values[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[valuesOffset+i*8:]))
	}
	return nil
}

// DecodePacket decodes a data area payload.
func DecodePacket(data []byte) (*Packet, error) {
	var p Packet
	if err := p.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return &p, nil
}
