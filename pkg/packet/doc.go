// Package packet batches changed variable values into fixed-capacity data
// area packets.
//
// A Packetizer holds one packet in progress. Entries are appended as the
// change scan finds them; the packet is sent as soon as it holds
// wire.PacketCapacity entries and once more, if non-empty, when the scan ends.
// No packet ever exceeds the capacity of the data area and no empty packet is
// ever sent.
//
// A failed send drops the packet. The bridge never retries: the next scan
// reports whatever has changed since, so a lost value is superseded rather
// than replayed.
package packet
