// Package wire defines the byte layouts of the LVar bridge areas.
//
// The bridge talks to its consumer through fixed-size memory areas. An area
// carries no length prefix and no type information, so every message has a
// layout with a fixed total size and explicit padding.
//
// # Data Area
//
// Changed variable values travel in packets of at most PacketCapacity
// entries. All integers and floats are little-endian:
//
//	offset  size  field
//	     0     2  count (number of valid entries)
//	     2    20  handles[10] (uint16 each)
//	    22     2  padding (zero)
//	    24    80  values[10] (IEEE 754 float64 each)
//
// The packet is always PacketSize bytes; entries at index >= count are zero
// and must be ignored by readers.
//
// # Text Areas
//
// Commands (consumer to host) and response lines (host to consumer) are
// null-terminated strings in a buffer of RequestAreaSize/ResponseAreaSize
// bytes. Variable list dumps are bracketed by the ListStart and ListEnd
// sentinel lines.
package wire
