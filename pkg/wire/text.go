package wire

import "bytes"

// Text area sizes in bytes, including the terminating NUL.
const (
	RequestAreaSize  = 256
	ResponseAreaSize = 256
)

// Sentinel response lines that bracket a variable list dump.
const (
	ListStart = "!LVARS-START"
	ListEnd   = "!LVARS-END"
)

// EncodeText returns s as a NUL-terminated string zero padded to size bytes.
// Text longer than size-1 bytes is truncated: list dumps are positional, so a
// line must be shortened rather than dropped.
func EncodeText(s string, size int) []byte {
	buf := make([]byte, size)
	if size == 0 {
		return buf
	}
	n := copy(buf[:size-1], s)
	buf[n] = 0
	return buf
}

// DecodeText returns the text up to the first NUL byte. A buffer without a
// NUL is taken whole.
func DecodeText(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return string(b[:i])
	}
	return string(b)
}
