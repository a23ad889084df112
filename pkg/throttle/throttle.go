// Package throttle limits how often the bridge scans for changes.
//
// The host calls the bridge once per simulation frame. Scanning every frame
// would spend the frame budget on reads that rarely change, so the bridge
// scans only on every Nth frame.
package throttle

// DefaultEvery is the default number of frames between scans.
const DefaultEvery = 4

// Throttle counts frame ticks. The zero value is not usable; use New.
type Throttle struct {
	every uint32
	tick  uint32
}

// New returns a throttle that fires every n ticks. n below 1 is treated as 1.
func New(n int) *Throttle {
	if n < 1 {
		n = 1
	}
	return &Throttle{every: uint32(n)}
}

// Tick records one frame and reports whether this frame should scan.
// The counter wraps at 2^32; that only restarts the cycle.
func (t *Throttle) Tick() bool {
	t.tick++
	return t.tick%t.every == 0
}

// Every returns the scan interval in frames.
func (t *Throttle) Every() int {
	return int(t.every)
}
