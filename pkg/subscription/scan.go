package subscription

import (
	"errors"
	"math"

	"github.com/lvarbridge/lvarbridge-go/pkg/wire"
)

// ValueReader reads the current value of a host variable. Handles unknown
// to the host must yield a stable sentinel value.
type ValueReader interface {
	ReadValue(h wire.Handle) float64
}

// ReaderFunc adapts a function to the ValueReader interface.
type ReaderFunc func(h wire.Handle) float64

// ReadValue calls f(h).
func (f ReaderFunc) ReadValue(h wire.Handle) float64 {
	return f(h)
}

// Sink receives the changes found by a scan. packet.Packetizer implements it.
type Sink interface {
	Add(h wire.Handle, v float64) error
	Flush() error
}

// ScanResult summarizes one scan.
type ScanResult struct {
	// Checked is the number of subscriptions read.
	Checked int

	// Changed is the number of subscriptions whose value changed.
	Changed int
}

// Scan reads every subscribed handle once, in ascending order, and passes
// each changed value to sink before storing it as the last value. The sink
// is flushed after the walk.
//
// A value is stored even if delivering it failed: the bridge does not retry,
// and the next change supersedes a lost one. Sink errors are collected and
// returned together after the full walk.
func (t *Table) Scan(r ValueReader, sink Sink) (ScanResult, error) {
	var result ScanResult
	if len(t.order) == 0 {
		return result, nil
	}

	var errs []error
	for _, h := range t.order {
		result.Checked++

		current := r.ReadValue(h)
		if !changed(t.values[h], current) {
			continue
		}

		result.Changed++
		t.values[h] = current
		if err := sink.Add(h, current); err != nil {
			errs = append(errs, err)
		}
	}

	if err := sink.Flush(); err != nil {
		errs = append(errs, err)
	}

	return result, errors.Join(errs...)
}

// changed compares bit patterns, so identical NaNs are unchanged and a move
// between +0 and -0 is a change.
func changed(last, current float64) bool {
	return math.Float64bits(last) != math.Float64bits(current)
}
