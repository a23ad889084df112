// Package sim provides a simulated host variable namespace for running the
// bridge without a flight simulator.
//
// Variables follow simple waveforms evaluated on a frame counter and can be
// scheduled to appear late, which exercises incremental discovery on the
// consumer side.
package sim
