// Package subscription implements the bridge's subscription table and change
// scan.
//
// The consumer subscribes to variables by handle. For each subscribed handle
// the table remembers the last value delivered to the consumer.
//
// # Sentinel
//
// A new (or renewed) subscription stores +Inf as its last value. A real
// variable read never has the same bit pattern, so the next scan always
// reports the handle. Subscribing again to a handle that is already
// subscribed resets the sentinel and forces re-delivery; the consumer uses
// this when it has lost its copy of the value.
//
// # Change Detection
//
// A scan walks the table once in ascending handle order, reads each value
// from the host and compares bit patterns with the stored value. There is no
// tolerance: the host is the source of truth and a value either changed or it
// did not. Changed values go to a Sink (normally a packet.Packetizer) and
// become the new stored value.
//
// # Undiscovered Handles
//
// A handle may be subscribed before discovery has seen it. The host returns a
// stable sentinel value for unknown handles, so such a subscription is
// reported once and then stays quiet until the variable appears.
package subscription
