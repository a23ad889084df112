// Package bridge ties the variable catalog, the subscription table, the
// packetizer, the command parser and the frame throttle into one engine.
//
// # Engine
//
// Engine is the explicit context object for a bridge session. It owns all
// mutable bridge state and is driven by two callbacks:
//
//	OnFrame      called once per host frame; scans every Nth frame
//	OnCommand    called with the raw request area after every write
//
// The engine is not safe for concurrent use. The host delivers both
// callbacks on one execution context; Service provides that guarantee when
// frames and commands arrive from different goroutines.
//
// # Service
//
// Service is the lifecycle around an engine: Start registers the three
// areas on an area.Registry, hooks the request area and runs the loop that
// serializes frame ticks and commands. A registration failure leaves the
// service inert. Stop ends the loop; state is discarded, not flushed.
//
// # Error handling
//
// A failed packet or response send is logged and dropped: the next scan
// supersedes a lost value. A malformed command is ignored; the protocol has
// no channel to report it.
package bridge
