// Package area defines the fixed-size byte areas shared between the bridge
// and its consumer.
//
// Three areas exist, each identified by a small integer ID and a name:
//
//	Values   (0)  LVarBridge.Values    104 bytes  bridge -> consumer packets
//	Request  (1)  LVarBridge.Request   256 bytes  consumer -> bridge commands
//	Response (2)  LVarBridge.Response  256 bytes  bridge -> consumer text lines
//
// Areas have "on-set" semantics: every write replaces the whole area and
// notifies the observers registered with OnWrite, whether or not the bytes
// changed. A Registry is the abstraction the bridge engine writes to; Hub is
// the in-process implementation and transport.Server the networked one.
// The host's -local mode runs the bridge and a console on one Hub.
package area
