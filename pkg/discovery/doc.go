// Package discovery implements mDNS/DNS-SD discovery for LVar bridge hosts.
//
// A host running the bridge advertises a single service so consumers on the
// local network can find it without knowing its address:
//
// # Bridge Discovery (_lvarbridge._tcp)
//
// Instance name is configurable and defaults to "LVarBridge-<hostname>".
// The service port is the transport listen port.
// TXT records include:
//   - v: protocol version
//   - k: packet capacity (entries per value packet)
//   - n: scan interval in frames
//   - h: host name (optional)
//
// Consumers use a Browser to collect advertised bridges. Addresses learned on
// several interfaces are merged into one BridgeService per instance name.
package discovery
