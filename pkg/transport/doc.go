// Package transport carries bridge areas between processes over TCP.
//
// The host side runs a Server, which implements area.Registry: the bridge
// engine registers and writes its areas on it exactly as on an in-process
// area.Hub, and every outbound write is broadcast to all connected
// consumers. Consumers connect with a Client and exchange whole areas.
//
// # Frame Format
//
//	┌────────────────────────────────┐
//	│   Length prefix (4B, BE)       │
//	├────────────────────────────────┤
//	│   Area ID (1B)                 │
//	├────────────────────────────────┤
//	│   Area bytes (area size)       │
//	└────────────────────────────────┘
//
// A frame always carries a complete area: 105 bytes of payload for the
// values area, 257 for the request and response areas. Frames of the wrong
// size are rejected.
//
// The transport has no liveness mechanism. A consumer notices a dead host
// only through a failed read.
package transport
