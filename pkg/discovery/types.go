package discovery

import (
	"errors"
	"time"
)

// Service type constants for mDNS.
const (
	// ServiceType is the service type advertised by bridge hosts.
	ServiceType = "_lvarbridge._tcp"

	// Domain is the mDNS domain.
	Domain = "local"

	// DefaultPort is the default bridge port.
	DefaultPort = 4710

	// ProtocolVersion is the bridge protocol version carried in TXT records.
	ProtocolVersion = 1

	// InstancePrefix prefixes generated instance names.
	InstancePrefix = "LVarBridge-"

	// MaxInstanceNameLength is the DNS-SD limit for instance labels.
	MaxInstanceNameLength = 63
)

// TXT record key constants.
const (
	TXTKeyVersion   = "v" // Protocol version
	TXTKeyCapacity  = "k" // Packet capacity
	TXTKeyScanEvery = "n" // Scan interval in frames
	TXTKeyHost      = "h" // Host name (optional)
)

// Timing constants.
const (
	// BrowseTimeout is the default timeout for browse operations.
	BrowseTimeout = 10 * time.Second

	// DefaultTTL is the default DNS record TTL.
	DefaultTTL = 120 * time.Second
)

// Discovery errors.
var (
	ErrInvalidTXTRecord    = errors.New("invalid TXT record format")
	ErrMissingRequired     = errors.New("missing required field")
	ErrInvalidVersion      = errors.New("unsupported protocol version")
	ErrInstanceNameTooLong = errors.New("instance name exceeds 63 characters")
	ErrNotAdvertising      = errors.New("not advertising")
)

// BridgeInfo is what a host advertises about its bridge.
type BridgeInfo struct {
	// Instance is the DNS-SD instance name. Empty uses InstancePrefix + Host.
	Instance string

	// Port is the transport listen port.
	Port uint16

	// Version is the protocol version. Zero means ProtocolVersion.
	Version uint8

	// Capacity is the number of entries per value packet.
	Capacity uint16

	// ScanEvery is the scan interval in frames.
	ScanEvery uint16

	// Host is the simulator host name.
	Host string
}

// InstanceName returns the instance name the info is advertised under.
func (i *BridgeInfo) InstanceName() string {
	if i.Instance != "" {
		return i.Instance
	}
	return InstancePrefix + i.Host
}

// BridgeService is a bridge found by browsing.
type BridgeService struct {
	InstanceName string
	Host         string
	Port         uint16
	Addresses    []string

	Version   uint8
	Capacity  uint16
	ScanEvery uint16
	HostName  string
}
