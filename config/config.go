package config

import (
	"fmt"
	"net"
	"time"
)

const (
	EnvPrefix = "TCNET_"

	// NodeNameWidth is the fixed width of the advertised node name field.
	NodeNameWidth = 8
	// IdentWidth is the fixed width of the vendor and application name fields.
	IdentWidth = 16
)

// Config describes a TCNet client session.
type Config struct {
	// BroadcastInterface is the local NIC used for broadcast sends and
	// broadcast address derivation. Empty means the wildcard bind with
	// the limited broadcast address 255.255.255.255.
	BroadcastInterface string `yaml:"broadcast_interface"`

	// BroadcastPort is the segment's discovery port. The protocol
	// documents 60000.
	BroadcastPort int `yaml:"broadcast_port"`

	// NodeID identifies this node on the segment. Zero means a random
	// id is generated when the client is created.
	NodeID uint16 `yaml:"node_id"`

	// NodeName is the advertised 8 byte ASCII node name.
	NodeName string `yaml:"node_name"`

	// VendorName and AppName are the advertised 16 byte ASCII identifiers.
	VendorName string `yaml:"vendor_name"`
	AppName    string `yaml:"app_name"`

	// OptInInterval is the period between keep-alive announcements.
	OptInInterval time.Duration `yaml:"opt_in_interval"`

	// PeerIdleThreshold multiplies OptInInterval; a peer silent for
	// longer is evicted.
	PeerIdleThreshold int `yaml:"peer_idle_threshold"`

	// RequestTimeout is the default deadline for data requests.
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// ApplyDefaults fills zero-valued fields with their defaults.
func (c *Config) ApplyDefaults() {
	if c.BroadcastPort == 0 {
		c.BroadcastPort = DefaultBroadcastPort
	}
	if c.NodeName == "" {
		c.NodeName = DefaultNodeName
	}
	if c.VendorName == "" {
		c.VendorName = DefaultVendorName
	}
	if c.AppName == "" {
		c.AppName = DefaultAppName
	}
	if c.OptInInterval == 0 {
		c.OptInInterval = DefaultOptInInterval
	}
	if c.PeerIdleThreshold == 0 {
		c.PeerIdleThreshold = DefaultPeerIdleThreshold
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
}

// Validate checks field ranges. It does not resolve the interface; that
// happens at connect where the bind error carries more context.
func (c *Config) Validate() error {
	if c.BroadcastPort < 0 || c.BroadcastPort > 65535 {
		return fmt.Errorf("broadcast port must be between 0 and 65535, got %d", c.BroadcastPort)
	}
	if err := validateASCII("node_name", c.NodeName, NodeNameWidth); err != nil {
		return err
	}
	if err := validateASCII("vendor_name", c.VendorName, IdentWidth); err != nil {
		return err
	}
	if err := validateASCII("app_name", c.AppName, IdentWidth); err != nil {
		return err
	}
	if c.OptInInterval < 0 {
		return fmt.Errorf("opt_in_interval must be positive, got %s", c.OptInInterval)
	}
	if c.PeerIdleThreshold < 0 {
		return fmt.Errorf("peer_idle_threshold must be positive, got %d", c.PeerIdleThreshold)
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("request_timeout must be positive, got %s", c.RequestTimeout)
	}
	return nil
}

// IdleTimeout is the silence duration after which a peer is evicted.
func (c *Config) IdleTimeout() time.Duration {
	return time.Duration(c.PeerIdleThreshold) * c.OptInInterval
}

// ResolveInterface finds the configured broadcast interface and returns
// its first IPv4 network. An empty name returns nil, selecting the
// wildcard bind and the limited broadcast address.
func (c *Config) ResolveInterface() (*net.IPNet, error) {
	if c.BroadcastInterface == "" {
		return nil, nil
	}
	ifi, err := net.InterfaceByName(c.BroadcastInterface)
	if err != nil {
		return nil, fmt.Errorf("interface %q: %w", c.BroadcastInterface, err)
	}
	addrs, err := ifi.Addrs()
	if err != nil {
		return nil, fmt.Errorf("interface %q addresses: %w", c.BroadcastInterface, err)
	}
	for _, addr := range addrs {
		if ipnet, ok := addr.(*net.IPNet); ok && ipnet.IP.To4() != nil {
			return ipnet, nil
		}
	}
	return nil, fmt.Errorf("interface %q has no IPv4 address", c.BroadcastInterface)
}

func validateASCII(name, s string, width int) error {
	if len(s) > width {
		return fmt.Errorf("%s must be at most %d bytes, got %d", name, width, len(s))
	}
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 || s[i] > 0x7e {
			return fmt.Errorf("%s must be printable ASCII, byte %d is 0x%02x", name, i, s[i])
		}
	}
	return nil
}
