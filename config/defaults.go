package config

import (
	"encoding/binary"
	"time"

	"github.com/google/uuid"
)

// Default timing and identity values
const (
	// DefaultBroadcastPort is the TCNet discovery port.
	DefaultBroadcastPort = 60000

	// DefaultOptInInterval is the period between keep-alive announcements.
	DefaultOptInInterval = time.Second

	// DefaultPeerIdleThreshold is the OptInInterval multiplier after which
	// a silent peer is evicted.
	DefaultPeerIdleThreshold = 5

	// DefaultRequestTimeout is the deadline for data requests.
	DefaultRequestTimeout = 2 * time.Second

	// DefaultNodeName is the advertised node name when none is configured.
	DefaultNodeName = "TCNETGO"

	DefaultVendorName = "mixtools"
	DefaultAppName    = "tcnet"
)

// GenerateNodeID derives a random non-zero node id from a fresh UUID.
// Useful when several clients share the same configuration file.
func GenerateNodeID() uint16 {
	for {
		u := uuid.New()
		if id := binary.LittleEndian.Uint16(u[:2]); id != 0 {
			return id
		}
	}
}
