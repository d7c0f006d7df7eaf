package client

import (
	"net"
	"sync"
	"time"

	"github.com/mixtools/tcnet/protocol"
	"github.com/rs/zerolog"
)

// Peer is a node seen on the segment. Requests to it are sent to
// (Addr, ListenerPort) from its most recent opt-in.
type Peer struct {
	NodeID       uint16
	NodeName     string
	NodeType     uint8
	VendorName   string
	AppName      string
	ListenerPort uint16
	Addr         net.IP
	Uptime       time.Duration
	LastSeen     time.Time

	// Latest per-layer snapshot from the peer's Status broadcasts.
	LayerNames [8]string
	TrackIDs   [8]uint32
}

// UnicastAddr is the destination for requests to this peer.
func (p *Peer) UnicastAddr() *net.UDPAddr {
	return &net.UDPAddr{IP: p.Addr, Port: int(p.ListenerPort)}
}

// IsMaster reports whether the peer announced itself as the segment's
// timing master.
func (p *Peer) IsMaster() bool {
	return p.NodeType == protocol.NodeTypeMaster
}

// peerRegistry tracks live peers keyed by node id.
type peerRegistry struct {
	mu     sync.RWMutex
	peers  map[uint16]*Peer
	logger zerolog.Logger
}

func newPeerRegistry(logger zerolog.Logger) *peerRegistry {
	return &peerRegistry{
		peers:  make(map[uint16]*Peer),
		logger: logger.With().Str("com", "peers").Logger(),
	}
}

// upsert creates or refreshes a peer from an opt-in. Reports whether the
// peer is new to the segment.
func (r *peerRegistry) upsert(pkt *protocol.OptInPacket, src *net.UDPAddr, now time.Time) (Peer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.peers[pkt.NodeID]
	if !ok {
		p = &Peer{NodeID: pkt.NodeID}
		r.peers[pkt.NodeID] = p
	}
	p.NodeName = pkt.NodeName
	p.NodeType = pkt.NodeType
	p.VendorName = pkt.VendorName
	p.AppName = pkt.AppName
	p.ListenerPort = pkt.ListenerPort
	p.Addr = cloneIP(src.IP)
	p.Uptime = time.Duration(pkt.Uptime) * time.Second
	p.LastSeen = now

	if !ok {
		r.logger.Info().
			Uint16("node_id", p.NodeID).
			Str("node_name", p.NodeName).
			Str("vendor", p.VendorName).
			Str("app", p.AppName).
			Str("addr", p.UnicastAddr().String()).
			Msg("peer joined")
	}
	return *p, !ok
}

// touch refreshes a peer's last-seen instant. Any packet from a known
// peer counts as liveness.
func (r *peerRegistry) touch(nodeID uint16, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.peers[nodeID]; ok {
		p.LastSeen = now
	}
}

// updateStatus folds a Status broadcast into the peer's layer snapshot.
func (r *peerRegistry) updateStatus(pkt *protocol.StatusPacket, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.peers[pkt.NodeID]
	if !ok {
		return
	}
	p.LastSeen = now
	p.LayerNames = pkt.LayerName
	p.TrackIDs = pkt.TrackID
}

// remove deletes a peer, reporting whether it existed.
func (r *peerRegistry) remove(nodeID uint16) (Peer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.peers[nodeID]
	if !ok {
		return Peer{}, false
	}
	delete(r.peers, nodeID)
	r.logger.Info().Uint16("node_id", nodeID).Str("node_name", p.NodeName).Msg("peer left")
	return *p, true
}

// sweep evicts peers silent for longer than idle and returns them.
func (r *peerRegistry) sweep(idle time.Duration, now time.Time) []Peer {
	r.mu.Lock()
	defer r.mu.Unlock()
	var evicted []Peer
	for id, p := range r.peers {
		if now.Sub(p.LastSeen) > idle {
			evicted = append(evicted, *p)
			delete(r.peers, id)
			r.logger.Info().
				Uint16("node_id", id).
				Str("node_name", p.NodeName).
				Dur("idle", now.Sub(p.LastSeen)).
				Msg("peer evicted")
		}
	}
	return evicted
}

// get returns a snapshot of the peer, if known.
func (r *peerRegistry) get(nodeID uint16) (Peer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.peers[nodeID]; ok {
		return *p, true
	}
	return Peer{}, false
}

// list returns snapshots of all known peers.
func (r *peerRegistry) list() []Peer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	peers := make([]Peer, 0, len(r.peers))
	for _, p := range r.peers {
		peers = append(peers, *p)
	}
	return peers
}

// pick selects the request target: the first master, else any peer.
func (r *peerRegistry) pick() (Peer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var fallback *Peer
	for _, p := range r.peers {
		if p.IsMaster() {
			return *p, true
		}
		if fallback == nil {
			fallback = p
		}
	}
	if fallback != nil {
		return *fallback, true
	}
	return Peer{}, false
}

func (r *peerRegistry) count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.peers)
}

func cloneIP(ip net.IP) net.IP {
	out := make(net.IP, len(ip))
	copy(out, ip)
	return out
}
