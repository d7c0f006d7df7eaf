package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mixtools/tcnet/config"
	"github.com/mixtools/tcnet/protocol"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type sessionState int

const (
	stateIdle sessionState = iota
	stateConnected
	stateFailed
)

// Client is a TCNet session: it joins the segment's discovery handshake,
// tracks live peers, and retrieves per-layer payloads over unicast
// requests.
type Client struct {
	cfg    *config.Config
	logger zerolog.Logger

	nodeID  uint16
	seq     atomic.Uint32
	started time.Time

	tr      *transport
	peers   *peerRegistry
	pending *pendingTable
	events  *eventHub

	mu      sync.Mutex
	state   sessionState
	failure error
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	firstPeer     chan struct{}
	firstPeerOnce sync.Once
}

// New creates a client from conf. Defaults are applied in place; a zero
// NodeID gets a generated one.
func New(conf *config.Config) (*Client, error) {
	conf.ApplyDefaults()
	if err := conf.Validate(); err != nil {
		return nil, err
	}

	nodeID := conf.NodeID
	if nodeID == 0 {
		nodeID = config.GenerateNodeID()
	}

	logger := log.With().
		Str("com", "client").
		Uint16("node_id", nodeID).
		Logger()

	c := &Client{
		cfg:       conf,
		logger:    logger,
		nodeID:    nodeID,
		peers:     newPeerRegistry(logger),
		pending:   newPendingTable(),
		events:    newEventHub(logger),
		firstPeer: make(chan struct{}),
	}
	return c, nil
}

// NodeID is the identity this client announces on the segment.
func (c *Client) NodeID() uint16 { return c.nodeID }

// Peers returns snapshots of all currently known peers.
func (c *Client) Peers() []Peer { return c.peers.list() }

// Peer returns a snapshot of one peer, if known.
func (c *Client) Peer(nodeID uint16) (Peer, bool) { return c.peers.get(nodeID) }

// Subscribe registers for the telemetry stream. With no kinds, every
// event type is delivered. Delivery is best-effort: a full channel drops
// events rather than stalling the receive loops.
func (c *Client) Subscribe(buffer int, kinds ...EventType) (<-chan Event, func()) {
	return c.events.subscribe(buffer, kinds...)
}

// DroppedEvents reports telemetry discarded due to slow subscribers.
func (c *Client) DroppedEvents() uint64 { return c.events.Dropped() }

// ListenerPort is the unicast port advertised in opt-ins. Zero before
// Connect.
func (c *Client) ListenerPort() uint16 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tr == nil {
		return 0
	}
	return c.tr.listenerPort()
}

// BroadcastPort is the bound discovery port. Zero before Connect.
func (c *Client) BroadcastPort() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tr == nil {
		return 0
	}
	return c.tr.broadcastPort()
}

// Connect binds the session's sockets, sends the first opt-in, and
// starts the discovery loops. It returns once a peer has been seen or
// after a discovery grace period, whichever comes first.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.state == stateConnected {
		c.mu.Unlock()
		return ErrAlreadyConnected
	}
	if c.state == stateFailed {
		err := c.failure
		c.mu.Unlock()
		return err
	}

	tr, err := bindTransport(c.cfg, c.logger)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.tr = tr
	c.started = time.Now()
	c.ctx, c.cancel = context.WithCancel(context.Background())
	c.state = stateConnected

	c.wg.Add(5)
	go func() {
		defer c.wg.Done()
		tr.readLoop(tr.broadcastRecv, "broadcast", c.handleBroadcast, c.fail)
	}()
	go func() {
		defer c.wg.Done()
		tr.readLoop(tr.unicast, "unicast", c.handleUnicast, c.fail)
	}()
	go func() {
		defer c.wg.Done()
		tr.readLoop(tr.broadcastSend, "broadcast-send", c.handleBroadcast, c.fail)
	}()
	go c.keepAliveLoop()
	go c.sweepLoop()
	c.mu.Unlock()

	if err := c.sendOptIn(); err != nil {
		c.logger.Error().Err(err).Msg("initial opt-in failed")
		c.Disconnect()
		return fmt.Errorf("send opt-in: %w", err)
	}

	c.logger.Info().
		Int("broadcast_port", tr.broadcastPort()).
		Uint16("listener_port", tr.listenerPort()).
		Str("node_name", c.cfg.NodeName).
		Msg("session started")

	grace := time.NewTimer(2 * c.cfg.OptInInterval)
	defer grace.Stop()
	select {
	case <-c.firstPeer:
	case <-grace.C:
		c.logger.Debug().Msg("discovery grace period elapsed without peers")
	case <-ctx.Done():
		c.Disconnect()
		return ctx.Err()
	case <-c.ctx.Done():
	}
	return nil
}

// Disconnect sends a single opt-out, closes the sockets, and completes
// every outstanding request with ErrShutdown.
func (c *Client) Disconnect() error {
	c.mu.Lock()
	if c.state != stateConnected && c.state != stateFailed {
		c.mu.Unlock()
		return ErrNotConnected
	}
	tr := c.tr
	c.tr = nil
	if c.state == stateConnected {
		c.state = stateIdle
	}
	cancel := c.cancel
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if tr != nil {
		optOut := &protocol.OptOutPacket{
			Header:       c.header(protocol.MsgTypeOptOut),
			NodeCount:    1,
			ListenerPort: tr.listenerPort(),
		}
		if err := tr.sendBroadcast(optOut.Encode()); err != nil {
			c.logger.Debug().Err(err).Msg("opt-out send failed")
		}
		tr.close()
	}
	c.wg.Wait()
	c.pending.failAll(ErrShutdown)
	c.events.close()
	c.logger.Info().Msg("session closed")
	return nil
}

// fail moves the session to the failed state. Subsequent API calls
// return the original socket error.
func (c *Client) fail(err error) {
	c.mu.Lock()
	if c.state != stateConnected {
		c.mu.Unlock()
		return
	}
	c.state = stateFailed
	c.failure = err
	cancel := c.cancel
	c.mu.Unlock()

	c.logger.Error().Err(err).Msg("session failed")
	if cancel != nil {
		cancel()
	}
	c.pending.failAll(err)
}

// sessionErr reports why the session cannot serve requests, or nil.
func (c *Client) sessionErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case stateConnected:
		return nil
	case stateFailed:
		return c.failure
	default:
		return ErrNotConnected
	}
}

// header builds the management header for an outbound packet.
func (c *Client) header(msgType uint8) protocol.Header {
	return protocol.Header{
		NodeID:      c.nodeID,
		MessageType: msgType,
		NodeName:    protocol.CleanASCII(c.cfg.NodeName, config.NodeNameWidth),
		Seq:         uint8(c.seq.Add(1)),
		NodeType:    protocol.NodeTypeSlave,
		Timestamp:   uint32(time.Since(c.started).Milliseconds()),
	}
}

func (c *Client) sendOptIn() error {
	c.mu.Lock()
	tr := c.tr
	c.mu.Unlock()
	if tr == nil {
		return ErrNotConnected
	}
	optIn := &protocol.OptInPacket{
		Header:       c.header(protocol.MsgTypeOptIn),
		NodeCount:    1,
		ListenerPort: tr.listenerPort(),
		Uptime:       uint16(time.Since(c.started) / time.Second),
		VendorName:   protocol.CleanASCII(c.cfg.VendorName, config.IdentWidth),
		AppName:      protocol.CleanASCII(c.cfg.AppName, config.IdentWidth),
		VersionMajor: protocol.ProtocolVersionMajor,
	}
	return tr.sendBroadcast(optIn.Encode())
}

// keepAliveLoop refreshes this node's opt-in announcement.
func (c *Client) keepAliveLoop() {
	defer c.wg.Done()
	ticker := time.NewTicker(c.cfg.OptInInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			if err := c.sendOptIn(); err != nil {
				if c.ctx.Err() != nil {
					return
				}
				c.fail(fmt.Errorf("opt-in send: %w", err))
				return
			}
		}
	}
}

// sweepLoop evicts peers that have gone silent and fails their pending
// requests.
func (c *Client) sweepLoop() {
	defer c.wg.Done()
	ticker := time.NewTicker(c.cfg.OptInInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			for _, peer := range c.peers.sweep(c.cfg.IdleTimeout(), time.Now()) {
				c.pending.failPeer(peer.NodeID, ErrPeerGone)
				p := peer
				c.events.publish(Event{Type: EventPeerRemoved, Peer: &p})
			}
		}
	}
}

// handleBroadcast dispatches packets from the discovery port: membership
// changes feed the peer registry, everything is offered to the telemetry
// stream. The client's own announcements are ignored.
func (c *Client) handleBroadcast(pkt protocol.Packet, src *net.UDPAddr) {
	h := pkt.Head()
	if h.NodeID == c.nodeID {
		return
	}
	now := time.Now()

	switch v := pkt.(type) {
	case *protocol.OptInPacket:
		peer, added := c.peers.upsert(v, src, now)
		if added {
			p := peer
			c.events.publish(Event{Type: EventPeerAdded, Peer: &p, Source: src})
			c.firstPeerOnce.Do(func() { close(c.firstPeer) })
		}
	case *protocol.OptOutPacket:
		if peer, ok := c.peers.remove(h.NodeID); ok {
			c.pending.failPeer(h.NodeID, ErrPeerGone)
			p := peer
			c.events.publish(Event{Type: EventPeerRemoved, Peer: &p, Source: src})
		}
	case *protocol.StatusPacket:
		c.peers.updateStatus(v, now)
	default:
		c.peers.touch(h.NodeID, now)
	}

	c.events.publish(Event{Type: EventBroadcast, Packet: pkt, Source: src})
}

// handleUnicast dispatches targeted traffic: replies and error
// notifications matching a pending request complete it; everything else
// is offered to the telemetry stream. A datagram matching no pending
// entry, including one for a cancelled request, goes to the stream.
func (c *Client) handleUnicast(pkt protocol.Packet, src *net.UDPAddr) {
	h := pkt.Head()
	c.peers.touch(h.NodeID, time.Now())

	switch v := pkt.(type) {
	case *protocol.ErrorPacket:
		key := pendingKey{nodeID: h.NodeID, dataType: v.DataType, layer: v.LayerID}
		remote := &protocol.RemoteError{Code: v.Code, DataType: v.DataType, LayerID: v.LayerID}
		if !remote.IsOK() && c.pending.fail(key, remote) {
			return
		}
	default:
		if dataType := protocol.DataType(pkt); dataType != 0 {
			key := pendingKey{nodeID: h.NodeID, dataType: dataType, layer: protocol.DataLayer(pkt)}
			if c.pending.deliver(key, pkt) {
				return
			}
		}
	}

	c.events.publish(Event{Type: EventUnicast, Packet: pkt, Source: src})
}

// RequestData sends a data request to the peer and waits for the typed
// reply. Concurrent callers for the same (peer, dataType, layer)
// coalesce onto a single on-wire request and share its result. Without a
// caller deadline the configured request timeout applies. The layer is 0
// for payloads that are not layer addressed (mixer state).
func (c *Client) RequestData(ctx context.Context, nodeID uint16, dataType, layer uint8) (protocol.Packet, error) {
	wrap := func(err error) error {
		return &RequestError{NodeID: nodeID, DataType: dataType, Layer: layer, Err: err}
	}

	if err := c.sessionErr(); err != nil {
		return nil, wrap(err)
	}
	peer, ok := c.peers.get(nodeID)
	if !ok {
		return nil, wrap(ErrNoPeer)
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.RequestTimeout)
		defer cancel()
	}

	key := pendingKey{nodeID: nodeID, dataType: dataType, layer: layer}
	fragmented := dataType == protocol.DataTypeSmallWaveform || dataType == protocol.DataTypeBigWaveform
	entry, send := c.pending.join(key, fragmented)

	if send {
		req := &protocol.RequestPacket{
			Header:   c.header(protocol.MsgTypeRequest),
			DataType: dataType,
			Layer:    layer,
		}
		c.mu.Lock()
		tr := c.tr
		c.mu.Unlock()
		if tr == nil {
			c.pending.fail(key, ErrShutdown)
		} else if err := tr.sendUnicast(req.Encode(), peer.UnicastAddr()); err != nil {
			c.pending.fail(key, fmt.Errorf("send request: %w", err))
		}
	}

	select {
	case <-entry.done:
		if entry.err != nil {
			return nil, wrap(entry.err)
		}
		return entry.packet, nil
	case <-ctx.Done():
		c.pending.leave(entry)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, wrap(ErrTimeout)
		}
		return nil, wrap(ctx.Err())
	}
}
