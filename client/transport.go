package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"

	"github.com/mixtools/tcnet/config"
	"github.com/mixtools/tcnet/protocol"
	"github.com/rs/zerolog"
)

// transport owns the session's three UDP endpoints: the broadcast
// receiver on the discovery port, the broadcast sender for keep-alive
// announcements, and the unicast socket whose port is advertised as the
// listener port.
type transport struct {
	broadcastRecv *net.UDPConn
	broadcastSend *net.UDPConn
	unicast       *net.UDPConn
	broadcastDst  *net.UDPAddr
	logger        zerolog.Logger
}

func bindTransport(cfg *config.Config, logger zerolog.Logger) (*transport, error) {
	ipnet, err := cfg.ResolveInterface()
	if err != nil {
		return nil, err
	}

	t := &transport{logger: logger.With().Str("com", "transport").Logger()}

	t.broadcastRecv, err = listenUDP(fmt.Sprintf(":%d", cfg.BroadcastPort), setReceiveOptions)
	if err != nil {
		return nil, fmt.Errorf("bind broadcast receiver: %w", err)
	}

	sendAddr := ":0"
	if ipnet != nil {
		sendAddr = net.JoinHostPort(ipnet.IP.String(), "0")
	}
	t.broadcastSend, err = listenUDP(sendAddr, setBroadcastOptions)
	if err != nil {
		t.close()
		return nil, fmt.Errorf("bind broadcast sender: %w", err)
	}

	t.unicast, err = listenUDP(":0", setReceiveOptions)
	if err != nil {
		t.close()
		return nil, fmt.Errorf("bind unicast socket: %w", err)
	}

	t.broadcastDst = &net.UDPAddr{
		IP:   broadcastAddr(ipnet),
		Port: t.broadcastRecv.LocalAddr().(*net.UDPAddr).Port,
	}

	t.logger.Debug().
		Str("broadcast_dst", t.broadcastDst.String()).
		Uint16("listener_port", t.listenerPort()).
		Msg("transport bound")
	return t, nil
}

// listenUDP binds an IPv4 UDP socket with the given socket options.
func listenUDP(addr string, control func(network, address string, c syscall.RawConn) error) (*net.UDPConn, error) {
	lc := net.ListenConfig{Control: control}
	pc, err := lc.ListenPacket(context.Background(), "udp4", addr)
	if err != nil {
		return nil, err
	}
	return pc.(*net.UDPConn), nil
}

// broadcastAddr derives the directed broadcast address of the network,
// (ip & mask) | ^mask. A nil network selects the limited broadcast
// address.
func broadcastAddr(ipnet *net.IPNet) net.IP {
	if ipnet == nil {
		return net.IPv4bcast
	}
	ip := ipnet.IP.To4()
	mask := ipnet.Mask
	if len(mask) == net.IPv6len {
		mask = mask[12:]
	}
	out := make(net.IP, len(ip))
	for i := range ip {
		out[i] = ip[i]&mask[i] | ^mask[i]
	}
	return out
}

// listenerPort is the unicast port advertised in outbound opt-ins.
func (t *transport) listenerPort() uint16 {
	return uint16(t.unicast.LocalAddr().(*net.UDPAddr).Port)
}

// broadcastPort is the bound discovery port.
func (t *transport) broadcastPort() int {
	return t.broadcastRecv.LocalAddr().(*net.UDPAddr).Port
}

// sendBroadcast writes a datagram to the segment's broadcast address.
func (t *transport) sendBroadcast(b []byte) error {
	_, err := t.broadcastSend.WriteToUDP(b, t.broadcastDst)
	return err
}

// sendUnicast writes a datagram to a peer's listener endpoint.
func (t *transport) sendUnicast(b []byte, dst *net.UDPAddr) error {
	_, err := t.unicast.WriteToUDP(b, dst)
	return err
}

func (t *transport) close() {
	for _, conn := range []*net.UDPConn{t.broadcastRecv, t.broadcastSend, t.unicast} {
		if conn != nil {
			conn.Close()
		}
	}
}

// readLoop receives datagrams until the socket closes, decoding each and
// handing it to handle. Malformed datagrams are dropped with a
// diagnostic; only socket failures end the loop through onFatal.
func (t *transport) readLoop(conn *net.UDPConn, name string, handle func(protocol.Packet, *net.UDPAddr), onFatal func(error)) {
	logger := t.logger.With().Str("socket", name).Logger()
	for {
		bufPtr := protocol.GetDatagramBuffer()
		buf := *bufPtr
		n, src, err := conn.ReadFromUDP(buf)
		if err != nil {
			protocol.PutDatagramBuffer(bufPtr)
			if errors.Is(err, net.ErrClosed) {
				return
			}
			logger.Error().Err(err).Msg("socket receive failed")
			onFatal(fmt.Errorf("%s receive: %w", name, err))
			return
		}

		pkt, err := protocol.Decode(buf[:n])
		protocol.PutDatagramBuffer(bufPtr)
		if err != nil {
			logger.Debug().Err(err).Str("src", src.String()).Int("len", n).Msg("dropping datagram")
			continue
		}
		handle(pkt, src)
	}
}
