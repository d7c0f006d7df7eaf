//go:build unix

package client

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// setBroadcastOptions enables sending to the segment's broadcast address.
func setBroadcastOptions(network, address string, c syscall.RawConn) error {
	var sysErr error
	err := c.Control(func(fd uintptr) {
		sysErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_BROADCAST, 1)
		if sysErr != nil {
			return
		}
		sysErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_SNDBUF, 1*1024*1024)
	})
	if err != nil {
		return err
	}
	return sysErr
}

// setReceiveOptions lets several TCNet applications share the discovery
// port on one host.
func setReceiveOptions(network, address string, c syscall.RawConn) error {
	var sysErr error
	err := c.Control(func(fd uintptr) {
		sysErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
		if sysErr != nil {
			return
		}
		sysErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_RCVBUF, 4*1024*1024)
	})
	if err != nil {
		return err
	}
	return sysErr
}
