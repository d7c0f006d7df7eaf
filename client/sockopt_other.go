//go:build !unix

package client

import "syscall"

func setBroadcastOptions(network, address string, c syscall.RawConn) error { return nil }

func setReceiveOptions(network, address string, c syscall.RawConn) error { return nil }
