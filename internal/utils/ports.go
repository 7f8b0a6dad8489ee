// Package utils holds small helpers shared by the node's end-to-end tests
// that have no natural home in a domain package.
package utils

import (
	"fmt"
	"net"
)

// FreePort asks the OS for a currently unused TCP port on localhost and
// immediately releases it. End-to-end tests use this to pre-assign each
// simulated node's listen address before any of them start, since every
// node's peer configuration must name the others' addresses up front.
//
// This is inherently racy: nothing stops another process from grabbing the
// port between the call returning and the caller binding it. Acceptable for
// tests, not meant for production binding decisions.
func FreePort() (int, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, fmt.Errorf("reserving a free port: %w", err)
	}
	defer ln.Close()

	addr, ok := ln.Addr().(*net.TCPAddr)
	if !ok {
		return 0, fmt.Errorf("unexpected listener address type %T", ln.Addr())
	}
	return addr.Port, nil
}
