package utils

import (
	"net"
)

// IsListenAddrAvailable reports whether addr (as accepted by
// NormalizeListenAddr) can be bound right now.
func IsListenAddrAvailable(addr string) bool {
	normalized, err := NormalizeListenAddr(addr)
	if err != nil {
		Verbose("invalid listen address %q: %v", addr, err)
		return false
	}

	Verbose("Checking if %s is available", normalized)
	listener, err := net.Listen("tcp", normalized)
	if err != nil {
		Verbose("error: %v", err)
		return false
	}

	defer listener.Close()
	return true
}
