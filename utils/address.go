package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// NormalizeListenAddr turns a bare port ("12100") into ":12100" and validates it.
// Addresses that already carry a host are returned unchanged.
func NormalizeListenAddr(addr string) (string, error) {
	if strings.Contains(addr, ":") {
		return addr, nil
	}

	port, err := strconv.Atoi(addr)
	if err != nil {
		return "", fmt.Errorf("invalid port: %v", err)
	}

	return fmt.Sprintf(":%d", port), nil
}

// ServerURL turns a listen address into a dialable http URL on localhost when the host is missing.
func ServerURL(addr string) string {
	if !strings.Contains(addr, ":") {
		// validate it's a number
		if _, err := strconv.Atoi(addr); err == nil {
			addr = ":" + addr
		}
	}

	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}

	return "http://" + addr
}
