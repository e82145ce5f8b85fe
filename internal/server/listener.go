// Package server binds the gateway listener and runs the HTTP server
// with graceful shutdown.
package server

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/vyrodovalexey/storegw/internal/observability"
)

// Listen binds the requested TCP port. When the port is already taken
// it falls back to an ephemeral port instead of failing startup; any
// other bind error is fatal. The actual port is announced on stdout
// and, when portFile is set, written there for external discovery.
func Listen(port int, portFile string, logger observability.Logger) (net.Listener, int, error) {
	addr := fmt.Sprintf(":%d", port)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		if !isAddrInUse(err) {
			return nil, 0, fmt.Errorf("binding %s: %w", addr, err)
		}

		logger.Warn("port already in use, falling back to ephemeral port",
			observability.Int("port", port),
		)

		ln, err = net.Listen("tcp", ":0")
		if err != nil {
			return nil, 0, fmt.Errorf("binding ephemeral port: %w", err)
		}
	}

	actual := ln.Addr().(*net.TCPAddr).Port
	announcePort(actual, portFile, logger)

	return ln, actual, nil
}

// isAddrInUse reports whether err is the address-in-use bind failure.
// The string check covers platforms where the syscall error does not
// unwrap cleanly.
func isAddrInUse(err error) bool {
	if errors.Is(err, syscall.EADDRINUSE) {
		return true
	}
	return strings.Contains(err.Error(), "address already in use")
}

func announcePort(port int, portFile string, logger observability.Logger) {
	fmt.Printf("LISTENING_PORT=%d\n", port)

	if portFile == "" {
		return
	}
	if err := os.WriteFile(portFile, []byte(strconv.Itoa(port)), 0o644); err != nil {
		logger.Warn("failed to write port file",
			observability.String("path", portFile),
			observability.Error(err),
		)
	}
}
