package netutil

import (
	"context"
	"net"
	"strconv"
	"time"
)

// DefaultProbeTimeout bounds a single reachability probe.
const DefaultProbeTimeout = 500 * time.Millisecond

// PortProber answers whether a TCP port accepts connections, with a bounded
// dial and no retry.
type PortProber struct {
	timeout time.Duration
}

// PortProberOption configures a PortProber.
type PortProberOption func(*PortProber)

// WithProbeTimeout sets the timeout for each probe attempt.
func WithProbeTimeout(timeout time.Duration) PortProberOption {
	return func(p *PortProber) {
		p.timeout = timeout
	}
}

// NewPortProber creates a new port prober.
func NewPortProber(opts ...PortProberOption) *PortProber {
	p := &PortProber{
		timeout: DefaultProbeTimeout,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Reachable reports whether a TCP connection to host:port succeeds within
// the probe timeout.
func (p *PortProber) Reachable(ctx context.Context, host string, port int) bool {
	address := net.JoinHostPort(host, strconv.Itoa(port))

	dialer := &net.Dialer{
		Timeout: p.timeout,
	}

	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}
