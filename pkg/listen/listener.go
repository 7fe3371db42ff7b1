// Package listen consumes the UDP presence broadcasts that mining devices
// emit on the local network, an alternative to actively scanning for them.
package listen

import (
	"context"
	"fmt"
	"net"
	"strings"

	"github.com/rs/zerolog"
)

const (
	// DefaultPort is the UDP port devices broadcast on.
	DefaultPort = 14235

	// maxDatagram bounds a single announcement payload.
	maxDatagram = 1024
)

// DefaultFormat renders an announcement as "ip (mac)".
const DefaultFormat = "{IP} ({MAC})"

// Announcement is one decoded presence broadcast.
type Announcement struct {
	IP  string
	MAC string
}

// Format renders the announcement through a template, substituting the
// {IP} and {MAC} placeholders.
func (a Announcement) Format(template string) string {
	out := strings.ReplaceAll(template, "{IP}", a.IP)
	return strings.ReplaceAll(out, "{MAC}", a.MAC)
}

// Listener receives and decodes device presence broadcasts.
type Listener struct {
	port   int
	logger zerolog.Logger
}

// Option configures a Listener.
type Option func(*Listener)

// WithPort sets the UDP port to bind.
func WithPort(port int) Option {
	return func(l *Listener) {
		if port > 0 {
			l.port = port
		}
	}
}

// WithLogger sets the listener logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(l *Listener) {
		l.logger = logger
	}
}

// NewListener creates a listener for device presence broadcasts.
func NewListener(opts ...Option) *Listener {
	l := &Listener{
		port:   DefaultPort,
		logger: zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Listen binds the broadcast port and calls emit for every decoded
// announcement until ctx is cancelled. Datagrams that do not decode are
// logged and dropped.
func (l *Listener) Listen(ctx context.Context, emit func(Announcement)) error {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{Port: l.port})
	if err != nil {
		return fmt.Errorf("bind udp port %d: %w", l.port, err)
	}
	defer conn.Close()

	l.logger.Info().Int("port", l.port).Msg("listening for device broadcasts")

	// Unblock the read loop on cancellation.
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	buf := make([]byte, maxDatagram)
	for {
		n, addr, err := conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read udp: %w", err)
		}

		ann, err := decode(buf[:n])
		if err != nil {
			l.logger.Debug().Stringer("from", addr).Err(err).Msg("dropping datagram")
			continue
		}

		emit(ann)
	}
}

// decode parses the "ip,mac" payload devices broadcast.
func decode(payload []byte) (Announcement, error) {
	ip, mac, ok := strings.Cut(strings.TrimSpace(string(payload)), ",")
	if !ok {
		return Announcement{}, fmt.Errorf("malformed payload %q", payload)
	}
	return Announcement{IP: ip, MAC: mac}, nil
}
