package discovery

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/minefleet/minerscout/internal/netutil"
	"github.com/minefleet/minerscout/pkg/credentials"
	"github.com/minefleet/minerscout/pkg/firmware"
	"github.com/minefleet/minerscout/pkg/sshexec"
)

var (
	// ErrUnreachable indicates the reachability probe got no answer on the
	// SSH port.
	ErrUnreachable = errors.New("host unreachable")

	// ErrNoDevice indicates the host answered but no firmware family
	// matched.
	ErrNoDevice = errors.New("no device detected")
)

// The established SSH client is the session the classifier chain consumes.
var _ firmware.Session = (*sshexec.Client)(nil)

// Scanner fans a host sequence across a bounded pool of workers; each worker
// probes reachability, establishes a session and runs the classifier chain.
type Scanner struct {
	probers    []firmware.Prober
	creds      *credentials.Table
	portProber *netutil.PortProber
	opts       Options
	logger     zerolog.Logger
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithWorkers sets the number of concurrent scan workers.
func WithWorkers(n int) Option {
	return func(s *Scanner) {
		if n > 0 {
			s.opts.Workers = n
		}
	}
}

// WithPort sets the SSH port.
func WithPort(port int) Option {
	return func(s *Scanner) {
		if port > 0 {
			s.opts.Port = port
		}
	}
}

// WithUser sets the SSH account name.
func WithUser(user string) Option {
	return func(s *Scanner) {
		if user != "" {
			s.opts.User = user
		}
	}
}

// WithProbeTimeout sets the TCP reachability probe timeout.
func WithProbeTimeout(timeout time.Duration) Option {
	return func(s *Scanner) {
		if timeout > 0 {
			s.opts.ProbeTimeout = timeout
		}
	}
}

// WithConnectTimeout sets the session establishment timeout.
func WithConnectTimeout(timeout time.Duration) Option {
	return func(s *Scanner) {
		if timeout > 0 {
			s.opts.ConnectTimeout = timeout
		}
	}
}

// WithCommandTimeout sets the per-command execution timeout.
func WithCommandTimeout(timeout time.Duration) Option {
	return func(s *Scanner) {
		if timeout > 0 {
			s.opts.CommandTimeout = timeout
		}
	}
}

// WithProbers replaces the default classifier chain. Order is preserved.
func WithProbers(probers []firmware.Prober) Option {
	return func(s *Scanner) {
		s.probers = probers
	}
}

// WithLogger sets the scan logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Scanner) {
		s.logger = logger
	}
}

// NewScanner creates a scanner that tries the given credential table against
// every host and classifies with the default firmware chain.
func NewScanner(creds *credentials.Table, opts ...Option) *Scanner {
	s := &Scanner{
		probers: firmware.DefaultProbers(),
		creds:   creds,
		opts:    DefaultOptions(),
		logger:  zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.portProber = netutil.NewPortProber(
		netutil.WithProbeTimeout(s.opts.ProbeTimeout),
	)

	return s
}

// Scan drains the host sequence through the worker pool and calls emit for
// every classified device, in completion order. Per-host failures of any
// kind degrade to a skipped host; Scan itself never fails. It returns when
// the sequence is exhausted and all in-flight workers have finished, or when
// ctx is cancelled.
func (s *Scanner) Scan(ctx context.Context, hosts iter.Seq[string], emit func(*firmware.DeviceInfo)) Result {
	start := time.Now()

	// The work channel is the shared host cursor: every host is taken by
	// exactly one worker.
	workCh := make(chan string)
	resultCh := make(chan *firmware.DeviceInfo)

	go func() {
		defer close(workCh)
		for host := range hosts {
			select {
			case <-ctx.Done():
				return
			case workCh <- host:
			}
		}
	}()

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		drawn int
	)

	for i := 0; i < s.opts.Workers; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for host := range workCh {
				mu.Lock()
				drawn++
				mu.Unlock()

				device, err := s.Detect(ctx, host)
				if err != nil {
					s.logger.Debug().Str("host", host).Err(err).Msg("skipping host")
					continue
				}

				select {
				case <-ctx.Done():
					return
				case resultCh <- device:
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	devices := 0
	for device := range resultCh {
		devices++
		if emit != nil {
			emit(device)
		}
	}

	return Result{
		Hosts:    drawn,
		Devices:  devices,
		Duration: time.Since(start),
	}
}

// Detect scans a single host: bounded reachability probe, credential-list
// session establishment, then the classifier chain. The returned error names
// the skip reason; ErrNoDevice means the host answered but matched no
// firmware family.
func (s *Scanner) Detect(ctx context.Context, host string) (*firmware.DeviceInfo, error) {
	if !s.portProber.Reachable(ctx, host, s.opts.Port) {
		return nil, fmt.Errorf("%w: tcp port %d", ErrUnreachable, s.opts.Port)
	}

	client, err := sshexec.Connect(ctx, host, sshexec.Config{
		User:           s.opts.User,
		Port:           s.opts.Port,
		ConnectTimeout: s.opts.ConnectTimeout,
		CommandTimeout: s.opts.CommandTimeout,
	}, s.creds.Lookup(host))
	if err != nil {
		return nil, err
	}
	defer client.Close()

	device, err := firmware.Detect(ctx, client, s.probers)
	if err != nil {
		return nil, err
	}
	if device == nil {
		return nil, ErrNoDevice
	}

	return device, nil
}
