// Package sshexec provides the remote command-execution capability used to
// interrogate candidate devices: password-list session establishment and
// timeout-bounded command runs.
package sshexec

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/minefleet/minerscout/pkg/credentials"
)

const (
	// DefaultUser is the account mining firmwares expose over SSH.
	DefaultUser = "root"

	// DefaultPort is the SSH port.
	DefaultPort = 22

	// DefaultCommandTimeout bounds each remote command execution.
	DefaultCommandTimeout = 500 * time.Millisecond

	// DefaultConnectTimeout bounds each session establishment attempt.
	DefaultConnectTimeout = 5 * time.Second
)

// Config holds session establishment parameters.
type Config struct {
	// User is the SSH account name (default: root).
	User string

	// Port is the SSH port (default: 22).
	Port int

	// ConnectTimeout bounds each connection attempt.
	ConnectTimeout time.Duration

	// CommandTimeout bounds every remote command execution.
	CommandTimeout time.Duration
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.User == "" {
		out.User = DefaultUser
	}
	if out.Port == 0 {
		out.Port = DefaultPort
	}
	if out.ConnectTimeout == 0 {
		out.ConnectTimeout = DefaultConnectTimeout
	}
	if out.CommandTimeout == 0 {
		out.CommandTimeout = DefaultCommandTimeout
	}
	return out
}

// Client is an authenticated command-execution channel to one host.
type Client struct {
	conn       *ssh.Client
	host       string
	cmdTimeout time.Duration
}

// Connect establishes a session to host, attempting each password candidate
// in order and stopping at the first that authenticates. Only auth-class
// handshake failures advance to the next candidate; any transport-level
// failure aborts immediately with ErrConnectionFailed. When every candidate
// is rejected, an *AuthExhaustedError carrying the last auth error is
// returned.
func Connect(ctx context.Context, host string, cfg Config, passwords []credentials.Password) (*Client, error) {
	cfg = cfg.withDefaults()
	addr := net.JoinHostPort(host, strconv.Itoa(cfg.Port))

	var lastAuth error
	attempts := 0

	for _, password := range passwords {
		attempts++

		sshCfg := &ssh.ClientConfig{
			User:            cfg.User,
			Auth:            authMethods(password),
			HostKeyCallback: ssh.InsecureIgnoreHostKey(),
			Timeout:         cfg.ConnectTimeout,
		}

		dialer := &net.Dialer{Timeout: cfg.ConnectTimeout}
		conn, err := dialer.DialContext(ctx, "tcp", addr)
		if err != nil {
			return nil, fmt.Errorf("%w: dial %s: %v", ErrConnectionFailed, addr, err)
		}

		sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, sshCfg)
		if err != nil {
			conn.Close()
			if isAuthFailure(err) {
				lastAuth = err
				continue
			}
			return nil, fmt.Errorf("%w: handshake with %s: %v", ErrConnectionFailed, addr, err)
		}

		return &Client{
			conn:       ssh.NewClient(sshConn, chans, reqs),
			host:       host,
			cmdTimeout: cfg.CommandTimeout,
		}, nil
	}

	return nil, &AuthExhaustedError{Host: host, Attempts: attempts, Last: lastAuth}
}

// authMethods maps a password candidate to SSH auth methods. The no-password
// candidate requests "none" authentication by offering no methods at all.
func authMethods(password credentials.Password) []ssh.AuthMethod {
	if password.IsNone() {
		return nil
	}
	return []ssh.AuthMethod{ssh.Password(password.Value())}
}

// Host returns the remote host this client is connected to.
func (c *Client) Host() string { return c.host }

// Close tears down the session.
func (c *Client) Close() error { return c.conn.Close() }

// Run executes a command and returns its trimmed stdout. A non-zero exit
// status is not an error: the (possibly empty) output is returned, matching
// the "read file or fall back" probing idiom. Exceeding the command timeout
// fails with ErrCommandTimeout.
func (c *Client) Run(ctx context.Context, cmd string) (string, error) {
	output, _, err := c.exec(ctx, cmd)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(output), nil
}

// RunStatus executes a command and returns its exit status.
func (c *Client) RunStatus(ctx context.Context, cmd string) (int, error) {
	_, status, err := c.exec(ctx, cmd)
	if err != nil {
		return 0, err
	}
	return status, nil
}

type execResult struct {
	output []byte
	err    error
}

func (c *Client) exec(ctx context.Context, cmd string) (string, int, error) {
	session, err := c.conn.NewSession()
	if err != nil {
		return "", 0, fmt.Errorf("new session on %s: %w", c.host, err)
	}
	defer session.Close()

	done := make(chan execResult, 1)
	go func() {
		output, err := session.Output(cmd)
		done <- execResult{output: output, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			var exitErr *ssh.ExitError
			if errors.As(res.err, &exitErr) {
				return string(res.output), exitErr.ExitStatus(), nil
			}
			return "", 0, fmt.Errorf("run %q on %s: %w", cmd, c.host, res.err)
		}
		return string(res.output), 0, nil
	case <-time.After(c.cmdTimeout):
		_ = session.Signal(ssh.SIGKILL)
		return "", 0, fmt.Errorf("%w: %q on %s", ErrCommandTimeout, cmd, c.host)
	case <-ctx.Done():
		_ = session.Signal(ssh.SIGKILL)
		return "", 0, ctx.Err()
	}
}
