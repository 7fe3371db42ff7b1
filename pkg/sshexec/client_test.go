package sshexec

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"net"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"

	"github.com/minefleet/minerscout/pkg/credentials"
)

// testSSHServer is a minimal password-auth SSH server that records every
// password offered to it.
type testSSHServer struct {
	listener net.Listener
	port     int

	mu       sync.Mutex
	attempts []string
}

func newTestSSHServer(t *testing.T, accept string) *testSSHServer {
	t.Helper()

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	signer, err := ssh.NewSignerFromKey(priv)
	require.NoError(t, err)

	srv := &testSSHServer{}

	config := &ssh.ServerConfig{
		PasswordCallback: func(_ ssh.ConnMetadata, password []byte) (*ssh.Permissions, error) {
			srv.mu.Lock()
			srv.attempts = append(srv.attempts, string(password))
			srv.mu.Unlock()

			if string(password) == accept {
				return nil, nil
			}
			return nil, errors.New("wrong password")
		},
	}
	config.AddHostKey(signer)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { listener.Close() })

	srv.listener = listener
	_, portStr, err := net.SplitHostPort(listener.Addr().String())
	require.NoError(t, err)
	srv.port, err = strconv.Atoi(portStr)
	require.NoError(t, err)

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				sshConn, chans, reqs, err := ssh.NewServerConn(c, config)
				if err != nil {
					c.Close()
					return
				}
				go ssh.DiscardRequests(reqs)
				for ch := range chans {
					_ = ch.Reject(ssh.UnknownChannelType, "not supported")
				}
				sshConn.Close()
			}(conn)
		}
	}()

	return srv
}

func (s *testSSHServer) passwordAttempts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.attempts))
	copy(out, s.attempts)
	return out
}

func TestConnectTriesCredentialsInOrder(t *testing.T) {
	srv := newTestSSHServer(t, "admin")

	client, err := Connect(context.Background(), "127.0.0.1",
		Config{Port: srv.port}, credentials.Defaults())
	require.NoError(t, err)
	defer client.Close()

	// Defaults are [none, "", "admin", "123"]. The none candidate never
	// reaches the password callback; "" and "admin" do, and "123" must not
	// be attempted once "admin" succeeds.
	assert.Equal(t, []string{"", "admin"}, srv.passwordAttempts())
}

func TestConnectAuthExhausted(t *testing.T) {
	srv := newTestSSHServer(t, "letmein")

	_, err := Connect(context.Background(), "127.0.0.1",
		Config{Port: srv.port}, credentials.Defaults())
	require.Error(t, err)

	var authErr *AuthExhaustedError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, 4, authErr.Attempts)
	assert.True(t, IsAuthExhausted(err))

	assert.Equal(t, []string{"", "admin", "123"}, srv.passwordAttempts())
}

func TestConnectRefusedIsConnectionFailed(t *testing.T) {
	// Grab a free port, then close the listener so the dial is refused.
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	_, portStr, err := net.SplitHostPort(listener.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	listener.Close()

	_, err = Connect(context.Background(), "127.0.0.1",
		Config{Port: port}, credentials.Defaults())
	assert.ErrorIs(t, err, ErrConnectionFailed)
}

func TestIsAuthFailure(t *testing.T) {
	assert.True(t, isAuthFailure(errors.New("ssh: handshake failed: ssh: unable to authenticate, attempted methods [none password], no supported methods remain")))
	assert.False(t, isAuthFailure(errors.New("ssh: handshake failed: EOF")))
	assert.False(t, isAuthFailure(nil))
}

func TestConfigDefaults(t *testing.T) {
	cfg := (&Config{}).withDefaults()
	assert.Equal(t, DefaultUser, cfg.User)
	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, DefaultCommandTimeout, cfg.CommandTimeout)
	assert.Equal(t, DefaultConnectTimeout, cfg.ConnectTimeout)
}
