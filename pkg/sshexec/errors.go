package sshexec

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConnectionFailed indicates the transport to the host could not be
	// established (refused, unreachable, dial timeout). Not retried.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrCommandTimeout indicates a remote command exceeded its execution
	// timeout. The command is not retried.
	ErrCommandTimeout = errors.New("command timed out")
)

// AuthExhaustedError indicates every password candidate was rejected.
type AuthExhaustedError struct {
	Host     string
	Attempts int
	Last     error
}

func (e *AuthExhaustedError) Error() string {
	return fmt.Sprintf("authentication exhausted for %s after %d attempt(s): %v",
		e.Host, e.Attempts, e.Last)
}

func (e *AuthExhaustedError) Unwrap() error {
	return e.Last
}

// IsAuthExhausted reports whether err is an exhausted-credentials failure.
func IsAuthExhausted(err error) bool {
	var authErr *AuthExhaustedError
	return errors.As(err, &authErr)
}

// isAuthFailure classifies an SSH handshake error. Only failures of this
// class advance to the next password candidate; everything else aborts the
// connection attempt. x/crypto/ssh does not export a typed client-side auth
// error, so the handshake message is inspected.
func isAuthFailure(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "unable to authenticate") ||
		strings.Contains(msg, "no supported methods remain")
}
