// Package discovery scans host ranges for mining devices over SSH.
package discovery

import (
	"time"

	"github.com/minefleet/minerscout/pkg/sshexec"
)

// Options configures scanning behavior.
type Options struct {
	// Workers is the number of concurrent scan workers (default: 50).
	Workers int

	// Port is the SSH port probed and connected to (default: 22).
	Port int

	// User is the SSH account name (default: root).
	User string

	// ProbeTimeout bounds the raw TCP reachability probe (default: 500ms).
	ProbeTimeout time.Duration

	// ConnectTimeout bounds each session establishment attempt.
	ConnectTimeout time.Duration

	// CommandTimeout bounds every remote command execution (default: 500ms).
	CommandTimeout time.Duration
}

// DefaultOptions returns the default scan options.
func DefaultOptions() Options {
	return Options{
		Workers:        50,
		Port:           sshexec.DefaultPort,
		User:           sshexec.DefaultUser,
		ProbeTimeout:   500 * time.Millisecond,
		ConnectTimeout: sshexec.DefaultConnectTimeout,
		CommandTimeout: sshexec.DefaultCommandTimeout,
	}
}

// Result summarizes a finished scan.
type Result struct {
	// Hosts is the number of hosts drawn from the queue.
	Hosts int

	// Devices is the number of classified devices.
	Devices int

	// Duration is how long the scan took.
	Duration time.Duration
}
