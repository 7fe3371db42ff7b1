package firmware

import (
	"context"
)

// Session is the remote command-execution capability probers consume.
// Implementations return trimmed stdout from Run; a failed command yields
// empty output rather than an error, so "read file or fall back" probes
// compose naturally.
type Session interface {
	// Run executes a command and returns its trimmed stdout.
	Run(ctx context.Context, cmd string) (string, error)

	// RunStatus executes a command and returns its exit status.
	RunStatus(ctx context.Context, cmd string) (int, error)
}

// Prober attempts to classify one firmware family. Probe returns (nil, nil)
// when the device does not belong to the family; a non-nil DeviceInfo when
// it does; and an error when a remote command or a metadata parse failed,
// which aborts classification of the host.
type Prober interface {
	Probe(ctx context.Context, sess Session) (*DeviceInfo, error)
	Firmware() Type
}

// DefaultProbers returns the classifier chain in its fixed priority order:
// Braiins OS, then Antminer, then DragonMint. The order is part of the
// protocol: an earlier match prevents later probes from running.
func DefaultProbers() []Prober {
	return []Prober{
		&BraiinsProber{},
		&AntminerProber{},
		&DragonMintProber{},
	}
}

// Detect runs the classifier chain against an established session and
// returns the record of the first matching family. (nil, nil) means no
// family matched. An error from any prober aborts the host: a parse failure
// during an already-matched classification drops the host rather than
// falling through to later families.
func Detect(ctx context.Context, sess Session, probers []Prober) (*DeviceInfo, error) {
	for _, prober := range probers {
		device, err := prober.Probe(ctx, sess)
		if err != nil {
			return nil, err
		}
		if device != nil {
			device.Firmware = prober.Firmware()
			return device, nil
		}
	}
	return nil, nil
}
