package firmware

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

// dragonMintBoards are the hardware versions of DragonMint devices.
var dragonMintBoards = []string{"G9", "G19", "G29"}

// DragonMintProber classifies DragonMint devices. Last in the chain.
type DragonMintProber struct{}

// Firmware implements Prober.
func (p *DragonMintProber) Firmware() Type { return TypeDragonMint }

// Probe implements Prober. The identity probe is the hardware version file.
func (p *DragonMintProber) Probe(ctx context.Context, sess Session) (*DeviceInfo, error) {
	board, err := sess.Run(ctx, "cat /tmp/hwver")
	if err != nil {
		return nil, err
	}
	if !slices.Contains(dragonMintBoards, board) {
		return nil, nil
	}
	return p.assemble(ctx, sess)
}

func (p *DragonMintProber) assemble(ctx context.Context, sess Session) (*DeviceInfo, error) {
	device := &DeviceInfo{OS: "DragonMint"}

	// hwrevision reads like "dm1 g19.v1.2"; the dotted second word is the
	// version, rendered space-separated and uppercased.
	hwRevision, err := sess.Run(ctx, "cat /etc/hwrevision")
	if err != nil {
		return nil, err
	}
	fields := strings.Fields(hwRevision)
	if len(fields) < 2 {
		return nil, fmt.Errorf("unexpected hwrevision %q", hwRevision)
	}
	device.Version = strings.ToUpper(strings.ReplaceAll(fields[1], ".", " "))

	network, err := dragonMintNetwork(ctx, sess)
	if err != nil {
		return nil, err
	}
	device.Network = network

	device.RAMBytes, err = fetchRAMBytes(ctx, sess)
	if err != nil {
		return nil, err
	}

	device.Pools, err = fetchPools(ctx, sess, "/etc/cgminer.conf")
	if err != nil {
		return nil, err
	}

	device.Note, err = sess.Run(ctx, "cat /config/note")
	if err != nil {
		return nil, err
	}

	return device, nil
}

var _ Prober = (*DragonMintProber)(nil)
