package firmware

import (
	"context"
	"slices"
)

// braiinsBoards are the board names Braiins OS ships on.
var braiinsBoards = []string{"dm1-g9", "dm1-g19", "dm1-g29", "am1-s9"}

// BraiinsProber classifies Braiins OS (bOS) devices. It runs first in the
// chain.
type BraiinsProber struct{}

// Firmware implements Prober.
func (p *BraiinsProber) Firmware() Type { return TypeBraiins }

// Probe implements Prober. The identity probe is the OpenWrt board name.
func (p *BraiinsProber) Probe(ctx context.Context, sess Session) (*DeviceInfo, error) {
	board, err := sess.Run(ctx, "cat /tmp/sysinfo/board_name")
	if err != nil {
		return nil, err
	}
	if !slices.Contains(braiinsBoards, board) {
		return nil, nil
	}
	return p.assemble(ctx, sess, board)
}

func (p *BraiinsProber) assemble(ctx context.Context, sess Session, board string) (*DeviceInfo, error) {
	device := &DeviceInfo{OS: "bOS"}

	network, err := openWrtNetwork(ctx, sess)
	if err != nil {
		return nil, err
	}
	device.Network = network

	// Release builds carry /etc/bos_version; development images fall back
	// to the installed firmware package version.
	version, err := runFirst(ctx, sess,
		"cat /etc/bos_version",
		"opkg list-installed | sed -n '/firmware/s/.*- //p'")
	if err != nil {
		return nil, err
	}
	if version == "" {
		version = InfoUnknown
	}
	device.Version = board + "_" + version

	hwid, err := sess.Run(ctx, "cat /tmp/miner_hwid")
	if err != nil {
		return nil, err
	}
	if hwid == "" {
		hwid = InfoUnknown
	}
	device.HWID = hwid

	mode, err := sess.Run(ctx, "cat /etc/bos_mode")
	if err != nil {
		return nil, err
	}
	if mode == "" {
		mode, err = p.determineMode(ctx, sess)
		if err != nil {
			return nil, err
		}
	}
	device.Mode = mode

	device.RAMBytes, err = fetchRAMBytes(ctx, sess)
	if err != nil {
		return nil, err
	}

	device.Pools, err = fetchPools(ctx, sess, "/etc/cgminer.conf")
	if err != nil {
		return nil, err
	}

	device.Note, err = sess.Run(ctx, "cat /etc/bos_note")
	if err != nil {
		return nil, err
	}

	return device, nil
}

// determineMode derives the boot mode from the mounted overlay device when
// /etc/bos_mode is absent.
func (p *BraiinsProber) determineMode(ctx context.Context, sess Session) (string, error) {
	status, err := sess.RunStatus(ctx, "mount | grep -q '/dev/ubi0_2 on /overlay'")
	if err != nil {
		return "", err
	}
	if status == 0 {
		return "nand", nil
	}

	status, err = sess.RunStatus(ctx, "mount | grep -q '/dev/mmcblk0p2 on /overlay'")
	if err != nil {
		return "", err
	}
	if status == 0 {
		return "sd", nil
	}

	return "recovery", nil
}

var _ Prober = (*BraiinsProber)(nil)
