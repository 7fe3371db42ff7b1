package firmware

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

// antminerBoards are the control-board identifiers of stock Antminer
// firmware.
var antminerBoards = []string{"XILINX", "C5"}

// AntminerProber classifies stock Antminer devices. Second in the chain.
type AntminerProber struct{}

// Firmware implements Prober.
func (p *AntminerProber) Firmware() Type { return TypeAntminer }

// Probe implements Prober. The identity probe is the control-board marker.
func (p *AntminerProber) Probe(ctx context.Context, sess Session) (*DeviceInfo, error) {
	board, err := sess.Run(ctx, "cat /usr/bin/ctrl_bd")
	if err != nil {
		return nil, err
	}
	if !slices.Contains(antminerBoards, board) {
		return nil, nil
	}
	return p.assemble(ctx, sess)
}

func (p *AntminerProber) assemble(ctx context.Context, sess Session) (*DeviceInfo, error) {
	device := &DeviceInfo{OS: "Antminer"}

	// compile_time holds three lines: filesystem version, miner type,
	// control-logic version.
	compileTime, err := sess.Run(ctx, "cat /usr/bin/compile_time")
	if err != nil {
		return nil, err
	}
	lines := strings.Split(compileTime, "\n")
	if len(lines) < 3 {
		return nil, fmt.Errorf("unexpected compile_time contents %q", compileTime)
	}
	fsVersion := strings.TrimSpace(lines[0])
	minerType := strings.TrimSpace(lines[1])
	logicVersion := strings.TrimSpace(lines[2])

	typeFields := strings.Fields(minerType)
	if len(typeFields) < 2 {
		return nil, fmt.Errorf("unexpected miner type %q", minerType)
	}
	device.Version = fmt.Sprintf("%s %s (%s)", typeFields[1], fsVersion, logicVersion)

	network, err := antminerNetwork(ctx, sess)
	if err != nil {
		return nil, err
	}
	device.Network = network

	device.RAMBytes, err = fetchRAMBytes(ctx, sess)
	if err != nil {
		return nil, err
	}

	device.Pools, err = fetchPools(ctx, sess, "/config/bmminer.conf")
	if err != nil {
		return nil, err
	}

	device.Note, err = sess.Run(ctx, "cat /config/note")
	if err != nil {
		return nil, err
	}

	return device, nil
}

var _ Prober = (*AntminerProber)(nil)
