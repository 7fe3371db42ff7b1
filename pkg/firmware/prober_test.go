package firmware

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCgminerConf = `{"pools": [` +
	`{"url": "stratum+tcp://pool.example:3333", "user": "worker.1", "pass": "x"},` +
	`{"url": "stratum+tcp://backup.example:3333", "user": "worker.2", "pass": "x"}]}`

func braiinsOutputs() map[string]string {
	outputs := baseOutputs()
	outputs["cat /tmp/sysinfo/board_name"] = "am1-s9"
	outputs[cmdUCINetworkLAN] = "proto=dhcp\nhostname=bos-1"
	outputs["cat /etc/bos_version"] = "2019-01-18-0"
	outputs["cat /tmp/miner_hwid"] = "SGYgt7BGZkrQ"
	outputs["cat /etc/bos_mode"] = "nand"
	outputs[cmdMemTotal] = "1048576 kB"
	outputs["cat /etc/cgminer.conf"] = testCgminerConf
	outputs["cat /etc/bos_note"] = "rack 4"
	return outputs
}

func TestBraiinsProbe(t *testing.T) {
	sess := &fakeSession{outputs: braiinsOutputs()}

	device, err := Detect(context.Background(), sess, DefaultProbers())
	require.NoError(t, err)
	require.NotNil(t, device)

	assert.Equal(t, TypeBraiins, device.Firmware)
	assert.Equal(t, "bOS", device.OS)
	assert.Equal(t, "am1-s9_2019-01-18-0", device.Version)
	assert.Equal(t, "SGYgt7BGZkrQ", device.HWID)
	assert.Equal(t, "nand", device.Mode)
	assert.Equal(t, int64(1073741824), device.RAMBytes)
	require.Len(t, device.Pools, 2)
	assert.Equal(t, "worker.1", device.Pools[0].User)
	assert.Equal(t, "rack 4", device.Note)
	assert.Equal(t, ProtocolDynamic, device.Network.Protocol)
	assert.Equal(t, "bos-1", device.Network.Hostname)

	assert.Equal(t,
		"00:11:22:33:44:55 (10.0.0.8) | bOS am1-s9_2019-01-18-0 <SGYgt7BGZkrQ> [nand] {1 GiB RAM} dhcp(bos-1) @worker.1 # rack 4",
		device.Short())
}

func TestBraiinsVersionAndModeFallbacks(t *testing.T) {
	outputs := braiinsOutputs()
	delete(outputs, "cat /etc/bos_version")
	delete(outputs, "cat /etc/bos_mode")
	outputs["opkg list-installed | sed -n '/firmware/s/.*- //p'"] = "2018-09-22"
	sess := &fakeSession{
		outputs: outputs,
		statuses: map[string]int{
			"mount | grep -q '/dev/mmcblk0p2 on /overlay'": 0,
		},
	}

	device, err := (&BraiinsProber{}).Probe(context.Background(), sess)
	require.NoError(t, err)
	require.NotNil(t, device)

	assert.Equal(t, "am1-s9_2018-09-22", device.Version)
	assert.Equal(t, "sd", device.Mode)
}

func TestBraiinsRecoveryMode(t *testing.T) {
	outputs := braiinsOutputs()
	delete(outputs, "cat /etc/bos_mode")
	sess := &fakeSession{outputs: outputs}

	device, err := (&BraiinsProber{}).Probe(context.Background(), sess)
	require.NoError(t, err)
	require.NotNil(t, device)
	assert.Equal(t, "recovery", device.Mode)
}

func TestAntminerProbe(t *testing.T) {
	outputs := baseOutputs()
	outputs["cat /usr/bin/ctrl_bd"] = "XILINX"
	outputs["cat /usr/bin/compile_time"] = "Fri Nov 17 17:57:49 CST 2017\nAntminer S9 Fri Nov 17 17:57:49 CST 2017\n4.8.0"
	outputs["cat /config/network.conf"] = "dhcp=true\nhostname=ant-3"
	outputs[cmdMemTotal] = "506816 kB"
	outputs["cat /config/bmminer.conf"] = testCgminerConf
	sess := &fakeSession{outputs: outputs}

	device, err := Detect(context.Background(), sess, DefaultProbers())
	require.NoError(t, err)
	require.NotNil(t, device)

	assert.Equal(t, TypeAntminer, device.Firmware)
	assert.Equal(t, "Antminer", device.OS)
	assert.Equal(t, "S9 Fri Nov 17 17:57:49 CST 2017 (4.8.0)", device.Version)
	assert.Empty(t, device.HWID)
	assert.Empty(t, device.Mode)
	assert.Equal(t, int64(506816*1024), device.RAMBytes)
	assert.Equal(t, ProtocolDynamic, device.Network.Protocol)
	assert.Equal(t, "ant-3", device.Network.Hostname)

	// Braiins ran first and declined; DragonMint never ran.
	assert.Contains(t, sess.ran, "cat /tmp/sysinfo/board_name")
	assert.NotContains(t, sess.ran, "cat /tmp/hwver")
}

func TestDragonMintProbe(t *testing.T) {
	outputs := baseOutputs()
	outputs["cat /tmp/hwver"] = "G19"
	outputs["cat /etc/hwrevision"] = "dm1-g19 g19.v1.0.2"
	outputs["cat /config/network/25-wired.network"] = "[Match]\nName=eth0\n[Network]\nDHCP=yes"
	outputs["hostname"] = "dm-7"
	outputs[cmdMemTotal] = "247004 kB"
	outputs["cat /etc/cgminer.conf"] = testCgminerConf
	sess := &fakeSession{outputs: outputs}

	device, err := Detect(context.Background(), sess, DefaultProbers())
	require.NoError(t, err)
	require.NotNil(t, device)

	assert.Equal(t, TypeDragonMint, device.Firmware)
	assert.Equal(t, "DragonMint", device.OS)
	assert.Equal(t, "G19 V1 0 2", device.Version)
	assert.Equal(t, "dm-7", device.Network.Hostname)
}

func TestDetectNoMatch(t *testing.T) {
	sess := &fakeSession{outputs: baseOutputs()}

	device, err := Detect(context.Background(), sess, DefaultProbers())
	require.NoError(t, err)
	assert.Nil(t, device)

	// Every identity probe ran, in chain order.
	assert.Equal(t, []string{
		"cat /tmp/sysinfo/board_name",
		"cat /usr/bin/ctrl_bd",
		"cat /tmp/hwver",
	}, sess.ran)
}

func TestDetectNetworkParseFailureDropsHost(t *testing.T) {
	outputs := braiinsOutputs()
	outputs[cmdUCINetworkLAN] = "ifname=eth0" // no proto key
	sess := &fakeSession{outputs: outputs}

	device, err := Detect(context.Background(), sess, DefaultProbers())
	assert.ErrorIs(t, err, ErrNetworkParse)
	assert.Nil(t, device)

	// A matched classifier that fails mid-assembly never falls through to
	// the next family.
	assert.NotContains(t, sess.ran, "cat /usr/bin/ctrl_bd")
}

func TestFetchPoolsEmptyConfig(t *testing.T) {
	sess := &fakeSession{outputs: map[string]string{}}

	pools, err := fetchPools(context.Background(), sess, "/etc/cgminer.conf")
	require.NoError(t, err)
	assert.Empty(t, pools)
}

func TestFetchPoolsMalformedConfig(t *testing.T) {
	sess := &fakeSession{outputs: map[string]string{
		"cat /etc/cgminer.conf": "{not json",
	}}

	_, err := fetchPools(context.Background(), sess, "/etc/cgminer.conf")
	assert.Error(t, err)
}
