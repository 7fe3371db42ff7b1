package inventory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minefleet/minerscout/pkg/firmware"
)

func testDevice() *firmware.DeviceInfo {
	return &firmware.DeviceInfo{
		OS:       "bOS",
		Version:  "am1-s9_2019-01-18",
		HWID:     "abcdef",
		Mode:     "nand",
		RAMBytes: 1073741824,
		Pools: []firmware.PoolInfo{
			{URL: "stratum+tcp://pool.example:3333", User: "worker.1"},
			{URL: "stratum+tcp://backup.example:3333", User: "worker.2"},
		},
		Note:     "rack 4",
		Firmware: firmware.TypeBraiins,
		Network: firmware.NetworkInfo{
			MAC:      "00:11:22:33:44:55",
			IP:       "10.0.0.8",
			Protocol: firmware.ProtocolDynamic,
			Hostname: "miner-8",
		},
	}
}

func openTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRecordAndGetByMAC(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Record(ctx, testDevice()))

	got, err := store.GetByMAC(ctx, "00:11:22:33:44:55")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, "10.0.0.8", got.IP)
	assert.Equal(t, "miner-8", got.Hostname)
	assert.Equal(t, "braiins", got.Firmware)
	assert.Equal(t, "bOS", got.OS)
	assert.Equal(t, int64(1073741824), got.RAMBytes)
	assert.Equal(t, "dhcp", got.Protocol)
	require.Len(t, got.Pools, 2)
	assert.Equal(t, "worker.1", got.Pools[0].User)
}

func TestRecordUpsertsByMAC(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Record(ctx, testDevice()))

	// Same MAC reappears at a new address with one pool.
	updated := testDevice()
	updated.Network.IP = "10.0.0.42"
	updated.Pools = updated.Pools[:1]
	require.NoError(t, store.Record(ctx, updated))

	devices, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, devices, 1)

	assert.Equal(t, "10.0.0.42", devices[0].IP)
	assert.Len(t, devices[0].Pools, 1)
	assert.False(t, devices[0].LastSeenAt.Before(devices[0].CreatedAt))
}

func TestGetByMACUnknown(t *testing.T) {
	store := openTestStore(t)

	got, err := store.GetByMAC(context.Background(), "ff:ff:ff:ff:ff:ff")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestListOrdersByLastSeen(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	first := testDevice()
	require.NoError(t, store.Record(ctx, first))

	second := testDevice()
	second.Network.MAC = "aa:bb:cc:dd:ee:ff"
	second.Network.IP = "10.0.0.9"
	require.NoError(t, store.Record(ctx, second))

	devices, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, devices, 2)
}
