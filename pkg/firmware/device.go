// Package firmware classifies mining devices over an established remote
// session and extracts their device and network metadata. Classifiers are
// tried in a fixed priority order; the first family whose identity probe
// matches assembles the full record.
package firmware

import (
	"fmt"
	"strconv"
	"strings"
)

// Type identifies a firmware family.
type Type string

const (
	TypeBraiins    Type = "braiins"
	TypeAntminer   Type = "antminer"
	TypeDragonMint Type = "dragonmint"
)

// InfoUnknown fills fields whose source file is absent on the device.
const InfoUnknown = "unknown"

// Protocol is the addressing protocol of a device's LAN interface.
type Protocol string

const (
	ProtocolDynamic Protocol = "dhcp"
	ProtocolStatic  Protocol = "static"
)

// NetworkInfo is the normalized network metadata of one device. Populated
// only by a successful network probe and owned by the DeviceInfo that
// requested it.
type NetworkInfo struct {
	MAC      string
	IP       string
	Protocol Protocol
	Hostname string
}

// PoolInfo is one mining-pool credential entry from the device's local
// configuration. Read-only snapshot.
type PoolInfo struct {
	URL      string
	User     string
	Password string
}

// DeviceInfo is the full record of a classified device. It is only ever
// constructed by a successful classification match, so Network is always
// populated.
type DeviceInfo struct {
	// OS is the firmware family display name (e.g. "bOS").
	OS string

	// Version is the family-specific firmware version string.
	Version string

	// HWID is the hardware identifier, when the family exposes one.
	HWID string

	// Mode is the operating mode (e.g. "nand", "sd", "recovery"), when known.
	Mode string

	// RAMBytes is the total RAM in bytes, 0 when unknown.
	RAMBytes int64

	// Pools are the configured mining pools, possibly empty.
	Pools []PoolInfo

	// Note is a free-text operator note stored on the device.
	Note string

	// Network is the extracted network metadata.
	Network NetworkInfo

	// Firmware is the matched family.
	Firmware Type
}

// Short renders the one-line scan output:
//
//	MAC (IP) | OS VERSION <hwid> [mode] {RAM} dhcp(hostname) @poolUser # note
//
// Optional fields are omitted when their source value is absent; only the
// first pool's user is shown.
func (d *DeviceInfo) Short() string {
	parts := []string{d.OS, d.Version}

	if d.HWID != "" {
		parts = append(parts, fmt.Sprintf("<%s>", d.HWID))
	}
	if d.Mode != "" {
		parts = append(parts, fmt.Sprintf("[%s]", d.Mode))
	}
	if d.RAMBytes > 0 {
		parts = append(parts, fmt.Sprintf("{%s RAM}", FormatByteSize(d.RAMBytes)))
	}
	if d.Network.Protocol == ProtocolDynamic {
		parts = append(parts, fmt.Sprintf("%s(%s)", d.Network.Protocol, d.Network.Hostname))
	}
	if len(d.Pools) > 0 {
		parts = append(parts, "@"+d.Pools[0].User)
	}
	if d.Note != "" {
		parts = append(parts, "# "+d.Note)
	}

	return fmt.Sprintf("%s (%s) | %s", d.Network.MAC, d.Network.IP, strings.Join(parts, " "))
}

// memUnits maps meminfo-style unit suffixes to binary multiples.
var memUnits = map[string]int64{
	"B":  1,
	"kB": 1024,
	"mB": 1024 * 1024,
}

// ParseMemSize converts a "<integer> <unit>" memory-info value to raw bytes.
// An empty unit means bytes.
func ParseMemSize(value, unit string) (int64, error) {
	if unit == "" {
		unit = "B"
	}
	scale, ok := memUnits[unit]
	if !ok {
		return 0, fmt.Errorf("unknown memory unit %q", unit)
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse memory size %q: %w", value, err)
	}
	return n * scale, nil
}

// FormatByteSize renders a byte count in the largest binary unit it divides
// evenly into, up to GiB.
func FormatByteSize(n int64) string {
	unit := "GiB"
	for _, u := range []string{"B", "KiB", "MiB"} {
		if n%1024 != 0 {
			unit = u
			break
		}
		n /= 1024
	}
	return fmt.Sprintf("%d %s", n, unit)
}
