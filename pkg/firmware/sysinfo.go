package firmware

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

const cmdMemTotal = `grep MemTotal /proc/meminfo | awk '{print $2" "$3}'`

// fetchRAMBytes reads the device's total RAM from the memory-info query and
// converts the unit-suffixed value to raw bytes.
func fetchRAMBytes(ctx context.Context, sess Session) (int64, error) {
	out, err := sess.Run(ctx, cmdMemTotal)
	if err != nil {
		return 0, err
	}

	fields := strings.Fields(out)
	switch len(fields) {
	case 1:
		return ParseMemSize(fields[0], "")
	case 2:
		return ParseMemSize(fields[0], fields[1])
	default:
		return 0, fmt.Errorf("unexpected meminfo output %q", out)
	}
}

// cgminerConfig is the subset of a cgminer-style JSON configuration the
// scanner cares about.
type cgminerConfig struct {
	Pools []struct {
		URL  string `json:"url"`
		User string `json:"user"`
		Pass string `json:"pass"`
	} `json:"pools"`
}

// fetchPools reads and parses the miner configuration at path. An absent or
// empty file yields no pools; a malformed one is an error that drops the
// host.
func fetchPools(ctx context.Context, sess Session, path string) ([]PoolInfo, error) {
	raw, err := sess.Run(ctx, "cat "+path)
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return nil, nil
	}

	var config cgminerConfig
	if err := json.Unmarshal([]byte(raw), &config); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	pools := make([]PoolInfo, 0, len(config.Pools))
	for _, p := range config.Pools {
		pools = append(pools, PoolInfo{URL: p.URL, User: p.User, Password: p.Pass})
	}
	return pools, nil
}

// runFirst returns the trimmed output of the first command that produces
// any, or the empty string when none do.
func runFirst(ctx context.Context, sess Session, cmds ...string) (string, error) {
	for _, cmd := range cmds {
		out, err := sess.Run(ctx, cmd)
		if err != nil {
			return "", err
		}
		if out != "" {
			return out, nil
		}
	}
	return "", nil
}
