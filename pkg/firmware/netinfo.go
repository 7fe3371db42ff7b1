package firmware

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNetworkParse indicates a device's network configuration was missing an
// expected key or was otherwise unreadable. It aborts classification of the
// host; it is never a fatal scan error.
var ErrNetworkParse = errors.New("network configuration parse failed")

const (
	cmdMACAddress     = "cat /sys/class/net/eth0/address"
	cmdDefaultRouteIP = "/sbin/ip route get 1 | awk '{print $NF;exit}'"
	cmdKernelHostname = "cat /proc/sys/kernel/hostname"
	cmdUCINetworkLAN  = `uci show network.lan | sed "1d;s/network.lan.//;s/'//g"`
)

// baseNetwork extracts the fields common to every family: the LAN interface
// MAC and the first-hop route source IP.
func baseNetwork(ctx context.Context, sess Session) (NetworkInfo, error) {
	mac, err := sess.Run(ctx, cmdMACAddress)
	if err != nil {
		return NetworkInfo{}, err
	}
	ip, err := sess.Run(ctx, cmdDefaultRouteIP)
	if err != nil {
		return NetworkInfo{}, err
	}
	return NetworkInfo{MAC: mac, IP: ip}, nil
}

// genericNetwork leaves protocol and hostname unset.
func genericNetwork(ctx context.Context, sess Session) (NetworkInfo, error) {
	return baseNetwork(ctx, sess)
}

// openWrtNetwork reads the UCI dump of the LAN interface. The proto key is
// required; on a dynamic interface the hostname comes from the config or,
// absent there, from the live kernel hostname.
func openWrtNetwork(ctx context.Context, sess Session) (NetworkInfo, error) {
	info, err := baseNetwork(ctx, sess)
	if err != nil {
		return NetworkInfo{}, err
	}

	raw, err := sess.Run(ctx, cmdUCINetworkLAN)
	if err != nil {
		return NetworkInfo{}, err
	}
	config, err := parseKeyValues(raw, false)
	if err != nil {
		return NetworkInfo{}, err
	}

	proto, ok := config["proto"]
	if !ok {
		return NetworkInfo{}, fmt.Errorf("%w: uci dump has no proto key", ErrNetworkParse)
	}
	switch proto {
	case "dhcp":
		info.Protocol = ProtocolDynamic
	case "static":
		info.Protocol = ProtocolStatic
	}

	if info.Protocol == ProtocolDynamic {
		info.Hostname = config["hostname"]
		if info.Hostname == "" {
			info.Hostname, err = sess.Run(ctx, cmdKernelHostname)
			if err != nil {
				return NetworkInfo{}, err
			}
		}
	}

	return info, nil
}

// antminerNetwork reads the flat key=value /config/network.conf. dhcp=true
// maps to dynamic with the hostname from the file; anything else is static
// with no hostname.
func antminerNetwork(ctx context.Context, sess Session) (NetworkInfo, error) {
	info, err := baseNetwork(ctx, sess)
	if err != nil {
		return NetworkInfo{}, err
	}

	raw, err := sess.Run(ctx, "cat /config/network.conf")
	if err != nil {
		return NetworkInfo{}, err
	}
	config, err := parseKeyValues(raw, false)
	if err != nil {
		return NetworkInfo{}, err
	}

	dhcp, ok := config["dhcp"]
	if !ok {
		return NetworkInfo{}, fmt.Errorf("%w: network.conf has no dhcp key", ErrNetworkParse)
	}

	if dhcp == "true" {
		hostname, ok := config["hostname"]
		if !ok {
			return NetworkInfo{}, fmt.Errorf("%w: network.conf has no hostname key", ErrNetworkParse)
		}
		info.Protocol = ProtocolDynamic
		info.Hostname = hostname
		return info, nil
	}

	info.Protocol = ProtocolStatic
	return info, nil
}

// dragonMintNetwork reads the INI-like 25-wired.network file, ignoring
// section header lines. DHCP=yes maps to dynamic with the hostname queried
// live; anything else is static.
func dragonMintNetwork(ctx context.Context, sess Session) (NetworkInfo, error) {
	info, err := baseNetwork(ctx, sess)
	if err != nil {
		return NetworkInfo{}, err
	}

	raw, err := sess.Run(ctx, "cat /config/network/25-wired.network")
	if err != nil {
		return NetworkInfo{}, err
	}
	config, err := parseKeyValues(raw, true)
	if err != nil {
		return NetworkInfo{}, err
	}

	if config["DHCP"] == "yes" {
		info.Protocol = ProtocolDynamic
		info.Hostname, err = sess.Run(ctx, "hostname")
		if err != nil {
			return NetworkInfo{}, err
		}
		return info, nil
	}

	info.Protocol = ProtocolStatic
	return info, nil
}

// parseKeyValues splits a key=value dump into a map. Blank lines are
// skipped; section header lines ("[...]") are skipped when ignoreSections is
// set. A non-empty line without a separator is a parse failure.
func parseKeyValues(raw string, ignoreSections bool) (map[string]string, error) {
	config := make(map[string]string)

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if ignoreSections && strings.HasPrefix(line, "[") {
			continue
		}

		key, value, found := strings.Cut(line, "=")
		if !found {
			return nil, fmt.Errorf("%w: line %q has no separator", ErrNetworkParse, line)
		}
		config[key] = value
	}

	return config, nil
}
