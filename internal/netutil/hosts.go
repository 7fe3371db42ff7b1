// Package netutil provides network utilities for host expansion and port probing.
package netutil

import (
	"encoding/binary"
	"errors"
	"fmt"
	"iter"
	"net"
	"strings"
)

// ErrInvalidHostSpec indicates a host token that is neither a hostname nor a
// valid CIDR network literal.
var ErrInvalidHostSpec = errors.New("invalid host specification")

// hostSpec is one validated token: either a literal hostname or a CIDR block.
type hostSpec struct {
	literal string
	network *net.IPNet
}

// ExpandHosts turns a mixed list of literal hostnames and CIDR literals into
// a single lazy sequence of target addresses, preserving token order. A
// literal expands to itself; a CIDR block expands to its usable host
// addresses in ascending order, excluding the network and broadcast
// addresses. The sequence is finite and single-use.
//
// Tokens containing "/" must parse as CIDR; anything else is taken as a
// literal hostname. Validation happens up front so a bad token fails the
// whole run before any host is contacted.
func ExpandHosts(tokens []string) (iter.Seq[string], error) {
	specs := make([]hostSpec, 0, len(tokens))

	for _, token := range tokens {
		token = strings.TrimSpace(token)
		if token == "" {
			return nil, fmt.Errorf("%w: empty token", ErrInvalidHostSpec)
		}

		if strings.Contains(token, "/") {
			_, ipnet, err := net.ParseCIDR(token)
			if err != nil {
				return nil, fmt.Errorf("%w: %q is not a CIDR literal", ErrInvalidHostSpec, token)
			}
			specs = append(specs, hostSpec{network: ipnet})
			continue
		}

		specs = append(specs, hostSpec{literal: token})
	}

	return func(yield func(string) bool) {
		for _, spec := range specs {
			if spec.network == nil {
				if !yield(spec.literal) {
					return
				}
				continue
			}
			if !yieldNetworkHosts(spec.network, yield) {
				return
			}
		}
	}, nil
}

// yieldNetworkHosts emits the usable host addresses of a block in ascending
// order. Blocks with at most two addresses (/31, /32) are emitted as-is.
func yieldNetworkHosts(ipnet *net.IPNet, yield func(string) bool) bool {
	first := ipnet.IP.Mask(ipnet.Mask).To4()
	if first == nil {
		// IPv6 blocks are enumerated verbatim without host trimming.
		for ip := cloneIP(ipnet.IP.Mask(ipnet.Mask)); ipnet.Contains(ip); incIP(ip) {
			if !yield(ip.String()) {
				return false
			}
		}
		return true
	}

	ones, bits := ipnet.Mask.Size()
	total := uint32(1) << (bits - ones)
	start := binary.BigEndian.Uint32(first)

	if total <= 2 {
		for i := uint32(0); i < total; i++ {
			if !yield(uint32ToIP(start + i).String()) {
				return false
			}
		}
		return true
	}

	// Skip network (first) and broadcast (last) addresses.
	for i := uint32(1); i < total-1; i++ {
		if !yield(uint32ToIP(start + i).String()) {
			return false
		}
	}
	return true
}

// incIP increments an IP address by one.
func incIP(ip net.IP) {
	for j := len(ip) - 1; j >= 0; j-- {
		ip[j]++
		if ip[j] > 0 {
			break
		}
	}
}

func cloneIP(ip net.IP) net.IP {
	out := make(net.IP, len(ip))
	copy(out, ip)
	return out
}

// uint32ToIP converts a uint32 to an IPv4 address.
func uint32ToIP(n uint32) net.IP {
	ip := make(net.IP, 4)
	binary.BigEndian.PutUint32(ip, n)
	return ip
}
