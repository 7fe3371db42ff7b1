// Package credentials holds the password candidates tried when establishing
// sessions with candidate devices.
package credentials

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Wildcard is the table key whose passwords apply to every host. Wildcard
// candidates are tried after host-specific ones.
const Wildcard = "*"

// Password is a single authentication candidate. The zero value is the
// "no password" candidate, which requests a session without any password
// authentication at all and is distinct from the empty-string password.
type Password struct {
	value string
	set   bool
}

// Plain returns a password candidate with the given value. An empty value is
// a real candidate: the empty-string password.
func Plain(value string) Password {
	return Password{value: value, set: true}
}

// None returns the candidate that authenticates without a password.
func None() Password {
	return Password{}
}

// Value returns the password text. Meaningless when IsNone reports true.
func (p Password) Value() string { return p.value }

// IsNone reports whether this candidate carries no password at all.
func (p Password) IsNone() bool { return !p.set }

func (p Password) String() string {
	if p.IsNone() {
		return "<none>"
	}
	if p.value == "" {
		return "<empty>"
	}
	return strings.Repeat("*", len(p.value))
}

// Defaults returns the built-in wildcard candidates, in retry order.
func Defaults() []Password {
	return []Password{None(), Plain(""), Plain("admin"), Plain("123")}
}

// Table maps a host (or the wildcard) to an ordered list of password
// candidates. Lookup order for a host is host-specific entries in file
// order, then wildcard entries in file order; that order is the retry order.
type Table struct {
	entries map[string][]Password
}

// NewTable returns a table seeded with the built-in wildcard candidates.
func NewTable() *Table {
	return &Table{
		entries: map[string][]Password{
			Wildcard: Defaults(),
		},
	}
}

// Load returns a table with the built-in defaults plus the entries of the
// given credential file appended in file order. An empty path or a missing
// file yields just the defaults.
//
// File format, one entry per line: "host:password" for a host-specific
// candidate, or a bare "password" for a wildcard candidate. A line with no
// separator is a wildcard candidate whose password is the whole line. Blank
// lines are skipped.
func Load(path string) (*Table, error) {
	table := NewTable()
	if path == "" {
		return table, nil
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return table, nil
		}
		return nil, fmt.Errorf("open credential file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		host, password, found := strings.Cut(line, ":")
		if !found {
			table.Add(Wildcard, Plain(line))
			continue
		}
		table.Add(host, Plain(password))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read credential file: %w", err)
	}

	return table, nil
}

// Add appends a candidate for the given host (or Wildcard).
func (t *Table) Add(host string, password Password) {
	t.entries[host] = append(t.entries[host], password)
}

// Lookup returns the candidates to try for a host: host-specific entries
// first, then wildcard entries, preserving insertion order within each group.
func (t *Table) Lookup(host string) []Password {
	specific := t.entries[host]
	wildcard := t.entries[Wildcard]

	out := make([]Password, 0, len(specific)+len(wildcard))
	out = append(out, specific...)
	if host != Wildcard {
		out = append(out, wildcard...)
	}
	return out
}
