// Package inventory persists scan results to SQLite so that fleet state
// survives across scan runs. Devices are keyed by MAC address.
package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/minefleet/minerscout/pkg/firmware"
)

// Device is one inventory row.
type Device struct {
	ID         int64
	MAC        string
	IP         string
	Hostname   string
	Firmware   string
	OS         string
	Version    string
	HardwareID string
	Mode       string
	RAMBytes   int64
	Protocol   string
	Note       string
	Pools      []firmware.PoolInfo
	CreatedAt  time.Time
	UpdatedAt  time.Time
	LastSeenAt time.Time
}

// Store records discovered devices in a SQLite database.
type Store struct {
	db *sql.DB
}

// Open creates a store backed by the given database file. The path can be
// ":memory:" for an in-memory database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open inventory database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate inventory database: %w", err)
	}

	return s, nil
}

// migrate runs database migrations.
func (s *Store) migrate() error {
	var currentVersion int
	err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&currentVersion)
	if err != nil {
		// Table doesn't exist, run initial schema
		if _, err := s.db.Exec(Schema); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
		_, err = s.db.Exec("INSERT INTO schema_version (version) VALUES (?)", SchemaVersion)
		return err
	}

	for v := currentVersion + 1; v <= SchemaVersion; v++ {
		migration, ok := Migrations[v]
		if !ok {
			continue
		}
		if _, err := s.db.Exec(migration); err != nil {
			return fmt.Errorf("run migration %d: %w", v, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_version (version) VALUES (?)", v); err != nil {
			return fmt.Errorf("record migration %d: %w", v, err)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record upserts a classified device by MAC address, replacing its pool
// rows. Re-seeing a device refreshes every mutable column and bumps
// last_seen_at while preserving created_at.
func (s *Store) Record(ctx context.Context, device *firmware.DeviceInfo) error {
	now := time.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO devices (mac_address, ip_address, hostname, firmware, os_name,
			version, hardware_id, mode, ram_bytes, protocol, note,
			created_at, updated_at, last_seen_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(mac_address) DO UPDATE SET
			ip_address = excluded.ip_address, hostname = excluded.hostname,
			firmware = excluded.firmware, os_name = excluded.os_name,
			version = excluded.version, hardware_id = excluded.hardware_id,
			mode = excluded.mode, ram_bytes = excluded.ram_bytes,
			protocol = excluded.protocol, note = excluded.note,
			updated_at = excluded.updated_at, last_seen_at = excluded.last_seen_at`,
		device.Network.MAC, device.Network.IP, device.Network.Hostname,
		string(device.Firmware), device.OS, device.Version, device.HWID,
		device.Mode, device.RAMBytes, string(device.Network.Protocol),
		device.Note, now, now, now)
	if err != nil {
		return err
	}

	// LastInsertId is unreliable on the conflict-update path; look the
	// row up by its key instead.
	var deviceID int64
	err = tx.QueryRowContext(ctx,
		"SELECT id FROM devices WHERE mac_address = ?", device.Network.MAC,
	).Scan(&deviceID)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM device_pools WHERE device_id = ?", deviceID); err != nil {
		return err
	}
	for i, pool := range device.Pools {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO device_pools (device_id, pool_index, url, user)
			VALUES (?, ?, ?, ?)`,
			deviceID, i, pool.URL, pool.User); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetByMAC returns the device with the given MAC address, or nil when the
// inventory has never seen it.
func (s *Store) GetByMAC(ctx context.Context, mac string) (*Device, error) {
	d := &Device{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, mac_address, ip_address, hostname, firmware, os_name,
			version, hardware_id, mode, ram_bytes, protocol, note,
			created_at, updated_at, last_seen_at
		FROM devices WHERE mac_address = ?`, mac).Scan(
		&d.ID, &d.MAC, &d.IP, &d.Hostname, &d.Firmware, &d.OS,
		&d.Version, &d.HardwareID, &d.Mode, &d.RAMBytes, &d.Protocol, &d.Note,
		&d.CreatedAt, &d.UpdatedAt, &d.LastSeenAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	d.Pools, err = s.devicePools(ctx, d.ID)
	return d, err
}

// List returns every inventoried device, most recently seen first.
func (s *Store) List(ctx context.Context) ([]*Device, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, mac_address, ip_address, hostname, firmware, os_name,
			version, hardware_id, mode, ram_bytes, protocol, note,
			created_at, updated_at, last_seen_at
		FROM devices ORDER BY last_seen_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var devices []*Device
	for rows.Next() {
		d := &Device{}
		if err := rows.Scan(
			&d.ID, &d.MAC, &d.IP, &d.Hostname, &d.Firmware, &d.OS,
			&d.Version, &d.HardwareID, &d.Mode, &d.RAMBytes, &d.Protocol, &d.Note,
			&d.CreatedAt, &d.UpdatedAt, &d.LastSeenAt); err != nil {
			return nil, err
		}
		devices = append(devices, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, d := range devices {
		if d.Pools, err = s.devicePools(ctx, d.ID); err != nil {
			return nil, err
		}
	}
	return devices, nil
}

func (s *Store) devicePools(ctx context.Context, deviceID int64) ([]firmware.PoolInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT url, user FROM device_pools
		WHERE device_id = ? ORDER BY pool_index`, deviceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pools []firmware.PoolInfo
	for rows.Next() {
		var p firmware.PoolInfo
		if err := rows.Scan(&p.URL, &p.User); err != nil {
			return nil, err
		}
		pools = append(pools, p)
	}
	return pools, rows.Err()
}
