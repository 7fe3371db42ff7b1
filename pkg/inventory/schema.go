package inventory

// Schema contains the SQLite inventory schema.
// MAC address is the unique device identifier; IPs can change with DHCP.
const Schema = `
CREATE TABLE IF NOT EXISTS devices (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    mac_address TEXT NOT NULL UNIQUE,
    ip_address TEXT NOT NULL,
    hostname TEXT,
    firmware TEXT NOT NULL,      -- 'braiins', 'antminer', 'dragonmint'
    os_name TEXT,
    version TEXT,
    hardware_id TEXT,
    mode TEXT,
    ram_bytes INTEGER,
    protocol TEXT,               -- 'dhcp' or 'static'
    note TEXT,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    last_seen_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_devices_ip ON devices(ip_address);
CREATE INDEX IF NOT EXISTS idx_devices_firmware ON devices(firmware);

CREATE TABLE IF NOT EXISTS device_pools (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    device_id INTEGER NOT NULL,
    pool_index INTEGER NOT NULL,
    url TEXT,
    user TEXT,
    FOREIGN KEY (device_id) REFERENCES devices(id) ON DELETE CASCADE,
    UNIQUE(device_id, pool_index)
);

CREATE INDEX IF NOT EXISTS idx_device_pools_device ON device_pools(device_id);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
`

// SchemaVersion is the current schema version.
const SchemaVersion = 1

// Migrations contains SQL migrations indexed by version.
var Migrations = map[int]string{
	1: Schema,
}
