package db

import (
	"database/sql"
	"fmt"
)

// SchemaVersion is the version recorded for databases created from SchemaSQL.
const SchemaVersion = 1

// SchemaSQL is the complete schema for the allocation store.
//
// This is the SINGLE SOURCE OF TRUTH for the database schema. Repository
// tests build their in-memory databases from GetSchemaSQL(), so a column
// referenced by repository code but missing here fails with "no such column".
//
// Available counts on listings are a snapshot; on load they are recomputed
// from held reservations and approved registrations.
const SchemaSQL = `
-- Identity profiles (requesters, staff, managers)
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	age INTEGER NOT NULL CHECK(age >= 0),
	marital_status TEXT NOT NULL CHECK(marital_status IN ('single', 'married')),
	role TEXT NOT NULL CHECK(role IN ('applicant', 'officer', 'manager')),
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Listings (housing projects accepting applications)
CREATE TABLE IF NOT EXISTS listings (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	neighborhood TEXT NOT NULL,
	manager_id TEXT NOT NULL,
	visible INTEGER NOT NULL DEFAULT 0,
	open_at DATETIME NOT NULL,
	close_at DATETIME NOT NULL,
	two_room_total INTEGER NOT NULL DEFAULT 0 CHECK(two_room_total >= 0),
	two_room_available INTEGER NOT NULL DEFAULT 0 CHECK(two_room_available >= 0),
	three_room_total INTEGER NOT NULL DEFAULT 0 CHECK(three_room_total >= 0),
	three_room_available INTEGER NOT NULL DEFAULT 0 CHECK(three_room_available >= 0),
	staff_slots_total INTEGER NOT NULL CHECK(staff_slots_total BETWEEN 1 AND 10),
	staff_slots_available INTEGER NOT NULL CHECK(staff_slots_available >= 0),
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (manager_id) REFERENCES users(id)
);

CREATE INDEX IF NOT EXISTS idx_listings_manager ON listings(manager_id);

-- Staff assigned to a listing through an approved registration
CREATE TABLE IF NOT EXISTS listing_staff (
	listing_id TEXT NOT NULL,
	staff_id TEXT NOT NULL,
	PRIMARY KEY (listing_id, staff_id),
	FOREIGN KEY (listing_id) REFERENCES listings(id) ON DELETE CASCADE,
	FOREIGN KEY (staff_id) REFERENCES users(id)
);

-- Applications (one requester's request for one category of one listing)
CREATE TABLE IF NOT EXISTS applications (
	id TEXT PRIMARY KEY,
	requester_id TEXT NOT NULL,
	listing_id TEXT NOT NULL,
	category TEXT NOT NULL CHECK(category IN ('2-room', '3-room')),
	status TEXT NOT NULL CHECK(status IN ('PENDING', 'SUCCESSFUL', 'UNSUCCESSFUL', 'BOOKED', 'WITHDRAWN')) DEFAULT 'PENDING',
	reserved_unit_id TEXT,
	bound_unit_id TEXT,
	submitted_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (requester_id) REFERENCES users(id),
	FOREIGN KEY (listing_id) REFERENCES listings(id)
);

CREATE INDEX IF NOT EXISTS idx_applications_requester ON applications(requester_id);
CREATE INDEX IF NOT EXISTS idx_applications_listing ON applications(listing_id);
CREATE INDEX IF NOT EXISTS idx_applications_status ON applications(status);

-- Staff registrations against a listing's officer slots
CREATE TABLE IF NOT EXISTS registrations (
	id TEXT PRIMARY KEY,
	staff_id TEXT NOT NULL,
	listing_id TEXT NOT NULL,
	status TEXT NOT NULL CHECK(status IN ('PENDING', 'APPROVED', 'REJECTED')) DEFAULT 'PENDING',
	requested_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	decided_at DATETIME,
	decided_by TEXT,
	FOREIGN KEY (staff_id) REFERENCES users(id),
	FOREIGN KEY (listing_id) REFERENCES listings(id)
);

CREATE INDEX IF NOT EXISTS idx_registrations_listing ON registrations(listing_id);
CREATE INDEX IF NOT EXISTS idx_registrations_staff ON registrations(staff_id);

-- Withdrawal requests
CREATE TABLE IF NOT EXISTS withdrawals (
	id TEXT PRIMARY KEY,
	application_id TEXT NOT NULL,
	reason TEXT NOT NULL,
	status TEXT NOT NULL CHECK(status IN ('PENDING', 'APPROVED', 'REJECTED')) DEFAULT 'PENDING',
	requested_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	decided_at DATETIME,
	decided_by TEXT,
	FOREIGN KEY (application_id) REFERENCES applications(id)
);

CREATE INDEX IF NOT EXISTS idx_withdrawals_application ON withdrawals(application_id);

-- Units bound to an application at booking time
CREATE TABLE IF NOT EXISTS units (
	id TEXT PRIMARY KEY,
	listing_id TEXT NOT NULL,
	category TEXT NOT NULL CHECK(category IN ('2-room', '3-room')),
	application_id TEXT NOT NULL,
	booked_at DATETIME NOT NULL,
	released_at DATETIME,
	FOREIGN KEY (listing_id) REFERENCES listings(id),
	FOREIGN KEY (application_id) REFERENCES applications(id)
);

CREATE INDEX IF NOT EXISTS idx_units_listing ON units(listing_id);
`

// InitSchema creates the schema on a fresh database and records its version.
// An existing database with a newer version is rejected.
func InitSchema(database *sql.DB) error {
	if _, err := database.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return err
	}

	var current int
	if err := database.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&current); err != nil {
		return err
	}
	if current > SchemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", current, SchemaVersion)
	}

	if _, err := database.Exec(SchemaSQL); err != nil {
		return err
	}
	if current < SchemaVersion {
		if _, err := database.Exec("INSERT INTO schema_version (version) VALUES (?)", SchemaVersion); err != nil {
			return err
		}
	}
	return nil
}

// GetSchemaSQL returns the authoritative schema SQL for use by tests.
// Tests should use this instead of hardcoding their own schema to prevent drift.
func GetSchemaSQL() string {
	return SchemaSQL
}
