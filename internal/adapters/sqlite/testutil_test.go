// Package sqlite_test contains integration tests for SQLite repositories.
//
// # Schema Protection
//
// This file is the SINGLE POINT where the database schema is loaded for tests.
// All test setup functions use db.GetSchemaSQL() to ensure tests run against
// the authoritative schema, preventing drift between test and production.
//
// DO NOT hardcode CREATE TABLE statements in test files. Instead, use
// setupTestDB() and the seed* helpers.
package sqlite_test

import (
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/example/bto/internal/db"
)

// setupTestDB creates an in-memory database with the authoritative schema.
// The pool is pinned to one connection so every statement sees the same
// in-memory database.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	testDB, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	testDB.SetMaxOpenConns(1)

	_, err = testDB.Exec(db.GetSchemaSQL())
	if err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		testDB.Close()
	})

	return testDB
}

// seedUser inserts a test user and returns its ID.
func seedUser(t *testing.T, db *sql.DB, id, maritalStatus, role string, age int) string {
	t.Helper()
	_, err := db.Exec("INSERT INTO users (id, name, age, marital_status, role) VALUES (?, ?, ?, ?, ?)",
		id, "User "+id, age, maritalStatus, role)
	if err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return id
}

// seedListing inserts a test listing managed by managerID and returns its ID.
func seedListing(t *testing.T, db *sql.DB, id, managerID string) string {
	t.Helper()
	_, err := db.Exec(`INSERT INTO listings (id, name, neighborhood, manager_id, visible, open_at, close_at,
		two_room_total, two_room_available, three_room_total, three_room_available, staff_slots_total, staff_slots_available)
		VALUES (?, ?, 'Tampines', ?, 1, ?, ?, 2, 2, 1, 1, 3, 3)`,
		id, "Listing "+id, managerID, day(1), day(30))
	if err != nil {
		t.Fatalf("failed to seed listing: %v", err)
	}
	return id
}

// seedApplication inserts a PENDING 2-room application and returns its ID.
func seedApplication(t *testing.T, db *sql.DB, id, requesterID, listingID string) string {
	t.Helper()
	_, err := db.Exec("INSERT INTO applications (id, requester_id, listing_id, category, status) VALUES (?, ?, ?, '2-room', 'PENDING')",
		id, requesterID, listingID)
	if err != nil {
		t.Fatalf("failed to seed application: %v", err)
	}
	return id
}

func day(n int) time.Time {
	return time.Date(2026, time.January, n, 0, 0, 0, 0, time.UTC)
}
