package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/bto/internal/ports/secondary"
)

// ListingRepository implements secondary.ListingRepository with SQLite.
// Assigned staff live in the listing_staff table and are replaced on every save.
type ListingRepository struct {
	db *sql.DB
}

// NewListingRepository creates a new SQLite listing repository.
func NewListingRepository(db *sql.DB) *ListingRepository {
	return &ListingRepository{db: db}
}

const listingColumns = `id, name, neighborhood, manager_id, visible, open_at, close_at,
	two_room_total, two_room_available, three_room_total, three_room_available,
	staff_slots_total, staff_slots_available, created_at, updated_at`

// Save inserts or updates a listing together with its staff assignments.
func (r *ListingRepository) Save(ctx context.Context, listing *secondary.ListingRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	createdAt, updatedAt := listing.CreatedAt, listing.UpdatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO listings (`+listingColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name, neighborhood = excluded.neighborhood, manager_id = excluded.manager_id,
			visible = excluded.visible, open_at = excluded.open_at, close_at = excluded.close_at,
			two_room_total = excluded.two_room_total, two_room_available = excluded.two_room_available,
			three_room_total = excluded.three_room_total, three_room_available = excluded.three_room_available,
			staff_slots_total = excluded.staff_slots_total, staff_slots_available = excluded.staff_slots_available,
			updated_at = excluded.updated_at`,
		listing.ID, listing.Name, listing.Neighborhood, listing.ManagerID, listing.Visible,
		listing.OpenAt, listing.CloseAt,
		listing.TwoRoomTotal, listing.TwoRoomAvailable, listing.ThreeRoomTotal, listing.ThreeRoomAvailable,
		listing.StaffSlotsTotal, listing.StaffSlotsAvailable, createdAt, updatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save listing: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM listing_staff WHERE listing_id = ?", listing.ID); err != nil {
		return fmt.Errorf("failed to clear listing staff: %w", err)
	}
	for _, staffID := range listing.StaffIDs {
		if _, err := tx.ExecContext(ctx, "INSERT INTO listing_staff (listing_id, staff_id) VALUES (?, ?)", listing.ID, staffID); err != nil {
			return fmt.Errorf("failed to assign staff %s: %w", staffID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit listing: %w", err)
	}
	return nil
}

// GetByID retrieves a listing by its ID.
func (r *ListingRepository) GetByID(ctx context.Context, id string) (*secondary.ListingRecord, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+listingColumns+" FROM listings WHERE id = ?", id)
	record, err := scanListing(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("listing %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}

	staff, err := r.staffByListing(ctx, id)
	if err != nil {
		return nil, err
	}
	record.StaffIDs = staff[id]
	return record, nil
}

// List retrieves all listings ordered by ID.
func (r *ListingRepository) List(ctx context.Context) ([]*secondary.ListingRecord, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+listingColumns+" FROM listings ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list listings: %w", err)
	}

	var listings []*secondary.ListingRecord
	for rows.Next() {
		record, err := scanListing(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan listing: %w", err)
		}
		listings = append(listings, record)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	staff, err := r.staffByListing(ctx, "")
	if err != nil {
		return nil, err
	}
	for _, l := range listings {
		l.StaffIDs = staff[l.ID]
	}
	return listings, nil
}

// staffByListing returns assigned staff IDs keyed by listing, for one
// listing or, when listingID is empty, for all.
func (r *ListingRepository) staffByListing(ctx context.Context, listingID string) (map[string][]string, error) {
	query := "SELECT listing_id, staff_id FROM listing_staff"
	args := []any{}
	if listingID != "" {
		query += " WHERE listing_id = ?"
		args = append(args, listingID)
	}
	query += " ORDER BY listing_id, staff_id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list listing staff: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]string)
	for rows.Next() {
		var lid, sid string
		if err := rows.Scan(&lid, &sid); err != nil {
			return nil, fmt.Errorf("failed to scan listing staff: %w", err)
		}
		out[lid] = append(out[lid], sid)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanListing(row rowScanner) (*secondary.ListingRecord, error) {
	record := &secondary.ListingRecord{}
	err := row.Scan(
		&record.ID, &record.Name, &record.Neighborhood, &record.ManagerID, &record.Visible,
		&record.OpenAt, &record.CloseAt,
		&record.TwoRoomTotal, &record.TwoRoomAvailable, &record.ThreeRoomTotal, &record.ThreeRoomAvailable,
		&record.StaffSlotsTotal, &record.StaffSlotsAvailable, &record.CreatedAt, &record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return record, nil
}

var _ secondary.ListingRepository = (*ListingRepository)(nil)
