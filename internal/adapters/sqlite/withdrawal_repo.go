package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/bto/internal/ports/secondary"
)

// WithdrawalRepository implements secondary.WithdrawalRepository with SQLite.
type WithdrawalRepository struct {
	db *sql.DB
}

// NewWithdrawalRepository creates a new SQLite withdrawal repository.
func NewWithdrawalRepository(db *sql.DB) *WithdrawalRepository {
	return &WithdrawalRepository{db: db}
}

const withdrawalColumns = "id, application_id, reason, status, requested_at, decided_at, decided_by"

// Save inserts or updates a withdrawal request.
func (r *WithdrawalRepository) Save(ctx context.Context, withdrawal *secondary.WithdrawalRecord) error {
	requestedAt := withdrawal.RequestedAt
	if requestedAt.IsZero() {
		requestedAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO withdrawals (`+withdrawalColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status, decided_at = excluded.decided_at, decided_by = excluded.decided_by`,
		withdrawal.ID, withdrawal.ApplicationID, withdrawal.Reason, withdrawal.Status, requestedAt,
		nullTime(withdrawal.DecidedAt), nullString(withdrawal.DecidedBy),
	)
	if err != nil {
		return fmt.Errorf("failed to save withdrawal: %w", err)
	}
	return nil
}

// GetByID retrieves a withdrawal request by its ID.
func (r *WithdrawalRepository) GetByID(ctx context.Context, id string) (*secondary.WithdrawalRecord, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+withdrawalColumns+" FROM withdrawals WHERE id = ?", id)
	record, err := scanWithdrawal(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("withdrawal %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get withdrawal: %w", err)
	}
	return record, nil
}

// List retrieves withdrawal requests matching the given filters, ordered by ID.
func (r *WithdrawalRepository) List(ctx context.Context, filters secondary.WithdrawalFilters) ([]*secondary.WithdrawalRecord, error) {
	query := "SELECT " + withdrawalColumns + " FROM withdrawals WHERE 1=1"
	args := []any{}

	if filters.ApplicationID != "" {
		query += " AND application_id = ?"
		args = append(args, filters.ApplicationID)
	}
	if filters.Status != "" {
		query += " AND status = ?"
		args = append(args, filters.Status)
	}
	query += " ORDER BY id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list withdrawals: %w", err)
	}
	defer rows.Close()

	var withdrawals []*secondary.WithdrawalRecord
	for rows.Next() {
		record, err := scanWithdrawal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan withdrawal: %w", err)
		}
		withdrawals = append(withdrawals, record)
	}
	return withdrawals, rows.Err()
}

func scanWithdrawal(row rowScanner) (*secondary.WithdrawalRecord, error) {
	var (
		decidedAt sql.NullTime
		decidedBy sql.NullString
	)
	record := &secondary.WithdrawalRecord{}
	err := row.Scan(&record.ID, &record.ApplicationID, &record.Reason, &record.Status, &record.RequestedAt, &decidedAt, &decidedBy)
	if err != nil {
		return nil, err
	}
	record.DecidedAt = timeFromNull(decidedAt)
	record.DecidedBy = decidedBy.String
	return record, nil
}

var _ secondary.WithdrawalRepository = (*WithdrawalRepository)(nil)
