package sqlite

import (
	"database/sql"
	"time"

	"github.com/example/bto/internal/ports/secondary"
)

// NewRepositories builds every SQLite repository over one connection pool.
func NewRepositories(db *sql.DB) secondary.Repositories {
	return secondary.Repositories{
		Users:         NewUserRepository(db),
		Listings:      NewListingRepository(db),
		Applications:  NewApplicationRepository(db),
		Registrations: NewRegistrationRepository(db),
		Withdrawals:   NewWithdrawalRepository(db),
		Units:         NewUnitRepository(db),
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timeFromNull(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
