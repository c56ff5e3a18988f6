// Package secondary defines the secondary ports (driven adapters) for the application.
// These are the interfaces through which the application drives external systems.
package secondary

import (
	"context"
	"time"
)

// Repositories bundles every repository the allocation engine loads from and
// writes through to.
type Repositories struct {
	Users         UserRepository
	Listings      ListingRepository
	Applications  ApplicationRepository
	Registrations RegistrationRepository
	Withdrawals   WithdrawalRepository
	Units         UnitRepository
}

// UserRepository defines the secondary port for identity profiles.
type UserRepository interface {
	// Save inserts or updates a user.
	Save(ctx context.Context, user *UserRecord) error

	// GetByID retrieves a user by its natural key.
	GetByID(ctx context.Context, id string) (*UserRecord, error)

	// List retrieves users matching the given filters.
	List(ctx context.Context, filters UserFilters) ([]*UserRecord, error)
}

// UserRecord represents a requester, staff member or manager profile.
type UserRecord struct {
	ID            string
	Name          string
	Age           int
	MaritalStatus string // single, married
	Role          string // applicant, officer, manager
	CreatedAt     time.Time
}

// UserFilters contains filter options for querying users.
type UserFilters struct {
	Role string
}

// ListingRepository defines the secondary port for listing persistence.
type ListingRepository interface {
	// Save inserts or updates a listing together with its staff assignments.
	Save(ctx context.Context, listing *ListingRecord) error

	// GetByID retrieves a listing by its ID.
	GetByID(ctx context.Context, id string) (*ListingRecord, error)

	// List retrieves all listings ordered by ID.
	List(ctx context.Context) ([]*ListingRecord, error)
}

// ListingRecord represents a listing as stored in persistence.
type ListingRecord struct {
	ID                  string
	Name                string
	Neighborhood        string
	ManagerID           string
	Visible             bool
	OpenAt              time.Time
	CloseAt             time.Time
	TwoRoomTotal        int
	TwoRoomAvailable    int
	ThreeRoomTotal      int
	ThreeRoomAvailable  int
	StaffSlotsTotal     int
	StaffSlotsAvailable int
	StaffIDs            []string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// ApplicationRepository defines the secondary port for application persistence.
type ApplicationRepository interface {
	// Save inserts or updates an application.
	Save(ctx context.Context, application *ApplicationRecord) error

	// GetByID retrieves an application by its ID.
	GetByID(ctx context.Context, id string) (*ApplicationRecord, error)

	// List retrieves applications matching the given filters.
	List(ctx context.Context, filters ApplicationFilters) ([]*ApplicationRecord, error)
}

// ApplicationRecord represents an application as stored in persistence.
type ApplicationRecord struct {
	ID             string
	RequesterID    string
	ListingID      string
	Category       string
	Status         string // PENDING, SUCCESSFUL, UNSUCCESSFUL, BOOKED, WITHDRAWN
	ReservedUnitID string // Empty string means null
	BoundUnitID    string // Empty string means null
	SubmittedAt    time.Time
	UpdatedAt      time.Time
}

// ApplicationFilters contains filter options for querying applications.
type ApplicationFilters struct {
	ListingID   string
	RequesterID string
	Status      string
}

// RegistrationRepository defines the secondary port for staff registration persistence.
type RegistrationRepository interface {
	// Save inserts or updates a registration.
	Save(ctx context.Context, registration *RegistrationRecord) error

	// GetByID retrieves a registration by its ID.
	GetByID(ctx context.Context, id string) (*RegistrationRecord, error)

	// List retrieves registrations matching the given filters.
	List(ctx context.Context, filters RegistrationFilters) ([]*RegistrationRecord, error)
}

// RegistrationRecord represents a staff registration as stored in persistence.
type RegistrationRecord struct {
	ID          string
	StaffID     string
	ListingID   string
	Status      string // PENDING, APPROVED, REJECTED
	RequestedAt time.Time
	DecidedAt   *time.Time
	DecidedBy   string // Empty string means null
}

// RegistrationFilters contains filter options for querying registrations.
type RegistrationFilters struct {
	ListingID string
	StaffID   string
	Status    string
}

// WithdrawalRepository defines the secondary port for withdrawal request persistence.
type WithdrawalRepository interface {
	// Save inserts or updates a withdrawal request.
	Save(ctx context.Context, withdrawal *WithdrawalRecord) error

	// GetByID retrieves a withdrawal request by its ID.
	GetByID(ctx context.Context, id string) (*WithdrawalRecord, error)

	// List retrieves withdrawal requests matching the given filters.
	List(ctx context.Context, filters WithdrawalFilters) ([]*WithdrawalRecord, error)
}

// WithdrawalRecord represents a withdrawal request as stored in persistence.
type WithdrawalRecord struct {
	ID            string
	ApplicationID string
	Reason        string
	Status        string // PENDING, APPROVED, REJECTED
	RequestedAt   time.Time
	DecidedAt     *time.Time
	DecidedBy     string // Empty string means null
}

// WithdrawalFilters contains filter options for querying withdrawals.
type WithdrawalFilters struct {
	ApplicationID string
	Status        string
}

// UnitRepository defines the secondary port for booked unit persistence.
type UnitRepository interface {
	// Save inserts or updates a unit.
	Save(ctx context.Context, unit *UnitRecord) error

	// GetByID retrieves a unit by its ID.
	GetByID(ctx context.Context, id string) (*UnitRecord, error)

	// List retrieves units, optionally for one listing.
	List(ctx context.Context, listingID string) ([]*UnitRecord, error)
}

// UnitRecord represents a flat unit bound at booking time.
type UnitRecord struct {
	ID            string
	ListingID     string
	Category      string
	ApplicationID string
	BookedAt      time.Time
	ReleasedAt    *time.Time // set when an approved withdrawal returned the unit
}
