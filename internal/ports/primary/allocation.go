package primary

import (
	"context"
	"time"
)

// AllocationService defines the primary port for the allocation engine.
// It is the sole mutation entry point; every call reads the actor from ctx.
type AllocationService interface {
	// CreateListing creates a new listing managed by the calling manager.
	CreateListing(ctx context.Context, req CreateListingRequest) (*ListingResponse, error)

	// SetListingVisibility toggles whether requesters can discover a listing.
	SetListingVisibility(ctx context.Context, req SetVisibilityRequest) (*ListingResponse, error)

	// GetListing retrieves a listing by ID.
	GetListing(ctx context.Context, listingID string) (*Listing, error)

	// ListListings lists listings visible to the caller.
	// Requesters only see listings they may currently apply for.
	ListListings(ctx context.Context, filters ListingFilters) ([]*Listing, error)

	// SubmitApplication creates a PENDING application. No inventory is reserved.
	SubmitApplication(ctx context.Context, req SubmitApplicationRequest) (*ApplicationResponse, error)

	// DecideApplication approves or rejects a PENDING application.
	// Approval reserves a unit; without stock it is downgraded to UNSUCCESSFUL.
	DecideApplication(ctx context.Context, req DecideApplicationRequest) (*ApplicationResponse, error)

	// BookApplication binds the reserved unit to a SUCCESSFUL application.
	BookApplication(ctx context.Context, req BookApplicationRequest) (*ApplicationResponse, error)

	// GetApplication retrieves an application by ID.
	GetApplication(ctx context.Context, applicationID string) (*Application, error)

	// ActiveApplication returns the requester's active application, if any.
	ActiveApplication(ctx context.Context, requesterID string) (*Application, error)

	// ListApplications lists applications matching the filters.
	ListApplications(ctx context.Context, filters ApplicationFilters) ([]*Application, error)

	// RegisterStaff creates a PENDING staff registration for a listing.
	RegisterStaff(ctx context.Context, req RegisterStaffRequest) (*RegistrationResponse, error)

	// DecideRegistration approves or rejects a PENDING staff registration.
	DecideRegistration(ctx context.Context, req DecideRegistrationRequest) (*RegistrationResponse, error)

	// ListRegistrations lists staff registrations matching the filters.
	ListRegistrations(ctx context.Context, filters RegistrationFilters) ([]*Registration, error)

	// RequestWithdrawal asks the manager to withdraw an application.
	RequestWithdrawal(ctx context.Context, req RequestWithdrawalRequest) (*WithdrawalResponse, error)

	// DecideWithdrawal approves or rejects a PENDING withdrawal request.
	DecideWithdrawal(ctx context.Context, req DecideWithdrawalRequest) (*WithdrawalResponse, error)

	// ListWithdrawals lists withdrawal requests matching the filters.
	ListWithdrawals(ctx context.Context, filters WithdrawalFilters) ([]*Withdrawal, error)

	// BookingReport lists booked applications with requester profile data.
	BookingReport(ctx context.Context, filters BookingReportFilters) ([]*BookingReportRow, error)
}

// Warnings carries non-fatal persistence failures of a mutation.
// Each entry wraps outcome.ErrPersistenceFailed.
type Warnings []error

// CreateListingRequest contains parameters for creating a listing.
type CreateListingRequest struct {
	Name           string    `validate:"required"`
	Neighborhood   string    `validate:"required"`
	OpenAt         time.Time `validate:"required"`
	CloseAt        time.Time `validate:"required"`
	TwoRoomUnits   int       `validate:"gte=0"`
	ThreeRoomUnits int       `validate:"gte=0"`
	StaffSlots     int       `validate:"gte=1"`
	Visible        bool
}

// SetVisibilityRequest contains parameters for toggling visibility.
type SetVisibilityRequest struct {
	ListingID string `validate:"required"`
	Visible   bool
}

// ListingResponse contains the result of a listing mutation.
type ListingResponse struct {
	Listing  *Listing
	Warnings Warnings
}

// CategoryCount is the unit ledger of one category.
type CategoryCount struct {
	Category  string
	Total     int
	Available int
}

// Listing represents a listing at the port boundary.
type Listing struct {
	ID             string
	Name           string
	Neighborhood   string
	ManagerID      string
	Visible        bool
	OpenAt         time.Time
	CloseAt        time.Time
	Units          []CategoryCount
	StaffSlots     int
	AvailableSlots int
	StaffIDs       []string
	// EligibleCategories is populated for requesters only.
	EligibleCategories []string
	CreatedAt          time.Time
}

// ListingFilters contains filter options for listing listings.
type ListingFilters struct {
	Neighborhood string
	Category     string
	ManagerID    string
}

// SubmitApplicationRequest contains parameters for submitting an application.
// Category is chosen explicitly; the engine never guesses one.
type SubmitApplicationRequest struct {
	ListingID string `validate:"required"`
	Category  string `validate:"required"`
}

// DecideApplicationRequest contains parameters for deciding an application.
type DecideApplicationRequest struct {
	ApplicationID string `validate:"required"`
	Approve       bool
	Category      string // optional, must match the submitted category
}

// BookApplicationRequest contains parameters for booking a flat.
type BookApplicationRequest struct {
	ApplicationID string `validate:"required"`
	UnitID        string // optional, defaults to the reserved unit
}

// ApplicationResponse contains the result of an application mutation.
type ApplicationResponse struct {
	Application *Application
	// Downgrade wraps outcome.ErrNoAvailability when an approval found no
	// stock and the application was marked UNSUCCESSFUL instead.
	Downgrade error
	Warnings  Warnings
}

// Application represents an application at the port boundary.
// Status lifecycle: PENDING → SUCCESSFUL → BOOKED, PENDING → UNSUCCESSFUL, active → WITHDRAWN
type Application struct {
	ID             string
	RequesterID    string
	ListingID      string
	Category       string
	Status         string
	ReservedUnitID string // set from SUCCESSFUL until withdrawn
	BoundUnitID    string // set once BOOKED
	SubmittedAt    time.Time
	UpdatedAt      time.Time
}

// ApplicationFilters contains filter options for listing applications.
type ApplicationFilters struct {
	ListingID   string
	RequesterID string
	Status      string
}

// RegisterStaffRequest contains parameters for a staff registration.
type RegisterStaffRequest struct {
	ListingID string `validate:"required"`
}

// DecideRegistrationRequest contains parameters for deciding a registration.
type DecideRegistrationRequest struct {
	RegistrationID string `validate:"required"`
	Approve        bool
}

// RegistrationResponse contains the result of a registration mutation.
type RegistrationResponse struct {
	Registration *Registration
	Warnings     Warnings
}

// Registration represents a staff registration at the port boundary.
type Registration struct {
	ID          string
	StaffID     string
	ListingID   string
	Status      string
	RequestedAt time.Time
	DecidedAt   *time.Time
	DecidedBy   string
}

// RegistrationFilters contains filter options for listing registrations.
type RegistrationFilters struct {
	ListingID string
	StaffID   string
	Status    string
}

// RequestWithdrawalRequest contains parameters for a withdrawal request.
type RequestWithdrawalRequest struct {
	ApplicationID string `validate:"required"`
	Reason        string `validate:"required"`
}

// DecideWithdrawalRequest contains parameters for deciding a withdrawal.
type DecideWithdrawalRequest struct {
	WithdrawalID string `validate:"required"`
	Approve      bool
}

// WithdrawalResponse contains the result of a withdrawal mutation.
type WithdrawalResponse struct {
	Withdrawal  *Withdrawal
	Application *Application
	Warnings    Warnings
}

// Withdrawal represents a withdrawal request at the port boundary.
type Withdrawal struct {
	ID            string
	ApplicationID string
	Reason        string
	Status        string
	RequestedAt   time.Time
	DecidedAt     *time.Time
	DecidedBy     string
}

// WithdrawalFilters contains filter options for listing withdrawals.
type WithdrawalFilters struct {
	ListingID     string
	ApplicationID string
	Status        string
}

// BookingReportFilters contains filter options for the booking report.
type BookingReportFilters struct {
	ListingID     string
	Category      string
	MaritalStatus string
}

// BookingReportRow is one booked flat with its requester's profile.
type BookingReportRow struct {
	ApplicationID string
	ListingID     string
	ListingName   string
	Neighborhood  string
	Category      string
	UnitID        string
	RequesterID   string
	RequesterName string
	Age           int
	MaritalStatus string
	BookedAt      time.Time
}
