// Package reservations owns the durable reservation records and the booking
// service that creates them.
package reservations

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a reservation. The core only ever writes
// PENDING; admin tooling moves records to the other states.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
)

// Reservation is one persisted booking.
type Reservation struct {
	ID              uuid.UUID
	CustomerName    string
	Phone           string
	PeopleCount     int
	ReservedStart   time.Time
	ReservedEnd     time.Time
	Notes           *string
	Status          Status
	CalendarEventID *string
	CreatedAt       time.Time
}

// CreateParams is the validated input for a new reservation.
type CreateParams struct {
	CustomerName  string
	Phone         string
	PeopleCount   int
	ReservedStart time.Time
	ReservedEnd   time.Time
	Notes         string // empty means no note
}

// Validation errors. Each names the offending field so HTTP handlers can
// report it distinctly.
var (
	ErrNameRequired       = errors.New("reservations: customer name is required")
	ErrPhoneRequired      = errors.New("reservations: phone is required")
	ErrPeopleCountInvalid = errors.New("reservations: people count must be a positive integer")
	ErrWindowInvalid      = errors.New("reservations: reserved window is invalid")
	ErrBadID              = errors.New("reservations: malformed reservation id")
)

func parseID(id string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, ErrBadID
	}
	return parsed, nil
}
