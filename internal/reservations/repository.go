package reservations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound reports a lookup for a reservation that does not exist.
var ErrNotFound = errors.New("reservations: not found")

// PgxPool is the subset of pgxpool.Pool the repository uses. pgxmock
// satisfies it in tests.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository provides persistence for reservations.
type Repository struct {
	pool PgxPool
}

// NewRepository creates a repository backed by a pgx pool.
func NewRepository(pool PgxPool) *Repository {
	if pool == nil {
		panic("reservations: pgx pool required")
	}
	return &Repository{pool: pool}
}

// Create inserts a new PENDING reservation and returns the stored record.
func (r *Repository) Create(ctx context.Context, p CreateParams) (*Reservation, error) {
	id := uuid.New()
	now := time.Now().UTC()

	var notes *string
	if p.Notes != "" {
		notes = &p.Notes
	}

	query := `
		INSERT INTO reservations (
			id, customer_name, phone, people_count,
			reserved_start, reserved_end, notes, status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.pool.Exec(ctx, query,
		id, p.CustomerName, p.Phone, p.PeopleCount,
		p.ReservedStart, p.ReservedEnd, notes, string(StatusPending), now,
	)
	if err != nil {
		return nil, fmt.Errorf("reservations: insert: %w", err)
	}

	return &Reservation{
		ID:            id,
		CustomerName:  p.CustomerName,
		Phone:         p.Phone,
		PeopleCount:   p.PeopleCount,
		ReservedStart: p.ReservedStart,
		ReservedEnd:   p.ReservedEnd,
		Notes:         notes,
		Status:        StatusPending,
		CreatedAt:     now,
	}, nil
}

// GetByID loads one reservation.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Reservation, error) {
	query := `
		SELECT id, customer_name, phone, people_count,
		       reserved_start, reserved_end, notes, status,
		       calendar_event_id, created_at
		FROM reservations
		WHERE id = $1
	`
	var res Reservation
	var status string
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&res.ID, &res.CustomerName, &res.Phone, &res.PeopleCount,
		&res.ReservedStart, &res.ReservedEnd, &res.Notes, &status,
		&res.CalendarEventID, &res.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reservations: load: %w", err)
	}
	res.Status = Status(status)
	return &res, nil
}

// AttachCalendarEvent records the calendar event id for a reservation. It is
// a follow-up write keyed by id: safe to skip or retry without touching the
// primary record.
func (r *Repository) AttachCalendarEvent(ctx context.Context, id uuid.UUID, eventID string) error {
	query := `UPDATE reservations SET calendar_event_id = $1 WHERE id = $2`
	_, err := r.pool.Exec(ctx, query, eventID, id)
	if err != nil {
		return fmt.Errorf("reservations: attach calendar event: %w", err)
	}
	return nil
}

// ListForWindow returns reservations overlapping [start, end) ordered by
// start time, for the admin dashboard tally.
func (r *Repository) ListForWindow(ctx context.Context, start, end time.Time) ([]Reservation, error) {
	query := `
		SELECT id, customer_name, phone, people_count,
		       reserved_start, reserved_end, notes, status,
		       calendar_event_id, created_at
		FROM reservations
		WHERE reserved_start < $2 AND reserved_end > $1
		ORDER BY reserved_start ASC
	`
	rows, err := r.pool.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("reservations: list window: %w", err)
	}
	defer rows.Close()

	var out []Reservation
	for rows.Next() {
		var res Reservation
		var status string
		if err := rows.Scan(
			&res.ID, &res.CustomerName, &res.Phone, &res.PeopleCount,
			&res.ReservedStart, &res.ReservedEnd, &res.Notes, &status,
			&res.CalendarEventID, &res.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("reservations: scan row: %w", err)
		}
		res.Status = Status(status)
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reservations: iterate rows: %w", err)
	}
	return out, nil
}
