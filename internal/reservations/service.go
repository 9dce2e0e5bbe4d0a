package reservations

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/warmglow/reservation-platform/internal/gcal"
	"github.com/warmglow/reservation-platform/internal/observability/metrics"
	"github.com/warmglow/reservation-platform/internal/timeslot"
	"github.com/warmglow/reservation-platform/pkg/logging"
)

var tracer = otel.Tracer("warmglow.internal.reservations")

// CalendarSync is the best-effort Google collaborator. Any error from it is
// logged and swallowed; it never affects the reservation itself.
type CalendarSync interface {
	CreateEvent(ctx context.Context, in gcal.EventInput) (*gcal.CreatedEvent, error)
	AppendReservationRow(ctx context.Context, row []any) error
}

// Service validates and creates reservations, then runs the post-commit
// Google sync.
type Service struct {
	repo        *Repository
	sync        CalendarSync
	syncTimeout time.Duration
	metrics     *metrics.BookingMetrics
	logger      *logging.Logger
	now         func() time.Time
}

// NewService constructs a reservation service. sync may be nil when Google
// integration is not configured.
func NewService(repo *Repository, sync CalendarSync, syncTimeout time.Duration, m *metrics.BookingMetrics, logger *logging.Logger) *Service {
	if repo == nil {
		panic("reservations: repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if syncTimeout <= 0 {
		syncTimeout = 8 * time.Second
	}
	return &Service{
		repo:        repo,
		sync:        sync,
		syncTimeout: syncTimeout,
		metrics:     m,
		logger:      logger,
		now:         time.Now,
	}
}

// Create validates the params, writes a PENDING reservation, and then
// attempts the calendar sync. The returned reservation is authoritative the
// moment Create returns nil error; the returned event is nil whenever sync
// was skipped or failed.
func (s *Service) Create(ctx context.Context, p CreateParams) (*Reservation, *gcal.CreatedEvent, error) {
	ctx, span := tracer.Start(ctx, "reservations.create")
	defer span.End()

	if err := validate(p); err != nil {
		return nil, nil, err
	}
	if err := timeslot.ValidateNotPast(p.ReservedEnd, s.now()); err != nil {
		return nil, nil, err
	}

	res, err := s.repo.Create(ctx, p)
	if err != nil {
		span.RecordError(err)
		s.metrics.ObserveBooking("error")
		s.logger.Error("reservation create failed",
			"error", err,
			"customer_name", p.CustomerName,
			"reserved_start", p.ReservedStart,
			"people_count", p.PeopleCount,
		)
		return nil, nil, err
	}

	span.SetAttributes(attribute.String("reservation.id", res.ID.String()))
	s.metrics.ObserveBooking("created")
	s.logger.Info("reservation created",
		"reservation_id", res.ID,
		"reserved_start", res.ReservedStart,
		"people_count", res.PeopleCount,
	)

	// Post-commit hook: the reservation is durable before any sync attempt
	// references it.
	event := s.syncToGoogle(ctx, res)

	return res, event, nil
}

// syncToGoogle runs the bounded best-effort calendar and sheet writes.
// Returns the created event, or nil when sync is off or failed.
func (s *Service) syncToGoogle(ctx context.Context, res *Reservation) *gcal.CreatedEvent {
	if s.sync == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.syncTimeout)
	defer cancel()

	ctx, span := tracer.Start(ctx, "reservations.google_sync")
	defer span.End()

	notes := ""
	if res.Notes != nil {
		notes = *res.Notes
	}
	in := gcal.ReservationEvent(res.CustomerName, res.Phone, res.PeopleCount, notes, res.ReservedStart, res.ReservedEnd)

	event, err := s.sync.CreateEvent(ctx, in)
	if err != nil {
		span.RecordError(err)
		s.metrics.ObserveCalendarSync("error")
		s.logger.Warn("calendar sync failed, reservation unaffected",
			"error", err, "reservation_id", res.ID)
		event = nil
	} else {
		s.metrics.ObserveCalendarSync("ok")
		if err := s.repo.AttachCalendarEvent(ctx, res.ID, event.EventID); err != nil {
			s.logger.Warn("failed to attach calendar event id",
				"error", err, "reservation_id", res.ID, "event_id", event.EventID)
		}
	}

	zone := timeslot.Zone()
	row := gcal.ReservationRow(
		res.CustomerName, res.Phone,
		res.ReservedStart.In(zone).Format("2006-01-02"),
		windowLabel(res.ReservedStart, res.ReservedEnd),
		res.PeopleCount,
		s.now(),
	)
	if err := s.sync.AppendReservationRow(ctx, row); err != nil {
		s.logger.Warn("sheet append failed, reservation unaffected",
			"error", err, "reservation_id", res.ID)
	}

	return event
}

// Get loads one reservation by id.
func (s *Service) Get(ctx context.Context, id string) (*Reservation, error) {
	parsed, err := parseID(id)
	if err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, parsed)
}

// SlotTally is the per-slot headcount for one day.
type SlotTally struct {
	SlotID       string `json:"slotId"`
	Label        string `json:"label"`
	Reservations int    `json:"reservations"`
	People       int    `json:"people"`
}

// DaySummary tallies reservations per slot for a civil date. Display only;
// nothing enforces capacity.
func (s *Service) DaySummary(ctx context.Context, date string, reg *timeslot.Registry) ([]SlotTally, error) {
	ctx, span := tracer.Start(ctx, "reservations.day_summary")
	defer span.End()

	dayStart, err := time.ParseInLocation("2006-01-02", date, timeslot.Zone())
	if err != nil {
		return nil, fmt.Errorf("reservations: bad date %q: %w", date, err)
	}
	dayEnd := dayStart.Add(24 * time.Hour)

	all, err := s.repo.ListForWindow(ctx, dayStart, dayEnd)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	tallies := make([]SlotTally, 0, reg.Len())
	for _, slot := range reg.Slots() {
		start, end, err := timeslot.ResolveSlotWindow(date, slot)
		if err != nil {
			return nil, err
		}
		tally := SlotTally{SlotID: slot.ID, Label: slot.Label}
		for _, res := range all {
			if res.Status == StatusCancelled {
				continue
			}
			if res.ReservedStart.Before(end) && res.ReservedEnd.After(start) {
				tally.Reservations++
				tally.People += res.PeopleCount
			}
		}
		tallies = append(tallies, tally)
	}
	return tallies, nil
}

func validate(p CreateParams) error {
	if strings.TrimSpace(p.CustomerName) == "" {
		return ErrNameRequired
	}
	if strings.TrimSpace(p.Phone) == "" {
		return ErrPhoneRequired
	}
	if p.PeopleCount < 1 {
		return ErrPeopleCountInvalid
	}
	if p.ReservedStart.IsZero() || p.ReservedEnd.IsZero() || !p.ReservedStart.Before(p.ReservedEnd) {
		return ErrWindowInvalid
	}
	return nil
}

func windowLabel(start, end time.Time) string {
	zone := timeslot.Zone()
	return start.In(zone).Format("15:04") + "–" + end.In(zone).Format("15:04")
}
