package timeslot

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// All reservation math happens in the restaurant's civil timezone (UTC+8),
// never the host's local zone, so a given slot always resolves to the same
// absolute instants wherever the process runs.
var restaurantZone = time.FixedZone("UTC+8", 8*60*60)

var (
	// ErrInvalidSlotFormat reports a slot whose start/end is not "HH:MM".
	ErrInvalidSlotFormat = errors.New("timeslot: slot start/end must be HH:MM")
	// ErrMalformedTimeRange reports free text that is not "HH:MM-HH:MM".
	ErrMalformedTimeRange = errors.New("timeslot: time range must be HH:MM-HH:MM")
	// ErrPastBooking reports a window that already ended.
	ErrPastBooking = errors.New("timeslot: reservation window is in the past")
)

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Zone returns the restaurant's civil timezone.
func Zone() *time.Location { return restaurantZone }

// Today returns the current civil date in the restaurant's timezone as
// "YYYY-MM-DD".
func Today(now time.Time) string {
	return now.In(restaurantZone).Format("2006-01-02")
}

// NormalizeDate accepts "YYYY-MM-DD" or "YYYY/MM/DD" and returns the dashed
// form. Anything else fails.
func NormalizeDate(input string) (string, bool) {
	normalized := strings.ReplaceAll(strings.TrimSpace(input), "/", "-")
	if !datePattern.MatchString(normalized) {
		return "", false
	}
	return normalized, true
}

// ResolveSlotWindow composes a civil date with a slot's wall-clock window
// into absolute start/end instants.
func ResolveSlotWindow(date string, slot Slot) (time.Time, time.Time, error) {
	start, err := composeInstant(date, slot.Start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: slot %s start %q", ErrInvalidSlotFormat, slot.ID, slot.Start)
	}
	end, err := composeInstant(date, slot.End)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: slot %s end %q", ErrInvalidSlotFormat, slot.ID, slot.End)
	}
	return start, end, nil
}

// ResolveFreeTextWindow parses a user-typed range like "06:00-10:30" or
// "06:00 - 10:30" against a civil date.
func ResolveFreeTextWindow(date, rawRange string) (time.Time, time.Time, error) {
	compact := strings.Join(strings.Fields(rawRange), "")
	parts := strings.Split(compact, "-")
	if len(parts) != 2 {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %q", ErrMalformedTimeRange, rawRange)
	}
	start, err := composeInstant(date, parts[0])
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %q", ErrMalformedTimeRange, rawRange)
	}
	end, err := composeInstant(date, parts[1])
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %q", ErrMalformedTimeRange, rawRange)
	}
	return start, end, nil
}

// ValidateNotPast rejects windows whose end is at or before now. The boundary
// is inclusive: a reservation ending exactly now is already over.
func ValidateNotPast(end, now time.Time) error {
	if !end.After(now) {
		return ErrPastBooking
	}
	return nil
}

func composeInstant(date, hhmm string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02 15:04", date+" "+hhmm, restaurantZone)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}
