package gcal

import (
	"fmt"
	"strings"
	"time"
)

const eventTimezone = "Asia/Taipei"

// ReservationEvent composes the calendar event for a confirmed reservation.
// Wording matches what the restaurant staff see in their shared calendar.
func ReservationEvent(name, phone string, people int, notes string, start, end time.Time) EventInput {
	lines := []string{
		fmt.Sprintf("姓名：%s", name),
		fmt.Sprintf("電話：%s", phone),
		fmt.Sprintf("人數：%d 人", people),
	}
	if strings.TrimSpace(notes) != "" {
		lines = append(lines, fmt.Sprintf("備註：%s", notes))
	}

	return EventInput{
		Summary:     fmt.Sprintf("%s - %d人預約", name, people),
		Description: strings.Join(lines, "\n"),
		Start:       start.Format(time.RFC3339),
		End:         end.Format(time.RFC3339),
		Timezone:    eventTimezone,
	}
}

// ReservationRow composes the spreadsheet row for a reservation, one column
// per field with the current instant first.
func ReservationRow(name, phone, date, slotLabel string, people int, now time.Time) []any {
	return []any{
		now.UTC().Format(time.RFC3339),
		name,
		phone,
		date,
		slotLabel,
		people,
	}
}
