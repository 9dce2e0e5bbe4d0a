// Package gcal wraps the Google Calendar and Sheets APIs behind the narrow
// contract the reservation flow needs. Everything here is best-effort from
// the caller's point of view: an error must never fail a booking.
package gcal

import (
	"context"
	"errors"
	"fmt"
	"os"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/warmglow/reservation-platform/pkg/logging"
)

// ErrNotConfigured is returned when the client has no calendar or sheet to
// write to.
var ErrNotConfigured = errors.New("gcal: google sync not configured")

// Config holds service-account credentials and target ids.
type Config struct {
	// CredentialsJSON takes priority; CredentialsFile is the local-dev
	// fallback.
	CredentialsJSON []byte
	CredentialsFile string
	CalendarID      string
	SheetID         string
}

// EventInput is the calendar event to create.
type EventInput struct {
	Summary     string
	Description string
	Start       string // RFC 3339 with offset, e.g. "2025-12-04T09:00:00+08:00"
	End         string
	Timezone    string
}

// CreatedEvent is what callers get back after a successful insert.
type CreatedEvent struct {
	EventID  string
	HTMLLink string
}

// Client talks to Google Calendar and Sheets with one service account.
type Client struct {
	calendarSvc *calendar.Service
	sheetsSvc   *sheets.Service
	calendarID  string
	sheetID     string
	logger      *logging.Logger
}

// New builds a client from service-account credentials. Returns
// ErrNotConfigured when neither a calendar nor a sheet id is set, so callers
// can run without Google sync at all.
func New(ctx context.Context, cfg Config, logger *logging.Logger) (*Client, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.CalendarID == "" && cfg.SheetID == "" {
		return nil, ErrNotConfigured
	}

	creds := cfg.CredentialsJSON
	if len(creds) == 0 && cfg.CredentialsFile != "" {
		data, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("gcal: read credentials file: %w", err)
		}
		creds = data
	}
	if len(creds) == 0 {
		return nil, fmt.Errorf("gcal: missing service account credentials")
	}

	c := &Client{calendarID: cfg.CalendarID, sheetID: cfg.SheetID, logger: logger}

	if cfg.CalendarID != "" {
		svc, err := calendar.NewService(ctx,
			option.WithCredentialsJSON(creds),
			option.WithScopes(calendar.CalendarScope),
		)
		if err != nil {
			return nil, fmt.Errorf("gcal: init calendar service: %w", err)
		}
		c.calendarSvc = svc
	}

	if cfg.SheetID != "" {
		svc, err := sheets.NewService(ctx,
			option.WithCredentialsJSON(creds),
			option.WithScopes(sheets.SpreadsheetsScope),
		)
		if err != nil {
			return nil, fmt.Errorf("gcal: init sheets service: %w", err)
		}
		c.sheetsSvc = svc
	}

	return c, nil
}

// CreateEvent inserts one event into the configured calendar.
func (c *Client) CreateEvent(ctx context.Context, in EventInput) (*CreatedEvent, error) {
	if c == nil || c.calendarSvc == nil {
		return nil, ErrNotConfigured
	}

	ev := &calendar.Event{
		Summary:     in.Summary,
		Description: in.Description,
		Start:       &calendar.EventDateTime{DateTime: in.Start, TimeZone: in.Timezone},
		End:         &calendar.EventDateTime{DateTime: in.End, TimeZone: in.Timezone},
	}

	res, err := c.calendarSvc.Events.Insert(c.calendarID, ev).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("gcal: insert event: %w", err)
	}

	c.logger.Info("calendar event created", "event_id", res.Id, "calendar_id", c.calendarID)
	return &CreatedEvent{EventID: res.Id, HTMLLink: res.HtmlLink}, nil
}

// AppendReservationRow appends one reservation to the configured spreadsheet.
func (c *Client) AppendReservationRow(ctx context.Context, row []any) error {
	if c == nil || c.sheetsSvc == nil {
		return ErrNotConfigured
	}

	vr := &sheets.ValueRange{Values: [][]any{row}}
	_, err := c.sheetsSvc.Spreadsheets.Values.Append(c.sheetID, "Sheet1!A:F", vr).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("gcal: append sheet row: %w", err)
	}

	c.logger.Info("reservation appended to sheet", "sheet_id", c.sheetID)
	return nil
}
