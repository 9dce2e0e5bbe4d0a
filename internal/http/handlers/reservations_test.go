package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warmglow/reservation-platform/internal/gcal"
	"github.com/warmglow/reservation-platform/internal/reservations"
	"github.com/warmglow/reservation-platform/internal/timeslot"
)

type fakeReservationService struct {
	lastParams reservations.CreateParams
	createErr  error
	event      *gcal.CreatedEvent
	getRes     *reservations.Reservation
	getErr     error
	tallies    []reservations.SlotTally
	summaryErr error
}

func (f *fakeReservationService) Create(_ context.Context, p reservations.CreateParams) (*reservations.Reservation, *gcal.CreatedEvent, error) {
	f.lastParams = p
	if f.createErr != nil {
		return nil, nil, f.createErr
	}
	return &reservations.Reservation{
		ID:            uuid.MustParse("6a6f1c00-0000-4000-8000-00000000abcd"),
		CustomerName:  p.CustomerName,
		Phone:         p.Phone,
		PeopleCount:   p.PeopleCount,
		ReservedStart: p.ReservedStart,
		ReservedEnd:   p.ReservedEnd,
		Status:        reservations.StatusPending,
	}, f.event, nil
}

func (f *fakeReservationService) Get(_ context.Context, id string) (*reservations.Reservation, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getRes, nil
}

func (f *fakeReservationService) DaySummary(_ context.Context, date string, reg *timeslot.Registry) ([]reservations.SlotTally, error) {
	if f.summaryErr != nil {
		return nil, f.summaryErr
	}
	return f.tallies, nil
}

func postJSON(t *testing.T, h http.HandlerFunc, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))
	req := httptest.NewRequest(http.MethodPost, "/api/reservations", &buf)
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestCreateReservationFromDateAndSlot(t *testing.T) {
	svc := &fakeReservationService{}
	h := NewReservationsHandler(svc, nil, nil)

	rec := postJSON(t, h.HandleCreate, map[string]any{
		"name":     "王小明",
		"guests":   4,
		"date":     "2025-12-10",
		"timeSlot": "MORNING_2",
		"phone":    "0912345678",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	wantStart := time.Date(2025, 12, 10, 10, 30, 0, 0, timeslot.Zone())
	assert.True(t, svc.lastParams.ReservedStart.Equal(wantStart))
	assert.True(t, svc.lastParams.ReservedEnd.Equal(wantStart.Add(90*time.Minute)))
	assert.Equal(t, "王小明", svc.lastParams.CustomerName)
	assert.Equal(t, 4, svc.lastParams.PeopleCount)

	var resp struct {
		Message     string         `json:"message"`
		Reservation map[string]any `json:"reservation"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "預約建立成功", resp.Message)
	assert.Equal(t, "PENDING", resp.Reservation["status"])
}

func TestCreateReservationFromInstants(t *testing.T) {
	svc := &fakeReservationService{}
	h := NewReservationsHandler(svc, nil, nil)

	rec := postJSON(t, h.HandleCreate, map[string]any{
		"customerName":  "李小姐",
		"peopleCount":   2,
		"reservedStart": "2025-12-10T12:00:00+08:00",
		"reservedEnd":   "2025-12-10T13:30:00+08:00",
		"phone":         "0987654321",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "李小姐", svc.lastParams.CustomerName)
	assert.Equal(t, 2, svc.lastParams.PeopleCount)
}

func TestCreateReservationAcceptsStringGuests(t *testing.T) {
	svc := &fakeReservationService{}
	h := NewReservationsHandler(svc, nil, nil)

	rec := postJSON(t, h.HandleCreate, map[string]any{
		"name":     "陳先生",
		"guests":   "3",
		"date":     "2025-12-10",
		"timeSlot": "NOON_1",
		"phone":    "0911222333",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, 3, svc.lastParams.PeopleCount)
}

func TestCreateReservationIncludesCalendarEvent(t *testing.T) {
	svc := &fakeReservationService{event: &gcal.CreatedEvent{EventID: "evt9", HTMLLink: "https://calendar.google.com/x"}}
	h := NewReservationsHandler(svc, nil, nil)

	rec := postJSON(t, h.HandleCreate, map[string]any{
		"name": "王", "guests": 2, "date": "2025-12-10", "timeSlot": "MORNING_1", "phone": "09",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		CalendarEvent map[string]string `json:"calendarEvent"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "https://calendar.google.com/x", resp.CalendarEvent["htmlLink"])
}

func TestCreateReservationBadInput(t *testing.T) {
	cases := []struct {
		name string
		body map[string]any
		want string
	}{
		{
			name: "unknown slot",
			body: map[string]any{"name": "王", "guests": 2, "date": "2025-12-10", "timeSlot": "MIDNIGHT_1", "phone": "09"},
			want: "Invalid timeSlot",
		},
		{
			name: "no time information",
			body: map[string]any{"name": "王", "guests": 2, "phone": "09"},
			want: "必須提供",
		},
		{
			name: "malformed instants",
			body: map[string]any{"name": "王", "guests": 2, "reservedStart": "昨天", "reservedEnd": "今天", "phone": "09"},
			want: "Invalid date or timeSlot format",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewReservationsHandler(&fakeReservationService{}, nil, nil)
			rec := postJSON(t, h.HandleCreate, tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.want)
		})
	}
}

func TestCreateReservationServiceErrors(t *testing.T) {
	cases := []struct {
		err        error
		wantStatus int
		wantBody   string
	}{
		{timeslot.ErrPastBooking, http.StatusBadRequest, "Cannot create reservation in the past"},
		{reservations.ErrNameRequired, http.StatusBadRequest, "name"},
		{reservations.ErrPhoneRequired, http.StatusBadRequest, "phone"},
		{reservations.ErrPeopleCountInvalid, http.StatusBadRequest, "positive integer"},
		{assert.AnError, http.StatusInternalServerError, "Internal server error"},
	}
	for _, tc := range cases {
		h := NewReservationsHandler(&fakeReservationService{createErr: tc.err}, nil, nil)
		rec := postJSON(t, h.HandleCreate, map[string]any{
			"name": "王", "guests": 2, "date": "2025-12-10", "timeSlot": "MORNING_1", "phone": "09",
		})
		assert.Equal(t, tc.wantStatus, rec.Code, tc.err)
		assert.Contains(t, rec.Body.String(), tc.wantBody, tc.err)
	}
}

func TestGetReservation(t *testing.T) {
	res := &reservations.Reservation{
		ID:            uuid.New(),
		CustomerName:  "王小明",
		Phone:         "0912345678",
		PeopleCount:   2,
		ReservedStart: time.Date(2025, 12, 10, 10, 30, 0, 0, timeslot.Zone()),
		ReservedEnd:   time.Date(2025, 12, 10, 12, 0, 0, 0, timeslot.Zone()),
		Status:        reservations.StatusPending,
	}
	h := NewReservationsHandler(&fakeReservationService{getRes: res}, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/reservations/"+res.ID.String(), nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", res.ID.String())
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	rec := httptest.NewRecorder()
	h.HandleGet(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), res.ID.String())
}

func TestGetReservationErrors(t *testing.T) {
	badID := NewReservationsHandler(&fakeReservationService{getErr: reservations.ErrBadID}, nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/reservations/zzz", nil)
	rec := httptest.NewRecorder()
	badID.HandleGet(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	missing := NewReservationsHandler(&fakeReservationService{getErr: reservations.ErrNotFound}, nil, nil)
	rec = httptest.NewRecorder()
	missing.HandleGet(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
