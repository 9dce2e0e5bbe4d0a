// Package handlers holds the public JSON API: reservation create/read, the
// FAQ listing, support templates, and the admin booking summary.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/warmglow/reservation-platform/internal/gcal"
	"github.com/warmglow/reservation-platform/internal/reservations"
	"github.com/warmglow/reservation-platform/internal/timeslot"
	"github.com/warmglow/reservation-platform/pkg/logging"
)

// ReservationService is the booking core. Satisfied by
// *reservations.Service.
type ReservationService interface {
	Create(ctx context.Context, p reservations.CreateParams) (*reservations.Reservation, *gcal.CreatedEvent, error)
	Get(ctx context.Context, id string) (*reservations.Reservation, error)
	DaySummary(ctx context.Context, date string, reg *timeslot.Registry) ([]reservations.SlotTally, error)
}

// ReservationsHandler serves /api/reservations.
type ReservationsHandler struct {
	svc    ReservationService
	slots  *timeslot.Registry
	logger *logging.Logger
}

// NewReservationsHandler wires the reservation endpoints.
func NewReservationsHandler(svc ReservationService, slots *timeslot.Registry, logger *logging.Logger) *ReservationsHandler {
	if slots == nil {
		slots = timeslot.NewDefaultRegistry()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &ReservationsHandler{svc: svc, slots: slots, logger: logger.Component("reservations_api")}
}

// flexInt accepts both a JSON number and a quoted digit string; the old
// reservation form sent guests as a string.
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("not an integer: %q", s)
	}
	*f = flexInt(n)
	return nil
}

// createReservationRequest accepts two wire formats: the reservation form's
// date+timeSlot pair, and the widget's precomputed reservedStart/reservedEnd
// instants. Name and people count each have a legacy alias.
type createReservationRequest struct {
	Name          string  `json:"name"`
	CustomerName  string  `json:"customerName"`
	Guests        flexInt `json:"guests"`
	PeopleCount   flexInt `json:"peopleCount"`
	Date          string  `json:"date"`
	TimeSlot      string  `json:"timeSlot"`
	Phone         string  `json:"phone"`
	Notes         string  `json:"notes"`
	ReservedStart string  `json:"reservedStart"`
	ReservedEnd   string  `json:"reservedEnd"`
}

// HandleCreate creates a reservation.
// POST /api/reservations
func (h *ReservationsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = strings.TrimSpace(req.CustomerName)
	}
	people := int(req.Guests)
	if people == 0 {
		people = int(req.PeopleCount)
	}

	start, end, ok := h.resolveWindow(w, req)
	if !ok {
		return
	}

	res, event, err := h.svc.Create(r.Context(), reservations.CreateParams{
		CustomerName:  name,
		Phone:         strings.TrimSpace(req.Phone),
		PeopleCount:   people,
		ReservedStart: start,
		ReservedEnd:   end,
		Notes:         strings.TrimSpace(req.Notes),
	})
	if err != nil {
		h.writeCreateError(w, err)
		return
	}

	body := map[string]any{
		"message":     "預約建立成功",
		"reservation": reservationJSON(res),
	}
	if event != nil {
		body["calendarEvent"] = map[string]any{
			"eventId":  event.EventID,
			"htmlLink": event.HTMLLink,
		}
	}
	writeJSON(w, http.StatusCreated, body)
}

// resolveWindow turns the request's time fields into concrete instants,
// writing the error response itself when the input is unusable.
func (h *ReservationsHandler) resolveWindow(w http.ResponseWriter, req createReservationRequest) (time.Time, time.Time, bool) {
	var zero time.Time

	if req.ReservedStart != "" && req.ReservedEnd != "" {
		start, err1 := time.Parse(time.RFC3339, req.ReservedStart)
		end, err2 := time.Parse(time.RFC3339, req.ReservedEnd)
		if err1 != nil || err2 != nil {
			writeError(w, http.StatusBadRequest, "Invalid date or timeSlot format")
			return zero, zero, false
		}
		return start, end, true
	}

	if req.Date != "" && req.TimeSlot != "" {
		slot, ok := h.slots.ByID(req.TimeSlot)
		if !ok {
			ids := make([]string, 0, h.slots.Len())
			for _, s := range h.slots.Slots() {
				ids = append(ids, s.ID)
			}
			writeError(w, http.StatusBadRequest,
				fmt.Sprintf("Invalid timeSlot. Valid values: %s", strings.Join(ids, ", ")))
			return zero, zero, false
		}
		start, end, err := timeslot.ResolveSlotWindow(req.Date, slot)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date or timeSlot format")
			return zero, zero, false
		}
		return start, end, true
	}

	writeError(w, http.StatusBadRequest, "必須提供 (date + timeSlot) 或 (reservedStart + reservedEnd)")
	return zero, zero, false
}

func (h *ReservationsHandler) writeCreateError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, timeslot.ErrPastBooking):
		writeError(w, http.StatusBadRequest, "Cannot create reservation in the past")
	case errors.Is(err, reservations.ErrNameRequired):
		writeError(w, http.StatusBadRequest, "name (或 customerName) is required and must be a non-empty string")
	case errors.Is(err, reservations.ErrPhoneRequired):
		writeError(w, http.StatusBadRequest, "phone is required and must be a non-empty string")
	case errors.Is(err, reservations.ErrPeopleCountInvalid):
		writeError(w, http.StatusBadRequest, "guests (或 peopleCount) must be a positive integer")
	case errors.Is(err, reservations.ErrWindowInvalid):
		writeError(w, http.StatusBadRequest, "Invalid reservation window")
	default:
		h.logger.Error("reservation create failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// HandleGet loads one reservation.
// GET /api/reservations/{id}
func (h *ReservationsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	res, err := h.svc.Get(r.Context(), id)
	switch {
	case errors.Is(err, reservations.ErrBadID):
		writeError(w, http.StatusBadRequest, "malformed reservation id")
	case errors.Is(err, reservations.ErrNotFound):
		writeError(w, http.StatusNotFound, "reservation not found")
	case err != nil:
		h.logger.Error("reservation lookup failed", "error", err, "id", id)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	default:
		writeJSON(w, http.StatusOK, map[string]any{"reservation": reservationJSON(res)})
	}
}

func reservationJSON(res *reservations.Reservation) map[string]any {
	out := map[string]any{
		"id":            res.ID.String(),
		"customerName":  res.CustomerName,
		"phone":         res.Phone,
		"peopleCount":   res.PeopleCount,
		"reservedStart": res.ReservedStart.UTC().Format(time.RFC3339),
		"reservedEnd":   res.ReservedEnd.UTC().Format(time.RFC3339),
		"status":        string(res.Status),
	}
	if res.Notes != nil {
		out["notes"] = *res.Notes
	}
	if res.CalendarEventID != nil {
		out["calendarEventId"] = *res.CalendarEventID
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": msg})
}
