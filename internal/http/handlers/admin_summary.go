package handlers

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/warmglow/reservation-platform/internal/timeslot"
	"github.com/warmglow/reservation-platform/pkg/logging"
)

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// BookingSummaryHandler serves the admin's per-slot headcount view.
type BookingSummaryHandler struct {
	svc    ReservationService
	slots  *timeslot.Registry
	logger *logging.Logger
}

// NewBookingSummaryHandler wires the summary endpoint.
func NewBookingSummaryHandler(svc ReservationService, slots *timeslot.Registry, logger *logging.Logger) *BookingSummaryHandler {
	if slots == nil {
		slots = timeslot.NewDefaultRegistry()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &BookingSummaryHandler{svc: svc, slots: slots, logger: logger.Component("admin_summary")}
}

// HandleSummary tallies a day's reservations per slot.
// GET /api/admin/booking-summary?date=YYYY-MM-DD
func (h *BookingSummaryHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if !datePattern.MatchString(date) {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	tallies, err := h.svc.DaySummary(r.Context(), date, h.slots)
	if err != nil {
		h.logger.Error("booking summary failed", "error", err, "date", date)
		writeError(w, http.StatusInternalServerError, "failed to build booking summary")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"date":  date,
		"slots": tallies,
	})
}
