package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters for the reservation and chat flows.
type BookingMetrics struct {
	bookingsTotal     *prometheus.CounterVec
	calendarSyncTotal *prometheus.CounterVec
	chatMessagesTotal *prometheus.CounterVec
	faqLookupsTotal   *prometheus.CounterVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "warmglow",
			Subsystem: "reservations",
			Name:      "bookings_total",
			Help:      "Total reservation create attempts by outcome",
		}, []string{"outcome"}),
		calendarSyncTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "warmglow",
			Subsystem: "reservations",
			Name:      "calendar_sync_total",
			Help:      "Total Google Calendar sync attempts by outcome",
		}, []string{"outcome"}),
		chatMessagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "warmglow",
			Subsystem: "support",
			Name:      "chat_messages_total",
			Help:      "Total chat messages by role",
		}, []string{"role"}),
		faqLookupsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "warmglow",
			Subsystem: "support",
			Name:      "faq_lookups_total",
			Help:      "Total FAQ lookups by result source",
		}, []string{"source"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bookingsTotal, m.calendarSyncTotal, m.chatMessagesTotal, m.faqLookupsTotal)
	return m
}

func (m *BookingMetrics) ObserveBooking(outcome string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(outcome).Inc()
}

func (m *BookingMetrics) ObserveCalendarSync(outcome string) {
	if m == nil {
		return
	}
	m.calendarSyncTotal.WithLabelValues(outcome).Inc()
}

func (m *BookingMetrics) ObserveChatMessage(role string) {
	if m == nil {
		return
	}
	m.chatMessagesTotal.WithLabelValues(role).Inc()
}

// ObserveFAQLookup records where a support answer came from: template, faq,
// or miss.
func (m *BookingMetrics) ObserveFAQLookup(source string) {
	if m == nil {
		return
	}
	m.faqLookupsTotal.WithLabelValues(source).Inc()
}
