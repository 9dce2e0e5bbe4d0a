// Package router assembles the chi router for the reservation platform:
// middleware chain, public booking/FAQ endpoints, the support chat surface,
// and the admin summary.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/warmglow/reservation-platform/internal/http/handlers"
	httpmiddleware "github.com/warmglow/reservation-platform/internal/http/middleware"
	"github.com/warmglow/reservation-platform/internal/webchat"
	"github.com/warmglow/reservation-platform/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger             *logging.Logger
	Reservations       *handlers.ReservationsHandler
	FAQ                *handlers.FAQHandler
	Templates          *handlers.TemplatesHandler
	BookingSummary     *handlers.BookingSummaryHandler
	Webchat            *webchat.Handler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	// Requests per second allowed on the write endpoints, per client IP.
	// Zero disables rate limiting.
	WriteRateLimit float64
	WriteBurst     int
}

// New creates a chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	limit := func(next http.Handler) http.Handler { return next }
	if cfg.WriteRateLimit > 0 {
		limit = httpmiddleware.RateLimit(cfg.WriteRateLimit, cfg.WriteBurst)
	}

	r.Group(func(public chi.Router) {
		public.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		})
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	r.Route("/api", func(api chi.Router) {
		if cfg.Reservations != nil {
			api.Route("/reservations", func(res chi.Router) {
				res.With(limit).Post("/", cfg.Reservations.HandleCreate)
				res.Get("/{id}", cfg.Reservations.HandleGet)
			})
		}

		if cfg.FAQ != nil {
			api.Get("/faq", cfg.FAQ.HandleList)
		}

		if cfg.Templates != nil {
			api.Route("/support/templates", func(tpl chi.Router) {
				tpl.Get("/", cfg.Templates.HandleList)
				tpl.Post("/", cfg.Templates.HandleCreate)
			})
		}

		if cfg.Webchat != nil {
			api.Route("/support/chat-sessions", func(chat chi.Router) {
				chat.With(limit).Post("/", cfg.Webchat.HandleCreateSession)
				chat.Post("/{id}/messages", cfg.Webchat.HandleAppendMessage)
				chat.Get("/{id}/messages", cfg.Webchat.HandleListMessages)
			})
			api.Route("/chat", func(chat chi.Router) {
				chat.With(limit).Post("/message", cfg.Webchat.HandleChatMessage)
				chat.Get("/ws", cfg.Webchat.HandleWebSocket)
			})
		}

		if cfg.BookingSummary != nil {
			api.Get("/admin/booking-summary", cfg.BookingSummary.HandleSummary)
		}
	})

	return r
}
