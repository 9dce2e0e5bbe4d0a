package handlers

import (
	"net/http"
	"strings"

	"github.com/warmglow/reservation-platform/internal/faq"
	"github.com/warmglow/reservation-platform/internal/observability/metrics"
)

// FAQHandler serves the public FAQ. Bot-only entries never leave this
// endpoint.
type FAQHandler struct {
	kb      *faq.KnowledgeBase
	metrics *metrics.BookingMetrics
}

// NewFAQHandler wires the FAQ endpoint over the given knowledge base.
func NewFAQHandler(kb *faq.KnowledgeBase, m *metrics.BookingMetrics) *FAQHandler {
	if kb == nil {
		kb = faq.NewDefaultKnowledgeBase()
	}
	return &FAQHandler{kb: kb, metrics: m}
}

// HandleList returns FAQ entries, optionally filtered.
// GET /api/faq?keyword=...&category=...
func (h *FAQHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	keyword := strings.TrimSpace(r.URL.Query().Get("keyword"))
	category := strings.TrimSpace(r.URL.Query().Get("category"))

	var items []faq.Item
	switch {
	case keyword != "":
		items = h.kb.SearchPublic(keyword)
		source := "faq"
		if len(items) == 0 {
			source = "miss"
		}
		h.metrics.ObserveFAQLookup(source)
	case category != "":
		items = h.kb.ByCategory(faq.Category(category), false)
	default:
		items = h.kb.Public()
	}

	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		out = append(out, map[string]any{
			"id":       item.ID,
			"question": item.Question,
			"answer":   item.Answer,
			"category": string(item.Category),
			"tags":     item.Tags,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": out})
}
