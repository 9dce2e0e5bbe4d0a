package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/warmglow/reservation-platform/internal/support"
	"github.com/warmglow/reservation-platform/pkg/logging"
)

// TemplateStore is the admin template repository. Satisfied by
// *support.TemplateRepository.
type TemplateStore interface {
	List(ctx context.Context, activeOnly bool) ([]support.Template, error)
	Create(ctx context.Context, title, prompt, reply string, tags []string, isActive bool) (*support.Template, error)
}

// TemplatesHandler serves /api/support/templates.
type TemplatesHandler struct {
	store  TemplateStore
	logger *logging.Logger
}

// NewTemplatesHandler wires the template endpoints. store may be nil; the
// list endpoint then reports an empty set.
func NewTemplatesHandler(store TemplateStore, logger *logging.Logger) *TemplatesHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &TemplatesHandler{store: store, logger: logger.Component("templates_api")}
}

// HandleList returns templates and their title groups. Active templates
// only, unless ?all=true.
// GET /api/support/templates
func (h *TemplatesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeJSON(w, http.StatusOK, map[string]any{"templates": []any{}, "groups": []any{}})
		return
	}

	activeOnly := r.URL.Query().Get("all") != "true"
	items, err := h.store.List(r.Context(), activeOnly)
	if err != nil {
		h.logger.Error("template list failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load templates")
		return
	}

	templates := make([]map[string]any, 0, len(items))
	for _, tpl := range items {
		templates = append(templates, templateJSON(tpl))
	}

	groups := make([]map[string]any, 0)
	for _, group := range support.GroupByTitle(items) {
		groupItems := make([]map[string]any, 0, len(group.Items))
		for _, tpl := range group.Items {
			groupItems = append(groupItems, templateJSON(tpl))
		}
		groups = append(groups, map[string]any{"title": group.Title, "items": groupItems})
	}

	writeJSON(w, http.StatusOK, map[string]any{"templates": templates, "groups": groups})
}

// HandleCreate stores a new template.
// POST /api/support/templates
func (h *TemplatesHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, http.StatusServiceUnavailable, "template storage unavailable")
		return
	}

	var req struct {
		Title    string   `json:"title"`
		Prompt   string   `json:"prompt"`
		Reply    string   `json:"reply"`
		Tags     []string `json:"tags"`
		IsActive *bool    `json:"isActive"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	tpl, err := h.store.Create(r.Context(), req.Title, req.Prompt, req.Reply, req.Tags, isActive)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "template": templateJSON(*tpl)})
}

func templateJSON(tpl support.Template) map[string]any {
	return map[string]any{
		"id":        tpl.ID.String(),
		"title":     tpl.Title,
		"prompt":    tpl.Prompt,
		"reply":     tpl.Reply,
		"tags":      tpl.Tags,
		"isActive":  tpl.IsActive,
		"createdAt": tpl.CreatedAt.Format(time.RFC3339),
	}
}
