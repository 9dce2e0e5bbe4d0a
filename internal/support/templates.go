package support

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Template is one admin-managed canned reply. The bot matches against
// title, prompt, and tags before falling back to the static FAQ.
type Template struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Prompt    string    `json:"prompt"`
	Reply     string    `json:"reply"`
	Tags      []string  `json:"tags"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

// TemplateGroup is the templates sharing one title, shown as a quick button
// in the widget. Groups with more than one item open a sub-menu.
type TemplateGroup struct {
	Title string     `json:"title"`
	Items []Template `json:"items"`
}

// ShortLabel is the sub-menu label for a template: the prompt's first
// comma-separated segment, falling back to the title.
func (t Template) ShortLabel() string {
	prompt := strings.TrimSpace(t.Prompt)
	if prompt != "" {
		if idx := strings.IndexAny(prompt, "，,"); idx >= 0 {
			prompt = prompt[:idx]
		}
		if prompt = strings.TrimSpace(prompt); prompt != "" {
			return prompt
		}
	}
	if t.Title != "" {
		return t.Title
	}
	return "這個問題"
}

// TemplateRepository persists support templates.
type TemplateRepository struct {
	db *sql.DB
}

// NewTemplateRepository creates a template repository. Returns nil when db is
// nil; callers treat a nil repository as "no templates configured".
func NewTemplateRepository(db *sql.DB) *TemplateRepository {
	if db == nil {
		return nil
	}
	return &TemplateRepository{db: db}
}

// List returns templates, newest first. With activeOnly set, disabled
// templates are filtered out.
func (r *TemplateRepository) List(ctx context.Context, activeOnly bool) ([]Template, error) {
	if r == nil || r.db == nil {
		return nil, nil
	}

	query := `
		SELECT id, title, prompt, reply, tags, is_active, created_at
		FROM support_templates
	`
	if activeOnly {
		query += " WHERE is_active"
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("support: list templates: %w", err)
	}
	defer rows.Close()

	var out []Template
	for rows.Next() {
		var tpl Template
		if err := rows.Scan(&tpl.ID, &tpl.Title, &tpl.Prompt, &tpl.Reply, pq.Array(&tpl.Tags), &tpl.IsActive, &tpl.CreatedAt); err != nil {
			return nil, fmt.Errorf("support: scan template: %w", err)
		}
		out = append(out, tpl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("support: iterate templates: %w", err)
	}
	return out, nil
}

// Create inserts a new template.
func (r *TemplateRepository) Create(ctx context.Context, title, prompt, reply string, tags []string, isActive bool) (*Template, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("support: template repository unavailable")
	}
	if strings.TrimSpace(title) == "" || strings.TrimSpace(prompt) == "" || strings.TrimSpace(reply) == "" {
		return nil, fmt.Errorf("support: title, prompt and reply are required")
	}
	if tags == nil {
		tags = []string{}
	}

	tpl := &Template{
		ID:        uuid.New(),
		Title:     title,
		Prompt:    prompt,
		Reply:     reply,
		Tags:      tags,
		IsActive:  isActive,
		CreatedAt: time.Now().UTC(),
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO support_templates (id, title, prompt, reply, tags, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, tpl.ID, tpl.Title, tpl.Prompt, tpl.Reply, pq.Array(tpl.Tags), tpl.IsActive, tpl.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("support: create template: %w", err)
	}
	return tpl, nil
}

// GroupByTitle folds templates into title groups, preserving the order in
// which titles first appear.
func GroupByTitle(templates []Template) []TemplateGroup {
	index := map[string]int{}
	var groups []TemplateGroup
	for _, tpl := range templates {
		i, ok := index[tpl.Title]
		if !ok {
			i = len(groups)
			index[tpl.Title] = i
			groups = append(groups, TemplateGroup{Title: tpl.Title})
		}
		groups[i].Items = append(groups[i].Items, tpl)
	}
	return groups
}

// MatchTemplates returns active templates whose title, prompt, or tags
// contain the keyword (case-insensitive), in input order.
func MatchTemplates(templates []Template, keyword string) []Template {
	lower := strings.ToLower(strings.TrimSpace(keyword))
	if lower == "" {
		return nil
	}
	var out []Template
	for _, tpl := range templates {
		haystack := strings.ToLower(tpl.Title + " " + tpl.Prompt + " " + strings.Join(tpl.Tags, " "))
		if strings.Contains(haystack, lower) {
			out = append(out, tpl)
		}
	}
	return out
}

// FindTemplate looks a template up by id.
func FindTemplate(templates []Template, id uuid.UUID) (Template, bool) {
	for _, tpl := range templates {
		if tpl.ID == id {
			return tpl, true
		}
	}
	return Template{}, false
}

// SortGroups orders groups alphabetically by title; used only by admin
// listings where a stable display order matters more than recency.
func SortGroups(groups []TemplateGroup) {
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Title < groups[j].Title
	})
}
