package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warmglow/reservation-platform/internal/support"
)

type fakeTemplateStore struct {
	items          []support.Template
	listErr        error
	lastActiveOnly bool
	created        *support.Template
	createErr      error
}

func (f *fakeTemplateStore) List(_ context.Context, activeOnly bool) ([]support.Template, error) {
	f.lastActiveOnly = activeOnly
	return f.items, f.listErr
}

func (f *fakeTemplateStore) Create(_ context.Context, title, prompt, reply string, tags []string, isActive bool) (*support.Template, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = &support.Template{
		ID:        uuid.New(),
		Title:     title,
		Prompt:    prompt,
		Reply:     reply,
		Tags:      tags,
		IsActive:  isActive,
		CreatedAt: time.Now().UTC(),
	}
	return f.created, nil
}

func sampleTemplates() []support.Template {
	return []support.Template{
		{ID: uuid.New(), Title: "停車資訊", Prompt: "附近有停車場嗎？", Reply: "附近的公有停車場步行約 3 分鐘。", Tags: []string{"停車"}, IsActive: true, CreatedAt: time.Now().UTC()},
		{ID: uuid.New(), Title: "停車資訊", Prompt: "可以代客泊車嗎？", Reply: "目前沒有提供代客泊車服務。", IsActive: true, CreatedAt: time.Now().UTC()},
		{ID: uuid.New(), Title: "寵物", Prompt: "可以帶寵物嗎？", Reply: "室外座位區歡迎寵物同行。", IsActive: true, CreatedAt: time.Now().UTC()},
	}
}

func TestTemplatesListGroupsByTitle(t *testing.T) {
	store := &fakeTemplateStore{items: sampleTemplates()}
	h := NewTemplatesHandler(store, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/support/templates", nil)
	rec := httptest.NewRecorder()
	h.HandleList(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, store.lastActiveOnly)

	var resp struct {
		Templates []map[string]any `json:"templates"`
		Groups    []struct {
			Title string           `json:"title"`
			Items []map[string]any `json:"items"`
		} `json:"groups"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Templates, 3)
	require.Len(t, resp.Groups, 2)
	assert.Equal(t, "停車資訊", resp.Groups[0].Title)
	assert.Len(t, resp.Groups[0].Items, 2)
	assert.Equal(t, "寵物", resp.Groups[1].Title)
}

func TestTemplatesListAllIncludesInactive(t *testing.T) {
	store := &fakeTemplateStore{}
	h := NewTemplatesHandler(store, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/support/templates?all=true", nil)
	rec := httptest.NewRecorder()
	h.HandleList(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, store.lastActiveOnly)
}

func TestTemplatesListWithoutStore(t *testing.T) {
	h := NewTemplatesHandler(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/support/templates", nil)
	rec := httptest.NewRecorder()
	h.HandleList(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"templates":[],"groups":[]}`, rec.Body.String())
}

func TestTemplatesCreate(t *testing.T) {
	store := &fakeTemplateStore{}
	h := NewTemplatesHandler(store, nil)

	body := bytes.NewBufferString(`{"title":"外帶","prompt":"可以外帶嗎？","reply":"可以，請提前 30 分鐘來電。","tags":["外帶"]}`)
	req := httptest.NewRequest(http.MethodPost, "/api/support/templates", body)
	rec := httptest.NewRecorder()
	h.HandleCreate(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.NotNil(t, store.created)
	assert.Equal(t, "外帶", store.created.Title)
	assert.True(t, store.created.IsActive)
	assert.Contains(t, rec.Body.String(), store.created.ID.String())
}

func TestTemplatesCreateInactive(t *testing.T) {
	store := &fakeTemplateStore{}
	h := NewTemplatesHandler(store, nil)

	body := bytes.NewBufferString(`{"title":"測試","prompt":"p","reply":"r","isActive":false}`)
	req := httptest.NewRequest(http.MethodPost, "/api/support/templates", body)
	rec := httptest.NewRecorder()
	h.HandleCreate(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.False(t, store.created.IsActive)
}

func TestTemplatesCreateRejectsStoreError(t *testing.T) {
	store := &fakeTemplateStore{createErr: errors.New("support: title, prompt and reply are required")}
	h := NewTemplatesHandler(store, nil)

	body := bytes.NewBufferString(`{"title":"","prompt":"","reply":""}`)
	req := httptest.NewRequest(http.MethodPost, "/api/support/templates", body)
	rec := httptest.NewRecorder()
	h.HandleCreate(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "required")
}

func TestTemplatesCreateWithoutStore(t *testing.T) {
	h := NewTemplatesHandler(nil, nil)

	body := bytes.NewBufferString(`{"title":"x","prompt":"y","reply":"z"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/support/templates", body)
	rec := httptest.NewRecorder()
	h.HandleCreate(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
