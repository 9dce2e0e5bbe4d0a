// Package timeslot defines the restaurant's fixed dining windows and the
// date math that turns a chosen slot into concrete instants.
package timeslot

import (
	"strconv"
	"strings"
)

// Slot is one bookable dining window. IDs are stable: persisted reservations
// reference them, so a slot id must keep resolving to the same wall-clock
// window over time.
type Slot struct {
	ID    string
	Label string
	Start string // "HH:MM"
	End   string // "HH:MM"
}

// DefaultSlots returns the four brunch windows shared by the reservation form
// and the admin dashboard.
func DefaultSlots() []Slot {
	return []Slot{
		{ID: "MORNING_1", Label: "09:00–10:30", Start: "09:00", End: "10:30"},
		{ID: "MORNING_2", Label: "10:30–12:00", Start: "10:30", End: "12:00"},
		{ID: "NOON_1", Label: "12:00–13:30", Start: "12:00", End: "13:30"},
		{ID: "NOON_2", Label: "13:30–15:00", Start: "13:30", End: "15:00"},
	}
}

// Registry is an immutable lookup table over the configured slots.
type Registry struct {
	slots []Slot
	byID  map[string]Slot
}

// NewRegistry builds a registry from the given slots. The slice is copied;
// callers cannot mutate the registry afterwards.
func NewRegistry(slots []Slot) *Registry {
	copied := make([]Slot, len(slots))
	copy(copied, slots)
	byID := make(map[string]Slot, len(copied))
	for _, s := range copied {
		byID[s.ID] = s
	}
	return &Registry{slots: copied, byID: byID}
}

// NewDefaultRegistry builds a registry over DefaultSlots.
func NewDefaultRegistry() *Registry {
	return NewRegistry(DefaultSlots())
}

// Slots returns the configured slots in definition order.
func (r *Registry) Slots() []Slot {
	out := make([]Slot, len(r.slots))
	copy(out, r.slots)
	return out
}

// Len returns the number of configured slots.
func (r *Registry) Len() int { return len(r.slots) }

// ByID looks a slot up by its stable identifier.
func (r *Registry) ByID(id string) (Slot, bool) {
	s, ok := r.byID[id]
	return s, ok
}

// ByIndex looks a slot up by 1-based position, matching the numbered menu the
// chat widget shows.
func (r *Registry) ByIndex(i int) (Slot, bool) {
	if i < 1 || i > len(r.slots) {
		return Slot{}, false
	}
	return r.slots[i-1], true
}

// Match resolves permissive user input to a slot: a 1-based number, or a
// label substring match in either direction.
func (r *Registry) Match(input string) (Slot, bool) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return Slot{}, false
	}
	if n, err := strconv.Atoi(trimmed); err == nil {
		return r.ByIndex(n)
	}
	for _, s := range r.slots {
		if strings.Contains(s.Label, trimmed) || strings.Contains(trimmed, s.Label) {
			return s, true
		}
	}
	return Slot{}, false
}
