// Package conversation drives the scripted support-chat flow: intent
// routing, the booking slot-filling script, and the templates-then-FAQ
// answer lookup. Transitions are pure; the Engine applies their effects.
package conversation

import (
	"github.com/warmglow/reservation-platform/internal/support"
)

// Step is the widget's position in the script.
type Step string

const (
	StepAskIntent         Step = "askIntent"
	StepBookingAskDate    Step = "bookingAskDate"
	StepBookingAskTime    Step = "bookingAskTime"
	StepBookingAskPeople  Step = "bookingAskPeople"
	StepBookingAskName    Step = "bookingAskName"
	StepBookingAskPhone   Step = "bookingAskPhone"
	StepBookingAskNote    Step = "bookingAskNote"
	StepBookingConfirm    Step = "bookingConfirm"
	StepFAQ               Step = "faq"
	StepFAQSelectSubGroup Step = "faqSelectSubQuestion"
	StepIdle              Step = "idle"
)

// IsBooking reports whether the step belongs to the booking script.
func (s Step) IsBooking() bool {
	switch s {
	case StepBookingAskDate, StepBookingAskTime, StepBookingAskPeople,
		StepBookingAskName, StepBookingAskPhone, StepBookingAskNote,
		StepBookingConfirm:
		return true
	}
	return false
}

// Draft accumulates booking fields across the script. Zero values mean
// "not collected yet".
type Draft struct {
	Date        string `json:"date,omitempty"`
	TimeSlotID  string `json:"timeSlotId,omitempty"`
	PeopleCount int    `json:"peopleCount,omitempty"`
	Name        string `json:"name,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Note        string `json:"note,omitempty"`
}

// Complete reports whether every required field has been collected. The
// note is optional.
func (d Draft) Complete() bool {
	return d.Date != "" && d.TimeSlotID != "" && d.PeopleCount > 0 &&
		d.Name != "" && d.Phone != ""
}

// State is one session's conversation position.
type State struct {
	Step         Step
	Draft        Draft
	PendingGroup *support.TemplateGroup
}

// NewState starts a conversation at intent routing.
func NewState() State {
	return State{Step: StepAskIntent}
}

// Event is one user interaction: free text or a widget button.
type Event interface{ isEvent() }

// TextEvent is a typed message.
type TextEvent struct {
	Text string
}

// QuickAction selects one of the two intent buttons.
type QuickAction string

const (
	QuickBooking  QuickAction = "booking"
	QuickQuestion QuickAction = "question"
)

// QuickButtonEvent is a tap on an intent quick button.
type QuickButtonEvent struct {
	Action QuickAction
}

// SelectSlotEvent is a tap on a time-slot button.
type SelectSlotEvent struct {
	SlotID string
}

// SelectTemplateGroupEvent is a tap on a grouped FAQ button.
type SelectTemplateGroupEvent struct {
	Group support.TemplateGroup
}

// SelectTemplateEvent is a tap on a sub-question button.
type SelectTemplateEvent struct {
	Template support.Template
}

// SwitchToFAQEvent leaves the booking script for question mode.
type SwitchToFAQEvent struct{}

func (TextEvent) isEvent()                {}
func (QuickButtonEvent) isEvent()         {}
func (SelectSlotEvent) isEvent()          {}
func (SelectTemplateGroupEvent) isEvent() {}
func (SelectTemplateEvent) isEvent()      {}
func (SwitchToFAQEvent) isEvent()         {}

// Action asks the Engine to run a side effect after a transition.
type Action int

const (
	ActionNone Action = iota
	// ActionSubmitBooking runs the reservation submission protocol.
	ActionSubmitBooking
)

// AnswerSource labels where an FAQ answer came from, for metrics.
type AnswerSource string

const (
	SourceNone     AnswerSource = "none"
	SourceTemplate AnswerSource = "template"
	SourceFAQ      AnswerSource = "faq"
	SourceMiss     AnswerSource = "miss"
)

// Result is the outcome of a transition. UserEcho is the synthetic user
// message a button tap stands for; empty for typed text.
type Result struct {
	State    State
	UserEcho string
	Replies  []string
	Action   Action
	Source   AnswerSource
}
