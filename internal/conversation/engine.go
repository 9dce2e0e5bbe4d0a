package conversation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/warmglow/reservation-platform/internal/gcal"
	"github.com/warmglow/reservation-platform/internal/observability/metrics"
	"github.com/warmglow/reservation-platform/internal/reservations"
	"github.com/warmglow/reservation-platform/internal/support"
	"github.com/warmglow/reservation-platform/internal/timeslot"
	"github.com/warmglow/reservation-platform/pkg/logging"
)

var tracer = otel.Tracer("warmglow.internal.conversation")

// Booker submits a completed booking draft. Satisfied by
// *reservations.Service.
type Booker interface {
	Create(ctx context.Context, p reservations.CreateParams) (*reservations.Reservation, *gcal.CreatedEvent, error)
}

// MessageLogger records the transcript. Satisfied by *support.SessionStore.
// Logging is best effort: a failed write never blocks the conversation.
type MessageLogger interface {
	AppendMessage(ctx context.Context, sessionID uuid.UUID, role support.Role, content string) (*support.Message, error)
}

// TemplateSource supplies the active admin templates. Satisfied by
// *support.TemplateRepository.
type TemplateSource interface {
	List(ctx context.Context, activeOnly bool) ([]support.Template, error)
}

// Engine holds per-session conversation state and applies transition
// effects: transcript logging, metrics, and the booking submission.
type Engine struct {
	slots     *timeslot.Registry
	booker    Booker
	templates TemplateSource
	log       MessageLogger
	metrics   *metrics.BookingMetrics
	logger    *logging.Logger
	formURL   string
	now       func() time.Time

	mu     sync.Mutex
	states map[uuid.UUID]State
}

// NewEngine wires the engine. templates, log, and metrics may be nil; the
// engine degrades to built-in FAQ answers and an unlogged transcript.
func NewEngine(booker Booker, templates TemplateSource, log MessageLogger, m *metrics.BookingMetrics, logger *logging.Logger, formURL string) *Engine {
	if logger == nil {
		logger = logging.Default()
	}
	if formURL == "" {
		formURL = "/reservation"
	}
	return &Engine{
		slots:     timeslot.NewDefaultRegistry(),
		booker:    booker,
		templates: templates,
		log:       log,
		metrics:   m,
		logger:    logger.Component("conversation"),
		formURL:   formURL,
		now:       time.Now,
	}
}

// Open starts (or restarts) a session's conversation and returns the
// greeting.
func (e *Engine) Open(ctx context.Context, sessionID uuid.UUID) []string {
	e.mu.Lock()
	if e.states == nil {
		e.states = make(map[uuid.UUID]State)
	}
	e.states[sessionID] = NewState()
	e.mu.Unlock()

	replies := []string{WelcomeMessage}
	e.recordBotReplies(ctx, sessionID, replies)
	return replies
}

// StateOf returns the session's current state, creating it at intent
// routing on first use.
func (e *Engine) StateOf(sessionID uuid.UUID) State {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.states == nil {
		e.states = make(map[uuid.UUID]State)
	}
	st, ok := e.states[sessionID]
	if !ok {
		st = NewState()
		e.states[sessionID] = st
	}
	return st
}

// Restore seeds a session's state, used when rehydrating from a cache
// after a restart.
func (e *Engine) Restore(sessionID uuid.UUID, st State) {
	e.setState(sessionID, st)
}

func (e *Engine) setState(sessionID uuid.UUID, st State) {
	e.mu.Lock()
	if e.states == nil {
		e.states = make(map[uuid.UUID]State)
	}
	e.states[sessionID] = st
	e.mu.Unlock()
}

// TemplateGroups returns the active templates folded into title groups, for
// the widget's quick buttons. Missing template storage yields no groups.
func (e *Engine) TemplateGroups(ctx context.Context) []support.TemplateGroup {
	return support.GroupByTitle(e.snapshotTemplates(ctx))
}

func (e *Engine) snapshotTemplates(ctx context.Context) []support.Template {
	if e.templates == nil {
		return nil
	}
	items, err := e.templates.List(ctx, true)
	if err != nil {
		e.logger.Warn("template snapshot failed", "error", err)
		return nil
	}
	return items
}

// Handle processes one user interaction and returns the bot replies.
func (e *Engine) Handle(ctx context.Context, sessionID uuid.UUID, ev Event) []string {
	ctx, span := tracer.Start(ctx, "conversation.handle")
	defer span.End()
	span.SetAttributes(attribute.String("session.id", sessionID.String()))

	state := e.StateOf(sessionID)
	rules := NewRuleset(e.snapshotTemplates(ctx))
	res := rules.Transition(state, ev, e.now())

	// Transcript: the typed text or the button's synthetic user message.
	if txt, ok := ev.(TextEvent); ok {
		e.recordUserMessage(ctx, sessionID, txt.Text)
	} else if res.UserEcho != "" {
		e.recordUserMessage(ctx, sessionID, res.UserEcho)
	}

	if res.Source != "" && res.Source != SourceNone {
		e.metrics.ObserveFAQLookup(string(res.Source))
	}

	replies := res.Replies
	nextState := res.State
	if res.Action == ActionSubmitBooking {
		var submitted []string
		submitted, nextState = e.submitBooking(ctx, res.State)
		replies = append(replies, submitted...)
	}

	e.setState(sessionID, nextState)
	e.recordBotReplies(ctx, sessionID, replies)
	span.SetAttributes(attribute.String("conversation.step", string(nextState.Step)))
	return replies
}

// submitBooking runs the submission protocol: recompute the reserved window
// from the draft, create the reservation, and report the outcome. On failure
// the draft is kept so the guest can retry with「確認預約」.
func (e *Engine) submitBooking(ctx context.Context, state State) ([]string, State) {
	ctx, span := tracer.Start(ctx, "conversation.submit_booking")
	defer span.End()

	if !state.Draft.Complete() {
		return []string{"抱歉，預約資訊不完整，無法建立預約。請重新開始預約流程。"}, state
	}

	replies := []string{"幫您處理中，請稍候…"}

	slot, ok := e.slots.ByID(state.Draft.TimeSlotID)
	if !ok {
		span.SetStatus(codes.Error, "unknown time slot")
		return append(replies, e.failureReplies()...), state
	}
	start, end, err := timeslot.ResolveSlotWindow(state.Draft.Date, slot)
	if err != nil {
		span.RecordError(err)
		e.logger.Error("resolve booking window failed", "error", err, "date", state.Draft.Date, "slot", slot.ID)
		return append(replies, e.failureReplies()...), state
	}

	notes := "[AI 客服預約]"
	if state.Draft.Note != "" {
		notes = "[AI 客服預約] " + state.Draft.Note
	}

	res, event, err := e.booker.Create(ctx, reservations.CreateParams{
		CustomerName:  state.Draft.Name,
		Phone:         state.Draft.Phone,
		PeopleCount:   state.Draft.PeopleCount,
		ReservedStart: start,
		ReservedEnd:   end,
		Notes:         notes,
	})
	if err != nil {
		span.RecordError(err)
		e.logger.Error("chat booking failed", "error", err, "date", state.Draft.Date, "slot", slot.ID)
		return append(replies, e.failureReplies()...), state
	}

	success := fmt.Sprintf(
		"預約成功 🎉\n\n- 預約編號：%s\n- 日期：%s\n- 時段：%s\n- 人數：%d 人\n- 姓名：%s\n\n之後若要修改或取消，請再聯絡我們。",
		res.ID, state.Draft.Date, slot.Label, state.Draft.PeopleCount, state.Draft.Name,
	)
	if event != nil && event.HTMLLink != "" {
		success += fmt.Sprintf("\n\n這是您的行事曆連結：%s", event.HTMLLink)
	}

	state.Draft = Draft{}
	state.Step = StepIdle
	return append(replies, success), state
}

func (e *Engine) failureReplies() []string {
	return []string{
		"系統目前有點忙碌，暫時無法直接幫您建立預約 🙏\n\n建議您改用預約表單（下方按鈕），或稍後再試一次。",
		fmt.Sprintf("您也可以點擊這裡前往預約表單：%s", e.formURL),
	}
}

func (e *Engine) recordUserMessage(ctx context.Context, sessionID uuid.UUID, content string) {
	e.metrics.ObserveChatMessage("user")
	if e.log == nil {
		return
	}
	if _, err := e.log.AppendMessage(ctx, sessionID, support.RoleUser, content); err != nil {
		e.logger.Warn("transcript write failed", "error", err, "role", "USER")
	}
}

func (e *Engine) recordBotReplies(ctx context.Context, sessionID uuid.UUID, replies []string) {
	for _, reply := range replies {
		e.metrics.ObserveChatMessage("bot")
		if e.log == nil {
			continue
		}
		if _, err := e.log.AppendMessage(ctx, sessionID, support.RoleBot, reply); err != nil {
			e.logger.Warn("transcript write failed", "error", err, "role", "BOT")
		}
	}
}
