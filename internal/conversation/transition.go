package conversation

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/warmglow/reservation-platform/internal/faq"
	"github.com/warmglow/reservation-platform/internal/support"
	"github.com/warmglow/reservation-platform/internal/timeslot"
)

// Ruleset holds the read-only data a transition consults: the configured
// dining slots, the built-in FAQ, and the admin templates loaded for this
// request. Transition itself performs no I/O; templates are snapshotted by
// the caller.
type Ruleset struct {
	Slots     *timeslot.Registry
	FAQ       *faq.KnowledgeBase
	Templates []support.Template
}

// NewRuleset builds a ruleset over the default slots and FAQ with the given
// template snapshot.
func NewRuleset(templates []support.Template) *Ruleset {
	return &Ruleset{
		Slots:     timeslot.NewDefaultRegistry(),
		FAQ:       faq.NewDefaultKnowledgeBase(),
		Templates: templates,
	}
}

// WelcomeMessage is the greeting shown when a conversation opens.
const WelcomeMessage = "您好～我是微光暖食的 AI 客服。\n\n可以幫您：\n1. 說明營業時間、店址與預約規則\n2. 協助安排早午餐預約\n\n請問你是想「預約用餐」，還是先「詢問其他問題」呢？"

// Transition computes the next state and replies for one user interaction.
// now supplies "today" for same-day bookings; it must be in the restaurant's
// timezone context (the caller passes wall-clock time, Transition converts).
func (r *Ruleset) Transition(state State, ev Event, now time.Time) Result {
	switch e := ev.(type) {
	case QuickButtonEvent:
		return r.quickButton(state, e, now)
	case SelectSlotEvent:
		return r.selectSlot(state, e)
	case SelectTemplateGroupEvent:
		return r.selectTemplateGroup(state, e)
	case SelectTemplateEvent:
		return r.selectTemplate(state, e)
	case SwitchToFAQEvent:
		return r.switchToFAQ(state)
	case TextEvent:
		return r.text(state, strings.TrimSpace(e.Text), now)
	}
	return Result{State: state}
}

func (r *Ruleset) quickButton(state State, e QuickButtonEvent, now time.Time) Result {
	if e.Action == QuickBooking {
		today := timeslot.Today(now)
		state.Draft = Draft{Date: today}
		state.Step = StepBookingAskTime
		state.PendingGroup = nil
		return Result{
			State:    state,
			UserEcho: "我要預約",
			Replies:  []string{bookingStartReply(today)},
		}
	}
	state.Step = StepFAQ
	state.PendingGroup = nil
	return Result{
		State:    state,
		UserEcho: "先問問題",
		Replies:  []string{"好的，我們先來聊聊～您可以點選下方的常見問題，或直接輸入想問的內容。"},
	}
}

func (r *Ruleset) selectSlot(state State, e SelectSlotEvent) Result {
	slot, ok := r.Slots.ByID(e.SlotID)
	if !ok {
		return Result{State: state}
	}
	state.Draft.TimeSlotID = slot.ID
	state.Step = StepBookingAskPeople
	return Result{
		State:    state,
		UserEcho: fmt.Sprintf("選擇時段：%s", slot.Label),
		Replies:  []string{"好的，請問預計幾位用餐呢？"},
	}
}

func (r *Ruleset) selectTemplateGroup(state State, e SelectTemplateGroupEvent) Result {
	echo := fmt.Sprintf("想了解：%s", e.Group.Title)

	if len(e.Group.Items) == 1 {
		state.PendingGroup = nil
		state.Step = StepFAQ
		return Result{
			State:    state,
			UserEcho: echo,
			Replies:  []string{e.Group.Items[0].Reply},
			Source:   SourceTemplate,
		}
	}

	group := e.Group
	state.PendingGroup = &group
	state.Step = StepFAQSelectSubGroup

	var options []string
	for _, tpl := range group.Items {
		options = append(options, "・"+tpl.ShortLabel())
	}
	return Result{
		State:    state,
		UserEcho: echo,
		Replies: []string{fmt.Sprintf(
			"關於「%s」，您想了解哪一個部分呢？\n\n%s\n\n您可以直接點下面的按鈕來選擇喔。",
			group.Title, strings.Join(options, "\n"),
		)},
	}
}

func (r *Ruleset) selectTemplate(state State, e SelectTemplateEvent) Result {
	state.PendingGroup = nil
	state.Step = StepFAQ
	return Result{
		State:    state,
		UserEcho: fmt.Sprintf("想了解：%s", e.Template.ShortLabel()),
		Replies:  []string{e.Template.Reply},
		Source:   SourceTemplate,
	}
}

func (r *Ruleset) switchToFAQ(state State) Result {
	state.PendingGroup = nil
	state.Step = StepFAQ
	return Result{
		State:    state,
		UserEcho: "我想先問一些問題",
		Replies:  []string{"沒問題～您可以點下面的常見問題按鈕，或直接輸入想了解的內容，例如：營業時間、用餐時間限制、預約規則、取消方式⋯⋯"},
	}
}

func (r *Ruleset) text(state State, input string, now time.Time) Result {
	if input == "" {
		return Result{State: state}
	}

	// Sub-menu is button driven; typed text only gets a nudge.
	if state.Step == StepFAQSelectSubGroup && state.PendingGroup != nil {
		return Result{
			State:   state,
			Replies: []string{"您可以直接點上方的按鈕來選擇想了解的項目喔～"},
		}
	}

	if state.Step == StepFAQ {
		return r.answerQuestion(state, input)
	}

	switch state.Step {
	case StepAskIntent:
		return r.routeIntent(state, input, now)
	case StepBookingAskDate:
		return r.collectDate(state, input)
	case StepBookingAskTime:
		return r.collectTime(state, input)
	case StepBookingAskPeople:
		return r.collectPeople(state, input)
	case StepBookingAskName:
		state.Draft.Name = input
		state.Step = StepBookingAskPhone
		return Result{State: state, Replies: []string{"好的，聯絡電話方便提供嗎？"}}
	case StepBookingAskPhone:
		state.Draft.Phone = input
		state.Step = StepBookingAskNote
		return Result{State: state, Replies: []string{"如果有任何特殊需求（例如靠窗、嬰兒座椅、慶生服務等），可以在這裡說明；若沒有也可以直接回覆「無」。"}}
	case StepBookingAskNote:
		return r.collectNote(state, input)
	case StepBookingConfirm:
		return r.confirm(state, input, now)
	case StepIdle:
		return Result{
			State:   state,
			Replies: []string{"目前我還在學習中，關於詳細 FAQ 和店內規則，之後會再提供更完整的回覆 🙏\n\n如果這個問題很重要，也歡迎留下聯絡方式，我們會由人工客服回覆您。"},
		}
	}

	return Result{
		State:   state,
		Replies: []string{"目前我還在訓練中，先請您簡單描述想知道的內容，我會盡量協助 🙏"},
	}
}

func (r *Ruleset) routeIntent(state State, input string, now time.Time) Result {
	if strings.Contains(input, "預約") {
		today := timeslot.Today(now)
		state.Draft = Draft{Date: today}
		state.Step = StepBookingAskTime
		return Result{State: state, Replies: []string{bookingStartReply(today)}}
	}
	state.Step = StepFAQ
	state.PendingGroup = nil
	return Result{
		State:   state,
		Replies: []string{"沒問題～您可以直接點下面的常見問題按鈕，或自己輸入想問的內容，例如：營業時間、用餐時間限制、預約規則、取消方式等。"},
	}
}

func (r *Ruleset) collectDate(state State, input string) Result {
	date, ok := timeslot.NormalizeDate(input)
	if !ok {
		return Result{
			State:   state,
			Replies: []string{"日期格式似乎不對，請輸入 YYYY-MM-DD 格式，例如：2025-12-04"},
		}
	}
	state.Draft.Date = date
	state.Step = StepBookingAskTime

	var options []string
	for i, slot := range r.Slots.Slots() {
		options = append(options, fmt.Sprintf("%d. %s", i+1, slot.Label))
	}
	return Result{
		State: state,
		Replies: []string{fmt.Sprintf(
			"收到，預約日期是 %s。請問想要哪一個用餐時段呢？\n\n可選時段：\n%s\n\n請輸入編號（1-%d）或時段名稱。",
			date, strings.Join(options, "\n"), r.Slots.Len(),
		)},
	}
}

func (r *Ruleset) collectTime(state State, input string) Result {
	slot, ok := r.Slots.Match(input)
	if !ok {
		return Result{
			State: state,
			Replies: []string{fmt.Sprintf(
				"抱歉，我沒看懂您選擇的時段。請輸入編號（1-%d）或時段名稱，例如「09:00–10:30」。",
				r.Slots.Len(),
			)},
		}
	}
	state.Draft.TimeSlotID = slot.ID
	state.Step = StepBookingAskPeople
	return Result{
		State:   state,
		Replies: []string{fmt.Sprintf("好的，已為您選擇 %s。請問預計幾位用餐呢？", slot.Label)},
	}
}

func (r *Ruleset) collectPeople(state State, input string) Result {
	n, err := strconv.Atoi(input)
	if err != nil || n < 1 {
		return Result{
			State:   state,
			Replies: []string{"人數看起來怪怪的，可以再輸入一次嗎？請輸入正整數，例如：2"},
		}
	}
	state.Draft.PeopleCount = n
	state.Step = StepBookingAskName
	return Result{
		State:   state,
		Replies: []string{fmt.Sprintf("了解，預計 %d 位。請問貴姓？（請輸入姓名）", n)},
	}
}

func (r *Ruleset) collectNote(state State, input string) Result {
	if input != "無" {
		state.Draft.Note = input
	} else {
		state.Draft.Note = ""
	}
	state.Step = StepBookingConfirm

	slotLabel := ""
	if slot, ok := r.Slots.ByID(state.Draft.TimeSlotID); ok {
		slotLabel = slot.Label
	}
	note := state.Draft.Note
	if note == "" {
		note = "無"
	}
	return Result{
		State: state,
		Replies: []string{fmt.Sprintf(
			"幫您確認一下預約資料：\n\n日期：%s\n時段：%s\n人數：%d 位\n姓名：%s\n電話：%s\n特殊需求：%s\n\n若以上資訊都正確，請輸入「確認預約」，若要重填請輸入「重新填寫」。",
			state.Draft.Date, slotLabel, state.Draft.PeopleCount,
			state.Draft.Name, state.Draft.Phone, note,
		)},
	}
}

func (r *Ruleset) confirm(state State, input string, now time.Time) Result {
	switch {
	case strings.Contains(input, "重新") || strings.Contains(input, "重填"):
		today := timeslot.Today(now)
		state.Draft = Draft{Date: today}
		state.Step = StepBookingAskTime
		return Result{
			State: state,
			Replies: []string{fmt.Sprintf(
				"了解，讓我們重新開始。目前先幫您以「今天」 %s 為預約日期。\n下方是今天可預約的早午餐時段，請點選您想要的時段。\n\n（若想預約其他日期，目前麻煩您改用預約表單喔 🙏）",
				today,
			)},
		}
	case strings.Contains(input, "確認"):
		return Result{State: state, Action: ActionSubmitBooking}
	}
	return Result{
		State:   state,
		Replies: []string{"如果要送出預約請輸入「確認預約」，若要修改請輸入「重新填寫」。"},
	}
}

// answerQuestion runs the question-mode lookup order: a booking-intent
// guard, then the admin templates, then the built-in FAQ.
func (r *Ruleset) answerQuestion(state State, keyword string) Result {
	lower := strings.ToLower(keyword)
	if strings.Contains(lower, "預約") || strings.Contains(lower, "訂位") || strings.Contains(lower, "訂桌") {
		return Result{
			State:   state,
			Replies: []string{"聽起來您可能是想直接預約用餐～\n如果方便，我可以帶您走一個簡單的預約流程，幫您安排今天的時段。\n如果要開始預約，請輸入「我要預約」，或按下下方的「我要預約」按鈕。"},
		}
	}

	if matched := support.MatchTemplates(r.Templates, keyword); len(matched) > 0 {
		tpl := matched[0]
		return Result{
			State:   state,
			Replies: []string{fmt.Sprintf("關於「%s」，目前的說明如下：\n\n%s", tpl.Title, tpl.Reply)},
			Source:  SourceTemplate,
		}
	}

	if hits := r.FAQ.Search(keyword); len(hits) > 0 {
		top := hits[0]
		return Result{
			State:   state,
			Replies: []string{fmt.Sprintf("我在常見問題裡找到這個回答：\n\nQ：%s\nA：%s", top.Question, top.Answer)},
			Source:  SourceFAQ,
		}
	}

	return Result{
		State:   state,
		Replies: []string{"這個問題目前不在我的資料庫裡 QQ\n您可以換一個說法再問一次，或是直接使用預約服務；如果是比較特別的情況，也可以之後請店內人員再跟您聯絡。"},
		Source:  SourceMiss,
	}
}

func bookingStartReply(today string) string {
	return fmt.Sprintf(
		"好的～目前先幫您以「今天」 %s 為預約日期。\n下方是今天可預約的早午餐時段，請點選您想要的時段。\n\n（若想預約其他日期，目前麻煩您改用預約表單喔 🙏）",
		today,
	)
}
