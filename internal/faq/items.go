// Package faq holds the restaurant's static knowledge base and the keyword
// search the support bot falls back to when no reply template matches.
package faq

// Category groups FAQ items for the public FAQ page and admin tooling.
type Category string

const (
	CategoryHours            Category = "HOURS"
	CategoryLocation         Category = "LOCATION"
	CategoryReservationRules Category = "RESERVATION_RULES"
	CategoryCancellation     Category = "CANCELLATION"
	CategoryOther            Category = "OTHER"
)

// Item is one question/answer pair. Items are defined at process start and
// never mutated. BotOnly items feed the support bot but are hidden from any
// user-facing listing.
type Item struct {
	ID       string   `json:"id"`
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Category Category `json:"category"`
	Tags     []string `json:"tags,omitempty"`
	BotOnly  bool     `json:"-"`
}

// DefaultItems returns the built-in restaurant knowledge base.
func DefaultItems() []Item {
	return []Item{
		// 營業時間
		{
			ID:       "hours-weekday",
			Question: "平日營業時間是幾點？",
			Answer:   "我們平日（週一至週五）的營業時間為 09:00 - 15:00。最後點餐時間為 14:30。",
			Category: CategoryHours,
			Tags:     []string{"營業時間", "平日", "週一到週五", "幾點開", "幾點關"},
		},
		{
			ID:       "hours-weekend",
			Question: "週末營業時間是幾點？",
			Answer:   "我們週末（週六、週日）的營業時間為 09:00 - 15:00。最後點餐時間為 14:30。",
			Category: CategoryHours,
			Tags:     []string{"營業時間", "週末", "週六", "週日", "假日", "幾點開"},
		},
		// 店址與交通
		{
			ID:       "location-address",
			Question: "店址在哪裡？",
			Answer:   "我們位於台北市信義區。詳細地址請參考我們的官方網站或社群媒體。",
			Category: CategoryLocation,
			Tags:     []string{"地址", "店址", "位置", "在哪裡", "地點"},
		},
		{
			ID:       "location-mrt",
			Question: "怎麼搭捷運到店裡？",
			Answer:   "您可以搭乘捷運至信義線相關站點，出站後步行約 5-10 分鐘即可抵達。建議使用 Google Maps 導航。",
			Category: CategoryLocation,
			Tags:     []string{"捷運", "交通", "怎麼去", "MRT", "地鐵"},
		},
		{
			ID:       "location-parking",
			Question: "附近有停車場嗎？",
			Answer:   "店舖附近有付費停車場，但建議您搭乘大眾運輸工具前來，更為便利環保。",
			Category: CategoryLocation,
			Tags:     []string{"停車", "停車場", "開車", "停車位"},
		},
		// 預約規則
		{
			ID:       "reservation-time-slots",
			Question: "有哪些用餐時段可以預約？",
			Answer:   "我們提供以下固定用餐時段：09:00–10:30、10:30–12:00、12:00–13:30、13:30–15:00。請在預約時選擇您偏好的時段。",
			Category: CategoryReservationRules,
			Tags:     []string{"時段", "用餐時間", "預約時間", "幾點", "時段選擇"},
		},
		{
			ID:       "reservation-past-time",
			Question: "可以預約過去的時間嗎？",
			Answer:   "不行，系統會自動檢查並禁止預約過去的時間。請選擇未來的日期與時段進行預約。",
			Category: CategoryReservationRules,
			Tags:     []string{"過去時間", "歷史日期", "預約限制", "時間限制"},
		},
		{
			ID:       "reservation-walk-in",
			Question: "可以現場候位嗎？",
			Answer:   "可以，但建議您先透過線上預約系統預訂，以確保有座位。現場候位將依當日座位狀況安排，可能需要等待。",
			Category: CategoryReservationRules,
			Tags:     []string{"現場", "候位", "walk-in", "臨時", "沒預約"},
		},
		{
			ID:       "reservation-min-people",
			Question: "預約最少要幾個人？",
			Answer:   "預約最少需要 1 人。您可以透過線上預約系統選擇人數，系統會自動為您安排合適的座位。",
			Category: CategoryReservationRules,
			Tags:     []string{"人數", "最少", "一個人", "單人", "人數限制"},
		},
		// 取消 / 修改預約
		{
			ID:       "cancellation-how",
			Question: "如何取消或修改預約？",
			Answer:   "目前如需取消或修改預約，請透過電話聯絡或 Instagram 私訊我們，我們會盡快為您處理。未來將推出線上取消功能，敬請期待。",
			Category: CategoryCancellation,
			Tags:     []string{"取消", "修改", "變更", "取消預約", "改時間"},
		},
		{
			ID:       "cancellation-deadline",
			Question: "最晚什麼時候可以取消預約？",
			Answer:   "建議您至少提前 24 小時通知我們取消或修改預約，以便我們安排其他客人。如有緊急情況，請盡快與我們聯繫。",
			Category: CategoryCancellation,
			Tags:     []string{"取消期限", "最晚", "提前", "通知時間"},
		},
		// 基本用餐規則
		{
			ID:       "dining-duration",
			Question: "用餐時間有限制嗎？",
			Answer:   "每個用餐時段為 90 分鐘，請您在時段內完成用餐，以便我們為下一組客人準備座位。",
			Category: CategoryOther,
			Tags:     []string{"用餐時間", "時間限制", "90分鐘", "時段", "用餐時長"},
		},
		{
			ID:       "dining-pets",
			Question: "可以帶寵物嗎？",
			Answer:   "可以，但請將寵物放置於寵物推車或提籃中，並確保不影響其他客人。詳細規定請以店內公告為主，或於預約時備註告知。",
			Category: CategoryOther,
			Tags:     []string{"寵物", "帶狗", "帶貓", "毛小孩", "寵物推車"},
		},
		// Bot-only 知識（不出現在公開 FAQ）
		{
			ID:       "bot-calendar-integration",
			Question: "系統會自動建立 Google Calendar 事件",
			Answer:   "當客人完成預約後，系統會自動在 Google Calendar 建立對應的活動事件，方便店家管理與追蹤。",
			Category: CategoryOther,
			Tags:     []string{"Google Calendar", "日曆", "系統整合", "自動建立"},
			BotOnly:  true,
		},
		{
			ID:       "bot-reservation-query",
			Question: "如何查詢預約記錄",
			Answer:   "可以透過後台管理系統查詢預約記錄，或使用 API 查詢特定日期與時段的預約狀況。",
			Category: CategoryOther,
			Tags:     []string{"查詢", "預約記錄", "後台", "API", "系統查詢"},
			BotOnly:  true,
		},
	}
}
