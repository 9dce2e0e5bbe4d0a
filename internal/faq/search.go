package faq

import (
	"sort"
	"strings"
)

// Relevance weights. Tags are the strongest signal; a hit in the answer body
// alone barely counts.
const (
	tagScore      = 10
	questionScore = 5
	answerScore   = 1
)

// KnowledgeBase is an immutable set of FAQ items with keyword search.
type KnowledgeBase struct {
	items []Item
}

// NewKnowledgeBase copies the given items into a read-only knowledge base.
func NewKnowledgeBase(items []Item) *KnowledgeBase {
	copied := make([]Item, len(items))
	copy(copied, items)
	return &KnowledgeBase{items: copied}
}

// NewDefaultKnowledgeBase builds a knowledge base over DefaultItems.
func NewDefaultKnowledgeBase() *KnowledgeBase {
	return NewKnowledgeBase(DefaultItems())
}

// Search returns items matching the keyword, most relevant first. Matching is
// case-insensitive substring, deliberately not fuzzy or semantic. Items with
// zero combined score are excluded; ties keep definition order.
func (kb *KnowledgeBase) Search(keyword string) []Item {
	lower := strings.ToLower(strings.TrimSpace(keyword))
	if lower == "" {
		return nil
	}

	type scored struct {
		item  Item
		score int
	}
	var matches []scored

	for _, item := range kb.items {
		score := 0
		for _, tag := range item.Tags {
			if strings.Contains(strings.ToLower(tag), lower) {
				score += tagScore
				break // one tag hit is enough, no double counting
			}
		}
		if strings.Contains(strings.ToLower(item.Question), lower) {
			score += questionScore
		}
		if strings.Contains(strings.ToLower(item.Answer), lower) {
			score += answerScore
		}
		if score > 0 {
			matches = append(matches, scored{item: item, score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})

	out := make([]Item, len(matches))
	for i, m := range matches {
		out[i] = m.item
	}
	return out
}

// SearchPublic is Search with bot-only items filtered out, for user-facing
// results.
func (kb *KnowledgeBase) SearchPublic(keyword string) []Item {
	var out []Item
	for _, item := range kb.Search(keyword) {
		if !item.BotOnly {
			out = append(out, item)
		}
	}
	return out
}

// ByCategory returns items in the given category, optionally including
// bot-only entries.
func (kb *KnowledgeBase) ByCategory(category Category, includeBotOnly bool) []Item {
	var out []Item
	for _, item := range kb.items {
		if item.Category != category {
			continue
		}
		if item.BotOnly && !includeBotOnly {
			continue
		}
		out = append(out, item)
	}
	return out
}

// Public returns every item visible to end users, in definition order.
func (kb *KnowledgeBase) Public() []Item {
	var out []Item
	for _, item := range kb.items {
		if !item.BotOnly {
			out = append(out, item)
		}
	}
	return out
}
