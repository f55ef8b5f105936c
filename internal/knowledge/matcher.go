// Package knowledge implements the mocked knowledge-base lookup: a static
// FAQ table scored by keyword hits. A miss never reports "not found"; it is
// represented by a generic answer at low confidence, which the conversation
// engine's threshold check treats as insufficient.
package knowledge

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"unicode"

	"github.com/spec-kit/support-assistant/pkg/errorutil"
)

const (
	// keyword hit weight and verbatim-question bonus for entry scoring
	keywordScore  = 1
	questionBonus = 3

	// matchThreshold is the minimum score for a real FAQ match.
	matchThreshold = 2

	baseConfidence     = 0.7
	confidencePerScore = 0.1
	maxConfidence      = 0.95
	fallbackConfidence = 0.65

	sourceKnowledgeBase = "База знаний"
	sourceGeneric       = "База знаний | Общая инструкция"
)

const fallbackAnswer = `Рекомендации по устранению проблемы.

Порядок действий:
1. Проверьте доступ — убедитесь в наличии соответствующих прав
2. Перезапустите сервис — выполните рестарт системы
3. Обратитесь к инструкции — изучите руководство пользователя

Быстрое решение:
• Проверьте подключение к корпоративной сети
• Обновите кэш браузера
• Посмотрите раздел "Частые вопросы"

Если не помогло — создайте обращение к специалисту.`

// Answer is the ephemeral result of a knowledge lookup. Found is always
// true; Confidence below 0.7 marks the generic fallback path.
type Answer struct {
	Found      bool    `json:"found"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Source     string  `json:"source"`
	Category   string  `json:"category"`
}

// Base holds the FAQ table and answers lookups against it.
type Base struct {
	entries []Entry
}

// NewBase builds a knowledge base over the given entries.
func NewBase(entries []Entry) *Base {
	return &Base{entries: entries}
}

// LoadFile reads a replacement FAQ table from a JSON file.
func LoadFile(path string) (*Base, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read faq table: %w", err)
	}
	var entries []Entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parse faq table: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("faq table %s is empty", path)
	}
	return NewBase(entries), nil
}

// Entries returns the FAQ table in stable order.
func (b *Base) Entries() []Entry {
	return b.entries
}

// Size returns the number of FAQ entries.
func (b *Base) Size() int {
	return len(b.entries)
}

// ByID finds an FAQ entry by id.
func (b *Base) ByID(id int) (Entry, error) {
	for _, entry := range b.entries {
		if entry.ID == id {
			return entry, nil
		}
	}
	return Entry{}, errorutil.NewNotFound("faq entry", map[string]any{"id": id})
}

// Match scores every FAQ entry against the text: +1 per keyword contained
// in it, +3 when the canonical question (emoji stripped) appears verbatim.
// The first entry reaching the best score wins; below the threshold a fixed
// generic answer is returned at confidence 0.65.
func (b *Base) Match(text string) Answer {
	folded := strings.ToLower(text)

	var best *Entry
	bestScore := 0
	for i := range b.entries {
		entry := &b.entries[i]
		score := 0
		for _, keyword := range entry.Keywords {
			if strings.Contains(folded, strings.ToLower(keyword)) {
				score += keywordScore
			}
		}
		if question := CleanQuestion(entry.Question); question != "" && strings.Contains(folded, question) {
			score += questionBonus
		}
		if score > bestScore {
			bestScore = score
			best = entry
		}
	}

	if best != nil && bestScore >= matchThreshold {
		confidence := baseConfidence + float64(bestScore)*confidencePerScore
		if confidence > maxConfidence {
			confidence = maxConfidence
		}
		return Answer{
			Found:      true,
			Text:       best.Answer,
			Confidence: confidence,
			Source:     sourceKnowledgeBase,
			Category:   best.Category,
		}
	}

	return Answer{
		Found:      true,
		Text:       fallbackAnswer,
		Confidence: fallbackConfidence,
		Source:     sourceGeneric,
		Category:   "general",
	}
}

// MatchesQuestion reports whether the text contains the entry's canonical
// question verbatim (emoji stripped). Used for direct FAQ routing from idle,
// where keyword-level matching would be far too eager.
func MatchesQuestion(entry Entry, text string) bool {
	question := CleanQuestion(entry.Question)
	return question != "" && strings.Contains(strings.ToLower(text), question)
}

// CleanQuestion case-folds a canonical question and strips its leading
// emoji decoration.
func CleanQuestion(question string) string {
	folded := strings.ToLower(question)
	return strings.TrimLeftFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
