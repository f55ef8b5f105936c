// Package classifier derives a category, severity tier and confidence score
// from a free-text problem description. It is deterministic and keyword
// driven: no learned model, no external calls, and it never fails. Text
// without any keyword hit degrades to a generic low-severity result.
package classifier

import (
	"strings"

	"github.com/spec-kit/support-assistant/internal/domain"
)

// Severity keyword sets, checked in strict precedence: critical wins over
// high, high over medium, medium over low. Matching is plain substring
// search over the case-folded input.
var criticalWords = []string{
	"полностью недоступен", "остановка работы", "не могу работать",
	"критично", "срочно", "авария", "не работает вся система",
	"блокировка работы", "финансовая ошибка", "угроза безопасности",
	"платеж не проходит", "данные утеряны", "система упала",
	"доступ полностью закрыт", "все упало", "катастрофа",
	"чрезвычайная ситуация", "аварийная остановка",
}

var highWords = []string{
	"доступ", "войти", "логин", "пароль", "авторизация",
	"платеж", "транзакция", "деньги", "финанс", "отчетность",
	"конфиденциальн", "секретн", "персональные данные",
	"сбой", "недоступен", "не открывается", "ошибка соединения",
	"критическая ошибка", "не могу войти", "заблокирован",
	"не заходит", "проблемы с доступом",
}

var mediumWords = []string{
	"ошибка", "не работает", "не открывается", "сбой",
	"почта", "email", "письмо", "отправка", "получение",
	"отчет", "формирование", "выгрузка", "аналитика",
	"проблема", "не получается", "не функционирует",
	"неправильно работает", "техническая проблема",
}

var lowWords = []string{
	"медленно", "тормозит", "зависает", "скорость",
	"консультация", "вопрос", "как сделать", "настройка",
	"обучение", "инструкция", "справка", "подсказка",
	"как пользоваться", "как настроить",
}

// Confidence is a function of which severity tier matched, not a continuous
// signal from the text.
const (
	confidenceCritical = 0.92
	confidenceHigh     = 0.85
	confidenceMedium   = 0.78
	confidenceLow      = 0.65
)

// humanThreshold routes low-confidence classifications to a specialist.
const humanThreshold = 0.7

type categoryRule struct {
	keywords    []string
	category    string
	subcategory string
}

// Category resolution is independent from severity; first matching rule
// wins, table order is significant.
var categoryRules = []categoryRule{
	{
		keywords:    []string{"доступ", "войти", "логин", "пароль", "авторизация", "зайти"},
		category:    "Проблемы с доступом",
		subcategory: "Аутентификация",
	},
	{
		keywords:    []string{"отчет", "формирование", "аналитика", "данные", "выгрузка", "статистика"},
		category:    "Работа с отчетами",
		subcategory: "Формирование отчетов",
	},
	{
		keywords:    []string{"медленно", "тормозит", "зависает", "скорость", "производительность", "долго"},
		category:    "Производительность",
		subcategory: "Медленная работа",
	},
	{
		keywords:    []string{"почта", "email", "письмо", "отправка", "получение", "outlook"},
		category:    "Корпоративная почта",
		subcategory: "Работа с почтой",
	},
	{
		keywords:    []string{"платеж", "транзакция", "деньги", "финанс", "перевод", "оплата"},
		category:    "Финансовые операции",
		subcategory: "Проведение платежей",
	},
	{
		keywords:    []string{"сброс", "учетная запись", "восстановление", "безопасность"},
		category:    "Безопасность",
		subcategory: "Управление доступом",
	},
}

const (
	// CategoryGeneral is returned when no category rule matches.
	CategoryGeneral    = "Общая техническая проблема"
	subcategoryUnknown = "Неопределено"
)

// Classify analyzes a problem description. It is total: any input yields a
// severity in {low, medium, high, critical} and a confidence in [0, 1].
func Classify(text string) domain.Classification {
	folded := strings.ToLower(text)

	severity, confidence := resolveSeverity(folded)
	category, subcategory := resolveCategory(folded)

	return domain.Classification{
		Category:      category,
		Subcategory:   subcategory,
		Severity:      severity,
		Confidence:    confidence,
		RequiresHuman: severity.IsUrgent() || confidence < humanThreshold,
	}
}

func resolveSeverity(folded string) (domain.Severity, float64) {
	switch {
	case containsAny(folded, criticalWords):
		return domain.SeverityCritical, confidenceCritical
	case containsAny(folded, highWords):
		return domain.SeverityHigh, confidenceHigh
	case containsAny(folded, mediumWords):
		return domain.SeverityMedium, confidenceMedium
	case containsAny(folded, lowWords):
		return domain.SeverityLow, confidenceLow
	default:
		return domain.SeverityLow, confidenceLow
	}
}

func resolveCategory(folded string) (string, string) {
	for _, rule := range categoryRules {
		if containsAny(folded, rule.keywords) {
			return rule.category, rule.subcategory
		}
	}
	return CategoryGeneral, subcategoryUnknown
}

func containsAny(haystack string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(haystack, needle) {
			return true
		}
	}
	return false
}
