package engine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spec-kit/support-assistant/internal/knowledge"
)

// Stable action identifiers fed back by the presentation adapter.
const (
	ActionMenuNewTicket = "menu_new_ticket"
	ActionMenuUrgent    = "menu_urgent"
	ActionMenuFAQ       = "menu_faq"
	ActionMenuStatus    = "menu_status"
	ActionMenuOperator  = "menu_operator"

	ActionCloseFAQ = "close_faq"

	ActionFeedbackYes    = "feedback_yes"
	ActionFeedbackNo     = "feedback_no"
	ActionFeedbackMore   = "feedback_more"
	ActionFeedbackTicket = "feedback_ticket"

	ActionSimilarYes = "similar_yes"
	ActionSimilarNo  = "similar_no"

	ActionConfirmOperator = "confirm_operator"
	ActionCancelOperator  = "cancel_operator"

	ActionEscalateNone = "escalate_no"

	actionFAQPrefix            = "faq_"
	actionRefreshPrefix        = "refresh_"
	actionEscalateMenuPrefix   = "escalate_menu_"
	actionEscalateSecondPrefix = "escalate_second_"
	actionEscalateThirdPrefix  = "escalate_third_"
)

func faqAction(id int) string {
	return actionFAQPrefix + strconv.Itoa(id)
}

func parseFAQAction(actionID string) (int, bool) {
	raw, ok := strings.CutPrefix(actionID, actionFAQPrefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return id, true
}

func mainMenu() []Choice {
	return []Choice{
		{Label: "📝 Создать обращение", ActionID: ActionMenuNewTicket},
		{Label: "❓ Частые вопросы", ActionID: ActionMenuFAQ},
		{Label: "📊 Статус обращения", ActionID: ActionMenuStatus},
		{Label: "🆘 Срочная помощь", ActionID: ActionMenuUrgent},
		{Label: "👨‍💻 Связаться с оператором", ActionID: ActionMenuOperator},
	}
}

func feedbackChoices() []Choice {
	return []Choice{
		{Label: "✅ Да, помогло", ActionID: ActionFeedbackYes},
		{Label: "❌ Нет, не помогло", ActionID: ActionFeedbackNo},
		{Label: "🔄 Нужна дополнительная помощь", ActionID: ActionFeedbackMore},
		{Label: "📋 Создать обращение", ActionID: ActionFeedbackTicket},
	}
}

func similarChoices() []Choice {
	return []Choice{
		{Label: "✅ Да", ActionID: ActionSimilarYes},
		{Label: "❌ Нет", ActionID: ActionSimilarNo},
	}
}

func faqChoices(entries []knowledge.Entry) []Choice {
	choices := make([]Choice, 0, len(entries)+1)
	for _, entry := range entries {
		choices = append(choices, Choice{Label: entry.ShortQuestion, ActionID: faqAction(entry.ID)})
	}
	choices = append(choices, Choice{Label: "❌ Закрыть", ActionID: ActionCloseFAQ})
	return choices
}

func escalationChoices(ticketID string) []Choice {
	return []Choice{
		{Label: "📤 Эскалировать на 2-ю линию", ActionID: actionEscalateSecondPrefix + ticketID},
		{Label: "🚨 Эскалировать на 3-ю линию", ActionID: actionEscalateThirdPrefix + ticketID},
		{Label: "⏱ Оставить на текущей линии", ActionID: ActionEscalateNone},
	}
}

func ticketActionChoices(ticketID string) []Choice {
	return []Choice{
		{Label: "🔄 Обновить статус", ActionID: actionRefreshPrefix + ticketID},
		{Label: "🚨 Эскалировать", ActionID: actionEscalateMenuPrefix + ticketID},
	}
}

func operatorConfirmChoices() []Choice {
	return []Choice{
		{Label: "✅ Подтвердить подключение", ActionID: ActionConfirmOperator},
		{Label: "❌ Отмена", ActionID: ActionCancelOperator},
	}
}

func escalateTarget(actionID string) (ticketID string, prefix string, ok bool) {
	for _, candidate := range []string{actionEscalateSecondPrefix, actionEscalateThirdPrefix} {
		if rest, found := strings.CutPrefix(actionID, candidate); found {
			return rest, candidate, true
		}
	}
	return "", "", false
}

func refreshTarget(actionID string) (string, bool) {
	return strings.CutPrefix(actionID, actionRefreshPrefix)
}

func escalateMenuTarget(actionID string) (string, bool) {
	return strings.CutPrefix(actionID, actionEscalateMenuPrefix)
}

func truncate(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return fmt.Sprintf("%s...", string(runes[:max]))
}
