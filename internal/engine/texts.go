package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/spec-kit/support-assistant/internal/domain"
)

var greetings = []string{
	"привет", "здравствуйте", "добрый день", "доброе утро",
	"добрый вечер", "здравствуй", "hi", "hello",
}

const welcomeText = `Добро пожаловать в ассистента поддержки!

Что я умею:
• Анализировать ваши проблемы
• Находить решения в базе знаний
• Создавать обращения к специалистам поддержки
• Маршрутизировать сложные вопросы на нужную линию

Выберите действие или просто опишите вашу проблему.`

const helpText = `Помощь по использованию ассистента.

Команды:
/start — начать работу
/help — показать это сообщение
/stats — статистика (только для администраторов)

Меню:
📝 Создать обращение — обычное обращение в поддержку
🆘 Срочная помощь — только для критических проблем
❓ Частые вопросы — быстрые решения распространенных проблем
📊 Статус обращения — проверить статус ваших обращений
👨‍💻 Связаться с оператором — подключиться к живому специалисту

Как эффективно описать проблему:
1. Что случилось? 2. Где происходит? 3. Когда началось?
4. Что пробовали сделать? 5. Какая ошибка показывается?`

const greetingReply = `Здравствуйте! Я ассистент поддержки. Чем могу помочь?
Выберите действие в меню или опишите вашу проблему.`

const problemPromptText = `Создание нового обращения.

Рекомендуемая структура:
1. Что случилось? — краткое описание
2. Где происходит? — система, раздел, страница
3. Когда началось? — дата и время
4. Что ожидали? — ожидаемое поведение
5. Что видите? — сообщение об ошибке

Опишите вашу проблему или вопрос:`

const urgentPromptText = `СРОЧНОЕ ОБРАЩЕНИЕ — только высокий приоритет.

Этот раздел предназначен исключительно для:
• Полной недоступности критичных систем
• Остановки бизнес-процессов
• Финансовых ошибок в операциях
• Угроз безопасности данных

Не используйте для вопросов по настройке, консультаций
и медленной работы систем.

Опишите критичную проблему:`

const analyzingText = "🔍 Анализирую вашу проблему..."

const busyText = `Пожалуйста, дождитесь обработки текущего запроса.
Если вы хотите начать заново, отправьте /start.`

const humanForwardText = `Ваше сообщение передано специалисту.
Ожидайте ответа, среднее время — 5-7 минут.`

const intakeHintText = `Ассистент поддержки готов помочь!

Для эффективного решения:
1. Опишите проблему подробно
2. Укажите систему и время возникновения

Или выберите действие в меню.`

const faqMenuText = `Частые вопросы пользователей.
Выберите интересующий вас вопрос:`

const faqClosedText = "Меню частых вопросов закрыто"

const resolvedThanksText = `Отлично, рад, что смог помочь!
Если возникнут еще вопросы — обращайтесь.`

const feedbackPromptText = "Это решение помогло решить вашу проблему?"

const noTicketsText = `У вас нет активных обращений.
Чтобы создать новое, выберите "Создать обращение" в меню.`

const operatorQueueText = `Подключение к живому специалисту.

Текущее время ожидания: 5-7 минут.

Перед подключением подготовьте описание проблемы, название
системы и время возникновения ошибки.`

const operatorConfirmText = "Вы уверены, что хотите подключиться к оператору?"

const operatorCancelledText = "Подключение к оператору отменено."

const escalationKeptText = "Обращение осталось на текущей линии поддержки"

const similarIntroText = "Нашел похожие решения в истории обращений:"

const similarFollowupText = "Одно из этих решений помогло?"

const creatingTicketText = "Создаю обращение к специалисту поддержки..."

const notFoundCreatingText = "Решение не найдено в базе знаний. Создаю обращение к специалисту..."

const criticalCreatingText = "Проблема определена как критичная. Создаю обращение к специалисту..."

const escalationOfferText = `Проблема определена как критичная.
Эскалировать на более высокую линию поддержки?`

var statusDisplay = map[domain.TicketStatus][2]string{
	domain.TicketStatusCreated:              {"🟡 Принято в обработку", "Специалист анализирует проблему"},
	domain.TicketStatusInProgress:           {"🟢 В работе", "Решение находится в разработке"},
	domain.TicketStatusAwaitingInfo:         {"🔵 Ожидает уточнений", "Требуются дополнительные данные"},
	domain.TicketStatusAwaitingConfirmation: {"🟣 На согласовании", "Ожидается подтверждение решения"},
	domain.TicketStatusEscalatedSecond:      {"🟠 На 2-й линии", "Передано специалистам 2-й линии"},
	domain.TicketStatusEscalatedThird:       {"🔴 На 3-й линии", "Передано экспертам 3-й линии"},
	domain.TicketStatusResolved:             {"✅ Решено", "Проблема устранена"},
	domain.TicketStatusClosed:               {"⚫ Закрыто", "Обращение закрыто"},
}

func displayStatus(status domain.TicketStatus) (string, string) {
	if pair, ok := statusDisplay[status]; ok {
		return pair[0], pair[1]
	}
	return "⏳ Обрабатывается", "Статус обновляется"
}

// estimateResolution derives the user-facing ETA from status and priority.
func estimateResolution(ticket *domain.Ticket) string {
	switch {
	case ticket.Status == domain.TicketStatusCreated || ticket.Status == domain.TicketStatusInProgress:
		switch ticket.Priority {
		case domain.PriorityCritical:
			return "в течение 1 часа"
		case domain.PriorityHigh:
			return "1-2 часа"
		default:
			return "2-4 часа"
		}
	case ticket.Status == domain.TicketStatusEscalatedSecond || ticket.Status == domain.TicketStatusEscalatedThird:
		return "4-8 часов"
	case ticket.Status == domain.TicketStatusResolved:
		return "ожидает подтверждения"
	default:
		return "уточняется"
	}
}

func analysisSummary(cls *domain.Classification, answer string) string {
	return fmt.Sprintf(`Результат анализа.

Категория: %s
Подкатегория: %s
Критичность: %s

Рекомендованное решение:
%s

%s`, cls.Category, cls.Subcategory, strings.ToUpper(string(cls.Severity)), answer, feedbackPromptText)
}

func urgentRejectionText(cls *domain.Classification) string {
	return fmt.Sprintf(`Отклонено: проблема не соответствует критериям срочного обращения.

Определенный приоритет: %s
Категория: %s

Срочные обращения принимаются только для полной недоступности
критичных систем, остановки бизнес-процессов, финансовых ошибок
и угроз безопасности данных.

Используйте обычное создание обращения через меню.`,
		strings.ToUpper(string(cls.Severity)), cls.Category)
}

func admissionDeniedText(active, limit int) string {
	return fmt.Sprintf(`У вас слишком много активных обращений: %d из %d возможных.

Пожалуйста, дождитесь решения текущих проблем.
Используйте "Статус обращения" для проверки.`, active, limit)
}

const ticketFailureText = "Не удалось создать обращение, попробуйте позже"

func ticketCreatedText(ticket *domain.Ticket) string {
	lineName := "1-ю линию"
	if ticket.AssignedTier != domain.TierFirst {
		lineName = "2-ю линию"
	}
	eta := "30 минут"
	if ticket.Severity.IsUrgent() {
		eta = "15 минут"
	}
	return fmt.Sprintf(`Обращение создано!

ID: %s
Категория: %s
Приоритет: %s
Назначено: на %s поддержки
Ожидайте ответа: в течение %s

Следите за статусом через "Статус обращения".`,
		ticket.ID, ticket.Category, ticket.Priority, lineName, eta)
}

func urgentTicketCreatedText(ticket *domain.Ticket) string {
	return fmt.Sprintf(`СРОЧНОЕ ОБРАЩЕНИЕ ПРИНЯТО!

ID: %s
Категория: %s
Приоритет: КРИТИЧЕСКИЙ
Назначено: 2-я линия поддержки
Ожидайте ответа: в течение 15 минут

С вами свяжется старший специалист.`, ticket.ID, ticket.Category)
}

func ticketStatusText(ticket *domain.Ticket, now time.Time) string {
	status, description := displayStatus(ticket.Status)
	inWork := now.Sub(ticket.CreatedAt)
	hours := int(inWork.Hours())
	minutes := int(inWork.Minutes()) % 60

	var updates strings.Builder
	history := ticket.History
	if len(history) > 3 {
		history = history[len(history)-3:]
	}
	for _, entry := range history {
		fmt.Fprintf(&updates, "• %s: %s\n", entry.Timestamp.Format("15:04"), entry.Message)
	}

	return fmt.Sprintf(`Статус обращения.

Номер: %s
Создано: %s
В работе: %dч %dмин

Статус: %s
Описание: %s

Проблема: %s
Приоритет: %s
Ожидаемое решение: %s

Последние обновления:
%s`,
		ticket.ID,
		ticket.CreatedAt.Format("02.01.2006 15:04"),
		hours, minutes,
		status, description,
		truncate(ticket.Problem, 80),
		ticket.Priority,
		estimateResolution(ticket),
		updates.String())
}

func ticketRefreshedText(ticket *domain.Ticket) string {
	status, _ := displayStatus(ticket.Status)
	lastMessage := "Нет обновлений"
	if entry, ok := ticket.LastUpdate(); ok {
		lastMessage = entry.Message
	}
	return fmt.Sprintf(`Статус обновлен.

Тикет: %s
Статус: %s
Последнее обновление: %s`, ticket.ID, status, lastMessage)
}

func activeTicketOperatorText(ticket *domain.Ticket) string {
	status, _ := displayStatus(ticket.Status)
	return fmt.Sprintf(`У вас уже есть активное обращение.

Номер обращения: %s
Статус: %s

Рекомендуем продолжить общение по текущему обращению или
использовать кнопку ниже для приоритетного подключения.`, ticket.ID, status)
}

func operatorConnectedText(ticketID string) string {
	return fmt.Sprintf(`Подключаю вас к специалисту поддержки...

Обращение создано: %s
Специалист свяжется с вами в течение 15 минут.`, ticketID)
}
