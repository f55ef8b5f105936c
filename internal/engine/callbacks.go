package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/support-assistant/internal/classifier"
	"github.com/spec-kit/support-assistant/internal/domain"
	"github.com/spec-kit/support-assistant/internal/events"
	"github.com/spec-kit/support-assistant/internal/observability"
	"github.com/spec-kit/support-assistant/internal/session"
)

// OnUserAction handles a choice the user selected from a previous plan.
// Unknown or stale action ids fall back to the intake hint with the main
// menu instead of failing.
func (e *Engine) OnUserAction(ctx context.Context, userID, actionID string) (*Plan, error) {
	unlock := e.lockUser(userID)
	defer unlock()

	sess, err := e.loadSession(ctx, userID)
	if err != nil {
		return nil, err
	}
	e.metrics.IncrCounter(observability.CounterMessages)

	plan := &Plan{}

	switch actionID {
	case ActionMenuNewTicket:
		e.startIntake(plan, sess)
	case ActionMenuUrgent:
		e.startUrgentIntake(plan, sess)
	case ActionMenuFAQ:
		plan.offer(faqMenuText, faqChoices(e.kb.Entries()))
	case ActionMenuStatus:
		e.showLatestStatus(ctx, plan, sess)
	case ActionMenuOperator:
		e.startOperatorFlow(ctx, plan, sess)
	case ActionConfirmOperator:
		e.connectOperator(ctx, plan, sess)
	case ActionCancelOperator:
		plan.replace(operatorCancelledText, mainMenu())
	case ActionCloseFAQ:
		plan.replace(faqClosedText, nil)
	case ActionFeedbackYes:
		e.resolveConversation(ctx, plan, sess)
	case ActionFeedbackNo, ActionFeedbackTicket:
		problem, cls := pendingProblem(sess)
		plan.replace(creatingTicketText, nil)
		e.createTicketFlow(ctx, plan, sess, problem, cls, false)
	case ActionFeedbackMore:
		e.offerSimilarResolutions(plan, sess)
	case ActionSimilarYes:
		e.publish(ctx, events.Event{
			Type:    events.EventConversationResolved,
			UserID:  sess.UserID,
			Payload: events.ConversationResolvedPayload{Source: "similar_tickets"},
		})
		sess.Reset()
		plan.replace(resolvedThanksText, nil)
	case ActionSimilarNo:
		problem, cls := pendingProblem(sess)
		plan.replace(creatingTicketText, nil)
		e.createTicketFlow(ctx, plan, sess, problem, cls, false)
	case ActionEscalateNone:
		plan.say(escalationKeptText)
		sess.Reset()
	default:
		e.dispatchPrefixed(ctx, plan, sess, actionID)
	}

	return plan, e.saveSession(ctx, sess)
}

// dispatchPrefixed handles the parameterized action families: FAQ entry
// selection, status refresh and the escalation menu and targets.
func (e *Engine) dispatchPrefixed(ctx context.Context, plan *Plan, sess *session.Session, actionID string) {
	if faqID, ok := parseFAQAction(actionID); ok {
		e.answerFAQ(plan, sess, faqID)
		return
	}
	if ticketID, ok := refreshTarget(actionID); ok {
		e.refreshStatus(ctx, plan, ticketID)
		return
	}
	if ticketID, ok := escalateMenuTarget(actionID); ok {
		body := fmt.Sprintf("Выберите линию эскалации для обращения %s:", ticketID)
		plan.offer(body, escalationChoices(ticketID))
		return
	}
	if ticketID, prefix, ok := escalateTarget(actionID); ok {
		e.escalateTicket(ctx, plan, sess, ticketID, prefix)
		return
	}
	plan.offer(intakeHintText, mainMenu())
}

// startIntake opens the normal problem prompt, refusing when the user
// already holds too many open tickets.
func (e *Engine) startIntake(plan *Plan, sess *session.Session) {
	if err := e.admitTicket(sess.UserID, e.cfg.NormalTicketCap); err != nil {
		e.metrics.IncrCounter(observability.CounterAdmissionsDenied)
		plan.say(admissionDeniedMessage(err))
		return
	}
	sess.State = session.StateAwaitingProblem
	sess.Pending = nil
	plan.say(problemPromptText)
}

// startUrgentIntake opens the urgent prompt under the stricter cap.
func (e *Engine) startUrgentIntake(plan *Plan, sess *session.Session) {
	if err := e.admitTicket(sess.UserID, e.cfg.UrgentTicketCap); err != nil {
		e.metrics.IncrCounter(observability.CounterAdmissionsDenied)
		plan.say(admissionDeniedMessage(err))
		return
	}
	sess.State = session.StateAwaitingUrgentProblem
	sess.Pending = nil
	plan.say(urgentPromptText)
}

// showLatestStatus renders the user's most recent ticket with its refresh
// and escalation actions. The read itself advances the simulated SLA clock.
func (e *Engine) showLatestStatus(ctx context.Context, plan *Plan, sess *session.Session) {
	id, ok := e.tickets.LatestForUser(sess.UserID)
	if !ok {
		plan.offer(noTicketsText, mainMenu())
		return
	}
	ticket, err := e.tickets.GetStatus(ctx, id)
	if err != nil {
		plan.offer(noTicketsText, mainMenu())
		return
	}
	plan.offer(ticketStatusText(ticket, time.Now()), ticketActionChoices(ticket.ID))
}

func (e *Engine) refreshStatus(ctx context.Context, plan *Plan, ticketID string) {
	ticket, err := e.tickets.GetStatus(ctx, ticketID)
	if err != nil {
		plan.say("Обращение не найдено")
		return
	}
	plan.replace(ticketRefreshedText(ticket), ticketActionChoices(ticket.ID))
}

func (e *Engine) escalateTicket(ctx context.Context, plan *Plan, sess *session.Session, ticketID, prefix string) {
	target := domain.TierSecond
	reason := "Ручная эскалация пользователем"
	lineName := "2-ю линию"
	if prefix == actionEscalateThirdPrefix {
		target = domain.TierThird
		reason = "Критичная проблема, требуется экспертиза"
		lineName = "3-ю линию"
	}

	ticket, err := e.tickets.Escalate(ctx, ticketID, reason, target)
	if err != nil {
		plan.say("Обращение не найдено")
		return
	}
	e.metrics.IncrCounter(observability.CounterTicketsEscalated)
	e.logger.Info("ticket escalated by user",
		zap.String("ticket_id", ticket.ID),
		zap.String("tier", string(target)))

	plan.say(fmt.Sprintf(`Обращение %s эскалировано на %s поддержки.
Новый приоритет: %s
С вами свяжется специалист более высокого уровня.`, ticket.ID, lineName, ticket.Priority))
	sess.Reset()
}

// answerFAQ shows the selected FAQ entry and moves to solution evaluation.
func (e *Engine) answerFAQ(plan *Plan, sess *session.Session, faqID int) {
	entry, err := e.kb.ByID(faqID)
	if err != nil {
		plan.say("Вопрос не найден, выберите другой из меню")
		return
	}
	e.metrics.IncrCounter(observability.CounterFAQHits)
	sess.Pending = &session.ProblemContext{Problem: entry.Question, FAQID: entry.ID}
	sess.State = session.StateEvaluatingSolution
	plan.replace(entry.Answer+"\n\n"+feedbackPromptText, feedbackChoices())
}

// resolveConversation closes the loop after positive feedback.
func (e *Engine) resolveConversation(ctx context.Context, plan *Plan, sess *session.Session) {
	source := "auto_answer"
	if sess.Pending != nil && sess.Pending.FAQID != 0 {
		source = "faq"
	}
	e.publish(ctx, events.Event{
		Type:    events.EventConversationResolved,
		UserID:  sess.UserID,
		Payload: events.ConversationResolvedPayload{Source: source},
	})
	sess.Reset()
	plan.replace(resolvedThanksText, nil)
}

// offerSimilarResolutions lists mocked past resolutions for the pending
// problem and asks whether any of them helped.
func (e *Engine) offerSimilarResolutions(plan *Plan, sess *session.Session) {
	problem, _ := pendingProblem(sess)

	var body strings.Builder
	body.WriteString(similarIntroText)
	body.WriteString("\n\n")
	for i, resolution := range e.kb.SimilarResolutions(problem) {
		fmt.Fprintf(&body, "%d. %s — %s (%s)\n", i+1,
			resolution.Problem, resolution.Solution, resolution.Status)
	}
	body.WriteString("\n")
	body.WriteString(similarFollowupText)

	sess.State = session.StateAwaitingSimilarFeedback
	plan.replace(body.String(), similarChoices())
}

// startOperatorFlow either points at the already-active ticket or asks for
// confirmation before queueing a new operator request.
func (e *Engine) startOperatorFlow(ctx context.Context, plan *Plan, sess *session.Session) {
	if id, ok := e.tickets.LatestForUser(sess.UserID); ok {
		if ticket, err := e.tickets.GetStatus(ctx, id); err == nil && ticket.Status.IsOpen() {
			plan.offer(activeTicketOperatorText(ticket), operatorConfirmChoices())
			return
		}
	}
	plan.say(operatorQueueText)
	plan.offer(operatorConfirmText, operatorConfirmChoices())
}

// connectOperator opens the operator-request ticket and parks the session
// in human support. Admission control does not apply here: the request
// continues the user's existing problem rather than opening another one.
func (e *Engine) connectOperator(ctx context.Context, plan *Plan, sess *session.Session) {
	problem := "Запрос на подключение к оператору"
	if sess.Pending != nil && sess.Pending.Problem != "" {
		problem = "Оператор: " + truncate(sess.Pending.Problem, 100)
	}

	ticket, err := e.tickets.Create(ctx, sess.UserID, problem,
		"Подключение к оператору", domain.SeverityHigh)
	if err != nil {
		plan.say(ticketFailureText)
		return
	}
	e.metrics.IncrCounter(observability.CounterTicketsCreated)
	e.logger.Info("operator requested",
		zap.String("ticket_id", ticket.ID),
		zap.String("user_id", sess.UserID))

	sess.Pending = nil
	sess.TicketID = ticket.ID
	sess.State = session.StateInHumanSupport
	plan.replace(operatorConnectedText(ticket.ID), nil)
}

// pendingProblem extracts the in-flight problem for ticket creation. Stale
// callbacks without scratch context fall back to a generic description.
func pendingProblem(sess *session.Session) (string, *domain.Classification) {
	if sess.Pending == nil || sess.Pending.Problem == "" {
		return "Проблема не решена автоматическим ассистентом", nil
	}
	cls := sess.Pending.Classification
	if cls == nil && sess.Pending.FAQID != 0 {
		faqCls := classifier.Classify(sess.Pending.Problem)
		cls = &faqCls
	}
	return sess.Pending.Problem, cls
}
