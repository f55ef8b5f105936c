package engine

import (
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/spec-kit/support-assistant/internal/domain"
	"github.com/spec-kit/support-assistant/internal/events"
	"github.com/spec-kit/support-assistant/internal/knowledge"
	"github.com/spec-kit/support-assistant/internal/observability"
	"github.com/spec-kit/support-assistant/internal/session"
	"github.com/spec-kit/support-assistant/internal/ticket"
	"github.com/spec-kit/support-assistant/pkg/errorutil"
)

type testHarness struct {
	engine   *Engine
	sessions session.Store
	tickets  *ticket.Store
	metrics  *observability.Metrics
}

func newTestHarness(t *testing.T, adminIDs ...string) *testHarness {
	t.Helper()
	sessions := session.NewMemoryStore()
	dispatcher := events.NewInMemoryDispatcher()
	tickets := ticket.NewStore(ticket.DefaultConfig(), dispatcher)
	metrics := observability.NewMetrics()

	cfg := DefaultConfig()
	cfg.AdminIDs = adminIDs
	eng := New(cfg, Dependencies{
		Sessions:   sessions,
		Tickets:    tickets,
		Knowledge:  knowledge.NewBase(knowledge.DefaultEntries()),
		Dispatcher: dispatcher,
		Logger:     zap.NewNop(),
		Metrics:    metrics,
	})
	return &testHarness{engine: eng, sessions: sessions, tickets: tickets, metrics: metrics}
}

func (h *testHarness) state(t *testing.T, userID string) session.State {
	t.Helper()
	sess, err := h.sessions.Get(context.Background(), userID)
	if err != nil {
		t.Fatalf("session get: %v", err)
	}
	if sess == nil {
		return session.StateIdle
	}
	return sess.State
}

func lastMessage(t *testing.T, plan *Plan) Message {
	t.Helper()
	if plan == nil || len(plan.Messages) == 0 {
		t.Fatal("empty plan")
	}
	return plan.Messages[len(plan.Messages)-1]
}

func TestGreetingFromIdle(t *testing.T) {
	h := newTestHarness(t)
	plan, err := h.engine.OnUserText(context.Background(), "u1", "Привет!")
	if err != nil {
		t.Fatalf("OnUserText: %v", err)
	}
	msg := lastMessage(t, plan)
	if msg.Body != greetingReply {
		t.Fatalf("body = %q", msg.Body)
	}
	if len(msg.Choices) != 5 {
		t.Fatalf("main menu has %d choices, want 5", len(msg.Choices))
	}
	if got := h.state(t, "u1"); got != session.StateIdle {
		t.Fatalf("state = %s, want idle", got)
	}
}

func TestStartCommandResetsAndShowsMenu(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	if _, err := h.engine.OnUserAction(ctx, "u1", ActionMenuNewTicket); err != nil {
		t.Fatal(err)
	}
	plan, err := h.engine.OnUserText(ctx, "u1", "/start")
	if err != nil {
		t.Fatal(err)
	}
	if lastMessage(t, plan).Body != welcomeText {
		t.Fatal("welcome text not shown")
	}
	if got := h.state(t, "u1"); got != session.StateIdle {
		t.Fatalf("state = %s, /start must reset to idle", got)
	}
}

func TestHighSeverityProblemOpensSecondLineTicket(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	plan, err := h.engine.OnUserText(ctx, "u1", "Не могу войти в систему, забыл пароль")
	if err != nil {
		t.Fatal(err)
	}

	ids := h.tickets.ListForUser("u1")
	if len(ids) != 1 {
		t.Fatalf("tickets = %d, want 1", len(ids))
	}
	created, _ := h.tickets.GetStatus(ctx, ids[0])
	if created.Severity != domain.SeverityHigh {
		t.Fatalf("severity = %s, want high", created.Severity)
	}
	if created.AssignedTier != domain.TierSecond || created.Priority != domain.PriorityHigh {
		t.Fatalf("tier/priority = %s/%s", created.AssignedTier, created.Priority)
	}

	// An urgent-rated ticket comes with an escalation offer.
	msg := lastMessage(t, plan)
	if msg.Body != escalationOfferText {
		t.Fatalf("last message = %q", msg.Body)
	}
	if len(msg.Choices) != 3 {
		t.Fatalf("escalation offer has %d choices, want 3", len(msg.Choices))
	}
	if got := h.state(t, "u1"); got != session.StateAwaitingFeedbackTicket {
		t.Fatalf("state = %s", got)
	}
}

func TestLowConfidenceProblemOpensFirstLineTicket(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	if _, err := h.engine.OnUserAction(ctx, "u1", ActionMenuNewTicket); err != nil {
		t.Fatal(err)
	}
	if got := h.state(t, "u1"); got != session.StateAwaitingProblem {
		t.Fatalf("state = %s", got)
	}

	// Confidence 0.65 sits below the auto-answer bar, so the fallback answer
	// is skipped and a ticket is opened instead.
	if _, err := h.engine.OnUserText(ctx, "u1", "Как настроить уведомления в системе"); err != nil {
		t.Fatal(err)
	}

	ids := h.tickets.ListForUser("u1")
	if len(ids) != 1 {
		t.Fatalf("tickets = %d, want 1", len(ids))
	}
	created, _ := h.tickets.GetStatus(ctx, ids[0])
	if created.AssignedTier != domain.TierFirst || created.Priority != domain.PriorityMedium {
		t.Fatalf("tier/priority = %s/%s, want first line, medium", created.AssignedTier, created.Priority)
	}
	if created.Severity != domain.SeverityLow {
		t.Fatalf("severity = %s", created.Severity)
	}
}

func TestAutoAnswerThenPositiveFeedback(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	plan, err := h.engine.OnUserText(ctx, "u1", "Не приходит почта, постоянная ошибка")
	if err != nil {
		t.Fatal(err)
	}
	msg := lastMessage(t, plan)
	if !msg.DeletePrevious {
		t.Fatal("analysis summary must replace the transient analyzing notice")
	}
	if len(msg.Choices) != 4 {
		t.Fatalf("feedback menu has %d choices, want 4", len(msg.Choices))
	}
	if got := h.state(t, "u1"); got != session.StateEvaluatingSolution {
		t.Fatalf("state = %s", got)
	}
	if len(h.tickets.ListForUser("u1")) != 0 {
		t.Fatal("auto answer must not open a ticket")
	}

	plan, err = h.engine.OnUserAction(ctx, "u1", ActionFeedbackYes)
	if err != nil {
		t.Fatal(err)
	}
	if lastMessage(t, plan).Body != resolvedThanksText {
		t.Fatal("thanks not shown")
	}
	if got := h.state(t, "u1"); got != session.StateIdle {
		t.Fatalf("state = %s, want idle", got)
	}
}

func TestNegativeFeedbackOpensTicketWithOriginalProblem(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	problem := "Не приходит почта, постоянная ошибка"
	if _, err := h.engine.OnUserText(ctx, "u1", problem); err != nil {
		t.Fatal(err)
	}
	if _, err := h.engine.OnUserAction(ctx, "u1", ActionFeedbackNo); err != nil {
		t.Fatal(err)
	}

	ids := h.tickets.ListForUser("u1")
	if len(ids) != 1 {
		t.Fatalf("tickets = %d, want 1", len(ids))
	}
	created, _ := h.tickets.GetStatus(ctx, ids[0])
	if created.Problem != problem {
		t.Fatalf("problem = %q, original text must carry over", created.Problem)
	}
	if got := h.state(t, "u1"); got != session.StateAwaitingFeedbackTicket {
		t.Fatalf("state = %s", got)
	}
}

func TestSimilarResolutionsPath(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	if _, err := h.engine.OnUserText(ctx, "u1", "Не приходит почта, постоянная ошибка"); err != nil {
		t.Fatal(err)
	}
	plan, err := h.engine.OnUserAction(ctx, "u1", ActionFeedbackMore)
	if err != nil {
		t.Fatal(err)
	}
	msg := lastMessage(t, plan)
	if !strings.Contains(msg.Body, similarIntroText) || !strings.Contains(msg.Body, "Обновить права доступа") {
		t.Fatalf("similar resolutions not listed: %q", msg.Body)
	}
	if len(msg.Choices) != 2 {
		t.Fatalf("similar menu has %d choices, want 2", len(msg.Choices))
	}
	if got := h.state(t, "u1"); got != session.StateAwaitingSimilarFeedback {
		t.Fatalf("state = %s", got)
	}

	if _, err := h.engine.OnUserAction(ctx, "u1", ActionSimilarNo); err != nil {
		t.Fatal(err)
	}
	if len(h.tickets.ListForUser("u1")) != 1 {
		t.Fatal("declined similar resolutions must open a ticket")
	}
}

func TestUrgentIntakeRejectsNonUrgentProblem(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	if _, err := h.engine.OnUserAction(ctx, "u1", ActionMenuUrgent); err != nil {
		t.Fatal(err)
	}
	if got := h.state(t, "u1"); got != session.StateAwaitingUrgentProblem {
		t.Fatalf("state = %s", got)
	}

	plan, err := h.engine.OnUserText(ctx, "u1", "медленно работает система")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(lastMessage(t, plan).Body, "Отклонено") {
		t.Fatalf("rejection not shown: %q", lastMessage(t, plan).Body)
	}
	if len(h.tickets.ListForUser("u1")) != 0 {
		t.Fatal("rejected urgent request must not open a ticket")
	}
	if got := h.state(t, "u1"); got != session.StateIdle {
		t.Fatalf("state = %s, want idle", got)
	}
	if h.metrics.CounterValue(observability.CounterUrgentRejected) != 1 {
		t.Fatal("urgent_rejected counter not bumped")
	}
}

func TestUrgentIntakeCreatesCriticalAndAutoEscalates(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	if _, err := h.engine.OnUserAction(ctx, "u1", ActionMenuUrgent); err != nil {
		t.Fatal(err)
	}
	if _, err := h.engine.OnUserText(ctx, "u1", "Срочно! Вся система полностью недоступна"); err != nil {
		t.Fatal(err)
	}

	ids := h.tickets.ListForUser("u1")
	if len(ids) != 1 {
		t.Fatalf("tickets = %d, want 1", len(ids))
	}
	created, _ := h.tickets.GetStatus(ctx, ids[0])
	if created.Severity != domain.SeverityCritical {
		t.Fatalf("severity = %s", created.Severity)
	}
	if !strings.HasPrefix(created.Problem, "СРОЧНО: ") {
		t.Fatalf("problem = %q, urgent marker missing", created.Problem)
	}
	if created.Status != domain.TicketStatusEscalatedSecond {
		t.Fatalf("status = %s, want auto escalation to the second line", created.Status)
	}
	if got := h.state(t, "u1"); got != session.StateIdle {
		t.Fatalf("state = %s", got)
	}
}

func TestNormalAdmissionCap(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := h.tickets.Create(ctx, "u1", "проблема", "Общая техническая проблема", domain.SeverityMedium); err != nil {
			t.Fatal(err)
		}
	}

	plan, err := h.engine.OnUserAction(ctx, "u1", ActionMenuNewTicket)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(lastMessage(t, plan).Body, "3 из 3") {
		t.Fatalf("admission denial not shown: %q", lastMessage(t, plan).Body)
	}
	if got := h.state(t, "u1"); got != session.StateIdle {
		t.Fatalf("state = %s, denied intake must not open the prompt", got)
	}

	// Resolving one ticket frees a slot.
	ids := h.tickets.ListForUser("u1")
	if _, err := h.tickets.Resolve(ctx, ids[0], ""); err != nil {
		t.Fatal(err)
	}
	if _, err := h.engine.OnUserAction(ctx, "u1", ActionMenuNewTicket); err != nil {
		t.Fatal(err)
	}
	if got := h.state(t, "u1"); got != session.StateAwaitingProblem {
		t.Fatalf("state = %s, want awaiting_problem", got)
	}
}

func TestUrgentAdmissionCapIsStricter(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := h.tickets.Create(ctx, "u1", "проблема", "Общая техническая проблема", domain.SeverityMedium); err != nil {
			t.Fatal(err)
		}
	}

	plan, err := h.engine.OnUserAction(ctx, "u1", ActionMenuUrgent)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(lastMessage(t, plan).Body, "2 из 2") {
		t.Fatalf("denial not shown: %q", lastMessage(t, plan).Body)
	}
	if got := h.state(t, "u1"); got != session.StateIdle {
		t.Fatalf("state = %s", got)
	}
}

func TestOperatorFlow(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	plan, err := h.engine.OnUserAction(ctx, "u1", ActionMenuOperator)
	if err != nil {
		t.Fatal(err)
	}
	msg := lastMessage(t, plan)
	if msg.Body != operatorConfirmText || len(msg.Choices) != 2 {
		t.Fatalf("confirmation prompt missing: %+v", msg)
	}

	if _, err := h.engine.OnUserAction(ctx, "u1", ActionConfirmOperator); err != nil {
		t.Fatal(err)
	}
	ids := h.tickets.ListForUser("u1")
	if len(ids) != 1 {
		t.Fatal("operator request must open a ticket")
	}
	created, _ := h.tickets.GetStatus(ctx, ids[0])
	if created.Severity != domain.SeverityHigh || created.AssignedTier != domain.TierSecond {
		t.Fatalf("operator ticket = %s/%s, want high severity on the second line",
			created.Severity, created.AssignedTier)
	}
	if got := h.state(t, "u1"); got != session.StateInHumanSupport {
		t.Fatalf("state = %s", got)
	}

	// Subsequent text is acknowledged as forwarded, not reprocessed.
	plan, err = h.engine.OnUserText(ctx, "u1", "добавлю подробности")
	if err != nil {
		t.Fatal(err)
	}
	if lastMessage(t, plan).Body != humanForwardText {
		t.Fatalf("body = %q", lastMessage(t, plan).Body)
	}
	if len(h.tickets.ListForUser("u1")) != 1 {
		t.Fatal("forwarded text must not open another ticket")
	}
}

func TestIdleTextMatchingFAQQuestionAnswersDirectly(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	plan, err := h.engine.OnUserText(ctx, "u1", "Не работает доступ к системе")
	if err != nil {
		t.Fatal(err)
	}
	msg := lastMessage(t, plan)
	if !strings.Contains(msg.Body, "Для восстановления доступа") {
		t.Fatalf("faq answer not shown: %q", msg.Body)
	}
	if len(msg.Choices) != 4 {
		t.Fatalf("feedback menu has %d choices, want 4", len(msg.Choices))
	}
	if got := h.state(t, "u1"); got != session.StateEvaluatingSolution {
		t.Fatalf("state = %s", got)
	}
	if h.metrics.CounterValue(observability.CounterFAQHits) != 1 {
		t.Fatal("faq_hits counter not bumped")
	}
}

func TestFAQMenuAndSelection(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	plan, err := h.engine.OnUserAction(ctx, "u1", ActionMenuFAQ)
	if err != nil {
		t.Fatal(err)
	}
	msg := lastMessage(t, plan)
	if len(msg.Choices) != 7 {
		t.Fatalf("faq menu has %d choices, want 6 entries plus close", len(msg.Choices))
	}

	plan, err = h.engine.OnUserAction(ctx, "u1", "faq_6")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(lastMessage(t, plan).Body, "Процедура сброса") {
		t.Fatalf("entry answer not shown: %q", lastMessage(t, plan).Body)
	}
	if got := h.state(t, "u1"); got != session.StateEvaluatingSolution {
		t.Fatalf("state = %s", got)
	}

	plan, err = h.engine.OnUserAction(ctx, "u1", ActionCloseFAQ)
	if err != nil {
		t.Fatal(err)
	}
	if lastMessage(t, plan).Body != faqClosedText {
		t.Fatal("close acknowledgement missing")
	}
}

func TestManualEscalationToThirdLine(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	created, err := h.tickets.Create(ctx, "u1", "проблема", "Общая техническая проблема", domain.SeverityMedium)
	if err != nil {
		t.Fatal(err)
	}

	plan, err := h.engine.OnUserAction(ctx, "u1", actionEscalateThirdPrefix+created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(lastMessage(t, plan).Body, "3-ю линию") {
		t.Fatalf("escalation acknowledgement missing: %q", lastMessage(t, plan).Body)
	}

	escalated, _ := h.tickets.GetStatus(ctx, created.ID)
	if escalated.Status != domain.TicketStatusEscalatedThird {
		t.Fatalf("status = %s", escalated.Status)
	}
	if escalated.Priority != domain.PriorityCritical {
		t.Fatalf("priority = %s", escalated.Priority)
	}
	if got := h.state(t, "u1"); got != session.StateIdle {
		t.Fatalf("state = %s", got)
	}
}

func TestAdminAllowList(t *testing.T) {
	h := newTestHarness(t, "admin1")
	ctx := context.Background()

	if _, err := h.tickets.Create(ctx, "u1", "проблема", "Общая техническая проблема", domain.SeverityMedium); err != nil {
		t.Fatal(err)
	}

	report, err := h.engine.Stats("admin1")
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if report.TotalTickets != 1 || report.FAQEntries != 6 {
		t.Fatalf("report = %+v", report)
	}

	if _, err := h.engine.Stats("u1"); !errorutil.IsCode(err, "UNAUTHORIZED") {
		t.Fatalf("error = %v, want UNAUTHORIZED", err)
	}
	if _, err := h.engine.RefreshKnowledgeBase("u1"); !errorutil.IsCode(err, "UNAUTHORIZED") {
		t.Fatalf("error = %v, want UNAUTHORIZED", err)
	}

	// The chat command degrades to a polite refusal instead of an error.
	plan, err := h.engine.OnUserText(ctx, "u1", "/stats")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(lastMessage(t, plan).Body, "нет доступа") {
		t.Fatalf("body = %q", lastMessage(t, plan).Body)
	}
}

func TestUnknownActionFallsBackToMenu(t *testing.T) {
	h := newTestHarness(t)
	plan, err := h.engine.OnUserAction(context.Background(), "u1", "bogus_action")
	if err != nil {
		t.Fatal(err)
	}
	msg := lastMessage(t, plan)
	if msg.Body != intakeHintText || len(msg.Choices) != 5 {
		t.Fatalf("fallback missing: %+v", msg)
	}
}
