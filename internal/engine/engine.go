// Package engine implements the conversation state machine: it sequences a
// user through problem intake, automated-answer evaluation, feedback and
// escalation/ticket tracking. It consumes user text and action events and
// produces response plans for the presentation adapter.
package engine

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/support-assistant/internal/classifier"
	"github.com/spec-kit/support-assistant/internal/domain"
	"github.com/spec-kit/support-assistant/internal/events"
	"github.com/spec-kit/support-assistant/internal/knowledge"
	"github.com/spec-kit/support-assistant/internal/observability"
	"github.com/spec-kit/support-assistant/internal/session"
	"github.com/spec-kit/support-assistant/internal/ticket"
	"github.com/spec-kit/support-assistant/pkg/errorutil"
)

// Config tunes routing decisions and admission control.
type Config struct {
	AdminIDs []string

	// NormalTicketCap refuses a new ticket when the user already has this
	// many open ones; UrgentTicketCap is the stricter cap for urgent intake.
	NormalTicketCap int
	UrgentTicketCap int

	// AutoAnswerConfidence is the classification-confidence bar a knowledge
	// answer must clear to be presented instead of opening a ticket.
	AutoAnswerConfidence float64
}

// DefaultConfig returns the reference thresholds.
func DefaultConfig() Config {
	return Config{
		NormalTicketCap:      3,
		UrgentTicketCap:      2,
		AutoAnswerConfidence: 0.7,
	}
}

// Dependencies bundles collaborators for the engine.
type Dependencies struct {
	Sessions   session.Store
	Tickets    *ticket.Store
	Knowledge  *knowledge.Base
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Metrics    *observability.Metrics
}

// Engine drives conversations. Each inbound event for a given user is
// processed to completion before the next is accepted for that user;
// different users proceed concurrently.
type Engine struct {
	cfg        Config
	sessions   session.Store
	tickets    *ticket.Store
	kb         *knowledge.Base
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
	admins     map[string]struct{}
	userLocks  sync.Map
}

// New constructs the engine.
func New(cfg Config, deps Dependencies) *Engine {
	admins := make(map[string]struct{}, len(cfg.AdminIDs))
	for _, id := range cfg.AdminIDs {
		admins[id] = struct{}{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		cfg:        cfg,
		sessions:   deps.Sessions,
		tickets:    deps.Tickets,
		kb:         deps.Knowledge,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		metrics:    deps.Metrics,
		admins:     admins,
	}
}

// IsAdmin checks the static allow-list for privileged operations.
func (e *Engine) IsAdmin(userID string) bool {
	_, ok := e.admins[userID]
	return ok
}

// OnUserText handles a free-text message from the user.
func (e *Engine) OnUserText(ctx context.Context, userID, text string) (*Plan, error) {
	unlock := e.lockUser(userID)
	defer unlock()

	sess, err := e.loadSession(ctx, userID)
	if err != nil {
		return nil, err
	}
	e.metrics.IncrCounter(observability.CounterMessages)

	plan := &Plan{}
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "/") {
		e.handleCommand(ctx, plan, sess, text)
		return plan, e.saveSession(ctx, sess)
	}

	switch sess.State {
	case session.StateIdle:
		e.handleIdleText(ctx, plan, sess, text)
	case session.StateAwaitingProblem:
		e.handleProblemText(ctx, plan, sess, text)
	case session.StateAwaitingUrgentProblem:
		e.handleUrgentText(ctx, plan, sess, text)
	case session.StateInHumanSupport:
		// Conceptually forwarded to the assigned specialist.
		plan.say(humanForwardText)
	default:
		plan.say(busyText)
	}

	return plan, e.saveSession(ctx, sess)
}

func (e *Engine) handleCommand(ctx context.Context, plan *Plan, sess *session.Session, text string) {
	command := strings.Fields(text)[0]
	switch command {
	case "/start":
		sess.Reset()
		plan.offer(welcomeText, mainMenu())
	case "/help":
		plan.say(helpText)
	case "/stats":
		report, err := e.Stats(sess.UserID)
		if err != nil {
			plan.say("У вас нет доступа к этой команде")
			return
		}
		plan.say(report.Text())
	case "/update_kb":
		ack, err := e.RefreshKnowledgeBase(sess.UserID)
		if err != nil {
			plan.say("У вас нет доступа к этой команде")
			return
		}
		plan.say(ack)
	default:
		plan.offer(intakeHintText, mainMenu())
	}
}

// handleIdleText routes idle free text: greetings get a welcome, text that
// hits an FAQ entry gets that answer directly, and everything else is
// treated as the start of problem intake and reprocessed in that state.
func (e *Engine) handleIdleText(ctx context.Context, plan *Plan, sess *session.Session, text string) {
	folded := strings.ToLower(text)
	for _, greeting := range greetings {
		if strings.Contains(folded, greeting) {
			plan.offer(greetingReply, mainMenu())
			return
		}
	}

	for _, entry := range e.kb.Entries() {
		if knowledge.MatchesQuestion(entry, text) {
			e.metrics.IncrCounter(observability.CounterFAQHits)
			sess.Pending = &session.ProblemContext{Problem: entry.Question, FAQID: entry.ID}
			sess.State = session.StateEvaluatingSolution
			plan.offer(entry.Answer+"\n\n"+feedbackPromptText, feedbackChoices())
			return
		}
	}

	sess.State = session.StateAwaitingProblem
	e.handleProblemText(ctx, plan, sess, text)
}

// handleProblemText runs the classifier and the knowledge lookup, then
// either presents the answer for evaluation or opens a ticket.
func (e *Engine) handleProblemText(ctx context.Context, plan *Plan, sess *session.Session, text string) {
	plan.say(analyzingText)

	cls := classifier.Classify(text)
	answer := e.kb.Match(text)

	sess.Pending = &session.ProblemContext{
		Problem:        text,
		Classification: &cls,
		Knowledge:      &answer,
	}

	e.logger.Debug("problem analyzed",
		zap.String("user_id", sess.UserID),
		zap.String("category", cls.Category),
		zap.String("severity", string(cls.Severity)),
		zap.Float64("confidence", cls.Confidence),
		zap.Float64("knowledge_confidence", answer.Confidence),
	)

	if answer.Found && cls.Confidence > e.cfg.AutoAnswerConfidence && !cls.Severity.IsUrgent() {
		e.metrics.IncrCounter(observability.CounterAutoAnswers)
		plan.replace(analysisSummary(&cls, answer.Text), feedbackChoices())
		sess.State = session.StateEvaluatingSolution
		return
	}

	switch {
	case !answer.Found:
		plan.replace(notFoundCreatingText, nil)
	case cls.Severity.IsUrgent():
		plan.replace(criticalCreatingText, nil)
	default:
		plan.replace(creatingTicketText, nil)
	}
	e.createTicketFlow(ctx, plan, sess, text, &cls, false)
}

// handleUrgentText applies the strict urgent filter: anything below high
// severity is rejected without a ticket; accepted problems are created as
// critical and auto-escalated to the second line.
func (e *Engine) handleUrgentText(ctx context.Context, plan *Plan, sess *session.Session, text string) {
	cls := classifier.Classify(text)

	if !cls.Severity.IsUrgent() {
		e.metrics.IncrCounter(observability.CounterUrgentRejected)
		plan.say(urgentRejectionText(&cls))
		sess.Reset()
		return
	}

	if err := e.admitTicket(sess.UserID, e.cfg.UrgentTicketCap); err != nil {
		e.metrics.IncrCounter(observability.CounterAdmissionsDenied)
		plan.say(admissionDeniedMessage(err))
		sess.Reset()
		return
	}

	created, err := e.tickets.Create(ctx, sess.UserID,
		"СРОЧНО: "+truncate(text, 100), cls.Category, domain.SeverityCritical)
	if err != nil {
		plan.say(ticketFailureText)
		return
	}
	e.metrics.IncrCounter(observability.CounterTicketsCreated)
	plan.say(urgentTicketCreatedText(created))

	escalated, err := e.tickets.Escalate(ctx, created.ID,
		"Автоматическая эскалация срочного обращения", domain.TierSecond)
	if err == nil {
		e.metrics.IncrCounter(observability.CounterTicketsEscalated)
		plan.say("Автоматически эскалировано на 2-ю линию поддержки")
		e.logger.Info("urgent ticket escalated",
			zap.String("ticket_id", escalated.ID),
			zap.String("user_id", sess.UserID))
	}

	sess.Reset()
}

// createTicketFlow enforces admission control and opens a ticket from the
// given problem and classification. High and critical classifications are
// routed to the second line at severity high (urgent intake alone produces
// critical tickets).
func (e *Engine) createTicketFlow(ctx context.Context, plan *Plan, sess *session.Session, problem string, cls *domain.Classification, urgent bool) {
	if err := e.admitTicket(sess.UserID, e.cfg.NormalTicketCap); err != nil {
		e.metrics.IncrCounter(observability.CounterAdmissionsDenied)
		plan.say(admissionDeniedMessage(err))
		return
	}

	category := classifier.CategoryGeneral
	severity := domain.SeverityMedium
	if cls != nil {
		category = cls.Category
		severity = cls.Severity
	}
	switch {
	case urgent:
		severity = domain.SeverityCritical
	case severity.IsUrgent():
		severity = domain.SeverityHigh
	}

	created, err := e.tickets.Create(ctx, sess.UserID, problem, category, severity)
	if err != nil {
		plan.say(ticketFailureText)
		return
	}
	e.metrics.IncrCounter(observability.CounterTicketsCreated)
	e.logger.Info("ticket created",
		zap.String("ticket_id", created.ID),
		zap.String("user_id", sess.UserID),
		zap.String("severity", string(created.Severity)),
		zap.String("tier", string(created.AssignedTier)))

	plan.say(ticketCreatedText(created))
	if created.Severity.IsUrgent() && !urgent {
		plan.offer(escalationOfferText, escalationChoices(created.ID))
	}

	sess.Pending = nil
	sess.TicketID = created.ID
	sess.State = session.StateAwaitingFeedbackTicket
}

// admitTicket enforces the per-user cap on open tickets before creation.
func (e *Engine) admitTicket(userID string, limit int) error {
	if active := e.tickets.CountActiveForUser(userID); active >= limit {
		return errorutil.NewAdmissionDenied(active, limit)
	}
	return nil
}

// admissionDeniedMessage renders the denial with the counts the error
// carries.
func admissionDeniedMessage(err error) string {
	details := errorutil.ToDomainError(err).Details
	active, _ := details["active"].(int)
	limit, _ := details["limit"].(int)
	return admissionDeniedText(active, limit)
}

func (e *Engine) lockUser(userID string) func() {
	value, _ := e.userLocks.LoadOrStore(userID, &sync.Mutex{})
	mu := value.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// loadSession fetches the user's session, creating an idle one lazily.
func (e *Engine) loadSession(ctx context.Context, userID string) (*session.Session, error) {
	sess, err := e.sessions.Get(ctx, userID)
	if err != nil {
		return nil, errorutil.NewInternalError(err)
	}
	if sess == nil {
		sess = session.New(userID)
	}
	return sess, nil
}

func (e *Engine) saveSession(ctx context.Context, sess *session.Session) error {
	if err := e.sessions.Put(ctx, sess); err != nil {
		return errorutil.NewInternalError(err)
	}
	return nil
}

func (e *Engine) publish(ctx context.Context, event events.Event) {
	if e.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = e.dispatcher.Publish(ctx, event)
}
