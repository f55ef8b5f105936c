// Package ticket owns all ticket records for the process lifetime. The
// store is the only shared mutable resource across sessions; a single mutex
// serializes create, escalate and status advancement so readers never
// observe a ticket mid-update.
package ticket

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/support-assistant/internal/domain"
	"github.com/spec-kit/support-assistant/internal/events"
	"github.com/spec-kit/support-assistant/pkg/errorutil"
)

// Config controls id formatting and the simulated SLA clock. Clock is
// injectable so the lifecycle is testable with zero elapsed wall time.
type Config struct {
	IDPrefix string

	// Elapsed-time thresholds, measured from ticket creation, for the
	// automatic created -> in_progress -> awaiting_* -> resolved advance.
	InProgressAfter time.Duration
	AwaitingAfter   time.Duration
	ResolvedAfter   time.Duration

	Clock func() time.Time
}

// DefaultConfig returns the reference demo timings.
func DefaultConfig() Config {
	return Config{
		IDPrefix:        "TCK",
		InProgressAfter: 30 * time.Second,
		AwaitingAfter:   90 * time.Second,
		ResolvedAfter:   150 * time.Second,
	}
}

// Store keeps tickets in process memory, per the mocked backend contract.
type Store struct {
	mu         sync.Mutex
	cfg        Config
	now        func() time.Time
	tickets    map[string]*domain.Ticket
	order      []string
	byUser     map[string][]string
	counter    int
	dispatcher events.Dispatcher
}

// NewStore constructs the store. The dispatcher may be nil.
func NewStore(cfg Config, dispatcher events.Dispatcher) *Store {
	now := cfg.Clock
	if now == nil {
		now = time.Now
	}
	return &Store{
		cfg:        cfg,
		now:        now,
		tickets:    make(map[string]*domain.Ticket),
		byUser:     make(map[string][]string),
		counter:    1000,
		dispatcher: dispatcher,
	}
}

// Create registers a new ticket. Severity decides the initial support tier
// and priority label: high and critical problems go straight to the second
// line. Admission control is the caller's concern and happens before this.
func (s *Store) Create(ctx context.Context, userID, problem, category string, severity domain.Severity) (*domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.counter++
	id := fmt.Sprintf("%s-%s-%d", s.cfg.IDPrefix, now.Format("060102"), s.counter)

	tier := domain.TierFirst
	priority := domain.PriorityMedium
	if severity.IsUrgent() {
		tier = domain.TierSecond
		priority = domain.PriorityHigh
	}

	ticket := &domain.Ticket{
		ID:           id,
		UserID:       userID,
		Problem:      problem,
		Category:     category,
		Severity:     severity,
		Priority:     priority,
		Status:       domain.TicketStatusCreated,
		AssignedTier: tier,
		CreatedAt:    now,
		History: []domain.HistoryEntry{{
			Timestamp: now,
			Status:    domain.TicketStatusCreated,
			Message:   "Обращение создано в системе",
		}},
	}

	s.tickets[id] = ticket
	s.order = append(s.order, id)
	s.byUser[userID] = append(s.byUser[userID], id)

	s.publish(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: id,
		UserID:   userID,
		Payload: events.TicketCreatedPayload{
			Category: category,
			Severity: severity,
			Priority: priority,
			Tier:     tier,
			Urgent:   severity == domain.SeverityCritical,
		},
	})
	return ticket.Clone(), nil
}

// GetStatus returns the ticket after advancing its status based on time
// elapsed since creation. This is a deliberate mutating read: it simulates
// a background SLA clock without a scheduler, so the passage of time is
// observed, never pushed. Escalated tickets no longer match the automatic
// branches and stay where escalation put them.
func (s *Store) GetStatus(ctx context.Context, id string) (*domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ticket, ok := s.tickets[id]
	if !ok {
		return nil, errorutil.NewNotFound("ticket", map[string]any{"ticket_id": id})
	}

	s.advanceLocked(ctx, ticket)
	return ticket.Clone(), nil
}

// advanceLocked performs at most one automatic transition per observation,
// mirroring the reference behavior.
func (s *Store) advanceLocked(ctx context.Context, ticket *domain.Ticket) {
	elapsed := s.now().Sub(ticket.CreatedAt)

	switch {
	case ticket.Status == domain.TicketStatusCreated && elapsed > s.cfg.InProgressAfter:
		s.transitionLocked(ctx, ticket, domain.TicketStatusInProgress,
			"Специалист начал работу над проблемой")

	case ticket.Status == domain.TicketStatusInProgress && elapsed > s.cfg.AwaitingAfter:
		if ticket.Severity.IsUrgent() {
			s.transitionLocked(ctx, ticket, domain.TicketStatusAwaitingConfirmation,
				"Ожидается подтверждение решения")
		} else {
			s.transitionLocked(ctx, ticket, domain.TicketStatusAwaitingInfo,
				"Требуются дополнительные данные")
		}

	case (ticket.Status == domain.TicketStatusAwaitingInfo ||
		ticket.Status == domain.TicketStatusAwaitingConfirmation) && elapsed > s.cfg.ResolvedAfter:
		s.transitionLocked(ctx, ticket, domain.TicketStatusResolved,
			"Проблема решена, ожидается подтверждение пользователя")
	}
}

func (s *Store) transitionLocked(ctx context.Context, ticket *domain.Ticket, status domain.TicketStatus, message string) {
	oldStatus := ticket.Status
	ticket.Status = status
	ticket.History = append(ticket.History, domain.HistoryEntry{
		Timestamp: s.now(),
		Status:    status,
		Message:   message,
	})
	s.publish(ctx, events.Event{
		Type:     events.EventTicketAutoAdvanced,
		TicketID: ticket.ID,
		UserID:   ticket.UserID,
		Payload: events.TicketAutoAdvancedPayload{
			OldStatus: oldStatus,
			NewStatus: status,
		},
	})
}

// Escalate reassigns the ticket to the target tier, recomputes the priority
// label and marks the status with an escalation marker. Re-escalating to
// the same tier is allowed and appends another history entry. An escalated
// ticket leaves the automatic SLA clock.
func (s *Store) Escalate(ctx context.Context, id, reason string, target domain.SupportTier) (*domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ticket, ok := s.tickets[id]
	if !ok {
		return nil, errorutil.NewNotFound("ticket", map[string]any{"ticket_id": id})
	}

	var status domain.TicketStatus
	var priority domain.TicketPriority
	var lineName string
	switch target {
	case domain.TierSecond:
		status = domain.TicketStatusEscalatedSecond
		priority = domain.PriorityHigh
		lineName = "2-ю линию"
	case domain.TierThird:
		status = domain.TicketStatusEscalatedThird
		priority = domain.PriorityCritical
		lineName = "3-ю линию"
	default:
		return nil, errorutil.NewInvalidEscalationTarget(string(target))
	}

	fromTier := ticket.AssignedTier
	ticket.AssignedTier = target
	ticket.Priority = priority
	ticket.Status = status
	ticket.History = append(ticket.History, domain.HistoryEntry{
		Timestamp: s.now(),
		Status:    status,
		Message:   fmt.Sprintf("Эскалация на %s: %s", lineName, reason),
	})

	s.publish(ctx, events.Event{
		Type:     events.EventTicketEscalated,
		TicketID: id,
		UserID:   ticket.UserID,
		Payload: events.TicketEscalatedPayload{
			FromTier: fromTier,
			ToTier:   target,
			Reason:   reason,
		},
	})
	return ticket.Clone(), nil
}

// ListForUser returns the user's ticket ids in creation order.
func (s *Store) ListForUser(userID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, len(s.byUser[userID]))
	copy(ids, s.byUser[userID])
	return ids
}

// LatestForUser returns the most recently created ticket id for the user.
func (s *Store) LatestForUser(userID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := s.byUser[userID]
	if len(ids) == 0 {
		return "", false
	}
	return ids[len(ids)-1], true
}

// CountActiveForUser counts the user's tickets that are neither resolved
// nor closed. Used for admission control before ticket creation.
func (s *Store) CountActiveForUser(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	active := 0
	for _, id := range s.byUser[userID] {
		if s.tickets[id].Status.IsOpen() {
			active++
		}
	}
	return active
}

// Resolve force-closes the automatic lifecycle for a ticket. The simulated
// backend has no operator UI; this supports confirmation flows and tests.
func (s *Store) Resolve(ctx context.Context, id, message string) (*domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ticket, ok := s.tickets[id]
	if !ok {
		return nil, errorutil.NewNotFound("ticket", map[string]any{"ticket_id": id})
	}
	if message == "" {
		message = "Проблема решена"
	}
	s.transitionLocked(ctx, ticket, domain.TicketStatusResolved, message)
	return ticket.Clone(), nil
}

// Stats reports process-wide ticket counts.
func (s *Store) Stats() (total, active int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	total = len(s.order)
	for _, ticket := range s.tickets {
		if ticket.Status.IsOpen() {
			active++
		}
	}
	return total, active
}

func (s *Store) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
