package domain

import "time"

// Severity enumerates the urgency tiers assigned to a reported problem.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// IsUrgent reports whether the severity routes past automated answers.
func (s Severity) IsUrgent() bool {
	return s == SeverityHigh || s == SeverityCritical
}

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusCreated              TicketStatus = "created"
	TicketStatusInProgress           TicketStatus = "in_progress"
	TicketStatusAwaitingInfo         TicketStatus = "awaiting_info"
	TicketStatusAwaitingConfirmation TicketStatus = "awaiting_confirmation"
	TicketStatusResolved             TicketStatus = "resolved"
	TicketStatusClosed               TicketStatus = "closed"
	TicketStatusEscalatedSecond      TicketStatus = "escalated_to_second_line"
	TicketStatusEscalatedThird       TicketStatus = "escalated_to_third_line"
)

// IsOpen reports whether the ticket still counts toward the active cap.
func (s TicketStatus) IsOpen() bool {
	return s != TicketStatusResolved && s != TicketStatusClosed
}

// Rank orders the automatic lifecycle for monotonicity checks. Escalated
// statuses sit outside the automatic clock and rank alongside in_progress.
func (s TicketStatus) Rank() int {
	switch s {
	case TicketStatusCreated:
		return 0
	case TicketStatusInProgress, TicketStatusEscalatedSecond, TicketStatusEscalatedThird:
		return 1
	case TicketStatusAwaitingInfo, TicketStatusAwaitingConfirmation:
		return 2
	case TicketStatusResolved:
		return 3
	case TicketStatusClosed:
		return 4
	}
	return -1
}

// SupportTier enumerates escalation lines for ticket handling.
type SupportTier string

const (
	TierFirst  SupportTier = "first_line"
	TierSecond SupportTier = "second_line"
	TierThird  SupportTier = "third_line"
)

// TicketPriority is the human-readable priority label shown to users.
type TicketPriority string

const (
	PriorityMedium   TicketPriority = "Средний"
	PriorityHigh     TicketPriority = "Высокий"
	PriorityCritical TicketPriority = "Критический"
)

// HistoryEntry records one status transition on a ticket.
type HistoryEntry struct {
	Timestamp time.Time    `json:"timestamp"`
	Status    TicketStatus `json:"status"`
	Message   string       `json:"message"`
}

// Ticket is the aggregate for support requests. History is append-only and
// its last entry always mirrors Status.
type Ticket struct {
	ID           string         `json:"id"`
	UserID       string         `json:"user_id"`
	Problem      string         `json:"problem"`
	Category     string         `json:"category"`
	Severity     Severity       `json:"severity"`
	Priority     TicketPriority `json:"priority"`
	Status       TicketStatus   `json:"status"`
	AssignedTier SupportTier    `json:"assigned_tier"`
	CreatedAt    time.Time      `json:"created_at"`
	History      []HistoryEntry `json:"history"`
}

// Clone returns a deep copy so readers never alias store-owned state.
func (t *Ticket) Clone() *Ticket {
	if t == nil {
		return nil
	}
	clone := *t
	clone.History = make([]HistoryEntry, len(t.History))
	copy(clone.History, t.History)
	return &clone
}

// LastUpdate returns the most recent history entry.
func (t *Ticket) LastUpdate() (HistoryEntry, bool) {
	if len(t.History) == 0 {
		return HistoryEntry{}, false
	}
	return t.History[len(t.History)-1], true
}
