package events

import (
	"time"

	"github.com/spec-kit/support-assistant/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated        EventType = "ticket_created"
	EventTicketEscalated      EventType = "ticket_escalated"
	EventTicketAutoAdvanced   EventType = "ticket_auto_advanced"
	EventConversationResolved EventType = "conversation_resolved"
	EventAssistantStarted     EventType = "assistant_started"
)

// Event represents a domain event emitted by the core.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id,omitempty"`
	UserID    string      `json:"user_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Category string                `json:"category"`
	Severity domain.Severity       `json:"severity"`
	Priority domain.TicketPriority `json:"priority"`
	Tier     domain.SupportTier    `json:"tier"`
	Urgent   bool                  `json:"urgent"`
}

// TicketEscalatedPayload payload.
type TicketEscalatedPayload struct {
	FromTier domain.SupportTier `json:"from_tier"`
	ToTier   domain.SupportTier `json:"to_tier"`
	Reason   string             `json:"reason"`
}

// TicketAutoAdvancedPayload payload.
type TicketAutoAdvancedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
}

// ConversationResolvedPayload payload.
type ConversationResolvedPayload struct {
	// Source names the resolving step: faq, auto_answer or similar_tickets.
	Source string `json:"source"`
}

// AssistantStartedPayload payload.
type AssistantStartedPayload struct {
	FAQCount int `json:"faq_count"`
}
