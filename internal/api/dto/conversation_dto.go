package dto

import (
	"time"

	"github.com/spec-kit/support-assistant/internal/domain"
	"github.com/spec-kit/support-assistant/internal/engine"
)

// MessageRequest carries one free-text user message.
type MessageRequest struct {
	Text string `json:"text"`
}

// ActionRequest carries one selected choice from a previous plan.
type ActionRequest struct {
	ActionID string `json:"action_id"`
}

// ChoiceOption is a selectable option under a plan message.
type ChoiceOption struct {
	Label    string `json:"label"`
	ActionID string `json:"action_id"`
}

// PlanMessage is one outbound message of a response plan.
type PlanMessage struct {
	Body           string         `json:"body"`
	Choices        []ChoiceOption `json:"choices,omitempty"`
	DeletePrevious bool           `json:"delete_previous,omitempty"`
}

// PlanResponse is the engine's ordered reply to one inbound event.
type PlanResponse struct {
	Messages []PlanMessage `json:"messages"`
}

// FromPlan converts an engine plan into its transport shape.
func FromPlan(plan *engine.Plan) PlanResponse {
	resp := PlanResponse{Messages: make([]PlanMessage, 0, len(plan.Messages))}
	for _, message := range plan.Messages {
		out := PlanMessage{
			Body:           message.Body,
			DeletePrevious: message.DeletePrevious,
		}
		for _, choice := range message.Choices {
			out.Choices = append(out.Choices, ChoiceOption{
				Label:    choice.Label,
				ActionID: choice.ActionID,
			})
		}
		resp.Messages = append(resp.Messages, out)
	}
	return resp
}

// HistoryEntryResponse is one ticket history record.
type HistoryEntryResponse struct {
	Timestamp time.Time           `json:"timestamp"`
	Status    domain.TicketStatus `json:"status"`
	Message   string              `json:"message"`
}

// TicketResponse is the full ticket view.
type TicketResponse struct {
	ID           string                 `json:"id"`
	UserID       string                 `json:"user_id"`
	Problem      string                 `json:"problem"`
	Category     string                 `json:"category"`
	Severity     domain.Severity        `json:"severity"`
	Priority     domain.TicketPriority  `json:"priority"`
	Status       domain.TicketStatus    `json:"status"`
	AssignedTier domain.SupportTier     `json:"assigned_tier"`
	CreatedAt    time.Time              `json:"created_at"`
	History      []HistoryEntryResponse `json:"history"`
}

// FromTicket converts a domain ticket into its transport shape.
func FromTicket(ticket *domain.Ticket) TicketResponse {
	history := make([]HistoryEntryResponse, 0, len(ticket.History))
	for _, entry := range ticket.History {
		history = append(history, HistoryEntryResponse{
			Timestamp: entry.Timestamp,
			Status:    entry.Status,
			Message:   entry.Message,
		})
	}
	return TicketResponse{
		ID:           ticket.ID,
		UserID:       ticket.UserID,
		Problem:      ticket.Problem,
		Category:     ticket.Category,
		Severity:     ticket.Severity,
		Priority:     ticket.Priority,
		Status:       ticket.Status,
		AssignedTier: ticket.AssignedTier,
		CreatedAt:    ticket.CreatedAt,
		History:      history,
	}
}
