// Package session tracks per-user conversational context across messages.
// Sessions are created lazily on first interaction and return to the idle
// state after a fully-resolved interaction; the machine is cyclic.
package session

import (
	"time"

	"github.com/spec-kit/support-assistant/internal/domain"
	"github.com/spec-kit/support-assistant/internal/knowledge"
)

// State enumerates the conversation state machine.
type State string

const (
	StateIdle                    State = "idle"
	StateAwaitingProblem         State = "awaiting_problem"
	StateAwaitingUrgentProblem   State = "awaiting_urgent_problem"
	StateEvaluatingSolution      State = "evaluating_solution"
	StateAwaitingSimilarFeedback State = "awaiting_similar_feedback"
	StateAwaitingFeedbackTicket  State = "awaiting_feedback_ticket"
	StateInHumanSupport          State = "in_human_support"
)

// ProblemContext carries the scratch data for an in-flight problem: the
// last submitted text, its classification and knowledge match, the urgency
// flag and, for FAQ-origin problems, the FAQ reference. It exists only
// between problem intake and resolution or ticket creation.
type ProblemContext struct {
	Problem        string                 `json:"problem"`
	Classification *domain.Classification `json:"classification,omitempty"`
	Knowledge      *knowledge.Answer      `json:"knowledge,omitempty"`
	Urgent         bool                   `json:"urgent"`
	FAQID          int                    `json:"faq_id,omitempty"`
}

// Session is one user's conversational context.
type Session struct {
	UserID    string          `json:"user_id"`
	State     State           `json:"state"`
	Pending   *ProblemContext `json:"pending,omitempty"`
	TicketID  string          `json:"ticket_id,omitempty"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// New creates an idle session for the user.
func New(userID string) *Session {
	return &Session{UserID: userID, State: StateIdle}
}

// Reset clears the scratch data and returns the session to idle.
func (s *Session) Reset() {
	s.State = StateIdle
	s.Pending = nil
	s.TicketID = ""
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	clone := *s
	if s.Pending != nil {
		pending := *s.Pending
		if s.Pending.Classification != nil {
			classification := *s.Pending.Classification
			pending.Classification = &classification
		}
		if s.Pending.Knowledge != nil {
			answer := *s.Pending.Knowledge
			pending.Knowledge = &answer
		}
		clone.Pending = &pending
	}
	return &clone
}
