package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-assistant/internal/api/dto"
	"github.com/spec-kit/support-assistant/internal/engine"
	"github.com/spec-kit/support-assistant/internal/ticket"
	"github.com/spec-kit/support-assistant/pkg/errorutil"
)

// ConversationsHandler exposes the conversation engine over HTTP. One
// endpoint per inbound event kind: free text and choice selection.
type ConversationsHandler struct {
	engine  *engine.Engine
	tickets *ticket.Store
}

// NewConversationsHandler constructs the handler.
func NewConversationsHandler(eng *engine.Engine, tickets *ticket.Store) *ConversationsHandler {
	return &ConversationsHandler{engine: eng, tickets: tickets}
}

// PostMessage POST /conversations/:user_id/messages.
func (h *ConversationsHandler) PostMessage(c *fiber.Ctx) error {
	userID := c.Params("user_id")
	if userID == "" {
		return errorutil.NewValidationError("user_id required", nil)
	}
	var req dto.MessageRequest
	if err := c.BodyParser(&req); err != nil {
		return errorutil.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Text) == "" {
		return errorutil.NewValidationError("text required", nil)
	}

	plan, err := h.engine.OnUserText(c.UserContext(), userID, req.Text)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromPlan(plan)})
}

// PostAction POST /conversations/:user_id/actions.
func (h *ConversationsHandler) PostAction(c *fiber.Ctx) error {
	userID := c.Params("user_id")
	if userID == "" {
		return errorutil.NewValidationError("user_id required", nil)
	}
	var req dto.ActionRequest
	if err := c.BodyParser(&req); err != nil {
		return errorutil.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.ActionID) == "" {
		return errorutil.NewValidationError("action_id required", nil)
	}

	plan, err := h.engine.OnUserAction(c.UserContext(), userID, req.ActionID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromPlan(plan)})
}

// ListTickets GET /conversations/:user_id/tickets.
func (h *ConversationsHandler) ListTickets(c *fiber.Ctx) error {
	userID := c.Params("user_id")
	if userID == "" {
		return errorutil.NewValidationError("user_id required", nil)
	}

	items := make([]dto.TicketResponse, 0)
	for _, id := range h.tickets.ListForUser(userID) {
		record, err := h.tickets.GetStatus(c.UserContext(), id)
		if err != nil {
			continue
		}
		items = append(items, dto.FromTicket(record))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicket GET /tickets/:id. The read advances the simulated SLA clock.
func (h *ConversationsHandler) GetTicket(c *fiber.Ctx) error {
	record, err := h.tickets.GetStatus(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromTicket(record)})
}
