package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-assistant/internal/engine"
	"github.com/spec-kit/support-assistant/pkg/errorutil"
)

// AdminHandler exposes administrator operations. Callers identify
// themselves via the X-User-ID header and are checked against the static
// allow-list; there is no real authentication layer in this build.
type AdminHandler struct {
	engine *engine.Engine
}

// NewAdminHandler constructs the handler.
func NewAdminHandler(eng *engine.Engine) *AdminHandler {
	return &AdminHandler{engine: eng}
}

// Stats GET /admin/stats.
func (h *AdminHandler) Stats(c *fiber.Ctx) error {
	userID := c.Get("X-User-ID")
	if userID == "" {
		return errorutil.NewUnauthorized("X-User-ID header required")
	}
	report, err := h.engine.Stats(userID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": report})
}

// RefreshKnowledgeBase POST /admin/knowledge-base/refresh.
func (h *AdminHandler) RefreshKnowledgeBase(c *fiber.Ctx) error {
	userID := c.Get("X-User-ID")
	if userID == "" {
		return errorutil.NewUnauthorized("X-User-ID header required")
	}
	ack, err := h.engine.RefreshKnowledgeBase(userID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"message": ack}})
}
