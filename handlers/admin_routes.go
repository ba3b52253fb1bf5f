// handlers/admin_routes.go
package handlers

import (
	"github.com/gofiber/fiber/v2"

	"pingpair/middleware"
)

// AdminCreateSession handles POST /s/admin/sessions: rotate now instead of
// waiting for the cadence job.
func (h *Handler) AdminCreateSession(c *fiber.Ctx) error {
	s := h.mm.CreateSession()
	h.log.Info("🗓️ [ADMIN] session created manually", "session_id", s.ID, "by", middleware.UserID(c))
	return c.Status(fiber.StatusCreated).JSON(s)
}

func (h *Handler) AdminCompletePairing(c *fiber.Ctx) error {
	p, err := h.mm.CompletePairing(c.Params("id"))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(p)
}

func (h *Handler) AdminCancelPairing(c *fiber.Ctx) error {
	p, err := h.mm.CancelPairing(c.Params("id"))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(p)
}

func (h *Handler) AdminGrantScore(c *fiber.Ctx) error {
	var req GrantScoreRequest
	if ok, err := h.bind(c, &req); !ok {
		return err
	}
	ev, err := h.mm.GrantScore(req.UserID, req.Delta, req.Reason)
	if err != nil {
		return h.respondError(c, err)
	}
	h.log.Info("🎁 [ADMIN] score adjusted", "user_id", req.UserID, "delta", req.Delta, "by", middleware.UserID(c))
	return c.JSON(ev)
}
