// handlers/user_routes.go
package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"pingpair/middleware"
	"pingpair/services"
)

// Start handles POST /pingpair/start: join, or re-join with score kept.
func (h *Handler) Start(c *fiber.Ctx) error {
	var req StartRequest
	if ok, err := h.bind(c, &req); !ok {
		return err
	}
	name := req.Name
	if name == "" {
		name = middleware.UserName(c)
	}

	profile, created, err := h.mm.Start(middleware.UserID(c), name)
	if err != nil {
		return h.respondError(c, err)
	}
	status := fiber.StatusOK
	if created {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(fiber.Map{
		"created": created,
		"profile": profile,
	})
}

func (h *Handler) Stop(c *fiber.Ctx) error {
	if err := h.mm.Stop(middleware.UserID(c)); err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(fiber.Map{"active": false})
}

func (h *Handler) GetProfile(c *fiber.Ctx) error {
	profile, err := h.mm.GetUser(middleware.UserID(c))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(profile)
}

func (h *Handler) UpdateProfile(c *fiber.Ctx) error {
	var req ProfileRequest
	if ok, err := h.bind(c, &req); !ok {
		return err
	}
	profile, err := h.mm.UpdateProfile(middleware.UserID(c), services.ProfileUpdate{
		Name:         req.Name,
		Country:      req.Country,
		Timezone:     req.Timezone,
		Bio:          req.Bio,
		AddInterests: req.Interests,
		AddLanguages: req.Languages,
	})
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(profile)
}

// Skip handles POST /pingpair/skip; {"skip": false} withdraws a pending skip.
func (h *Handler) Skip(c *fiber.Ctx) error {
	var req SkipRequest
	if ok, err := h.bind(c, &req); !ok {
		return err
	}
	skip := true
	if req.Skip != nil {
		skip = *req.Skip
	}
	if err := h.mm.SkipNext(middleware.UserID(c), skip); err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(fiber.Map{"skip_next": skip})
}

func (h *Handler) GetStats(c *fiber.Ctx) error {
	stats, err := h.mm.GetStats(middleware.UserID(c))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(stats)
}

func (h *Handler) SetTimezone(c *fiber.Ctx) error {
	var req TimezoneRequest
	if ok, err := h.bind(c, &req); !ok {
		return err
	}
	profile, err := h.mm.SetTimezone(middleware.UserID(c), req.Timezone)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(fiber.Map{"timezone": profile.Timezone})
}

// GetPairing handles GET /pingpair/pairing: the caller's active pairing, if any.
func (h *Handler) GetPairing(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	p, ok, err := h.mm.ActivePairingFor(userID)
	if err != nil {
		return h.respondError(c, err)
	}
	if !ok {
		return c.JSON(fiber.Map{"pairing": nil})
	}
	partner, err := h.mm.GetUser(p.Partner(userID))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"pairing": p,
		"partner": fiber.Map{
			"id":        partner.ID,
			"name":      partner.Name,
			"country":   partner.Country,
			"timezone":  partner.Timezone,
			"interests": partner.Interests,
			"languages": partner.Languages,
			"bio":       partner.Bio,
		},
	})
}

// CompletePairing handles POST /pingpair/pairings/:id/complete for participants.
func (h *Handler) CompletePairing(c *fiber.Ctx) error {
	p, err := h.mm.CompletePairingFor(middleware.UserID(c), c.Params("id"))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(p)
}

// GetScoreHistory handles GET /pingpair/score/history?limit=N.
func (h *Handler) GetScoreHistory(c *fiber.Ctx) error {
	if h.history == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "score history is not enabled"})
	}
	userID := middleware.UserID(c)
	if _, err := h.mm.GetUser(userID); err != nil {
		return h.respondError(c, err)
	}
	limit := queryLimit(c, 20, 100)
	events, err := h.history.History(c.UserContext(), userID, limit)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(fiber.Map{"events": events})
}

// queryLimit reads ?limit, falling back to def and capping at ceiling.
func queryLimit(c *fiber.Ctx, def, ceiling int) int {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit <= 0 {
		return def
	}
	if limit > ceiling {
		return ceiling
	}
	return limit
}
