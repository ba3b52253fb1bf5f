// handlers/public_routes.go
package handlers

import (
	"net/url"

	"github.com/gofiber/fiber/v2"

	"pingpair/services"
)

// ListCountries handles GET /countries?available=true.
func (h *Handler) ListCountries(c *fiber.Ctx) error {
	countries := h.mm.Countries(c.QueryBool("available", false))
	return c.JSON(fiber.Map{"countries": countries, "total": len(countries)})
}

// GetCountry handles GET /countries/:name. Unknown names get a stub record.
func (h *Handler) GetCountry(c *fiber.Ctx) error {
	name, err := url.PathUnescape(c.Params("name"))
	if err != nil {
		name = c.Params("name")
	}
	country, err := h.mm.Country(name)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(country)
}

// GetLeaderboard handles GET /leaderboard?metric=score|streak|pairings&limit=N.
func (h *Handler) GetLeaderboard(c *fiber.Ctx) error {
	metric, err := services.ParseLeaderboardMetric(c.Query("metric"))
	if err != nil {
		return h.respondError(c, err)
	}
	entries := h.mm.Leaderboard(metric, queryLimit(c, 10, 100))
	return c.JSON(fiber.Map{"metric": metric, "entries": entries})
}

func (h *Handler) GetCurrentSession(c *fiber.Ctx) error {
	s, err := h.mm.CurrentSession()
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(s)
}

func (h *Handler) GetSessionHistory(c *fiber.Ctx) error {
	history := h.mm.SessionHistory()
	return c.JSON(fiber.Map{"sessions": history, "total": len(history)})
}
