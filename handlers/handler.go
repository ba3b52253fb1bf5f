// handlers/handler.go
package handlers

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"pingpair/middleware"
	"pingpair/models"
	"pingpair/services"
	"pingpair/utils"
)

// ScoreHistory serves the per-user score audit trail.
type ScoreHistory interface {
	History(ctx context.Context, userID string, limit int) ([]models.ScoreEvent, error)
}

// Handler exposes the matchmaker over HTTP.
type Handler struct {
	mm       *services.Matchmaker
	history  ScoreHistory // optional
	validate *validator.Validate
	log      *utils.Logger
}

func NewHandler(mm *services.Matchmaker, history ScoreHistory, log *utils.Logger) *Handler {
	if log == nil {
		log = utils.NopLogger()
	}
	return &Handler{
		mm:       mm,
		history:  history,
		validate: validator.New(),
		log:      log,
	}
}

// SetupRoutes registers public, user and admin routes. Gateway auth is applied
// globally by the caller.
func SetupRoutes(app *fiber.App, h *Handler) {
	// 🔓 Public routes: no user context
	app.Get("/countries", h.ListCountries)
	app.Get("/countries/:name", h.GetCountry)
	app.Get("/leaderboard", h.GetLeaderboard)
	app.Get("/sessions/current", h.GetCurrentSession)
	app.Get("/sessions/history", h.GetSessionHistory)

	// 🔐 User routes: require X-User-ID
	user := app.Group("/pingpair", middleware.UserContextMiddleware(h.log))
	user.Post("/start", h.Start)
	user.Post("/stop", h.Stop)
	user.Get("/profile", h.GetProfile)
	user.Patch("/profile", h.UpdateProfile)
	user.Post("/skip", h.Skip)
	user.Get("/stats", h.GetStats)
	user.Put("/timezone", h.SetTimezone)
	user.Get("/pairing", h.GetPairing)
	user.Post("/pairings/:id/complete", h.CompletePairing)
	user.Get("/score/history", h.GetScoreHistory)

	// 🔒 Admin-only routes
	admin := app.Group("/s/admin", middleware.UserContextMiddleware(h.log), middleware.RequireRole("admin", h.log))
	admin.Post("/sessions", h.AdminCreateSession)
	admin.Post("/pairings/:id/complete", h.AdminCompletePairing)
	admin.Post("/pairings/:id/cancel", h.AdminCancelPairing)
	admin.Post("/score/grant", h.AdminGrantScore)
}
