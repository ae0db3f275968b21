package router

import (
	"github.com/gofiber/fiber/v3"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/finsterfurz/coinestate-governance-go/internal/handler"
	"github.com/finsterfurz/coinestate-governance-go/internal/middleware"
)

// Handlers holds all handler instances needed by the router.
type Handlers struct {
	Proposal  *handler.ProposalHandler
	Vote      *handler.VoteHandler
	Execution *handler.ExecutionHandler
	Power     *handler.PowerHandler
	Stats     *handler.StatsHandler
	Health    *handler.HealthHandler
}

// Setup configures the middleware stack and all API routes on the given Fiber app.
func Setup(app *fiber.App, h *Handlers, corsOrigins string) {
	// Middleware stack (order matters)
	app.Use(recoverer.New())
	app.Use(middleware.NewRequestLogger())
	app.Use(middleware.NewCORS(corsOrigins))
	app.Use(handler.MetricsMiddleware())

	// Health checks (before API group, no rate limit)
	app.Get("/health/live", h.Health.Live)
	app.Get("/health/ready", h.Health.Ready)

	// Prometheus metrics
	app.Get("/metrics", handler.MetricsHandler())

	// API routes
	api := app.Group("/api")

	readLimit := middleware.NewProposalReadRateLimiter().Handler()
	createLimit := middleware.NewProposalCreateRateLimiter().Handler()
	voteLimit := middleware.NewVoteCastRateLimiter().Handler()
	executeLimit := middleware.NewExecuteRateLimiter().Handler()
	statsLimit := middleware.NewStatsRateLimiter().Handler()

	// Proposal routes
	api.Post("/proposals", h.Proposal.Create, createLimit)
	api.Get("/proposals", h.Proposal.List, readLimit)
	api.Get("/proposals/:proposalId", h.Proposal.Get, readLimit)
	api.Get("/proposals/:proposalId/votes", h.Proposal.Votes, readLimit)
	api.Post("/proposals/:proposalId/execute", h.Execution.Execute, executeLimit)

	// Vote routes
	api.Post("/votes", h.Vote.Cast, voteLimit)

	// Voting power routes
	api.Get("/holders/:holderId/power", h.Power.Get, readLimit)

	// Stats routes
	api.Get("/stats", h.Stats.GetStats, statsLimit)
}
