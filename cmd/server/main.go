package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v3"

	"github.com/finsterfurz/coinestate-governance-go/internal/config"
	"github.com/finsterfurz/coinestate-governance-go/internal/db"
	"github.com/finsterfurz/coinestate-governance-go/internal/handler"
	"github.com/finsterfurz/coinestate-governance-go/internal/middleware"
	"github.com/finsterfurz/coinestate-governance-go/internal/repository"
	"github.com/finsterfurz/coinestate-governance-go/internal/router"
	"github.com/finsterfurz/coinestate-governance-go/internal/service"
)

func main() {
	cfg := config.Load()

	middleware.InitLogger(cfg.LogLevel, "coinestate-governance")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer pool.Close()

	handler.InitMetrics(pool)

	cache := service.NewCacheService(cfg.RedisURL)
	defer cache.Close()

	// Repositories
	proposalRepo := repository.NewProposalRepo(pool)
	voteRepo := repository.NewVoteRepo(pool)
	shareRepo := repository.NewShareRepo(pool)
	holderRepo := repository.NewHolderRepo(pool)

	// Services
	clock := service.NewRealClock()
	powerSvc := service.NewPowerService(shareRepo)
	lifecycleSvc := service.NewLifecycleService(proposalRepo, shareRepo, cache, clock, handler.Metrics.ProposalTransitions)
	proposalSvc := service.NewProposalService(proposalRepo, voteRepo, powerSvc, shareRepo, cache, clock,
		service.ProposalDefaults{
			VotingDelay:       cfg.DefaultVotingDelay,
			VotingPeriod:      cfg.DefaultVotingPeriod,
			QuorumThreshold:   cfg.DefaultQuorumThreshold,
			ApprovalThreshold: cfg.DefaultApprovalThreshold,
			MinProposerShares: cfg.MinProposerShares,
		})
	voteSvc := service.NewVoteService(proposalRepo, voteRepo, powerSvc, shareRepo, cache, lifecycleSvc, clock)
	execSvc := service.NewExecutionService(proposalRepo, holderRepo, service.NewLogExecutor(), cache, clock)

	// Background workers
	lifecycleWorker := service.NewLifecycleWorker(lifecycleSvc, cfg.SweepInterval, handler.Metrics.SweepDuration)
	go lifecycleWorker.Start(ctx)

	reconcileWorker := service.NewReconcileWorker(pool, voteRepo, cache, cfg.ReconcileBatchWait)
	go reconcileWorker.Start(ctx)

	app := fiber.New(fiber.Config{
		AppName:      "CoinEstate Governance API",
		ServerHeader: "CoinEstate",
	})

	router.Setup(app, &router.Handlers{
		Proposal:  handler.NewProposalHandler(proposalSvc),
		Vote:      handler.NewVoteHandler(voteSvc, cfg.IPHashSalt),
		Execution: handler.NewExecutionHandler(execSvc),
		Power:     handler.NewPowerHandler(powerSvc),
		Stats:     handler.NewStatsHandler(holderRepo),
		Health:    handler.NewHealthHandler(pool, cache.Client()),
	}, cfg.CORSOrigins)

	go func() {
		<-ctx.Done()
		log.Println("shutting down")
		if err := app.Shutdown(); err != nil {
			log.Printf("shutdown error: %v", err)
		}
	}()

	log.Printf("governance backend starting on :%s (env=%s)", cfg.Port, cfg.Environment)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
