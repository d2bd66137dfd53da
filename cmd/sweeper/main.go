// Command sweeper marks stale started attempts as abandoned and exits. It is
// meant to be run on a schedule (cron, Kubernetes CronJob).
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/config"
	"github.com/SAP-F-2025/quiz-service/internal/services"
	"github.com/SAP-F-2025/quiz-service/internal/utils"
	"github.com/SAP-F-2025/quiz-service/pkg"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	threshold := flag.Duration("threshold", cfg.AbandonAfter, "age after which a started attempt is abandoned")
	timeout := flag.Duration("timeout", 2*time.Minute, "maximum run time")
	flag.Parse()

	logger := utils.NewLogger(cfg.Environment, cfg.LogLevel).With("component", "sweeper")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	if err := run(ctx, cfg, *threshold, logger); err != nil {
		logger.LogError(err, "Sweep failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, threshold time.Duration, logger utils.Logger) error {
	repo, closeRepo, err := pkg.OpenRepository(cfg, logger)
	if err != nil {
		return err
	}
	defer closeRepo()

	publisher, err := cfg.Events.CreateEventPublisher(utils.ToSlogLogger(logger))
	if err != nil {
		return err
	}
	defer publisher.Close()

	sm := services.NewServiceManager(services.Dependencies{
		Repo:      repo,
		Publisher: publisher,
		Logger:    logger,
	})

	count, err := sm.Sweeper.SweepAbandoned(ctx, threshold)
	if err != nil {
		return err
	}
	logger.Info("Sweep finished", "abandoned", count, "threshold", threshold.String())
	return nil
}
