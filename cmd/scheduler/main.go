package main

// Run the weekly batch in-process:
//   go run ./cmd/scheduler
//   go run ./cmd/scheduler -once

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"skillgap-backend/internal/batch"
	"skillgap-backend/internal/bootstrap"
	"skillgap-backend/internal/shared/config"
	"skillgap-backend/internal/shared/telemetry"
)

func main() {
	once := flag.Bool("once", false, "run the batch immediately and exit")
	flag.Parse()

	cfg := config.Load()
	app, err := bootstrap.Build(cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *once {
		runBatch(ctx, app.Batch)
		return
	}

	c := cron.New(cron.WithLocation(time.UTC))
	if _, err := c.AddFunc(cfg.BatchSchedule, func() { runBatch(ctx, app.Batch) }); err != nil {
		log.Fatalf("invalid BATCH_SCHEDULE %q: %v", cfg.BatchSchedule, err)
	}
	c.Start()
	telemetry.Info("scheduler.start", map[string]any{"schedule": cfg.BatchSchedule, "location": "UTC"})

	<-ctx.Done()
	telemetry.Info("scheduler.stopping", nil)
	<-c.Stop().Done()
}

func runBatch(ctx context.Context, runner *batch.Runner) {
	summary, err := runner.Run(ctx, batch.TriggerScheduler)
	if err != nil {
		telemetry.Error("batch.run_failed", map[string]any{"trigger": batch.TriggerScheduler, "error": err.Error()})
		return
	}
	telemetry.Info("batch.run_complete", map[string]any{
		"run_id":    summary.RunID,
		"trigger":   summary.Trigger,
		"succeeded": summary.Succeeded,
		"failed":    summary.Failed,
		"skipped":   summary.Skipped,
	})
}
