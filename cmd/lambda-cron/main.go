package main

// Build the scheduled batch binary:
//   GOOS=linux GOARCH=arm64 CGO_ENABLED=0 go build -o bootstrap ./cmd/lambda-cron
//
// Invoked by an EventBridge schedule, typically cron(0 4 ? * SUN *).

import (
	"context"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"skillgap-backend/internal/batch"
	"skillgap-backend/internal/bootstrap"
	"skillgap-backend/internal/shared/config"
	"skillgap-backend/internal/shared/telemetry"
)

var (
	initOnce sync.Once
	initErr  error
	app      *bootstrap.App
)

func initApp() {
	built, err := bootstrap.Build(config.Load())
	if err != nil {
		initErr = err
		return
	}
	app = built
}

func handler(ctx context.Context, event events.EventBridgeEvent) (batch.Summary, error) {
	initOnce.Do(initApp)
	if initErr != nil {
		telemetry.Error("lambda.bootstrap_failed", map[string]any{"error": initErr.Error()})
		return batch.Summary{}, initErr
	}

	telemetry.Info("batch.triggered", map[string]any{"event_id": event.ID, "source": event.Source})
	summary, err := app.Batch.Run(ctx, batch.TriggerSchedule)
	if err != nil {
		telemetry.Error("batch.run_failed", map[string]any{"event_id": event.ID, "error": err.Error()})
		return batch.Summary{}, err
	}
	return summary, nil
}

func main() {
	lambda.Start(handler)
}
