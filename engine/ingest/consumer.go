package ingest

import (
	"context"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/jobbooster/jobbooster/engine/domain"
	"github.com/jobbooster/jobbooster/pkg/natsutil"
)

const (
	// TriggerSubject receives operator re-ingestion requests.
	TriggerSubject = "booster.ingest.trigger"
	// ResultSubject carries the outcome of each triggered run.
	ResultSubject = "booster.ingest.result"
)

// TriggerMessage asks for a re-ingestion run. Reason is free-form operator
// context carried through to the result.
type TriggerMessage struct {
	Reason string `json:"reason,omitempty"`
}

// ResultMessage reports a completed or failed run.
type ResultMessage struct {
	Reason      string `json:"reason,omitempty"`
	TotalChunks int    `json:"total_chunks"`
	Error       string `json:"error,omitempty"`
}

// StartConsumer subscribes to re-ingestion triggers. Each trigger runs the
// full pipeline over the sources returned by loadSources and publishes the
// outcome. Runs execute inline on the subscription goroutine; NATS delivers
// per-subject messages in order, so triggers cannot overlap.
func StartConsumer(nc *nats.Conn, deps Deps, loadSources func() ([]domain.SourceDocument, error)) (*nats.Subscription, error) {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}

	return natsutil.Subscribe(nc, TriggerSubject, func(ctx context.Context, trigger TriggerMessage) {
		log.Info("ingest: trigger received", "reason", trigger.Reason)

		result := ResultMessage{Reason: trigger.Reason}
		sources, err := loadSources()
		if err != nil {
			result.Error = err.Error()
		} else {
			report, err := Run(ctx, deps, sources)
			if err != nil {
				result.Error = err.Error()
			} else {
				result.TotalChunks = report.TotalChunks
			}
		}

		if err := natsutil.Publish(ctx, nc, ResultSubject, result); err != nil {
			log.Error("ingest: result publish failed", "error", err)
		}
	})
}
