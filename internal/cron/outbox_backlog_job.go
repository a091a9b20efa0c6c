package cron

import (
	"context"
	"fmt"

	"github.com/angelmondragon/tillpoint-backend/pkg/enums"
	"github.com/angelmondragon/tillpoint-backend/pkg/logger"
	"github.com/angelmondragon/tillpoint-backend/pkg/metrics"
	"github.com/angelmondragon/tillpoint-backend/pkg/outbox"
)

type pendingCounter interface {
	CountPending(ctx context.Context, maxAttempts int) (int64, error)
}

type deadLetterCounter interface {
	CountByReason(ctx context.Context) ([]outbox.DeadLetterCount, error)
}

type OutboxBacklogJobParams struct {
	Logger      *logger.Logger
	Repository  pendingCounter
	DeadLetters deadLetterCounter
	Metrics     *metrics.POSMetrics
	MaxAttempts int
	WarnAbove   int64
}

// NewOutboxBacklogJob publishes the unpublished outbox depth and the dead
// letter counts as gauges. It warns when the publisher falls behind and
// whenever a sale never made it out.
func NewOutboxBacklogJob(params OutboxBacklogJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("outbox repository required")
	}
	if params.MaxAttempts <= 0 {
		params.MaxAttempts = 10
	}
	if params.WarnAbove <= 0 {
		params.WarnAbove = 500
	}
	return &outboxBacklogJob{params: params}, nil
}

type outboxBacklogJob struct {
	params OutboxBacklogJobParams
}

func (j *outboxBacklogJob) Name() string { return "outbox-backlog" }

func (j *outboxBacklogJob) Run(ctx context.Context) error {
	pending, err := j.params.Repository.CountPending(ctx, j.params.MaxAttempts)
	if err != nil {
		return fmt.Errorf("count pending outbox rows: %w", err)
	}
	j.params.Metrics.SetOutboxPending(pending)
	if pending > j.params.WarnAbove {
		logg := j.params.Logger
		logg.Warn(logg.WithField(ctx, "pending", pending), "outbox backlog above threshold")
	}
	if j.params.DeadLetters == nil {
		return nil
	}

	counts, err := j.params.DeadLetters.CountByReason(ctx)
	if err != nil {
		return fmt.Errorf("count outbox dead letters: %w", err)
	}
	for _, c := range counts {
		j.params.Metrics.SetOutboxDeadLetters(string(c.ErrorReason), string(c.EventType), c.Total)
		if c.EventType == enums.EventSaleCompleted && c.Total > 0 {
			logg := j.params.Logger
			logCtx := logg.WithFields(ctx, map[string]any{"reason": c.ErrorReason, "dead_letters": c.Total})
			logg.Warn(logCtx, "sale events stuck in outbox dead letters")
		}
	}
	return nil
}
