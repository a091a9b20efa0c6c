package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/tillpoint-backend/pkg/db/models"
	"github.com/angelmondragon/tillpoint-backend/pkg/logger"
	"github.com/angelmondragon/tillpoint-backend/pkg/metrics"
)

const defaultMaxSession = 16 * time.Hour

type staleLister interface {
	ListStale(ctx context.Context, openedBefore time.Time) ([]models.Register, error)
}

type StaleRegisterJobParams struct {
	Logger     *logger.Logger
	Registers  staleLister
	Metrics    *metrics.POSMetrics
	MaxSession time.Duration
}

// NewStaleRegisterJob flags registers left open past a normal shift. It only
// reports; closing needs a counted balance so nothing is closed automatically.
func NewStaleRegisterJob(params StaleRegisterJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Registers == nil {
		return nil, fmt.Errorf("register service required")
	}
	maxSession := params.MaxSession
	if maxSession <= 0 {
		maxSession = defaultMaxSession
	}
	return &staleRegisterJob{
		logg:       params.Logger,
		registers:  params.Registers,
		metrics:    params.Metrics,
		maxSession: maxSession,
		now:        time.Now,
	}, nil
}

type staleRegisterJob struct {
	logg       *logger.Logger
	registers  staleLister
	metrics    *metrics.POSMetrics
	maxSession time.Duration
	now        func() time.Time
}

func (j *staleRegisterJob) Name() string { return "stale-registers" }

func (j *staleRegisterJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.maxSession)
	stale, err := j.registers.ListStale(ctx, cutoff)
	if err != nil {
		return err
	}
	j.metrics.SetStaleRegisters(len(stale))
	for _, reg := range stale {
		fields := map[string]any{
			"register_id": reg.ID,
			"branch_id":   reg.BranchID.String(),
		}
		if reg.OpenedAt != nil {
			fields["opened_at"] = reg.OpenedAt.UTC()
		}
		j.logg.Warn(j.logg.WithFields(ctx, fields), "register open past max session")
	}
	return nil
}
