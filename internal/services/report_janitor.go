package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fastygo/buyerleads/repository"
)

// JanitorConfig controls how often expired import reports are swept.
type JanitorConfig struct {
	Interval  time.Duration
	Retention time.Duration
}

// ReportJanitor removes import reports once they outlive their retention.
type ReportJanitor struct {
	reports repository.ImportReportRepository
	logger  *zap.Logger
	cron    *cron.Cron
	cfg     JanitorConfig
	now     func() time.Time
}

func NewReportJanitor(reports repository.ImportReportRepository, logger *zap.Logger, cfg JanitorConfig) *ReportJanitor {
	if cfg.Interval < time.Second {
		cfg.Interval = time.Hour
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 7 * 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	j := &ReportJanitor{
		reports: reports,
		logger:  logger,
		cfg:     cfg,
		cron:    cron.New(cron.WithSeconds()),
		now:     time.Now,
	}

	schedule := fmt.Sprintf("@every %ds", int(cfg.Interval.Seconds()))
	_, _ = j.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		if _, err := j.Sweep(ctx); err != nil {
			j.logger.Error("import report sweep failed", zap.Error(err))
		}
	})

	return j
}

// Start launches the cron scheduler.
func (j *ReportJanitor) Start() {
	if j == nil || j.cron == nil {
		return
	}
	j.cron.Start()
	j.logger.Info("report janitor started", zap.Duration("retention", j.cfg.Retention))
}

// Stop waits for a running sweep or for ctx, whichever ends first.
func (j *ReportJanitor) Stop(ctx context.Context) {
	if j == nil || j.cron == nil {
		return
	}
	stopCtx := j.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	j.logger.Info("report janitor stopped")
}

// Sweep deletes every report older than the retention window.
func (j *ReportJanitor) Sweep(ctx context.Context) (int, error) {
	if j == nil || j.reports == nil {
		return 0, nil
	}
	removed, err := j.reports.Cleanup(ctx, j.now().Add(-j.cfg.Retention))
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		j.logger.Info("expired import reports removed", zap.Int("count", removed))
	}
	return removed, nil
}
