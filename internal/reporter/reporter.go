// Package reporter periodically reports store row counts.
package reporter

import (
	"context"
	"fmt"
	"time"

	"github.com/Dan9191/todo-service/internal/models"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// StatsSource provides the counts to report.
type StatsSource interface {
	Stats(ctx context.Context) (models.StoreStats, error)
}

// Mailer delivers the digest. It is optional.
type Mailer interface {
	SendStatsDigest(stats models.StoreStats, at time.Time) error
}

type Reporter struct {
	src     StatsSource
	mailer  Mailer
	log     *logrus.Logger
	cron    *cron.Cron
	timeout time.Duration
	now     func() time.Time
}

// New creates a reporter. mailer may be nil, in which case stats are only logged.
func New(src StatsSource, mailer Mailer, log *logrus.Logger) *Reporter {
	cronLog := cron.PrintfLogger(log)
	return &Reporter{
		src:    src,
		mailer: mailer,
		log:    log,
		cron: cron.New(
			cron.WithLogger(cronLog),
			cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
		),
		timeout: 30 * time.Second,
		now:     time.Now,
	}
}

// Start schedules Report on the given standard cron spec and starts the scheduler.
func (r *Reporter) Start(spec string) error {
	_, err := r.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()
		if err := r.Report(ctx); err != nil {
			r.log.WithError(err).Error("Stats report failed")
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule stats report: %w", err)
	}
	r.cron.Start()
	r.log.Infof("Stats reporter scheduled: %s", spec)
	return nil
}

// Stop halts the scheduler; the returned context is done once a running report finishes.
func (r *Reporter) Stop() context.Context {
	return r.cron.Stop()
}

// Report collects the counts, logs them and mails them when a mailer is set.
func (r *Reporter) Report(ctx context.Context) error {
	stats, err := r.src.Stats(ctx)
	if err != nil {
		return err
	}

	r.log.WithFields(logrus.Fields{
		"users": stats.Users,
		"todos": stats.Todos,
	}).Info("Store stats")

	if r.mailer == nil {
		return nil
	}
	return r.mailer.SendStatsDigest(stats, r.now())
}
