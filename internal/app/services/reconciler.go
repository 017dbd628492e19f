package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/teacherportfolio/internal/app/repositories"
)

const reconcileBatchSize = 100

// ReconcilerConfig controls the background pass over pending accounts
type ReconcilerConfig struct {
	Interval     time.Duration
	Timeout      time.Duration
	PendingGrace time.Duration
}

// ReconcileReport counts what one pass did
type ReconcileReport struct {
	Activated       int
	Deleted         int
	Failed          int
	SessionsRemoved int64
}

// Reconciler settles pending teacher rows left behind by interrupted
// registrations and prunes expired sessions.
type Reconciler struct {
	provisioner *Provisioner
	teachers    repositories.ITeacherRepository
	sessions    repositories.ISessionRepository
	cfg         ReconcilerConfig
	logger      zerolog.Logger
	now         func() time.Time
}

// NewReconciler creates a new Reconciler
func NewReconciler(
	provisioner *Provisioner,
	teachers repositories.ITeacherRepository,
	sessions repositories.ISessionRepository,
	cfg ReconcilerConfig,
	logger zerolog.Logger,
) *Reconciler {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Reconciler{
		provisioner: provisioner,
		teachers:    teachers,
		sessions:    sessions,
		cfg:         cfg,
		logger:      logger,
		now:         time.Now,
	}
}

// Run reconciles once immediately and then on every tick until ctx is done
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	r.logger.Info().Dur("interval", r.cfg.Interval).Msg("Reconciler started")
	for {
		r.tick(ctx)

		select {
		case <-ctx.Done():
			r.logger.Info().Msg("Reconciler stopped")
			return
		case <-ticker.C:
		}
	}
}

func (r *Reconciler) tick(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	report, err := r.ReconcileOnce(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("Reconcile pass failed")
		return
	}
	if report.Activated+report.Deleted+report.Failed > 0 || report.SessionsRemoved > 0 {
		r.logger.Info().
			Int("activated", report.Activated).
			Int("deleted", report.Deleted).
			Int("failed", report.Failed).
			Int64("sessionsRemoved", report.SessionsRemoved).
			Msg("Reconcile pass finished")
	}
}

// ReconcileOnce resolves every pending row older than the grace period
func (r *Reconciler) ReconcileOnce(ctx context.Context) (ReconcileReport, error) {
	var report ReconcileReport

	stale, err := r.teachers.ListStalePending(ctx, r.now().Add(-r.cfg.PendingGrace), reconcileBatchSize)
	if err != nil {
		return report, err
	}

	for _, teacher := range stale {
		action, err := r.provisioner.ResolvePending(ctx, teacher)
		if err != nil {
			report.Failed++
			r.logger.Warn().Err(err).Str("teacherID", teacher.ID.String()).Msg("Could not resolve pending teacher")
			continue
		}
		switch action {
		case ActionActivated:
			report.Activated++
		case ActionDeleted:
			report.Deleted++
		}
	}

	if r.sessions != nil {
		removed, err := r.sessions.CleanupExpired(ctx)
		if err != nil {
			r.logger.Warn().Err(err).Msg("Session cleanup failed")
		}
		report.SessionsRemoved = removed
	}

	return report, nil
}
