package cron

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/storefront-labs/storefront-backend/pkg/logger"
)

const (
	outboxRetentionDays     = 30
	deadLetterRetentionDays = 90
	outboxMinAttempts       = 10
	outboxRetentionCadence  = 24 * time.Hour
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type OutboxRetentionJobParams struct {
	Logger              *logger.Logger
	DB                  txRunner
	Repository          outboxRetentionRepo
	DeadLetters         deadLetterPruner
	Retention           int
	DeadLetterRetention int
	MinAttempts         int
}

type outboxRetentionRepo interface {
	DeletePublishedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time, minAttemptCount int) (int64, error)
}

type deadLetterPruner interface {
	DeleteBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
}

// NewOutboxRetentionJob prunes published order events, plus events that exhausted
// their publish attempts and were copied to the dead-letter table.
func NewOutboxRetentionJob(params OutboxRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("outbox repository required")
	}
	retention := params.Retention
	if retention <= 0 {
		retention = outboxRetentionDays
	}
	dlqRetention := params.DeadLetterRetention
	if dlqRetention <= 0 {
		dlqRetention = deadLetterRetentionDays
	}
	minAttempts := params.MinAttempts
	if minAttempts <= 0 {
		minAttempts = outboxMinAttempts
	}
	return &outboxRetentionJob{
		logg:         params.Logger,
		db:           params.DB,
		repo:         params.Repository,
		deadLetters:  params.DeadLetters,
		retention:    retention,
		dlqRetention: dlqRetention,
		minAttempts:  minAttempts,
		now:          time.Now,
	}, nil
}

type outboxRetentionJob struct {
	logg         *logger.Logger
	db           txRunner
	repo         outboxRetentionRepo
	deadLetters  deadLetterPruner
	retention    int
	dlqRetention int
	minAttempts  int
	now          func() time.Time
}

func (j *outboxRetentionJob) Name() string { return "outbox-retention" }

// Every keeps pruning to once a day regardless of the worker interval.
func (j *outboxRetentionJob) Every() time.Duration { return outboxRetentionCadence }

func (j *outboxRetentionJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	cutoff := now.Add(-days(j.retention))
	dlqCutoff := now.Add(-days(j.dlqRetention))
	var deleted, deadDeleted int64
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := j.repo.DeletePublishedBefore(ctx, tx, cutoff, j.minAttempts)
		if err != nil {
			return err
		}
		deleted = rows
		if j.deadLetters == nil {
			return nil
		}
		deadDeleted, err = j.deadLetters.DeleteBefore(ctx, tx, dlqCutoff)
		return err
	})
	if err != nil {
		return fmt.Errorf("outbox retention: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":         cutoff,
		"retention_days": j.retention,
		"min_attempts":   j.minAttempts,
		"rows_deleted":   deleted,
		"dlq_cutoff":     dlqCutoff,
		"dlq_deleted":    deadDeleted,
	})
	j.logg.Info(logCtx, "outbox retention cleanup complete")
	return nil
}

func days(n int) time.Duration {
	return time.Duration(n) * 24 * time.Hour
}
