package maintenance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/blueberry-insights/talentflow/internal/models"
	"github.com/blueberry-insights/talentflow/pkg/logger"
)

const (
	defaultSchedule            = "@daily"
	defaultInviteRetention     = 30 * 24 * time.Hour
	defaultSubmissionRetention = 7 * 24 * time.Hour
)

// Sweeper runs background maintenance: purging invites that expired long ago
// without ever being used, and removing submissions that were created but
// never received a frozen question order (interrupted starts that no
// candidate can resume because their invite is gone).
type Sweeper struct {
	db   *gorm.DB
	cron *cron.Cron
	now  func() time.Time
	log  *zap.Logger

	schedule            string
	inviteRetention     time.Duration
	submissionRetention time.Duration
}

// Option customises the Sweeper.
type Option func(*Sweeper)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(s *Sweeper) {
		if c != nil {
			s.cron = c
		}
	}
}

// WithNow overrides the clock used for retention comparisons.
func WithNow(now func() time.Time) Option {
	return func(s *Sweeper) {
		if now != nil {
			s.now = now
		}
	}
}

// WithSchedule overrides the cron specification for the sweep.
func WithSchedule(spec string) Option {
	return func(s *Sweeper) {
		if spec != "" {
			s.schedule = spec
		}
	}
}

// WithInviteRetention adjusts how long expired pending invites are kept.
func WithInviteRetention(d time.Duration) Option {
	return func(s *Sweeper) {
		if d > 0 {
			s.inviteRetention = d
		}
	}
}

// WithSubmissionRetention adjusts how long unseeded submissions are kept.
func WithSubmissionRetention(d time.Duration) Option {
	return func(s *Sweeper) {
		if d > 0 {
			s.submissionRetention = d
		}
	}
}

// NewSweeper constructs a Sweeper with sensible defaults.
func NewSweeper(db *gorm.DB, opts ...Option) *Sweeper {
	sweeper := &Sweeper{
		db:                  db,
		now:                 time.Now,
		schedule:            defaultSchedule,
		inviteRetention:     defaultInviteRetention,
		submissionRetention: defaultSubmissionRetention,
		log:                 logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(sweeper)
	}

	if sweeper.cron == nil {
		sweeper.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	return sweeper
}

// Start registers the sweep with the cron scheduler and launches it.
func (s *Sweeper) Start() error {
	if s.db == nil {
		return nil
	}

	if _, err := s.cron.AddFunc(s.schedule, func() {
		if _, err := s.RunOnce(context.Background()); err != nil {
			s.log.Warn("maintenance sweep failed", zap.Error(err))
		}
	}); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (s *Sweeper) Stop() context.Context {
	if s.cron == nil {
		return context.Background()
	}
	return s.cron.Stop()
}

// SweepStats captures the number of records removed by one sweep.
type SweepStats struct {
	Invites     int64
	Submissions int64
}

// RunOnce executes all cleanup routines sequentially. Used by the scheduler,
// during graceful shutdown, and in tests.
func (s *Sweeper) RunOnce(ctx context.Context) (SweepStats, error) {
	if s.db == nil {
		return SweepStats{}, errors.New("maintenance: db is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	stats := SweepStats{}
	var errs error

	invites, err := s.purgeStaleInvites(ctx)
	if err != nil {
		errs = multierr.Append(errs, err)
	}
	stats.Invites = invites

	submissions, err := s.purgeUnseededSubmissions(ctx)
	if err != nil {
		errs = multierr.Append(errs, err)
	}
	stats.Submissions = submissions

	if stats.Invites > 0 || stats.Submissions > 0 {
		s.log.Info("maintenance sweep finished",
			zap.Int64("invites_removed", stats.Invites),
			zap.Int64("submissions_removed", stats.Submissions),
		)
	}

	return stats, errs
}

// purgeStaleInvites removes pending invites whose expiry passed more than the
// retention window ago. Completed and revoked invites stay for audit.
func (s *Sweeper) purgeStaleInvites(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.inviteRetention)

	result := s.db.WithContext(ctx).
		Where("status = ? AND expires_at < ?", models.InviteStatusPending, cutoff).
		Delete(&models.Invite{})
	if result.Error != nil {
		return 0, fmt.Errorf("maintenance: purge invites: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// purgeUnseededSubmissions removes submissions that never got a frozen
// question order. A later start simply recreates them.
func (s *Sweeper) purgeUnseededSubmissions(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.submissionRetention)

	seeded := s.db.Model(&models.SubmissionItem{}).Select("submission_id")
	result := s.db.WithContext(ctx).
		Where("completed_at IS NULL AND created_at < ? AND id NOT IN (?)", cutoff, seeded).
		Delete(&models.Submission{})
	if result.Error != nil {
		return 0, fmt.Errorf("maintenance: purge submissions: %w", result.Error)
	}
	return result.RowsAffected, nil
}
