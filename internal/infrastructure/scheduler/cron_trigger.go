package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mlmshop/backend/internal/domain/member"
	"github.com/mlmshop/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// MemberProvider lists the members to sweep
type MemberProvider interface {
	ListMemberIDs(ctx context.Context) ([]uuid.UUID, error)
}

// sweepPageSize matches the repository's page size ceiling
const sweepPageSize = 100

// RepositoryMemberProvider pages through every member profile
type RepositoryMemberProvider struct {
	repo member.MemberRepository
}

// NewRepositoryMemberProvider creates a provider backed by the member repository
func NewRepositoryMemberProvider(repo member.MemberRepository) *RepositoryMemberProvider {
	return &RepositoryMemberProvider{repo: repo}
}

// ListMemberIDs implements MemberProvider
func (p *RepositoryMemberProvider) ListMemberIDs(ctx context.Context) ([]uuid.UUID, error) {
	filter := shared.DefaultFilter()
	filter.PageSize = sweepPageSize
	filter.OrderBy = "created_at"
	filter.OrderDir = "asc"

	var ids []uuid.UUID
	for {
		members, total, err := p.repo.FindAll(ctx, filter)
		if err != nil {
			return nil, err
		}
		for i := range members {
			ids = append(ids, members[i].ID)
		}
		if len(members) == 0 || int64(filter.Page*sweepPageSize) >= total {
			return ids, nil
		}
		filter.Page++
	}
}

// CronTriggerConfig holds configuration for the cron trigger
type CronTriggerConfig struct {
	// Hour and Minute of the daily sweep, 24h local time
	Hour   int
	Minute int

	CheckInterval time.Duration
}

// DefaultCronTriggerConfig returns default cron trigger configuration
func DefaultCronTriggerConfig() CronTriggerConfig {
	return CronTriggerConfig{
		Hour:          2,
		Minute:        0,
		CheckInterval: time.Minute,
	}
}

// ParseCronSchedule reads the minute and hour fields of a cron expression.
// An empty expression means 02:00. Day, month and weekday fields are ignored.
func ParseCronSchedule(cronExpr string) (hour, minute int, err error) {
	hour, minute = 2, 0
	parts := strings.Fields(cronExpr)
	if len(parts) == 0 {
		return hour, minute, nil
	}
	if len(parts) < 2 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidSchedule, cronExpr)
	}

	if parts[0] != "*" {
		if minute, err = strconv.Atoi(parts[0]); err != nil {
			return 0, 0, fmt.Errorf("%w: minute %q", ErrInvalidSchedule, parts[0])
		}
	}
	if parts[1] != "*" {
		if hour, err = strconv.Atoi(parts[1]); err != nil {
			return 0, 0, fmt.Errorf("%w: hour %q", ErrInvalidSchedule, parts[1])
		}
	}

	if minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("%w: minute must be 0-59, got %d", ErrInvalidSchedule, minute)
	}
	if hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("%w: hour must be 0-23, got %d", ErrInvalidSchedule, hour)
	}
	return hour, minute, nil
}

// CronTrigger submits a reconciliation job for every member once a day
type CronTrigger struct {
	config    CronTriggerConfig
	scheduler *Scheduler
	members   MemberProvider
	logger    *zap.Logger
	now       func() time.Time

	cancel      context.CancelFunc
	wg          sync.WaitGroup
	mu          sync.Mutex
	isRunning   bool
	lastRunDate string
}

// NewCronTrigger creates a new cron trigger
func NewCronTrigger(
	config CronTriggerConfig,
	scheduler *Scheduler,
	members MemberProvider,
	logger *zap.Logger,
) *CronTrigger {
	if config.CheckInterval <= 0 {
		config.CheckInterval = time.Minute
	}
	return &CronTrigger{
		config:    config,
		scheduler: scheduler,
		members:   members,
		logger:    logger,
		now:       time.Now,
	}
}

// Start starts the cron trigger
func (c *CronTrigger) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = true
	c.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.wg.Add(1)
	go c.runLoop(ctx)

	c.logger.Info("Reconciliation sweep trigger started",
		zap.Int("hour", c.config.Hour),
		zap.Int("minute", c.config.Minute),
		zap.Duration("check_interval", c.config.CheckInterval),
	)
	return nil
}

// Stop stops the cron trigger
func (c *CronTrigger) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = false
	c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.logger.Info("Reconciliation sweep trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *CronTrigger) runLoop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.checkAndTrigger(ctx)
		}
	}
}

// checkAndTrigger runs the sweep at most once per calendar day
func (c *CronTrigger) checkAndTrigger(ctx context.Context) bool {
	now := c.now()
	currentDate := now.Format("2006-01-02")

	if now.Hour() != c.config.Hour || now.Minute() != c.config.Minute {
		return false
	}

	c.mu.Lock()
	if c.lastRunDate == currentDate {
		c.mu.Unlock()
		return false
	}
	c.lastRunDate = currentDate
	c.mu.Unlock()

	if _, err := c.TriggerNow(ctx); err != nil {
		c.logger.Error("Reconciliation sweep failed", zap.Error(err))
	}
	return true
}

// TriggerNow queues a reconciliation job for every member immediately and
// returns how many were queued
func (c *CronTrigger) TriggerNow(ctx context.Context) (int, error) {
	ids, err := c.members.ListMemberIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list members: %w", err)
	}

	queued, err := c.scheduler.ScheduleMembers(ids)
	c.logger.Info("Reconciliation sweep scheduled",
		zap.Int("member_count", len(ids)),
		zap.Int("queued", queued),
	)
	if err != nil {
		return queued, fmt.Errorf("queue reconciliation jobs: %w", err)
	}
	return queued, nil
}
