package trigger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/flowengine/engine/internal/engine"
	"github.com/flowengine/engine/internal/infrastructure/cache"
	"github.com/flowengine/engine/internal/infrastructure/logger"
	"github.com/flowengine/engine/internal/store"
)

const leaderLockName = "flowengine:tick-scheduler"

// TickSchedulerConfig carries the tunables spec §6 names.
type TickSchedulerConfig struct {
	TickInterval time.Duration
	ClaimBatch   int
	LeaseTTL     time.Duration
	// Parallelism bounds the worker pool batch-claimed executions are
	// dispatched to, grounded on the teacher's wave-level
	// semaphore := make(chan struct{}, maxParallelism) pattern in
	// dag_executor.go, reused here at the execution-claim level.
	Parallelism int
}

// TickScheduler is a robfig/cron job that claims due executions and
// dispatches them to the Executor Core every tick, grounded on the
// teacher's CronScheduler. Leader election for "one active runner" (spec §1
// Non-goals: no Raft/Paxos) uses a Redis SET NX PX advisory lock renewed
// each tick.
type TickScheduler struct {
	Executions store.ExecutionRepository
	Executor   *engine.Executor
	Cache      *cache.RedisCache
	Config     TickSchedulerConfig
	Logger     *logger.Logger

	cron       *cron.Cron
	leaseID    string
	isLeader   bool
}

// NewTickScheduler creates a scheduler ticking at cfg.TickInterval.
func NewTickScheduler(executions store.ExecutionRepository, executor *engine.Executor, redisCache *cache.RedisCache, cfg TickSchedulerConfig, log *logger.Logger) *TickScheduler {
	if cfg.ClaimBatch <= 0 {
		cfg.ClaimBatch = 50
	}
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = 8
	}
	if cfg.LeaseTTL <= 0 {
		cfg.LeaseTTL = 30 * time.Second
	}
	return &TickScheduler{
		Executions: executions,
		Executor:   executor,
		Cache:      redisCache,
		Config:     cfg,
		Logger:     log,
		leaseID:    uuid.NewString(),
	}
}

func (s *TickScheduler) log() *logger.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return logger.Default()
}

// Start begins ticking every cfg.TickInterval until ctx is canceled.
func (s *TickScheduler) Start(ctx context.Context) error {
	s.cron = cron.New(cron.WithSeconds())
	spec := "@every " + s.Config.TickInterval.String()
	_, err := s.cron.AddFunc(spec, func() { s.tick(ctx) })
	if err != nil {
		return err
	}
	s.cron.Start()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

// Stop drains in-flight batches and releases the leader lock, grounded on
// the teacher's cron.Stop() + context-wait pattern.
func (s *TickScheduler) Stop() {
	if s.cron == nil {
		return
	}
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()

	if s.isLeader && s.Cache != nil {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.Cache.ReleaseLock(releaseCtx, leaderLockName, s.leaseID)
	}
}

func (s *TickScheduler) tick(ctx context.Context) {
	if !s.acquireLeadership(ctx) {
		return
	}

	claimed, err := s.Executions.ClaimDue(ctx, time.Now(), s.Config.ClaimBatch, s.leaseID, s.Config.LeaseTTL)
	if err != nil {
		s.log().Error("tick: claim failed", "error", err.Error())
		return
	}
	if len(claimed) == 0 {
		return
	}

	sem := make(chan struct{}, s.Config.Parallelism)
	done := make(chan struct{}, len(claimed))
	for _, execution := range claimed {
		sem <- struct{}{}
		go func(c *store.ClaimedExecution) {
			defer func() { <-sem; done <- struct{}{} }()
			result := s.Executor.Run(ctx, c)
			if result.Err != nil {
				s.log().Warn("tick: execution batch ended with error",
					"execution_id", result.ExecutionID, "error", result.Err.Error())
			}
		}(execution)
	}
	for range claimed {
		<-done
	}
}

// acquireLeadership renews the held lock or attempts to acquire it if not
// currently held. A nil Cache means single-runner mode (tests, local dev):
// always leader.
func (s *TickScheduler) acquireLeadership(ctx context.Context) bool {
	if s.Cache == nil {
		return true
	}
	if s.isLeader {
		renewed, err := s.Cache.RenewLock(ctx, leaderLockName, s.leaseID, s.Config.LeaseTTL)
		if err == nil && renewed {
			return true
		}
		s.isLeader = false
	}
	won, err := s.Cache.TryAcquireLock(ctx, leaderLockName, s.leaseID, s.Config.LeaseTTL)
	if err != nil {
		s.log().Error("tick: leader lock acquisition failed", "error", err.Error())
		return false
	}
	s.isLeader = won
	return won
}
