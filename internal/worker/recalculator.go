package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ignite/loyalty-crm/internal/domain"
	"github.com/ignite/loyalty-crm/internal/pkg/distlock"
	"github.com/ignite/loyalty-crm/internal/pkg/logger"
)

const (
	// DefaultRecalcInterval is how often every customer is rescored.
	DefaultRecalcInterval = 6 * time.Hour

	// DefaultRecalcConcurrency bounds in-flight calculations per cycle.
	DefaultRecalcConcurrency = 4
)

// ErrLockLost is returned when the lock could not be extended during a cycle.
// The cycle stops early so it cannot overlap with the next owner's.
var ErrLockLost = errors.New("recalculation lock lost")

// Calculator is the slice of the loyalty service the recalculator drives.
type Calculator interface {
	UserIDs(ctx context.Context) ([]string, error)
	CalculateLoyaltyWithRetry(ctx context.Context, uid string) (*domain.LoyaltyResult, error)
}

// RunStats summarizes one recalculation cycle.
type RunStats struct {
	Skipped   bool // another instance held the lock
	Processed int
	Failed    int
	Duration  time.Duration
}

// Recalculator periodically rescores every stored customer. The lock keeps
// cycles from overlapping across instances.
type Recalculator struct {
	calc        Calculator
	lock        distlock.Lock
	interval    time.Duration
	concurrency int
}

// NewRecalculator applies defaults for a non-positive interval or concurrency.
func NewRecalculator(calc Calculator, lock distlock.Lock, interval time.Duration, concurrency int) *Recalculator {
	if interval <= 0 {
		interval = DefaultRecalcInterval
	}
	if concurrency <= 0 {
		concurrency = DefaultRecalcConcurrency
	}
	return &Recalculator{calc: calc, lock: lock, interval: interval, concurrency: concurrency}
}

// Start runs a cycle immediately and then on every tick. It blocks until ctx
// is cancelled.
func (r *Recalculator) Start(ctx context.Context) {
	logger.Info("recalculator starting", "interval", r.interval.String(), "concurrency", r.concurrency)

	r.runLogged(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info("recalculator stopping")
			return
		case <-ticker.C:
			r.runLogged(ctx)
		}
	}
}

func (r *Recalculator) runLogged(ctx context.Context) {
	stats, err := r.RunOnce(ctx)
	switch {
	case err != nil:
		logger.Error("recalculation cycle failed", "error", err)
	case stats.Skipped:
		logger.Debug("recalculation skipped, lock held elsewhere")
	default:
		logger.Info("recalculation cycle complete",
			"processed", stats.Processed,
			"failed", stats.Failed,
			"duration", stats.Duration.Round(time.Millisecond).String())
	}
}

// RunOnce rescores every customer once. A failing customer is counted and
// logged; only lock, listing or cancellation errors are returned, and
// ErrLockLost when another instance took the lock mid-cycle.
func (r *Recalculator) RunOnce(ctx context.Context) (RunStats, error) {
	start := time.Now()

	ok, err := r.lock.Acquire(ctx)
	if err != nil {
		return RunStats{}, err
	}
	if !ok {
		return RunStats{Skipped: true}, nil
	}
	defer func() {
		// Release on a fresh context so a cancelled cycle still frees the lock.
		if err := r.lock.Release(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("recalculation lock release failed", "error", err)
		}
	}()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	var lost atomic.Bool
	stop := r.keepAlive(runCtx, func() {
		lost.Store(true)
		cancel()
	})
	defer stop()

	ids, err := r.calc.UserIDs(runCtx)
	if err != nil {
		if lost.Load() {
			return RunStats{}, ErrLockLost
		}
		return RunStats{}, err
	}

	var processed, failed atomic.Int64
	g, gctx := errgroup.WithContext(runCtx)
	g.SetLimit(r.concurrency)
	for _, uid := range ids {
		if gctx.Err() != nil {
			break
		}
		uid := uid
		g.Go(func() error {
			if _, err := r.calc.CalculateLoyaltyWithRetry(gctx, uid); err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				failed.Add(1)
				logger.Warn("recalculation failed", "user_id", uid, "error", err)
				return nil
			}
			processed.Add(1)
			return nil
		})
	}
	err = g.Wait()
	if lost.Load() {
		err = ErrLockLost
	}

	return RunStats{
		Processed: int(processed.Load()),
		Failed:    int(failed.Load()),
		Duration:  time.Since(start),
	}, err
}

// keepAlive extends the lock every third of its TTL until stop is called.
// onLost runs once if the lock turns out to be owned by someone else.
func (r *Recalculator) keepAlive(ctx context.Context, onLost func()) (stop func()) {
	ttl := r.lock.TTL()
	if ttl <= 0 {
		return func() {}
	}

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(ttl / 3)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				err := r.lock.Extend(ctx)
				switch {
				case errors.Is(err, distlock.ErrNotHeld):
					logger.Error("recalculation lock lost, stopping cycle")
					onLost()
					return
				case err != nil:
					logger.Warn("recalculation lock extend failed", "error", err)
				}
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			wg.Wait()
		})
	}
}
