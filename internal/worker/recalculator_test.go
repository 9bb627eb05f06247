package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ignite/loyalty-crm/internal/domain"
	"github.com/ignite/loyalty-crm/internal/pkg/distlock"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeCalc struct {
	ids   []string
	fail  map[string]bool
	delay time.Duration

	mu       sync.Mutex
	seen     []string
	inFlight atomic.Int32
	maxSeen  atomic.Int32
	listErr  error
}

func (f *fakeCalc) UserIDs(context.Context) ([]string, error) {
	return f.ids, f.listErr
}

func (f *fakeCalc) CalculateLoyaltyWithRetry(ctx context.Context, uid string) (*domain.LoyaltyResult, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		m := f.maxSeen.Load()
		if n <= m || f.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	f.seen = append(f.seen, uid)
	f.mu.Unlock()
	if f.fail[uid] {
		return nil, errors.New("scoring failed")
	}
	return &domain.LoyaltyResult{UserID: uid}, nil
}

type heldLock struct{}

func (heldLock) Acquire(context.Context) (bool, error) { return false, nil }
func (heldLock) Release(context.Context) error         { return distlock.ErrNotHeld }
func (heldLock) Extend(context.Context) error          { return distlock.ErrNotHeld }
func (heldLock) TTL() time.Duration                    { return 0 }

// expiringLock counts extensions and can be taken over mid-cycle.
type expiringLock struct {
	distlock.Local
	ttl     time.Duration
	extends atomic.Int32
	stolen  atomic.Bool
}

func (l *expiringLock) Extend(ctx context.Context) error {
	if l.stolen.Load() {
		return distlock.ErrNotHeld
	}
	l.extends.Add(1)
	return l.Local.Extend(ctx)
}

func (l *expiringLock) TTL() time.Duration { return l.ttl }

func TestRunOnce(t *testing.T) {
	calc := &fakeCalc{
		ids:   []string{"a", "b", "c", "d", "e", "f"},
		fail:  map[string]bool{"c": true},
		delay: 5 * time.Millisecond,
	}
	lock := &distlock.Local{}
	r := NewRecalculator(calc, lock, time.Hour, 2)

	stats, err := r.RunOnce(context.Background())
	require.NoError(t, err)
	assert.False(t, stats.Skipped)
	assert.Equal(t, 5, stats.Processed)
	assert.Equal(t, 1, stats.Failed)
	assert.ElementsMatch(t, calc.ids, calc.seen)
	assert.LessOrEqual(t, calc.maxSeen.Load(), int32(2))

	ok, _ := lock.Acquire(context.Background())
	assert.True(t, ok, "lock released after the cycle")
}

func TestRunOnce_LockHeldElsewhere(t *testing.T) {
	calc := &fakeCalc{ids: []string{"a"}}
	r := NewRecalculator(calc, heldLock{}, time.Hour, 1)

	stats, err := r.RunOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, stats.Skipped)
	assert.Empty(t, calc.seen)
}

func TestRunOnce_ListError(t *testing.T) {
	calc := &fakeCalc{listErr: errors.New("db down")}
	lock := &distlock.Local{}
	r := NewRecalculator(calc, lock, time.Hour, 1)

	_, err := r.RunOnce(context.Background())
	assert.Error(t, err)
	ok, _ := lock.Acquire(context.Background())
	assert.True(t, ok)
}

func TestRunOnce_Cancelled(t *testing.T) {
	calc := &fakeCalc{ids: []string{"a", "b", "c"}, delay: time.Second}
	r := NewRecalculator(calc, &distlock.Local{}, time.Hour, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := r.RunOnce(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRunOnce_ExtendsLockDuringLongCycle(t *testing.T) {
	calc := &fakeCalc{ids: []string{"a", "b", "c"}, delay: 40 * time.Millisecond}
	lock := &expiringLock{ttl: 30 * time.Millisecond}
	r := NewRecalculator(calc, lock, time.Hour, 1)

	stats, err := r.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Processed)
	assert.GreaterOrEqual(t, lock.extends.Load(), int32(2))

	n := lock.extends.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, n, lock.extends.Load(), "no extensions after the cycle")
}

func TestRunOnce_StopsWhenLockLost(t *testing.T) {
	calc := &fakeCalc{ids: []string{"a", "b", "c", "d"}, delay: time.Second}
	lock := &expiringLock{ttl: 30 * time.Millisecond}
	lock.stolen.Store(true)
	r := NewRecalculator(calc, lock, time.Hour, 1)

	start := time.Now()
	_, err := r.RunOnce(context.Background())
	assert.ErrorIs(t, err, ErrLockLost)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestStart_StopsOnCancel(t *testing.T) {
	calc := &fakeCalc{ids: []string{"a"}}
	r := NewRecalculator(calc, &distlock.Local{}, 10*time.Millisecond, 1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		calc.mu.Lock()
		defer calc.mu.Unlock()
		return len(calc.seen) >= 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start did not return after cancel")
	}
}

func TestNewRecalculator_Defaults(t *testing.T) {
	r := NewRecalculator(&fakeCalc{}, &distlock.Local{}, 0, 0)
	assert.Equal(t, DefaultRecalcInterval, r.interval)
	assert.Equal(t, DefaultRecalcConcurrency, r.concurrency)
}
