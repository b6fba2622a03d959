// internal/worker/recurring.go
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"fintrack-ledger/internal/service"
	"fintrack-ledger/pkg/cache"
)

// RecurringLockKey guards ProcessDue so only one replica posts at a time.
const RecurringLockKey = "lock:recurring:process"

// RecurringWorker posts due recurring transactions on a fixed interval.
type RecurringWorker struct {
	service  service.RecurringService
	locker   cache.Locker
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewRecurringWorker creates a new RecurringWorker.
func NewRecurringWorker(svc service.RecurringService, locker cache.Locker, interval time.Duration, logger *slog.Logger) *RecurringWorker {
	return &RecurringWorker{
		service:  svc,
		locker:   locker,
		interval: interval,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Start runs the worker loop in the background until ctx is canceled or
// Stop is called. A first run happens immediately.
func (w *RecurringWorker) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})

	go w.loop(ctx, w.done)
}

func (w *RecurringWorker) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	w.logger.Info("Recurring worker started", "interval", w.interval.String())
	defer w.logger.Info("Recurring worker stopped")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.runSafely(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.runSafely(ctx)
		}
	}
}

func (w *RecurringWorker) runSafely(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("Recurring worker run panicked", "panic", fmt.Sprint(r))
		}
	}()
	if err := w.RunOnce(ctx); err != nil && ctx.Err() == nil {
		w.logger.Error("Recurring worker run failed", "error", err)
	}
}

// RunOnce processes due recurring transactions once under the shared lock.
// It returns nil without doing anything when another process holds the lock.
func (w *RecurringWorker) RunOnce(ctx context.Context) error {
	ran, err := w.locker.TryWithLock(ctx, RecurringLockKey, func(ctx context.Context) error {
		result, err := w.service.ProcessDue(ctx, w.now())
		if err != nil {
			return err
		}
		if result.Processed > 0 || result.Failed > 0 {
			w.logger.Info("Recurring transactions processed",
				"processed", result.Processed,
				"posted", result.Posted,
				"failed", result.Failed,
			)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("recurring worker: %w", err)
	}
	if !ran {
		w.logger.Debug("Recurring run skipped, lock held elsewhere")
	}
	return nil
}

// Stop cancels the loop and waits for an in-flight run to finish or ctx to expire.
func (w *RecurringWorker) Stop(ctx context.Context) error {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.cancel, w.done = nil, nil
	w.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("recurring worker shutdown: %w", ctx.Err())
	}
}
