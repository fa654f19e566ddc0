// internal/app/system/workers/runner.go
package workers

import (
	"context"
	"sync"
	"time"

	"github.com/dalemusser/fieldaudit/internal/app/system/tasks"
	"go.uber.org/zap"
)

const defaultJobTimeout = 30 * time.Second

// Runner runs jobs on their own tickers until Stop is called.
type Runner struct {
	log    *zap.Logger
	stopCh chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

// NewRunner returns an idle Runner.
func NewRunner(logger *zap.Logger) *Runner {
	return &Runner{log: logger, stopCh: make(chan struct{})}
}

// Start launches one goroutine per job. Jobs with a non-positive interval
// are ignored.
func (w *Runner) Start(jobs ...tasks.Job) {
	for _, j := range jobs {
		if j.Interval <= 0 || j.Run == nil {
			w.log.Warn("job skipped", zap.String("job", j.Name))
			continue
		}
		w.wg.Add(1)
		go w.loop(j)
		w.log.Info("background job started",
			zap.String("job", j.Name), zap.Duration("interval", j.Interval))
	}
}

// Stop signals every job and waits for in-flight runs. Safe to call more
// than once.
func (w *Runner) Stop() {
	w.once.Do(func() {
		close(w.stopCh)
		w.wg.Wait()
		w.log.Info("background jobs stopped")
	})
}

func (w *Runner) loop(j tasks.Job) {
	defer w.wg.Done()

	ticker := time.NewTicker(j.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.runOnce(j)
		}
	}
}

func (w *Runner) runOnce(j tasks.Job) {
	timeout := j.Timeout
	if timeout <= 0 {
		timeout = defaultJobTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := j.Run(ctx); err != nil {
		w.log.Error("background job failed", zap.String("job", j.Name), zap.Error(err))
	}
}
