package workers

import (
	"context"
	"sync"
	"time"

	"github.com/dalemusser/onboardhub/internal/app/system/tasks"
	"go.uber.org/zap"
)

// DefaultJobTimeout bounds a single job run.
const DefaultJobTimeout = 30 * time.Second

// Runner runs each job on its own ticker until stopped.
type Runner struct {
	jobs    []tasks.Job
	log     *zap.Logger
	timeout time.Duration
	stopCh  chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
}

// NewRunner creates a runner for jobs. Jobs with a non-positive interval
// are skipped at Start.
func NewRunner(logger *zap.Logger, jobs ...tasks.Job) *Runner {
	return &Runner{
		jobs:    jobs,
		log:     logger,
		timeout: DefaultJobTimeout,
		stopCh:  make(chan struct{}),
	}
}

// Start launches one goroutine per job. Each job also runs once right away.
func (w *Runner) Start() {
	for _, job := range w.jobs {
		if job.Interval <= 0 || job.Run == nil {
			w.log.Warn("skipping job without interval", zap.String("job", job.Name))
			continue
		}
		w.wg.Add(1)
		go w.run(job)
		w.log.Info("background job started",
			zap.String("job", job.Name),
			zap.Duration("interval", job.Interval))
	}
}

// Stop signals every job to stop and waits for in-flight runs. Safe to
// call more than once.
func (w *Runner) Stop() {
	w.once.Do(func() {
		close(w.stopCh)
		w.wg.Wait()
		w.log.Info("background jobs stopped")
	})
}

func (w *Runner) run(job tasks.Job) {
	defer w.wg.Done()

	w.runOnce(job)

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.runOnce(job)
		}
	}
}

func (w *Runner) runOnce(job tasks.Job) {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	if err := job.Run(ctx); err != nil {
		w.log.Error("background job failed", zap.String("job", job.Name), zap.Error(err))
	}
}
