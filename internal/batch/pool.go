package batch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"igaudit/pkg/detector"
	"igaudit/pkg/errors"
	"igaudit/pkg/logger"
)

// Job is one username to check. Index is the position in the caller's input.
type Job struct {
	Index    int
	Username string
}

// Result is the outcome of a job. Report is nil when the check failed; it
// is kept when only saving the report failed.
type Result struct {
	Job      Job
	Report   *detector.Report
	Error    error
	Duration time.Duration
}

// Checker classifies one account
type Checker interface {
	Check(ctx context.Context, raw string) (*detector.Report, error)
}

// ReportSink persists successful reports
type ReportSink interface {
	Save(report *detector.Report) error
}

// WorkerPool checks usernames concurrently. Every submitted job produces
// exactly one result, so callers must drain Results until it is closed.
type WorkerPool struct {
	numWorkers  int
	jobQueue    chan Job
	resultQueue chan Result
	wg          sync.WaitGroup
	stopOnce    sync.Once
	ctx         context.Context
	checker     Checker
	sink        ReportSink
	logger      logger.Logger
}

// NewWorkerPool creates a pool bound to ctx. sink may be nil.
func NewWorkerPool(ctx context.Context, numWorkers int, checker Checker, sink ReportSink, log logger.Logger) *WorkerPool {
	if numWorkers < 1 {
		numWorkers = 1
	}
	if log == nil {
		log = logger.GetLogger()
	}

	return &WorkerPool{
		numWorkers:  numWorkers,
		jobQueue:    make(chan Job, numWorkers*2),
		resultQueue: make(chan Result, numWorkers),
		ctx:         ctx,
		checker:     checker,
		sink:        sink,
		logger:      log,
	}
}

// Start launches the workers
func (wp *WorkerPool) Start() {
	wp.logger.DebugWithFields("Starting worker pool", map[string]interface{}{
		"num_workers": wp.numWorkers,
	})

	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Stop closes the job queue, waits for in-flight jobs and closes Results.
// It is safe to call more than once.
func (wp *WorkerPool) Stop() {
	wp.stopOnce.Do(func() {
		close(wp.jobQueue)
		wp.wg.Wait()
		close(wp.resultQueue)
		wp.logger.Debug("Worker pool stopped")
	})
}

// Submit queues a job. It fails once the pool's context is done.
func (wp *WorkerPool) Submit(job Job) error {
	if err := wp.ctx.Err(); err != nil {
		return fmt.Errorf("worker pool is shutting down: %w", err)
	}
	select {
	case wp.jobQueue <- job:
		return nil
	case <-wp.ctx.Done():
		return fmt.Errorf("worker pool is shutting down: %w", wp.ctx.Err())
	}
}

// Results returns the result channel
func (wp *WorkerPool) Results() <-chan Result {
	return wp.resultQueue
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for job := range wp.jobQueue {
		wp.resultQueue <- wp.processJob(job, id)
	}
}

func (wp *WorkerPool) processJob(job Job, workerID int) Result {
	start := time.Now()
	result := Result{Job: job}

	// jobs still queued at cancellation are answered without a lookup
	if err := wp.ctx.Err(); err != nil {
		result.Error = err
		return result
	}

	report, err := wp.checker.Check(wp.ctx, job.Username)
	result.Duration = time.Since(start)
	if err != nil {
		result.Error = err
		if wp.ctx.Err() == nil && !errors.IsNotFound(err) && !errors.IsValidation(err) {
			wp.logger.ErrorWithFields("Worker failed to check account", map[string]interface{}{
				"worker_id": workerID,
				"username":  job.Username,
				"error":     err.Error(),
				"duration":  result.Duration,
			})
		}
		return result
	}
	result.Report = report

	if wp.sink != nil {
		if err := wp.sink.Save(report); err != nil {
			result.Error = fmt.Errorf("save report: %w", err)
			wp.logger.ErrorWithFields("Worker failed to save report", map[string]interface{}{
				"worker_id": workerID,
				"username":  report.Username,
				"error":     err.Error(),
			})
		}
	}

	return result
}

// CheckAll checks usernames with numWorkers workers and returns one result
// per input, in input order
func CheckAll(ctx context.Context, checker Checker, sink ReportSink, usernames []string, numWorkers int, log logger.Logger) []Result {
	return CheckAllFunc(ctx, checker, sink, usernames, numWorkers, log, nil)
}

// CheckAllFunc is CheckAll with observe called for every result as it comes
// off the pool, in completion order. Usernames never submitted because ctx
// ended are not observed. observe may be nil.
func CheckAllFunc(ctx context.Context, checker Checker, sink ReportSink, usernames []string, numWorkers int, log logger.Logger, observe func(Result)) []Result {
	pool := NewWorkerPool(ctx, numWorkers, checker, sink, log)
	pool.Start()

	go func() {
		defer pool.Stop()
		for i, username := range usernames {
			if err := pool.Submit(Job{Index: i, Username: username}); err != nil {
				return
			}
		}
	}()

	results := make([]Result, len(usernames))
	seen := make([]bool, len(usernames))
	for r := range pool.Results() {
		results[r.Job.Index] = r
		seen[r.Job.Index] = true
		if observe != nil {
			observe(r)
		}
	}

	for i := range results {
		if !seen[i] {
			results[i] = Result{Job: Job{Index: i, Username: usernames[i]}, Error: ctx.Err()}
		}
	}
	return results
}
