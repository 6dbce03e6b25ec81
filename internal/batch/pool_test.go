package batch

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"igaudit/pkg/classifier"
	"igaudit/pkg/detector"
	"igaudit/pkg/errors"
	"igaudit/pkg/logger"
	"igaudit/pkg/provider"
)

// slowChecker answers every username with a real verdict after a delay
type slowChecker struct {
	delay   time.Duration
	calls   int32
	active  int32
	peak    int32
	failFor map[string]error
}

func (c *slowChecker) Check(ctx context.Context, raw string) (*detector.Report, error) {
	atomic.AddInt32(&c.calls, 1)
	n := atomic.AddInt32(&c.active, 1)
	defer atomic.AddInt32(&c.active, -1)
	for {
		p := atomic.LoadInt32(&c.peak)
		if n <= p || atomic.CompareAndSwapInt32(&c.peak, p, n) {
			break
		}
	}

	select {
	case <-time.After(c.delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if err := c.failFor[raw]; err != nil {
		return nil, err
	}
	return &detector.Report{Username: raw, Label: classifier.LabelReal}, nil
}

type memorySink struct {
	mu    sync.Mutex
	saved map[string]bool
	err   error
}

func (s *memorySink) Save(report *detector.Report) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saved == nil {
		s.saved = make(map[string]bool)
	}
	s.saved[report.Username] = true
	return nil
}

func usernames(n int) []string {
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("user_%d", i)
	}
	return names
}

func TestWorkerPoolBasicFunctionality(t *testing.T) {
	checker := &slowChecker{delay: 5 * time.Millisecond}
	sink := &memorySink{}

	pool := NewWorkerPool(context.Background(), 3, checker, sink, logger.NewNopLogger())
	pool.Start()

	var results []Result
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for result := range pool.Results() {
			results = append(results, result)
		}
	}()

	numJobs := 10
	for i, name := range usernames(numJobs) {
		if err := pool.Submit(Job{Index: i, Username: name}); err != nil {
			t.Errorf("Failed to submit job %d: %v", i, err)
		}
	}

	pool.Stop()
	pool.Stop()
	wg.Wait()

	if len(results) != numJobs {
		t.Fatalf("Expected %d results, got %d", numJobs, len(results))
	}
	for _, r := range results {
		if r.Error != nil || r.Report == nil {
			t.Errorf("Expected success for %s, got %v", r.Job.Username, r.Error)
		}
		if r.Duration <= 0 {
			t.Errorf("Expected a duration for %s", r.Job.Username)
		}
	}
	if got := atomic.LoadInt32(&checker.calls); got != int32(numJobs) {
		t.Errorf("Expected %d checks, got %d", numJobs, got)
	}
	if len(sink.saved) != numJobs {
		t.Errorf("Expected %d saved reports, got %d", numJobs, len(sink.saved))
	}
}

func TestWorkerPoolConcurrency(t *testing.T) {
	checker := &slowChecker{delay: 50 * time.Millisecond}

	start := time.Now()
	results := CheckAll(context.Background(), checker, nil, usernames(8), 4, logger.NewNopLogger())
	elapsed := time.Since(start)

	if len(results) != 8 {
		t.Fatalf("Expected 8 results, got %d", len(results))
	}
	if peak := atomic.LoadInt32(&checker.peak); peak < 2 || peak > 4 {
		t.Errorf("Expected between 2 and 4 concurrent checks, got %d", peak)
	}
	// 8 jobs of 50ms on 4 workers is about 100ms; sequential would be 400ms
	if elapsed > 300*time.Millisecond {
		t.Errorf("Checks do not appear to run concurrently: %v", elapsed)
	}
}

func TestCheckAllKeepsInputOrder(t *testing.T) {
	d := detector.New(provider.NewMockProvider(), nil, logger.NewNopLogger())
	input := []string{"travel_blogger", "nobody_here", "ghost_account", "bad name", "follow_farm"}

	results := CheckAll(context.Background(), d, nil, input, 3, logger.NewNopLogger())

	if len(results) != len(input) {
		t.Fatalf("Expected %d results, got %d", len(input), len(results))
	}
	for i, r := range results {
		if r.Job.Index != i || r.Job.Username != input[i] {
			t.Errorf("Result %d is for %q", i, r.Job.Username)
		}
	}

	if results[0].Report.Label != classifier.LabelReal {
		t.Errorf("travel_blogger: got %s", results[0].Report.Label)
	}
	if !errors.IsNotFound(results[1].Error) {
		t.Errorf("nobody_here: expected not found, got %v", results[1].Error)
	}
	if results[2].Report.Label != classifier.LabelFake {
		t.Errorf("ghost_account: got %s", results[2].Report.Label)
	}
	if !errors.IsValidation(results[3].Error) {
		t.Errorf("bad name: expected validation error, got %v", results[3].Error)
	}

	s := Summarize(results)
	want := Summary{Total: 5, Fake: 2, Real: 1, NotFound: 1, Failed: 1}
	if s != want {
		t.Errorf("Summary = %+v, want %+v", s, want)
	}
	if !s.Failures() {
		t.Error("Expected failures to be reported")
	}
}

func TestCheckAllFuncObservesEveryResult(t *testing.T) {
	var observed []string
	results := CheckAllFunc(context.Background(), &slowChecker{delay: time.Millisecond}, nil, usernames(5), 2, logger.NewNopLogger(), func(r Result) {
		observed = append(observed, r.Job.Username)
	})

	if len(observed) != len(results) {
		t.Fatalf("Expected %d observed results, got %d", len(results), len(observed))
	}
	seen := make(map[string]bool)
	for _, u := range observed {
		seen[u] = true
	}
	for _, r := range results {
		if !seen[r.Job.Username] {
			t.Errorf("Result for %s was not observed", r.Job.Username)
		}
	}
}

func TestWorkerPoolWithErrors(t *testing.T) {
	checker := &slowChecker{failFor: map[string]error{
		"user_1": errors.New(errors.ErrorTypeNetwork, 0, "connection reset"),
	}}
	tl := logger.NewTestLogger()

	results := CheckAll(context.Background(), checker, nil, usernames(3), 2, tl)

	if results[1].Error == nil || results[1].Report != nil {
		t.Errorf("Expected user_1 to fail, got %+v", results[1])
	}
	if results[0].Error != nil || results[2].Error != nil {
		t.Error("Expected other users to succeed")
	}
	if !tl.HasMessage("Worker failed to check account") {
		t.Error("Expected the failure to be logged")
	}
}

func TestWorkerPoolSaveFailureKeepsReport(t *testing.T) {
	sink := &memorySink{err: fmt.Errorf("disk full")}

	results := CheckAll(context.Background(), &slowChecker{}, sink, usernames(1), 1, logger.NewNopLogger())

	if results[0].Report == nil {
		t.Fatal("Expected the report to be kept")
	}
	if results[0].Error == nil {
		t.Fatal("Expected a save error")
	}
	if s := Summarize(results); s.Real != 1 {
		t.Errorf("Expected the report to count as real, got %+v", s)
	}
}

func TestCheckAllCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	checker := &slowChecker{delay: time.Second}
	results := CheckAll(ctx, checker, nil, usernames(20), 2, logger.NewNopLogger())

	if len(results) != 20 {
		t.Fatalf("Expected 20 results, got %d", len(results))
	}
	for _, r := range results {
		if r.Error != context.Canceled {
			t.Errorf("Expected context.Canceled for %s, got %v", r.Job.Username, r.Error)
		}
	}
	if got := atomic.LoadInt32(&checker.calls); got != 0 {
		t.Errorf("Expected no checks after cancellation, got %d", got)
	}
}

func TestSubmitAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pool := NewWorkerPool(ctx, 1, &slowChecker{}, nil, nil)
	pool.Start()
	cancel()

	if err := pool.Submit(Job{Username: "late"}); err == nil {
		t.Error("Expected submit to fail after cancellation")
	}
	pool.Stop()
	for range pool.Results() {
	}
}
