package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func collect(t *testing.T) (*Coordinator, func() []Result, func()) {
	t.Helper()
	var mu sync.Mutex
	var results []Result
	done := make(chan struct{}, 16)
	c := New(func(r Result) {
		mu.Lock()
		results = append(results, r)
		mu.Unlock()
		done <- struct{}{}
	})
	wait := func(n int) []Result {
		for i := 0; i < n; i++ {
			select {
			case <-done:
			case <-time.After(2 * time.Second):
				t.Fatalf("timed out waiting for result %d/%d", i+1, n)
			}
		}
		mu.Lock()
		defer mu.Unlock()
		return append([]Result(nil), results...)
	}
	cleanup := func() { c.Stop() }
	return c, func() []Result { return wait(1) }, cleanup
}

func TestSubmitRunsTaskToCompletion(t *testing.T) {
	c, wait, cleanup := collect(t)
	defer cleanup()

	c.Submit(func(ctx context.Context, report func(Progress)) (any, error) {
		return 42, nil
	})

	results := wait()
	last := results[len(results)-1]
	if !last.Done || last.Value != 42 || last.Err != nil {
		t.Fatalf("unexpected result: %+v", last)
	}
}

func TestSubmitReplacesQueuedWork(t *testing.T) {
	var mu sync.Mutex
	var seen []int
	done := make(chan struct{}, 4)
	c := New(func(r Result) {
		if r.Done {
			mu.Lock()
			seen = append(seen, r.Value.(int))
			mu.Unlock()
			done <- struct{}{}
		}
	})
	defer c.Stop()

	block := make(chan struct{})
	started := make(chan struct{})
	c.Submit(func(ctx context.Context, report func(Progress)) (any, error) {
		close(started)
		<-block
		return 1, nil
	})
	<-started
	// these two both land in the depth-1 queue slot; the second replaces
	// the first before it ever runs
	c.Submit(func(ctx context.Context, report func(Progress)) (any, error) { return 2, nil })
	c.Submit(func(ctx context.Context, report func(Progress)) (any, error) { return 3, nil })
	close(block)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for first result")
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for second result")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 2 || seen[0] != 1 || seen[1] != 3 {
		t.Fatalf("seen = %v, want [1 3] (the queued 2 should have been replaced)", seen)
	}
}

func TestStopWorkCancelsRunningTaskCooperatively(t *testing.T) {
	c, wait, cleanup := collect(t)
	defer cleanup()

	started := make(chan struct{})
	c.Submit(func(ctx context.Context, report func(Progress)) (any, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	})
	<-started
	c.StopWork(false)

	results := wait()
	last := results[len(results)-1]
	if !last.Stopped || !errors.Is(last.Err, context.Canceled) {
		t.Fatalf("unexpected result: %+v", last)
	}
}

func TestStopWorkWithDropResultsSuppressesCallback(t *testing.T) {
	var mu sync.Mutex
	var calls int
	c := New(func(r Result) {
		mu.Lock()
		calls++
		mu.Unlock()
	})
	defer c.Stop()

	started := make(chan struct{})
	stoppedTask := make(chan struct{})
	c.Submit(func(ctx context.Context, report func(Progress)) (any, error) {
		close(started)
		<-ctx.Done()
		close(stoppedTask)
		return nil, ctx.Err()
	})
	<-started
	c.StopWork(true)
	<-stoppedTask

	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if calls != 0 {
		t.Fatalf("expected no callback invocation when results are dropped, got %d", calls)
	}
}

func TestSubmitReportsProgressBeforeFinalResult(t *testing.T) {
	var mu sync.Mutex
	var messages []string
	doneCh := make(chan struct{})
	c := New(func(r Result) {
		mu.Lock()
		defer mu.Unlock()
		if r.Progress != nil {
			messages = append(messages, r.Progress.Message)
		}
		if r.Done {
			close(doneCh)
		}
	})
	defer c.Stop()

	c.Submit(func(ctx context.Context, report func(Progress)) (any, error) {
		report(Progress{Message: "25%"})
		report(Progress{Message: "75%"})
		return "done", nil
	})

	select {
	case <-doneCh:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for completion")
	}
	mu.Lock()
	defer mu.Unlock()
	if len(messages) != 2 || messages[0] != "25%" || messages[1] != "75%" {
		t.Fatalf("messages = %v, want [25%% 75%%]", messages)
	}
}
