package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestWaitForSlot_AdmitsUpToRPMImmediately(t *testing.T) {
	l := New(3)
	ctx := context.Background()
	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := l.WaitForSlot(ctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if time.Since(start) > 50*time.Millisecond {
		t.Fatalf("expected first rpm admissions to be immediate")
	}
}

func TestWaitForSlot_BlocksBeyondRPM(t *testing.T) {
	l := New(1)
	// Record the first admission as if it happened 100ms short of a minute
	// ago. WaitForSlot sleeps on a real timer for the computed delay, so the
	// second call blocks only until that admission ages out of the window.
	past := time.Now().Add(-time.Minute + 100*time.Millisecond)
	l.now = func() time.Time { return past }
	ctx := context.Background()

	if err := l.WaitForSlot(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	l.mu.Lock()
	l.now = time.Now
	l.mu.Unlock()

	errCh := make(chan error, 1)
	go func() { errCh <- l.WaitForSlot(ctx) }()

	select {
	case <-errCh:
		t.Fatalf("WaitForSlot returned before the first admission aged out")
	case <-time.After(20 * time.Millisecond):
	}

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("WaitForSlot did not unblock after window elapsed")
	}
}

func TestWaitForSlot_CancellationPropagates(t *testing.T) {
	l := New(1)
	ctx := context.Background()
	if err := l.WaitForSlot(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- l.WaitForSlot(cctx) }()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if err != context.Canceled {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("cancellation did not propagate")
	}
}

func TestWaitForSlot_NeverExceedsRPMInWindow(t *testing.T) {
	l := New(5)
	ctx := context.Background()
	var mu sync.Mutex
	var admits []time.Time

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.WaitForSlot(ctx); err == nil {
				mu.Lock()
				admits = append(admits, time.Now())
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	for i := range admits {
		count := 0
		for j := range admits {
			if !admits[j].Before(admits[i].Add(-time.Minute)) && !admits[j].After(admits[i]) {
				count++
			}
		}
		if count > 5 {
			t.Fatalf("more than rpm admissions in a 60s window ending at admission %d: %d", i, count)
		}
	}
}
