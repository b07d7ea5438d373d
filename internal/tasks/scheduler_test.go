package tasks

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestTimerScheduler_FiresHandler(t *testing.T) {
	fired := make(chan string, 1)
	s := NewTimerScheduler(func(_ context.Context, id string) {
		fired <- id
	})
	defer s.Stop()

	// Past-due schedules fire after the minimum delay instead of never.
	s.now = func() time.Time { return time.Now().Add(2 * time.Second) }
	if err := s.Schedule(context.Background(), "table-cleanup:1", time.Now()); err != nil {
		t.Fatal(err)
	}

	select {
	case id := <-fired:
		if id != "table-cleanup:1" {
			t.Errorf("fired %q, want table-cleanup:1", id)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("handler did not fire")
	}

	if s.Pending("table-cleanup:1") {
		t.Error("fired task must not remain pending")
	}
}

func TestTimerScheduler_CancelPreventsFire(t *testing.T) {
	var mu sync.Mutex
	fired := false
	s := NewTimerScheduler(func(context.Context, string) {
		mu.Lock()
		fired = true
		mu.Unlock()
	})
	defer s.Stop()

	ctx := context.Background()
	if err := s.Schedule(ctx, "table-cleanup:7", time.Now().Add(50*time.Millisecond)); err != nil {
		t.Fatal(err)
	}
	if err := s.Cancel(ctx, "table-cleanup:7"); err != nil {
		t.Fatal(err)
	}
	if s.Pending("table-cleanup:7") {
		t.Error("cancelled task must not be pending")
	}

	time.Sleep(150 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if fired {
		t.Error("cancelled task fired")
	}
}

func TestTimerScheduler_RescheduleReplaces(t *testing.T) {
	fired := make(chan time.Time, 2)
	s := NewTimerScheduler(func(context.Context, string) {
		fired <- time.Now()
	})
	defer s.Stop()

	ctx := context.Background()
	if err := s.Schedule(ctx, "table-cleanup:3", time.Now().Add(time.Hour)); err != nil {
		t.Fatal(err)
	}
	if err := s.Schedule(ctx, "table-cleanup:3", time.Now().Add(50*time.Millisecond)); err != nil {
		t.Fatal(err)
	}

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("replacement schedule did not fire")
	}

	select {
	case <-fired:
		t.Fatal("replaced schedule fired too")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestTimerScheduler_CancelUnknownIsNoop(t *testing.T) {
	s := NewTimerScheduler(func(context.Context, string) {})
	defer s.Stop()

	if err := s.Cancel(context.Background(), "never-scheduled"); err != nil {
		t.Fatalf("cancel of unknown id returned %v", err)
	}
}
