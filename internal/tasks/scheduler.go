// Package tasks provides the deferred-task scheduler behind the table
// cleanup transition. The engine depends only on the Scheduler interface,
// so tests can invoke the handler directly instead of waiting on timers.
package tasks

import (
	"context"
	"sync"
	"time"
)

// Handler is invoked when a scheduled task fires.
type Handler func(ctx context.Context, taskID string)

type Scheduler interface {
	// Schedule arms a one-shot task, replacing any pending schedule with
	// the same id.
	Schedule(ctx context.Context, taskID string, at time.Time) error
	// Cancel removes a pending schedule. Cancelling an unknown id is a
	// no-op.
	Cancel(ctx context.Context, taskID string) error
}

// TimerScheduler fires tasks from in-process timers.
type TimerScheduler struct {
	mu      sync.Mutex
	timers  map[string]*time.Timer
	handler Handler
	now     func() time.Time
}

func NewTimerScheduler(handler Handler) *TimerScheduler {
	return &TimerScheduler{
		timers:  make(map[string]*time.Timer),
		handler: handler,
		now:     time.Now,
	}
}

func (s *TimerScheduler) Schedule(_ context.Context, taskID string, at time.Time) error {
	delay := at.Sub(s.now())
	if delay <= 0 {
		delay = time.Second
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[taskID]; ok {
		t.Stop()
	}
	s.timers[taskID] = time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.timers, taskID)
		s.mu.Unlock()
		s.handler(context.Background(), taskID)
	})
	return nil
}

func (s *TimerScheduler) Cancel(_ context.Context, taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[taskID]; ok {
		t.Stop()
		delete(s.timers, taskID)
	}
	return nil
}

// Pending reports whether a schedule exists for taskID.
func (s *TimerScheduler) Pending(taskID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.timers[taskID]
	return ok
}

// Stop cancels every pending timer.
func (s *TimerScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}
