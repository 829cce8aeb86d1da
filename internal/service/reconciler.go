package service

import (
	"context"
	"sync"
	"time"
)

// ReconcilerState is the confirmation state machine's position.
type ReconcilerState string

const (
	StateLoading ReconcilerState = "loading"
	StateSuccess ReconcilerState = "success"
	StateError   ReconcilerState = "error"
)

const (
	defaultPollInterval = 3 * time.Second
	defaultMaxAttempts  = 10
)

// PollFunc asks the verification endpoint whether the order settled. Any
// error is treated the same as an explicit pending answer: poll again.
type PollFunc func(ctx context.Context) (settled bool, err error)

// SleepFunc waits out the poll cadence. The default sleeps for real;
// tests inject a no-op.
type SleepFunc func(ctx context.Context, d time.Duration) error

func realSleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// PollReconciler is the bounded-retry payment confirmation machine:
// LOADING -> SUCCESS on a settled answer, LOADING -> ERROR after the attempt
// ceiling. From ERROR a manual Recheck performs one more poll outside the
// automatic cadence; an invalidated machine (bad redirect, missing
// correlation params) is terminal and never polls.
type PollReconciler struct {
	poll        PollFunc
	sleep       SleepFunc
	interval    time.Duration
	maxAttempts int

	mu       sync.Mutex
	state    ReconcilerState
	attempts int
	invalid  bool
}

// ReconcilerOption customizes a PollReconciler.
type ReconcilerOption func(*PollReconciler)

func WithPollInterval(d time.Duration) ReconcilerOption {
	return func(r *PollReconciler) { r.interval = d }
}

func WithMaxAttempts(n int) ReconcilerOption {
	return func(r *PollReconciler) { r.maxAttempts = n }
}

func WithSleep(s SleepFunc) ReconcilerOption {
	return func(r *PollReconciler) { r.sleep = s }
}

// NewPollReconciler builds a machine in LOADING around the given poll call.
func NewPollReconciler(poll PollFunc, opts ...ReconcilerOption) *PollReconciler {
	r := &PollReconciler{
		poll:        poll,
		sleep:       realSleep,
		interval:    defaultPollInterval,
		maxAttempts: defaultMaxAttempts,
		state:       StateLoading,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// State returns the machine's current state.
func (r *PollReconciler) State() ReconcilerState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Attempts returns how many automatic polls have run.
func (r *PollReconciler) Attempts() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.attempts
}

// Invalidate moves the machine straight to a non-retryable ERROR, used when
// the gateway redirect is missing its correlation parameters. No poll runs.
func (r *PollReconciler) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = StateError
	r.invalid = true
}

// Run drives the automatic polling cadence until a terminal state: each
// attempt polls once, and anything short of a settled answer waits out the
// fixed interval and tries again up to the attempt ceiling.
func (r *PollReconciler) Run(ctx context.Context) ReconcilerState {
	for {
		r.mu.Lock()
		if r.state != StateLoading {
			state := r.state
			r.mu.Unlock()
			return state
		}
		if r.attempts >= r.maxAttempts {
			r.state = StateError
			r.mu.Unlock()
			return StateError
		}
		r.attempts++
		r.mu.Unlock()

		settled, err := r.poll(ctx)
		if err == nil && settled {
			r.mu.Lock()
			r.state = StateSuccess
			r.mu.Unlock()
			return StateSuccess
		}

		r.mu.Lock()
		exhausted := r.attempts >= r.maxAttempts
		if exhausted {
			r.state = StateError
		}
		r.mu.Unlock()
		if exhausted {
			return StateError
		}

		if err := r.sleep(ctx, r.interval); err != nil {
			r.mu.Lock()
			r.state = StateError
			r.mu.Unlock()
			return StateError
		}
	}
}

// Recheck is the manual retry from ERROR: one poll outside the cadence.
// If it still does not settle the machine stays in ERROR — the external
// settlement may simply be delayed, so this is a transient failure, not a
// hard one. Invalidated machines never poll again.
func (r *PollReconciler) Recheck(ctx context.Context) ReconcilerState {
	r.mu.Lock()
	if r.invalid || r.state == StateSuccess {
		state := r.state
		r.mu.Unlock()
		return state
	}
	r.mu.Unlock()

	settled, err := r.poll(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	if err == nil && settled {
		r.state = StateSuccess
	} else {
		r.state = StateError
	}
	return r.state
}
