// Package poller provides the caller-side loop that watches a generation
// job until it settles. It lives outside the service trust boundary: it only
// reads status and stopping it never affects the job server-side.
package poller

import (
	"context"
	"errors"
	"time"

	"studio/internal/domain"
)

const (
	DefaultInterval = 2 * time.Second
	DefaultTimeout  = 5 * time.Minute
)

// ErrTimeout is returned when the job is still in flight at the give-up
// deadline. The job may still be queried later.
var ErrTimeout = errors.New("poller: job did not settle before deadline")

// StatusChecker asks the service for a job's current state.
type StatusChecker interface {
	Check(ctx context.Context, jobID string) (*domain.Job, error)
}

// Observer receives one callback per poll tick. OnError is invoked for
// transient check failures; polling continues afterwards.
type Observer struct {
	OnStatus func(job *domain.Job)
	OnError  func(err error)
}

// Poller repeatedly checks a job at a fixed interval until a terminal state
// is observed or the maximum wait elapses.
type Poller struct {
	checker  StatusChecker
	interval time.Duration
	timeout  time.Duration
}

// New constructs a Poller; non-positive interval or timeout fall back to the
// defaults.
func New(checker StatusChecker, interval, timeout time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Poller{checker: checker, interval: interval, timeout: timeout}
}

// Watch polls the job until it settles, the deadline passes, or ctx is
// canceled. The terminal job is returned on success; ErrTimeout or the
// context error otherwise. Cancellation is purely local: the job keeps
// running server-side.
func (p *Poller) Watch(ctx context.Context, jobID string, obs Observer) (*domain.Job, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, ErrTimeout
			}
			return nil, ctx.Err()
		case <-ticker.C:
			job, err := p.checker.Check(ctx, jobID)
			if err != nil {
				if obs.OnError != nil {
					obs.OnError(err)
				}
				continue
			}
			if obs.OnStatus != nil {
				obs.OnStatus(job)
			}
			if job.Status.Terminal() {
				return job, nil
			}
		}
	}
}
