package services

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/nexconsult/cnpj-docs/internal/consultation"
	"golang.org/x/sync/semaphore"
)

// Limiter caps the number of concurrent browser sessions.
type Limiter struct {
	sem     *semaphore.Weighted
	size    int64
	timeout time.Duration

	inFlight atomic.Int64
	waiting  atomic.Int64
	rejected atomic.Int64
}

// LimiterStats is a point-in-time view of the limiter.
type LimiterStats struct {
	Capacity       int64  `json:"capacity"`
	InFlight       int64  `json:"in_flight"`
	Waiting        int64  `json:"waiting"`
	Rejected       int64  `json:"rejected"`
	AcquireTimeout string `json:"acquire_timeout"`
}

// NewLimiter allows size concurrent holders; Acquire waits at most timeout.
func NewLimiter(size int, timeout time.Duration) *Limiter {
	if size < 1 {
		size = 1
	}
	return &Limiter{sem: semaphore.NewWeighted(int64(size)), size: int64(size), timeout: timeout}
}

// Acquire blocks until a slot is free. It fails with KindBusy at StageQueue
// when the wait exceeds the acquire timeout. A caller that gives up first
// gets KindUnexpected and is not counted as rejected.
func (l *Limiter) Acquire(ctx context.Context) (func(), error) {
	waitCtx := ctx
	if l.timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	l.waiting.Add(1)
	err := l.sem.Acquire(waitCtx, 1)
	l.waiting.Add(-1)
	if err != nil {
		if ctx.Err() != nil {
			return nil, consultation.NewError(consultation.KindUnexpected, consultation.StageQueue,
				fmt.Errorf("gave up waiting for a browser session: %w", ctx.Err()))
		}
		l.rejected.Add(1)
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("all %d browser sessions busy for %s", l.size, l.timeout)
		}
		return nil, consultation.NewError(consultation.KindBusy, consultation.StageQueue, err)
	}

	l.inFlight.Add(1)
	var released atomic.Bool
	return func() {
		if released.CompareAndSwap(false, true) {
			l.inFlight.Add(-1)
			l.sem.Release(1)
		}
	}, nil
}

// Stats reports capacity and usage.
func (l *Limiter) Stats() LimiterStats {
	return LimiterStats{
		Capacity:       l.size,
		InFlight:       l.inFlight.Load(),
		Waiting:        l.waiting.Load(),
		Rejected:       l.rejected.Load(),
		AcquireTimeout: l.timeout.String(),
	}
}
