package utils

import (
	"context"
	"time"
)

const defaultPollInterval = 250 * time.Millisecond

// WaitConfig holds the parameters for a bounded condition wait.
type WaitConfig struct {
	Budget   time.Duration
	Interval time.Duration
}

// Until polls cond until it reports true, the budget is spent or ctx is done.
// It returns true when the condition was met. Running out of budget is not an
// error: callers decide whether an unmet condition matters. An error from cond
// stops the wait and is returned as-is.
func (w WaitConfig) Until(ctx context.Context, cond func(ctx context.Context) (bool, error)) (bool, error) {
	interval := w.Interval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	deadline := time.Now().Add(w.Budget)

	for {
		ok, err := cond(ctx)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false, nil
		}
		delay := interval
		if remaining < delay {
			delay = remaining
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return false, ctx.Err()
		case <-timer.C:
		}
	}
}
