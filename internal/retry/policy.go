package retry

import (
	"context"
	"errors"
	"time"
)

// BackoffMode selects how delays grow between attempts.
type BackoffMode string

const (
	BackoffFixed       BackoffMode = "fixed"
	BackoffLinear      BackoffMode = "linear"
	BackoffExponential BackoffMode = "exponential"
)

// Policy holds retry/backoff settings for transient failures.
type Policy struct {
	Mode       BackoffMode
	Initial    time.Duration // base delay
	Max        time.Duration // cap for growth
	MaxRetries int           // attempts after the first failure
}

// DefaultPolicy is linear, 1s initial, 30s cap, 2 retries.
func DefaultPolicy() Policy {
	return Policy{Mode: BackoffLinear, Initial: time.Second, Max: 30 * time.Second, MaxRetries: 2}
}

// NewPolicy builds a policy; zero or unknown values fall back to defaults.
func NewPolicy(mode BackoffMode, initial, maxDelay time.Duration, maxRetries int) Policy {
	p := DefaultPolicy()
	if maxRetries >= 0 {
		p.MaxRetries = maxRetries
	}
	if initial > 0 {
		p.Initial = initial
	}
	if maxDelay > 0 {
		p.Max = maxDelay
	}
	switch mode {
	case BackoffFixed, BackoffLinear, BackoffExponential:
		p.Mode = mode
	}
	if p.Initial > p.Max {
		p.Initial = p.Max
	}
	return p
}

// Delay returns the wait before retry n (1-based).
func (p Policy) Delay(n int) time.Duration {
	if n <= 0 {
		return 0
	}
	var d time.Duration
	switch p.Mode {
	case BackoffFixed:
		return p.Initial
	case BackoffExponential:
		d = p.Initial << (n - 1)
	default:
		d = time.Duration(n) * p.Initial
	}
	if d > p.Max || d <= 0 {
		return p.Max
	}
	return d
}

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// Do runs fn until it succeeds, returns a permanent error, retries are
// exhausted or ctx is done. onRetry, if set, is called before each wait.
// The returned error is fn's last error with any Permanent marker removed.
func (p Policy) Do(ctx context.Context, fn func(context.Context) error, onRetry func(attempt int, err error, wait time.Duration)) error {
	var err error
	for attempt := 0; ; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		if attempt >= p.MaxRetries {
			return err
		}
		wait := p.Delay(attempt + 1)
		if onRetry != nil {
			onRetry(attempt+1, err, wait)
		}
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return errors.Join(err, ctx.Err())
		case <-t.C:
		}
	}
}
