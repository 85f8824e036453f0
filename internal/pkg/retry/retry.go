package retry

import "time"

const (
	DefaultMaxRetries   = 3
	DefaultInitialDelay = 300 * time.Millisecond
	DefaultMultiplier   = 2
)

// Policy executes an operation with bounded retries and exponential backoff.
// The delay grows without an upper bound; callers needing a cap must lower
// MaxRetries or decline retries through ShouldRetry.
type Policy struct {
	// MaxRetries is the number of retries after the first attempt, so the
	// operation runs at most MaxRetries+1 times.
	MaxRetries   int
	InitialDelay time.Duration
	Multiplier   float64
	// ShouldRetry decides whether a failure is worth retrying. Nil means
	// every failure is retried.
	ShouldRetry func(error) bool

	// sleep is swappable for tests.
	sleep func(time.Duration)
}

// Default returns the policy used across the codebase: up to 4 total
// attempts starting at 300ms and doubling.
func Default() Policy {
	return Policy{
		MaxRetries:   DefaultMaxRetries,
		InitialDelay: DefaultInitialDelay,
		Multiplier:   DefaultMultiplier,
	}
}

// Do runs fn until it succeeds, the retry budget is exhausted, or
// ShouldRetry declines. The last observed error is returned on exhaustion.
func (p Policy) Do(fn func() error) error {
	maxRetries := p.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	delay := p.InitialDelay
	if delay <= 0 {
		delay = DefaultInitialDelay
	}
	multiplier := p.Multiplier
	if multiplier <= 0 {
		multiplier = DefaultMultiplier
	}
	sleep := p.sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	var err error
	for attempt := 0; ; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		if attempt >= maxRetries {
			return err
		}
		if p.ShouldRetry != nil && !p.ShouldRetry(err) {
			return err
		}
		sleep(delay)
		delay = time.Duration(float64(delay) * multiplier)
	}
}
