package keys

import "time"

// WithSession checks out one key, runs fn with it, and returns the key to
// the pool on every exit path, including a panic inside fn. The binding
// spans the whole of fn, so a multi-step remote workflow never switches
// keys between steps.
func WithSession(p *Pool, timeout time.Duration, fn func(Key) error) error {
	k, err := p.Acquire(timeout)
	if err != nil {
		return err
	}
	defer p.Release(k)
	return fn(k)
}
