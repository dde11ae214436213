package keys

import (
	"errors"
	"fmt"
	"time"
)

// Key is one API credential drawn from the shared pool. Its value is opaque;
// only identity matters.
type Key string

// Suffix returns the last four characters of the key, for log lines that
// must not expose the full credential.
func (k Key) Suffix() string {
	s := string(k)
	if len(s) <= 4 {
		return s
	}
	return s[len(s)-4:]
}

var (
	// ErrNoKeys is returned when a pool is constructed with zero keys.
	// Startup treats this as fatal.
	ErrNoKeys = errors.New("no API keys configured")

	// ErrPoolExhausted is returned when no key becomes available within
	// the acquire timeout.
	ErrPoolExhausted = errors.New("no API key available")
)

// acquireTimeoutPerKey scales the default acquire timeout with pool size:
// with more keys in rotation, a full pool drain takes longer to recover from.
const acquireTimeoutPerKey = 60 * time.Second

// Pool is a fixed-size set of API keys shared by all workers. Keys are
// checked out with Acquire and must be returned with Release exactly once.
// At every instant checked-out + available equals the pool size.
type Pool struct {
	keys chan Key
	size int
}

// NewPool builds a pool from the configured key values.
func NewPool(values []string) (*Pool, error) {
	if len(values) == 0 {
		return nil, ErrNoKeys
	}
	ch := make(chan Key, len(values))
	for _, v := range values {
		ch <- Key(v)
	}
	return &Pool{keys: ch, size: len(values)}, nil
}

// Size returns the fixed total number of keys in the pool.
func (p *Pool) Size() int {
	return p.size
}

// Available returns how many keys are currently checked in.
func (p *Pool) Available() int {
	return len(p.keys)
}

// DefaultAcquireTimeout is the acquire bound used when the caller does not
// supply one.
func (p *Pool) DefaultAcquireTimeout() time.Duration {
	return time.Duration(p.size) * acquireTimeoutPerKey
}

// Acquire checks out one key, blocking until a key is available or the
// timeout elapses. Timeout <= 0 means DefaultAcquireTimeout.
func (p *Pool) Acquire(timeout time.Duration) (Key, error) {
	if timeout <= 0 {
		timeout = p.DefaultAcquireTimeout()
	}

	select {
	case k := <-p.keys:
		return k, nil
	default:
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case k := <-p.keys:
		return k, nil
	case <-timer.C:
		return "", fmt.Errorf("%w after waiting %s", ErrPoolExhausted, timeout)
	}
}

// Release returns a key to the pool. Callers must call it exactly once per
// successful Acquire; a surplus release means an accounting bug and panics
// rather than silently growing the pool.
func (p *Pool) Release(k Key) {
	select {
	case p.keys <- k:
	default:
		panic("keys: Release without matching Acquire")
	}
}
