// Package wait polls for conditions with a timeout, used mainly to block
// until a freshly started listener accepts connections.
package wait

import (
	"context"
	"errors"
	"net"
	"time"
)

// ErrTimeout is returned when the condition never held within the timeout.
var ErrTimeout = errors.New("wait: timeout exceeded")

// ConditionFunc reports whether the awaited condition currently holds. A
// non-nil error aborts the wait immediately.
type ConditionFunc func() (bool, error)

// Options configures a wait.
type Options struct {
	Timeout  time.Duration
	Interval time.Duration
	Context  context.Context
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() *Options {
	return &Options{
		Timeout:  10 * time.Second,
		Interval: 10 * time.Millisecond,
		Context:  context.Background(),
	}
}

// WithTimeout sets the overall timeout.
func (o *Options) WithTimeout(d time.Duration) *Options {
	o.Timeout = d
	return o
}

// WithInterval sets the poll interval.
func (o *Options) WithInterval(d time.Duration) *Options {
	o.Interval = d
	return o
}

// Until polls the condition until it holds, the timeout expires, or the
// condition itself fails.
func Until(condition ConditionFunc, opts ...*Options) error {
	options := DefaultOptions()
	if len(opts) > 0 && opts[0] != nil {
		options = opts[0]
	}
	if options.Context == nil {
		options.Context = context.Background()
	}

	ctx, cancel := context.WithTimeout(options.Context, options.Timeout)
	defer cancel()

	ticker := time.NewTicker(options.Interval)
	defer ticker.Stop()

	for {
		ok, err := condition()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}

		select {
		case <-ctx.Done():
			return ErrTimeout
		case <-ticker.C:
		}
	}
}

// ForTCP waits until a TCP connection to the address succeeds.
func ForTCP(address string, opts ...*Options) error {
	return Until(func() (bool, error) {
		conn, err := net.DialTimeout("tcp", address, time.Second)
		if err != nil {
			return false, nil
		}
		conn.Close()
		return true, nil
	}, opts...)
}
