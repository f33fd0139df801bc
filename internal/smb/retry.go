package smb

import (
	"context"
	"errors"
	"time"
)

// retryBackoff is the delay between attempts after a connection error.
const retryBackoff = 250 * time.Millisecond

// WithRetry runs fn, retrying up to retries additional times when it fails
// with ErrConnection. Other errors return immediately. Context cancellation
// aborts the wait between attempts.
func WithRetry(ctx context.Context, retries int, fn func() error) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = fn()
		if err == nil || !errors.Is(err, ErrConnection) {
			return err
		}
		if attempt >= retries {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryBackoff):
		}
	}
}
