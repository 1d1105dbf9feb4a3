package retries

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/pkg/errors"
)

var (
	seededRand   = rand.New(rand.NewSource(time.Now().UnixNano()))
	seededRandMu sync.Mutex
)

// ManageRetries invokes fn until it either succeeds or reports that the
// failure is not worth retrying, backing off exponentially (with jitter) up
// to maxBackoff between attempts. A maxAttempts of zero retries forever.
func ManageRetries(
	ctx context.Context,
	process string,
	maxAttempts uint8,
	maxBackoff time.Duration,
	fn func() (bool, error),
) error {
	var failedAttempts uint8
	for {
		retry, err := fn()
		if !retry {
			return err
		}
		if failedAttempts < math.MaxUint8 {
			failedAttempts++
		}
		if maxAttempts != 0 && failedAttempts >= maxAttempts {
			return errors.Wrapf(
				err,
				"failed %d attempt(s) to %s",
				maxAttempts,
				process,
			)
		}
		delay := jitteredExpBackoff(failedAttempts, maxBackoff)
		glog.Warningf(
			"failed %d attempt(s) to %s; will retry in %s: %s",
			failedAttempts,
			process,
			delay,
			err,
		)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func jitteredExpBackoff(
	failureCount uint8,
	maxDelay time.Duration,
) time.Duration {
	base := math.Pow(2, float64(failureCount))
	capped := math.Min(base, maxDelay.Seconds())
	seededRandMu.Lock()
	jittered := (1 + seededRand.Float64()) * (capped / 2)
	seededRandMu.Unlock()
	scaled := jittered * float64(time.Second)
	return time.Duration(scaled)
}
