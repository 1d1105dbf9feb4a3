package main

import (
	"context"
	"time"

	"github.com/go-redis/redis"
	"github.com/golang/glog"
	"github.com/krancour/bbdata/internal/retries"
)

const monitorsSetKey = "bbdata:monitors"

type heart struct {
	redisClient redis.Cmdable
	member      string
	interval    time.Duration
	maxAttempts uint8
	maxBackoff  time.Duration
}

// run emits "heartbeats" at regular intervals as proof of life, so readers of
// the cache can tell whether anything is still keeping it current.
func (h *heart) run(ctx context.Context) error {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		if err := retries.ManageRetries(
			ctx,
			"send heartbeat",
			h.maxAttempts,
			h.maxBackoff,
			func() (bool, error) {
				if err := h.beat(); err != nil {
					return true, err // Retry
				}
				return false, nil // No retry
			},
		); err != nil {
			return err
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// beat adds/updates this monitor in a sorted set, scored by the current time.
func (h *heart) beat() error {
	return h.redisClient.ZAdd(
		monitorsSetKey,
		redis.Z{
			Score:  float64(time.Now().Unix()),
			Member: h.member,
		},
	).Err()
}

// lastHeartbeat returns when member last emitted a heartbeat, or the zero
// time if it never has.
func lastHeartbeat(redisClient redis.Cmdable, member string) (time.Time, error) {
	score, err := redisClient.ZScore(monitorsSetKey, member).Result()
	if err == redis.Nil {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(int64(score), 0), nil
}

func logHeartbeatFailure(err error) {
	if err != nil && err != context.Canceled {
		glog.Errorf("monitor heartbeat stopped: %s", err)
	}
}
