package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/golang/glog"
	"github.com/krancour/bbdata/internal/redis"
	"github.com/krancour/bbdata/internal/signals"
	"github.com/krancour/bbdata/internal/version"
	"github.com/krancour/bbdata/sdk/data"
	"github.com/krancour/bbdata/sdk/live"
)

func main() {
	// We need to parse flags for glog-related options to take effect
	flag.Parse()
	defer glog.Flush()

	glog.Infof("Starting bbdata monitor -- version %s", version.String())

	config, err := GetConfigFromEnvironment()
	if err != nil {
		glog.Fatal(err)
	}

	redisClient, err := redis.Client()
	if err != nil {
		glog.Fatal(err)
	}
	if redisClient == nil {
		glog.Fatal("REDIS_HOST must be set; the monitor has nowhere to publish")
	}

	accessor := data.NewCachedAccessor(
		config.newRESTAccessor(),
		redisClient,
		config.RunningBuildTTL,
	)
	monitor := NewMonitor(config, accessor, accessor)

	if config.Name == "" {
		if config.Name, err = os.Hostname(); err != nil {
			glog.Fatal(err)
		}
	}
	lastBeat, err := lastHeartbeat(redisClient, config.Name)
	if err != nil {
		glog.Fatal(err)
	}
	if !lastBeat.IsZero() {
		glog.Infof(
			"monitor %q last reported in at %s",
			config.Name,
			lastBeat.Format(time.RFC3339),
		)
	}

	ctx := signals.Context()

	go func() {
		logHeartbeatFailure(
			(&heart{
				redisClient: redisClient,
				member:      config.Name,
				interval:    config.HeartbeatInterval,
				maxAttempts: 5,
				maxBackoff:  config.MaxReconnectBackoff,
			}).run(ctx),
		)
	}()

	err = monitor.Follow(
		ctx,
		func(ctx context.Context) (liveSession, error) {
			return live.Dial(
				ctx,
				config.APIAddress,
				config.streamHeader(),
				config.IgnoreAPICertWarnings,
			)
		},
	)
	if ctx.Err() != nil {
		glog.Info("shutting down")
		return
	}
	glog.Fatal(err)
}
