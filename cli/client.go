package main

import (
	"time"

	"github.com/krancour/bbdata/internal/redis"
	"github.com/krancour/bbdata/sdk/data"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

// cacheTTL bounds how stale a cached response may be when the CLI shares a
// cache with other readers.
const cacheTTL = 30 * time.Second

func getAccessor(c *cli.Context) (data.Accessor, *config, error) {
	config, err := getConfig()
	if err != nil {
		return nil, nil, errors.Wrapf(err, "error retrieving configuration")
	}
	accessor := config.newRESTAccessor(c.Bool(flagInsecure))
	redisClient, err := redis.Client()
	if err != nil {
		return nil, nil, err
	}
	if redisClient != nil {
		accessor = data.NewCachedAccessor(accessor, redisClient, cacheTTL)
	}
	return accessor, config, nil
}
