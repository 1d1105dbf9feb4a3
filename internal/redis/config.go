package redis

import (
	"crypto/tls"
	"fmt"

	"github.com/go-redis/redis"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
)

const envconfigPrefix = "REDIS"

// Config represents the options for connecting to the Redis database that
// caches data API responses.
type Config struct {
	Host       string `envconfig:"HOST"`
	Port       int    `envconfig:"PORT" default:"6379"`
	Password   string `envconfig:"PASSWORD"`
	DB         int    `envconfig:"DB"`
	EnableTLS  bool   `envconfig:"ENABLE_TLS"`
	MaxRetries int    `envconfig:"MAX_RETRIES" default:"5"`
}

// GetConfig reads Redis connection options from environment variables.
func GetConfig() (Config, error) {
	c := Config{}
	err := envconfig.Process(envconfigPrefix, &c)
	return c, errors.Wrap(
		err,
		"error getting redis configuration from environment",
	)
}

// Enabled reports whether a Redis host was configured at all. Caching is
// optional, so an absent host is not an error.
func (c Config) Enabled() bool {
	return c.Host != ""
}

// Options returns connection options for the configured database.
func (c Config) Options() *redis.Options {
	redisOpts := &redis.Options{
		Addr:       fmt.Sprintf("%s:%d", c.Host, c.Port),
		Password:   c.Password,
		DB:         c.DB,
		MaxRetries: c.MaxRetries,
	}
	if c.EnableTLS {
		redisOpts.TLSConfig = &tls.Config{
			ServerName: c.Host,
		}
	}
	return redisOpts
}

// Client returns a connection to the Redis database specified by environment
// variables, or nil if none was specified.
func Client() (*redis.Client, error) {
	c, err := GetConfig()
	if err != nil {
		return nil, err
	}
	if !c.Enabled() {
		return nil, nil
	}
	return redis.NewClient(c.Options()), nil
}
