package main

import (
	"net/http"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/krancour/bbdata/sdk/data"
	"github.com/krancour/bbdata/sdk/live"
)

const envconfigPrefix = "BBDATA_MONITOR"

// Config represents configuration for the monitor.
type Config struct {
	APIAddress            string        `envconfig:"API_ADDRESS" required:"true"`
	Username              string        `envconfig:"USERNAME"`
	Password              string        `envconfig:"PASSWORD"`
	APIToken              string        `envconfig:"API_TOKEN"`
	IgnoreAPICertWarnings bool          `envconfig:"IGNORE_API_CERT_WARNINGS"`
	SubscriptionPath      string        `envconfig:"SUBSCRIPTION_PATH" default:"builds/*/*"`
	RunningBuildTTL       time.Duration `envconfig:"RUNNING_BUILD_TTL" default:"10m"`
	FinishedBuildTTL      time.Duration `envconfig:"FINISHED_BUILD_TTL" default:"24h"`
	MaxReconnectBackoff   time.Duration `envconfig:"MAX_RECONNECT_BACKOFF" default:"1m"`
	MaxReconnectAttempts  uint8         `envconfig:"MAX_RECONNECT_ATTEMPTS" default:"0"`
	HeartbeatInterval     time.Duration `envconfig:"HEARTBEAT_INTERVAL" default:"30s"`
	Name                  string        `envconfig:"NAME"`
}

func (c Config) newRESTAccessor() data.Accessor {
	if c.Username == "" && c.APIToken != "" {
		return data.NewTokenRESTAccessor(
			c.APIAddress,
			c.APIToken,
			c.IgnoreAPICertWarnings,
		)
	}
	return data.NewRESTAccessor(
		c.APIAddress,
		c.Username,
		c.Password,
		c.IgnoreAPICertWarnings,
	)
}

func (c Config) streamHeader() http.Header {
	if c.Username == "" && c.APIToken != "" {
		return live.BearerAuthHeader(c.APIToken)
	}
	return live.BasicAuthHeader(c.Username, c.Password)
}

// GetConfigFromEnvironment returns configuration derived from environment
// variables
func GetConfigFromEnvironment() (Config, error) {
	c := Config{}
	err := envconfig.Process(envconfigPrefix, &c)
	return c, err
}
