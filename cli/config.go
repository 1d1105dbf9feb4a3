package main

import (
	"encoding/json"
	"io/ioutil"
	"net/http"
	"os"
	"path"

	"github.com/kelseyhightower/envconfig"
	"github.com/krancour/bbdata/internal/file"
	"github.com/krancour/bbdata/sdk/data"
	"github.com/krancour/bbdata/sdk/live"
	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
)

const envconfigPrefix = "BBDATA"

type config struct {
	APIAddress string `json:"apiAddress" envconfig:"API_ADDRESS"`
	Username   string `json:"username,omitempty" envconfig:"USERNAME"`
	Password   string `json:"password,omitempty" envconfig:"PASSWORD"`
	// APIToken is presented as a bearer token when no Username is set.
	APIToken string `json:"apiToken,omitempty" envconfig:"API_TOKEN"`
}

func (c *config) newRESTAccessor(allowInsecure bool) data.Accessor {
	if c.Username == "" && c.APIToken != "" {
		return data.NewTokenRESTAccessor(c.APIAddress, c.APIToken, allowInsecure)
	}
	return data.NewRESTAccessor(
		c.APIAddress,
		c.Username,
		c.Password,
		allowInsecure,
	)
}

// streamHeader returns the header that authenticates the live update stream
// with the same credentials the accessor uses.
func (c *config) streamHeader() http.Header {
	if c.Username == "" && c.APIToken != "" {
		return live.BearerAuthHeader(c.APIToken)
	}
	return live.BasicAuthHeader(c.Username, c.Password)
}

// getConfig returns the saved configuration with any BBDATA_* environment
// variables layered on top. With no saved configuration, the environment
// alone suffices as long as it names a server.
func getConfig() (*config, error) {
	bbdataHome, err := getBBDataHome()
	if err != nil {
		return nil, errors.Wrapf(err, "error finding bbdata home")
	}
	bbdataConfigFile := path.Join(bbdataHome, "config")

	config := &config{}
	if file.Exists(bbdataConfigFile) {
		configBytes, err := ioutil.ReadFile(bbdataConfigFile)
		if err != nil {
			return nil, errors.Wrapf(
				err,
				"error reading bbdata config file at %s",
				bbdataConfigFile,
			)
		}
		if err := json.Unmarshal(configBytes, config); err != nil {
			return nil, errors.Wrapf(
				err,
				"error parsing bbdata config file at %s",
				bbdataConfigFile,
			)
		}
	}

	if err := envconfig.Process(envconfigPrefix, config); err != nil {
		return nil, errors.Wrap(
			err,
			"error getting bbdata configuration from environment",
		)
	}

	if config.APIAddress == "" {
		return nil, errors.Errorf(
			"no bbdata configuration was found at %s; please use "+
				"`bbdata login` to continue\n",
			bbdataConfigFile,
		)
	}

	return config, nil
}

func saveConfig(config *config) error {
	bbdataHome, err := getBBDataHome()
	if err != nil {
		return errors.Wrapf(err, "error finding bbdata home")
	}
	if _, err = os.Stat(bbdataHome); err != nil {
		if !os.IsNotExist(err) {
			return errors.Wrapf(
				err,
				"error checking for existence of bbdata home at %s",
				bbdataHome,
			)
		}
		// The directory doesn't exist-- create it
		if err = os.MkdirAll(bbdataHome, 0755); err != nil {
			return errors.Wrapf(
				err,
				"error creating bbdata home at %s",
				bbdataHome,
			)
		}
	}
	bbdataConfigFile := path.Join(bbdataHome, "config")

	configBytes, err := json.Marshal(config)
	if err != nil {
		return errors.Wrap(err, "error marshaling config")
	}
	// The file may hold a password.
	if err :=
		ioutil.WriteFile(bbdataConfigFile, configBytes, 0600); err != nil {
		return errors.Wrapf(err, "error writing to %s", bbdataConfigFile)
	}
	return nil
}

func deleteConfig() error {
	bbdataHome, err := getBBDataHome()
	if err != nil {
		return errors.Wrapf(err, "error finding bbdata home")
	}
	bbdataConfigFile := path.Join(bbdataHome, "config")

	if err := os.Remove(bbdataConfigFile); err != nil {
		return errors.Wrap(err, "error deleting configuration")
	}

	return nil
}

func getBBDataHome() (string, error) {
	homeDir, err := homedir.Dir()
	if err != nil {
		return "", errors.Wrap(err, "error locating user's home directory")
	}

	return path.Join(homeDir, ".bbdata"), nil
}
