package main

import (
	"fmt"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/krancour/bbdata/sdk/data"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"golang.org/x/crypto/ssh/terminal"
)

var loginCommand = &cli.Command{
	Name:  "login",
	Usage: "Save the address of a Buildbot master and credentials for it",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     flagServer,
			Aliases:  []string{"s"},
			Usage:    "The web root of the master, e.g. http://localhost:8010 (required)",
			Required: true,
		},
		&cli.StringFlag{
			Name:    flagUsername,
			Aliases: []string{"u"},
			Usage:   "Authenticate as the specified user; omit for anonymous access",
		},
		&cli.StringFlag{
			Name:    flagPassword,
			Aliases: []string{"p"},
			Usage: "The user's password; prompted for if a user is specified " +
				"without one",
		},
		&cli.StringFlag{
			Name:    flagToken,
			Aliases: []string{"t"},
			Usage:   "Authenticate with the specified API token instead of a user",
		},
	},
	Action: login,
}

var logoutCommand = &cli.Command{
	Name:   "logout",
	Usage:  "Forget the saved master and credentials",
	Action: logout,
}

func login(c *cli.Context) error {
	address := c.String(flagServer)
	username := c.String(flagUsername)
	password := c.String(flagPassword)
	apiToken := c.String(flagToken)

	if username != "" && apiToken != "" {
		return errors.New("specify either a user or an API token, not both")
	}

	if username != "" && password == "" {
		if !terminal.IsTerminal(int(os.Stdin.Fd())) {
			return errors.Errorf("a password is required for user %q", username)
		}
		if err := survey.AskOne(
			&survey.Password{
				Message: fmt.Sprintf("Password for %s?", username),
			},
			&password,
		); err != nil {
			return errors.Wrap(err, "error reading password")
		}
	}

	config := &config{
		APIAddress: address,
		Username:   username,
		Password:   password,
		APIToken:   apiToken,
	}

	// Reading a single build proves both the address and the credentials.
	if _, err := data.GetBuilds(
		c.Context,
		config.newRESTAccessor(c.Bool(flagInsecure)),
		data.Query{Limit: 1},
	); err != nil {
		return errors.Wrapf(err, "error contacting %s", address)
	}

	if err := saveConfig(config); err != nil {
		return errors.Wrap(err, "error persisting configuration")
	}

	switch {
	case apiToken != "":
		fmt.Printf("Using %s with an API token.\n", address)
		return nil
	case username == "":
		fmt.Printf("Using %s anonymously.\n", address)
		return nil
	}
	fmt.Printf("Logged in to %s as %s.\n", address, username)
	return nil
}

func logout(c *cli.Context) error {
	if c.Args().Len() != 0 {
		return errors.New("logout requires no arguments")
	}

	if err := deleteConfig(); err != nil {
		return errors.Wrap(err, "error deleting configuration")
	}

	fmt.Println("Logout was successful.")

	return nil
}
