package main

import "github.com/urfave/cli/v2"

const (
	flagBuilder  = "builder"
	flagID       = "id"
	flagInsecure = "insecure"
	flagInterval = "interval"
	flagLimit    = "limit"
	flagOutput   = "output"
	flagPassword = "password"
	flagPoll     = "poll"
	flagRunning  = "running"
	flagServer   = "server"
	flagToken    = "token"
	flagUsername = "username"
)

var (
	cliFlagOutput = &cli.StringFlag{
		Name:    flagOutput,
		Aliases: []string{"o"},
		Usage: "Return output in the specified format; supported formats: table, " +
			"yaml, json",
		Value: "table",
	}
	cliFlagBuildID = &cli.Int64Flag{
		Name:     flagID,
		Aliases:  []string{"i"},
		Usage:    "The ID of the build (required)",
		Required: true,
	}
	cliFlagLimit = &cli.IntFlag{
		Name:    flagLimit,
		Aliases: []string{"l"},
		Usage:   "Retrieve at most this many results per page",
		Value:   20,
	}
)
