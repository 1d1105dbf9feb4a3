package main

import (
	"fmt"
	"os"

	"github.com/krancour/bbdata/internal/signals"
	"github.com/krancour/bbdata/internal/version"
	"github.com/urfave/cli/v2"
)

func main() {
	app := cli.NewApp()
	app.Name = "bbdata"
	app.Usage = "Browse builds on a Buildbot master"
	app.Version = version.String()
	app.Flags = []cli.Flag{
		&cli.BoolFlag{
			Name:    flagInsecure,
			Aliases: []string{"k"},
			Usage:   "Allow insecure API server connections when using TLS",
		},
	}
	app.Commands = []*cli.Command{
		buildCommand,
		loginCommand,
		logoutCommand,
	}
	fmt.Println()
	if err := app.RunContext(signals.Context(), os.Args); err != nil {
		fmt.Printf("\n%s\n\n", err)
		os.Exit(1)
	}
	fmt.Println()
}
