package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gosuri/uitable"
	"github.com/krancour/bbdata/sdk/data"
	"github.com/krancour/bbdata/sdk/live"
	"github.com/krancour/bbdata/sdk/results"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

var buildCommand = &cli.Command{
	Name:  "build",
	Usage: "Inspect builds",
	Subcommands: []*cli.Command{
		{
			Name:  "list",
			Usage: "Retrieve many builds, newest first",
			Flags: []cli.Flag{
				&cli.Int64Flag{
					Name:    flagBuilder,
					Aliases: []string{"b"},
					Usage:   "Retrieve builds only for the builder with the specified ID",
				},
				&cli.BoolFlag{
					Name:    flagRunning,
					Aliases: []string{"r"},
					Usage:   "Retrieve only builds that have not completed",
				},
				cliFlagLimit,
				cliFlagOutput,
			},
			Action: buildList,
		},
		{
			Name:  "get",
			Usage: "Retrieve a build, including its properties",
			Flags: []cli.Flag{
				cliFlagBuildID,
				cliFlagOutput,
			},
			Action: buildGet,
		},
		{
			Name:  "steps",
			Usage: "Retrieve the steps of a build",
			Flags: []cli.Flag{
				cliFlagBuildID,
				cliFlagLimit,
				cliFlagOutput,
			},
			Action: buildSteps,
		},
		{
			Name:  "changes",
			Usage: "Retrieve the source changes that went into a build",
			Flags: []cli.Flag{
				cliFlagBuildID,
				cliFlagLimit,
				cliFlagOutput,
			},
			Action: buildChanges,
		},
		{
			Name:  "properties",
			Usage: "Retrieve the properties of a build",
			Flags: []cli.Flag{
				cliFlagBuildID,
				cliFlagOutput,
			},
			Action: buildProperties,
		},
		{
			Name:  "watch",
			Usage: "Follow a build until it completes",
			Flags: []cli.Flag{
				cliFlagBuildID,
				&cli.BoolFlag{
					Name:  flagPoll,
					Usage: "Poll the data API instead of following live updates",
				},
				&cli.DurationFlag{
					Name:  flagInterval,
					Usage: "How often to poll when --poll is set",
					Value: 5 * time.Second,
				},
			},
			Action: buildWatch,
		},
	},
}

func buildList(c *cli.Context) error {
	output := c.String(flagOutput)
	if err := validateOutputFormat(output); err != nil {
		return err
	}

	accessor, _, err := getAccessor(c)
	if err != nil {
		return errors.Wrap(err, "error getting data accessor")
	}

	query := data.Query{
		Limit: c.Int(flagLimit),
		Order: []string{"-buildid"},
	}
	if c.Bool(flagRunning) {
		query.Filters = map[string]string{"complete": "false"}
	}
	builderID := c.Int64(flagBuilder)

	return page(
		query,
		func(query data.Query) (*data.Collection[*data.Build], error) {
			if builderID != 0 {
				return data.GetBuilderBuilds(c.Context, accessor, builderID, query)
			}
			return data.GetBuilds(c.Context, accessor, query)
		},
		func(builds *data.Collection[*data.Build]) error {
			if ok, err := printStructured(output, builds, "builds"); ok {
				return err
			}
			colorize := isTerminal()
			table := uitable.New()
			table.AddRow("ID", "BUILDER", "NUMBER", "STARTED", "STATE", "RESULT")
			for _, build := range builds.Items {
				table.AddRow(
					build.BuildID,
					build.BuilderID,
					build.Number,
					age(build.StartedAt),
					build.StateString,
					resultCell(build, colorize),
				)
			}
			fmt.Println(table)
			return nil
		},
		"builds",
	)
}

func buildGet(c *cli.Context) error {
	output := c.String(flagOutput)
	if err := validateOutputFormat(output); err != nil {
		return err
	}

	accessor, _, err := getAccessor(c)
	if err != nil {
		return errors.Wrap(err, "error getting data accessor")
	}

	build, properties, err := getBuildWithProperties(
		c.Context,
		accessor,
		c.Int64(flagID),
	)
	if err != nil {
		return err
	}

	record := build.Serialize()
	record.Properties = make(map[string]interface{}, len(properties))
	for name, property := range properties {
		record.Properties[name] = property
	}
	if ok, err := printStructured(output, record, "build"); ok {
		return err
	}

	table := uitable.New()
	table.AddRow("ID", "BUILDER", "NUMBER", "STARTED", "DURATION", "RESULT")
	table.AddRow(
		build.BuildID,
		build.BuilderID,
		build.Number,
		age(build.StartedAt),
		elapsed(&build.StartedAt, build.CompleteAt),
		resultCell(build, isTerminal()),
	)
	fmt.Println(table)
	fmt.Printf("\n%s\n", build.StateString)

	if len(properties) > 0 {
		fmt.Println()
		fmt.Println(propertiesTable(properties))
	}
	return nil
}

// getBuildWithProperties reads the build without inlined properties, which is
// the record the monitor publishes to the cache, and reads its properties
// separately.
func getBuildWithProperties(
	ctx context.Context,
	accessor data.Accessor,
	buildID int64,
) (*data.Build, data.Properties, error) {
	build, err := data.GetBuild(ctx, accessor, buildID, data.Query{})
	if err != nil {
		return nil, nil, err
	}
	propertiesList, err := build.GetProperties(ctx, data.Query{})
	if err != nil {
		return nil, nil, err
	}
	properties := data.Properties{}
	for _, item := range propertiesList.Items {
		for name, property := range *item {
			properties[name] = property
		}
	}
	return build, properties, nil
}

func buildSteps(c *cli.Context) error {
	output := c.String(flagOutput)
	if err := validateOutputFormat(output); err != nil {
		return err
	}

	accessor, _, err := getAccessor(c)
	if err != nil {
		return errors.Wrap(err, "error getting data accessor")
	}

	build, err := data.GetBuild(c.Context, accessor, c.Int64(flagID), data.Query{})
	if err != nil {
		return err
	}

	return page(
		data.Query{
			Limit: c.Int(flagLimit),
			Order: []string{"number"},
		},
		func(query data.Query) (*data.Collection[*data.Step], error) {
			return build.GetSteps(c.Context, query)
		},
		func(steps *data.Collection[*data.Step]) error {
			if ok, err := printStructured(output, steps, "steps"); ok {
				return err
			}
			colorize := isTerminal()
			table := uitable.New()
			table.AddRow("NUMBER", "NAME", "SUMMARY", "DURATION", "RESULT")
			for _, step := range steps.Items {
				if step.Hidden {
					continue
				}
				table.AddRow(
					step.Number,
					step.Name,
					step.Summary(),
					elapsed(step.StartedAt, step.CompleteAt),
					resultCell(step, colorize),
				)
			}
			fmt.Println(table)
			return nil
		},
		"steps",
	)
}

func buildChanges(c *cli.Context) error {
	output := c.String(flagOutput)
	if err := validateOutputFormat(output); err != nil {
		return err
	}

	accessor, _, err := getAccessor(c)
	if err != nil {
		return errors.Wrap(err, "error getting data accessor")
	}

	build, err := data.GetBuild(c.Context, accessor, c.Int64(flagID), data.Query{})
	if err != nil {
		return err
	}

	return page(
		data.Query{Limit: c.Int(flagLimit)},
		func(query data.Query) (*data.Collection[*data.Change], error) {
			return build.GetChanges(c.Context, query)
		},
		func(changes *data.Collection[*data.Change]) error {
			if ok, err := printStructured(output, changes, "changes"); ok {
				return err
			}
			table := uitable.New()
			table.MaxColWidth = 60
			table.AddRow("ID", "REVISION", "AUTHOR", "AGE", "COMMENTS")
			for _, change := range changes.Items {
				table.AddRow(
					change.ChangeID,
					change.ShortRevision(),
					change.Author,
					age(change.WhenTimestamp),
					change.Comments,
				)
			}
			fmt.Println(table)
			return nil
		},
		"changes",
	)
}

func buildProperties(c *cli.Context) error {
	output := c.String(flagOutput)
	if err := validateOutputFormat(output); err != nil {
		return err
	}

	accessor, _, err := getAccessor(c)
	if err != nil {
		return errors.Wrap(err, "error getting data accessor")
	}

	_, properties, err := getBuildWithProperties(
		c.Context,
		accessor,
		c.Int64(flagID),
	)
	if err != nil {
		return err
	}

	if len(properties) == 0 {
		fmt.Println("No properties found.")
		return nil
	}

	if ok, err := printStructured(output, properties, "properties"); ok {
		return err
	}
	fmt.Println(propertiesTable(properties))
	return nil
}

func propertiesTable(properties data.Properties) *uitable.Table {
	table := uitable.New()
	table.MaxColWidth = 80
	table.AddRow("NAME", "VALUE", "SOURCE")
	for _, name := range properties.Names() {
		property := properties[name]
		table.AddRow(name, valueString(property.Value), property.Source)
	}
	return table
}

func buildWatch(c *cli.Context) error {
	accessor, config, err := getAccessor(c)
	if err != nil {
		return errors.Wrap(err, "error getting data accessor")
	}

	build, err := data.GetBuild(c.Context, accessor, c.Int64(flagID), data.Query{})
	if err != nil {
		return err
	}

	colorize := isTerminal()
	printStatus := func(build *data.Build) {
		fmt.Printf(
			"%s  %-40s %s\n",
			time.Now().Format("15:04:05"),
			build.StateString,
			resultCell(build, colorize),
		)
	}
	printStatus(build)

	if c.Bool(flagPoll) {
		_, err = data.NewBuildPoller(build).
			WithPollingInterval(c.Duration(flagInterval)).
			OnUpdate(func(_ context.Context, build *data.Build) error {
				printStatus(build)
				return nil
			}).
			Poll(c.Context)
	} else {
		err = watchLive(c, config, build, printStatus)
	}
	if err != nil {
		return err
	}

	fmt.Printf(
		"\nBuild %d finished: %s\n",
		build.BuildID,
		results.Summary(
			build.StateString,
			results.ResultsOf(build, results.Unknown),
		),
	)
	return nil
}

// watchLive applies live events for build to it in place until it completes.
func watchLive(
	c *cli.Context,
	config *config,
	build *data.Build,
	printStatus func(*data.Build),
) error {
	if build.Complete {
		return nil
	}

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	consumer, err := live.Dial(
		ctx,
		config.APIAddress,
		config.streamHeader(),
		c.Bool(flagInsecure),
	)
	if err != nil {
		return err
	}
	defer consumer.Close()

	msgCh, errCh := consumer.Receive(ctx)
	if err := consumer.Subscribe(
		ctx,
		fmt.Sprintf("builds/%d/*", build.BuildID),
	); err != nil {
		return err
	}

	for {
		select {
		case msg := <-msgCh:
			record := data.BuildRecord{}
			if err := json.Unmarshal(msg.Body, &record); err != nil {
				return errors.Wrapf(err, "error decoding %q", msg.Key)
			}
			if record.BuildID != build.BuildID {
				continue
			}
			build.Update(record)
			printStatus(build)
			if build.Complete {
				return nil
			}
		case err := <-errCh:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
