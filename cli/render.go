package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/ghodss/yaml"
	"github.com/krancour/bbdata/sdk/results"
	"github.com/pkg/errors"
	"golang.org/x/crypto/ssh/terminal"
	"k8s.io/apimachinery/pkg/util/duration"
)

// resultCell renders r's outcome, on its display color when colorize is
// set. A build that is running shows as PENDING rather than as a
// placeholder.
func resultCell(r results.Reporter, colorize bool) string {
	text := results.TextFor(r)
	if text == results.Placeholder {
		if code := results.ResultsOf(r, results.Unknown); code == results.Pending {
			text = code.String()
		}
	}
	if !colorize {
		return text
	}
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("#000")).
		Background(lipgloss.Color(results.ColorFor(r))).
		Padding(0, 1).
		Render(text)
}

func isTerminal() bool {
	return terminal.IsTerminal(int(os.Stdout.Fd()))
}

// age renders how long ago a Unix timestamp was; zero means never.
func age(timestamp int64) string {
	if timestamp == 0 {
		return "-"
	}
	return duration.ShortHumanDuration(time.Since(time.Unix(timestamp, 0)))
}

// elapsed renders the time between two Unix timestamps, measuring to now when
// the end is unknown.
func elapsed(start *int64, end *int64) string {
	if start == nil || *start == 0 {
		return "-"
	}
	finish := time.Now()
	if end != nil {
		finish = time.Unix(*end, 0)
	}
	return duration.ShortHumanDuration(finish.Sub(time.Unix(*start, 0)))
}

// printStructured prints obj as YAML or JSON. It reports false, doing
// nothing, for any other format.
func printStructured(output string, obj interface{}, what string) (bool, error) {
	switch strings.ToLower(output) {
	case "yaml":
		yamlBytes, err := yaml.Marshal(obj)
		if err != nil {
			return true, errors.Wrapf(
				err,
				"error formatting output from get %s operation",
				what,
			)
		}
		fmt.Println(string(yamlBytes))
		return true, nil
	case "json":
		prettyJSON, err := json.MarshalIndent(obj, "", "  ")
		if err != nil {
			return true, errors.Wrapf(
				err,
				"error formatting output from get %s operation",
				what,
			)
		}
		fmt.Println(string(prettyJSON))
		return true, nil
	}
	return false, nil
}

func valueString(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case nil:
		return ""
	}
	valueBytes, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprintf("%v", value)
	}
	return string(valueBytes)
}
