// Package results classifies the outcome of builds and steps. Codes 0 through
// 6 are the Buildbot master's wire contract. Pending and Unknown exist only on
// the client and must never be sent to a master.
package results

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Code is a numeric build or step outcome.
type Code int

const (
	// Success means the build or step completed without problems.
	Success Code = 0
	// Warnings means the build or step completed, but with warnings.
	Warnings Code = 1
	// Failure means the build or step failed.
	Failure Code = 2
	// Skipped means the step was not run.
	Skipped Code = 3
	// Exception means the build or step was interrupted by an internal
	// error.
	Exception Code = 4
	// Retry means the build was interrupted and will be retried.
	Retry Code = 5
	// Cancelled means the build or step was cancelled by a user.
	Cancelled Code = 6
	// Pending means the build or step has started but has not completed.
	Pending Code = 1000
	// Unknown means no outcome could be determined.
	Unknown Code = 1001
)

// Placeholder is rendered in place of a label when no recognized result is
// available.
const Placeholder = "..."

var labels = map[Code]string{
	Success:   "SUCCESS",
	Warnings:  "WARNINGS",
	Failure:   "FAILURE",
	Skipped:   "SKIPPED",
	Exception: "EXCEPTION",
	Retry:     "RETRY",
	Cancelled: "CANCELLED",
	Pending:   "PENDING",
	Unknown:   "UNKNOWN",
}

var colors = map[Code]string{
	Success:   "#8d4",
	Warnings:  "#fa3",
	Failure:   "#e88",
	Skipped:   "#AADDEE",
	Exception: "#c6c",
	Retry:     "#ecc",
	Cancelled: "#ecc",
	Pending:   "#E7D100",
	Unknown:   "#EEE",
}

// worstFirst orders the server codes from most to least severe.
var worstFirst = []Code{
	Cancelled,
	Retry,
	Exception,
	Failure,
	Warnings,
	Success,
	Skipped,
}

// Codes returns every known code, server codes first.
func Codes() []Code {
	return []Code{
		Success,
		Warnings,
		Failure,
		Skipped,
		Exception,
		Retry,
		Cancelled,
		Pending,
		Unknown,
	}
}

// Known returns true if c is one of the nine recognized codes.
func (c Code) Known() bool {
	_, ok := labels[c]
	return ok
}

// ServerCode returns true if c is part of the master's wire contract.
func (c Code) ServerCode() bool {
	return c >= Success && c <= Cancelled
}

func (c Code) String() string {
	if label, ok := labels[c]; ok {
		return label
	}
	return fmt.Sprintf("Code(%d)", int(c))
}

// Color returns the hex display color for c, or an empty string if c is not
// recognized.
func (c Code) Color() string {
	return colors[c]
}

// Parse returns the code whose label matches s, ignoring case.
func Parse(s string) (Code, error) {
	upper := strings.ToUpper(strings.TrimSpace(s))
	for code, label := range labels {
		if label == upper {
			return code, nil
		}
	}
	return Unknown, errors.Errorf("%q is not a recognized result", s)
}

// Worst returns the most severe of the given server codes. Codes outside the
// wire contract are ignored. With nothing to compare, Success is returned.
func Worst(codes ...Code) Code {
	for _, candidate := range worstFirst {
		for _, code := range codes {
			if code == candidate {
				return candidate
			}
		}
	}
	return Success
}

// Summary decorates a build or step summary with its lowercase result label,
// e.g. "compile (failure)", unless that result is Success.
func Summary(text string, code Code) string {
	if code == Success {
		return text
	}
	return fmt.Sprintf("%s (%s)", text, strings.ToLower(code.String()))
}
