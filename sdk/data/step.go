package data

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/krancour/bbdata/sdk/results"
)

// StepURL is a link a step published while running, e.g. to a test report.
type StepURL struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// StepRecord is a step exactly as the master represents it on the wire.
type StepRecord struct {
	StepID      int64         `json:"stepid"`
	Number      int64         `json:"number"`
	Name        string        `json:"name"`
	BuildID     int64         `json:"buildid"`
	StartedAt   *int64        `json:"started_at"`
	CompleteAt  *int64        `json:"complete_at"`
	Complete    bool          `json:"complete"`
	StateString string        `json:"state_string"`
	Results     *results.Code `json:"results"`
	URLs        []StepURL     `json:"urls"`
	Hidden      bool          `json:"hidden"`
}

// Step is one unit of work within a build.
type Step struct {
	StepRecord `json:",inline"`

	accessor Accessor
}

// StepDescriptor decodes records from "steps" collections.
var StepDescriptor = Descriptor[*Step]{
	RestArg: "steps",
	New: func(accessor Accessor, raw json.RawMessage) (*Step, error) {
		record := StepRecord{}
		if err := json.Unmarshal(raw, &record); err != nil {
			return nil, err
		}
		return NewStep(accessor, record), nil
	},
}

// NewStep returns a Step populated from raw.
func NewStep(accessor Accessor, raw StepRecord) *Step {
	s := &Step{
		accessor: accessor,
	}
	s.Update(raw)
	return s
}

// Update replaces every tracked field with those of raw.
func (s *Step) Update(raw StepRecord) {
	if raw.URLs == nil {
		raw.URLs = []StepURL{}
	}
	s.StepRecord = raw
}

// Serialize returns the tracked fields as a record.
func (s *Step) Serialize() StepRecord {
	return s.StepRecord
}

// ResultStatus implements results.Reporter. A step that has not started
// reports a start time of zero.
func (s *Step) ResultStatus() *results.Status {
	if s == nil {
		return nil
	}
	status := &results.Status{
		Results:  s.Results,
		Complete: s.Complete,
	}
	if s.StartedAt != nil {
		status.StartedAt = *s.StartedAt
	}
	return status
}

// Summary is the step's state string, qualified by its result unless it
// succeeded or has not finished.
func (s *Step) Summary() string {
	if s.Results == nil {
		return s.StateString
	}
	return results.Summary(s.StateString, *s.Results)
}

// GetTestResultSets retrieves the sets of test results the step recorded.
func (s *Step) GetTestResultSets(
	ctx context.Context,
	query Query,
) (*Collection[*TestResultSet], error) {
	return NewGetter(s.accessor, TestResultSetDescriptor).Get(
		ctx,
		fmt.Sprintf("steps/%d/test_result_sets", s.StepID),
		query,
	)
}
