package data

import "encoding/json"

// TestResultSetRecord is a set of test results exactly as the master
// represents it on the wire.
type TestResultSetRecord struct {
	TestResultSetID int64   `json:"test_result_setid"`
	BuilderID       int64   `json:"builderid"`
	BuildID         int64   `json:"buildid"`
	StepID          int64   `json:"stepid"`
	Description     *string `json:"description"`
	Category        string  `json:"category"`
	ValueUnit       string  `json:"value_unit"`
	TestsPassed     *int64  `json:"tests_passed"`
	TestsFailed     *int64  `json:"tests_failed"`
	Complete        bool    `json:"complete"`
}

// TestResultSet groups the test results a step reported under one category.
type TestResultSet struct {
	TestResultSetRecord `json:",inline"`
}

// TestResultSetDescriptor decodes records from "test_result_sets"
// collections.
var TestResultSetDescriptor = Descriptor[*TestResultSet]{
	RestArg: "test_result_sets",
	New: func(_ Accessor, raw json.RawMessage) (*TestResultSet, error) {
		record := TestResultSetRecord{}
		if err := json.Unmarshal(raw, &record); err != nil {
			return nil, err
		}
		return &TestResultSet{TestResultSetRecord: record}, nil
	},
}

// Failed reports whether any test in the set failed. Counts are only known
// once the set is complete.
func (t *TestResultSet) Failed() bool {
	return t.TestsFailed != nil && *t.TestsFailed > 0
}
