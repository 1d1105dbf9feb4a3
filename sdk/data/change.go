package data

import "encoding/json"

// ChangeRecord is a source change exactly as the master represents it on the
// wire.
type ChangeRecord struct {
	ChangeID      int64                  `json:"changeid"`
	Author        string                 `json:"author"`
	Committer     *string                `json:"committer"`
	Comments      string                 `json:"comments"`
	Branch        *string                `json:"branch"`
	Revision      *string                `json:"revision"`
	Revlink       *string                `json:"revlink"`
	WhenTimestamp int64                  `json:"when_timestamp"`
	Category      *string                `json:"category"`
	Repository    string                 `json:"repository"`
	Project       string                 `json:"project"`
	Codebase      string                 `json:"codebase"`
	Files         []string               `json:"files"`
	Properties    map[string]interface{} `json:"properties"`
}

// Change is a source change that went into one or more builds.
type Change struct {
	ChangeRecord `json:",inline"`
}

// ChangeDescriptor decodes records from "changes" collections.
var ChangeDescriptor = Descriptor[*Change]{
	RestArg: "changes",
	New: func(_ Accessor, raw json.RawMessage) (*Change, error) {
		record := ChangeRecord{}
		if err := json.Unmarshal(raw, &record); err != nil {
			return nil, err
		}
		return NewChange(record), nil
	},
}

// NewChange returns a Change populated from raw.
func NewChange(raw ChangeRecord) *Change {
	c := &Change{}
	c.Update(raw)
	return c
}

// Update replaces every tracked field with those of raw.
func (c *Change) Update(raw ChangeRecord) {
	if raw.Files == nil {
		raw.Files = []string{}
	}
	if raw.Properties == nil {
		raw.Properties = map[string]interface{}{}
	}
	c.ChangeRecord = raw
}

// Serialize returns the tracked fields as a record.
func (c *Change) Serialize() ChangeRecord {
	return c.ChangeRecord
}

// ShortRevision returns the first 12 characters of the change's revision, or
// an empty string if it has none.
func (c *Change) ShortRevision() string {
	if c.Revision == nil {
		return ""
	}
	if len(*c.Revision) > 12 {
		return (*c.Revision)[:12]
	}
	return *c.Revision
}
