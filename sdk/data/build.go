package data

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/krancour/bbdata/sdk/meta"
	"github.com/krancour/bbdata/sdk/results"
	"github.com/pkg/errors"
)

// BuildRecord is a build exactly as the master represents it on the wire.
// Field order is significant: it is the order in which records serialize.
type BuildRecord struct {
	BuildID        int64         `json:"buildid"`
	Number         int64         `json:"number"`
	BuilderID      int64         `json:"builderid"`
	BuildRequestID *int64        `json:"buildrequestid"`
	WorkerID       int64         `json:"workerid"`
	MasterID       int64         `json:"masterid"`
	StartedAt      int64         `json:"started_at"`
	CompleteAt     *int64        `json:"complete_at"`
	Complete       bool          `json:"complete"`
	StateString    string        `json:"state_string"`
	Results        *results.Code `json:"results"`
	// Properties holds whatever the master returned for the build's
	// properties, typically name -> [value, source]. It is only populated when
	// properties were requested with the build.
	Properties map[string]interface{} `json:"properties"`
}

// Build is a single execution attempt of a builder.
type Build struct {
	BuildRecord `json:",inline"`

	accessor Accessor
}

// BuildDescriptor decodes records from "builds" collections.
var BuildDescriptor = Descriptor[*Build]{
	RestArg: "builds",
	New: func(accessor Accessor, raw json.RawMessage) (*Build, error) {
		record := BuildRecord{}
		if err := json.Unmarshal(raw, &record); err != nil {
			return nil, err
		}
		return NewBuild(accessor, record), nil
	},
}

// NewBuild returns a Build populated from raw. Nothing is validated.
func NewBuild(accessor Accessor, raw BuildRecord) *Build {
	b := &Build{
		accessor: accessor,
	}
	b.Update(raw)
	return b
}

// Update replaces every tracked field with those of raw. The Build keeps its
// identity, so holders of the pointer observe the new values.
func (b *Build) Update(raw BuildRecord) {
	if raw.Properties == nil {
		raw.Properties = map[string]interface{}{}
	}
	b.BuildRecord = raw
}

// Serialize returns the tracked fields as a record. Properties are shared with
// the Build, not copied.
func (b *Build) Serialize() BuildRecord {
	return b.BuildRecord
}

// ResultStatus implements results.Reporter.
func (b *Build) ResultStatus() *results.Status {
	if b == nil {
		return nil
	}
	return &results.Status{
		Results:   b.Results,
		Complete:  b.Complete,
		StartedAt: b.StartedAt,
	}
}

func (b *Build) endpoint(sub string) string {
	return fmt.Sprintf("builds/%d/%s", b.BuildID, sub)
}

// GetChanges retrieves the source changes that went into the build.
func (b *Build) GetChanges(
	ctx context.Context,
	query Query,
) (*Collection[*Change], error) {
	return NewGetter(b.accessor, ChangeDescriptor).
		Get(ctx, b.endpoint("changes"), query)
}

// GetSteps retrieves the build's steps.
func (b *Build) GetSteps(
	ctx context.Context,
	query Query,
) (*Collection[*Step], error) {
	return NewGetter(b.accessor, StepDescriptor).
		Get(ctx, b.endpoint("steps"), query)
}

// GetProperties retrieves the build's properties.
func (b *Build) GetProperties(
	ctx context.Context,
	query Query,
) (*Collection[*Properties], error) {
	return NewGetter(b.accessor, PropertiesDescriptor).
		Get(ctx, b.endpoint("properties"), query)
}

// GetBuilds lists builds.
func GetBuilds(
	ctx context.Context,
	accessor Accessor,
	query Query,
) (*Collection[*Build], error) {
	return NewGetter(accessor, BuildDescriptor).Get(ctx, "builds", query)
}

// GetBuilderBuilds lists the builds of a single builder.
func GetBuilderBuilds(
	ctx context.Context,
	accessor Accessor,
	builderID int64,
	query Query,
) (*Collection[*Build], error) {
	return NewGetter(accessor, BuildDescriptor).Get(
		ctx,
		fmt.Sprintf("builders/%d/builds", builderID),
		query,
	)
}

// GetBuild retrieves a single build by ID.
func GetBuild(
	ctx context.Context,
	accessor Accessor,
	buildID int64,
	query Query,
) (*Build, error) {
	builds, err := NewGetter(accessor, BuildDescriptor).Get(
		ctx,
		fmt.Sprintf("builds/%d", buildID),
		query,
	)
	if err != nil {
		return nil, err
	}
	if len(builds.Items) == 0 {
		return nil, &meta.ErrNotFound{
			Type: "build",
			ID:   strconv.FormatInt(buildID, 10),
		}
	}
	return builds.Items[0], nil
}

// Refresh re-reads the build from the master and applies the result in place.
func (b *Build) Refresh(ctx context.Context, query Query) error {
	fresh, err := GetBuild(ctx, b.accessor, b.BuildID, query)
	if err != nil {
		return errors.Wrapf(err, "error refreshing build %d", b.BuildID)
	}
	b.Update(fresh.Serialize())
	return nil
}
