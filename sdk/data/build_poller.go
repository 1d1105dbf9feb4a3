package data

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// BuildUpdateHandler is invoked each time a BuildPoller has applied a fresh
// record to the build it is polling.
type BuildUpdateHandler func(ctx context.Context, build *Build) error

// BuildPoller repeatedly refreshes a Build in place until it completes.
type BuildPoller struct {
	build           *Build
	query           Query
	onUpdate        BuildUpdateHandler
	pollingInterval time.Duration
	timeout         time.Duration
}

// NewBuildPoller returns a BuildPoller for build that polls every five
// seconds with no timeout.
func NewBuildPoller(build *Build) *BuildPoller {
	return &BuildPoller{
		build:           build,
		pollingInterval: 5 * time.Second,
	}
}

func (b *BuildPoller) WithPollingInterval(
	pollingInterval time.Duration,
) *BuildPoller {
	b.pollingInterval = pollingInterval
	return b
}

func (b *BuildPoller) WithTimeout(timeout time.Duration) *BuildPoller {
	b.timeout = timeout
	return b
}

// WithQuery sets the query used for each refresh, e.g. to keep properties
// inlined.
func (b *BuildPoller) WithQuery(query Query) *BuildPoller {
	b.query = query
	return b
}

func (b *BuildPoller) OnUpdate(handler BuildUpdateHandler) *BuildPoller {
	b.onUpdate = handler
	return b
}

// Poll blocks until the build is complete, the timeout elapses, or ctx is
// done. The build passed to NewBuildPoller is updated in place and returned.
func (b *BuildPoller) Poll(ctx context.Context) (*Build, error) {
	if b.timeout != 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	for {
		if b.build.Complete {
			return b.build, nil
		}

		select {
		case <-time.After(b.pollingInterval):
		case <-ctx.Done():
			return b.build, ctx.Err()
		}

		if err := b.build.Refresh(ctx, b.query); err != nil {
			return b.build, err
		}

		if b.onUpdate != nil {
			if err := b.onUpdate(ctx, b.build); err != nil {
				return b.build, errors.Wrap(err, "error invoking update handler")
			}
		}
	}
}
