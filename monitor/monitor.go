package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/golang/glog"
	"github.com/krancour/bbdata/internal/retries"
	"github.com/krancour/bbdata/sdk/data"
	"github.com/krancour/bbdata/sdk/live"
	"github.com/krancour/bbdata/sdk/meta"
	"github.com/krancour/bbdata/sdk/results"
	"github.com/pkg/errors"
)

type eventStream interface {
	Subscribe(ctx context.Context, path string) error
	Receive(ctx context.Context) (<-chan live.Message, <-chan error)
}

// liveSession is one connection to the live update stream.
type liveSession interface {
	eventStream
	Close() error
}

type buildCache interface {
	PutWithTTL(
		endpoint string,
		query data.Query,
		restArg string,
		rawList data.RawList,
		ttl time.Duration,
	) error
}

// Monitor follows a master's live build events and keeps the cache current.
type Monitor interface {
	// Run consumes events until ctx is done or the stream breaks.
	Run(ctx context.Context, stream eventStream) error
	// Follow dials sessions and runs them until ctx is done. Failed attempts
	// are retried with backoff, and the count of failed attempts starts over
	// whenever a session was established before it broke.
	Follow(
		ctx context.Context,
		dial func(context.Context) (liveSession, error),
	) error
	// Tracked returns the build with the given ID if it is running and has
	// been seen.
	Tracked(buildID int64) (*data.Build, bool)
}

type monitor struct {
	config   Config
	accessor data.Accessor
	cache    buildCache
	builds   map[int64]*data.Build
	// sessions counts streams that were successfully subscribed to.
	sessions int
}

// NewMonitor returns a Monitor that binds the builds it tracks to accessor
// and publishes them to cache.
func NewMonitor(
	config Config,
	accessor data.Accessor,
	cache buildCache,
) Monitor {
	return &monitor{
		config:   config,
		accessor: accessor,
		cache:    cache,
		builds:   map[int64]*data.Build{},
	}
}

func (m *monitor) Tracked(buildID int64) (*data.Build, bool) {
	build, ok := m.builds[buildID]
	return build, ok
}

func (m *monitor) Run(ctx context.Context, stream eventStream) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	msgCh, errCh := stream.Receive(ctx)
	if err := stream.Subscribe(ctx, m.config.SubscriptionPath); err != nil {
		return errors.Wrapf(
			err,
			"error subscribing to %q",
			m.config.SubscriptionPath,
		)
	}
	glog.Infof("subscribed to %q", m.config.SubscriptionPath)
	m.sessions++

	for {
		select {
		case msg := <-msgCh:
			if err := m.handleMessage(msg); err != nil {
				glog.Error(err)
			}
		case err := <-errCh:
			if cmdErr, ok := err.(*live.ErrCommand); ok {
				glog.Errorf("master rejected a command: %s", cmdErr)
				continue
			}
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (m *monitor) Follow(
	ctx context.Context,
	dial func(context.Context) (liveSession, error),
) error {
	for {
		var broken bool
		err := retries.ManageRetries(
			ctx,
			"follow the live update stream",
			m.config.MaxReconnectAttempts,
			m.config.MaxReconnectBackoff,
			func() (bool, error) {
				session, err := dial(ctx)
				if err != nil {
					return ctx.Err() == nil, err
				}
				defer session.Close()
				established := m.sessions
				err = m.Run(ctx, session)
				if ctx.Err() != nil {
					return false, ctx.Err()
				}
				if m.sessions > established {
					glog.Warningf("live update stream broke; reconnecting: %s", err)
					broken = true
					return false, nil
				}
				return true, err
			},
		)
		if !broken {
			return err
		}
	}
}

func (m *monitor) handleMessage(msg live.Message) error {
	path := msg.Path()
	if len(path) != 3 || path[0] != "builds" {
		return nil
	}
	if _, err := strconv.ParseInt(path[1], 10, 64); err != nil {
		return nil
	}
	record := data.BuildRecord{}
	if err := json.Unmarshal(msg.Body, &record); err != nil {
		return errors.Wrapf(err, "error decoding build record from %q", msg.Key)
	}

	build, tracked := m.builds[record.BuildID]
	if !tracked {
		build = data.NewBuild(m.accessor, record)
		m.builds[record.BuildID] = build
		glog.Infof(
			"tracking build %d (#%d on builder %d): %s",
			build.BuildID,
			build.Number,
			build.BuilderID,
			build.StateString,
		)
	} else {
		previous := results.ClassNameFor(build, "")
		build.Update(record)
		if current := results.ClassNameFor(build, ""); current != previous {
			glog.Infof(
				"build %d is now %s",
				build.BuildID,
				results.TextFor(build),
			)
		}
	}

	if err := m.publish(build); err != nil {
		return err
	}

	if build.Complete {
		glog.Infof(
			"build %d finished: %s",
			build.BuildID,
			results.Summary(
				build.StateString,
				results.ResultsOf(build, results.Unknown),
			),
		)
		delete(m.builds, build.BuildID)
	}
	return nil
}

// publish primes the cache entry GetBuild reads for the build, so readers
// sharing the cache see the event without asking the master.
func (m *monitor) publish(build *data.Build) error {
	recordBytes, err := json.Marshal(build.Serialize())
	if err != nil {
		return errors.Wrapf(err, "error marshaling build %d", build.BuildID)
	}
	ttl := m.config.RunningBuildTTL
	if build.Complete {
		ttl = m.config.FinishedBuildTTL
	}
	total := int64(1)
	if err := m.cache.PutWithTTL(
		fmt.Sprintf("builds/%d", build.BuildID),
		data.Query{},
		data.BuildDescriptor.RestArg,
		data.RawList{
			Records: []json.RawMessage{recordBytes},
			Meta:    meta.ListMeta{Total: &total},
		},
		ttl,
	); err != nil {
		return errors.Wrapf(err, "error publishing build %d", build.BuildID)
	}
	return nil
}
