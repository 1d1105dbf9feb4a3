package data

import (
	"context"
	"encoding/json"

	"github.com/krancour/bbdata/sdk/meta"
	"github.com/pkg/errors"
)

// RawList is a page of undecoded records as returned by an endpoint.
type RawList struct {
	Records []json.RawMessage
	Meta    meta.ListMeta
}

// Accessor retrieves raw records from the Buildbot data API. Implementations
// own transport concerns such as authentication, caching and request
// deduplication.
type Accessor interface {
	// Get retrieves the records that endpoint returns under the collection
	// name restArg, e.g. endpoint "builds/42/steps" with restArg "steps".
	Get(
		ctx context.Context,
		endpoint string,
		query Query,
		restArg string,
	) (RawList, error)
}

// Descriptor binds an entity type to the collection name under which the API
// returns it and to the means of constructing it from a raw record.
type Descriptor[T any] struct {
	// RestArg is the collection name, e.g. "builds".
	RestArg string
	// New decodes a raw record into a T bound to accessor.
	New func(accessor Accessor, raw json.RawMessage) (T, error)
}

// Collection is a page of decoded entities.
type Collection[T any] struct {
	meta.ListMeta `json:"meta"`
	Items         []T `json:"items"`
}

// Getter retrieves entities of a single type.
type Getter[T any] interface {
	Get(ctx context.Context, endpoint string, query Query) (*Collection[T], error)
}

type getter[T any] struct {
	accessor   Accessor
	descriptor Descriptor[T]
}

// NewGetter returns a Getter that uses accessor to retrieve raw records and
// descriptor to decode them.
func NewGetter[T any](accessor Accessor, descriptor Descriptor[T]) Getter[T] {
	return &getter[T]{
		accessor:   accessor,
		descriptor: descriptor,
	}
}

func (g *getter[T]) Get(
	ctx context.Context,
	endpoint string,
	query Query,
) (*Collection[T], error) {
	rawList, err := g.accessor.Get(ctx, endpoint, query, g.descriptor.RestArg)
	if err != nil {
		return nil, err
	}
	collection := &Collection[T]{
		ListMeta: rawList.Meta,
		Items:    make([]T, 0, len(rawList.Records)),
	}
	for i, raw := range rawList.Records {
		item, err := g.descriptor.New(g.accessor, raw)
		if err != nil {
			return nil, errors.Wrapf(
				err,
				"error decoding %s record %d from %s",
				g.descriptor.RestArg,
				i,
				endpoint,
			)
		}
		collection.Items = append(collection.Items, item)
	}
	return collection, nil
}
