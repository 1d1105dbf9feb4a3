package data

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis"
	"github.com/pkg/errors"
)

const cacheKeyPrefix = "bbdata"

// CachedAccessor is a read-through cache in front of another Accessor.
// Entries expire after a fixed TTL, so a dashboard polling the same endpoints
// costs the master at most one request per endpoint per TTL.
type CachedAccessor struct {
	inner       Accessor
	redisClient redis.Cmdable
	ttl         time.Duration
}

// NewCachedAccessor returns a CachedAccessor that caches inner's results in
// redis for ttl.
func NewCachedAccessor(
	inner Accessor,
	redisClient redis.Cmdable,
	ttl time.Duration,
) *CachedAccessor {
	return &CachedAccessor{
		inner:       inner,
		redisClient: redisClient,
		ttl:         ttl,
	}
}

type cachedRawList struct {
	Records []json.RawMessage `json:"records"`
	Meta    json.RawMessage   `json:"meta,omitempty"`
}

// CacheKey returns the redis key under which the result of the given request
// is cached.
func CacheKey(endpoint string, query Query, restArg string) string {
	return fmt.Sprintf(
		"%s:%s:%s?%s",
		cacheKeyPrefix,
		restArg,
		endpoint,
		query.Params().Encode(),
	)
}

func (c *CachedAccessor) Get(
	ctx context.Context,
	endpoint string,
	query Query,
	restArg string,
) (RawList, error) {
	key := CacheKey(endpoint, query, restArg)
	cachedBytes, err := c.redisClient.Get(key).Bytes()
	if err == nil {
		cached := cachedRawList{}
		if err = json.Unmarshal(cachedBytes, &cached); err == nil {
			rawList := RawList{Records: cached.Records}
			if len(cached.Meta) > 0 {
				err = json.Unmarshal(cached.Meta, &rawList.Meta)
			}
			if err == nil {
				return rawList, nil
			}
		}
		// A corrupt entry is treated as a miss and overwritten below.
		log.Printf("WARNING: discarding unreadable cache entry %q: %s", key, err)
	} else if err != redis.Nil {
		log.Printf("WARNING: error reading cache entry %q: %s", key, err)
	}

	rawList, err := c.inner.Get(ctx, endpoint, query, restArg)
	if err != nil {
		return RawList{}, err
	}
	if err := c.Put(endpoint, query, restArg, rawList); err != nil {
		log.Printf("WARNING: %s", err)
	}
	return rawList, nil
}

// Put stores rawList as the cached result of the given request.
func (c *CachedAccessor) Put(
	endpoint string,
	query Query,
	restArg string,
	rawList RawList,
) error {
	return c.PutWithTTL(endpoint, query, restArg, rawList, c.ttl)
}

// PutWithTTL stores rawList as the cached result of the given request with a
// TTL other than the accessor's default.
func (c *CachedAccessor) PutWithTTL(
	endpoint string,
	query Query,
	restArg string,
	rawList RawList,
	ttl time.Duration,
) error {
	key := CacheKey(endpoint, query, restArg)
	metaBytes, err := json.Marshal(rawList.Meta)
	if err != nil {
		return errors.Wrapf(err, "error marshaling metadata for %q", key)
	}
	entryBytes, err := json.Marshal(
		cachedRawList{
			Records: rawList.Records,
			Meta:    metaBytes,
		},
	)
	if err != nil {
		return errors.Wrapf(err, "error marshaling cache entry %q", key)
	}
	if err := c.redisClient.Set(key, entryBytes, ttl).Err(); err != nil {
		return errors.Wrapf(err, "error writing cache entry %q", key)
	}
	return nil
}
