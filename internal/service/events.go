package service

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"bazaar-tracker/internal/correlate"
	"bazaar-tracker/internal/fetcher"
	"bazaar-tracker/internal/series"
)

const eventsKey = "elections"

// EventCache holds the most recent event index so repeated range changes
// reuse one sorted snapshot instead of refetching and re-sorting.
type EventCache struct {
	source fetcher.EventSource
	cache  *gocache.Cache
	logger zerolog.Logger
}

// NewEventCache builds a cache whose entries live for ttl; ttl <= 0 keeps
// the first successful fetch until Refresh is called.
func NewEventCache(source fetcher.EventSource, ttl time.Duration, logger zerolog.Logger) *EventCache {
	expiry := ttl
	cleanup := 2 * ttl
	if ttl <= 0 {
		expiry = gocache.NoExpiration
		cleanup = 0
	}
	return &EventCache{
		source: source,
		cache:  gocache.New(expiry, cleanup),
		logger: logger.With().Str("component", "event_cache").Logger(),
	}
}

// Index returns the cached index, fetching it when absent or expired.
// ok is false when no event data is available.
func (c *EventCache) Index(ctx context.Context) (*correlate.EventIndex, bool) {
	if v, found := c.cache.Get(eventsKey); found {
		return v.(*correlate.EventIndex), true
	}
	return c.Refresh(ctx)
}

// Refresh fetches the event list unconditionally. A failed fetch leaves any
// cached index untouched.
func (c *EventCache) Refresh(ctx context.Context) (*correlate.EventIndex, bool) {
	rows := c.source.FetchElections(ctx)
	if rows == nil {
		c.logger.Warn().Msg("no election data available")
		return nil, false
	}

	events := series.NormalizeElections(rows)
	idx := correlate.NewEventIndex(events)
	c.cache.SetDefault(eventsKey, idx)
	c.logger.Debug().Int("events", idx.Len()).Msg("event index refreshed")
	return idx, true
}

// Invalidate drops the cached index.
func (c *EventCache) Invalidate() {
	c.cache.Delete(eventsKey)
}
