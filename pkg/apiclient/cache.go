package apiclient

import (
	"context"
	"fmt"
	"time"

	"github.com/adhocore/gronx"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/zhaopengme/dwtrbot/pkg/logger"
)

const (
	DefaultCacheTTL        = time.Hour
	DefaultCacheMaxEntries = 512
)

// ResponseCache keeps successful GET bodies keyed by request URL. Entries
// expire after the TTL; when full, the least recently used entry goes.
type ResponseCache struct {
	lru *expirable.LRU[string, []byte]
}

// NewResponseCache creates a cache. Non-positive arguments select the
// defaults.
func NewResponseCache(ttl time.Duration, maxEntries int) *ResponseCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if maxEntries <= 0 {
		maxEntries = DefaultCacheMaxEntries
	}
	return &ResponseCache{lru: expirable.NewLRU[string, []byte](maxEntries, nil, ttl)}
}

func (rc *ResponseCache) Get(key string) ([]byte, bool) {
	return rc.lru.Get(key)
}

func (rc *ResponseCache) Put(key string, body []byte) {
	rc.lru.Add(key, body)
}

func (rc *ResponseCache) Len() int {
	return rc.lru.Len()
}

// Flush drops every entry and returns how many were removed.
func (rc *ResponseCache) Flush() int {
	n := rc.lru.Len()
	rc.lru.Purge()
	return n
}

// RunFlusher empties the cache on a cron schedule until ctx is done, so
// catalogue edits show up before the TTL runs out.
func (rc *ResponseCache) RunFlusher(ctx context.Context, schedule string) error {
	if !gronx.New().IsValid(schedule) {
		return fmt.Errorf("invalid cache flush schedule: %q", schedule)
	}

	for {
		next, err := gronx.NextTick(schedule, false)
		if err != nil {
			return fmt.Errorf("failed to compute next flush: %w", err)
		}

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}

		logger.DebugCF("apiclient", "Flushed response cache", map[string]interface{}{
			"removed": rc.Flush(),
		})
	}
}
