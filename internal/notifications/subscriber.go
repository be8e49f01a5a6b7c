package notifications

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"

	"tribune/internal/cache"
	"tribune/internal/middleware"

	"github.com/redis/go-redis/v9"
)

// StartCacheInvalidator wires change notifications to out-of-band cache
// invalidation: any article or tag change drops the cached list pages.
// Single-article keys are left to their TTL; the invalidator only cuts the
// staleness window for listings, which are the most visible surface.
func StartCacheInvalidator(ctx context.Context, n *Notifier) error {
	return n.StartChangeSubscriber(ctx, func(channel string, payload string) {
		var ev ChangeEvent
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			middleware.Logger.Warn("cache invalidator: bad payload",
				slog.String("channel", channel), slog.String("error", err.Error()))
			return
		}
		switch ev.Domain {
		case DomainArticles, DomainTags:
			cache.InvalidateLists(ctx)
		}
	})
}

// StartViewTracker wires consumed events to a per-article view counter kept
// in Redis. Counting is best-effort; a lost event is an undercounted view,
// not an error.
func StartViewTracker(ctx context.Context, n *Notifier, rdb *redis.Client) error {
	if rdb == nil {
		return nil
	}
	return n.StartConsumedSubscriber(ctx, func(_ string, payload string) {
		var ev ConsumedEvent
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			return
		}
		rdb.IncrBy(ctx, ViewCountKey(ev.ArticleID), 1)
	})
}

// ViewCountKey derives the Redis key holding an article's view count.
func ViewCountKey(articleID uint) string {
	return "views:article:" + strconv.FormatUint(uint64(articleID), 10)
}
