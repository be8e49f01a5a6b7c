package cache

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

const (
	ArticleKeyPrefix         = "article:%d"
	ArticleCommentsKeySuffix = ":comments"
	ListKeyPrefix            = "articles:list:"
	TagKeyPrefix             = "tag:%s"
)

const (
	// ArticleTTL bounds the read-after-write staleness window for a single article.
	ArticleTTL = 5 * time.Minute
	// CommentsTTL covers the independently cached comment thread of an article.
	CommentsTTL = 5 * time.Minute
	// ListTTL covers parameter-keyed list pages.
	ListTTL = 5 * time.Minute
)

func ArticleKey(articleID uint) string {
	return fmt.Sprintf(ArticleKeyPrefix, articleID)
}

func ArticleCommentsKey(articleID uint) string {
	return ArticleKey(articleID) + ArticleCommentsKeySuffix
}

func TagKey(slug string) string {
	return fmt.Sprintf(TagKeyPrefix, slug)
}

// ListKey derives a deterministic key from the full list-request parameter
// set. url.Values.Encode sorts by key, so equivalent requests map to the
// same cache entry regardless of parameter order.
func ListKey(params url.Values) string {
	return ListKeyPrefix + params.Encode()
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateArticle(ctx context.Context, articleID uint) {
	Invalidate(ctx, ArticleKey(articleID))
	Invalidate(ctx, ArticleCommentsKey(articleID))
}

// InvalidateLists drops every cached list page. Used by the change-event
// subscriber for out-of-band invalidation; writes themselves rely on the TTL.
func InvalidateLists(ctx context.Context) {
	if client == nil {
		return
	}
	var cursor uint64
	for {
		keys, next, err := client.Scan(ctx, cursor, ListKeyPrefix+"*", 100).Result()
		if err != nil {
			return
		}
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
		if next == 0 {
			return
		}
		cursor = next
	}
}

// Itoa is a convenience for building parameter sets from numeric filters.
func Itoa(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}
