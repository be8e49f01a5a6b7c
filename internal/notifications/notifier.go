// Package notifications publishes and consumes change-notification events
// over Redis pub/sub.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"runtime/debug"
	"time"

	"tribune/internal/observability"

	"github.com/redis/go-redis/v9"
)

// Domains that emit change notifications.
const (
	DomainArticles = "articles"
	DomainTags     = "tags"
)

const consumedChannel = "consumed:articles"

// ChangeEvent is the payload published on a domain change channel.
type ChangeEvent struct {
	Domain string    `json:"domain"`
	At     time.Time `json:"at"`
}

// ConsumedEvent is the payload published when an article is read by a
// non-API caller (view tracking).
type ConsumedEvent struct {
	ArticleID uint      `json:"article_id"`
	At        time.Time `json:"at"`
}

// Notifier provides helpers to publish notifications into Redis channels
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// ChangeChannel derives the Redis channel name for a domain.
func ChangeChannel(domain string) string {
	return "changes:" + domain
}

// PublishChange emits a change notification for each of the given domains.
// A nil Redis client makes this a no-op; mutations never fail because the
// event bus is down.
func (n *Notifier) PublishChange(ctx context.Context, domains ...string) error {
	if n.rdb == nil {
		return nil
	}
	for _, domain := range domains {
		payload, err := json.Marshal(ChangeEvent{Domain: domain, At: time.Now().UTC()})
		if err != nil {
			return fmt.Errorf("marshal change event: %w", err)
		}
		if err := n.rdb.Publish(ctx, ChangeChannel(domain), payload).Err(); err != nil {
			return err
		}
		observability.EventsPublished.WithLabelValues(domain).Inc()
	}
	return nil
}

// PublishConsumed emits a fire-and-forget consumed event for view tracking.
func (n *Notifier) PublishConsumed(ctx context.Context, articleID uint) error {
	if n.rdb == nil {
		return nil
	}
	payload, err := json.Marshal(ConsumedEvent{ArticleID: articleID, At: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("marshal consumed event: %w", err)
	}
	return n.rdb.Publish(ctx, consumedChannel, payload).Err()
}

// StartChangeSubscriber subscribes to pattern `changes:*` and calls onMessage
// for each incoming message. onMessage receives channel and payload.
func (n *Notifier) StartChangeSubscriber(
	ctx context.Context, onMessage func(channel string, payload string),
) error {
	return n.startSubscriber(ctx, "ChangeSubscriber", onMessage, "changes:*")
}

// StartConsumedSubscriber subscribes to the consumed-event channel.
func (n *Notifier) StartConsumedSubscriber(
	ctx context.Context, onMessage func(channel string, payload string),
) error {
	return n.startSubscriber(ctx, "ConsumedSubscriber", onMessage, consumedChannel)
}

func (n *Notifier) startSubscriber(
	ctx context.Context, name string, onMessage func(channel string, payload string), patterns ...string,
) error {
	if n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, patterns...)
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							log.Printf("PANIC in %s: %v\n%s", name, r, debug.Stack())
						}
					}()
					onMessage(msg.Channel, msg.Payload)
				}()
			}
		}
	}()

	return nil
}
