package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/convoiexpress95-beep/Fleetcheeckss-sub003/internal/model"
)

// invalidateChannel carries viewer ids whose inbox snapshot must be
// dropped. Every instance subscribes, so a write on one instance
// refreshes the derivation everywhere on the next request.
const invalidateChannel = "inbox.invalidate"

// InboxCache stores derived conversation snapshots in Redis so a burst
// of inbox polls does not rerun the aggregation on every request.
// Snapshots are short-lived and writers invalidate eagerly; the cache
// is an optimization only and all methods are safe on a nil receiver,
// degrading to "always recompute" when Redis is unavailable.
type InboxCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

// NewInboxCache returns an InboxCache, or nil when rdb is nil so that
// callers can wire it unconditionally.
func NewInboxCache(rdb *redis.Client, ttl time.Duration) *InboxCache {
	if rdb == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &InboxCache{rdb: rdb, ttl: ttl, prefix: "inbox"}
}

func (c *InboxCache) key(viewerID string) string { return c.prefix + ":" + viewerID }

// Get returns the cached snapshot for a viewer, if present.
func (c *InboxCache) Get(ctx context.Context, viewerID string) ([]model.Conversation, bool) {
	if c == nil {
		return nil, false
	}
	bs, err := c.rdb.Get(ctx, c.key(viewerID)).Bytes()
	if err != nil {
		return nil, false
	}
	var convs []model.Conversation
	if err := json.Unmarshal(bs, &convs); err != nil {
		return nil, false
	}
	return convs, true
}

// Set stores a snapshot. Failures are ignored; the next reader simply
// recomputes.
func (c *InboxCache) Set(ctx context.Context, viewerID string, convs []model.Conversation) {
	if c == nil {
		return
	}
	bs, err := json.Marshal(convs)
	if err != nil {
		return
	}
	_ = c.rdb.SetEx(ctx, c.key(viewerID), bs, c.ttl).Err()
}

// Invalidate drops the snapshots of the given viewers and announces
// the change on the pub/sub channel so peer instances drop theirs too.
func (c *InboxCache) Invalidate(ctx context.Context, viewerIDs ...string) {
	if c == nil {
		return
	}
	for _, viewer := range viewerIDs {
		if viewer == "" {
			continue
		}
		_ = c.rdb.Del(ctx, c.key(viewer)).Err()
		_ = c.rdb.Publish(ctx, invalidateChannel, viewer).Err()
	}
}

// Subscribe runs until ctx is cancelled, dropping the local snapshot
// of every viewer announced on the invalidation channel. Intended to
// be started once from main in its own goroutine.
func (c *InboxCache) Subscribe(ctx context.Context) {
	if c == nil {
		return
	}
	sub := c.rdb.Subscribe(ctx, invalidateChannel)
	defer func() { _ = sub.Close() }()
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if err := c.rdb.Del(ctx, c.key(msg.Payload)).Err(); err != nil {
				log.Printf("inbox-cache: drop %q failed: %v", msg.Payload, err)
			}
		}
	}
}
