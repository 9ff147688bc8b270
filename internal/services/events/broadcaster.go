package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/inquest-engine/pkg/storage"
)

const channelPrefix = "notifications:"

// Channel is the pub/sub channel for one character's notifications.
func Channel(characterID string) string {
	return channelPrefix + characterID
}

// Broadcaster publishes character notifications to Redis Pub/Sub.
type Broadcaster struct {
	redisClient *redis.Client
	logger      *slog.Logger
	now         func() time.Time
}

var _ storage.Notifier = (*Broadcaster)(nil)

// NewBroadcaster creates a new notification broadcaster
func NewBroadcaster(redisClient *redis.Client, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		redisClient: redisClient,
		logger:      logger,
		now:         time.Now,
	}
}

// Notify publishes n on the character's channel.
func (b *Broadcaster) Notify(ctx context.Context, n storage.Notification) error {
	if n.CharacterID == "" {
		return fmt.Errorf("notification has no character")
	}
	if n.At.IsZero() {
		n.At = b.now()
	}
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	channel := Channel(n.CharacterID)
	if err := b.redisClient.Publish(ctx, channel, data).Err(); err != nil {
		b.logger.Error("Failed to publish notification", "error", err, "channel", channel)
		return fmt.Errorf("failed to publish notification: %w", err)
	}

	b.logger.Debug("Published notification",
		"channel", channel,
		"kind", n.Kind)
	return nil
}

// Subscribe streams notifications for the given characters, or for every
// character when none are named. The channel closes when ctx is done.
func (b *Broadcaster) Subscribe(ctx context.Context, characterIDs ...string) <-chan storage.Notification {
	var sub *redis.PubSub
	if len(characterIDs) == 0 {
		sub = b.redisClient.PSubscribe(ctx, channelPrefix+"*")
	} else {
		channels := make([]string, len(characterIDs))
		for i, id := range characterIDs {
			channels[i] = Channel(id)
		}
		sub = b.redisClient.Subscribe(ctx, channels...)
	}

	out := make(chan storage.Notification)
	go func() {
		defer close(out)
		defer sub.Close()

		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var n storage.Notification
				if err := json.Unmarshal([]byte(msg.Payload), &n); err != nil {
					b.logger.Warn("Dropping malformed notification", "channel", msg.Channel, "error", err)
					continue
				}
				select {
				case out <- n:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}
