// Package notifications provides real-time notification delivery and management.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Event types pushed to accounts.
const (
	EventNewFollower  = "new_follower"
	EventNewMessage   = "new_message"
	EventNewLike      = "new_like"
	EventNewComment   = "new_comment"
	EventNewSupporter = "new_supporter"
)

const (
	accountChannelPrefix  = "notifications:account:"
	accountChannelPattern = accountChannelPrefix + "*"
)

// Event is the JSON envelope delivered to websocket clients.
type Event struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload"`
	CreatedAt time.Time   `json:"created_at"`
}

// NewEvent stamps an event with the current time.
func NewEvent(eventType string, payload interface{}) Event {
	return Event{Type: eventType, Payload: payload, CreatedAt: time.Now().UTC()}
}

// Notifier provides helpers to publish notifications into Redis channels
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PublishAccount sends an event to an account's channel. A Notifier without
// Redis drops events silently.
func (n *Notifier) PublishAccount(ctx context.Context, accountID uint, event Event) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return n.rdb.Publish(ctx, AccountChannel(accountID), payload).Err()
}

// StartPatternSubscriber subscribes to every account channel and calls
// onMessage for each incoming message until ctx is done.
func (n *Notifier) StartPatternSubscriber(
	ctx context.Context, onMessage func(channel string, payload string),
) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, accountChannelPattern)
	// Wait for the subscription so events published right after start are seen.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe %s: %w", accountChannelPattern, err)
	}
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
							slog.Error("panic in notification subscriber",
								slog.Any("panic", r),
								slog.String("stack", string(debug.Stack())))
						}
					}()
					onMessage(msg.Channel, msg.Payload)
				}()
			}
		}
	}()

	return nil
}

// AccountChannel derives the Redis channel name for an account.
func AccountChannel(accountID uint) string {
	return accountChannelPrefix + strconv.FormatUint(uint64(accountID), 10)
}

// ParseAccountChannel extracts the account id from an account channel name.
func ParseAccountChannel(channel string) (uint, bool) {
	if len(channel) <= len(accountChannelPrefix) || channel[:len(accountChannelPrefix)] != accountChannelPrefix {
		return 0, false
	}
	id, err := strconv.ParseUint(channel[len(accountChannelPrefix):], 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
