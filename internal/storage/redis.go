package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"matcha/backend/internal/logger"
	"matcha/backend/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	// eventBusChannel carries BusEvent envelopes between server instances.
	eventBusChannel = "matcha:events"

	// onlineUsersKey is the set of user ids with at least one live connection.
	onlineUsersKey = "online_users"

	// likeCountTTL bounds staleness of the cached like counters.
	likeCountTTL = time.Hour
)

func likeCountKey(userID uint64) string {
	return fmt.Sprintf("likes:count:%d", userID)
}

// PublishEvent puts a BusEvent on the shared event channel.
func (s *Service) PublishEvent(ctx context.Context, evt models.BusEvent) error {
	raw, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return s.Redis.Publish(ctx, eventBusChannel, raw).Err()
}

// SubscribeEvents subscribes to the event bus and returns a channel of
// decoded envelopes. The channel closes when ctx is cancelled or the
// subscription drops. Malformed payloads are logged and skipped.
func (s *Service) SubscribeEvents(ctx context.Context) (<-chan models.BusEvent, error) {
	pubsub := s.Redis.Subscribe(ctx, eventBusChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	out := make(chan models.BusEvent, 64)
	go func() {
		defer close(out)
		defer pubsub.Close()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var evt models.BusEvent
				if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
					logger.L().Warn("dropping malformed bus event", "err", err)
					continue
				}
				out <- evt
			}
		}
	}()
	return out, nil
}

// SetUserOnline adds the user to the shared online set.
func (s *Service) SetUserOnline(ctx context.Context, userID uint64) error {
	return s.Redis.SAdd(ctx, onlineUsersKey, userID).Err()
}

// SetUserOffline removes the user from the shared online set.
func (s *Service) SetUserOffline(ctx context.Context, userID uint64) error {
	return s.Redis.SRem(ctx, onlineUsersKey, userID).Err()
}

// OnlineUsers lists every user currently marked online by any instance.
func (s *Service) OnlineUsers(ctx context.Context) ([]uint64, error) {
	members, err := s.Redis.SMembers(ctx, onlineUsersKey).Result()
	if err != nil {
		return nil, err
	}
	ids := make([]uint64, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseUint(m, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// IncrLikeCount bumps the cached liker counter, refreshing its TTL.
func (s *Service) IncrLikeCount(ctx context.Context, userID uint64) error {
	key := likeCountKey(userID)
	if err := s.Redis.Incr(ctx, key).Err(); err != nil {
		return err
	}
	return s.Redis.Expire(ctx, key, likeCountTTL).Err()
}

// DecrLikeCount lowers the cached liker counter, refreshing its TTL.
func (s *Service) DecrLikeCount(ctx context.Context, userID uint64) error {
	key := likeCountKey(userID)
	if err := s.Redis.Decr(ctx, key).Err(); err != nil {
		return err
	}
	return s.Redis.Expire(ctx, key, likeCountTTL).Err()
}

// GetLikeCount reads the cached counter. The bool reports a cache hit.
func (s *Service) GetLikeCount(ctx context.Context, userID uint64) (int64, bool, error) {
	val, err := s.Redis.Get(ctx, likeCountKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, nil
	}
	// refresh TTL on access, the counter is hot for active users
	_ = s.Redis.Expire(ctx, likeCountKey(userID), likeCountTTL).Err()
	return n, true, nil
}

// SetLikeCount primes the cached counter after a DB fallback.
func (s *Service) SetLikeCount(ctx context.Context, userID uint64, count int64) error {
	return s.Redis.Set(ctx, likeCountKey(userID), count, likeCountTTL).Err()
}
