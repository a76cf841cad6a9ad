package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/covechat/cove/internal/domain"
)

// Redis key patterns:
// room:{name}                ZSET<message JSON> scored by timestamp
// conversation:{sortedPair}  ZSET<message JSON> scored by timestamp

// RedisMessageStore keeps message logs as Redis sorted sets, scored by the
// assigned timestamp, so history reads are single range queries.
type RedisMessageStore struct {
	client *redis.Client
	limits Limits
	clock  *logClock
}

func NewRedisMessageStore(client *redis.Client, limits Limits) (*RedisMessageStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisMessageStore{
		client: client,
		limits: limits,
		clock:  newLogClock(),
	}, nil
}

func roomKey(room string) string {
	return fmt.Sprintf("room:%s", room)
}

func conversationKey(a, b string) string {
	return fmt.Sprintf("conversation:%s", domain.ConversationKey(a, b))
}

func (s *RedisMessageStore) AppendRoomMessage(ctx context.Context, room, sender, text string) (*domain.RoomMessage, error) {
	key := roomKey(room)
	msg := &domain.RoomMessage{
		Username:  sender,
		Room:      room,
		Text:      text,
		Timestamp: s.clock.next(key),
	}

	if err := s.append(ctx, key, msg.Timestamp, msg, s.limits.RoomLogMax); err != nil {
		return nil, fmt.Errorf("failed to append room message: %w", err)
	}
	return msg, nil
}

func (s *RedisMessageStore) AppendDirectMessage(ctx context.Context, sender, recipient, text string) (*domain.DirectMessage, error) {
	key := conversationKey(sender, recipient)
	msg := &domain.DirectMessage{
		From:      sender,
		To:        recipient,
		Text:      text,
		Timestamp: s.clock.next(key),
	}

	if err := s.append(ctx, key, msg.Timestamp, msg, s.limits.ConversationLogMax); err != nil {
		return nil, fmt.Errorf("failed to append direct message: %w", err)
	}
	return msg, nil
}

// append writes one log entry and trims the log to its cap in a single
// pipeline, keeping the shared store free of read-modify-write sequences.
func (s *RedisMessageStore) append(ctx context.Context, key string, ts int64, msg interface{}, max int) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(ts),
		Member: string(data),
	})
	if max > 0 {
		pipe.ZRemRangeByRank(ctx, key, 0, int64(-(max + 1)))
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (s *RedisMessageStore) RecentRoomMessages(ctx context.Context, room string, limit int) ([]domain.RoomMessage, error) {
	raw, err := s.recent(ctx, roomKey(room), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to read room log: %w", err)
	}

	messages := make([]domain.RoomMessage, 0, len(raw))
	for _, data := range raw {
		var msg domain.RoomMessage
		if err := json.Unmarshal([]byte(data), &msg); err != nil {
			continue
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

func (s *RedisMessageStore) ConversationHistory(ctx context.Context, a, b string, limit int) ([]domain.DirectMessage, error) {
	raw, err := s.recent(ctx, conversationKey(a, b), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to read conversation log: %w", err)
	}

	messages := make([]domain.DirectMessage, 0, len(raw))
	for _, data := range raw {
		var msg domain.DirectMessage
		if err := json.Unmarshal([]byte(data), &msg); err != nil {
			continue
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// recent returns the last limit members in ascending score order.
func (s *RedisMessageStore) recent(ctx context.Context, key string, limit int) ([]string, error) {
	if limit <= 0 {
		return nil, nil
	}
	return s.client.ZRange(ctx, key, int64(-limit), -1).Result()
}

func (s *RedisMessageStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisMessageStore) Close() error {
	return s.client.Close()
}
