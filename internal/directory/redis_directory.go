package directory

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/covechat/cove/internal/domain"
)

// Redis key patterns:
// rooms                     SET<room name>
// room:{name}:meta          HASH creator, private, created_at
// conversations:{identity}  SET<correspondent identity>

const roomsKey = "rooms"

type RedisDirectory struct {
	client *redis.Client
}

func NewRedisDirectory(client *redis.Client) (*RedisDirectory, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisDirectory{client: client}, nil
}

func roomMetaKey(name string) string {
	return fmt.Sprintf("room:%s:meta", name)
}

func conversationsKey(identity string) string {
	return fmt.Sprintf("conversations:%s", identity)
}

func (d *RedisDirectory) CreateRoom(ctx context.Context, name, creator string, private bool) (*domain.Room, error) {
	if err := checkRoomName(name); err != nil {
		return nil, err
	}

	// SADD decides the winner under concurrent creates.
	added, err := d.client.SAdd(ctx, roomsKey, name).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to register room: %w", err)
	}
	if added == 0 {
		return nil, ErrRoomExists
	}

	room := &domain.Room{
		Name:      name,
		Private:   private,
		Creator:   creator,
		CreatedAt: time.Now().UTC(),
	}

	if err := d.client.HSet(ctx, roomMetaKey(name), map[string]interface{}{
		"creator":    room.Creator,
		"private":    strconv.FormatBool(room.Private),
		"created_at": strconv.FormatInt(room.CreatedAt.UnixMilli(), 10),
	}).Err(); err != nil {
		return nil, fmt.Errorf("failed to store room metadata: %w", err)
	}

	return room, nil
}

func (d *RedisDirectory) EnsureRoom(ctx context.Context, name string) error {
	if err := checkRoomName(name); err != nil {
		return err
	}

	added, err := d.client.SAdd(ctx, roomsKey, name).Result()
	if err != nil {
		return fmt.Errorf("failed to register room: %w", err)
	}
	if added == 0 {
		return nil
	}

	return d.client.HSet(ctx, roomMetaKey(name), map[string]interface{}{
		"creator":    "",
		"private":    "false",
		"created_at": strconv.FormatInt(time.Now().UnixMilli(), 10),
	}).Err()
}

func (d *RedisDirectory) GetRoom(ctx context.Context, name string) (*domain.Room, error) {
	known, err := d.client.SIsMember(ctx, roomsKey, name).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to look up room: %w", err)
	}
	if !known {
		return nil, ErrRoomNotFound
	}

	meta, err := d.client.HGetAll(ctx, roomMetaKey(name)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load room metadata: %w", err)
	}
	return roomFromMeta(name, meta), nil
}

func (d *RedisDirectory) ListRooms(ctx context.Context) ([]domain.Room, error) {
	names, err := d.client.SMembers(ctx, roomsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}

	pipe := d.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(names))
	for i, name := range names {
		cmds[i] = pipe.HGetAll(ctx, roomMetaKey(name))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to load room metadata: %w", err)
	}

	rooms := make([]domain.Room, 0, len(names))
	for i, name := range names {
		rooms = append(rooms, *roomFromMeta(name, cmds[i].Val()))
	}
	return rooms, nil
}

func roomFromMeta(name string, meta map[string]string) *domain.Room {
	room := &domain.Room{
		Name:    name,
		Creator: meta["creator"],
		Private: meta["private"] == "true",
	}
	if ts, err := strconv.ParseInt(meta["created_at"], 10, 64); err == nil {
		room.CreatedAt = time.UnixMilli(ts).UTC()
	}
	return room
}

func (d *RedisDirectory) AddConversation(ctx context.Context, a, b string) error {
	pipe := d.client.TxPipeline()
	pipe.SAdd(ctx, conversationsKey(a), b)
	pipe.SAdd(ctx, conversationsKey(b), a)
	_, err := pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to record conversation: %w", err)
	}
	return nil
}

func (d *RedisDirectory) ConversationsOf(ctx context.Context, identity string) ([]string, error) {
	users, err := d.client.SMembers(ctx, conversationsKey(identity)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	return users, nil
}

func (d *RedisDirectory) Close() error {
	return d.client.Close()
}
