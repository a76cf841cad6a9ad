package directory

import (
	"context"
	"sync"
	"time"

	"github.com/covechat/cove/internal/domain"
)

// MemoryDirectory is the in-process directory backend.
type MemoryDirectory struct {
	mu            sync.RWMutex
	rooms         map[string]domain.Room
	roomOrder     []string
	conversations map[string]map[string]struct{}
}

func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{
		rooms:         make(map[string]domain.Room),
		conversations: make(map[string]map[string]struct{}),
	}
}

func (d *MemoryDirectory) CreateRoom(ctx context.Context, name, creator string, private bool) (*domain.Room, error) {
	if err := checkRoomName(name); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.rooms[name]; ok {
		return nil, ErrRoomExists
	}

	room := domain.Room{
		Name:      name,
		Private:   private,
		Creator:   creator,
		CreatedAt: time.Now().UTC(),
	}
	d.rooms[name] = room
	d.roomOrder = append(d.roomOrder, name)
	return &room, nil
}

func (d *MemoryDirectory) EnsureRoom(ctx context.Context, name string) error {
	if err := checkRoomName(name); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.rooms[name]; ok {
		return nil
	}
	d.rooms[name] = domain.Room{
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	d.roomOrder = append(d.roomOrder, name)
	return nil
}

func (d *MemoryDirectory) GetRoom(ctx context.Context, name string) (*domain.Room, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	room, ok := d.rooms[name]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return &room, nil
}

func (d *MemoryDirectory) ListRooms(ctx context.Context) ([]domain.Room, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	rooms := make([]domain.Room, 0, len(d.roomOrder))
	for _, name := range d.roomOrder {
		rooms = append(rooms, d.rooms[name])
	}
	return rooms, nil
}

func (d *MemoryDirectory) AddConversation(ctx context.Context, a, b string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.addCorrespondent(a, b)
	d.addCorrespondent(b, a)
	return nil
}

func (d *MemoryDirectory) addCorrespondent(identity, other string) {
	set, ok := d.conversations[identity]
	if !ok {
		set = make(map[string]struct{})
		d.conversations[identity] = set
	}
	set[other] = struct{}{}
}

func (d *MemoryDirectory) ConversationsOf(ctx context.Context, identity string) ([]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	set := d.conversations[identity]
	users := make([]string, 0, len(set))
	for other := range set {
		users = append(users, other)
	}
	return users, nil
}

func (d *MemoryDirectory) Close() error { return nil }
