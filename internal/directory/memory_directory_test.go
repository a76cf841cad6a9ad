package directory

import (
	"context"
	"errors"
	"sort"
	"testing"
)

func TestCreateRoomDuplicate(t *testing.T) {
	d := NewMemoryDirectory()
	ctx := context.Background()

	room, err := d.CreateRoom(ctx, "general", "alice", false)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if room.Name != "general" || room.Creator != "alice" || room.Private {
		t.Errorf("unexpected room %+v", room)
	}

	if _, err := d.CreateRoom(ctx, "general", "bob", true); !errors.Is(err, ErrRoomExists) {
		t.Errorf("duplicate create returned %v, want ErrRoomExists", err)
	}

	// The loser must not have overwritten the original.
	got, err := d.GetRoom(ctx, "general")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Creator != "alice" || got.Private {
		t.Errorf("duplicate create mutated the room: %+v", got)
	}
}

func TestEnsureRoomIdempotent(t *testing.T) {
	d := NewMemoryDirectory()
	ctx := context.Background()

	if err := d.EnsureRoom(ctx, "general"); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if err := d.EnsureRoom(ctx, "general"); err != nil {
		t.Fatalf("second ensure: %v", err)
	}

	rooms, err := d.ListRooms(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rooms) != 1 {
		t.Errorf("got %d rooms, want 1", len(rooms))
	}
}

func TestEnsureRoomKeepsExistingMetadata(t *testing.T) {
	d := NewMemoryDirectory()
	ctx := context.Background()

	if _, err := d.CreateRoom(ctx, "secret", "alice", true); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := d.EnsureRoom(ctx, "secret"); err != nil {
		t.Fatalf("ensure: %v", err)
	}

	room, err := d.GetRoom(ctx, "secret")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if room.Creator != "alice" || !room.Private {
		t.Errorf("ensure overwrote metadata: %+v", room)
	}
}

func TestRoomNameValidation(t *testing.T) {
	d := NewMemoryDirectory()
	ctx := context.Background()

	// ":" is the key-scheme separator; a name carrying it would collide
	// with another room's keys.
	for _, name := range []string{"", "x:meta", "a:b"} {
		if _, err := d.CreateRoom(ctx, name, "alice", false); !errors.Is(err, ErrInvalidRoomName) {
			t.Errorf("CreateRoom(%q) = %v, want ErrInvalidRoomName", name, err)
		}
		if err := d.EnsureRoom(ctx, name); !errors.Is(err, ErrInvalidRoomName) {
			t.Errorf("EnsureRoom(%q) = %v, want ErrInvalidRoomName", name, err)
		}
	}

	rooms, err := d.ListRooms(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rooms) != 0 {
		t.Errorf("rejected names registered anyway: %v", rooms)
	}
}

func TestGetRoomNotFound(t *testing.T) {
	d := NewMemoryDirectory()
	if _, err := d.GetRoom(context.Background(), "nowhere"); !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("got %v, want ErrRoomNotFound", err)
	}
}

func TestListRoomsInsertionOrder(t *testing.T) {
	d := NewMemoryDirectory()
	ctx := context.Background()

	for _, name := range []string{"general", "dev", "random"} {
		if err := d.EnsureRoom(ctx, name); err != nil {
			t.Fatalf("ensure %s: %v", name, err)
		}
	}

	rooms, err := d.ListRooms(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rooms) != 3 {
		t.Fatalf("got %d rooms, want 3", len(rooms))
	}
	for i, want := range []string{"general", "dev", "random"} {
		if rooms[i].Name != want {
			t.Errorf("rooms[%d] = %q, want %q", i, rooms[i].Name, want)
		}
	}
}

func TestAddConversationRecordsBothSides(t *testing.T) {
	d := NewMemoryDirectory()
	ctx := context.Background()

	if err := d.AddConversation(ctx, "alice", "bob"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := d.AddConversation(ctx, "alice", "carol"); err != nil {
		t.Fatalf("add: %v", err)
	}
	// Repeats must not duplicate.
	if err := d.AddConversation(ctx, "bob", "alice"); err != nil {
		t.Fatalf("add: %v", err)
	}

	aliceSees, err := d.ConversationsOf(ctx, "alice")
	if err != nil {
		t.Fatalf("conversations: %v", err)
	}
	sort.Strings(aliceSees)
	if len(aliceSees) != 2 || aliceSees[0] != "bob" || aliceSees[1] != "carol" {
		t.Errorf("alice's conversations = %v, want [bob carol]", aliceSees)
	}

	bobSees, err := d.ConversationsOf(ctx, "bob")
	if err != nil {
		t.Fatalf("conversations: %v", err)
	}
	if len(bobSees) != 1 || bobSees[0] != "alice" {
		t.Errorf("bob's conversations = %v, want [alice]", bobSees)
	}
}
