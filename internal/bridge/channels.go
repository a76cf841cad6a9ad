package bridge

import (
	"fmt"
	"strings"

	"github.com/covechat/cove/internal/domain"
)

// Channel naming: one channel per room and one per conversation. A direct
// message is published once on its conversation channel; every instance
// pattern-subscribes and delivers to whichever participants it hosts, so
// sender and recipient never need to share a process.
const (
	roomChannelPrefix   = "chat:room:"
	directChannelPrefix = "chat:direct:"

	RoomChannelPattern   = roomChannelPrefix + "*"
	DirectChannelPattern = directChannelPrefix + "*"
)

// Event types crossing the bridge.
const (
	EventRoomMessage   = "room_message"
	EventDirectMessage = "direct_message"
)

// RoomChannel returns the channel name for a room's messages.
func RoomChannel(room string) string {
	return fmt.Sprintf("%s%s", roomChannelPrefix, room)
}

// DirectChannel returns the channel name for a two-party conversation.
func DirectChannel(a, b string) string {
	return fmt.Sprintf("%s%s", directChannelPrefix, domain.ConversationKey(a, b))
}

// RoomFromChannel extracts the room name from a room channel key.
func RoomFromChannel(channel string) (string, bool) {
	return strings.CutPrefix(channel, roomChannelPrefix)
}
