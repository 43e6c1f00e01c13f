package ws

import (
	"fmt"
)

// RoomKey derives the canonical room name for an unordered pair of user
// ids: the smaller id first, joined with a colon. Both directions of a
// conversation map to the same room, and distinct pairs never collide
// because the ids are formatted as full decimal numbers.
func RoomKey(a, b uint) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d:%d", a, b)
}

// PersonalChannel names the broadcast scope that reaches every live
// connection bound to one identity.
func PersonalChannel(userID uint) string {
	return fmt.Sprintf("user:%d", userID)
}
