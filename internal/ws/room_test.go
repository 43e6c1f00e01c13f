package ws

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoomKeySymmetric(t *testing.T) {
	pairs := [][2]uint{
		{1, 2},
		{2, 12},
		{7, 7000},
		{42, 41},
	}
	for _, p := range pairs {
		assert.Equal(t, RoomKey(p[0], p[1]), RoomKey(p[1], p[0]),
			"room key must not depend on argument order")
	}
}

func TestRoomKeyOrdering(t *testing.T) {
	assert.Equal(t, "1:2", RoomKey(2, 1))
	assert.Equal(t, "1:2", RoomKey(1, 2))
	// Numeric order, not lexicographic: 2 < 12.
	assert.Equal(t, "2:12", RoomKey(12, 2))
}

func TestRoomKeyCollisionFree(t *testing.T) {
	// "1:23" vs "12:3" would collide under naive concatenation.
	assert.NotEqual(t, RoomKey(1, 23), RoomKey(12, 3))
	assert.NotEqual(t, RoomKey(11, 1), RoomKey(1, 11000))
}

func TestPersonalChannel(t *testing.T) {
	assert.Equal(t, "user:7", PersonalChannel(7))
}
