package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret-password")
	require.NoError(t, err)
	require.NotEqual(t, "s3cret-password", hash)

	assert.True(t, CheckPasswordHash("s3cret-password", hash))
	assert.False(t, CheckPasswordHash("wrong-password", hash))
}

func TestUserJSONNeverLeaksPassword(t *testing.T) {
	u := User{ID: 1, UserName: "alice", Email: "alice@example.com", Password: "hashed"}
	data, err := json.Marshal(u)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hashed")
}

func TestMessageToResponse(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	m := Message{ID: 3, Text: "hi", SenderID: 1, ReceiverID: 2, Timestamp: at}

	resp := m.ToResponse()
	assert.Equal(t, MessageResponse{ID: 3, SenderID: 1, Text: "hi", Timestamp: at}, resp)
}

func TestConversationCounterparty(t *testing.T) {
	c := Conversation{User1ID: 1, User2ID: 2}

	assert.True(t, c.Involves(1))
	assert.True(t, c.Involves(2))
	assert.False(t, c.Involves(3))

	assert.Equal(t, uint(2), c.Counterparty(1))
	assert.Equal(t, uint(1), c.Counterparty(2))
}
