package ws

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeEvent(t *testing.T) {
	data, err := EncodeEvent(EventSendMessage, SendMessagePayload{ReceiverID: 2, Text: "hi"})
	require.NoError(t, err)

	ev, err := DecodeEvent(data)
	require.NoError(t, err)
	assert.Equal(t, EventSendMessage, ev.Type)

	var p SendMessagePayload
	require.NoError(t, json.Unmarshal(ev.Payload, &p))
	assert.Equal(t, uint(2), p.ReceiverID)
	assert.Equal(t, "hi", p.Text)
}

func TestDecodeEventMalformed(t *testing.T) {
	_, err := DecodeEvent([]byte("not json"))
	assert.Error(t, err)
}

func TestDecodeEventMissingType(t *testing.T) {
	_, err := DecodeEvent([]byte(`{"payload":{"receiverId":2}}`))
	assert.Error(t, err)
}

func TestConversationUpdatePayloadFieldNames(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	data, err := json.Marshal(ConversationUpdatePayload{
		UserID:          3,
		LastMessage:     "hey",
		LastMessageTime: at,
	})
	require.NoError(t, err)

	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.Contains(t, fields, "userId")
	assert.Contains(t, fields, "last_message")
	assert.Contains(t, fields, "last_message_time")
}
