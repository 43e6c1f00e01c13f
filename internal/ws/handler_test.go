package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"dm-messenger/backend/internal/models"
	"dm-messenger/backend/pkg/jwt"
	"dm-messenger/backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, userIDs ...uint) (*httptest.Server, *jwt.Service, *fakeUserStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logger.Discard()
	jwtService := jwt.NewService("test-secret", time.Hour)

	hub := NewHub(log)
	users := newFakeUserStore(userIDs...)
	messages := &fakeMessageStore{}
	conversations := newFakeConversationStore()

	presence := NewPresence(hub, users, nil, log)
	relay := NewRelay(hub, users, messages, conversations, log)
	gateway := NewGateway(hub, presence, relay, jwtService, log)

	router := gin.New()
	router.GET("/ws", gateway.ServeWS)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server, jwtService, users
}

func wsURL(server *httptest.Server, token string) string {
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	if token != "" {
		url += "?token=" + token
	}
	return url
}

func dialAs(t *testing.T, server *httptest.Server, jwtService *jwt.Service, user *models.User) *websocket.Conn {
	t.Helper()
	token, err := jwtService.GenerateToken(user.ID, user.UserName, user.Email, "")
	require.NoError(t, err)

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL(server, token), nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// waitForEvent reads frames until one of the wanted type arrives. Other
// event types (presence broadcasts mostly) are skipped.
func waitForEvent(t *testing.T, conn *websocket.Conn, eventType string) Event {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	require.NoError(t, conn.SetReadDeadline(deadline))
	for {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err, "waiting for %s event", eventType)
		ev, err := DecodeEvent(data)
		require.NoError(t, err)
		if ev.Type == eventType {
			return ev
		}
	}
}

func sendEvent(t *testing.T, conn *websocket.Conn, eventType string, payload any) {
	t.Helper()
	data, err := EncodeEvent(eventType, payload)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
}

func TestServeWSRejectsMissingToken(t *testing.T) {
	server, _, _ := newTestServer(t)

	resp, err := http.Get(server.URL + "/ws")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestServeWSRejectsInvalidToken(t *testing.T) {
	server, _, _ := newTestServer(t)

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL(server, "not-a-token"), nil)
	require.Error(t, err)
	require.Nil(t, conn)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestServeWSAcceptsAuthorizationHeader(t *testing.T) {
	server, jwtService, _ := newTestServer(t, 1)
	token, err := jwtService.GenerateToken(1, "alice", "alice@example.com", "")
	require.NoError(t, err)

	header := http.Header{"Authorization": []string{"Bearer " + token}}
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL(server, ""), header)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	conn.Close()
}

func TestGatewayEndToEnd(t *testing.T) {
	server, jwtService, users := newTestServer(t, 1, 2)

	alice := dialAs(t, server, jwtService, &models.User{ID: 1, UserName: "alice"})

	// Alice sees her own online announcement.
	ev := waitForEvent(t, alice, EventUserStatus)
	var status UserStatusPayload
	require.NoError(t, json.Unmarshal(ev.Payload, &status))
	assert.Equal(t, UserStatusPayload{UserID: 1, IsOnline: true}, status)

	bob := dialAs(t, server, jwtService, &models.User{ID: 2, UserName: "bob"})

	// And Bob's arrival.
	ev = waitForEvent(t, alice, EventUserStatus)
	require.NoError(t, json.Unmarshal(ev.Payload, &status))
	assert.Equal(t, UserStatusPayload{UserID: 2, IsOnline: true}, status)

	// Alice joins the shared room and sends a message. Frames on one
	// connection are handled in order, so the join lands first.
	sendEvent(t, alice, EventJoinChat, JoinChatPayload{ReceiverID: 2})
	sendEvent(t, alice, EventSendMessage, SendMessagePayload{ReceiverID: 2, Text: "hi"})

	ev = waitForEvent(t, alice, EventMessage)
	var msg models.MessageResponse
	require.NoError(t, json.Unmarshal(ev.Payload, &msg))
	assert.Equal(t, uint(1), msg.SenderID)
	assert.Equal(t, "hi", msg.Text)

	// Bob never joined the room but his personal channel still gets the
	// conversation refresh.
	ev = waitForEvent(t, bob, EventConversationUpdate)
	var update ConversationUpdatePayload
	require.NoError(t, json.Unmarshal(ev.Payload, &update))
	assert.Equal(t, uint(1), update.UserID)
	assert.Equal(t, "hi", update.LastMessage)

	// Closing Bob's connection announces him offline.
	bob.Close()
	ev = waitForEvent(t, alice, EventUserStatus)
	require.NoError(t, json.Unmarshal(ev.Payload, &status))
	assert.Equal(t, UserStatusPayload{UserID: 2, IsOnline: false}, status)

	require.Eventually(t, func() bool {
		users.mu.Lock()
		defer users.mu.Unlock()
		return !users.online[2]
	}, 2*time.Second, 10*time.Millisecond)
}

func TestGatewayRejectsUnknownEventType(t *testing.T) {
	server, jwtService, _ := newTestServer(t, 1)
	alice := dialAs(t, server, jwtService, &models.User{ID: 1, UserName: "alice"})

	require.NoError(t, alice.WriteMessage(websocket.TextMessage, []byte(`{"type":"selfDestruct","payload":{}}`)))

	ev := waitForEvent(t, alice, EventError)
	var p ErrorPayload
	require.NoError(t, json.Unmarshal(ev.Payload, &p))
	assert.Contains(t, p.Message, "Unknown event type")
}

func TestGatewayRejectsMalformedFrame(t *testing.T) {
	server, jwtService, _ := newTestServer(t, 1)
	alice := dialAs(t, server, jwtService, &models.User{ID: 1, UserName: "alice"})

	require.NoError(t, alice.WriteMessage(websocket.TextMessage, []byte("not json")))

	ev := waitForEvent(t, alice, EventError)
	var p ErrorPayload
	require.NoError(t, json.Unmarshal(ev.Payload, &p))
	assert.Equal(t, "Malformed event", p.Message)
}
