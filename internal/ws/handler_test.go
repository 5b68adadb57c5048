// ABOUTME: Integration tests for the websocket transport
// ABOUTME: Real dialer against httptest; covers handshake auth and event round trips

package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewbase/chat-gateway/internal/auth"
	"github.com/crewbase/chat-gateway/internal/chat"
	"github.com/crewbase/chat-gateway/internal/permission"
	"github.com/crewbase/chat-gateway/internal/room"
	"github.com/crewbase/chat-gateway/internal/store"
)

type wsEnv struct {
	server   *httptest.Server
	verifier *auth.JWTVerifier
	store    *store.SQLiteStore
}

func newWSEnv(t *testing.T) *wsEnv {
	return newWSEnvOrigins(t, nil)
}

func newWSEnvOrigins(t *testing.T, allowedOrigins []string) *wsEnv {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	ctx := context.Background()
	require.NoError(t, s.UpsertEmployee(ctx, &store.Employee{
		ID: "boss-1", Name: "Bea", Email: "bea@example.com", Role: permission.RoleBoss,
	}))
	require.NoError(t, s.UpsertEmployee(ctx, &store.Employee{
		ID: "emp-a", Name: "Ana", Email: "ana@example.com", Role: permission.RoleEmployee,
	}))

	registry := room.NewRegistry(nil)
	events := chat.NewEvents(nil)
	t.Cleanup(events.Close)
	svc := chat.NewService(s, s, registry, chat.NewBroadcaster(registry, nil), events, permission.NewEvaluator(true), nil)

	verifier, err := auth.NewJWTVerifier([]byte("test-secret"))
	require.NoError(t, err)

	server := httptest.NewServer(NewHandler(svc, verifier, allowedOrigins, nil))
	t.Cleanup(server.Close)

	return &wsEnv{server: server, verifier: verifier, store: s}
}

// dial opens an authenticated websocket for the given employee.
func (e *wsEnv) dial(t *testing.T, employeeID string) *websocket.Conn {
	t.Helper()

	token, err := e.verifier.Generate(employeeID, time.Hour)
	require.NoError(t, err)

	url := "ws" + strings.TrimPrefix(e.server.URL, "http") + "?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func emit(t *testing.T, conn *websocket.Conn, event string, payload any) {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(Envelope{Event: event, Data: data}))
}

func read(t *testing.T, conn *websocket.Conn) Envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var env Envelope
	require.NoError(t, conn.ReadJSON(&env))
	return env
}

func TestHandshake_RejectsMissingToken(t *testing.T) {
	env := newWSEnv(t)

	url := "ws" + strings.TrimPrefix(env.server.URL, "http")
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHandshake_RejectsInvalidToken(t *testing.T) {
	env := newWSEnv(t)

	url := "ws" + strings.TrimPrefix(env.server.URL, "http") + "?token=garbage"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHandshake_OriginPolicy(t *testing.T) {
	env := newWSEnv(t)

	token, err := env.verifier.Generate("emp-a", time.Hour)
	require.NoError(t, err)
	url := "ws" + strings.TrimPrefix(env.server.URL, "http") + "?token=" + token
	host := strings.TrimPrefix(env.server.URL, "http://")

	// Cross-origin browsers are refused under the same-origin default.
	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"http://evil.example.com"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// A same-origin browser gets through.
	conn, _, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"http://" + host}})
	require.NoError(t, err)
	_ = conn.Close()
}

func TestHandshake_AllowedOriginsList(t *testing.T) {
	env := newWSEnvOrigins(t, []string{"https://app.example.com"})

	token, err := env.verifier.Generate("emp-a", time.Hour)
	require.NoError(t, err)
	url := "ws" + strings.TrimPrefix(env.server.URL, "http") + "?token=" + token

	conn, _, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"https://app.example.com/"}})
	require.NoError(t, err)
	_ = conn.Close()

	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"https://other.example.com"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestJoin_ReceivesSnapshot(t *testing.T) {
	env := newWSEnv(t)

	conn := env.dial(t, "emp-a")
	emit(t, conn, chat.EventJoinProject, JoinProjectPayload{ProjectID: "p1"})

	got := read(t, conn)
	assert.Equal(t, chat.EventProjectMessages, got.Event)

	var msgs []*store.ChatMessage
	require.NoError(t, json.Unmarshal(got.Data, &msgs))
	assert.Empty(t, msgs)
}

func TestSend_RoundTripAndIdentityHardening(t *testing.T) {
	env := newWSEnv(t)

	sender := env.dial(t, "emp-a")
	emit(t, sender, chat.EventJoinProject, JoinProjectPayload{ProjectID: "p1"})
	read(t, sender) // snapshot

	watcher := env.dial(t, "boss-1")
	emit(t, watcher, chat.EventJoinProject, JoinProjectPayload{ProjectID: "p1"})
	read(t, watcher) // snapshot

	// The client lies about its identity; the server must use the
	// handshake identity instead.
	emit(t, sender, chat.EventSendMessage, SendMessagePayload{
		ProjectID: "p1",
		UserID:    "boss-1",
		Role:      "BOSS",
		Message:   "hello",
	})

	for _, conn := range []*websocket.Conn{sender, watcher} {
		got := read(t, conn)
		require.Equal(t, chat.EventNewMessage, got.Event)

		var msg store.ChatMessage
		require.NoError(t, json.Unmarshal(got.Data, &msg))
		assert.Equal(t, "hello", msg.Message)
		assert.Equal(t, "emp-a", msg.SenderID, "forged payload identity must be ignored")
		assert.Equal(t, "Ana", msg.Sender.Name)
	}
}

func TestSend_WithoutJoinGetsError(t *testing.T) {
	env := newWSEnv(t)

	conn := env.dial(t, "emp-a")
	emit(t, conn, chat.EventSendMessage, SendMessagePayload{ProjectID: "p1", Message: "hi"})

	got := read(t, conn)
	require.Equal(t, chat.EventError, got.Event)

	var payload chat.ErrorPayload
	require.NoError(t, json.Unmarshal(got.Data, &payload))
	assert.Equal(t, chat.ErrNotJoined.Error(), payload.Message)
}

func TestPin_EmployeeGetsAuthorizationError(t *testing.T) {
	env := newWSEnv(t)

	boss := env.dial(t, "boss-1")
	emit(t, boss, chat.EventJoinProject, JoinProjectPayload{ProjectID: "p1"})
	read(t, boss)
	emit(t, boss, chat.EventSendMessage, SendMessagePayload{ProjectID: "p1", Message: "pin target"})

	created := read(t, boss)
	require.Equal(t, chat.EventNewMessage, created.Event)
	var msg store.ChatMessage
	require.NoError(t, json.Unmarshal(created.Data, &msg))

	emp := env.dial(t, "emp-a")
	emit(t, emp, chat.EventJoinProject, JoinProjectPayload{ProjectID: "p1"})
	read(t, emp)

	emit(t, emp, chat.EventPinMessage, MessageRefPayload{MessageID: msg.ID, ProjectID: "p1"})
	got := read(t, emp)
	require.Equal(t, chat.EventError, got.Event)

	var payload chat.ErrorPayload
	require.NoError(t, json.Unmarshal(got.Data, &payload))
	assert.Contains(t, payload.Message, "not authorized")
}

func TestTyping_RelayedToOthersOnly(t *testing.T) {
	env := newWSEnv(t)

	typer := env.dial(t, "emp-a")
	emit(t, typer, chat.EventJoinProject, JoinProjectPayload{ProjectID: "p1"})
	read(t, typer)

	watcher := env.dial(t, "boss-1")
	emit(t, watcher, chat.EventJoinProject, JoinProjectPayload{ProjectID: "p1"})
	read(t, watcher)

	emit(t, typer, chat.EventTyping, TypingPayload{ProjectID: "p1", UserName: "Ana", IsTyping: true})

	got := read(t, watcher)
	require.Equal(t, chat.EventUserTyping, got.Event)

	var payload chat.UserTyping
	require.NoError(t, json.Unmarshal(got.Data, &payload))
	assert.Equal(t, "Ana", payload.UserName)
	assert.True(t, payload.IsTyping)
}

func TestDispatch_MalformedEnvelope(t *testing.T) {
	env := newWSEnv(t)

	conn := env.dial(t, "emp-a")
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))

	got := read(t, conn)
	assert.Equal(t, chat.EventError, got.Event)
}

func TestDispatch_UnknownEvent(t *testing.T) {
	env := newWSEnv(t)

	conn := env.dial(t, "emp-a")
	emit(t, conn, "self-destruct", struct{}{})

	got := read(t, conn)
	assert.Equal(t, chat.EventError, got.Event)
}

func TestDisconnect_PurgesMembership(t *testing.T) {
	env := newWSEnv(t)

	// One member joins and drops; the survivor then posts - the broadcast
	// must reach only live members and the room keeps working.
	dropper := env.dial(t, "emp-a")
	emit(t, dropper, chat.EventJoinProject, JoinProjectPayload{ProjectID: "p1"})
	read(t, dropper)
	require.NoError(t, dropper.Close())

	survivor := env.dial(t, "boss-1")
	emit(t, survivor, chat.EventJoinProject, JoinProjectPayload{ProjectID: "p1"})
	read(t, survivor)

	emit(t, survivor, chat.EventSendMessage, SendMessagePayload{ProjectID: "p1", Message: "still here"})
	got := read(t, survivor)
	assert.Equal(t, chat.EventNewMessage, got.Event)
}
