package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskpilot/internal/agent"
	"taskpilot/internal/tool"
)

// stubAgent returns a fixed result for every message.
type stubAgent struct {
	result *agent.Result
}

func (a *stubAgent) ProcessMessage(_ context.Context, _ string) *agent.Result {
	return a.result
}

func newWSServer(t *testing.T, chatAgent ChatAgent) (*httptest.Server, *Manager) {
	t.Helper()
	manager := NewManager()
	srv := httptest.NewServer(NewHandler(manager, chatAgent, []string{"*"}))
	t.Cleanup(srv.Close)
	return srv, manager
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) *Envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var env Envelope
	require.NoError(t, conn.ReadJSON(&env))
	return &env
}

func sendJSON(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(v))
}

func TestChatMessageFlow(t *testing.T) {
	id := int64(1)
	chatAgent := &stubAgent{result: &agent.Result{
		Success:  true,
		Response: "Created the task.",
		ToolResults: map[string]*tool.Outcome{
			"call_1": {Success: true, Message: "Task 'Buy milk' created successfully", TaskID: &id},
		},
		Timestamp: time.Now().UTC(),
	}}
	srv, _ := newWSServer(t, chatAgent)

	sender := dial(t, srv)
	other := dial(t, srv)
	// Make sure both registrations land before the chat turn.
	sendJSON(t, other, map[string]any{"type": "ping"})
	require.Equal(t, "pong", readEnvelope(t, other).Type)

	sendJSON(t, sender, map[string]any{
		"type": "chat_message",
		"data": map[string]any{"message": "create a task called Buy milk"},
	})

	env := readEnvelope(t, sender)
	assert.Equal(t, "typing_indicator", env.Type)

	env = readEnvelope(t, sender)
	require.Equal(t, "agent_response", env.Type)
	data, ok := env.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "create a task called Buy milk", data["user_message"])
	assert.Equal(t, "Created the task.", data["agent_response"])
	assert.Equal(t, true, data["success"])
	assert.NotEmpty(t, data["tool_results"])
	assert.False(t, env.Timestamp.IsZero())

	// The other client only sees the broadcast, not the direct replies.
	env = readEnvelope(t, other)
	assert.Equal(t, "task_list_update", env.Type)
}

func TestFailedToolStillBroadcasts(t *testing.T) {
	chatAgent := &stubAgent{result: &agent.Result{
		Success:  true,
		Response: "I could not find that task.",
		ToolResults: map[string]*tool.Outcome{
			"call_1": {Success: false, Message: "Task 'groceries' not found"},
		},
		Timestamp: time.Now().UTC(),
	}}
	srv, _ := newWSServer(t, chatAgent)

	sender := dial(t, srv)
	other := dial(t, srv)
	sendJSON(t, other, map[string]any{"type": "ping"})
	require.Equal(t, "pong", readEnvelope(t, other).Type)

	sendJSON(t, sender, map[string]any{
		"type": "chat_message",
		"data": map[string]any{"message": "delete the groceries task"},
	})

	require.Equal(t, "typing_indicator", readEnvelope(t, sender).Type)
	require.Equal(t, "agent_response", readEnvelope(t, sender).Type)

	// A tool ran, so the broadcast fires even though it failed.
	assert.Equal(t, "task_list_update", readEnvelope(t, other).Type)
}

func TestNoToolRunsNoBroadcast(t *testing.T) {
	chatAgent := &stubAgent{result: &agent.Result{
		Success:     true,
		Response:    "Hello!",
		ToolResults: map[string]*tool.Outcome{},
		Timestamp:   time.Now().UTC(),
	}}
	srv, _ := newWSServer(t, chatAgent)

	sender := dial(t, srv)
	other := dial(t, srv)
	sendJSON(t, other, map[string]any{"type": "ping"})
	require.Equal(t, "pong", readEnvelope(t, other).Type)

	sendJSON(t, sender, map[string]any{
		"type": "chat_message",
		"data": map[string]any{"message": "hello"},
	})

	require.Equal(t, "typing_indicator", readEnvelope(t, sender).Type)
	require.Equal(t, "agent_response", readEnvelope(t, sender).Type)

	require.NoError(t, other.SetReadDeadline(time.Now().Add(300*time.Millisecond)))
	var env Envelope
	err := other.ReadJSON(&env)
	assert.Error(t, err, "expected no broadcast, got %+v", env)
}

func TestPingPong(t *testing.T) {
	srv, _ := newWSServer(t, &stubAgent{result: &agent.Result{}})

	conn := dial(t, srv)
	sendJSON(t, conn, map[string]any{"type": "ping"})

	env := readEnvelope(t, conn)
	assert.Equal(t, "pong", env.Type)
	data, ok := env.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ok", data["status"])
}

func TestInvalidJSON(t *testing.T) {
	srv, _ := newWSServer(t, &stubAgent{result: &agent.Result{}})

	conn := dial(t, srv)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))

	env := readEnvelope(t, conn)
	require.Equal(t, "error", env.Type)
	data, ok := env.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Invalid JSON format", data["message"])
}

func TestEmptyChatMessageIgnored(t *testing.T) {
	srv, _ := newWSServer(t, &stubAgent{result: &agent.Result{Response: "should not appear"}})

	conn := dial(t, srv)
	sendJSON(t, conn, map[string]any{
		"type": "chat_message",
		"data": map[string]any{"message": "   "},
	})
	sendJSON(t, conn, map[string]any{"type": "ping"})

	// The ping reply comes straight back: the blank message produced nothing.
	env := readEnvelope(t, conn)
	assert.Equal(t, "pong", env.Type)
}

func TestDisconnectRemovesConnection(t *testing.T) {
	srv, manager := newWSServer(t, &stubAgent{result: &agent.Result{}})

	conn := dial(t, srv)
	sendJSON(t, conn, map[string]any{"type": "ping"})
	readEnvelope(t, conn)
	require.Equal(t, 1, manager.Count())

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool {
		return manager.Count() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestEnvelopeShape(t *testing.T) {
	env := NewEnvelope("typing_indicator", map[string]bool{"typing": true})
	b, err := json.Marshal(env)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Equal(t, "typing_indicator", decoded["type"])
	assert.Contains(t, decoded, "data")
	assert.Contains(t, decoded, "timestamp")
}
