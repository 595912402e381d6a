package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"taskpilot/internal/agent"
)

// ChatAgent processes one user message into a conversational result.
type ChatAgent interface {
	ProcessMessage(ctx context.Context, userInput string) *agent.Result
}

type inboundMessage struct {
	Type string `json:"type"`
	Data struct {
		Message string `json:"message"`
	} `json:"data"`
}

// Handler upgrades /ws requests and runs the per-connection read loop. A chat
// turn is processed inline, so a connection handles one turn at a time while
// other connections proceed independently.
type Handler struct {
	manager  *Manager
	agent    ChatAgent
	upgrader websocket.Upgrader
}

func NewHandler(manager *Manager, chatAgent ChatAgent, allowedOrigins []string) *Handler {
	return &Handler{
		manager: manager,
		agent:   chatAgent,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || strings.EqualFold(a, origin) {
				return true
			}
		}
		return false
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "error", err)
		return
	}

	c := h.manager.Register(conn)
	defer h.manager.Unregister(c)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Error("websocket read failed", "connection_id", c.ID, "error", err)
			}
			return
		}
		h.handleMessage(r.Context(), c, data)
	}
}

func (h *Handler) handleMessage(ctx context.Context, c *Connection, data []byte) {
	var msg inboundMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		h.manager.Send(c, NewEnvelope("error", map[string]string{"message": "Invalid JSON format"}))
		return
	}

	// Untyped frames default to chat messages.
	msgType := msg.Type
	if msgType == "" {
		msgType = "chat_message"
	}

	switch msgType {
	case "chat_message":
		userMessage := strings.TrimSpace(msg.Data.Message)
		if userMessage == "" {
			return
		}
		h.processChat(ctx, c, userMessage)
	case "ping":
		h.manager.Send(c, NewEnvelope("pong", map[string]string{"status": "ok"}))
	default:
		// Unknown types are silently ignored.
	}
}

func (h *Handler) processChat(ctx context.Context, c *Connection, userMessage string) {
	h.manager.Send(c, NewEnvelope("typing_indicator", map[string]bool{"typing": true}))

	result := h.agent.ProcessMessage(ctx, userMessage)

	h.manager.Send(c, &Envelope{
		Type: "agent_response",
		Data: map[string]any{
			"user_message":   userMessage,
			"agent_response": result.Response,
			"success":        result.Success,
			"tool_results":   result.ToolResults,
		},
		Timestamp: result.Timestamp,
	})

	// Any tool run, successful or not, may have touched the task list, so
	// everyone else gets told to refresh.
	if len(result.ToolResults) > 0 {
		h.manager.Broadcast(NewEnvelope("task_list_update", map[string]string{"message": "Tasks have been updated"}), c.ID)
	}
}
