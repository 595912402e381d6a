// Package llm abstracts the chat-completion provider behind a small
// tool-calling interface so the agent loop can be tested with a scripted
// client.
package llm

import (
	"context"
	"encoding/json"
)

// ToolDef describes a callable tool in JSON Schema terms.
type ToolDef struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// ToolCall is a single tool invocation requested by the model. Arguments is
// the raw JSON object produced by the model, decoded by the tool layer.
type ToolCall struct {
	ID        string
	Name      string
	Arguments json.RawMessage
}

// Message is a tagged union of conversation turns.
type Message interface {
	isMessage()
}

type SystemMessage struct {
	Text string
}

type UserMessage struct {
	Text string
}

// AssistantMessage is a model turn. When the model requested tools, ToolCalls
// is non-empty and Text may be empty.
type AssistantMessage struct {
	Text      string
	ToolCalls []ToolCall
}

// ToolResultMessage feeds a tool's outcome back to the model.
type ToolResultMessage struct {
	ToolCallID string
	Content    string
}

func (SystemMessage) isMessage()     {}
func (UserMessage) isMessage()       {}
func (AssistantMessage) isMessage()  {}
func (ToolResultMessage) isMessage() {}

// Reply is the model's next turn.
type Reply struct {
	Text      string
	ToolCalls []ToolCall
}

type Client interface {
	Complete(ctx context.Context, messages []Message, tools []ToolDef) (*Reply, error)
}
