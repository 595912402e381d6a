// Package agent runs the interpret / execute / summarize loop that turns a
// chat message into tool invocations and a conversational reply.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sourcegraph/conc"

	"taskpilot/internal/llm"
	"taskpilot/internal/tool"
)

// Result is what a single chat turn produces. ToolResults is keyed by the
// model's tool call ID; a non-empty map signals that tasks may have changed.
type Result struct {
	Success     bool                     `json:"success"`
	Response    string                   `json:"response"`
	ToolResults map[string]*tool.Outcome `json:"tool_results"`
	Timestamp   time.Time                `json:"timestamp"`
}

type Agent struct {
	client   llm.Client
	registry *tool.Registry
}

func New(client llm.Client, registry *tool.Registry) *Agent {
	return &Agent{
		client:   client,
		registry: registry,
	}
}

// ProcessMessage handles one user message end to end. It never returns an
// error: any failure that escapes the interpret or summarize steps collapses
// into an apologetic Result, and there are no retries.
func (a *Agent) ProcessMessage(ctx context.Context, userInput string) *Result {
	result, err := a.run(ctx, userInput)
	if err != nil {
		slog.Error("agent turn failed", "error", err)
		return &Result{
			Success:     false,
			Response:    fmt.Sprintf("I apologize, but I encountered an error: %s. Please try rephrasing your request.", err),
			ToolResults: map[string]*tool.Outcome{},
			Timestamp:   time.Now().UTC(),
		}
	}
	return result
}

func (a *Agent) run(ctx context.Context, userInput string) (*Result, error) {
	messages := []llm.Message{
		llm.SystemMessage{Text: systemPrompt},
		llm.UserMessage{Text: userInput},
	}

	// Interpret: let the model pick tools for the request.
	reply, err := a.client.Complete(ctx, messages, a.registry.Definitions())
	if err != nil {
		return nil, err
	}
	messages = append(messages, llm.AssistantMessage{Text: reply.Text, ToolCalls: reply.ToolCalls})

	// Execute: all requested tools run concurrently. Tools fold their own
	// failures into outcomes, so this phase cannot fail the turn.
	toolResults := make(map[string]*tool.Outcome, len(reply.ToolCalls))
	if len(reply.ToolCalls) > 0 {
		outcomes := make([]*tool.Outcome, len(reply.ToolCalls))
		var wg conc.WaitGroup
		for i, call := range reply.ToolCalls {
			wg.Go(func() {
				outcomes[i] = a.registry.Invoke(ctx, call)
			})
		}
		wg.Wait()

		for i, call := range reply.ToolCalls {
			toolResults[call.ID] = outcomes[i]
			messages = append(messages, llm.ToolResultMessage{
				ToolCallID: call.ID,
				Content:    outcomes[i].JSON(),
			})
		}
	}

	// Summarize: a second completion without tools produces the final reply.
	messages = append(messages, llm.SystemMessage{Text: summarizePrompt})
	final, err := a.client.Complete(ctx, messages, nil)
	if err != nil {
		return nil, err
	}

	return &Result{
		Success:     true,
		Response:    final.Text,
		ToolResults: toolResults,
		Timestamp:   time.Now().UTC(),
	}, nil
}
