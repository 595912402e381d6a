// Package tool implements the closed set of task commands the model may
// invoke. Tools never return Go errors to the caller: every failure mode is
// folded into the Outcome so the dispatch loop can always hand the model a
// well-formed result.
package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/sourcegraph/conc/panics"

	"taskpilot/internal/llm"
	"taskpilot/internal/task"
)

// Outcome is the envelope every tool returns. TaskID and Task are set by the
// single-task tools; Count and Tasks by the listing tools.
type Outcome struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	TaskID  *int64       `json:"task_id,omitempty"`
	Task    *task.Task   `json:"task,omitempty"`
	Count   *int         `json:"count,omitempty"`
	Tasks   []*task.Task `json:"tasks,omitempty"`
}

func failure(msg string) *Outcome {
	return &Outcome{Success: false, Message: msg}
}

// JSON renders the outcome for the model. Marshal failures degrade to a
// minimal failure payload rather than propagating.
func (o *Outcome) JSON() string {
	b, err := json.Marshal(o)
	if err != nil {
		return `{"success":false,"message":"failed to encode tool result"}`
	}
	return string(b)
}

type Tool interface {
	Name() string
	Definition() llm.ToolDef
	Invoke(ctx context.Context, args json.RawMessage) *Outcome
}

// Registry holds the fixed tool set. The set is built once at startup; there
// is no runtime registration.
type Registry struct {
	tools map[string]Tool
	order []string
}

func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{tools: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		name := t.Name()
		if name == "" {
			return nil, fmt.Errorf("tool with empty name")
		}
		if _, exists := r.tools[name]; exists {
			return nil, fmt.Errorf("duplicate tool name %q", name)
		}
		r.tools[name] = t
		r.order = append(r.order, name)
	}
	return r, nil
}

// NewTaskRegistry builds the standard five-tool set over the given repository.
func NewTaskRegistry(repo task.Repository, publisher Publisher) (*Registry, error) {
	return NewRegistry(
		&createTool{repo: repo, publisher: publisher},
		&updateTool{repo: repo, publisher: publisher},
		&deleteTool{repo: repo, publisher: publisher},
		&listTool{repo: repo},
		&filterTool{repo: repo},
	)
}

func (r *Registry) Definitions() []llm.ToolDef {
	defs := make([]llm.ToolDef, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.tools[name].Definition())
	}
	return defs
}

// Invoke runs the named tool, converting unknown names, panics, and other
// escapes into failed outcomes.
func (r *Registry) Invoke(ctx context.Context, call llm.ToolCall) *Outcome {
	t, ok := r.tools[call.Name]
	if !ok {
		return failure(fmt.Sprintf("Unknown tool: %s", call.Name))
	}

	var (
		catcher panics.Catcher
		outcome *Outcome
	)
	catcher.Try(func() {
		outcome = t.Invoke(ctx, call.Arguments)
	})
	if recovered := catcher.Recovered(); recovered != nil {
		slog.Error("tool panicked", "tool", call.Name, "panic", recovered.String())
		return failure(fmt.Sprintf("Error executing %s", call.Name))
	}
	if outcome == nil {
		return failure(fmt.Sprintf("Error executing %s", call.Name))
	}
	return outcome
}
