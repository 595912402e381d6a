package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskpilot/internal/eventbus"
	"taskpilot/internal/llm"
	"taskpilot/internal/task/repositoryimpl"
	"taskpilot/internal/tool"
)

// scriptedClient returns canned replies in order and records the message
// history it was handed.
type scriptedClient struct {
	replies []*llm.Reply
	errs    []error
	calls   [][]llm.Message
}

func (c *scriptedClient) Complete(_ context.Context, messages []llm.Message, _ []llm.ToolDef) (*llm.Reply, error) {
	idx := len(c.calls)
	c.calls = append(c.calls, messages)
	if idx < len(c.errs) && c.errs[idx] != nil {
		return nil, c.errs[idx]
	}
	if idx >= len(c.replies) {
		return nil, errors.New("unexpected completion call")
	}
	return c.replies[idx], nil
}

func newTestAgent(t *testing.T, client llm.Client) *Agent {
	t.Helper()
	repo, err := repositoryimpl.NewSQLiteRepository(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	registry, err := tool.NewTaskRegistry(repo, eventbus.New())
	require.NoError(t, err)
	return New(client, registry)
}

func TestProcessMessageWithToolCalls(t *testing.T) {
	client := &scriptedClient{
		replies: []*llm.Reply{
			{
				ToolCalls: []llm.ToolCall{
					{ID: "call_1", Name: "create_task", Arguments: []byte(`{"title":"Buy milk","priority":"high"}`)},
					{ID: "call_2", Name: "list_tasks", Arguments: []byte(`{}`)},
				},
			},
			{Text: "I created 'Buy milk' and here are your tasks."},
		},
	}
	a := newTestAgent(t, client)

	result := a.ProcessMessage(context.Background(), "add buy milk, high priority, then show my tasks")
	require.True(t, result.Success)
	assert.Equal(t, "I created 'Buy milk' and here are your tasks.", result.Response)
	require.Len(t, result.ToolResults, 2)
	assert.True(t, result.ToolResults["call_1"].Success)
	assert.True(t, result.ToolResults["call_2"].Success)
	assert.False(t, result.Timestamp.IsZero())

	// The summarize call sees the tool results in the history.
	require.Len(t, client.calls, 2)
	second := client.calls[1]
	var toolMsgs int
	for _, m := range second {
		if _, ok := m.(llm.ToolResultMessage); ok {
			toolMsgs++
		}
	}
	assert.Equal(t, 2, toolMsgs)
}

func TestProcessMessageWithoutToolCalls(t *testing.T) {
	client := &scriptedClient{
		replies: []*llm.Reply{
			{Text: "Sure, what would you like to do?"},
			{Text: "Hello! I can help you manage tasks."},
		},
	}
	a := newTestAgent(t, client)

	result := a.ProcessMessage(context.Background(), "hello")
	require.True(t, result.Success)
	assert.Equal(t, "Hello! I can help you manage tasks.", result.Response)
	assert.Empty(t, result.ToolResults)
}

func TestProcessMessageFailedToolStillSummarizes(t *testing.T) {
	client := &scriptedClient{
		replies: []*llm.Reply{
			{
				ToolCalls: []llm.ToolCall{
					{ID: "call_1", Name: "delete_task", Arguments: []byte(`{"task_identifier":"nonexistent"}`)},
				},
			},
			{Text: "I could not find that task."},
		},
	}
	a := newTestAgent(t, client)

	result := a.ProcessMessage(context.Background(), "delete the nonexistent task")
	require.True(t, result.Success)
	require.Len(t, result.ToolResults, 1)
	assert.False(t, result.ToolResults["call_1"].Success)
}

func TestProcessMessageInterpretErrorApologizes(t *testing.T) {
	client := &scriptedClient{
		errs: []error{errors.New("model unavailable")},
	}
	a := newTestAgent(t, client)

	result := a.ProcessMessage(context.Background(), "add a task")
	assert.False(t, result.Success)
	assert.Contains(t, result.Response, "I apologize, but I encountered an error")
	assert.Contains(t, result.Response, "model unavailable")
	assert.Empty(t, result.ToolResults)

	// No retry: a failed interpret makes exactly one model call.
	assert.Len(t, client.calls, 1)
}

func TestProcessMessageSummarizeErrorApologizes(t *testing.T) {
	client := &scriptedClient{
		replies: []*llm.Reply{
			{ToolCalls: []llm.ToolCall{{ID: "call_1", Name: "list_tasks", Arguments: []byte(`{}`)}}},
			nil,
		},
		errs: []error{nil, errors.New("timeout")},
	}
	a := newTestAgent(t, client)

	result := a.ProcessMessage(context.Background(), "show tasks")
	assert.False(t, result.Success)
	assert.Contains(t, result.Response, "I apologize")
	assert.Empty(t, result.ToolResults)
}
