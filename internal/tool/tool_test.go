package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskpilot/internal/eventbus"
	"taskpilot/internal/llm"
	"taskpilot/internal/task"
	"taskpilot/internal/task/repositoryimpl"
)

func newTestRegistry(t *testing.T) (*Registry, task.Repository, *eventbus.Bus) {
	t.Helper()
	repo, err := repositoryimpl.NewSQLiteRepository(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	bus := eventbus.New()
	reg, err := NewTaskRegistry(repo, bus)
	require.NoError(t, err)
	return reg, repo, bus
}

func invoke(t *testing.T, reg *Registry, name string, args map[string]any) *Outcome {
	t.Helper()
	raw, err := json.Marshal(args)
	require.NoError(t, err)
	return reg.Invoke(context.Background(), llm.ToolCall{ID: "call_1", Name: name, Arguments: raw})
}

func TestRegistryDefinitions(t *testing.T) {
	reg, _, _ := newTestRegistry(t)

	defs := reg.Definitions()
	require.Len(t, defs, 5)
	names := make([]string, 0, len(defs))
	for _, d := range defs {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"create_task", "update_task", "delete_task", "list_tasks", "filter_tasks"}, names)
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	repo, err := repositoryimpl.NewSQLiteRepository(t.TempDir())
	require.NoError(t, err)
	defer repo.Close()

	_, err = NewRegistry(&listTool{repo: repo}, &listTool{repo: repo})
	require.Error(t, err)
}

func TestRegistryUnknownTool(t *testing.T) {
	reg, _, _ := newTestRegistry(t)

	outcome := reg.Invoke(context.Background(), llm.ToolCall{Name: "drop_database", Arguments: []byte(`{}`)})
	assert.False(t, outcome.Success)
	assert.Contains(t, outcome.Message, "Unknown tool")
}

func TestCreateTask(t *testing.T) {
	reg, repo, bus := newTestRegistry(t)
	_, events := bus.Subscribe(4)

	outcome := invoke(t, reg, "create_task", map[string]any{
		"title":    "Buy milk",
		"priority": "high",
		"due_date": "tomorrow",
	})
	require.True(t, outcome.Success, outcome.Message)
	assert.Equal(t, "Task 'Buy milk' created successfully", outcome.Message)
	require.NotNil(t, outcome.TaskID)
	require.NotNil(t, outcome.Task)
	assert.Equal(t, task.PriorityHigh, outcome.Task.Priority)
	assert.Equal(t, task.StatusPending, outcome.Task.Status)

	require.NotNil(t, outcome.Task.DueDate)
	tomorrow := time.Now().UTC().AddDate(0, 0, 1)
	assert.Equal(t, tomorrow.Day(), outcome.Task.DueDate.Day())
	assert.Equal(t, 23, outcome.Task.DueDate.Hour())

	got, err := repo.Get(context.Background(), *outcome.TaskID)
	require.NoError(t, err)
	assert.Equal(t, "Buy milk", got.Title)

	ev := <-events
	assert.Equal(t, eventbus.TypeTaskCreated, ev.Type)
}

func TestCreateTaskCoercesBogusPriority(t *testing.T) {
	reg, _, _ := newTestRegistry(t)

	outcome := invoke(t, reg, "create_task", map[string]any{
		"title":    "x",
		"priority": "super-urgent",
	})
	require.True(t, outcome.Success)
	assert.Equal(t, task.PriorityMedium, outcome.Task.Priority)
}

func TestCreateTaskRequiresTitle(t *testing.T) {
	reg, _, _ := newTestRegistry(t)

	outcome := invoke(t, reg, "create_task", map[string]any{})
	assert.False(t, outcome.Success)
}

func TestUpdateTaskByNumericIdentifier(t *testing.T) {
	reg, _, _ := newTestRegistry(t)

	created := invoke(t, reg, "create_task", map[string]any{"title": "Plan sprint"})
	require.True(t, created.Success)

	outcome := invoke(t, reg, "update_task", map[string]any{
		"task_identifier": fmt.Sprintf("%d", *created.TaskID),
		"status":          "in_progress",
	})
	require.True(t, outcome.Success, outcome.Message)
	assert.Equal(t, task.StatusInProgress, outcome.Task.Status)
}

func TestUpdateTaskByTitleSubstring(t *testing.T) {
	reg, _, _ := newTestRegistry(t)

	invoke(t, reg, "create_task", map[string]any{"title": "Plan sprint review"})

	outcome := invoke(t, reg, "update_task", map[string]any{
		"task_identifier": "sprint",
		"priority":        "urgent",
	})
	require.True(t, outcome.Success, outcome.Message)
	assert.Equal(t, task.PriorityUrgent, outcome.Task.Priority)
	// Tool-level enum garbage is ignored, not an error.
	outcome = invoke(t, reg, "update_task", map[string]any{
		"task_identifier": "sprint",
		"status":          "doing",
	})
	require.True(t, outcome.Success)
	assert.Equal(t, task.StatusPending, outcome.Task.Status)
	assert.Equal(t, task.PriorityUrgent, outcome.Task.Priority)
}

func TestUpdateTaskNotFound(t *testing.T) {
	reg, _, _ := newTestRegistry(t)

	outcome := invoke(t, reg, "update_task", map[string]any{
		"task_identifier": "42",
		"title":           "x",
	})
	assert.False(t, outcome.Success)
	assert.Equal(t, "Task '42' not found", outcome.Message)
}

func TestDeleteTask(t *testing.T) {
	reg, repo, _ := newTestRegistry(t)

	created := invoke(t, reg, "create_task", map[string]any{"title": "Old chore"})
	outcome := invoke(t, reg, "delete_task", map[string]any{"task_identifier": "chore"})
	require.True(t, outcome.Success, outcome.Message)
	assert.Equal(t, "Task 'Old chore' deleted successfully", outcome.Message)
	assert.Nil(t, outcome.Task)

	_, err := repo.Get(context.Background(), *created.TaskID)
	require.Error(t, err)
}

func TestListTasks(t *testing.T) {
	reg, _, _ := newTestRegistry(t)

	for i := 0; i < 5; i++ {
		invoke(t, reg, "create_task", map[string]any{"title": fmt.Sprintf("task %d", i)})
	}
	invoke(t, reg, "update_task", map[string]any{"task_identifier": "task 0", "status": "done"})

	outcome := invoke(t, reg, "list_tasks", map[string]any{"limit": 3})
	require.True(t, outcome.Success)
	require.NotNil(t, outcome.Count)
	assert.Equal(t, 3, *outcome.Count)
	assert.Len(t, outcome.Tasks, 3)

	outcome = invoke(t, reg, "list_tasks", map[string]any{"status_filter": "done"})
	require.True(t, outcome.Success)
	assert.Equal(t, 1, *outcome.Count)

	// Bogus filter values are ignored, the full list comes back.
	outcome = invoke(t, reg, "list_tasks", map[string]any{"status_filter": "finished"})
	require.True(t, outcome.Success)
	assert.Equal(t, 5, *outcome.Count)
}

func TestFilterTasksOverdue(t *testing.T) {
	reg, repo, _ := newTestRegistry(t)
	ctx := context.Background()

	past := time.Now().UTC().Add(-24 * time.Hour)
	overdueTask := &task.Task{Title: "late", Status: task.StatusPending, Priority: task.PriorityMedium, DueDate: &past}
	require.NoError(t, repo.Create(ctx, overdueTask))
	doneTask := &task.Task{Title: "late but done", Status: task.StatusDone, Priority: task.PriorityMedium, DueDate: &past}
	require.NoError(t, repo.Create(ctx, doneTask))

	outcome := invoke(t, reg, "filter_tasks", map[string]any{"overdue": true})
	require.True(t, outcome.Success)
	require.Equal(t, 1, *outcome.Count)
	assert.Equal(t, "late", outcome.Tasks[0].Title)

	outcome = invoke(t, reg, "filter_tasks", map[string]any{"search_text": "LATE"})
	require.True(t, outcome.Success)
	assert.Equal(t, 2, *outcome.Count)
}

func TestInvokeBadArguments(t *testing.T) {
	reg, _, _ := newTestRegistry(t)

	outcome := reg.Invoke(context.Background(), llm.ToolCall{Name: "create_task", Arguments: []byte(`{not json`)})
	assert.False(t, outcome.Success)
}

func TestOutcomeJSON(t *testing.T) {
	id := int64(3)
	o := &Outcome{Success: true, Message: "ok", TaskID: &id}

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(o.JSON()), &decoded))
	assert.Equal(t, true, decoded["success"])
	assert.Equal(t, float64(3), decoded["task_id"])
	_, hasTasks := decoded["tasks"]
	assert.False(t, hasTasks)
}
