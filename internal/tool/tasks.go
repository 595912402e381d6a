package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"taskpilot/internal/eventbus"
	"taskpilot/internal/llm"
	"taskpilot/internal/task"
)

// Publisher receives task lifecycle events from the mutating tools.
type Publisher interface {
	PublishNew(eventType eventbus.Type, taskID int64, taskTitle string)
}

// resolveIdentifier finds a task by numeric id, or failing that by
// case-insensitive title substring preferring the newest match.
func resolveIdentifier(ctx context.Context, repo task.Repository, identifier string) (*task.Task, error) {
	if id, err := strconv.ParseInt(identifier, 10, 64); err == nil {
		return repo.Get(ctx, id)
	}
	return repo.FindByTitle(ctx, identifier)
}

func enumDescription(kind string, values ...string) string {
	return fmt.Sprintf("%s - one of: %s", kind, strings.Join(values, ", "))
}

var (
	statusValues   = []string{"pending", "in_progress", "done", "cancelled"}
	priorityValues = []string{"low", "medium", "high", "urgent"}
)

type createTool struct {
	repo      task.Repository
	publisher Publisher
}

type createArgs struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	DueDate     string `json:"due_date"`
}

func (t *createTool) Name() string { return "create_task" }

func (t *createTool) Definition() llm.ToolDef {
	return llm.ToolDef{
		Name:        "create_task",
		Description: "Create a new task with the given parameters.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"title": map[string]any{
					"type":        "string",
					"description": "The title/name of the task",
				},
				"description": map[string]any{
					"type":        "string",
					"description": "Detailed description of the task",
				},
				"priority": map[string]any{
					"type":        "string",
					"description": enumDescription("Task priority", priorityValues...),
				},
				"due_date": map[string]any{
					"type":        "string",
					"description": "Due date in ISO format YYYY-MM-DD or natural language like 'tomorrow', 'next week'",
				},
			},
			"required": []string{"title"},
		},
	}
}

func (t *createTool) Invoke(ctx context.Context, raw json.RawMessage) *Outcome {
	var args createArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return failure(fmt.Sprintf("Error creating task: %s", err))
	}
	if args.Title == "" {
		return failure("Error creating task: title is required")
	}

	// Unknown priorities silently fall back to medium.
	priority, ok := task.ParsePriority(args.Priority)
	if !ok {
		priority = task.PriorityMedium
	}

	newTask := &task.Task{
		Title:       args.Title,
		Description: args.Description,
		Status:      task.StatusPending,
		Priority:    priority,
	}
	if args.DueDate != "" {
		newTask.DueDate = task.NormalizeDueDate(args.DueDate, time.Now().UTC())
	}

	if err := t.repo.Create(ctx, newTask); err != nil {
		return failure(fmt.Sprintf("Error creating task: %s", err))
	}
	if t.publisher != nil {
		t.publisher.PublishNew(eventbus.TypeTaskCreated, newTask.ID, newTask.Title)
	}

	return &Outcome{
		Success: true,
		Message: fmt.Sprintf("Task '%s' created successfully", newTask.Title),
		TaskID:  &newTask.ID,
		Task:    newTask,
	}
}

type updateTool struct {
	repo      task.Repository
	publisher Publisher
}

type updateArgs struct {
	TaskIdentifier string  `json:"task_identifier"`
	Title          string  `json:"title"`
	Description    *string `json:"description"`
	Status         string  `json:"status"`
	Priority       string  `json:"priority"`
	DueDate        string  `json:"due_date"`
}

func (t *updateTool) Name() string { return "update_task" }

func (t *updateTool) Definition() llm.ToolDef {
	return llm.ToolDef{
		Name:        "update_task",
		Description: "Update an existing task. Can identify task by ID or title.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"task_identifier": map[string]any{
					"type":        "string",
					"description": "Task ID (number) or task title (string) to identify which task to update",
				},
				"title": map[string]any{
					"type":        "string",
					"description": "New title for the task",
				},
				"description": map[string]any{
					"type":        "string",
					"description": "New description for the task",
				},
				"status": map[string]any{
					"type":        "string",
					"description": enumDescription("New status", statusValues...),
				},
				"priority": map[string]any{
					"type":        "string",
					"description": enumDescription("New priority", priorityValues...),
				},
				"due_date": map[string]any{
					"type":        "string",
					"description": "New due date in ISO format or natural language",
				},
			},
			"required": []string{"task_identifier"},
		},
	}
}

func (t *updateTool) Invoke(ctx context.Context, raw json.RawMessage) *Outcome {
	var args updateArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return failure(fmt.Sprintf("Error updating task: %s", err))
	}

	found, err := resolveIdentifier(ctx, t.repo, args.TaskIdentifier)
	if err != nil {
		return failure(fmt.Sprintf("Task '%s' not found", args.TaskIdentifier))
	}

	if args.Title != "" {
		found.Title = args.Title
	}
	if args.Description != nil {
		found.Description = *args.Description
	}
	// Unknown enum values are ignored rather than rejected.
	if status, ok := task.ParseStatus(args.Status); ok {
		found.Status = status
	}
	if priority, ok := task.ParsePriority(args.Priority); ok {
		found.Priority = priority
	}
	if args.DueDate != "" {
		found.DueDate = task.NormalizeDueDate(args.DueDate, time.Now().UTC())
	}

	if err := t.repo.Update(ctx, found); err != nil {
		return failure(fmt.Sprintf("Error updating task: %s", err))
	}
	if t.publisher != nil {
		t.publisher.PublishNew(eventbus.TypeTaskUpdated, found.ID, found.Title)
	}

	return &Outcome{
		Success: true,
		Message: fmt.Sprintf("Task '%s' updated successfully", found.Title),
		TaskID:  &found.ID,
		Task:    found,
	}
}

type deleteTool struct {
	repo      task.Repository
	publisher Publisher
}

type deleteArgs struct {
	TaskIdentifier string `json:"task_identifier"`
}

func (t *deleteTool) Name() string { return "delete_task" }

func (t *deleteTool) Definition() llm.ToolDef {
	return llm.ToolDef{
		Name:        "delete_task",
		Description: "Delete a task by ID or title.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"task_identifier": map[string]any{
					"type":        "string",
					"description": "Task ID (number) or task title (string) to identify which task to delete",
				},
			},
			"required": []string{"task_identifier"},
		},
	}
}

func (t *deleteTool) Invoke(ctx context.Context, raw json.RawMessage) *Outcome {
	var args deleteArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return failure(fmt.Sprintf("Error deleting task: %s", err))
	}

	found, err := resolveIdentifier(ctx, t.repo, args.TaskIdentifier)
	if err != nil {
		return failure(fmt.Sprintf("Task '%s' not found", args.TaskIdentifier))
	}
	if err := t.repo.Delete(ctx, found.ID); err != nil {
		return failure(fmt.Sprintf("Error deleting task: %s", err))
	}
	if t.publisher != nil {
		t.publisher.PublishNew(eventbus.TypeTaskDeleted, found.ID, found.Title)
	}

	return &Outcome{
		Success: true,
		Message: fmt.Sprintf("Task '%s' deleted successfully", found.Title),
		TaskID:  &found.ID,
	}
}

type listTool struct {
	repo task.Repository
}

type listArgs struct {
	StatusFilter   string `json:"status_filter"`
	PriorityFilter string `json:"priority_filter"`
	Limit          int    `json:"limit"`
}

func (t *listTool) Name() string { return "list_tasks" }

func (t *listTool) Definition() llm.ToolDef {
	return llm.ToolDef{
		Name:        "list_tasks",
		Description: "List all tasks with optional filtering.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"status_filter": map[string]any{
					"type":        "string",
					"description": enumDescription("Filter by status", statusValues...),
				},
				"priority_filter": map[string]any{
					"type":        "string",
					"description": enumDescription("Filter by priority", priorityValues...),
				},
				"limit": map[string]any{
					"type":        "integer",
					"description": "Maximum number of tasks to return (default: 20)",
				},
			},
		},
	}
}

func (t *listTool) Invoke(ctx context.Context, raw json.RawMessage) *Outcome {
	args := listArgs{Limit: 20}
	if err := json.Unmarshal(raw, &args); err != nil {
		return failure(fmt.Sprintf("Error retrieving tasks: %s", err))
	}

	f := task.Filter{Limit: args.Limit}
	if status, ok := task.ParseStatus(args.StatusFilter); ok {
		f.Status = status
	}
	if priority, ok := task.ParsePriority(args.PriorityFilter); ok {
		f.Priority = priority
	}

	tasks, err := t.repo.List(ctx, f)
	if err != nil {
		return failure(fmt.Sprintf("Error retrieving tasks: %s", err))
	}
	if tasks == nil {
		tasks = []*task.Task{}
	}

	count := len(tasks)
	return &Outcome{
		Success: true,
		Message: fmt.Sprintf("Retrieved %d tasks", count),
		Count:   &count,
		Tasks:   tasks,
	}
}

type filterTool struct {
	repo task.Repository
}

type filterArgs struct {
	SearchText string `json:"search_text"`
	Status     string `json:"status"`
	Priority   string `json:"priority"`
	Overdue    *bool  `json:"overdue"`
}

func (t *filterTool) Name() string { return "filter_tasks" }

func (t *filterTool) Definition() llm.ToolDef {
	return llm.ToolDef{
		Name:        "filter_tasks",
		Description: "Filter tasks based on various criteria including text search.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"search_text": map[string]any{
					"type":        "string",
					"description": "Search in task title and description",
				},
				"status": map[string]any{
					"type":        "string",
					"description": enumDescription("Filter by status", statusValues...),
				},
				"priority": map[string]any{
					"type":        "string",
					"description": enumDescription("Filter by priority", priorityValues...),
				},
				"overdue": map[string]any{
					"type":        "boolean",
					"description": "Filter overdue tasks (true) or not overdue (false)",
				},
			},
		},
	}
}

func (t *filterTool) Invoke(ctx context.Context, raw json.RawMessage) *Outcome {
	var args filterArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return failure(fmt.Sprintf("Error filtering tasks: %s", err))
	}

	f := task.Filter{
		Search:  args.SearchText,
		Overdue: args.Overdue,
	}
	if status, ok := task.ParseStatus(args.Status); ok {
		f.Status = status
	}
	if priority, ok := task.ParsePriority(args.Priority); ok {
		f.Priority = priority
	}

	tasks, err := t.repo.List(ctx, f)
	if err != nil {
		return failure(fmt.Sprintf("Error filtering tasks: %s", err))
	}
	if tasks == nil {
		tasks = []*task.Task{}
	}

	count := len(tasks)
	return &Outcome{
		Success: true,
		Message: fmt.Sprintf("Found %d tasks matching criteria", count),
		Count:   &count,
		Tasks:   tasks,
	}
}
