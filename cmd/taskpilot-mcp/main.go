package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func main() {
	logger := slog.Default()
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := NewConfig()
	if err != nil {
		logger.ErrorContext(ctx, "failed to create config", "error", err)
		os.Exit(1)
	}

	client, err := NewTaskPilotClient(cfg)
	if err != nil {
		logger.ErrorContext(ctx, "failed to create TaskPilot client", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "mcp-taskpilot",
			Title:   "TaskPilot MCP Server",
			Version: "v1.0.0",
		},
		&mcp.ServerOptions{
			Instructions: "MCP server for TaskPilot task management. Use this to create, list, update, and delete tasks. Workflow: 1) Use taskpilot_list_tasks to browse existing tasks, 2) Use taskpilot_create_task to create new tasks, 3) Use taskpilot_update_task to change status, priority, or due dates, 4) Use taskpilot_get_stats for a summary of the task list.",
		},
	)

	mcp.AddTool(
		server,
		&mcp.Tool{
			Name:        "taskpilot_list_tasks",
			Title:       "TaskPilot: List Tasks",
			Description: "List tasks with optional filtering by status, priority, or search text.",
			InputSchema: ListTasksInputSchema,
		},
		client.ListTasksHandler,
	)

	mcp.AddTool(
		server,
		&mcp.Tool{
			Name:        "taskpilot_get_task",
			Title:       "TaskPilot: Get Task Details",
			Description: "Get detailed information about a specific task by ID.",
			InputSchema: GetTaskInputSchema,
		},
		client.GetTaskHandler,
	)

	mcp.AddTool(
		server,
		&mcp.Tool{
			Name:        "taskpilot_create_task",
			Title:       "TaskPilot: Create Task",
			Description: "Create a new task with title, description, priority, and optional due date.",
			InputSchema: CreateTaskInputSchema,
		},
		client.CreateTaskHandler,
	)

	mcp.AddTool(
		server,
		&mcp.Tool{
			Name:        "taskpilot_update_task",
			Title:       "TaskPilot: Update Task",
			Description: "Update an existing task's title, description, status, priority, or due date.",
			InputSchema: UpdateTaskInputSchema,
		},
		client.UpdateTaskHandler,
	)

	mcp.AddTool(
		server,
		&mcp.Tool{
			Name:        "taskpilot_delete_task",
			Title:       "TaskPilot: Delete Task",
			Description: "Delete a task by ID.",
			InputSchema: DeleteTaskInputSchema,
		},
		client.DeleteTaskHandler,
	)

	mcp.AddTool(
		server,
		&mcp.Tool{
			Name:        "taskpilot_get_stats",
			Title:       "TaskPilot: Task Statistics",
			Description: "Get a summary of tasks by status, priority, and overdue count.",
			InputSchema: StatsInputSchema,
		},
		client.StatsHandler,
	)

	if err := server.Run(ctx, mcp.NewStdioTransport()); err != nil {
		logger.ErrorContext(ctx, "failed to run server", "error", err)
		os.Exit(1)
	}
}
