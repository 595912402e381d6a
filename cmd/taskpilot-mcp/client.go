package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"taskpilot/internal/task"
)

// TaskPilotClient bridges MCP tool calls to the taskpilot REST API.
type TaskPilotClient struct {
	baseURL string
	http    *http.Client
}

func NewTaskPilotClient(cfg *Config) (*TaskPilotClient, error) {
	return &TaskPilotClient{
		baseURL: cfg.TaskPilotAddr,
		http:    &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (c *TaskPilotClient) Close() error {
	return nil
}

func (c *TaskPilotClient) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.baseURL + "/api/v1" + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Message != "" {
			return fmt.Errorf("%s (%s)", apiErr.Message, apiErr.Code)
		}
		return fmt.Errorf("server returned %s", resp.Status)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func textResult(v any) *mcp.CallToolResultFor[any] {
	jsonData, _ := json.MarshalIndent(v, "", "  ")
	return &mcp.CallToolResultFor[any]{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonData)},
		},
	}
}

func errorResult(format string, args ...any) *mcp.CallToolResultFor[any] {
	return &mcp.CallToolResultFor[any]{
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf(format, args...)},
		},
		IsError: true,
	}
}

func (c *TaskPilotClient) ListTasksHandler(ctx context.Context, _ *mcp.ServerSession, params *mcp.CallToolParamsFor[ListTasksInput]) (*mcp.CallToolResultFor[any], error) {
	req := params.Arguments
	q := url.Values{}
	if req.Status != "" {
		q.Set("status", req.Status)
	}
	if req.Priority != "" {
		q.Set("priority", req.Priority)
	}
	if req.Search != "" {
		q.Set("search", req.Search)
	}
	if req.Limit > 0 {
		q.Set("limit", strconv.Itoa(req.Limit))
	}

	var tasks []*task.Task
	if err := c.do(ctx, http.MethodGet, "/tasks", q, nil, &tasks); err != nil {
		return errorResult("Error listing tasks: %v", err), nil
	}
	return textResult(map[string]any{
		"tasks": tasks,
		"count": len(tasks),
	}), nil
}

func (c *TaskPilotClient) GetTaskHandler(ctx context.Context, _ *mcp.ServerSession, params *mcp.CallToolParamsFor[GetTaskInput]) (*mcp.CallToolResultFor[any], error) {
	var t task.Task
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/tasks/%d", params.Arguments.ID), nil, nil, &t); err != nil {
		return errorResult("Error getting task: %v", err), nil
	}
	return textResult(&t), nil
}

func (c *TaskPilotClient) CreateTaskHandler(ctx context.Context, _ *mcp.ServerSession, params *mcp.CallToolParamsFor[CreateTaskInput]) (*mcp.CallToolResultFor[any], error) {
	req := params.Arguments

	body := task.CreateTaskRequest{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
	}
	if req.DueDate != "" {
		due, err := time.Parse(time.RFC3339, req.DueDate)
		if err != nil {
			return errorResult("Error creating task: invalid dueDate %q", req.DueDate), nil
		}
		body.DueDate = &due
	}

	var created task.Task
	if err := c.do(ctx, http.MethodPost, "/tasks", nil, &body, &created); err != nil {
		return errorResult("Error creating task: %v", err), nil
	}
	return textResult(&created), nil
}

func (c *TaskPilotClient) UpdateTaskHandler(ctx context.Context, _ *mcp.ServerSession, params *mcp.CallToolParamsFor[UpdateTaskInput]) (*mcp.CallToolResultFor[any], error) {
	req := params.Arguments

	body := task.UpdateTaskRequest{}
	if req.Title != "" {
		body.Title = &req.Title
	}
	if req.Description != "" {
		body.Description = &req.Description
	}
	if req.Status != "" {
		body.Status = &req.Status
	}
	if req.Priority != "" {
		body.Priority = &req.Priority
	}
	if req.DueDate != "" {
		due, err := time.Parse(time.RFC3339, req.DueDate)
		if err != nil {
			return errorResult("Error updating task: invalid dueDate %q", req.DueDate), nil
		}
		body.DueDate = &due
	}

	var updated task.Task
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/tasks/%d", req.ID), nil, &body, &updated); err != nil {
		return errorResult("Error updating task: %v", err), nil
	}
	return textResult(&updated), nil
}

func (c *TaskPilotClient) DeleteTaskHandler(ctx context.Context, _ *mcp.ServerSession, params *mcp.CallToolParamsFor[DeleteTaskInput]) (*mcp.CallToolResultFor[any], error) {
	var resp map[string]string
	if err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/tasks/%d", params.Arguments.ID), nil, nil, &resp); err != nil {
		return errorResult("Error deleting task: %v", err), nil
	}
	return textResult(resp), nil
}

func (c *TaskPilotClient) StatsHandler(ctx context.Context, _ *mcp.ServerSession, _ *mcp.CallToolParamsFor[StatsInput]) (*mcp.CallToolResultFor[any], error) {
	var stats task.Stats
	if err := c.do(ctx, http.MethodGet, "/tasks/stats/summary", nil, nil, &stats); err != nil {
		return errorResult("Error getting stats: %v", err), nil
	}
	return textResult(&stats), nil
}
