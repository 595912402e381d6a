package main

import (
	"github.com/modelcontextprotocol/go-sdk/jsonschema"
)

// Input types for MCP tools
type ListTasksInput struct {
	Status   string `json:"status,omitempty"`
	Priority string `json:"priority,omitempty"`
	Search   string `json:"search,omitempty"`
	Limit    int    `json:"limit,omitempty"`
}

type GetTaskInput struct {
	ID int64 `json:"id"`
}

type CreateTaskInput struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Priority    string `json:"priority,omitempty"`
	DueDate     string `json:"dueDate,omitempty"`
}

type UpdateTaskInput struct {
	ID          int64  `json:"id"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status,omitempty"`
	Priority    string `json:"priority,omitempty"`
	DueDate     string `json:"dueDate,omitempty"`
}

type DeleteTaskInput struct {
	ID int64 `json:"id"`
}

type StatsInput struct{}

var (
	statusEnum   = []interface{}{"pending", "in_progress", "done", "cancelled"}
	priorityEnum = []interface{}{"low", "medium", "high", "urgent"}
)

// JSON Schema definitions for MCP tools
var ListTasksInputSchema = &jsonschema.Schema{
	Type: "object",
	Properties: map[string]*jsonschema.Schema{
		"status": {
			Type:        "string",
			Description: "Filter tasks by status",
			Enum:        statusEnum,
		},
		"priority": {
			Type:        "string",
			Description: "Filter tasks by priority",
			Enum:        priorityEnum,
		},
		"search": {
			Type:        "string",
			Description: "Search text matched against title and description",
		},
		"limit": {
			Type:        "integer",
			Description: "Maximum number of tasks to return",
			Minimum:     float64Ptr(1),
			Maximum:     float64Ptr(100),
		},
	},
	AdditionalProperties: boolSchema(false),
}

var GetTaskInputSchema = &jsonschema.Schema{
	Type: "object",
	Properties: map[string]*jsonschema.Schema{
		"id": {
			Type:        "integer",
			Description: "Task ID to retrieve",
		},
	},
	Required:             []string{"id"},
	AdditionalProperties: boolSchema(false),
}

var CreateTaskInputSchema = &jsonschema.Schema{
	Type: "object",
	Properties: map[string]*jsonschema.Schema{
		"title": {
			Type:        "string",
			Description: "Task title",
		},
		"description": {
			Type:        "string",
			Description: "Detailed task description",
		},
		"priority": {
			Type:        "string",
			Description: "Task priority",
			Enum:        priorityEnum,
		},
		"dueDate": {
			Type:        "string",
			Description: "Due date in RFC3339 format",
		},
	},
	Required:             []string{"title"},
	AdditionalProperties: boolSchema(false),
}

var UpdateTaskInputSchema = &jsonschema.Schema{
	Type: "object",
	Properties: map[string]*jsonschema.Schema{
		"id": {
			Type:        "integer",
			Description: "Task ID to update",
		},
		"title": {
			Type:        "string",
			Description: "New task title",
		},
		"description": {
			Type:        "string",
			Description: "New task description",
		},
		"status": {
			Type:        "string",
			Description: "New task status",
			Enum:        statusEnum,
		},
		"priority": {
			Type:        "string",
			Description: "New task priority",
			Enum:        priorityEnum,
		},
		"dueDate": {
			Type:        "string",
			Description: "New due date in RFC3339 format",
		},
	},
	Required:             []string{"id"},
	AdditionalProperties: boolSchema(false),
}

var DeleteTaskInputSchema = &jsonschema.Schema{
	Type: "object",
	Properties: map[string]*jsonschema.Schema{
		"id": {
			Type:        "integer",
			Description: "Task ID to delete",
		},
	},
	Required:             []string{"id"},
	AdditionalProperties: boolSchema(false),
}

var StatsInputSchema = &jsonschema.Schema{
	Type:                 "object",
	Properties:           map[string]*jsonschema.Schema{},
	AdditionalProperties: boolSchema(false),
}

func float64Ptr(f float64) *float64 {
	return &f
}

func boolSchema(b bool) *jsonschema.Schema {
	if b {
		return &jsonschema.Schema{}
	}
	return &jsonschema.Schema{Not: &jsonschema.Schema{}}
}
