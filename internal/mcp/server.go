// Package mcp provides an MCP (Model Context Protocol) server that exposes
// the task queue as MCP tools for AI coding assistants, backed by the HTTP
// API of a running task server.
package mcp

import (
	"context"
	"fmt"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/drmercer/prompt-pad/internal/client"
	"github.com/drmercer/prompt-pad/pkg/models"
)

// Server exposes submit/status operations as MCP tools over stdio.
type Server struct {
	server *gomcp.Server
	api    *client.HTTPClient
}

// NewServer creates a new MCP server talking to the given task server client.
func NewServer(api *client.HTTPClient, version string) *Server {
	if version == "" {
		version = "dev"
	}

	s := &Server{api: api}
	s.server = gomcp.NewServer(
		&gomcp.Implementation{Name: "ppad", Version: version},
		nil,
	)
	s.registerTools()
	return s
}

// Run starts the MCP server on stdio, blocking until the client disconnects
// or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input/output types ---

type submitTaskInput struct {
	ID           string   `json:"id" jsonschema:"required,unique task id; resubmitting an existing id replaces the prior task"`
	Prompt       string   `json:"prompt" jsonschema:"required,instruction text passed to the configured command"`
	Dependencies []string `json:"dependencies,omitempty" jsonschema:"ids of tasks intended to complete first (recorded, not enforced)"`
}

type submitTaskOutput struct {
	Message string `json:"message"`
}

type taskOutput struct {
	ID           string   `json:"id"`
	Prompt       string   `json:"prompt"`
	Dependencies []string `json:"dependencies,omitempty"`
	Status       string   `json:"status"`
	SubmittedAt  string   `json:"submitted_at"`
	Commit       string   `json:"commit,omitempty"`
	Error        string   `json:"error,omitempty"`
}

type listTasksInput struct {
	Status string `json:"status,omitempty" jsonschema:"filter tasks by status (queued, in-progress, completed, error)"`
}

type listTasksOutput struct {
	ServerName string       `json:"server_name"`
	Tasks      []taskOutput `json:"tasks"`
	Count      int          `json:"count"`
}

type getTaskInput struct {
	TaskID string `json:"task_id" jsonschema:"required,the task id to look up"`
}

// --- Tool registration ---

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "submit_task",
		Description: "Submit a task prompt to the queue. Replaces any existing task with the same id. Returns immediately; poll list_tasks for the outcome.",
	}, s.handleSubmitTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "list_tasks",
		Description: "List all tasks in submission order with an optional status filter.",
	}, s.handleListTasks)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_task",
		Description: "Get one task by id, including its commit or error once it reaches a terminal state.",
	}, s.handleGetTask)
}

// --- Tool handlers ---

func (s *Server) handleSubmitTask(ctx context.Context, _ *gomcp.CallToolRequest, input submitTaskInput) (*gomcp.CallToolResult, submitTaskOutput, error) {
	if input.ID == "" {
		return errorResult("id is required"), submitTaskOutput{}, nil
	}
	if input.Prompt == "" {
		return errorResult("prompt is required"), submitTaskOutput{}, nil
	}

	sub := models.Submission{
		ID:           input.ID,
		Prompt:       input.Prompt,
		Dependencies: input.Dependencies,
	}
	if err := s.api.Submit(ctx, sub); err != nil {
		return errorResult(fmt.Sprintf("submitting task %s: %s", input.ID, err)), submitTaskOutput{}, nil
	}

	return nil, submitTaskOutput{Message: fmt.Sprintf("accepted task %s", input.ID)}, nil
}

func (s *Server) handleListTasks(ctx context.Context, _ *gomcp.CallToolRequest, input listTasksInput) (*gomcp.CallToolResult, listTasksOutput, error) {
	status, err := s.api.Status(ctx)
	if err != nil {
		return errorResult(fmt.Sprintf("listing tasks: %s", err)), listTasksOutput{}, nil
	}

	out := listTasksOutput{ServerName: status.ServerName}
	for _, t := range status.Tasks {
		if input.Status != "" && string(t.Status) != input.Status {
			continue
		}
		out.Tasks = append(out.Tasks, taskToOutput(t))
	}
	out.Count = len(out.Tasks)
	return nil, out, nil
}

func (s *Server) handleGetTask(ctx context.Context, _ *gomcp.CallToolRequest, input getTaskInput) (*gomcp.CallToolResult, taskOutput, error) {
	if input.TaskID == "" {
		return errorResult("task_id is required"), taskOutput{}, nil
	}

	task, err := s.api.GetTask(ctx, input.TaskID)
	if err != nil {
		return errorResult(fmt.Sprintf("getting task %s: %s", input.TaskID, err)), taskOutput{}, nil
	}
	return nil, taskToOutput(*task), nil
}

// --- Helpers ---

func taskToOutput(t models.Task) taskOutput {
	return taskOutput{
		ID:           t.ID,
		Prompt:       t.Prompt,
		Dependencies: t.Dependencies,
		Status:       string(t.Status),
		SubmittedAt:  t.SubmittedAt.Format(time.RFC3339),
		Commit:       t.Commit,
		Error:        t.Error,
	}
}

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}
