// Package mcp provides an MCP (Model Context Protocol) server that
// exposes the task store as MCP tools for AI agents.
package mcp

import (
	"context"
	"fmt"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/veritas-kanban/veritas-kanban/internal/core"
	"github.com/veritas-kanban/veritas-kanban/pkg/models"
)

// Server wraps the task service and exposes it as MCP tools.
type Server struct {
	server  *gomcp.Server
	taskSvc core.TaskService
}

// NewServer creates a new MCP server over the given task service.
func NewServer(taskSvc core.TaskService, version string) *Server {
	if version == "" {
		version = "dev"
	}

	s := &Server{taskSvc: taskSvc}
	s.server = gomcp.NewServer(
		&gomcp.Implementation{Name: "vk", Version: version},
		nil,
	)
	s.registerTools()
	return s
}

// Run starts the MCP server on stdio, blocking until the client
// disconnects or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input/output types ---

type taskOutput struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Type      string   `json:"type,omitempty"`
	Status    string   `json:"status"`
	Priority  string   `json:"priority"`
	Project   string   `json:"project,omitempty"`
	Sprint    string   `json:"sprint,omitempty"`
	BlockedBy []string `json:"blocked_by,omitempty"`
	Position  int      `json:"position"`
	Created   string   `json:"created"`
	Updated   string   `json:"updated"`
}

func taskToOutput(t *models.Task) taskOutput {
	return taskOutput{
		ID:        t.ID,
		Title:     t.Title,
		Type:      t.Type,
		Status:    string(t.Status),
		Priority:  string(t.Priority),
		Project:   t.Project,
		Sprint:    t.Sprint,
		BlockedBy: t.BlockedBy,
		Position:  t.Position,
		Created:   t.Created.Format(time.RFC3339),
		Updated:   t.Updated.Format(time.RFC3339),
	}
}

type listTasksInput struct {
	Status string `json:"status,omitempty" jsonschema:"filter tasks by status (todo, in-progress, blocked, done)"`
}

type listTasksOutput struct {
	Tasks []taskOutput `json:"tasks"`
	Count int          `json:"count"`
}

type getTaskInput struct {
	TaskID string `json:"task_id" jsonschema:"required,the unique task identifier (e.g. task_20260815_k3x9qa)"`
}

type createTaskInput struct {
	Title       string   `json:"title" jsonschema:"required,task title"`
	Description string   `json:"description,omitempty" jsonschema:"free-text description body"`
	Type        string   `json:"type,omitempty" jsonschema:"task type from the task-types catalog"`
	Priority    string   `json:"priority,omitempty" jsonschema:"priority (low, medium, high); defaults to medium"`
	Project     string   `json:"project,omitempty" jsonschema:"project id"`
	BlockedBy   []string `json:"blocked_by,omitempty" jsonschema:"task IDs this task depends on"`
}

type updateTaskStatusInput struct {
	TaskID string `json:"task_id" jsonschema:"required,the unique task identifier"`
	Status string `json:"status" jsonschema:"required,the new status (todo, in-progress, blocked, done)"`
}

type updateTaskStatusOutput struct {
	Allowed  bool         `json:"allowed"`
	Blockers []taskOutput `json:"blockers,omitempty"`
	Message  string       `json:"message"`
}

type checkBlockingInput struct {
	TaskID string `json:"task_id" jsonschema:"required,the unique task identifier"`
}

type checkBlockingOutput struct {
	IsBlocked         bool         `json:"is_blocked"`
	Blockers          []taskOutput `json:"blockers,omitempty"`
	CompletedBlockers []taskOutput `json:"completed_blockers,omitempty"`
	WouldUnblock      []taskOutput `json:"would_unblock,omitempty"`
}

type addDependencyInput struct {
	TaskID    string `json:"task_id" jsonschema:"required,the dependent task"`
	BlockerID string `json:"blocker_id" jsonschema:"required,the task that must finish first"`
}

type addDependencyOutput struct {
	Added   bool   `json:"added"`
	Message string `json:"message"`
}

type listBacklogInput struct{}

// --- Tool registration ---

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "list_tasks",
		Description: "List active tasks with an optional status filter. Returns an array of task summaries in board order.",
	}, s.handleListTasks)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_task",
		Description: "Get task details by ID, including dependencies and position.",
	}, s.handleGetTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "create_task",
		Description: "Create a new task in the active area. Defaults: status todo, priority medium.",
	}, s.handleCreateTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "update_task_status",
		Description: "Update a task's status. A move to in-progress is refused while blockers are unfinished; the refusal lists them.",
	}, s.handleUpdateTaskStatus)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "check_blocking",
		Description: "Report a task's blocking status: unresolved blockers, completed blockers, and which tasks would unblock if it finished.",
	}, s.handleCheckBlocking)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "add_dependency",
		Description: "Add a blocked-by edge between two tasks. Refused when the edge would create a cycle.",
	}, s.handleAddDependency)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "list_backlog",
		Description: "List backlog tasks (the staging area excluded from the board).",
	}, s.handleListBacklog)
}

// --- Tool handlers ---

func (s *Server) handleListTasks(_ context.Context, _ *gomcp.CallToolRequest, input listTasksInput) (*gomcp.CallToolResult, listTasksOutput, error) {
	tasks, err := s.taskSvc.ListTasks()
	if err != nil {
		return errorResult(fmt.Sprintf("listing tasks: %s", err)), listTasksOutput{}, nil
	}

	var out listTasksOutput
	for i := range tasks {
		if input.Status != "" && string(tasks[i].Status) != input.Status {
			continue
		}
		out.Tasks = append(out.Tasks, taskToOutput(&tasks[i]))
	}
	out.Count = len(out.Tasks)
	return nil, out, nil
}

func (s *Server) handleGetTask(_ context.Context, _ *gomcp.CallToolRequest, input getTaskInput) (*gomcp.CallToolResult, taskOutput, error) {
	if input.TaskID == "" {
		return errorResult("task_id is required"), taskOutput{}, nil
	}

	task, err := s.taskSvc.GetTask(input.TaskID)
	if err != nil {
		return errorResult(fmt.Sprintf("getting task %s: %s", input.TaskID, err)), taskOutput{}, nil
	}
	if task == nil {
		return errorResult(fmt.Sprintf("task %s not found", input.TaskID)), taskOutput{}, nil
	}
	return nil, taskToOutput(task), nil
}

func (s *Server) handleCreateTask(_ context.Context, _ *gomcp.CallToolRequest, input createTaskInput) (*gomcp.CallToolResult, taskOutput, error) {
	if input.Title == "" {
		return errorResult("title is required"), taskOutput{}, nil
	}

	task, err := s.taskSvc.CreateTask(models.CreateTaskInput{
		Title:       input.Title,
		Description: input.Description,
		Type:        input.Type,
		Priority:    models.Priority(input.Priority),
		Project:     input.Project,
		BlockedBy:   input.BlockedBy,
	})
	if err != nil {
		return errorResult(fmt.Sprintf("creating task: %s", err)), taskOutput{}, nil
	}
	return nil, taskToOutput(task), nil
}

func (s *Server) handleUpdateTaskStatus(_ context.Context, _ *gomcp.CallToolRequest, input updateTaskStatusInput) (*gomcp.CallToolResult, updateTaskStatusOutput, error) {
	if input.TaskID == "" {
		return errorResult("task_id is required"), updateTaskStatusOutput{}, nil
	}
	status := models.TaskStatus(input.Status)
	if !status.IsValid() {
		return errorResult(fmt.Sprintf("invalid status %q: must be one of todo, in-progress, blocked, done", input.Status)), updateTaskStatusOutput{}, nil
	}

	result, err := s.taskSvc.SetStatus(input.TaskID, status)
	if err != nil {
		return errorResult(fmt.Sprintf("updating task %s status: %s", input.TaskID, err)), updateTaskStatusOutput{}, nil
	}
	if result.Task == nil {
		return errorResult(fmt.Sprintf("task %s not found", input.TaskID)), updateTaskStatusOutput{}, nil
	}

	out := updateTaskStatusOutput{Allowed: result.Allowed}
	if result.Allowed {
		out.Message = fmt.Sprintf("task %s status updated to %s", input.TaskID, input.Status)
	} else {
		out.Message = fmt.Sprintf("task %s is still blocked", input.TaskID)
		for i := range result.Blockers {
			out.Blockers = append(out.Blockers, taskToOutput(&result.Blockers[i]))
		}
	}
	return nil, out, nil
}

func (s *Server) handleCheckBlocking(_ context.Context, _ *gomcp.CallToolRequest, input checkBlockingInput) (*gomcp.CallToolResult, checkBlockingOutput, error) {
	if input.TaskID == "" {
		return errorResult("task_id is required"), checkBlockingOutput{}, nil
	}

	status, err := s.taskSvc.BlockingStatus(input.TaskID)
	if err != nil {
		return errorResult(fmt.Sprintf("checking blocking for %s: %s", input.TaskID, err)), checkBlockingOutput{}, nil
	}
	wouldUnblock, err := s.taskSvc.WouldUnblock(input.TaskID)
	if err != nil {
		return errorResult(fmt.Sprintf("checking unblock candidates for %s: %s", input.TaskID, err)), checkBlockingOutput{}, nil
	}

	out := checkBlockingOutput{IsBlocked: status.IsBlocked}
	for i := range status.Blockers {
		out.Blockers = append(out.Blockers, taskToOutput(&status.Blockers[i]))
	}
	for i := range status.CompletedBlockers {
		out.CompletedBlockers = append(out.CompletedBlockers, taskToOutput(&status.CompletedBlockers[i]))
	}
	for i := range wouldUnblock {
		out.WouldUnblock = append(out.WouldUnblock, taskToOutput(&wouldUnblock[i]))
	}
	return nil, out, nil
}

func (s *Server) handleAddDependency(_ context.Context, _ *gomcp.CallToolRequest, input addDependencyInput) (*gomcp.CallToolResult, addDependencyOutput, error) {
	if input.TaskID == "" || input.BlockerID == "" {
		return errorResult("task_id and blocker_id are required"), addDependencyOutput{}, nil
	}

	result, err := s.taskSvc.AddDependency(input.TaskID, input.BlockerID)
	if err != nil {
		return errorResult(fmt.Sprintf("adding dependency: %s", err)), addDependencyOutput{}, nil
	}

	out := addDependencyOutput{Added: result.Added}
	if result.Added {
		out.Message = fmt.Sprintf("task %s is now blocked by %s", input.TaskID, input.BlockerID)
	} else {
		out.Message = result.Reason
	}
	return nil, out, nil
}

func (s *Server) handleListBacklog(_ context.Context, _ *gomcp.CallToolRequest, _ listBacklogInput) (*gomcp.CallToolResult, listTasksOutput, error) {
	tasks, err := s.taskSvc.ListBacklog()
	if err != nil {
		return errorResult(fmt.Sprintf("listing backlog: %s", err)), listTasksOutput{}, nil
	}

	out := listTasksOutput{Count: len(tasks)}
	for i := range tasks {
		out.Tasks = append(out.Tasks, taskToOutput(&tasks[i]))
	}
	return nil, out, nil
}

// errorResult builds a CallToolResult carrying an error message.
func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		IsError: true,
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
	}
}
