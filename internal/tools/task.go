package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/HendryAvila/corral/internal/store"
	"github.com/mark3labs/mcp-go/mcp"
)

// ─── task_create ─────────────────────────────────────────────────────────────

// CreateTaskTool handles the task_create MCP tool.
type CreateTaskTool struct {
	store *store.Store
}

// NewCreateTaskTool creates a CreateTaskTool.
func NewCreateTaskTool(s *store.Store) *CreateTaskTool {
	return &CreateTaskTool{store: s}
}

// Definition returns the MCP tool definition for task_create.
func (t *CreateTaskTool) Definition() mcp.Tool {
	return mcp.NewTool("task_create",
		mcp.WithDescription(
			"Create a task in the shared task graph, optionally linked to a parent "+
				"task and gated on dependencies. Dependencies must exist and may not "+
				"form a cycle.",
		),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Short task title"),
		),
		mcp.WithString("description",
			mcp.Description("Longer task description"),
		),
		mcp.WithString("assigned_to",
			mcp.Description("Agent id this task is assigned to"),
		),
		mcp.WithString("priority",
			mcp.Description("Priority hint (default: medium)"),
		),
		mcp.WithString("parent_task",
			mcp.Description("Parent task id, for subtasks"),
		),
		mcp.WithString("depends_on_tasks",
			mcp.Description("Comma-separated task ids that must complete before this one starts"),
		),
	)
}

// Handle processes the task_create tool call.
func (t *CreateTaskTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title := req.GetString("title", "")
	if title == "" {
		return mcp.NewToolResultError("'title' is required"), nil
	}

	task, err := t.store.CreateTask(store.CreateTaskParams{
		Title:       title,
		Description: req.GetString("description", ""),
		AssignedTo:  req.GetString("assigned_to", ""),
		Priority:    req.GetString("priority", ""),
		ParentTask:  req.GetString("parent_task", ""),
		DependsOn:   listArg(req, "depends_on_tasks"),
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrCyclicDependency):
			return mcp.NewToolResultError("dependencies would form a cycle"), nil
		case errors.Is(err, store.ErrNotFound):
			return mcp.NewToolResultError(fmt.Sprintf("create failed: %v", err)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("create failed: %v", err)), nil
	}

	var b strings.Builder
	b.WriteString("Created:\n")
	formatTask(&b, task)
	return mcp.NewToolResultText(b.String()), nil
}

// ─── task_get ────────────────────────────────────────────────────────────────

// GetTaskTool handles the task_get MCP tool.
type GetTaskTool struct {
	store *store.Store
}

// NewGetTaskTool creates a GetTaskTool.
func NewGetTaskTool(s *store.Store) *GetTaskTool {
	return &GetTaskTool{store: s}
}

// Definition returns the MCP tool definition for task_get.
func (t *GetTaskTool) Definition() mcp.Tool {
	return mcp.NewTool("task_get",
		mcp.WithDescription("Fetch one task by id."),
		mcp.WithString("task_id",
			mcp.Required(),
			mcp.Description("The task id"),
		),
	)
}

// Handle processes the task_get tool call.
func (t *GetTaskTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("task_id", "")
	if id == "" {
		return mcp.NewToolResultError("'task_id' is required"), nil
	}

	task, err := t.store.GetTask(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("no task %q", id)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("lookup failed: %v", err)), nil
	}

	var b strings.Builder
	formatTask(&b, task)
	return mcp.NewToolResultText(b.String()), nil
}

// ─── task_list ───────────────────────────────────────────────────────────────

// ListTasksTool handles the task_list MCP tool.
type ListTasksTool struct {
	store *store.Store
}

// NewListTasksTool creates a ListTasksTool.
func NewListTasksTool(s *store.Store) *ListTasksTool {
	return &ListTasksTool{store: s}
}

// Definition returns the MCP tool definition for task_list.
func (t *ListTasksTool) Definition() mcp.Tool {
	return mcp.NewTool("task_list",
		mcp.WithDescription(
			"List tasks newest first. Filter by assignee and status, or pass "+
				"blocked=true to see only tasks waiting on incomplete dependencies "+
				"(poll this instead of retrying task_status).",
		),
		mcp.WithString("agent_id",
			mcp.Description("Only tasks assigned to this agent"),
		),
		mcp.WithString("status",
			mcp.Description("Only tasks with this status (with agent_id)"),
		),
		mcp.WithBoolean("blocked",
			mcp.Description("Only tasks blocked on unmet dependencies"),
		),
	)
}

// Handle processes the task_list tool call.
func (t *ListTasksTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var (
		tasks []store.Task
		err   error
	)
	switch {
	case boolArg(req, "blocked", false):
		tasks, err = t.store.ListBlockedTasks()
	case req.GetString("agent_id", "") != "":
		tasks, err = t.store.ListTasksByAgent(req.GetString("agent_id", ""), req.GetString("status", ""))
	default:
		tasks, err = t.store.ListTasks()
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
	}
	if len(tasks) == 0 {
		return mcp.NewToolResultText("No matching tasks."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d task(s):\n\n", len(tasks))
	for i := range tasks {
		formatTask(&b, &tasks[i])
		b.WriteString("\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}

// ─── task_update ─────────────────────────────────────────────────────────────

// UpdateTaskTool handles the task_update MCP tool.
type UpdateTaskTool struct {
	store *store.Store
}

// NewUpdateTaskTool creates an UpdateTaskTool.
func NewUpdateTaskTool(s *store.Store) *UpdateTaskTool {
	return &UpdateTaskTool{store: s}
}

// Definition returns the MCP tool definition for task_update.
func (t *UpdateTaskTool) Definition() mcp.Tool {
	return mcp.NewTool("task_update",
		mcp.WithDescription(
			"Update task fields: title, description, assigned_to, priority, "+
				"parent_task, child_tasks, depends_on_tasks, notes. Status changes "+
				"go through task_status so the dependency gate applies.",
		),
		mcp.WithString("task_id",
			mcp.Required(),
			mcp.Description("The task to update"),
		),
		mcp.WithObject("fields",
			mcp.Required(),
			mcp.Description("Field name to new value. List fields take JSON arrays of strings."),
		),
	)
}

// Handle processes the task_update tool call.
func (t *UpdateTaskTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("task_id", "")
	if id == "" {
		return mcp.NewToolResultError("'task_id' is required"), nil
	}
	fields, ok := req.GetArguments()["fields"].(map[string]any)
	if !ok || len(fields) == 0 {
		return mcp.NewToolResultError("'fields' must be a non-empty object"), nil
	}

	changed, err := t.store.UpdateTaskFields(id, fields)
	if err != nil {
		if errors.Is(err, store.ErrCyclicDependency) {
			return mcp.NewToolResultError("dependencies would form a cycle"), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("update failed: %v", err)), nil
	}
	if !changed {
		return mcp.NewToolResultText(fmt.Sprintf("Task %s: nothing changed.", id)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Task %s updated.", id)), nil
}

// ─── task_status ─────────────────────────────────────────────────────────────

// TaskStatusTool handles the task_status MCP tool.
type TaskStatusTool struct {
	store *store.Store
}

// NewTaskStatusTool creates a TaskStatusTool.
func NewTaskStatusTool(s *store.Store) *TaskStatusTool {
	return &TaskStatusTool{store: s}
}

// Definition returns the MCP tool definition for task_status.
func (t *TaskStatusTool) Definition() mcp.Tool {
	return mcp.NewTool("task_status",
		mcp.WithDescription(
			"Transition a task's status (pending|in_progress|completed|cancelled|failed). "+
				"Moving to in_progress is rejected while any dependency is incomplete.",
		),
		mcp.WithString("token",
			mcp.Required(),
			mcp.Description("The calling agent's secret token"),
		),
		mcp.WithString("task_id",
			mcp.Required(),
			mcp.Description("The task to transition"),
		),
		mcp.WithString("status",
			mcp.Required(),
			mcp.Description("The new status"),
		),
	)
}

// Handle processes the task_status tool call.
func (t *TaskStatusTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if _, errResult := authenticate(t.store, req); errResult != nil {
		return errResult, nil
	}
	id := req.GetString("task_id", "")
	status := req.GetString("status", "")
	if id == "" || status == "" {
		return mcp.NewToolResultError("'task_id' and 'status' are required"), nil
	}

	if err := t.store.SetTaskStatus(id, status); err != nil {
		switch {
		case errors.Is(err, store.ErrDependenciesUnmet):
			return mcp.NewToolResultError(fmt.Sprintf(
				"task %s cannot start: dependencies not completed (%v)", id, err)), nil
		case errors.Is(err, store.ErrNotFound):
			return mcp.NewToolResultError(fmt.Sprintf("no task %q", id)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("transition failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Task %s is now %s.", id, status)), nil
}

// ─── task_note ───────────────────────────────────────────────────────────────

// TaskNoteTool handles the task_note MCP tool.
type TaskNoteTool struct {
	store *store.Store
}

// NewTaskNoteTool creates a TaskNoteTool.
func NewTaskNoteTool(s *store.Store) *TaskNoteTool {
	return &TaskNoteTool{store: s}
}

// Definition returns the MCP tool definition for task_note.
func (t *TaskNoteTool) Definition() mcp.Tool {
	return mcp.NewTool("task_note",
		mcp.WithDescription("Append a free-form note to a task. Notes keep their order."),
		mcp.WithString("token",
			mcp.Required(),
			mcp.Description("The calling agent's secret token"),
		),
		mcp.WithString("task_id",
			mcp.Required(),
			mcp.Description("The task to annotate"),
		),
		mcp.WithString("note",
			mcp.Required(),
			mcp.Description("The note text"),
		),
	)
}

// Handle processes the task_note tool call.
func (t *TaskNoteTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	agent, errResult := authenticate(t.store, req)
	if errResult != nil {
		return errResult, nil
	}
	id := req.GetString("task_id", "")
	note := req.GetString("note", "")
	if id == "" || note == "" {
		return mcp.NewToolResultError("'task_id' and 'note' are required"), nil
	}

	if err := t.store.AddTaskNote(id, fmt.Sprintf("[%s] %s", agent.ID, note)); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("no task %q", id)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("note failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Noted on task %s.", id)), nil
}
