package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ─── Task graph ──────────────────────────────────────────────────────────────

const taskColumns = `task_id, title, description, assigned_to, status, priority,
	parent_task, child_tasks_json, depends_on_tasks_json, notes_json,
	created_at, updated_at`

// taskMutableFields is the allow-list for UpdateTaskFields. task_id,
// created_at and updated_at are managed by the store; status changes go
// through SetTaskStatus so the dependency gate cannot be bypassed.
var taskMutableFields = map[string]bool{
	"title":            true,
	"description":      true,
	"assigned_to":      true,
	"priority":         true,
	"parent_task":      true,
	"child_tasks":      true,
	"depends_on_tasks": true,
	"notes":            true,
}

// CreateTaskParams holds input for CreateTask.
type CreateTaskParams struct {
	Title       string
	Description string
	AssignedTo  string
	Priority    string
	ParentTask  string
	DependsOn   []string
}

// CreateTask inserts a new task node. Every dependency must exist and
// the resulting edge set must stay acyclic; creating with a parent
// links the child into the parent's child_tasks inside the same
// transaction so the inverse relation never drifts.
func (s *Store) CreateTask(p CreateTaskParams) (*Task, error) {
	if p.Title == "" {
		return nil, fmt.Errorf("store: create task: empty title")
	}
	priority := p.Priority
	if priority == "" {
		priority = "medium"
	}

	id := uuid.NewString()

	for _, dep := range p.DependsOn {
		if _, err := s.GetTask(dep); err != nil {
			return nil, fmt.Errorf("store: create task: dependency %q: %w", dep, ErrNotFound)
		}
	}
	if err := s.checkAcyclic(id, p.DependsOn); err != nil {
		return nil, err
	}
	if p.ParentTask != "" {
		if _, err := s.GetTask(p.ParentTask); err != nil {
			return nil, fmt.Errorf("store: create task: parent %q: %w", p.ParentTask, ErrNotFound)
		}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("store: create task: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(
		`INSERT INTO tasks (task_id, title, description, assigned_to, priority,
		                    parent_task, depends_on_tasks_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, p.Title, p.Description, nullable(p.AssignedTo), priority,
		nullable(p.ParentTask), encodeList(p.DependsOn),
	); err != nil {
		return nil, fmt.Errorf("store: create task: %w", err)
	}

	if p.ParentTask != "" {
		var childJSON string
		if err := tx.QueryRow(
			`SELECT child_tasks_json FROM tasks WHERE task_id = ?`, p.ParentTask,
		).Scan(&childJSON); err != nil {
			return nil, fmt.Errorf("store: create task: link parent: %w", err)
		}
		children := append(decodeList(childJSON, "child_tasks"), id)
		if _, err := tx.Exec(
			`UPDATE tasks SET child_tasks_json = ?, updated_at = ? WHERE task_id = ?`,
			encodeList(children), now(), p.ParentTask,
		); err != nil {
			return nil, fmt.Errorf("store: create task: link parent: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("store: create task: %w", err)
	}

	return s.GetTask(id)
}

// GetTask retrieves a task by id.
func (s *Store) GetTask(id string) (*Task, error) {
	row := s.db.QueryRow(`SELECT `+taskColumns+` FROM tasks WHERE task_id = ?`, id)
	task, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("store: task %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("store: get task %q: %w", id, err)
	}
	return task, nil
}

// ListTasks returns every task, newest first.
func (s *Store) ListTasks() ([]Task, error) {
	return s.queryTasks(`SELECT ` + taskColumns + ` FROM tasks ORDER BY created_at DESC, task_id DESC`)
}

// ListTasksByAgent returns tasks assigned to an agent, newest first,
// optionally filtered by status.
func (s *Store) ListTasksByAgent(agentID, status string) ([]Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE assigned_to = ?`
	args := []any{agentID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC, task_id DESC`
	return s.queryTasks(query, args...)
}

// ListBlockedTasks returns pending tasks with at least one incomplete
// dependency. Callers poll this instead of retrying SetTaskStatus in a
// loop.
func (s *Store) ListBlockedTasks() ([]Task, error) {
	tasks, err := s.queryTasks(
		`SELECT ` + taskColumns + ` FROM tasks
		 WHERE status = 'pending' AND depends_on_tasks_json != '[]'
		 ORDER BY created_at DESC, task_id DESC`,
	)
	if err != nil {
		return nil, err
	}

	var blocked []Task
	for _, t := range tasks {
		unmet, err := s.unmetDependencies(t.DependsOn)
		if err != nil {
			return nil, err
		}
		if len(unmet) > 0 {
			blocked = append(blocked, t)
		}
	}
	return blocked, nil
}

// UpdateTaskFields applies allow-listed column updates and stamps
// updated_at. Returns false — not an error — when the task does not
// exist or no fields were given. Rewriting depends_on_tasks re-runs
// cycle detection.
func (s *Store) UpdateTaskFields(id string, fields map[string]any) (bool, error) {
	if len(fields) == 0 {
		return false, nil
	}

	setClause := ""
	var args []any
	for field, value := range fields {
		if !taskMutableFields[field] {
			return false, fmt.Errorf("store: update task %q: field %q is not updatable", id, field)
		}

		column := field
		arg := value
		switch field {
		case "child_tasks", "depends_on_tasks", "notes":
			list, ok := toStringList(value)
			if !ok {
				return false, fmt.Errorf("store: update task %q: field %q wants a string list", id, field)
			}
			if field == "depends_on_tasks" {
				if err := s.checkAcyclic(id, list); err != nil {
					return false, err
				}
			}
			column = field + "_json"
			arg = encodeList(list)
		case "assigned_to", "parent_task":
			if str, ok := value.(string); ok && str == "" {
				arg = nil
			}
		}

		if setClause != "" {
			setClause += ", "
		}
		setClause += column + " = ?"
		args = append(args, arg)
	}

	args = append(args, now(), id)
	res, err := s.db.Exec(`UPDATE tasks SET `+setClause+`, updated_at = ? WHERE task_id = ?`, args...)
	if err != nil {
		return false, fmt.Errorf("store: update task %q: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("store: update task %q: %w", id, err)
	}
	return n > 0, nil
}

// SetTaskStatus transitions a task's status. Moving to in_progress is
// gated on every dependency being completed (ErrDependenciesUnmet).
// Completing a parent with open children is allowed — children finish
// independently.
func (s *Store) SetTaskStatus(id, status string) error {
	switch status {
	case TaskPending, TaskInProgress, TaskCompleted, TaskCancelled, TaskFailed:
	default:
		return fmt.Errorf("store: set task status: unknown status %q", status)
	}

	task, err := s.GetTask(id)
	if err != nil {
		return err
	}

	if status == TaskInProgress {
		unmet, err := s.unmetDependencies(task.DependsOn)
		if err != nil {
			return err
		}
		if len(unmet) > 0 {
			return fmt.Errorf("store: task %q blocked on %v: %w", id, unmet, ErrDependenciesUnmet)
		}
	}

	if _, err := s.db.Exec(
		`UPDATE tasks SET status = ?, updated_at = ? WHERE task_id = ?`,
		status, now(), id,
	); err != nil {
		return fmt.Errorf("store: set task status %q: %w", id, err)
	}
	return nil
}

// AddTaskNote appends a free-form annotation to a task's ordered notes.
func (s *Store) AddTaskNote(id, note string) error {
	task, err := s.GetTask(id)
	if err != nil {
		return err
	}
	notes := append(task.Notes, note)
	if _, err := s.db.Exec(
		`UPDATE tasks SET notes_json = ?, updated_at = ? WHERE task_id = ?`,
		encodeList(notes), now(), id,
	); err != nil {
		return fmt.Errorf("store: add note to task %q: %w", id, err)
	}
	return nil
}

// SearchTasks returns tasks whose title or description contains any of
// the given tokens (case-insensitive), newest-updated first, up to limit.
func (s *Store) SearchTasks(tokens []string, limit int) ([]Task, error) {
	if len(tokens) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = 5
	}

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE (`
	var args []any
	for i, tok := range tokens {
		if i > 0 {
			query += ` OR `
		}
		query += `lower(title) LIKE ? OR lower(description) LIKE ?`
		pattern := "%" + strings.ToLower(tok) + "%"
		args = append(args, pattern, pattern)
	}
	query += `) ORDER BY updated_at DESC, task_id DESC LIMIT ?`
	args = append(args, limit)

	return s.queryTasks(query, args...)
}

// ─── Graph invariants ────────────────────────────────────────────────────────

// checkAcyclic verifies that giving taskID the dependency set deps
// keeps the graph acyclic: taskID must not be reachable by walking
// dependencies outward from deps.
func (s *Store) checkAcyclic(taskID string, deps []string) error {
	visited := map[string]bool{}
	frontier := append([]string(nil), deps...)

	for len(frontier) > 0 {
		current := frontier[0]
		frontier = frontier[1:]

		if current == taskID {
			return fmt.Errorf("store: task %q: %w", taskID, ErrCyclicDependency)
		}
		if visited[current] {
			continue
		}
		visited[current] = true

		task, err := s.GetTask(current)
		if err != nil {
			// A dangling dependency cannot form a cycle; existence is
			// validated separately where it matters.
			continue
		}
		frontier = append(frontier, task.DependsOn...)
	}
	return nil
}

// unmetDependencies returns the subset of deps not yet completed.
// A dependency that no longer resolves counts as unmet.
func (s *Store) unmetDependencies(deps []string) ([]string, error) {
	var unmet []string
	for _, dep := range deps {
		task, err := s.GetTask(dep)
		if err != nil {
			unmet = append(unmet, dep)
			continue
		}
		if task.Status != TaskCompleted {
			unmet = append(unmet, dep)
		}
	}
	return unmet, nil
}

// ─── Scan helpers ────────────────────────────────────────────────────────────

func (s *Store) queryTasks(query string, args ...any) ([]Task, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: query tasks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tasks []Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("store: query tasks: %w", err)
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

func scanTask(row scanner) (*Task, error) {
	var t Task
	var children, deps, notes string
	if err := row.Scan(
		&t.ID, &t.Title, &t.Description, &t.AssignedTo, &t.Status, &t.Priority,
		&t.ParentTask, &children, &deps, &notes, &t.CreatedAt, &t.UpdatedAt,
	); err != nil {
		return nil, err
	}
	t.ChildTasks = decodeList(children, "child_tasks")
	t.DependsOn = decodeList(deps, "depends_on_tasks")
	t.Notes = decodeList(notes, "notes")
	return &t, nil
}

// toStringList coerces a JSON-decoded value into a string list.
func toStringList(v any) ([]string, bool) {
	switch list := v.(type) {
	case []string:
		return list, true
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			str, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, str)
		}
		return out, true
	}
	return nil, false
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
