package store_test

import (
	"errors"
	"testing"

	"github.com/HendryAvila/corral/internal/store"
)

func mustCreateTask(t *testing.T, s *store.Store, p store.CreateTaskParams) *store.Task {
	t.Helper()
	task, err := s.CreateTask(p)
	if err != nil {
		t.Fatalf("CreateTask(%q) error: %v", p.Title, err)
	}
	return task
}

func TestCreateTask_Defaults(t *testing.T) {
	s := newTestStore(t)

	task := mustCreateTask(t, s, store.CreateTaskParams{Title: "write docs"})
	if task.Status != store.TaskPending {
		t.Errorf("Status = %q, want pending", task.Status)
	}
	if task.Priority != "medium" {
		t.Errorf("Priority = %q, want medium", task.Priority)
	}
	if task.ID == "" {
		t.Error("task id should be assigned")
	}
	if task.AssignedTo != nil {
		t.Errorf("AssignedTo = %v, want nil", *task.AssignedTo)
	}
}

func TestCreateTask_MissingDependency(t *testing.T) {
	s := newTestStore(t)

	_, err := s.CreateTask(store.CreateTaskParams{
		Title:     "orphaned",
		DependsOn: []string{"no-such-task"},
	})
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestCreateTask_ParentChildLink(t *testing.T) {
	s := newTestStore(t)

	parent := mustCreateTask(t, s, store.CreateTaskParams{Title: "epic"})
	child := mustCreateTask(t, s, store.CreateTaskParams{
		Title:      "subtask",
		ParentTask: parent.ID,
	})

	if child.ParentTask == nil || *child.ParentTask != parent.ID {
		t.Fatalf("child ParentTask = %v, want %s", child.ParentTask, parent.ID)
	}

	// Parent's child list is maintained in the same transaction.
	parent, err := s.GetTask(parent.ID)
	if err != nil {
		t.Fatalf("reload parent: %v", err)
	}
	if len(parent.ChildTasks) != 1 || parent.ChildTasks[0] != child.ID {
		t.Errorf("parent ChildTasks = %v, want [%s]", parent.ChildTasks, child.ID)
	}
}

func TestSetTaskStatus_DependencyGate(t *testing.T) {
	s := newTestStore(t)

	t1 := mustCreateTask(t, s, store.CreateTaskParams{Title: "schema"})
	t2 := mustCreateTask(t, s, store.CreateTaskParams{
		Title:     "queries",
		DependsOn: []string{t1.ID},
	})

	// T2 may not start while T1 is incomplete.
	err := s.SetTaskStatus(t2.ID, store.TaskInProgress)
	if !errors.Is(err, store.ErrDependenciesUnmet) {
		t.Fatalf("start blocked task: error = %v, want ErrDependenciesUnmet", err)
	}

	// Complete T1, then T2 starts cleanly.
	if err := s.SetTaskStatus(t1.ID, store.TaskInProgress); err != nil {
		t.Fatalf("start t1: %v", err)
	}
	if err := s.SetTaskStatus(t1.ID, store.TaskCompleted); err != nil {
		t.Fatalf("complete t1: %v", err)
	}
	if err := s.SetTaskStatus(t2.ID, store.TaskInProgress); err != nil {
		t.Fatalf("start t2 after deps met: %v", err)
	}

	got, _ := s.GetTask(t2.ID)
	if got.Status != store.TaskInProgress {
		t.Errorf("t2 status = %q, want in_progress", got.Status)
	}
}

func TestSetTaskStatus_CancelledDependencyStillBlocks(t *testing.T) {
	s := newTestStore(t)

	dep := mustCreateTask(t, s, store.CreateTaskParams{Title: "dep"})
	task := mustCreateTask(t, s, store.CreateTaskParams{
		Title:     "gated",
		DependsOn: []string{dep.ID},
	})

	// Only completed counts as met.
	if err := s.SetTaskStatus(dep.ID, store.TaskCancelled); err != nil {
		t.Fatalf("cancel dep: %v", err)
	}
	err := s.SetTaskStatus(task.ID, store.TaskInProgress)
	if !errors.Is(err, store.ErrDependenciesUnmet) {
		t.Errorf("error = %v, want ErrDependenciesUnmet", err)
	}
}

func TestSetTaskStatus_InvalidStatus(t *testing.T) {
	s := newTestStore(t)
	task := mustCreateTask(t, s, store.CreateTaskParams{Title: "x"})

	if err := s.SetTaskStatus(task.ID, "done-ish"); err == nil {
		t.Error("invalid status should be rejected")
	}
}

func TestCreateTask_SelfCycle(t *testing.T) {
	s := newTestStore(t)
	a := mustCreateTask(t, s, store.CreateTaskParams{Title: "a"})

	_, err := s.UpdateTaskFields(a.ID, map[string]any{
		"depends_on_tasks": []any{a.ID},
	})
	if !errors.Is(err, store.ErrCyclicDependency) {
		t.Errorf("self dependency: error = %v, want ErrCyclicDependency", err)
	}
}

func TestUpdateTaskFields_TransitiveCycle(t *testing.T) {
	s := newTestStore(t)

	a := mustCreateTask(t, s, store.CreateTaskParams{Title: "a"})
	b := mustCreateTask(t, s, store.CreateTaskParams{Title: "b", DependsOn: []string{a.ID}})
	c := mustCreateTask(t, s, store.CreateTaskParams{Title: "c", DependsOn: []string{b.ID}})

	// a -> c would close the loop a <- b <- c.
	_, err := s.UpdateTaskFields(a.ID, map[string]any{
		"depends_on_tasks": []any{c.ID},
	})
	if !errors.Is(err, store.ErrCyclicDependency) {
		t.Errorf("transitive cycle: error = %v, want ErrCyclicDependency", err)
	}

	// The failed update must not have touched the row.
	got, _ := s.GetTask(a.ID)
	if len(got.DependsOn) != 0 {
		t.Errorf("a.DependsOn = %v, want empty after rejected update", got.DependsOn)
	}
}

func TestUpdateTaskFields_StatusRejected(t *testing.T) {
	s := newTestStore(t)
	task := mustCreateTask(t, s, store.CreateTaskParams{Title: "x"})

	_, err := s.UpdateTaskFields(task.ID, map[string]any{"status": store.TaskCompleted})
	if err == nil {
		t.Error("status via UpdateTaskFields should be rejected")
	}
}

func TestUpdateTaskFields_MissingTask(t *testing.T) {
	s := newTestStore(t)
	changed, err := s.UpdateTaskFields("ghost", map[string]any{"title": "new"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if changed {
		t.Error("changed = true for missing task, want false")
	}
}

func TestAddTaskNote_KeepsOrder(t *testing.T) {
	s := newTestStore(t)
	task := mustCreateTask(t, s, store.CreateTaskParams{Title: "x"})

	if err := s.AddTaskNote(task.ID, "a"); err != nil {
		t.Fatalf("first note: %v", err)
	}
	if err := s.AddTaskNote(task.ID, "b"); err != nil {
		t.Fatalf("second note: %v", err)
	}

	got, _ := s.GetTask(task.ID)
	if len(got.Notes) != 2 || got.Notes[0] != "a" || got.Notes[1] != "b" {
		t.Errorf("Notes = %v, want [a b]", got.Notes)
	}
}

func TestListBlockedTasks(t *testing.T) {
	s := newTestStore(t)

	dep := mustCreateTask(t, s, store.CreateTaskParams{Title: "dep"})
	blocked := mustCreateTask(t, s, store.CreateTaskParams{
		Title:     "blocked",
		DependsOn: []string{dep.ID},
	})
	mustCreateTask(t, s, store.CreateTaskParams{Title: "free"})

	got, err := s.ListBlockedTasks()
	if err != nil {
		t.Fatalf("ListBlockedTasks error: %v", err)
	}
	if len(got) != 1 || got[0].ID != blocked.ID {
		t.Fatalf("blocked = %v, want just %s", got, blocked.ID)
	}

	// Completing the dependency unblocks it.
	s.SetTaskStatus(dep.ID, store.TaskInProgress)
	s.SetTaskStatus(dep.ID, store.TaskCompleted)
	got, _ = s.ListBlockedTasks()
	if len(got) != 0 {
		t.Errorf("blocked after dep completed = %v, want empty", got)
	}
}

func TestListTasksByAgent_StatusFilter(t *testing.T) {
	s := newTestStore(t)

	mustCreateTask(t, s, store.CreateTaskParams{Title: "mine-1", AssignedTo: "a1"})
	other := mustCreateTask(t, s, store.CreateTaskParams{Title: "mine-2", AssignedTo: "a1"})
	mustCreateTask(t, s, store.CreateTaskParams{Title: "theirs", AssignedTo: "a2"})

	s.SetTaskStatus(other.ID, store.TaskInProgress)

	all, err := s.ListTasksByAgent("a1", "")
	if err != nil {
		t.Fatalf("ListTasksByAgent: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("all for a1 = %d tasks, want 2", len(all))
	}

	inProgress, _ := s.ListTasksByAgent("a1", store.TaskInProgress)
	if len(inProgress) != 1 || inProgress[0].ID != other.ID {
		t.Errorf("in_progress for a1 = %v, want just %s", inProgress, other.ID)
	}
}

func TestSearchTasks(t *testing.T) {
	s := newTestStore(t)

	hit := mustCreateTask(t, s, store.CreateTaskParams{
		Title:       "Implement payment webhook",
		Description: "stripe events",
	})
	mustCreateTask(t, s, store.CreateTaskParams{Title: "Unrelated chore"})

	got, err := s.SearchTasks([]string{"payment"}, 5)
	if err != nil {
		t.Fatalf("SearchTasks: %v", err)
	}
	if len(got) != 1 || got[0].ID != hit.ID {
		t.Fatalf("search payment = %v, want just %s", got, hit.ID)
	}

	// Description text matches too, case-insensitively.
	got, _ = s.SearchTasks([]string{"STRIPE"}, 5)
	if len(got) != 1 {
		t.Errorf("search STRIPE = %d hits, want 1", len(got))
	}
}
