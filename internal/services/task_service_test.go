package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-task-tree/internal/models"
	"github.com/adanyl0v/go-task-tree/internal/services"
	"github.com/adanyl0v/go-task-tree/internal/storage/memory"
)

const (
	alice = "alice"
	bob   = "bob"
)

func newTaskService(t *testing.T) services.TaskService {
	t.Helper()
	return services.NewTaskService(zerolog.Nop(), memory.NewTaskStore())
}

func mustCreate(t *testing.T, svc services.TaskService, params services.CreateTaskParams) *models.Task {
	t.Helper()
	if params.UserID == "" {
		params.UserID = alice
	}
	task, err := svc.CreateTask(context.Background(), params)
	if err != nil {
		t.Fatalf("failed to create task %q: %v", params.Title, err)
	}
	return task
}

func TestTaskService_CreateTask_Defaults(t *testing.T) {
	svc := newTaskService(t)

	task := mustCreate(t, svc, services.CreateTaskParams{Title: "write report"})
	if task.ID <= 0 {
		t.Errorf("expected a positive id, got %d", task.ID)
	}
	if task.Status != models.StatusTodo {
		t.Errorf("status = %q, want todo", task.Status)
	}
	if task.Priority != models.DefaultPriority {
		t.Errorf("priority = %d, want %d", task.Priority, models.DefaultPriority)
	}
	if task.OwnerID != alice {
		t.Errorf("owner = %q, want %q", task.OwnerID, alice)
	}
	if task.CreatedAt.IsZero() {
		t.Error("expected created_at to be set")
	}
	if task.CompletedAt != nil {
		t.Error("expected completed_at to be empty")
	}
}

func TestTaskService_CreateTask_Done(t *testing.T) {
	svc := newTaskService(t)

	task := mustCreate(t, svc, services.CreateTaskParams{Title: "already done", Status: ptr(models.StatusDone)})
	if task.Status != models.StatusDone || task.CompletedAt == nil {
		t.Errorf("expected a completed task, got status %q completed_at %v", task.Status, task.CompletedAt)
	}
}

func TestTaskService_CreateTask_Invalid(t *testing.T) {
	svc := newTaskService(t)

	tests := []struct {
		name      string
		params    services.CreateTaskParams
		wantField string
	}{
		{name: "missing title", params: services.CreateTaskParams{UserID: alice}, wantField: "title"},
		{
			name:      "priority out of range",
			params:    services.CreateTaskParams{UserID: alice, Title: "x", Priority: ptr(models.Priority(9))},
			wantField: "priority",
		},
		{
			name:      "unknown status",
			params:    services.CreateTaskParams{UserID: alice, Title: "x", Status: ptr(models.Status("doing"))},
			wantField: "status",
		},
		{
			name:      "missing parent",
			params:    services.CreateTaskParams{UserID: alice, Title: "x", ParentID: ptr(int64(42))},
			wantField: "parent_id",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateTask(context.Background(), tc.params)

			var validationErr *services.ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("expected *ValidationError, got %v", err)
			}
			if _, ok := validationErr.Fields[tc.wantField]; !ok {
				t.Errorf("expected field %q in %v", tc.wantField, validationErr.Fields)
			}
		})
	}
}

func TestTaskService_CreateTask_ForeignParent(t *testing.T) {
	svc := newTaskService(t)
	ctx := context.Background()

	parent := mustCreate(t, svc, services.CreateTaskParams{Title: "alice's"})

	_, err := svc.CreateTask(ctx, services.CreateTaskParams{UserID: bob, Title: "sneaky", ParentID: &parent.ID})
	if !errors.Is(err, services.ErrTaskAccessDenied) {
		t.Fatalf("got %v, want ErrTaskAccessDenied", err)
	}

	// The rejected subtask must not hold back the owner.
	if _, err = svc.MarkTaskDone(ctx, services.MarkTaskDoneParams{ID: parent.ID, UserID: alice}); err != nil {
		t.Errorf("owner could not complete the task: %v", err)
	}
}

func TestTaskService_MarkTaskDone_RequiresCompletedSubtasks(t *testing.T) {
	svc := newTaskService(t)
	ctx := context.Background()

	parent := mustCreate(t, svc, services.CreateTaskParams{Title: "A"})
	child := mustCreate(t, svc, services.CreateTaskParams{Title: "B", ParentID: &parent.ID})

	_, err := svc.MarkTaskDone(ctx, services.MarkTaskDoneParams{ID: parent.ID, UserID: alice})
	if !errors.Is(err, services.ErrUncompletedSubtasks) {
		t.Fatalf("expected ErrUncompletedSubtasks, got %v", err)
	}

	stored, err := svc.GetTaskByID(ctx, parent.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.IsDone() || stored.CompletedAt != nil {
		t.Fatal("rejected completion must leave the task untouched")
	}

	if _, err = svc.MarkTaskDone(ctx, services.MarkTaskDoneParams{ID: child.ID, UserID: alice}); err != nil {
		t.Fatalf("failed to complete subtask: %v", err)
	}

	before := time.Now()
	done, err := svc.MarkTaskDone(ctx, services.MarkTaskDoneParams{ID: parent.ID, UserID: alice})
	if err != nil {
		t.Fatalf("failed to complete task: %v", err)
	}
	if done.Status != models.StatusDone {
		t.Errorf("status = %q, want done", done.Status)
	}
	if done.CompletedAt == nil || done.CompletedAt.Before(before) {
		t.Errorf("completed_at = %v, want at or after %v", done.CompletedAt, before)
	}
}

func TestTaskService_MarkTaskDone_DeepSubtask(t *testing.T) {
	svc := newTaskService(t)
	ctx := context.Background()

	root := mustCreate(t, svc, services.CreateTaskParams{Title: "root"})
	middle := mustCreate(t, svc, services.CreateTaskParams{Title: "middle", ParentID: &root.ID, Status: ptr(models.StatusDone)})
	mustCreate(t, svc, services.CreateTaskParams{Title: "leaf", ParentID: &middle.ID})

	_, err := svc.MarkTaskDone(ctx, services.MarkTaskDoneParams{ID: root.ID, UserID: alice})
	if !errors.Is(err, services.ErrUncompletedSubtasks) {
		t.Fatalf("expected ErrUncompletedSubtasks, got %v", err)
	}
}

func TestTaskService_MarkTaskDone_Idempotent(t *testing.T) {
	svc := newTaskService(t)
	ctx := context.Background()

	task := mustCreate(t, svc, services.CreateTaskParams{Title: "once"})
	first, err := svc.MarkTaskDone(ctx, services.MarkTaskDoneParams{ID: task.ID, UserID: alice})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.MarkTaskDone(ctx, services.MarkTaskDoneParams{ID: task.ID, UserID: alice})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !second.CompletedAt.Equal(*first.CompletedAt) {
		t.Errorf("completed_at moved from %v to %v", first.CompletedAt, second.CompletedAt)
	}
}

func TestTaskService_MarkTaskDone_DoneWithoutCompletionTime(t *testing.T) {
	store := memory.NewTaskStore()
	svc := services.NewTaskService(zerolog.Nop(), store)
	ctx := context.Background()

	task, err := store.Create(ctx, &models.Task{
		OwnerID:  alice,
		Status:   models.StatusDone,
		Priority: models.DefaultPriority,
		Title:    "legacy row",
	})
	if err != nil {
		t.Fatalf("failed to seed task: %v", err)
	}

	done, err := svc.MarkTaskDone(ctx, services.MarkTaskDoneParams{ID: task.ID, UserID: alice})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if done.Status != models.StatusDone {
		t.Errorf("status = %q, want done", done.Status)
	}
}

func TestTaskService_MarkTaskDone_Errors(t *testing.T) {
	svc := newTaskService(t)
	ctx := context.Background()
	task := mustCreate(t, svc, services.CreateTaskParams{Title: "mine"})

	_, err := svc.MarkTaskDone(ctx, services.MarkTaskDoneParams{ID: task.ID, UserID: bob})
	if !errors.Is(err, services.ErrTaskAccessDenied) {
		t.Errorf("non-owner: got %v, want ErrTaskAccessDenied", err)
	}

	_, err = svc.MarkTaskDone(ctx, services.MarkTaskDoneParams{ID: task.ID + 100, UserID: alice})
	if !errors.Is(err, services.ErrTaskNotFound) {
		t.Errorf("missing task: got %v, want ErrTaskNotFound", err)
	}
}

func TestTaskService_UpdateTask(t *testing.T) {
	svc := newTaskService(t)
	ctx := context.Background()
	task := mustCreate(t, svc, services.CreateTaskParams{Title: "draft", Description: ptr("first")})

	updated, err := svc.UpdateTask(ctx, services.UpdateTaskParams{
		ID:       task.ID,
		UserID:   alice,
		Title:    ptr("final"),
		Priority: ptr(models.Priority(3)),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Title != "final" || updated.Priority != 3 {
		t.Errorf("got title %q priority %d", updated.Title, updated.Priority)
	}
	if updated.Description == nil || *updated.Description != "first" {
		t.Errorf("unset description changed to %v", updated.Description)
	}
	if !updated.CreatedAt.Equal(task.CreatedAt) {
		t.Error("created_at must not change")
	}
}

func TestTaskService_UpdateTask_StatusTransitions(t *testing.T) {
	svc := newTaskService(t)
	ctx := context.Background()

	parent := mustCreate(t, svc, services.CreateTaskParams{Title: "parent"})
	child := mustCreate(t, svc, services.CreateTaskParams{Title: "child", ParentID: &parent.ID})

	_, err := svc.UpdateTask(ctx, services.UpdateTaskParams{ID: parent.ID, UserID: alice, Status: ptr(models.StatusDone)})
	if !errors.Is(err, services.ErrUncompletedSubtasks) {
		t.Fatalf("expected ErrUncompletedSubtasks, got %v", err)
	}

	done, err := svc.UpdateTask(ctx, services.UpdateTaskParams{ID: child.ID, UserID: alice, Status: ptr(models.StatusDone)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if done.CompletedAt == nil {
		t.Fatal("expected completed_at to be set")
	}

	reopened, err := svc.UpdateTask(ctx, services.UpdateTaskParams{ID: child.ID, UserID: alice, Status: ptr(models.StatusTodo)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reopened.Status != models.StatusTodo || reopened.CompletedAt != nil {
		t.Errorf("reopened task has status %q completed_at %v", reopened.Status, reopened.CompletedAt)
	}
}

func TestTaskService_UpdateTask_Errors(t *testing.T) {
	svc := newTaskService(t)
	ctx := context.Background()
	task := mustCreate(t, svc, services.CreateTaskParams{Title: "mine"})

	_, err := svc.UpdateTask(ctx, services.UpdateTaskParams{ID: task.ID, UserID: bob, Title: ptr("theirs")})
	if !errors.Is(err, services.ErrTaskAccessDenied) {
		t.Errorf("non-owner: got %v, want ErrTaskAccessDenied", err)
	}

	_, err = svc.UpdateTask(ctx, services.UpdateTaskParams{ID: task.ID, UserID: alice, Title: ptr("")})
	var validationErr *services.ValidationError
	if !errors.As(err, &validationErr) {
		t.Errorf("empty title: got %v, want *ValidationError", err)
	}

	stored, err := svc.GetTaskByID(ctx, task.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.Title != "mine" {
		t.Errorf("rejected updates changed the title to %q", stored.Title)
	}
}

func TestTaskService_DeleteTask(t *testing.T) {
	svc := newTaskService(t)
	ctx := context.Background()

	task := mustCreate(t, svc, services.CreateTaskParams{Title: "mine"})

	err := svc.DeleteTask(ctx, services.DeleteTaskParams{ID: task.ID, UserID: bob})
	if !errors.Is(err, services.ErrTaskAccessDenied) {
		t.Fatalf("non-owner: got %v, want ErrTaskAccessDenied", err)
	}
	if _, err = svc.GetTaskByID(ctx, task.ID); err != nil {
		t.Fatalf("task must survive a rejected delete: %v", err)
	}

	if err = svc.DeleteTask(ctx, services.DeleteTaskParams{ID: task.ID, UserID: alice}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err = svc.GetTaskByID(ctx, task.ID); !errors.Is(err, services.ErrTaskNotFound) {
		t.Errorf("deleted task: got %v, want ErrTaskNotFound", err)
	}

	err = svc.DeleteTask(ctx, services.DeleteTaskParams{ID: task.ID, UserID: alice})
	if !errors.Is(err, services.ErrTaskNotFound) {
		t.Errorf("second delete: got %v, want ErrTaskNotFound", err)
	}
}

func TestTaskService_DeleteTask_RemovesSubtree(t *testing.T) {
	svc := newTaskService(t)
	ctx := context.Background()

	root := mustCreate(t, svc, services.CreateTaskParams{Title: "root"})
	child := mustCreate(t, svc, services.CreateTaskParams{Title: "child", ParentID: &root.ID})
	grandchild := mustCreate(t, svc, services.CreateTaskParams{Title: "grandchild", ParentID: &child.ID})
	other := mustCreate(t, svc, services.CreateTaskParams{Title: "other"})

	if err := svc.DeleteTask(ctx, services.DeleteTaskParams{ID: root.ID, UserID: alice}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, id := range []int64{root.ID, child.ID, grandchild.ID} {
		if _, err := svc.GetTaskByID(ctx, id); !errors.Is(err, services.ErrTaskNotFound) {
			t.Errorf("task %d: got %v, want ErrTaskNotFound", id, err)
		}
	}
	if _, err := svc.GetTaskByID(ctx, other.ID); err != nil {
		t.Errorf("unrelated task was removed: %v", err)
	}
}

func TestTaskService_GetTasks(t *testing.T) {
	svc := newTaskService(t)
	ctx := context.Background()

	mustCreate(t, svc, services.CreateTaskParams{Title: "Buy Milk", Priority: ptr(models.Priority(4))})
	mustCreate(t, svc, services.CreateTaskParams{Title: "Clean", Description: ptr("buy soap first"), Priority: ptr(models.Priority(2))})
	mustCreate(t, svc, services.CreateTaskParams{Title: "Sleep", Priority: ptr(models.Priority(5)), Status: ptr(models.StatusDone)})

	t.Run("search matches title and description case-insensitively", func(t *testing.T) {
		tasks, err := svc.GetTasks(ctx, services.FilterParams{Search: "BUY"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(tasks) != 2 {
			t.Fatalf("got %d tasks, want 2", len(tasks))
		}
	})

	t.Run("status filter", func(t *testing.T) {
		tasks, err := svc.GetTasks(ctx, services.FilterParams{Status: "done"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(tasks) != 1 || tasks[0].Title != "Sleep" {
			t.Fatalf("got %v, want only Sleep", ids(tasks))
		}
	})

	t.Run("priority sort is non-decreasing", func(t *testing.T) {
		tasks, err := svc.GetTasks(ctx, services.FilterParams{Sort: "priority asc"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for i := 1; i < len(tasks); i++ {
			if tasks[i-1].Priority > tasks[i].Priority {
				t.Fatalf("priorities out of order at %d: %d > %d", i, tasks[i-1].Priority, tasks[i].Priority)
			}
		}
	})

	t.Run("unknown sort field falls back to the default order", func(t *testing.T) {
		unsorted, err := svc.GetTasks(ctx, services.FilterParams{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		bogus, err := svc.GetTasks(ctx, services.FilterParams{Sort: "bogus asc"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if diff := cmp.Diff(ids(unsorted), ids(bogus)); diff != "" {
			t.Errorf("order mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("invalid filter", func(t *testing.T) {
		_, err := svc.GetTasks(ctx, services.FilterParams{Priority: "7"})
		var validationErr *services.ValidationError
		if !errors.As(err, &validationErr) {
			t.Errorf("got %v, want *ValidationError", err)
		}
	})
}

func TestTaskService_GetTaskTree(t *testing.T) {
	svc := newTaskService(t)
	ctx := context.Background()

	root := mustCreate(t, svc, services.CreateTaskParams{Title: "root"})
	child := mustCreate(t, svc, services.CreateTaskParams{Title: "child", ParentID: &root.ID, Status: ptr(models.StatusDone)})
	mustCreate(t, svc, services.CreateTaskParams{Title: "grandchild", ParentID: &child.ID})

	forest, err := svc.GetTaskTree(ctx, services.FilterParams{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(forest) != 1 || forest[0].ID != root.ID {
		t.Fatalf("expected a single root %d, got %d roots", root.ID, len(forest))
	}
	if len(forest[0].Subtasks) != 1 || len(forest[0].Subtasks[0].Subtasks) != 1 {
		t.Fatal("expected a three-level chain")
	}

	// The done child loses its parent to the filter and becomes a root.
	forest, err = svc.GetTaskTree(ctx, services.FilterParams{Status: "done"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(forest) != 1 || forest[0].ID != child.ID {
		t.Fatalf("expected the done child as the only root, got %d roots", len(forest))
	}
}
