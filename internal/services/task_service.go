package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-task-tree/internal/models"
)

type taskServiceImpl struct {
	logger zerolog.Logger
	store  TaskStore
	now    func() time.Time
}

func NewTaskService(
	logger zerolog.Logger,
	store TaskStore,
) TaskService {
	return &taskServiceImpl{
		logger: logger,
		store:  store,
		now:    time.Now,
	}
}

func (s *taskServiceImpl) GetTasks(ctx context.Context, filter FilterParams) ([]*models.Task, error) {
	query, err := ResolveTaskFilter(filter)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Msg("invalid task filter")
		return nil, err
	}

	tasks, err := s.store.List(ctx, query)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to list tasks")
		return nil, err
	}
	s.logger.Debug().
		Int("count", len(tasks)).
		Str("search", query.Search).
		Msg("listed tasks")

	s.logger.Info().
		Int("count", len(tasks)).
		Msg("tasks found")
	return tasks, nil
}

func (s *taskServiceImpl) GetTaskTree(ctx context.Context, filter FilterParams) ([]*models.TaskNode, error) {
	tasks, err := s.GetTasks(ctx, filter)
	if err != nil {
		return nil, err
	}

	forest := BuildTaskTree(tasks)
	s.logger.Debug().
		Int("roots", len(forest)).
		Int("count", len(tasks)).
		Msg("built task tree")
	return forest, nil
}

func (s *taskServiceImpl) GetTaskByID(ctx context.Context, id int64) (*models.Task, error) {
	task, err := s.store.FindByID(ctx, id)
	if err != nil {
		s.logFindError(err, id)
		return nil, err
	}
	s.logger.Debug().
		Int64("task_id", id).
		Msg("selected task by id")
	return task, nil
}

func (s *taskServiceImpl) CreateTask(ctx context.Context, params CreateTaskParams) (*models.Task, error) {
	task := &models.Task{
		ParentID:    params.ParentID,
		OwnerID:     params.UserID,
		Status:      models.StatusTodo,
		Priority:    models.DefaultPriority,
		Title:       params.Title,
		Description: params.Description,
		CreatedAt:   s.now(),
	}
	if params.Priority != nil {
		task.Priority = *params.Priority
	}
	if params.Status != nil {
		// A new task has no subtasks, so it may start out done.
		task.SetStatus(*params.Status, task.CreatedAt)
	}

	if err := validateTask(task); err != nil {
		s.logger.Warn().
			Err(err).
			Msg("invalid task")
		return nil, err
	}

	if task.ParentID != nil {
		parent, err := s.store.FindByID(ctx, *task.ParentID)
		if err != nil {
			if errors.Is(err, ErrTaskNotFound) {
				s.logger.Warn().
					Int64("parent_id", *task.ParentID).
					Msg("parent task not found")
				return nil, NewValidationError("parent_id", "must reference an existing task")
			}

			s.logger.Error().
				Err(err).
				Int64("parent_id", *task.ParentID).
				Msg("failed to select parent task")
			return nil, err
		}

		// Only the parent's owner may add subtasks.
		if err = AuthorizeTaskAccess(parent, params.UserID); err != nil {
			s.logger.Warn().
				Int64("parent_id", parent.ID).
				Str("user_id", params.UserID).
				Msg("not allowed to add a subtask")
			return nil, err
		}
	}

	created, err := s.store.Create(ctx, task)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to insert task")
		return nil, err
	}
	s.logger.Debug().
		Int64("task_id", created.ID).
		Msg("created task")

	s.logger.Info().
		Int64("task_id", created.ID).
		Str("user_id", created.OwnerID).
		Msg("created task")
	return created, nil
}

func (s *taskServiceImpl) UpdateTask(ctx context.Context, params UpdateTaskParams) (*models.Task, error) {
	var updated *models.Task
	err := s.store.InTx(ctx, func(store TaskStore) error {
		task, err := store.FindByID(ctx, params.ID)
		if err != nil {
			return err
		}

		if err = AuthorizeTaskAccess(task, params.UserID); err != nil {
			return err
		}

		if params.Title != nil {
			task.Title = *params.Title
		}
		if params.Description != nil {
			task.Description = params.Description
		}
		if params.Priority != nil {
			task.Priority = *params.Priority
		}
		if params.Status != nil {
			if *params.Status == models.StatusDone && !task.IsDone() {
				descendants, err := store.ListDescendants(ctx, task.ID)
				if err != nil {
					return err
				}
				if err = CheckCompletable(task, descendants); err != nil {
					return err
				}
			}
			task.SetStatus(*params.Status, s.now())
		}

		if err = validateTask(task); err != nil {
			return err
		}

		updated, err = store.Update(ctx, task)
		return err
	})
	if err != nil {
		s.logMutationError(err, params.ID, params.UserID, "failed to update task")
		return nil, err
	}
	s.logger.Debug().
		Int64("task_id", updated.ID).
		Msg("updated task")

	s.logger.Info().
		Int64("task_id", updated.ID).
		Str("user_id", params.UserID).
		Msg("updated task")
	return updated, nil
}

func (s *taskServiceImpl) DeleteTask(ctx context.Context, params DeleteTaskParams) error {
	task, err := s.store.FindByID(ctx, params.ID)
	if err != nil {
		s.logFindError(err, params.ID)
		return err
	}

	if err = AuthorizeTaskAccess(task, params.UserID); err != nil {
		s.logMutationError(err, params.ID, params.UserID, "failed to delete task")
		return err
	}

	if err = s.store.Delete(ctx, params.ID); err != nil {
		s.logMutationError(err, params.ID, params.UserID, "failed to delete task")
		return err
	}
	s.logger.Debug().
		Int64("task_id", params.ID).
		Msg("deleted task")

	s.logger.Info().
		Int64("task_id", params.ID).
		Str("user_id", params.UserID).
		Msg("deleted task")
	return nil
}

func (s *taskServiceImpl) MarkTaskDone(ctx context.Context, params MarkTaskDoneParams) (*models.Task, error) {
	var done *models.Task
	err := s.store.InTx(ctx, func(store TaskStore) error {
		task, err := store.FindByID(ctx, params.ID)
		if err != nil {
			return err
		}

		if err = AuthorizeTaskAccess(task, params.UserID); err != nil {
			return err
		}

		if task.IsDone() {
			done = task
			return nil
		}

		descendants, err := store.ListDescendants(ctx, task.ID)
		if err != nil {
			return err
		}
		if err = CheckCompletable(task, descendants); err != nil {
			return err
		}

		task.SetStatus(models.StatusDone, s.now())
		done, err = store.Update(ctx, task)
		return err
	})
	if err != nil {
		s.logMutationError(err, params.ID, params.UserID, "failed to mark task as done")
		return nil, err
	}
	event := s.logger.Debug().Int64("task_id", done.ID)
	if done.CompletedAt != nil {
		event = event.Time("completed_at", *done.CompletedAt)
	}
	event.Msg("marked task as done")

	s.logger.Info().
		Int64("task_id", done.ID).
		Str("user_id", params.UserID).
		Msg("marked task as done")
	return done, nil
}

func validateTask(task *models.Task) error {
	var invalid ValidationError
	if task.Title == "" {
		invalid.Add("title", "is required")
	}
	if !task.Status.Valid() {
		invalid.Add("status", "must be one of: todo, done")
	}
	if !task.Priority.Valid() {
		invalid.Add("priority", "must be an integer between 1 and 5")
	}
	if !invalid.Empty() {
		return &invalid
	}
	return nil
}

func (s *taskServiceImpl) logFindError(err error, id int64) {
	if errors.Is(err, ErrTaskNotFound) {
		s.logger.Warn().
			Int64("task_id", id).
			Msg("task not found")
		return
	}

	s.logger.Error().
		Err(err).
		Int64("task_id", id).
		Msg("failed to select task")
}

func (s *taskServiceImpl) logMutationError(err error, id int64, userID, msg string) {
	var validationErr *ValidationError
	switch {
	case errors.Is(err, ErrTaskNotFound):
		s.logger.Warn().
			Int64("task_id", id).
			Msg("task not found")
	case errors.Is(err, ErrTaskAccessDenied),
		errors.Is(err, ErrUncompletedSubtasks),
		errors.As(err, &validationErr):
		s.logger.Warn().
			Err(err).
			Int64("task_id", id).
			Str("user_id", userID).
			Msg(msg)
	default:
		s.logger.Error().
			Err(err).
			Int64("task_id", id).
			Str("user_id", userID).
			Msg(msg)
	}
}
