// Package memory implements the service stores in process memory.
//
// Filtering and ordering follow the postgres store: id order unless a
// sort is given, ties broken by id, and a missing completion time sorts
// after every present one.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/adanyl0v/go-task-tree/internal/models"
	"github.com/adanyl0v/go-task-tree/internal/services"
)

type TaskStore struct {
	// txMu serializes InTx callers against each other.
	txMu   sync.Mutex
	mu     sync.Mutex
	nextID int64
	tasks  map[int64]models.Task
}

func NewTaskStore() *TaskStore {
	return &TaskStore{tasks: make(map[int64]models.Task)}
}

func (s *TaskStore) FindByID(_ context.Context, id int64) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[id]
	if !ok {
		return nil, services.ErrTaskNotFound
	}
	return &task, nil
}

func (s *TaskStore) List(_ context.Context, q models.TaskQuery) ([]*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	search := strings.ToLower(q.Search)
	tasks := make([]*models.Task, 0)
	for _, t := range s.tasks {
		task := t
		if q.Status != nil && task.Status != *q.Status {
			continue
		}
		if q.Priority != nil && task.Priority != *q.Priority {
			continue
		}
		if search != "" {
			inTitle := strings.Contains(strings.ToLower(task.Title), search)
			inDescription := task.Description != nil &&
				strings.Contains(strings.ToLower(*task.Description), search)
			if !inTitle && !inDescription {
				continue
			}
		}
		tasks = append(tasks, &task)
	}

	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })
	if q.Sort != nil {
		less := sortLess(q.Sort.Field)
		if less != nil {
			sort.SliceStable(tasks, func(i, j int) bool {
				if q.Sort.Descending {
					return less(tasks[j], tasks[i])
				}
				return less(tasks[i], tasks[j])
			})
		}
	}
	return tasks, nil
}

func sortLess(field models.SortField) func(a, b *models.Task) bool {
	switch field {
	case models.SortByPriority:
		return func(a, b *models.Task) bool { return a.Priority < b.Priority }
	case models.SortByCreatedAt:
		return func(a, b *models.Task) bool { return a.CreatedAt.Before(b.CreatedAt) }
	case models.SortByCompletedAt:
		return func(a, b *models.Task) bool {
			switch {
			case a.CompletedAt == nil:
				return false
			case b.CompletedAt == nil:
				return true
			default:
				return a.CompletedAt.Before(*b.CompletedAt)
			}
		}
	default:
		return nil
	}
}

func (s *TaskStore) ListDescendants(_ context.Context, id int64) ([]*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.descendants(id), nil
}

func (s *TaskStore) descendants(id int64) []*models.Task {
	var result []*models.Task
	queue := []int64{id}
	for len(queue) > 0 {
		parent := queue[0]
		queue = queue[1:]
		for _, t := range s.tasks {
			if t.ParentID != nil && *t.ParentID == parent {
				task := t
				result = append(result, &task)
				queue = append(queue, task.ID)
			}
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

func (s *TaskStore) Create(_ context.Context, task *models.Task) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	created := *task
	created.ID = s.nextID
	s.tasks[created.ID] = created
	return &created, nil
}

func (s *TaskStore) Update(_ context.Context, task *models.Task) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[task.ID]; !ok {
		return nil, services.ErrTaskNotFound
	}
	s.tasks[task.ID] = *task
	updated := *task
	return &updated, nil
}

func (s *TaskStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[id]; !ok {
		return services.ErrTaskNotFound
	}
	for _, d := range s.descendants(id) {
		delete(s.tasks, d.ID)
	}
	delete(s.tasks, id)
	return nil
}

func (s *TaskStore) InTx(_ context.Context, fn func(store services.TaskStore) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return fn(s)
}

type UserStore struct {
	mu    sync.Mutex
	users map[string]models.User
}

func NewUserStore() *UserStore {
	return &UserStore{users: make(map[string]models.User)}
}

func (s *UserStore) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.Email]; ok {
		return services.ErrUserAlreadyExists
	}
	s.users[user.Email] = *user
	return nil
}

func (s *UserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[email]
	if !ok {
		return nil, services.ErrUserNotFound
	}
	return &user, nil
}

var (
	_ services.TaskStore = (*TaskStore)(nil)
	_ services.UserStore = (*UserStore)(nil)
)
