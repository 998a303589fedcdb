package services

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/adanyl0v/go-task-tree/internal/models"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrUserAlreadyExists    = errors.New("user already exists")
	ErrUserPasswordMismatch = errors.New("user password mismatch")
	ErrTaskNotFound         = errors.New("task not found")
	ErrTaskAccessDenied     = errors.New("access denied: you are not allowed to perform this action")
	ErrUncompletedSubtasks  = errors.New("task cannot be marked as done while it has uncompleted subtasks")
)

type AuthService interface {
	// Login authenticates the user by email and password and
	// issues a fresh access token.
	//
	// It returns ErrUserNotFound if the user with the given
	// email doesn't exist or ErrUserPasswordMismatch if the
	// given password doesn't match the user's password.
	Login(ctx context.Context, params LoginParams) (*LoginResult, error)

	// Register a user with the given email and password.
	//
	// It hashes the password, generates a unique ID and
	// issues an access token for the new user.
	//
	// It returns ErrUserAlreadyExists if the user
	// with the given email already exists.
	Register(ctx context.Context, params LoginParams) (*LoginResult, error)

	// ParseJWTToken parses the given JWT token and returns the registered
	// claims or an error wrapping jwt.ErrTokenExpired if the token is expired.
	ParseJWTToken(token string) (*jwt.RegisteredClaims, error)
}

type TaskService interface {
	// GetTasks returns the flat list of tasks matching the filter.
	//
	// It returns a *ValidationError if a filter value is out of range.
	GetTasks(ctx context.Context, filter FilterParams) ([]*models.Task, error)

	// GetTaskTree returns the tasks matching the filter arranged
	// as a forest. Tasks whose parent is filtered out become roots.
	GetTaskTree(ctx context.Context, filter FilterParams) ([]*models.TaskNode, error)

	// GetTaskByID returns ErrTaskNotFound if there is no such task.
	GetTaskByID(ctx context.Context, id int64) (*models.Task, error)

	CreateTask(ctx context.Context, params CreateTaskParams) (*models.Task, error)

	// UpdateTask changes the non-nil fields of the task.
	//
	// It returns ErrTaskAccessDenied if the user doesn't own the task and
	// ErrUncompletedSubtasks if the status moves to done too early.
	UpdateTask(ctx context.Context, params UpdateTaskParams) (*models.Task, error)

	// DeleteTask removes the task and all of its subtasks.
	DeleteTask(ctx context.Context, params DeleteTaskParams) error

	// MarkTaskDone completes the task once every subtask is done.
	// Completing a task that is already done is a no-op.
	MarkTaskDone(ctx context.Context, params MarkTaskDoneParams) (*models.Task, error)
}

// TaskStore persists tasks.
type TaskStore interface {
	// FindByID returns ErrTaskNotFound if there is no such task.
	FindByID(ctx context.Context, id int64) (*models.Task, error)
	List(ctx context.Context, query models.TaskQuery) ([]*models.Task, error)
	// ListDescendants returns every direct and transitive subtask.
	ListDescendants(ctx context.Context, id int64) ([]*models.Task, error)
	Create(ctx context.Context, task *models.Task) (*models.Task, error)
	Update(ctx context.Context, task *models.Task) (*models.Task, error)
	// Delete removes the task together with its subtree.
	Delete(ctx context.Context, id int64) error
	// InTx runs fn against a store bound to a single serializable
	// transaction. The transaction commits only if fn returns nil.
	InTx(ctx context.Context, fn func(store TaskStore) error) error
}

type UserStore interface {
	// Create returns ErrUserAlreadyExists on a duplicate email.
	Create(ctx context.Context, user *models.User) error
	// FindByEmail returns ErrUserNotFound if there is no such user.
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

type LoginParams struct {
	Email    string
	Password string
}

type LoginResult struct {
	UserID               string
	AccessToken          string
	AccessTokenExpiresAt time.Time
}

// FilterParams holds the raw listing parameters as received.
type FilterParams struct {
	Status   string
	Priority string
	Search   string
	Sort     string
}

type CreateTaskParams struct {
	UserID      string
	ParentID    *int64
	Status      *models.Status
	Priority    *models.Priority
	Title       string
	Description *string
}

type UpdateTaskParams struct {
	ID          int64
	UserID      string
	Status      *models.Status
	Priority    *models.Priority
	Title       *string
	Description *string
}

type DeleteTaskParams struct {
	ID     int64
	UserID string
}

type MarkTaskDoneParams struct {
	ID     int64
	UserID string
}
