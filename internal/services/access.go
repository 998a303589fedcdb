package services

import "github.com/adanyl0v/go-task-tree/internal/models"

// AuthorizeTaskAccess returns ErrTaskAccessDenied unless
// the principal owns the task.
func AuthorizeTaskAccess(task *models.Task, principalID string) error {
	if principalID == "" || task.OwnerID != principalID {
		return ErrTaskAccessDenied
	}
	return nil
}
