package services

import "github.com/adanyl0v/go-task-tree/internal/models"

// CanComplete reports whether every subtask reachable from task
// among descendants is done.
func CanComplete(task *models.Task, descendants []*models.Task) bool {
	children := make(map[int64][]*models.Task, len(descendants))
	for _, d := range descendants {
		if d.ParentID != nil {
			children[*d.ParentID] = append(children[*d.ParentID], d)
		}
	}

	visited := map[int64]struct{}{task.ID: {}}
	stack := []int64{task.ID}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, child := range children[id] {
			if !child.IsDone() {
				return false
			}
			if _, seen := visited[child.ID]; seen {
				continue
			}
			visited[child.ID] = struct{}{}
			stack = append(stack, child.ID)
		}
	}
	return true
}

// CheckCompletable returns ErrUncompletedSubtasks unless CanComplete.
func CheckCompletable(task *models.Task, descendants []*models.Task) error {
	if !CanComplete(task, descendants) {
		return ErrUncompletedSubtasks
	}
	return nil
}
