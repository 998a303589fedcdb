package services

import "github.com/adanyl0v/go-task-tree/internal/models"

// BuildTaskTree arranges a flat task list into a forest. Sibling order
// follows the input order. A task whose parent isn't in the list
// becomes a root, so every input task appears exactly once.
func BuildTaskTree(tasks []*models.Task) []*models.TaskNode {
	present := make(map[int64]struct{}, len(tasks))
	for _, task := range tasks {
		present[task.ID] = struct{}{}
	}

	children := make(map[int64][]*models.Task)
	var roots []*models.Task
	for _, task := range tasks {
		if task.ParentID != nil {
			if _, ok := present[*task.ParentID]; ok {
				children[*task.ParentID] = append(children[*task.ParentID], task)
				continue
			}
		}
		roots = append(roots, task)
	}

	visited := make(map[int64]struct{}, len(tasks))
	var attach func(task *models.Task) *models.TaskNode
	attach = func(task *models.Task) *models.TaskNode {
		visited[task.ID] = struct{}{}
		node := &models.TaskNode{Task: task, Subtasks: []*models.TaskNode{}}
		for _, child := range children[task.ID] {
			if _, seen := visited[child.ID]; seen {
				continue
			}
			node.Subtasks = append(node.Subtasks, attach(child))
		}
		return node
	}

	forest := make([]*models.TaskNode, 0, len(roots))
	for _, task := range roots {
		if _, seen := visited[task.ID]; seen {
			continue
		}
		forest = append(forest, attach(task))
	}

	// Only reachable with cyclic parent references.
	for _, task := range tasks {
		if _, seen := visited[task.ID]; !seen {
			forest = append(forest, attach(task))
		}
	}
	return forest
}

// FlattenTaskTree walks the forest in pre-order.
func FlattenTaskTree(forest []*models.TaskNode) []*models.Task {
	var tasks []*models.Task
	var walk func(nodes []*models.TaskNode)
	walk = func(nodes []*models.TaskNode) {
		for _, node := range nodes {
			tasks = append(tasks, node.Task)
			walk(node.Subtasks)
		}
	}
	walk(forest)
	return tasks
}
