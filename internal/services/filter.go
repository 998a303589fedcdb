package services

import (
	"strconv"
	"strings"

	"github.com/adanyl0v/go-task-tree/internal/models"
)

var sortableFields = map[string]models.SortField{
	string(models.SortByCreatedAt):   models.SortByCreatedAt,
	string(models.SortByCompletedAt): models.SortByCompletedAt,
	string(models.SortByPriority):    models.SortByPriority,
}

// ResolveTaskFilter validates the raw listing parameters and
// turns them into a query for the task store.
//
// A sort value that doesn't look like "<field> <asc|desc>" with an
// allowed field is ignored rather than rejected.
func ResolveTaskFilter(params FilterParams) (models.TaskQuery, error) {
	var (
		query   models.TaskQuery
		invalid ValidationError
	)

	if params.Status != "" {
		status := models.Status(params.Status)
		if status.Valid() {
			query.Status = &status
		} else {
			invalid.Add("status", "must be one of: todo, done")
		}
	}

	if params.Priority != "" {
		n, err := strconv.Atoi(strings.TrimSpace(params.Priority))
		priority := models.Priority(n)
		if err == nil && priority.Valid() {
			query.Priority = &priority
		} else {
			invalid.Add("priority", "must be an integer between 1 and 5")
		}
	}

	query.Search = strings.TrimSpace(params.Search)
	query.Sort = parseSortOrder(params.Sort)

	if !invalid.Empty() {
		return models.TaskQuery{}, &invalid
	}
	return query, nil
}

func parseSortOrder(raw string) *models.SortOrder {
	parts := strings.Fields(raw)
	if len(parts) != 2 {
		return nil
	}

	field, ok := sortableFields[parts[0]]
	if !ok {
		return nil
	}

	switch strings.ToLower(parts[1]) {
	case "asc":
		return &models.SortOrder{Field: field}
	case "desc":
		return &models.SortOrder{Field: field, Descending: true}
	default:
		return nil
	}
}
