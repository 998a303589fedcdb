package models

type SortField string

const (
	SortByCreatedAt   SortField = "createdAt"
	SortByCompletedAt SortField = "completedAt"
	SortByPriority    SortField = "priority"
)

type SortOrder struct {
	Field      SortField
	Descending bool
}

// TaskQuery describes a filtered and optionally sorted task listing.
// Nil fields and an empty Search disable the corresponding filter.
type TaskQuery struct {
	Status   *Status
	Priority *Priority
	Search   string
	Sort     *SortOrder
}
