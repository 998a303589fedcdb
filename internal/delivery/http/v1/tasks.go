package v1

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/go-task-tree/internal/models"
	"github.com/adanyl0v/go-task-tree/internal/services"
)

type taskResponse struct {
	ID          int64      `json:"id"`
	ParentID    *int64     `json:"parent_id"`
	OwnerID     string     `json:"owner_id"`
	Status      string     `json:"status"`
	Priority    int        `json:"priority"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at"`
}

func newTaskResponse(task *models.Task) taskResponse {
	return taskResponse{
		ID:          task.ID,
		ParentID:    task.ParentID,
		OwnerID:     task.OwnerID,
		Status:      string(task.Status),
		Priority:    int(task.Priority),
		Title:       task.Title,
		Description: task.Description,
		CreatedAt:   task.CreatedAt,
		CompletedAt: task.CompletedAt,
	}
}

func newTaskListResponse(tasks []*models.Task) []taskResponse {
	response := make([]taskResponse, len(tasks))
	for i, task := range tasks {
		response[i] = newTaskResponse(task)
	}
	return response
}

type taskNodeResponse struct {
	taskResponse
	Subtasks []taskNodeResponse `json:"subtasks"`
}

func newTaskTreeResponse(nodes []*models.TaskNode) []taskNodeResponse {
	response := make([]taskNodeResponse, len(nodes))
	for i, node := range nodes {
		response[i] = taskNodeResponse{
			taskResponse: newTaskResponse(node.Task),
			Subtasks:     newTaskTreeResponse(node.Subtasks),
		}
	}
	return response
}

type getTasksQuery struct {
	Status   string `form:"status"`
	Priority string `form:"priority"`
	Search   string `form:"search"`
	Sort     string `form:"sort"`
}

func (q getTasksQuery) params() services.FilterParams {
	return services.FilterParams{
		Status:   q.Status,
		Priority: q.Priority,
		Search:   q.Search,
		Sort:     q.Sort,
	}
}

type createTaskRequest struct {
	Title       string  `json:"title" binding:"required,max=255"`
	Description *string `json:"description"`
	Status      *string `json:"status" binding:"omitempty,oneof=todo done"`
	Priority    *int    `json:"priority" binding:"omitempty,min=1,max=5"`
	ParentID    *int64  `json:"parent_id" binding:"omitempty,min=1"`
}

type updateTaskRequest struct {
	Title       *string `json:"title" binding:"omitempty,max=255"`
	Description *string `json:"description"`
	Status      *string `json:"status" binding:"omitempty,oneof=todo done"`
	Priority    *int    `json:"priority" binding:"omitempty,min=1,max=5"`
}

func (h *handlerImpl) HandleGetTasks(c *gin.Context) {
	var query getTasksQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.logger.Warn().
			Err(err).
			Msg("failed to bind query")
		abort(c, newBadRequestError(err.Error()))
		return
	}

	tasks, err := h.tasks.GetTasks(c, query.params())
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, newTaskListResponse(tasks))
}

func (h *handlerImpl) HandleGetTaskTree(c *gin.Context) {
	var query getTasksQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.logger.Warn().
			Err(err).
			Msg("failed to bind query")
		abort(c, newBadRequestError(err.Error()))
		return
	}

	forest, err := h.tasks.GetTaskTree(c, query.params())
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, newTaskTreeResponse(forest))
}

func (h *handlerImpl) HandleGetTask(c *gin.Context) {
	taskID, ok := h.taskIDParam(c)
	if !ok {
		return
	}

	task, err := h.tasks.GetTaskByID(c, taskID)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, newTaskResponse(task))
}

func (h *handlerImpl) HandleCreateTask(c *gin.Context) {
	var req createTaskRequest
	if err := bindJSON(c, &req); err != nil {
		h.logger.Warn().
			Err(err).
			Msg("failed to bind json")
		abortWithServiceError(c, err)
		return
	}

	params := services.CreateTaskParams{
		UserID:      principalID(c),
		ParentID:    req.ParentID,
		Title:       req.Title,
		Description: req.Description,
	}
	if req.Status != nil {
		status := models.Status(*req.Status)
		params.Status = &status
	}
	if req.Priority != nil {
		priority := models.Priority(*req.Priority)
		params.Priority = &priority
	}

	task, err := h.tasks.CreateTask(c, params)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newTaskResponse(task))
}

func (h *handlerImpl) HandleUpdateTask(c *gin.Context) {
	taskID, ok := h.taskIDParam(c)
	if !ok {
		return
	}

	var req updateTaskRequest
	if err := bindJSON(c, &req); err != nil {
		h.logger.Warn().
			Err(err).
			Msg("failed to bind json")
		abortWithServiceError(c, err)
		return
	}

	params := services.UpdateTaskParams{
		ID:          taskID,
		UserID:      principalID(c),
		Title:       req.Title,
		Description: req.Description,
	}
	if req.Status != nil {
		status := models.Status(*req.Status)
		params.Status = &status
	}
	if req.Priority != nil {
		priority := models.Priority(*req.Priority)
		params.Priority = &priority
	}

	task, err := h.tasks.UpdateTask(c, params)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, newTaskResponse(task))
}

func (h *handlerImpl) HandleDeleteTask(c *gin.Context) {
	taskID, ok := h.taskIDParam(c)
	if !ok {
		return
	}

	err := h.tasks.DeleteTask(c, services.DeleteTaskParams{
		ID:     taskID,
		UserID: principalID(c),
	})
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlerImpl) HandleMarkTaskDone(c *gin.Context) {
	taskID, ok := h.taskIDParam(c)
	if !ok {
		return
	}

	task, err := h.tasks.MarkTaskDone(c, services.MarkTaskDoneParams{
		ID:     taskID,
		UserID: principalID(c),
	})
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, newTaskResponse(task))
}

// taskIDParam aborts with 404 if the id segment isn't a task id.
func (h *handlerImpl) taskIDParam(c *gin.Context) (int64, bool) {
	raw := c.Param("id")
	taskID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || taskID <= 0 {
		h.logger.Warn().
			Str("task_id", raw).
			Msg("invalid task id")
		abort(c, newNotFoundError(services.ErrTaskNotFound.Error()))
		return 0, false
	}
	return taskID, true
}
