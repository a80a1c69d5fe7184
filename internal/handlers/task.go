package handlers

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"teamboard/internal/middleware"
	"teamboard/internal/services"
	"teamboard/pkg/response"
)

type TaskHandler struct {
	taskService *services.TaskService
}

func NewTaskHandler(db *gorm.DB, pub services.Publisher) *TaskHandler {
	return &TaskHandler{taskService: services.NewTaskService(db, pub)}
}

// List returns tasks the actor created or is assigned to
// GET /api/tasks
func (h *TaskHandler) List(c *gin.Context) {
	tasks, err := h.taskService.ListForUser(middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"count": len(tasks), "tasks": tasks})
}

// ListForProject returns a project's tasks
// GET /api/tasks/project/:projectId
func (h *TaskHandler) ListForProject(c *gin.Context) {
	projectID, err := parseID(c, "projectId")
	if err != nil {
		response.BadRequest(c, "invalid project id")
		return
	}

	tasks, err := h.taskService.ListForProject(projectID, middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"count": len(tasks), "tasks": tasks})
}

// Get returns a task by id
// GET /api/tasks/:id
func (h *TaskHandler) Get(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid task id")
		return
	}

	task, err := h.taskService.Get(id, middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"task": task})
}

// Create creates a new task
// POST /api/tasks
func (h *TaskHandler) Create(c *gin.Context) {
	var req services.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	task, err := h.taskService.Create(&req, middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "task created successfully", gin.H{"task": task})
}

// Update applies a partial update to a task
// PUT /api/tasks/:id
func (h *TaskHandler) Update(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid task id")
		return
	}

	var req services.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	task, err := h.taskService.Update(id, &req, middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessMsg(c, "task updated successfully", gin.H{"task": task})
}

// Delete removes a task and its comments
// DELETE /api/tasks/:id
func (h *TaskHandler) Delete(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid task id")
		return
	}

	if err := h.taskService.Delete(id, middleware.GetUserID(c)); err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessMsg(c, "task deleted successfully", nil)
}

// AddComment appends a comment to a task
// POST /api/tasks/:id/comments
func (h *TaskHandler) AddComment(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid task id")
		return
	}

	var req services.AddCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	task, err := h.taskService.AddComment(id, &req, middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "comment added successfully", gin.H{"task": task})
}
